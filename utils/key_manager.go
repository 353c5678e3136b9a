package utils

import (
	"vault/logs"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// KeyManager 保存客户端签名用的私钥和由私钥推导出的身份地址
type KeyManager struct {
	privateKey *secp256k1.PrivateKey
	address    string
}

// NewKeyManager 从 WIF 或 hex 私钥创建
func NewKeyManager(priKey string) (*KeyManager, error) {
	priv, err := ParseSecp256k1PrivateKey(priKey)
	if err != nil {
		return nil, err
	}
	return NewKeyManagerFromKey(priv)
}

// NewKeyManagerFromKey 直接使用已有私钥
func NewKeyManagerFromKey(priv *secp256k1.PrivateKey) (*KeyManager, error) {
	addr, err := DeriveBtcBech32Address(priv)
	if err != nil {
		return nil, err
	}
	logs.Debug("[KeyManager] init key success. Address=%s", addr)
	return &KeyManager{privateKey: priv, address: addr}, nil
}

// GetAddress 返回身份地址
func (km *KeyManager) GetAddress() string {
	return km.address
}

// PrivateKey 返回私钥
func (km *KeyManager) PrivateKey() *secp256k1.PrivateKey {
	return km.privateKey
}

// Sign 对 payload 做可恢复签名
func (km *KeyManager) Sign(payload []byte) []byte {
	return SignPayload(km.privateKey, payload)
}
