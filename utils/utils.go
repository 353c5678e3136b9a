package utils

import (
	"encoding/hex"
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// NetParams 身份地址使用的网络参数
var NetParams = &chaincfg.MainNetParams

var (
	ErrInvalidIdentity = errors.New("invalid identity")
	ErrInvalidKey      = errors.New("invalid private key")
)

// GeneratePrivateKey 生成新的 secp256k1 私钥
func GeneratePrivateKey() (*secp256k1.PrivateKey, error) {
	return secp256k1.GeneratePrivateKey()
}

// ParseSecp256k1PrivateKey 同时支持 WIF 或 16 进制的32字节私钥字符串
func ParseSecp256k1PrivateKey(keyStr string) (*secp256k1.PrivateKey, error) {
	// 1) 尝试当作WIF解析
	if wif, err := btcutil.DecodeWIF(keyStr); err == nil {
		return wif.PrivKey, nil
	}

	// 2) 如果不是WIF，则尝试按Hex进行解析
	raw, err := hex.DecodeString(keyStr)
	if err != nil {
		return nil, errors.New("invalid key (neither valid WIF nor valid hex): " + err.Error())
	}
	if len(raw) != 32 {
		return nil, errors.New("invalid private key length in hex (must be 32 bytes)")
	}

	// 3) 使用 32 字节原生私钥
	return secp256k1.PrivKeyFromBytes(raw), nil
}

// EncodeWIF 把私钥编码成压缩公钥格式的 WIF
func EncodeWIF(priv *secp256k1.PrivateKey) (string, error) {
	wif, err := btcutil.NewWIF(priv, NetParams, true)
	if err != nil {
		return "", err
	}
	return wif.String(), nil
}

// AddressFromPubKey 压缩公钥 → Hash160 → bc1q… P2WPKH 身份地址
func AddressFromPubKey(pub *btcec.PublicKey) (string, error) {
	if pub == nil {
		return "", ErrInvalidIdentity
	}
	pubKeyHash := btcutil.Hash160(pub.SerializeCompressed())
	addr, err := btcutil.NewAddressWitnessPubKeyHash(pubKeyHash, NetParams)
	if err != nil {
		return "", err
	}
	return addr.EncodeAddress(), nil
}

// DeriveBtcBech32Address 从私钥生成 bc1q… P2WPKH 地址
func DeriveBtcBech32Address(privKey *secp256k1.PrivateKey) (string, error) {
	if privKey == nil {
		return "", ErrInvalidKey
	}
	return AddressFromPubKey(privKey.PubKey())
}

// identityProgram 校验身份地址并返回 20 字节 witness program
// 只接受规范（小写）编码，保证同一身份只有一种字符串形式
func identityProgram(identity string) ([]byte, error) {
	addr, err := btcutil.DecodeAddress(identity, NetParams)
	if err != nil {
		return nil, ErrInvalidIdentity
	}
	wpkh, ok := addr.(*btcutil.AddressWitnessPubKeyHash)
	if !ok || !wpkh.IsForNet(NetParams) {
		return nil, ErrInvalidIdentity
	}
	if wpkh.EncodeAddress() != identity {
		return nil, ErrInvalidIdentity
	}
	return wpkh.WitnessProgram(), nil
}

// ValidateIdentity 校验身份地址
func ValidateIdentity(identity string) error {
	_, err := identityProgram(identity)
	return err
}
