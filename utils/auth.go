package utils

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// CompactSignatureLen 可恢复签名长度（1 字节 recovery flag + 64 字节 r||s）
const CompactSignatureLen = 65

var ErrInvalidSignature = errors.New("invalid signature")

// SigningHash 请求签名摘要：sha256(payload)
func SigningHash(payload []byte) []byte {
	return chainhash.HashB(payload)
}

// SignPayload 对 payload 做可恢复签名
func SignPayload(priv *secp256k1.PrivateKey, payload []byte) []byte {
	return ecdsa.SignCompact(priv, SigningHash(payload), true)
}

// RecoverSigner 从可恢复签名中恢复公钥并推导身份地址
func RecoverSigner(payload, sig []byte) (string, error) {
	if len(sig) != CompactSignatureLen {
		return "", ErrInvalidSignature
	}
	pub, _, err := ecdsa.RecoverCompact(sig, SigningHash(payload))
	if err != nil {
		return "", ErrInvalidSignature
	}
	return AddressFromPubKey(pub)
}

// VerifySigner 签名恢复出的身份必须等于 expected
func VerifySigner(payload, sig []byte, expected string) bool {
	signer, err := RecoverSigner(payload, sig)
	if err != nil {
		return false
	}
	return signer == expected
}
