package utils

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// DefaultVaultNamespace 金库地址命名空间
const DefaultVaultNamespace = "vault"

var ErrInvalidVaultAddress = errors.New("invalid vault address")

// AddressDeriver 由 (namespace, authority) 确定性推导金库地址，不需要任何注册表
type AddressDeriver struct {
	Namespace string
}

// NewAddressDeriver 空命名空间回落到 "vault"
func NewAddressDeriver(namespace string) AddressDeriver {
	if namespace == "" {
		namespace = DefaultVaultNamespace
	}
	return AddressDeriver{Namespace: namespace}
}

// Derive address = bech32(namespace, TaggedHash(namespace, program(authority)))
// 纯函数：同一 authority 永远得到同一地址，不同 authority 不会碰撞
func (d AddressDeriver) Derive(authority string) (string, error) {
	program, err := identityProgram(authority)
	if err != nil {
		return "", err
	}
	digest := chainhash.TaggedHash([]byte(d.Namespace), program)
	conv, err := bech32.ConvertBits(digest[:], 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("convert bits: %w", err)
	}
	return bech32.Encode(d.Namespace, conv)
}

// IsVaultAddress 判断地址是否落在本命名空间内
func (d AddressDeriver) IsVaultAddress(addr string) bool {
	hrp, data, err := bech32.Decode(addr)
	if err != nil || hrp != d.Namespace {
		return false
	}
	raw, err := bech32.ConvertBits(data, 5, 8, false)
	return err == nil && len(raw) == chainhash.HashSize
}

// DeriveVaultAddress 使用默认命名空间推导
func DeriveVaultAddress(authority string) (string, error) {
	return NewAddressDeriver(DefaultVaultNamespace).Derive(authority)
}
