package types

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Kind 指令类型
type Kind string

const (
	KindDeposit    Kind = "deposit"
	KindWithdraw   Kind = "withdraw"
	KindToggleLock Kind = "toggle_lock"
)

// HexBytes JSON 里以 hex 字符串表示的字节
type HexBytes []byte

func (h HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h)), nil
}

func (h *HexBytes) UnmarshalText(text []byte) error {
	s := strings.TrimPrefix(string(text), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return fmt.Errorf("invalid hex: %w", err)
	}
	*h = b
	return nil
}

// Request 一次签名请求，显式携带调用者身份、目标金库和金额
//
//	Deposit:    Owner 为金库所有者身份（Vault 可选，给出时必须与推导结果一致）
//	Withdraw:   Vault 为金库地址
//	ToggleLock: Vault 为金库地址
type Request struct {
	Kind      Kind     `json:"kind"`
	Signer    string   `json:"signer"`
	Owner     string   `json:"owner,omitempty"`
	Vault     string   `json:"vault,omitempty"`
	Amount    uint64   `json:"amount,omitempty"`
	Nonce     uint64   `json:"nonce"`
	Signature HexBytes `json:"signature"`
}

// SigningBytes 参与签名的规范字节，namespace 做域隔离
func (r *Request) SigningBytes(namespace string) []byte {
	return encodeRequest(r, namespace)
}

// TxID 请求标识：签名字节 + 签名 的 sha256
func (r *Request) TxID(namespace string) string {
	return txID(r.SigningBytes(namespace), r.Signature)
}
