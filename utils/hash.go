package utils

import (
	"encoding/hex"

	"github.com/spaolacci/murmur3"
	"golang.org/x/crypto/sha3"
)

// Murmur64 锁分段等非密码学场景用的快速哈希
func Murmur64(data []byte) uint64 {
	return murmur3.Sum64(data)
}

// Keccak256Hex 事件 ID 用的 keccak256，返回 0x 前缀 hex
func Keccak256Hex(data []byte) string {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return "0x" + hex.EncodeToString(h.Sum(nil))
}
