// keys/category.go
// Key 分类：可变状态 vs 只追加流水
package keys

import "strings"

// KeyCategory 定义 Key 的存储归属
type KeyCategory int

const (
	CategoryKV    KeyCategory = iota // 不可变流水/元数据
	CategoryState                    // 可变状态
)

// 可变状态前缀
var statePrefixes = []string{
	"v1_account_", // 账户余额、Nonce
	"v1_vault_",   // 金库 authority / locked
}

// CategorizeKey 判断 key 属于可变状态还是流水
func CategorizeKey(key string) KeyCategory {
	for _, prefix := range statePrefixes {
		if strings.HasPrefix(key, prefix) {
			return CategoryState
		}
	}
	return CategoryKV
}

// IsStatefulKey 判断 key 是否属于可变状态（便捷方法）
func IsStatefulKey(key string) bool {
	return CategorizeKey(key) == CategoryState
}

// IsFlowKey 判断 key 是否属于不可变流水（便捷方法）
func IsFlowKey(key string) bool {
	return CategorizeKey(key) == CategoryKV
}

// IsAccountKey 判断是否为账户数据
func IsAccountKey(key string) bool {
	return strings.HasPrefix(key, "v1_account_")
}

// IsVaultKey 判断是否为金库记录
func IsVaultKey(key string) bool {
	return strings.HasPrefix(key, "v1_vault_")
}

// IsVaultEventKey 判断是否为金库事件
func IsVaultEventKey(key string) bool {
	return strings.HasPrefix(key, "v1_vaultevent_")
}

// CategoryName 给 WriteOp 打标签用
func CategoryName(key string) string {
	switch {
	case IsAccountKey(key):
		return "account"
	case IsVaultKey(key):
		return "vault"
	case IsVaultEventKey(key):
		return "event"
	default:
		return "meta"
	}
}
