// keys/keys.go
// 统一的 Key 定义包，供 VM 和 DB 模块共同使用
package keys

import (
	"fmt"
	"strings"
)

// ===================== 版本控制 =====================
// 设置全局 Key 版本前缀（例如 "v1" → 产出 "v1_<key>"）。
const KeyVersion = "v1"

// withVer 把版本号拼到最前面（保持下划线风格：v1_<...>）
func withVer(s string) string {
	if KeyVersion == "" {
		return s
	}
	return KeyVersion + "_" + s
}

// StripVersion 把带版本的键去掉版本前缀
func StripVersion(prefixed string) string {
	if KeyVersion == "" {
		return prefixed
	}
	return strings.TrimPrefix(prefixed, KeyVersion+"_")
}

// padUint 固定 20 位，保证字典序等于数值序
func padUint(v uint64) string {
	return fmt.Sprintf("%020d", v)
}

// ===================== 账户相关 =====================

// KeyAccount 账本账户（余额 + nonce）
// 例：v1_account_<address>
func KeyAccount(addr string) string {
	return withVer("account_" + addr)
}

// KeyAccountPrefix 全部账户的扫描前缀
func KeyAccountPrefix() string {
	return withVer("account_")
}

// ===================== 金库相关 =====================

// KeyVault 金库记录（authority + locked），余额不在这里
// 例：v1_vault_<vaultAddress>
func KeyVault(vaultAddr string) string {
	return withVer("vault_" + vaultAddr)
}

// KeyVaultPrefix 全部金库的扫描前缀
func KeyVaultPrefix() string {
	return withVer("vault_")
}

// KeyVaultEvent 金库事件日志（只追加）
// 例：v1_vaultevent_<vaultAddress>_<seq>
func KeyVaultEvent(vaultAddr string, seq uint64) string {
	return withVer(fmt.Sprintf("vaultevent_%s_%s", vaultAddr, padUint(seq)))
}

// KeyVaultEventPrefix 某个金库的事件前缀
func KeyVaultEventPrefix(vaultAddr string) string {
	return withVer(fmt.Sprintf("vaultevent_%s_", vaultAddr))
}

// ===================== 元数据 =====================

// KeyGenesisApplied 创世分配已执行标记
func KeyGenesisApplied() string {
	return withVer("meta_genesis_applied")
}
