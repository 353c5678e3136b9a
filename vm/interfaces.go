package vm

import "vault/types"

// ========== 核心接口定义 ==========

// StateView 状态视图接口
type StateView interface {
	// 读/写/删某个 key 的状态；写入只写进这个视图，不直接落到底层 DB。
	Get(key string) ([]byte, bool, error)
	Set(key string, val []byte)
	Del(key string)
	// 做一个快照点、必要时回滚到该点
	Snapshot() int
	Revert(snap int) error
	// 导出累积的写集，交给存储层一次性落库
	Diff() []WriteOp
	// 扫描指定前缀下的所有键值对（overlay 覆盖底层结果）
	Scan(prefix string) (map[string][]byte, error)
}

// TxHandler 请求处理器接口
type TxHandler interface {
	// 标识这个 Handler 处理哪种请求
	Kind() types.Kind
	// 在给定 StateView 上预执行：按顺序检查前置条件，第一个失败即返回带类型的错误；
	// 全部通过才写 StateView 并返回写集
	DryRun(req *types.Request, sv StateView) ([]WriteOp, *Receipt, error)
}

// ReadThroughFn overlay 没命中时从底层存储读真实值
type ReadThroughFn func(key string) ([]byte, error)

// ScanFn 用于 StateView 从底层存储做前缀扫描
type ScanFn func(prefix string) (map[string][]byte, error)
