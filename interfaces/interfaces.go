package interfaces

import "vault/types"

// WriteOp "要怎么改状态"的清单，一个请求的全部写入作为一批原子提交
type WriteOp struct {
	Key      string // 完整的 key（包括版本前缀）
	Value    []byte // 序列化后的值
	Del      bool   // true表示删除操作
	Category string // account / vault / event / meta，便于追踪和调试
}

// DBManager 底层存储
type DBManager interface {
	// Get 不存在时返回 (nil, nil)
	Get(key string) ([]byte, error)
	// Scan 前缀扫描，返回所有以 prefix 开头的键值对
	Scan(prefix string) (map[string][]byte, error)
	// ApplyWrites 一批写入要么全部生效要么全部不生效
	ApplyWrites(ops []WriteOp) error
}

// EventHandler 事件订阅回调
type EventHandler func(ev *types.Event)

// EventEmitter 状态迁移成功后发布事件
type EventEmitter interface {
	Emit(events []*types.Event) error
}

// EventBus 进程内订阅/发布
type EventBus interface {
	EventEmitter
	Subscribe(topic types.EventType, handler EventHandler)
	SubscribeAll(handler EventHandler)
}
