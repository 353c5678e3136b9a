package db

import (
	"fmt"

	"vault/logs"

	"github.com/dgraph-io/badger/v2"
	lru "github.com/hashicorp/golang-lru"
)

// NewReadOnlyManager 创建一个只读的 DBManager 实例
// 用于 inspect 等外部进程直接读取节点数据库，ApplyWrites 会返回错误
func NewReadOnlyManager(path string, logger logs.Logger) (*Manager, error) {
	if logger == nil {
		logger = logs.NewNodeLogger("db")
	}
	opts := badger.DefaultOptions(path).WithLogger(nil).WithReadOnly(true)
	// 使用较小的缓存，作为只读不需要太多内存
	opts.NumCompactors = 0

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db read-only: %w", err)
	}
	cache, err := lru.New(256)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Manager{
		Db:     db,
		Logger: logger,
		cache:  cache,
		closed: make(chan struct{}),
	}, nil
}
