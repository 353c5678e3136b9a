package db

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"vault/config"
	"vault/interfaces"
	"vault/logs"

	"github.com/dgraph-io/badger/v2"
	lru "github.com/hashicorp/golang-lru"
)

var ErrClosed = errors.New("db manager closed")

// Manager 封装 BadgerDB 的管理器
type Manager struct {
	Db     *badger.DB
	Logger logs.Logger

	// 读缓存：commitGen 在每次提交后递增，读到的值只有在期间没有提交时才写回缓存
	cache     *lru.Cache
	cacheMu   sync.Mutex
	commitGen uint64

	closeOnce sync.Once
	closed    chan struct{}
}

var _ interfaces.DBManager = (*Manager)(nil)

// NewManager 在 path 打开（或创建）数据库
func NewManager(path string, logger logs.Logger) (*Manager, error) {
	cfg := config.DefaultConfig()
	cfg.Database.Path = path
	return NewManagerWithConfig(&cfg.Database, logger)
}

// NewInMemoryManager 纯内存数据库，测试和演示用
func NewInMemoryManager(logger logs.Logger) (*Manager, error) {
	cfg := config.DefaultConfig()
	cfg.Database.InMemory = true
	return NewManagerWithConfig(&cfg.Database, logger)
}

// NewManagerWithConfig 创建 DBManager
func NewManagerWithConfig(cfg *config.DatabaseConfig, logger logs.Logger) (*Manager, error) {
	if logger == nil {
		logger = logs.NewNodeLogger("db")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// badger v2 不自动创建父目录，需要手动创建
		if err := os.MkdirAll(cfg.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create db dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
		if cfg.ValueLogFileSize > 0 {
			opts.ValueLogFileSize = cfg.ValueLogFileSize
		}
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	size := cfg.ReadCacheSize
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New(size)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create read cache: %w", err)
	}

	return &Manager{
		Db:     db,
		Logger: logger,
		cache:  cache,
		closed: make(chan struct{}),
	}, nil
}

func (manager *Manager) isClosed() bool {
	select {
	case <-manager.closed:
		return true
	default:
		return false
	}
}

// Get 读取 key，不存在返回 (nil, nil)
func (manager *Manager) Get(key string) ([]byte, error) {
	if manager.isClosed() {
		return nil, ErrClosed
	}
	if v, ok := manager.cache.Get(key); ok {
		return cloneBytes(v.([]byte)), nil
	}

	manager.cacheMu.Lock()
	gen := manager.commitGen
	manager.cacheMu.Unlock()

	var val []byte
	err := manager.Db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	manager.cacheMu.Lock()
	if manager.commitGen == gen {
		manager.cache.Add(key, cloneBytes(val))
	}
	manager.cacheMu.Unlock()
	return val, nil
}

// Exists 判断 key 是否存在
func (manager *Manager) Exists(key string) bool {
	v, err := manager.Get(key)
	return err == nil && v != nil
}

// Scan 前缀扫描，返回所有以 prefix 开头的键值对
func (manager *Manager) Scan(prefix string) (map[string][]byte, error) {
	if manager.isClosed() {
		return nil, ErrClosed
	}
	result := make(map[string][]byte)
	p := []byte(prefix)
	err := manager.Db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(item.KeyCopy(nil))] = v
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", prefix, err)
	}
	return result, nil
}

// ApplyWrites 一批写入放进同一个 badger 事务：要么全部落盘，要么全部不落盘
func (manager *Manager) ApplyWrites(ops []interfaces.WriteOp) error {
	if manager.isClosed() {
		return ErrClosed
	}
	if len(ops) == 0 {
		return nil
	}
	err := manager.Db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			var err error
			if op.Del {
				err = txn.Delete([]byte(op.Key))
			} else {
				err = txn.Set([]byte(op.Key), op.Value)
			}
			if err != nil {
				return fmt.Errorf("stage %s: %w", op.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		manager.Logger.Error("[DB] apply %d writes failed: %v", len(ops), err)
		return fmt.Errorf("apply writes: %w", err)
	}

	manager.cacheMu.Lock()
	manager.commitGen++
	for _, op := range ops {
		manager.cache.Remove(op.Key)
	}
	manager.cacheMu.Unlock()

	manager.Logger.Trace("[DB] applied %d writes", len(ops))
	return nil
}

// Close 关闭数据库，可重复调用
func (manager *Manager) Close() error {
	var err error
	manager.closeOnce.Do(func() {
		close(manager.closed)
		manager.cache.Purge()
		err = manager.Db.Close()
	})
	return err
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
