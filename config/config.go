// config/config.go
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config 主配置结构
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Vault    VaultConfig    `yaml:"vault"`
	Events   EventsConfig   `yaml:"events"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig HTTP / HTTP3 服务器配置
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr" env:"VAULT_LISTEN_ADDR"` // ":8443"

	// TLS证书，两者都配置时启用 HTTP/3
	CertFile string `yaml:"cert_file" env:"VAULT_TLS_CERT"`
	KeyFile  string `yaml:"key_file" env:"VAULT_TLS_KEY"`

	// QUIC配置
	QUICKeepAlivePeriod time.Duration `yaml:"quic_keep_alive_period"` // 10 * time.Second
	QUICMaxIdleTimeout  time.Duration `yaml:"quic_max_idle_timeout"`  // 5 * time.Minute

	// HTTP配置
	HTTPTimeout        time.Duration `yaml:"http_timeout" env:"VAULT_HTTP_TIMEOUT"` // 30 * time.Second
	MaxRequestBodySize int64         `yaml:"max_request_body_size"`                 // 1 << 20

	// 限流配置（每个客户端）
	RateLimitPerSecond int `yaml:"rate_limit_per_second" env:"VAULT_RATE_LIMIT"` // 100
	RateLimitBurst     int `yaml:"rate_limit_burst"`                             // 200
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path     string `yaml:"path" env:"VAULT_DB_PATH"` // "./data"
	InMemory bool   `yaml:"in_memory" env:"VAULT_DB_IN_MEMORY"`

	// BadgerDB配置
	ValueLogFileSize int64 `yaml:"value_log_file_size"` // 64 << 20 (64MB)

	// 读缓存（LRU 条目数）
	ReadCacheSize int `yaml:"read_cache_size"` // 4096
}

// VaultConfig 金库协议参数
type VaultConfig struct {
	// 地址派生命名空间，改动会让所有已有金库地址失效
	Namespace string `yaml:"namespace"` // "vault"

	// 展示单位：1 个展示单位 = 10^Decimals 个基础单位
	Decimals int32  `yaml:"decimals"` // 9
	Symbol   string `yaml:"symbol"`   // "VLT"

	// 锁分段数量
	LockStripes int `yaml:"lock_stripes"` // 256

	// 创世分配文件（YAML），为空则不做创世
	GenesisFile string `yaml:"genesis_file" env:"VAULT_GENESIS_FILE"`
}

// EventsConfig 事件发布配置
type EventsConfig struct {
	RedisAddr    string `yaml:"redis_addr" env:"VAULT_REDIS_ADDR"` // 为空则只用进程内总线
	RedisChannel string `yaml:"redis_channel"`                     // "vault.events"
	PublishAsync bool   `yaml:"publish_async"`

	// 单次 Redis 发布超时，发布期间执行器仍持有段锁
	PublishTimeout time.Duration `yaml:"publish_timeout" env:"VAULT_PUBLISH_TIMEOUT"` // 250 * time.Millisecond
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level" env:"VAULT_LOG_LEVEL"` // "info"
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:          ":8443",
			QUICKeepAlivePeriod: 10 * time.Second,
			QUICMaxIdleTimeout:  5 * time.Minute,
			HTTPTimeout:         30 * time.Second,
			MaxRequestBodySize:  1 << 20,
			RateLimitPerSecond:  100,
			RateLimitBurst:      200,
		},
		Database: DatabaseConfig{
			Path:             "./data",
			ValueLogFileSize: 64 << 20,
			ReadCacheSize:    4096,
		},
		Vault: VaultConfig{
			Namespace:   "vault",
			Decimals:    9,
			Symbol:      "VLT",
			LockStripes: 256,
		},
		Events: EventsConfig{
			RedisChannel:   "vault.events",
			PublishTimeout: 250 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadFromFile 从 YAML 文件加载配置，文件里没写的字段保留默认值
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv 用环境变量覆盖配置，未设置的变量不改动已有值
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load 默认配置 → 配置文件（可选）→ 环境变量，最后校验
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 验证配置合法性
func (c *Config) Validate() error {
	if c.Vault.Namespace == "" {
		return fmt.Errorf("vault namespace must not be empty")
	}
	if c.Vault.Decimals < 0 || c.Vault.Decimals > 18 {
		return fmt.Errorf("vault decimals must be in [0,18], got %d", c.Vault.Decimals)
	}
	if c.Vault.LockStripes <= 0 {
		return fmt.Errorf("LockStripes must be positive")
	}
	if !c.Database.InMemory && c.Database.Path == "" {
		return fmt.Errorf("database path is required unless in_memory is set")
	}
	if (c.Server.CertFile == "") != (c.Server.KeyFile == "") {
		return fmt.Errorf("cert_file and key_file must be set together")
	}
	if c.Events.PublishTimeout < 0 {
		return fmt.Errorf("publish_timeout must not be negative")
	}
	if c.Server.RateLimitPerSecond < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}
	return nil
}
