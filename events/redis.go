package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	iface "vault/interfaces"
	"vault/types"

	"github.com/go-redis/redis/v8"
)

// RedisEmitter 把事件以 JSON 发布到 Redis 频道，一批事件走一个 pipeline
type RedisEmitter struct {
	client  *redis.Client
	channel string
	timeout time.Duration
}

var _ iface.EventEmitter = (*RedisEmitter)(nil)

// DefaultPublishTimeout 发布发生在执行器段锁内，Redis 不可用时最多拖住同段请求这么久
const DefaultPublishTimeout = 250 * time.Millisecond

// NewRedisEmitter 连接 addr；只创建客户端，不做连通性检查
func NewRedisEmitter(addr, channel string) *RedisEmitter {
	return NewRedisEmitterWithOptions(&redis.Options{Addr: addr}, channel)
}

func NewRedisEmitterWithOptions(opts *redis.Options, channel string) *RedisEmitter {
	if channel == "" {
		channel = "vault.events"
	}
	return &RedisEmitter{
		client:  redis.NewClient(opts),
		channel: channel,
		timeout: DefaultPublishTimeout,
	}
}

// SetTimeout 单次 Emit 的超时，<=0 时保持不变
func (r *RedisEmitter) SetTimeout(d time.Duration) {
	if d > 0 {
		r.timeout = d
	}
}

// Ping 启动时检查 Redis 是否可达
func (r *RedisEmitter) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisEmitter) Emit(evs []*types.Event) error {
	if len(evs) == 0 {
		return nil
	}
	payloads := make([][]byte, 0, len(evs))
	for _, ev := range evs {
		b, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.Type, err)
		}
		payloads = append(payloads, b)
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	pipe := r.client.Pipeline()
	for _, p := range payloads {
		pipe.Publish(ctx, r.channel, p)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish to %s: %w", r.channel, err)
	}
	return nil
}

func (r *RedisEmitter) Close() error {
	return r.client.Close()
}
