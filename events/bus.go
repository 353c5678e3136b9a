package events

import (
	"errors"
	"sync"
	"sync/atomic"

	iface "vault/interfaces"
	"vault/logs"
	"vault/stats"
	"vault/types"
)

// ============================================
// 进程内事件总线
// ============================================

var (
	ErrBusClosed = errors.New("event bus closed")
	ErrQueueFull = errors.New("event queue full")
)

// Bus 进程内订阅/发布
// 同步模式下 Emit 在调用者 goroutine 里依次回调；异步模式下由单个 worker 按入队顺序回调
type Bus struct {
	mu       sync.RWMutex
	handlers map[types.EventType][]iface.EventHandler
	all      []iface.EventHandler

	queue   chan []*types.Event
	wg      sync.WaitGroup
	closed  atomic.Bool
	dropped atomic.Uint64
	logger  logs.Logger
}

var _ iface.EventBus = (*Bus)(nil)

// NewBus 同步总线
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[types.EventType][]iface.EventHandler),
		logger:   logs.NewNodeLogger("events"),
	}
}

// NewAsyncBus 异步总线，queueSize 为批次队列容量
func NewAsyncBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 1024
	}
	b := NewBus()
	b.queue = make(chan []*types.Event, queueSize)
	b.wg.Add(1)
	go b.loop()
	return b
}

func (b *Bus) Subscribe(topic types.EventType, handler iface.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

func (b *Bus) SubscribeAll(handler iface.EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, handler)
}

// Emit 发布一批事件，批内顺序保持不变
func (b *Bus) Emit(evs []*types.Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if len(evs) == 0 {
		return nil
	}
	if b.queue == nil {
		b.dispatch(evs)
		return nil
	}
	select {
	case b.queue <- evs:
		return nil
	default:
		b.dropped.Add(1)
		b.logger.Warn("[Events] queue full, dropped %d events", len(evs))
		return ErrQueueFull
	}
}

func (b *Bus) dispatch(evs []*types.Event) {
	for _, ev := range evs {
		b.mu.RLock()
		handlers := append([]iface.EventHandler(nil), b.handlers[ev.Type]...)
		handlers = append(handlers, b.all...)
		b.mu.RUnlock()

		for _, handler := range handlers {
			b.safeCall(handler, ev)
		}
	}
}

// safeCall 订阅者 panic 不能拖垮发布方
func (b *Bus) safeCall(handler iface.EventHandler, ev *types.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("[Events] handler panic on %s seq=%d: %v", ev.Type, ev.Seq, r)
		}
	}()
	handler(ev)
}

func (b *Bus) loop() {
	defer b.wg.Done()
	for evs := range b.queue {
		b.dispatch(evs)
	}
}

// Close 停止接收新事件；异步模式下会等队列里已有的事件处理完
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	if b.queue != nil {
		close(b.queue)
		b.wg.Wait()
	}
}

// Stats 队列状态，同步模式下容量为 0
func (b *Bus) Stats() stats.ChannelStat {
	var cs stats.ChannelStat
	if b.queue != nil {
		cs = stats.NewChannelStat("events", "bus", len(b.queue), cap(b.queue))
	} else {
		cs = stats.NewChannelStat("events", "bus", 0, 0)
	}
	cs.Dropped = b.dropped.Load()
	return cs
}
