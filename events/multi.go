package events

import (
	"errors"
	"sync"

	iface "vault/interfaces"
	"vault/types"
)

// MultiEmitter 依次发布给每个下游，某一个失败不影响其余的
type MultiEmitter []iface.EventEmitter

var _ iface.EventEmitter = MultiEmitter(nil)

func (m MultiEmitter) Emit(evs []*types.Event) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(evs); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder 把收到的事件留在内存里，测试和调试用
type Recorder struct {
	mu     sync.Mutex
	events []*types.Event
}

// NewRecorder 订阅总线上的全部事件
func NewRecorder(bus iface.EventBus) *Recorder {
	r := &Recorder{}
	bus.SubscribeAll(func(ev *types.Event) {
		r.mu.Lock()
		r.events = append(r.events, ev)
		r.mu.Unlock()
	})
	return r
}

// Events 已收到事件的副本
func (r *Recorder) Events() []*types.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*types.Event(nil), r.events...)
}
