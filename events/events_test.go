package events

import (
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"vault/types"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvents() []*types.Event {
	dep := types.NewDepositEvent("bc1qdepositor", "vault1abc", 10)
	dep.Seq = 1
	tl := types.NewToggleLockEvent("vault1abc", "bc1qowner", true)
	tl.Seq = 2
	return []*types.Event{dep, tl}
}

func TestBusTopicAndAll(t *testing.T) {
	bus := NewBus()
	var deposits, all []types.EventType
	bus.Subscribe(types.EventDeposit, func(ev *types.Event) { deposits = append(deposits, ev.Type) })
	bus.SubscribeAll(func(ev *types.Event) { all = append(all, ev.Type) })

	require.NoError(t, bus.Emit(sampleEvents()))
	assert.Equal(t, []types.EventType{types.EventDeposit}, deposits)
	assert.Equal(t, []types.EventType{types.EventDeposit, types.EventToggleLock}, all)
}

func TestBusHandlerPanicIsContained(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(types.EventDeposit, func(*types.Event) { panic("boom") })
	rec := NewRecorder(bus)

	require.NoError(t, bus.Emit(sampleEvents()))
	assert.Len(t, rec.Events(), 2)
}

func TestAsyncBusPreservesOrder(t *testing.T) {
	bus := NewAsyncBus(16)
	var mu sync.Mutex
	var seqs []uint64
	bus.SubscribeAll(func(ev *types.Event) {
		mu.Lock()
		seqs = append(seqs, ev.Seq)
		mu.Unlock()
	})

	for i := uint64(1); i <= 10; i++ {
		ev := types.NewWithdrawEvent("bc1qowner", "vault1abc", i)
		ev.Seq = i
		require.NoError(t, bus.Emit([]*types.Event{ev}))
	}
	bus.Close()

	assert.Equal(t, []uint64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, seqs)
	assert.ErrorIs(t, bus.Emit(sampleEvents()), ErrBusClosed)
}

func TestAsyncBusQueueFull(t *testing.T) {
	bus := NewAsyncBus(1)
	block := make(chan struct{})
	bus.SubscribeAll(func(*types.Event) { <-block })

	// 第一批被 worker 取走并阻塞，第二批占满队列
	require.NoError(t, bus.Emit(sampleEvents()[:1]))
	require.Eventually(t, func() bool { return len(bus.queue) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, bus.Emit(sampleEvents()[:1]))

	assert.ErrorIs(t, bus.Emit(sampleEvents()[:1]), ErrQueueFull)
	assert.Equal(t, uint64(1), bus.Stats().Dropped)

	close(block)
	bus.Close()
}

type failingEmitter struct{ err error }

func (f failingEmitter) Emit([]*types.Event) error { return f.err }

func TestMultiEmitterContinuesAfterFailure(t *testing.T) {
	bus := NewBus()
	rec := NewRecorder(bus)
	boom := errors.New("down")

	err := MultiEmitter{failingEmitter{boom}, nil, bus}.Emit(sampleEvents())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, rec.Events(), 2)
}

func TestRedisEmitterUnreachable(t *testing.T) {
	em := NewRedisEmitterWithOptions(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}, "")
	defer em.Close()

	assert.NoError(t, em.Emit(nil))
	assert.Error(t, em.Emit(sampleEvents()))
}

// 服务端接受连接但从不应答时，Emit 在发布超时附近返回
func TestRedisEmitterTimeoutBoundsStall(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	var mu sync.Mutex
	var conns []net.Conn
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, c)
			mu.Unlock()
		}
	}()
	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	}()

	em := NewRedisEmitterWithOptions(&redis.Options{Addr: ln.Addr().String(), MaxRetries: -1}, "")
	defer em.Close()
	em.SetTimeout(100 * time.Millisecond)

	start := time.Now()
	assert.Error(t, em.Emit(sampleEvents()))
	assert.Less(t, time.Since(start), 2*time.Second)
}
