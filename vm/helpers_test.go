package vm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"vault/events"
	iface "vault/interfaces"
	"vault/types"
	"vault/utils"

	"github.com/stretchr/testify/require"
)

// memDB 测试用的内存存储，可以注入一次提交失败
type memDB struct {
	mu       sync.RWMutex
	data     map[string][]byte
	failNext error
	commits  int
}

func newMemDB() *memDB {
	return &memDB{data: make(map[string][]byte)}
}

func (m *memDB) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memDB) Scan(prefix string) (map[string][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]byte)
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out[k] = append([]byte(nil), v...)
		}
	}
	return out, nil
}

func (m *memDB) ApplyWrites(ops []iface.WriteOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	for _, op := range ops {
		if op.Del {
			delete(m.data, op.Key)
		} else {
			m.data[op.Key] = append([]byte(nil), op.Value...)
		}
	}
	m.commits++
	return nil
}

func (m *memDB) snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(m.data))
	for k, v := range m.data {
		out[k] = string(v)
	}
	return out
}

var _ iface.DBManager = (*memDB)(nil)

type fixture struct {
	t   *testing.T
	db  iface.DBManager
	x   *Executor
	rec *events.Recorder
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithDB(t, newMemDB())
}

func newFixtureWithDB(t *testing.T, db iface.DBManager) *fixture {
	t.Helper()
	bus := events.NewBus()
	x, err := NewExecutor(db, nil, bus)
	require.NoError(t, err)
	return &fixture{t: t, db: db, x: x, rec: events.NewRecorder(bus)}
}

func newUser(t *testing.T) *utils.KeyManager {
	t.Helper()
	priv, err := utils.GeneratePrivateKey()
	require.NoError(t, err)
	km, err := utils.NewKeyManagerFromKey(priv)
	require.NoError(t, err)
	return km
}

type alloc struct {
	km     *utils.KeyManager
	amount uint64
}

// fund 创世只能执行一次，所有初始余额一次给齐
func (f *fixture) fund(allocs ...alloc) {
	f.t.Helper()
	gen := make([]types.GenesisAlloc, 0, len(allocs))
	for _, a := range allocs {
		gen = append(gen, types.GenesisAlloc{Address: a.km.GetAddress(), Balance: a.amount})
	}
	require.NoError(f.t, f.x.ApplyGenesis(gen))
}

func (f *fixture) nextNonce(addr string) uint64 {
	f.t.Helper()
	acc, err := f.x.GetAccount(addr)
	require.NoError(f.t, err)
	return acc.Nonce + 1
}

func (f *fixture) signed(km *utils.KeyManager, req *types.Request) *types.Request {
	if req.Nonce == 0 {
		req.Nonce = f.nextNonce(km.GetAddress())
	}
	Sign(req, f.x.Deriver.Namespace, km)
	return req
}

func (f *fixture) deposit(km *utils.KeyManager, owner string, amount uint64) (*Receipt, error) {
	return f.x.Execute(context.Background(), f.signed(km, &types.Request{
		Kind: types.KindDeposit, Owner: owner, Amount: amount,
	}))
}

func (f *fixture) withdraw(km *utils.KeyManager, vault string, amount uint64) (*Receipt, error) {
	return f.x.Execute(context.Background(), f.signed(km, &types.Request{
		Kind: types.KindWithdraw, Vault: vault, Amount: amount,
	}))
}

func (f *fixture) toggle(km *utils.KeyManager, vault string) (*Receipt, error) {
	return f.x.Execute(context.Background(), f.signed(km, &types.Request{
		Kind: types.KindToggleLock, Vault: vault,
	}))
}

func (f *fixture) vaultOf(owner *utils.KeyManager) string {
	f.t.Helper()
	addr, err := f.x.DeriveVaultAddress(owner.GetAddress())
	require.NoError(f.t, err)
	return addr
}

func (f *fixture) balance(addr string) uint64 {
	f.t.Helper()
	acc, err := f.x.GetAccount(addr)
	require.NoError(f.t, err)
	return acc.Balance
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	var e *Error
	require.True(t, errors.As(err, &e), "want *Error, got %T: %v", err, err)
	require.Equal(t, kind, e.Kind, err.Error())
}
