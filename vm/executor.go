package vm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	iface "vault/interfaces"
	"vault/keys"
	"vault/logs"
	"vault/stats"
	"vault/types"
	"vault/utils"
)

// Executor 金库请求执行器
// 每个请求：加锁 → 新 StateView → handler 预执行 → 写集原子落库 → 发布事件
type Executor struct {
	DB      iface.DBManager
	Reg     *HandlerRegistry
	Emitter iface.EventEmitter
	Deriver utils.AddressDeriver
	Locks   *StripedLocks
	ReadFn  ReadThroughFn
	ScanFn  ScanFn
	Logger  logs.Logger

	lockStripes int
}

// Option 执行器选项
type Option func(*Executor)

// WithNamespace 地址派生命名空间（同时用于签名域隔离）
func WithNamespace(ns string) Option {
	return func(x *Executor) { x.Deriver = utils.NewAddressDeriver(ns) }
}

// WithLockStripes 锁分段数
func WithLockStripes(n int) Option {
	return func(x *Executor) { x.lockStripes = n }
}

func WithLogger(l logs.Logger) Option {
	return func(x *Executor) { x.Logger = l }
}

// NewExecutor reg 为 nil 时按命名空间注册默认 handler；emitter 可以为 nil
func NewExecutor(db iface.DBManager, reg *HandlerRegistry, emitter iface.EventEmitter, opts ...Option) (*Executor, error) {
	x := &Executor{
		DB:          db,
		Emitter:     emitter,
		Deriver:     utils.NewAddressDeriver(utils.DefaultVaultNamespace),
		Logger:      logs.NewNodeLogger("vm"),
		lockStripes: 256,
	}
	for _, opt := range opts {
		opt(x)
	}

	if reg == nil {
		reg = NewHandlerRegistry()
		if err := RegisterDefaultHandlers(reg, x.Deriver.Namespace); err != nil {
			return nil, err
		}
	}
	x.Reg = reg
	x.Locks = NewStripedLocks(x.lockStripes)

	x.ReadFn = func(key string) ([]byte, error) {
		return db.Get(key)
	}
	x.ScanFn = func(prefix string) (map[string][]byte, error) {
		return db.Scan(prefix)
	}
	return x, nil
}

// touched 请求会读写的地址：金库地址和签名者账户
func (x *Executor) touched(req *types.Request) []string {
	addrs := []string{req.Signer, req.Vault}
	if req.Kind == types.KindDeposit {
		if v, err := x.Deriver.Derive(req.Owner); err == nil {
			addrs = append(addrs, v)
		}
	}
	return addrs
}

// Execute 执行一个请求：要么完整生效，要么状态不变
// 成功和失败都返回回执；失败时 error 为 *Error
func (x *Executor) Execute(ctx context.Context, req *types.Request) (*Receipt, error) {
	if req == nil {
		return nil, wrapError(KindInternal, ErrNilRequest, "execute")
	}
	// 请求执行期间不会挂起，只在开始前检查一次
	if err := ctx.Err(); err != nil {
		e := wrapError(KindInternal, err, "request canceled")
		return failedReceipt(req, "", e), e
	}

	start := time.Now()
	rc, err := x.execute(req)
	outcome := "ok"
	if err != nil {
		outcome = string(KindOf(err))
	}
	stats.RecordRequest(string(req.Kind), outcome, time.Since(start))
	return rc, err
}

func (x *Executor) execute(req *types.Request) (*Receipt, error) {
	// 1. 找到 handler
	h, ok := x.Reg.Get(req.Kind)
	if !ok {
		e := newError(KindUnknown, "no handler for kind %q", req.Kind)
		return failedReceipt(req, "", e), e
	}

	// 2. 锁住涉及的地址
	unlock := x.Locks.Lock(x.touched(req)...)
	defer unlock()

	// 3. 预执行
	sv := NewStateView(x.ReadFn, x.ScanFn)
	ws, rc, err := h.DryRun(req, sv)
	if err != nil {
		e := asError(err)
		if rc == nil {
			rc = failedReceipt(req, "", e)
		}
		x.Logger.Debug("[VM] %s rejected: %v", req.Kind, e)
		return rc, e
	}

	// 4. 原子落库
	if err := x.DB.ApplyWrites(ws); err != nil {
		e := wrapError(KindInternal, err, "commit")
		x.Logger.Error("[VM] %s tx=%s commit failed: %v", req.Kind, rc.TxID, err)
		return failedReceipt(req, rc.TxID, e), e
	}
	x.Logger.Verbose("[VM] %s tx=%s vault=%s committed %d writes", req.Kind, rc.TxID, rc.Vault, len(ws))

	// 5. 发布事件：已提交的状态不因发布失败回滚；仍在锁内，保证同一金库的事件按序发布
	x.publish(rc.Events)
	return rc, nil
}

func (x *Executor) publish(evs []*types.Event) {
	if x.Emitter == nil || len(evs) == 0 {
		return
	}
	if err := x.Emitter.Emit(evs); err != nil {
		stats.RecordEventPublishFailure()
		x.Logger.Warn("[VM] publish %d events failed: %v", len(evs), err)
		return
	}
	for _, ev := range evs {
		stats.RecordEventPublished(string(ev.Type))
	}
}

// ========== 只读查询 ==========

func (x *Executor) readView() StateView {
	return NewStateView(x.ReadFn, x.ScanFn)
}

// GetVault 按金库地址查询，余额来自账本；持有该金库的段锁，记录和余额来自同一次提交
// 同步事件订阅者里不能调用：发布时段锁还没释放
func (x *Executor) GetVault(addr string) (*types.Vault, error) {
	unlock := x.Locks.Lock(addr)
	defer unlock()
	return requireVault(x.readView(), addr)
}

// GetVaultByAuthority 由 authority 推导地址再查询
func (x *Executor) GetVaultByAuthority(authority string) (*types.Vault, error) {
	addr, err := x.Deriver.Derive(authority)
	if err != nil {
		return nil, wrapError(KindInvalidIdentity, err, "authority %q", authority)
	}
	return x.GetVault(addr)
}

// DeriveVaultAddress 本执行器命名空间下的金库地址
func (x *Executor) DeriveVaultAddress(authority string) (string, error) {
	addr, err := x.Deriver.Derive(authority)
	if err != nil {
		return "", wrapError(KindInvalidIdentity, err, "authority %q", authority)
	}
	return addr, nil
}

// GetAccount 账本账户，不存在时返回零值账户
func (x *Executor) GetAccount(addr string) (*types.Account, error) {
	if addr == "" {
		return nil, newError(KindInvalidIdentity, "empty address")
	}
	return loadAccount(x.readView(), addr)
}

// VaultEvents 金库事件日志，按序号升序
func (x *Executor) VaultEvents(addr string) ([]*types.Event, error) {
	unlock := x.Locks.Lock(addr)
	defer unlock()
	if _, err := requireVault(x.readView(), addr); err != nil {
		return nil, err
	}
	return loadEvents(x.ScanFn, addr)
}

// Vaults 全部金库地址（inspect 用）
func (x *Executor) Vaults() ([]string, error) {
	raw, err := x.ScanFn(keys.KeyVaultPrefix())
	if err != nil {
		return nil, fmt.Errorf("scan vaults: %w", err)
	}
	addrs := make([]string, 0, len(raw))
	for k := range raw {
		addrs = append(addrs, k[len(keys.KeyVaultPrefix()):])
	}
	sort.Strings(addrs)
	return addrs, nil
}

// IsNotFound 查询接口的便捷判断
func IsNotFound(err error) bool {
	return errors.Is(err, ErrVaultNotFound)
}
