package vm

import (
	"context"
	"errors"
	"math"
	"testing"

	"vault/keys"
	"vault/types"
	"vault/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDepositCreatesVaultAndMovesFunds(t *testing.T) {
	f := newFixture(t)
	alice, bob := newUser(t), newUser(t)
	f.fund(alloc{alice, 1000})
	vaultAddr := f.vaultOf(bob)

	rc, err := f.deposit(alice, bob.GetAddress(), 300)
	require.NoError(t, err)
	assert.Equal(t, StatusSucceed, rc.Status)
	assert.Equal(t, vaultAddr, rc.Vault)
	assert.NotEmpty(t, rc.TxID)

	v, err := f.x.GetVault(vaultAddr)
	require.NoError(t, err)
	assert.Equal(t, bob.GetAddress(), v.Authority)
	assert.False(t, v.Locked)
	assert.Equal(t, uint64(300), v.Balance)
	assert.Equal(t, uint64(700), f.balance(alice.GetAddress()))

	evs := f.rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, types.EventDeposit, evs[0].Type)
	assert.Equal(t, alice.GetAddress(), evs[0].Depositor)
	assert.Equal(t, vaultAddr, evs[0].Vault)
	assert.Equal(t, uint64(300), evs[0].Amount)
	assert.Equal(t, uint64(1), evs[0].Seq)
}

func TestDepositFailures(t *testing.T) {
	f := newFixture(t)
	alice, bob, mallory := newUser(t), newUser(t), newUser(t)
	f.fund(alloc{alice, 100})

	before := f.db.(*memDB).snapshot()

	_, err := f.deposit(alice, bob.GetAddress(), 0)
	requireKind(t, err, KindInvalidAmount)

	_, err = f.deposit(alice, "not-an-identity", 10)
	requireKind(t, err, KindInvalidIdentity)

	// 金库地址不能当 owner
	_, err = f.deposit(alice, f.vaultOf(bob), 10)
	requireKind(t, err, KindInvalidIdentity)

	// 声明的金库与推导结果不一致
	req := f.signed(alice, &types.Request{Kind: types.KindDeposit, Owner: bob.GetAddress(), Vault: f.vaultOf(alice), Amount: 10})
	_, err = f.x.Execute(context.Background(), req)
	requireKind(t, err, KindInvalidIdentity)

	// mallory 冒充 alice：签名恢复出的身份不等于声明的 signer
	forged := f.signed(mallory, &types.Request{Kind: types.KindDeposit, Owner: bob.GetAddress(), Amount: 10})
	forged.Signer = alice.GetAddress()
	_, err = f.x.Execute(context.Background(), forged)
	requireKind(t, err, KindUnauthorized)

	// 签名后篡改金额
	tampered := f.signed(alice, &types.Request{Kind: types.KindDeposit, Owner: bob.GetAddress(), Amount: 10})
	tampered.Amount = 99
	_, err = f.x.Execute(context.Background(), tampered)
	requireKind(t, err, KindUnauthorized)

	_, err = f.deposit(alice, bob.GetAddress(), 101)
	requireKind(t, err, KindInsufficientCallerBalance)

	// mallory 没有任何余额
	_, err = f.deposit(mallory, bob.GetAddress(), 1)
	requireKind(t, err, KindInsufficientCallerBalance)

	assert.Equal(t, before, f.db.(*memDB).snapshot())
	assert.Empty(t, f.rec.Events())
}

func TestDepositReplayRejected(t *testing.T) {
	f := newFixture(t)
	alice, bob := newUser(t), newUser(t)
	f.fund(alloc{alice, 100})

	req := f.signed(alice, &types.Request{Kind: types.KindDeposit, Owner: bob.GetAddress(), Amount: 10})
	_, err := f.x.Execute(context.Background(), req)
	require.NoError(t, err)

	_, err = f.x.Execute(context.Background(), req)
	requireKind(t, err, KindInvalidNonce)
	assert.Equal(t, uint64(90), f.balance(alice.GetAddress()))

	skip := f.signed(alice, &types.Request{Kind: types.KindDeposit, Owner: bob.GetAddress(), Amount: 10, Nonce: 5})
	_, err = f.x.Execute(context.Background(), skip)
	assert.True(t, errors.Is(err, ErrInvalidNonce))
}

func TestDepositIntoLockedVault(t *testing.T) {
	f := newFixture(t)
	alice, bob := newUser(t), newUser(t)
	f.fund(alloc{alice, 100})
	vaultAddr := f.vaultOf(bob)

	_, err := f.deposit(alice, bob.GetAddress(), 10)
	require.NoError(t, err)
	_, err = f.toggle(bob, vaultAddr)
	require.NoError(t, err)

	_, err = f.deposit(alice, bob.GetAddress(), 10)
	assert.ErrorIs(t, err, ErrVaultLocked)
	assert.Equal(t, uint64(90), f.balance(alice.GetAddress()))
	assert.Equal(t, uint64(10), f.balance(vaultAddr))
}

func TestDepositOverflow(t *testing.T) {
	f := newFixture(t)
	alice, carol, bob := newUser(t), newUser(t), newUser(t)
	f.fund(alloc{alice, math.MaxUint64}, alloc{carol, 1})

	_, err := f.deposit(alice, bob.GetAddress(), math.MaxUint64)
	require.NoError(t, err)

	_, err = f.deposit(carol, bob.GetAddress(), 1)
	requireKind(t, err, KindOverflow)
	assert.Equal(t, uint64(1), f.balance(carol.GetAddress()))
	assert.Equal(t, uint64(math.MaxUint64), f.balance(f.vaultOf(bob)))
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	alice, bob, mallory := newUser(t), newUser(t), newUser(t)
	f.fund(alloc{alice, 100})
	vaultAddr := f.vaultOf(bob)

	_, err := f.withdraw(bob, vaultAddr, 1)
	requireKind(t, err, KindVaultNotFound)

	_, err = f.deposit(alice, bob.GetAddress(), 50)
	require.NoError(t, err)

	_, err = f.withdraw(bob, vaultAddr, 0)
	requireKind(t, err, KindInvalidAmount)

	_, err = f.withdraw(mallory, vaultAddr, 10)
	requireKind(t, err, KindUnauthorized)

	// 存款人也不能取
	_, err = f.withdraw(alice, vaultAddr, 10)
	requireKind(t, err, KindUnauthorized)

	_, err = f.withdraw(bob, vaultAddr, 51)
	requireKind(t, err, KindInsufficientVaultBalance)

	rc, err := f.withdraw(bob, vaultAddr, 20)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), f.balance(vaultAddr))
	assert.Equal(t, uint64(20), f.balance(bob.GetAddress()))

	require.Len(t, rc.Events, 1)
	ev := rc.Events[0]
	assert.Equal(t, types.EventWithdraw, ev.Type)
	assert.Equal(t, bob.GetAddress(), ev.Authority)
	assert.Equal(t, vaultAddr, ev.Vault)
	assert.Equal(t, uint64(20), ev.Amount)

	// 取空
	_, err = f.withdraw(bob, vaultAddr, 30)
	require.NoError(t, err)
	assert.Zero(t, f.balance(vaultAddr))
}

func TestWithdrawLockedVault(t *testing.T) {
	f := newFixture(t)
	alice, bob := newUser(t), newUser(t)
	f.fund(alloc{alice, 100})
	vaultAddr := f.vaultOf(bob)

	_, err := f.deposit(alice, bob.GetAddress(), 50)
	require.NoError(t, err)
	_, err = f.toggle(bob, vaultAddr)
	require.NoError(t, err)

	_, err = f.withdraw(bob, vaultAddr, 10)
	requireKind(t, err, KindVaultLocked)

	// 锁定检查先于余额检查
	_, err = f.withdraw(bob, vaultAddr, 1000)
	requireKind(t, err, KindVaultLocked)
	assert.Equal(t, uint64(50), f.balance(vaultAddr))
}

func TestWithdrawOverflowOnAuthority(t *testing.T) {
	f := newFixture(t)
	alice, bob := newUser(t), newUser(t)
	f.fund(alloc{alice, 1}, alloc{bob, math.MaxUint64})
	vaultAddr := f.vaultOf(bob)

	_, err := f.deposit(alice, bob.GetAddress(), 1)
	require.NoError(t, err)

	_, err = f.withdraw(bob, vaultAddr, 1)
	requireKind(t, err, KindOverflow)
	assert.Equal(t, uint64(1), f.balance(vaultAddr))
}

func TestToggleLock(t *testing.T) {
	f := newFixture(t)
	alice, bob, mallory := newUser(t), newUser(t), newUser(t)
	f.fund(alloc{alice, 100})
	vaultAddr := f.vaultOf(bob)

	_, err := f.toggle(bob, vaultAddr)
	requireKind(t, err, KindVaultNotFound)

	_, err = f.deposit(alice, bob.GetAddress(), 10)
	require.NoError(t, err)

	_, err = f.toggle(mallory, vaultAddr)
	requireKind(t, err, KindUnauthorized)
	v, err := f.x.GetVault(vaultAddr)
	require.NoError(t, err)
	assert.False(t, v.Locked)
	assert.Equal(t, uint64(1), v.EventSeq)

	rc, err := f.toggle(bob, vaultAddr)
	require.NoError(t, err)
	assert.True(t, rc.Events[0].Locked)
	v, err = f.x.GetVault(vaultAddr)
	require.NoError(t, err)
	assert.Equal(t, types.StateLocked, v.State())

	// 锁定状态下非 authority 也不能解锁
	_, err = f.toggle(mallory, vaultAddr)
	requireKind(t, err, KindUnauthorized)
	v, err = f.x.GetVault(vaultAddr)
	require.NoError(t, err)
	assert.True(t, v.Locked)

	rc, err = f.toggle(bob, vaultAddr)
	require.NoError(t, err)
	assert.False(t, rc.Events[0].Locked)
	assert.Equal(t, vaultAddr, rc.Events[0].Vault)
	assert.Equal(t, bob.GetAddress(), rc.Events[0].Authority)
}

func TestAuthorityIsImmutable(t *testing.T) {
	f := newFixture(t)
	alice, bob := newUser(t), newUser(t)
	f.fund(alloc{alice, 100}, alloc{bob, 100})

	_, err := f.deposit(alice, bob.GetAddress(), 10)
	require.NoError(t, err)
	_, err = f.deposit(bob, bob.GetAddress(), 10)
	require.NoError(t, err)

	v, err := f.x.GetVaultByAuthority(bob.GetAddress())
	require.NoError(t, err)
	assert.Equal(t, bob.GetAddress(), v.Authority)
	assert.Equal(t, uint64(20), v.Balance)
}

// 完整流程：D 存 100，A 取 40，A 上锁，D 再存被拒，E 越权取款被拒
func TestScenarioLifecycle(t *testing.T) {
	f := newFixture(t)
	authority, depositor, outsider := newUser(t), newUser(t), newUser(t)
	f.fund(alloc{depositor, 1000}, alloc{outsider, 1000})
	vaultAddr := f.vaultOf(authority)

	rc, err := f.deposit(depositor, authority.GetAddress(), 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), f.balance(vaultAddr))
	require.Len(t, rc.Events, 1)
	ev := rc.Events[0]
	assert.Equal(t, types.EventDeposit, ev.Type)
	assert.Equal(t, depositor.GetAddress(), ev.Depositor)
	assert.Equal(t, vaultAddr, ev.Vault)
	assert.Equal(t, uint64(100), ev.Amount)

	v, err := f.x.GetVault(vaultAddr)
	require.NoError(t, err)
	assert.Equal(t, authority.GetAddress(), v.Authority)
	assert.Equal(t, types.StateUnlocked, v.State())

	rc, err = f.withdraw(authority, vaultAddr, 40)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), f.balance(vaultAddr))
	ev = rc.Events[0]
	assert.Equal(t, types.EventWithdraw, ev.Type)
	assert.Equal(t, authority.GetAddress(), ev.Authority)
	assert.Equal(t, vaultAddr, ev.Vault)
	assert.Equal(t, uint64(40), ev.Amount)

	_, err = f.toggle(authority, vaultAddr)
	require.NoError(t, err)
	v, err = f.x.GetVault(vaultAddr)
	require.NoError(t, err)
	assert.True(t, v.Locked)

	_, err = f.deposit(depositor, authority.GetAddress(), 10)
	requireKind(t, err, KindVaultLocked)
	assert.Equal(t, uint64(60), f.balance(vaultAddr))

	// 金库锁定时，越权取款报的是 Unauthorized 而不是 VaultLocked
	_, err = f.withdraw(outsider, vaultAddr, 60)
	requireKind(t, err, KindUnauthorized)
	assert.Equal(t, uint64(60), f.balance(vaultAddr))

	assert.Equal(t, uint64(900), f.balance(depositor.GetAddress()))
	assert.Equal(t, uint64(40), f.balance(authority.GetAddress()))
	assert.Equal(t, uint64(1000), f.balance(outsider.GetAddress()))

	// 事件日志与发布顺序一致，失败请求不产生事件
	logged, err := f.x.VaultEvents(vaultAddr)
	require.NoError(t, err)
	published := f.rec.Events()
	require.Len(t, logged, 3)
	require.Len(t, published, 3)

	wantTypes := []types.EventType{types.EventDeposit, types.EventWithdraw, types.EventToggleLock}
	for i, ev := range logged {
		assert.Equal(t, uint64(i+1), ev.Seq)
		assert.Equal(t, wantTypes[i], ev.Type)
		assert.Equal(t, published[i].ID, ev.ID)
		assert.Equal(t, utils.Keccak256Hex(types.MarshalEvent(ev)), ev.ID)
	}
	assert.True(t, logged[2].Locked)
}

func TestCommitFailureLeavesStateUnchanged(t *testing.T) {
	mem := newMemDB()
	f := newFixtureWithDB(t, mem)
	alice, bob := newUser(t), newUser(t)
	f.fund(alloc{alice, 100})
	before := mem.snapshot()

	mem.failNext = errors.New("disk full")
	rc, err := f.deposit(alice, bob.GetAddress(), 10)
	requireKind(t, err, KindInternal)
	assert.Equal(t, StatusFailed, rc.Status)
	assert.NotEmpty(t, rc.TxID)

	assert.Equal(t, before, mem.snapshot())
	assert.Empty(t, f.rec.Events())

	// 同一个 nonce 仍然可用
	_, err = f.deposit(alice, bob.GetAddress(), 10)
	require.NoError(t, err)
}

func TestExecuteRejectsUnknownKindAndCanceledContext(t *testing.T) {
	f := newFixture(t)
	alice := newUser(t)

	rc, err := f.x.Execute(context.Background(), f.signed(alice, &types.Request{Kind: "transfer", Amount: 1}))
	requireKind(t, err, KindUnknown)
	assert.Equal(t, StatusFailed, rc.Status)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.x.Execute(ctx, f.signed(alice, &types.Request{Kind: types.KindDeposit, Owner: alice.GetAddress(), Amount: 1}))
	requireKind(t, err, KindInternal)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVaultRecordStoresNoBalance(t *testing.T) {
	f := newFixture(t)
	alice, bob := newUser(t), newUser(t)
	f.fund(alloc{alice, 100})
	_, err := f.deposit(alice, bob.GetAddress(), 42)
	require.NoError(t, err)

	raw, err := f.db.Get(keys.KeyVault(f.vaultOf(bob)))
	require.NoError(t, err)
	v, err := types.UnmarshalVault(f.vaultOf(bob), raw)
	require.NoError(t, err)
	assert.Zero(t, v.Balance)
	assert.Equal(t, uint64(1), v.EventSeq)
}

func TestReadHelpers(t *testing.T) {
	f := newFixture(t)
	bob := newUser(t)

	_, err := f.x.GetVaultByAuthority("garbage")
	requireKind(t, err, KindInvalidIdentity)

	_, err = f.x.GetVaultByAuthority(bob.GetAddress())
	assert.True(t, IsNotFound(err))

	_, err = f.x.VaultEvents(f.vaultOf(bob))
	assert.True(t, IsNotFound(err))

	acc, err := f.x.GetAccount(bob.GetAddress())
	require.NoError(t, err)
	assert.Zero(t, acc.Balance)
	assert.Zero(t, acc.Nonce)
}
