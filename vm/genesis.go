package vm

import (
	"errors"
	"fmt"

	"vault/keys"
	"vault/types"
	"vault/utils"
)

var ErrGenesisApplied = errors.New("genesis already applied")

// ApplyGenesis 初始化账本余额，只能执行一次
// 金库地址不能被创世直接注资：金库余额只能通过 Deposit 增加
func (x *Executor) ApplyGenesis(allocs []types.GenesisAlloc) error {
	applied, err := x.DB.Get(keys.KeyGenesisApplied())
	if err != nil {
		return fmt.Errorf("read genesis marker: %w", err)
	}
	if applied != nil {
		return ErrGenesisApplied
	}

	seen := make(map[string]struct{}, len(allocs))
	addrs := make([]string, 0, len(allocs))
	for i, a := range allocs {
		if err := utils.ValidateIdentity(a.Address); err != nil {
			if x.Deriver.IsVaultAddress(a.Address) {
				return newError(KindInvalidIdentity, "genesis[%d]: vault address %s cannot be funded", i, a.Address)
			}
			return wrapError(KindInvalidIdentity, err, "genesis[%d]", i)
		}
		if _, dup := seen[a.Address]; dup {
			return fmt.Errorf("genesis[%d]: duplicate address %s", i, a.Address)
		}
		seen[a.Address] = struct{}{}
		addrs = append(addrs, a.Address)
	}

	unlock := x.Locks.Lock(addrs...)
	defer unlock()

	sv := x.readView()
	for i, a := range allocs {
		acc, err := loadAccount(sv, a.Address)
		if err != nil {
			return err
		}
		if acc.Balance, err = SafeAdd(acc.Balance, a.Balance); err != nil {
			return wrapError(KindOverflow, err, "genesis[%d]", i)
		}
		saveAccount(sv, acc)
	}
	sv.Set(keys.KeyGenesisApplied(), []byte{1})

	if err := x.DB.ApplyWrites(sv.Diff()); err != nil {
		return fmt.Errorf("commit genesis: %w", err)
	}
	x.Logger.Info("[VM] genesis applied: %d accounts", len(allocs))
	return nil
}
