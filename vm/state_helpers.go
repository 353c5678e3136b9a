package vm

import (
	"errors"
	"fmt"
	"sort"

	"vault/keys"
	"vault/types"
	"vault/utils"
)

// ========== 账本账户 ==========

// loadAccount 不存在的账户视为余额 0、nonce 0
func loadAccount(sv StateView, addr string) (*types.Account, error) {
	data, ok, err := sv.Get(keys.KeyAccount(addr))
	if err != nil {
		return nil, fmt.Errorf("read account %s: %w", addr, err)
	}
	if !ok {
		return &types.Account{Address: addr}, nil
	}
	acc, err := types.UnmarshalAccount(data)
	if err != nil {
		return nil, fmt.Errorf("decode account %s: %w", addr, err)
	}
	acc.Address = addr
	return acc, nil
}

func saveAccount(sv StateView, acc *types.Account) {
	sv.Set(keys.KeyAccount(acc.Address), types.MarshalAccount(acc))
}

// checkNonce 新请求的 nonce 必须恰好是账户 nonce+1
func checkNonce(acc *types.Account, nonce uint64) error {
	want, err := SafeAdd(acc.Nonce, 1)
	if err != nil {
		return wrapError(KindInvalidNonce, err, "nonce exhausted")
	}
	if nonce != want {
		return newError(KindInvalidNonce, "nonce %d, expected %d", nonce, want)
	}
	return nil
}

// ========== 金库 ==========

// loadVault 读金库记录，余额来自金库地址上的账本账户
func loadVault(sv StateView, addr string) (*types.Vault, bool, error) {
	data, ok, err := sv.Get(keys.KeyVault(addr))
	if err != nil {
		return nil, false, fmt.Errorf("read vault %s: %w", addr, err)
	}
	if !ok {
		return nil, false, nil
	}
	v, err := types.UnmarshalVault(addr, data)
	if err != nil {
		return nil, false, fmt.Errorf("decode vault %s: %w", addr, err)
	}
	acc, err := loadAccount(sv, addr)
	if err != nil {
		return nil, false, err
	}
	v.Balance = acc.Balance
	return v, true, nil
}

func saveVault(sv StateView, v *types.Vault) {
	sv.Set(keys.KeyVault(v.Address), types.MarshalVault(v))
}

// ========== 转账 ==========

// transfer 价值转移原语：先扣后加，每一步都写进视图；失败时由 applyEffects 回滚
func transfer(sv StateView, from, to *types.Account, amount uint64) error {
	debited, err := SafeSub(from.Balance, amount)
	if err != nil {
		return err
	}
	from.Balance = debited
	saveAccount(sv, from)

	credited, err := SafeAdd(to.Balance, amount)
	if err != nil {
		return err
	}
	to.Balance = credited
	saveAccount(sv, to)
	return nil
}

// applyEffects 在快照点之后执行写入，出错回滚到快照点，视图里不留半截写集
func applyEffects(sv StateView, fn func() error) error {
	snap := sv.Snapshot()
	if err := fn(); err != nil {
		if rerr := sv.Revert(snap); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

// ========== 事件日志 ==========

// eventID 事件编码的 keccak256
func eventID(encoded []byte) string {
	return utils.Keccak256Hex(encoded)
}

// appendEvent 分配序号、填 ID，写进金库事件日志；调用方负责随后保存金库记录
func appendEvent(sv StateView, v *types.Vault, ev *types.Event, txID string) {
	v.EventSeq++
	ev.Seq = v.EventSeq
	ev.TxID = txID
	encoded := types.MarshalEvent(ev)
	ev.ID = eventID(encoded)
	sv.Set(keys.KeyVaultEvent(v.Address, ev.Seq), encoded)
}

// loadEvents 按序号升序读出金库全部事件
func loadEvents(scan ScanFn, vaultAddr string) ([]*types.Event, error) {
	raw, err := scan(keys.KeyVaultEventPrefix(vaultAddr))
	if err != nil {
		return nil, fmt.Errorf("scan events %s: %w", vaultAddr, err)
	}
	ks := make([]string, 0, len(raw))
	for k := range raw {
		ks = append(ks, k)
	}
	// 序号定长补零，字典序即数值序
	sort.Strings(ks)

	events := make([]*types.Event, 0, len(ks))
	for _, k := range ks {
		ev, err := types.UnmarshalEvent(raw[k], eventID)
		if err != nil {
			return nil, fmt.Errorf("decode event %s: %w", k, err)
		}
		events = append(events, ev)
	}
	return events, nil
}
