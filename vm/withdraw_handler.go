package vm

import "vault/types"

// WithdrawTxHandler 取款：只有金库 authority 可以把余额取回自己的账本账户
type WithdrawTxHandler struct {
	env *handlerEnv
}

func (h *WithdrawTxHandler) Kind() types.Kind {
	return types.KindWithdraw
}

func (h *WithdrawTxHandler) DryRun(req *types.Request, sv StateView) ([]WriteOp, *Receipt, error) {
	txID := req.TxID(h.env.deriver.Namespace)
	fail := func(err *Error) ([]WriteOp, *Receipt, error) {
		return nil, failedReceipt(req, txID, err), err
	}

	// 1. 金额必须为正
	if req.Amount == 0 {
		return fail(newError(KindInvalidAmount, "amount must be positive"))
	}

	// 2. 金库必须存在
	vault, err := requireVault(sv, req.Vault)
	if err != nil {
		return fail(asError(err))
	}

	// 3. 只有 authority 可以取款
	if err := h.env.guard.Verify(req, vault.Authority); err != nil {
		return fail(asError(err))
	}

	// 4. nonce
	authAcc, err := loadAccount(sv, vault.Authority)
	if err != nil {
		return fail(asError(err))
	}
	if err := checkNonce(authAcc, req.Nonce); err != nil {
		return fail(asError(err))
	}

	// 5. 锁定状态下不允许取款
	if vault.Locked {
		return fail(newError(KindVaultLocked, "vault %s is locked", vault.Address))
	}

	// 6. 金库余额
	if vault.Balance < req.Amount {
		return fail(newError(KindInsufficientVaultBalance, "has %d, need %d", vault.Balance, req.Amount))
	}

	// 7. authority 余额溢出检查
	if _, err := SafeAdd(authAcc.Balance, req.Amount); err != nil {
		return fail(wrapError(KindOverflow, err, "authority %s balance", vault.Authority))
	}

	// 8. 写状态
	vaultAcc, err := loadAccount(sv, vault.Address)
	if err != nil {
		return fail(asError(err))
	}
	ev := types.NewWithdrawEvent(vault.Authority, vault.Address, req.Amount)
	err = applyEffects(sv, func() error {
		authAcc.Nonce = req.Nonce
		if err := transfer(sv, vaultAcc, authAcc, req.Amount); err != nil {
			return err
		}
		appendEvent(sv, vault, ev, txID)
		saveVault(sv, vault)
		return nil
	})
	if err != nil {
		return fail(wrapError(KindInternal, err, "transfer"))
	}

	ws := sv.Diff()
	return ws, &Receipt{
		TxID:       txID,
		Kind:       req.Kind,
		Status:     StatusSucceed,
		Vault:      vault.Address,
		Events:     []*types.Event{ev},
		WriteCount: len(ws),
	}, nil
}

// requireVault Withdraw / ToggleLock 共用：地址为空或记录不存在都视为 VaultNotFound
func requireVault(sv StateView, addr string) (*types.Vault, error) {
	if addr == "" {
		return nil, newError(KindVaultNotFound, "vault address is empty")
	}
	vault, ok, err := loadVault(sv, addr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, newError(KindVaultNotFound, "vault %s", addr)
	}
	return vault, nil
}

var _ TxHandler = (*WithdrawTxHandler)(nil)
