package vm

import "vault/types"

// DepositTxHandler 存款：任何人都可以向任意 owner 的金库存款，金库不存在时隐式创建
type DepositTxHandler struct {
	env *handlerEnv
}

func (h *DepositTxHandler) Kind() types.Kind {
	return types.KindDeposit
}

func (h *DepositTxHandler) DryRun(req *types.Request, sv StateView) ([]WriteOp, *Receipt, error) {
	txID := req.TxID(h.env.deriver.Namespace)
	fail := func(err *Error) ([]WriteOp, *Receipt, error) {
		return nil, failedReceipt(req, txID, err), err
	}

	// 1. 金额必须为正
	if req.Amount == 0 {
		return fail(newError(KindInvalidAmount, "amount must be positive"))
	}

	// 2. owner 身份合法，金库地址由 owner 推导
	vaultAddr, err := h.env.deriver.Derive(req.Owner)
	if err != nil {
		return fail(wrapError(KindInvalidIdentity, err, "owner %q", req.Owner))
	}
	if req.Vault != "" && req.Vault != vaultAddr {
		return fail(newError(KindInvalidIdentity, "vault %s is not derived from owner %s", req.Vault, req.Owner))
	}

	// 3. 存款人必须亲自签名
	if err := h.env.guard.Verify(req, req.Signer); err != nil {
		return fail(asError(err))
	}
	depositor := req.Signer

	// 4. nonce
	depAcc, err := loadAccount(sv, depositor)
	if err != nil {
		return fail(asError(err))
	}
	if err := checkNonce(depAcc, req.Nonce); err != nil {
		return fail(asError(err))
	}

	// 5. 金库已存在时必须未锁定
	vault, exists, err := loadVault(sv, vaultAddr)
	if err != nil {
		return fail(asError(err))
	}
	if !exists {
		vault = types.NewVault(vaultAddr, req.Owner)
	}
	if vault.Locked {
		return fail(newError(KindVaultLocked, "vault %s is locked", vaultAddr))
	}

	// 6. 存款人余额
	if depAcc.Balance < req.Amount {
		return fail(newError(KindInsufficientCallerBalance, "has %d, need %d", depAcc.Balance, req.Amount))
	}

	// 7. 金库余额溢出检查
	vaultAcc, err := loadAccount(sv, vaultAddr)
	if err != nil {
		return fail(asError(err))
	}
	if _, err := SafeAdd(vaultAcc.Balance, req.Amount); err != nil {
		return fail(wrapError(KindOverflow, err, "vault %s balance", vaultAddr))
	}

	// 8. 全部检查通过，写状态
	ev := types.NewDepositEvent(depositor, vaultAddr, req.Amount)
	err = applyEffects(sv, func() error {
		depAcc.Nonce = req.Nonce
		if err := transfer(sv, depAcc, vaultAcc, req.Amount); err != nil {
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
		Vault:      vaultAddr,
		Events:     []*types.Event{ev},
		WriteCount: len(ws),
	}, nil
}

var _ TxHandler = (*DepositTxHandler)(nil)
