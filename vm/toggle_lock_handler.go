package vm

import "vault/types"

// ToggleLockTxHandler 锁定/解锁：Unlocked <-> Locked，只有 authority 可以切换
type ToggleLockTxHandler struct {
	env *handlerEnv
}

func (h *ToggleLockTxHandler) Kind() types.Kind {
	return types.KindToggleLock
}

func (h *ToggleLockTxHandler) DryRun(req *types.Request, sv StateView) ([]WriteOp, *Receipt, error) {
	txID := req.TxID(h.env.deriver.Namespace)
	fail := func(err *Error) ([]WriteOp, *Receipt, error) {
		return nil, failedReceipt(req, txID, err), err
	}

	// 1. 金库必须存在
	vault, err := requireVault(sv, req.Vault)
	if err != nil {
		return fail(asError(err))
	}

	// 2. authority 签名
	if err := h.env.guard.Verify(req, vault.Authority); err != nil {
		return fail(asError(err))
	}

	// 3. nonce
	authAcc, err := loadAccount(sv, vault.Authority)
	if err != nil {
		return fail(asError(err))
	}
	if err := checkNonce(authAcc, req.Nonce); err != nil {
		return fail(asError(err))
	}

	// 4. 翻转
	vault.Locked = !vault.Locked
	authAcc.Nonce = req.Nonce
	saveAccount(sv, authAcc)

	ev := types.NewToggleLockEvent(vault.Address, vault.Authority, vault.Locked)
	appendEvent(sv, vault, ev, txID)
	saveVault(sv, vault)

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

var _ TxHandler = (*ToggleLockTxHandler)(nil)
