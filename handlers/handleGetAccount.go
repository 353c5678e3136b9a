package handlers

import (
	"net/http"

	"vault/utils"

	"github.com/go-chi/chi/v5"
)

// HandleGetAccount 账本账户，金库地址也可以直接查
func (hm *HandlerManager) HandleGetAccount(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetAccount")

	addr := chi.URLParam(r, "address")
	if utils.ValidateIdentity(addr) != nil && !hm.executor.Deriver.IsVaultAddress(addr) {
		writeBadRequest(w, "invalid address: "+addr)
		return
	}
	acc, err := hm.executor.GetAccount(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AccountView{
		Address: acc.Address,
		Balance: acc.Balance,
		Display: utils.FormatAmount(acc.Balance, hm.vaultCfg.Decimals),
		Symbol:  hm.vaultCfg.Symbol,
		Nonce:   acc.Nonce,
	})
}
