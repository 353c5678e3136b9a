package handlers

import (
	"net/http"

	"vault/types"
	"vault/utils"

	"github.com/go-chi/chi/v5"
)

func (hm *HandlerManager) vaultView(v *types.Vault) VaultView {
	return VaultView{
		Address:   v.Address,
		Authority: v.Authority,
		State:     v.State(),
		Locked:    v.Locked,
		Balance:   v.Balance,
		Display:   utils.FormatAmount(v.Balance, hm.vaultCfg.Decimals),
		Symbol:    hm.vaultCfg.Symbol,
		Events:    v.EventSeq,
	}
}

// HandleGetVault 按 authority 查询金库
func (hm *HandlerManager) HandleGetVault(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetVault")

	v, err := hm.executor.GetVaultByAuthority(chi.URLParam(r, "authority"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hm.vaultView(v))
}

// HandleGetVaultEvents 金库事件日志，按序号升序
func (hm *HandlerManager) HandleGetVaultEvents(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleGetVaultEvents")

	addr, err := hm.executor.DeriveVaultAddress(chi.URLParam(r, "authority"))
	if err != nil {
		writeError(w, err)
		return
	}
	evs, err := hm.executor.VaultEvents(addr)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, EventsResponse{Vault: addr, Events: evs})
}

// HandleDerive 只推导地址，不查存储
func (hm *HandlerManager) HandleDerive(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleDerive")

	authority := chi.URLParam(r, "authority")
	addr, err := hm.executor.DeriveVaultAddress(authority)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DeriveResponse{Authority: authority, Vault: addr})
}
