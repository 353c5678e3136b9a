package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"vault/types"
	"vault/vm"
)

// HandleTx 提交一个签名请求，同步执行并返回回执
func (hm *HandlerManager) HandleTx(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleTx")

	if hm.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, hm.maxBody)
	}
	var req types.Request
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Kind: "BadRequest", Error: "request body too large"})
			return
		}
		writeBadRequest(w, "invalid request body: "+err.Error())
		return
	}

	rc, err := hm.executor.Execute(r.Context(), &req)
	if err != nil {
		kind := vm.KindOf(err)
		hm.Stats.RecordOutcome(string(kind))
		if kind == vm.KindInternal {
			hm.Logger.Error("[API] %s failed: %v", req.Kind, err)
		}
		writeJSON(w, statusForKind(kind), struct {
			ErrorResponse
			Receipt *vm.Receipt `json:"receipt,omitempty"`
		}{ErrorResponse{Kind: kind, Error: err.Error()}, rc})
		return
	}
	hm.Stats.RecordOutcome("ok")
	writeJSON(w, http.StatusOK, TxResponse{Receipt: rc})
}
