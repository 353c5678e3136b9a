package handlers

import (
	"encoding/json"
	"net/http"

	"vault/vm"
)

// statusForKind 错误类型到 HTTP 状态码
func statusForKind(kind vm.ErrorKind) int {
	switch kind {
	case vm.KindInvalidAmount, vm.KindInvalidIdentity, vm.KindInvalidNonce, vm.KindUnknown:
		return http.StatusBadRequest
	case vm.KindUnauthorized:
		return http.StatusUnauthorized
	case vm.KindVaultNotFound:
		return http.StatusNotFound
	case vm.KindVaultLocked, vm.KindInsufficientVaultBalance, vm.KindInsufficientCallerBalance, vm.KindOverflow:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError 把执行错误写成 {"kind","error"}
func writeError(w http.ResponseWriter, err error) {
	kind := vm.KindOf(err)
	writeJSON(w, statusForKind(kind), ErrorResponse{Kind: kind, Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Kind: "BadRequest", Error: msg})
}
