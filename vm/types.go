package vm

import (
	iface "vault/interfaces"
	"vault/types"
)

// WriteOp "要怎么改状态"的清单，与存储层共用同一个定义
type WriteOp = iface.WriteOp

const (
	StatusSucceed = "SUCCEED"
	StatusFailed  = "FAILED"
)

// Receipt 记录执行结果，成功和失败都会返回
type Receipt struct {
	TxID       string         `json:"tx_id"`
	Kind       types.Kind     `json:"kind"`
	Status     string         `json:"status"` // "SUCCEED" or "FAILED"
	Error      string         `json:"error,omitempty"`
	ErrorKind  ErrorKind      `json:"error_kind,omitempty"`
	Vault      string         `json:"vault,omitempty"`
	Events     []*types.Event `json:"events,omitempty"`
	WriteCount int            `json:"write_count"`
}

func failedReceipt(req *types.Request, txID string, err *Error) *Receipt {
	return &Receipt{
		TxID:      txID,
		Kind:      req.Kind,
		Status:    StatusFailed,
		Error:     err.Error(),
		ErrorKind: err.Kind,
	}
}
