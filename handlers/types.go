package handlers

import (
	"vault/types"
	"vault/vm"
)

// ErrorResponse 所有失败响应的统一格式
type ErrorResponse struct {
	Kind  vm.ErrorKind `json:"kind"`
	Error string       `json:"error"`
}

// TxResponse POST /v1/tx 的响应
type TxResponse struct {
	Receipt *vm.Receipt `json:"receipt"`
}

// VaultView 金库查询结果，Display 为按配置小数位格式化后的余额
type VaultView struct {
	Address   string           `json:"address"`
	Authority string           `json:"authority"`
	State     types.VaultState `json:"state"`
	Locked    bool             `json:"locked"`
	Balance   uint64           `json:"balance"`
	Display   string           `json:"display"`
	Symbol    string           `json:"symbol"`
	Events    uint64           `json:"events"`
}

// AccountView 账本账户查询结果
type AccountView struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Display string `json:"display"`
	Symbol  string `json:"symbol"`
	Nonce   uint64 `json:"nonce"`
}

// DeriveResponse 金库地址推导结果
type DeriveResponse struct {
	Authority string `json:"authority"`
	Vault     string `json:"vault"`
}

// EventsResponse 金库事件日志
type EventsResponse struct {
	Vault  string         `json:"vault"`
	Events []*types.Event `json:"events"`
}
