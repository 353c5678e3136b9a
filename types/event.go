package types

import "encoding/json"

// ============================================
// 金库事件
// ============================================

type EventType string

const (
	EventDeposit    EventType = "vault.deposit"
	EventWithdraw   EventType = "vault.withdraw"
	EventToggleLock EventType = "vault.toggle_lock"
)

// EventVersion 事件负载版本，字段变动必须升级
const EventVersion uint32 = 1

// Event 成功状态迁移后产生的不可变记录
// Deposit:    {depositor, vault, amount}
// Withdraw:   {authority, vault, amount}
// ToggleLock: {vault, authority, locked}
type Event struct {
	Version   uint32
	Type      EventType
	Vault     string
	Seq       uint64
	Depositor string
	Authority string
	Amount    uint64
	Locked    bool
	TxID      string
	ID        string // keccak256(编码)，写入日志时填充
}

// NewDepositEvent 存款事件
func NewDepositEvent(depositor, vault string, amount uint64) *Event {
	return &Event{Version: EventVersion, Type: EventDeposit, Depositor: depositor, Vault: vault, Amount: amount}
}

// NewWithdrawEvent 取款事件
func NewWithdrawEvent(authority, vault string, amount uint64) *Event {
	return &Event{Version: EventVersion, Type: EventWithdraw, Authority: authority, Vault: vault, Amount: amount}
}

// NewToggleLockEvent 锁切换事件
func NewToggleLockEvent(vault, authority string, locked bool) *Event {
	return &Event{Version: EventVersion, Type: EventToggleLock, Vault: vault, Authority: authority, Locked: locked}
}

type eventHeader struct {
	Version uint32    `json:"version"`
	Type    EventType `json:"type"`
	Seq     uint64    `json:"seq"`
	ID      string    `json:"id"`
	TxID    string    `json:"tx_id,omitempty"`
}

// MarshalJSON 每种事件输出固定字段集
func (e *Event) MarshalJSON() ([]byte, error) {
	h := eventHeader{Version: e.Version, Type: e.Type, Seq: e.Seq, ID: e.ID, TxID: e.TxID}
	switch e.Type {
	case EventDeposit:
		return json.Marshal(struct {
			eventHeader
			Depositor string `json:"depositor"`
			Vault     string `json:"vault"`
			Amount    uint64 `json:"amount"`
		}{h, e.Depositor, e.Vault, e.Amount})
	case EventWithdraw:
		return json.Marshal(struct {
			eventHeader
			Authority string `json:"authority"`
			Vault     string `json:"vault"`
			Amount    uint64 `json:"amount"`
		}{h, e.Authority, e.Vault, e.Amount})
	default:
		return json.Marshal(struct {
			eventHeader
			Vault     string `json:"vault"`
			Authority string `json:"authority"`
			Locked    bool   `json:"locked"`
		}{h, e.Vault, e.Authority, e.Locked})
	}
}

// UnmarshalJSON 事件消费端使用
func (e *Event) UnmarshalJSON(data []byte) error {
	var raw struct {
		eventHeader
		Depositor string `json:"depositor"`
		Authority string `json:"authority"`
		Vault     string `json:"vault"`
		Amount    uint64 `json:"amount"`
		Locked    bool   `json:"locked"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event{
		Version:   raw.Version,
		Type:      raw.Type,
		Seq:       raw.Seq,
		ID:        raw.ID,
		TxID:      raw.TxID,
		Depositor: raw.Depositor,
		Authority: raw.Authority,
		Vault:     raw.Vault,
		Amount:    raw.Amount,
		Locked:    raw.Locked,
	}
	return nil
}
