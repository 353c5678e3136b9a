package types

// VaultState 金库锁状态机：Unlocked <-> Locked
type VaultState string

const (
	StateUnlocked VaultState = "Unlocked"
	StateLocked   VaultState = "Locked"
)

// Vault 每个 authority 一个金库
// Balance 不单独存储，来自金库地址上的账本账户余额
type Vault struct {
	Address   string `json:"address"`
	Authority string `json:"authority"`
	Locked    bool   `json:"locked"`
	Balance   uint64 `json:"balance"`
	EventSeq  uint64 `json:"event_seq"`
}

// NewVault 首次存款时隐式创建：balance=0, locked=false
func NewVault(address, authority string) *Vault {
	return &Vault{Address: address, Authority: authority}
}

// State 当前锁状态
func (v *Vault) State() VaultState {
	if v.Locked {
		return StateLocked
	}
	return StateUnlocked
}

// Account 账本账户，金库之外的"外部余额"
type Account struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Nonce   uint64 `json:"nonce"`
}

// GenesisAlloc 创世分配
type GenesisAlloc struct {
	Address string `json:"address" yaml:"address"`
	Balance uint64 `json:"balance" yaml:"balance"`
}
