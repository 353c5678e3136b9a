package main

import (
	"context"
	"flag"
	"fmt"
	mrand "math/rand"

	"vault/db"
	"vault/events"
	"vault/logs"
	"vault/types"
	"vault/utils"
	"vault/vm"
)

// TxSimulator 在内存库上随机跑存款/取款/锁切换，最后检查总量守恒
type TxSimulator struct {
	x      *vm.Executor
	users  []*utils.KeyManager
	nonces map[string]uint64
	rnd    *mrand.Rand
}

func runSimulate(args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	users := fs.Int("users", 4, "number of simulated identities")
	steps := fs.Int("steps", 200, "number of requests")
	seed := fs.Int64("seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, err := db.NewInMemoryManager(nil)
	if err != nil {
		return err
	}
	defer mgr.Close()

	bus := events.NewBus()
	counts := make(map[types.EventType]int)
	bus.SubscribeAll(func(ev *types.Event) { counts[ev.Type]++ })

	x, err := vm.NewExecutor(mgr, nil, bus)
	if err != nil {
		return err
	}
	s := &TxSimulator{x: x, nonces: make(map[string]uint64), rnd: mrand.New(mrand.NewSource(*seed))}

	const initial = 1_000_000
	allocs := make([]types.GenesisAlloc, 0, *users)
	for i := 0; i < *users; i++ {
		priv, err := utils.GeneratePrivateKey()
		if err != nil {
			return err
		}
		km, err := utils.NewKeyManagerFromKey(priv)
		if err != nil {
			return err
		}
		s.users = append(s.users, km)
		allocs = append(allocs, types.GenesisAlloc{Address: km.GetAddress(), Balance: initial})
	}
	if err := x.ApplyGenesis(allocs); err != nil {
		return err
	}

	failures := make(map[vm.ErrorKind]int)
	for i := 0; i < *steps; i++ {
		if _, err := s.step(); err != nil {
			failures[vm.KindOf(err)]++
		}
	}

	total, err := s.total()
	if err != nil {
		return err
	}
	fmt.Printf("events: %v\nrejected: %v\n", counts, failures)
	fmt.Printf("total supply %d (expected %d)\n", total, uint64(initial)*uint64(len(s.users)))
	if total != uint64(initial)*uint64(len(s.users)) {
		return fmt.Errorf("supply not conserved")
	}
	return nil
}

func (s *TxSimulator) pick() *utils.KeyManager {
	return s.users[s.rnd.Intn(len(s.users))]
}

func (s *TxSimulator) step() (*vm.Receipt, error) {
	signer := s.pick()
	req := &types.Request{Nonce: s.nonces[signer.GetAddress()] + 1}

	switch s.rnd.Intn(10) {
	case 0:
		req.Kind = types.KindToggleLock
		req.Vault, _ = s.x.DeriveVaultAddress(signer.GetAddress())
	case 1, 2, 3:
		req.Kind = types.KindWithdraw
		req.Vault, _ = s.x.DeriveVaultAddress(signer.GetAddress())
		req.Amount = uint64(s.rnd.Intn(5000) + 1)
	default:
		req.Kind = types.KindDeposit
		req.Owner = s.pick().GetAddress()
		req.Amount = uint64(s.rnd.Intn(10000) + 1)
	}
	vm.Sign(req, s.x.Deriver.Namespace, signer)

	rc, err := s.x.Execute(context.Background(), req)
	if err == nil {
		s.nonces[signer.GetAddress()] = req.Nonce
		logs.Trace("[Sim] %s tx=%s ok", req.Kind, rc.TxID)
	}
	return rc, err
}

// total 全部账户余额之和（含金库地址上的账户）
func (s *TxSimulator) total() (uint64, error) {
	var sum uint64
	for _, u := range s.users {
		acc, err := s.x.GetAccount(u.GetAddress())
		if err != nil {
			return 0, err
		}
		sum += acc.Balance
		vaultAddr, err := s.x.DeriveVaultAddress(u.GetAddress())
		if err != nil {
			return 0, err
		}
		vacc, err := s.x.GetAccount(vaultAddr)
		if err != nil {
			return 0, err
		}
		sum += vacc.Balance
	}
	return sum, nil
}
