package main

import (
	"errors"
	"fmt"
	"os"

	"vault/logs"
	"vault/types"
	"vault/vm"

	"gopkg.in/yaml.v3"
)

// GenesisFile 创世文件格式
//
//	accounts:
//	  - address: bc1q...
//	    balance: 1000000000
type GenesisFile struct {
	Accounts []types.GenesisAlloc `yaml:"accounts"`
}

func loadGenesisFile(path string) ([]types.GenesisAlloc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis %s: %w", path, err)
	}
	var gf GenesisFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("parse genesis %s: %w", path, err)
	}
	return gf.Accounts, nil
}

// applyGenesisFile 已经执行过创世时直接跳过
func applyGenesisFile(x *vm.Executor, path string) error {
	allocs, err := loadGenesisFile(path)
	if err != nil {
		return err
	}
	err = x.ApplyGenesis(allocs)
	if errors.Is(err, vm.ErrGenesisApplied) {
		logs.Info("[Node] genesis already applied, skipping %s", path)
		return nil
	}
	return err
}
