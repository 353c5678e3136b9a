package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"vault/db"
	"vault/types"
	"vault/utils"
	"vault/vm"
)

// runKeygen 生成私钥（WIF）和对应身份；-tls 时顺便生成自签名证书
func runKeygen(args []string) error {
	fs := flag.NewFlagSet("keygen", flag.ExitOnError)
	tlsDir := fs.String("tls", "", "also write a self-signed cert/key pair into this directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	priv, err := utils.GeneratePrivateKey()
	if err != nil {
		return err
	}
	wif, err := utils.EncodeWIF(priv)
	if err != nil {
		return err
	}
	addr, err := utils.DeriveBtcBech32Address(priv)
	if err != nil {
		return err
	}
	vaultAddr, err := utils.DeriveVaultAddress(addr)
	if err != nil {
		return err
	}
	fmt.Printf("private key: %s\nidentity:    %s\nvault:       %s\n", wif, addr, vaultAddr)

	if *tlsDir != "" {
		if err := os.MkdirAll(*tlsDir, 0755); err != nil {
			return err
		}
		cert, key := filepath.Join(*tlsDir, "server.crt"), filepath.Join(*tlsDir, "server.key")
		if err := generateSelfSignedCert(cert, key); err != nil {
			return err
		}
		fmt.Printf("tls cert:    %s\ntls key:     %s\n", cert, key)
	}
	return nil
}

// runSign 离线签名：输出可以直接 POST 到 /v1/tx 的 JSON
func runSign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	key := fs.String("key", "", "private key (WIF or hex)")
	kind := fs.String("kind", string(types.KindDeposit), "deposit | withdraw | toggle_lock")
	owner := fs.String("owner", "", "vault owner identity (deposit)")
	vaultAddr := fs.String("vault", "", "vault address (withdraw, toggle_lock)")
	amount := fs.String("amount", "0", "amount in display units, e.g. 1.5")
	decimals := fs.Int("decimals", 9, "display decimals")
	nonce := fs.Uint64("nonce", 1, "signer account nonce + 1")
	namespace := fs.String("namespace", utils.DefaultVaultNamespace, "vault namespace")
	if err := fs.Parse(args); err != nil {
		return err
	}

	km, err := utils.NewKeyManager(*key)
	if err != nil {
		return err
	}
	units, err := utils.ParseAmount(*amount, int32(*decimals))
	if err != nil {
		return err
	}

	req := &types.Request{
		Kind:   types.Kind(*kind),
		Owner:  *owner,
		Vault:  *vaultAddr,
		Amount: units,
		Nonce:  *nonce,
	}
	vm.Sign(req, *namespace, km)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(req)
}

// runInspect 只读打开数据库，打印全部金库
func runInspect(args []string) error {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	dataDir := fs.String("data", "./data", "database directory")
	namespace := fs.String("namespace", utils.DefaultVaultNamespace, "vault namespace")
	withEvents := fs.Bool("events", false, "print each vault's event log")
	if err := fs.Parse(args); err != nil {
		return err
	}

	mgr, err := db.NewReadOnlyManager(*dataDir, nil)
	if err != nil {
		return err
	}
	defer mgr.Close()

	x, err := vm.NewExecutor(mgr, nil, nil, vm.WithNamespace(*namespace))
	if err != nil {
		return err
	}
	addrs, err := x.Vaults()
	if err != nil {
		return err
	}
	for _, addr := range addrs {
		v, err := x.GetVault(addr)
		if err != nil {
			return err
		}
		fmt.Printf("%s authority=%s state=%s balance=%d events=%d\n", v.Address, v.Authority, v.State(), v.Balance, v.EventSeq)
		if !*withEvents {
			continue
		}
		evs, err := x.VaultEvents(addr)
		if err != nil {
			return err
		}
		for _, ev := range evs {
			b, _ := json.Marshal(ev)
			fmt.Printf("  %s\n", b)
		}
	}
	fmt.Printf("%d vaults\n", len(addrs))
	return nil
}
