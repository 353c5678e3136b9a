package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"vault/config"
	"vault/logs"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage: vaultd <command> [flags]

commands:
  serve      run the vault node (default)
  keygen     generate a new identity key
  sign       build and sign a request, print JSON for POST /v1/tx
  inspect    dump vaults from a stopped node's database
  simulate   run a scripted deposit/withdraw/lock session in memory
`)
}

func main() {
	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "keygen":
		err = runKeygen(args)
	case "sign":
		err = runSign(args)
	case "inspect":
		err = runInspect(args)
	case "simulate":
		err = runSimulate(args)
	case "help", "-h", "--help":
		usage()
		return
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logs.Error("%s: %v", cmd, err)
		os.Exit(1)
	}
}

// loadConfig 默认值 → 配置文件 → 环境变量 → 命令行
func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	cfgPath := fs.String("config", "", "path to YAML config file")
	dataDir := fs.String("data", "", "database directory (overrides config)")
	listen := fs.String("listen", "", "listen address (overrides config)")
	level := fs.String("log-level", "", "log level (overrides config)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return nil, err
	}
	if *dataDir != "" {
		cfg.Database.Path = *dataDir
	}
	if *listen != "" {
		cfg.Server.ListenAddr = *listen
	}
	if *level != "" {
		cfg.Log.Level = *level
	}

	lvl, err := logs.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logs.SetLevel(lvl)
	return cfg, nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}

	node, err := initializeNode(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)
	if err := node.start(errCh); err != nil {
		node.shutdown()
		return err
	}

	select {
	case <-ctx.Done():
		logs.Info("[Node] shutting down")
	case err = <-errCh:
		logs.Error("[Node] server stopped: %v", err)
	}
	node.shutdown()
	return err
}
