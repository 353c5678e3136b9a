package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vault/config"
	"vault/db"
	"vault/events"
	"vault/handlers"
	"vault/logs"
	"vault/types"
	"vault/vm"

	"github.com/quic-go/quic-go"
	"github.com/quic-go/quic-go/http3"
)

// NodeInstance 一个运行中的金库节点
type NodeInstance struct {
	Config         *config.Config
	DBManager      *db.Manager
	Executor       *vm.Executor
	Bus            *events.Bus
	Redis          *events.RedisEmitter
	HandlerManager *handlers.HandlerManager
	Server         *http.Server  // TCP (HTTP/1.1, HTTP/2)
	HTTP3Server    *http3.Server // QUIC HTTP/3 server，配置了证书才启用
	Logger         logs.Logger

	stopCleanup chan struct{}
}

func initializeNode(cfg *config.Config) (*NodeInstance, error) {
	node := &NodeInstance{
		Config:      cfg,
		Logger:      logs.NewNodeLogger("node"),
		stopCleanup: make(chan struct{}),
	}

	// 1. 数据库
	dbManager, err := db.NewManagerWithConfig(&cfg.Database, logs.NewNodeLogger("db"))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	node.DBManager = dbManager

	// 2. 事件发布：进程内总线，可选 Redis
	if cfg.Events.PublishAsync {
		node.Bus = events.NewAsyncBus(1024)
	} else {
		node.Bus = events.NewBus()
	}
	emitters := events.MultiEmitter{node.Bus}
	if cfg.Events.RedisAddr != "" {
		node.Redis = events.NewRedisEmitter(cfg.Events.RedisAddr, cfg.Events.RedisChannel)
		node.Redis.SetTimeout(cfg.Events.PublishTimeout)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := node.Redis.Ping(ctx); err != nil {
			node.Logger.Warn("[Node] redis %s unreachable, publishing will fail until it recovers: %v", cfg.Events.RedisAddr, err)
		}
		cancel()
		emitters = append(emitters, node.Redis)
	}
	node.Bus.SubscribeAll(func(ev *types.Event) {
		node.Logger.Verbose("[Events] %s vault=%s seq=%d", ev.Type, ev.Vault, ev.Seq)
	})

	// 3. 执行器
	executor, err := vm.NewExecutor(dbManager, nil, emitters,
		vm.WithNamespace(cfg.Vault.Namespace),
		vm.WithLockStripes(cfg.Vault.LockStripes),
		vm.WithLogger(logs.NewNodeLogger("vm")),
	)
	if err != nil {
		node.shutdown()
		return nil, err
	}
	node.Executor = executor

	// 4. 创世
	if cfg.Vault.GenesisFile != "" {
		if err := applyGenesisFile(executor, cfg.Vault.GenesisFile); err != nil {
			node.shutdown()
			return nil, err
		}
	}

	// 5. HTTP
	node.HandlerManager = handlers.NewHandlerManager(executor, cfg, logs.NewNodeLogger("api"))
	node.HandlerManager.SetBusStats(node.Bus.Stats)
	return node, nil
}

// start 启动 HTTP 服务；有证书时同时监听 TCP TLS 和 QUIC
func (node *NodeInstance) start(errCh chan<- error) error {
	cfg := node.Config.Server
	handler := node.HandlerManager.Router()
	node.HandlerManager.Limiter().StartCleanup(node.stopCleanup)

	node.Server = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.HTTPTimeout,
		WriteTimeout:      cfg.HTTPTimeout,
	}

	if cfg.CertFile == "" {
		go func() {
			node.Logger.Info("[Node] HTTP listening on %s", cfg.ListenAddr)
			if err := node.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
		return nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("load certificate: %w", err)
	}
	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
		NextProtos:   []string{"h3", "http/1.1"},
	}
	node.Server.TLSConfig = tlsConfig

	quicConfig := &quic.Config{
		KeepAlivePeriod: cfg.QUICKeepAlivePeriod,
		MaxIdleTimeout:  cfg.QUICMaxIdleTimeout,
	}
	node.HTTP3Server = &http3.Server{
		Addr:       cfg.ListenAddr,
		Handler:    handler,
		TLSConfig:  http3.ConfigureTLSConfig(tlsConfig),
		QUICConfig: quicConfig,
	}

	go func() {
		node.Logger.Info("[Node] HTTP/3 listening on %s", cfg.ListenAddr)
		if err := node.HTTP3Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) && !isServerClosedErr(err) {
			errCh <- err
		}
	}()
	go func() {
		node.Logger.Info("[Node] HTTPS listening on %s", cfg.ListenAddr)
		if err := node.Server.ListenAndServeTLS("", ""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	return nil
}

func (node *NodeInstance) shutdown() {
	select {
	case <-node.stopCleanup:
	default:
		close(node.stopCleanup)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if node.Server != nil {
		if err := node.Server.Shutdown(ctx); err != nil {
			node.Logger.Warn("[Node] http shutdown: %v", err)
		}
	}
	if node.HTTP3Server != nil {
		if err := node.HTTP3Server.Close(); err != nil && !isServerClosedErr(err) {
			node.Logger.Warn("[Node] http3 shutdown: %v", err)
		}
	}
	if node.Bus != nil {
		node.Bus.Close()
	}
	if node.Redis != nil {
		_ = node.Redis.Close()
	}
	if node.DBManager != nil {
		if err := node.DBManager.Close(); err != nil {
			node.Logger.Warn("[Node] db close: %v", err)
		}
	}
}

func isServerClosedErr(err error) bool {
	return err != nil && (errors.Is(err, http.ErrServerClosed) || errors.Is(err, quic.ErrServerClosed))
}
