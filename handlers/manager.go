package handlers

import (
	"net/http"

	"vault/config"
	"vault/logs"
	"vault/middleware"
	"vault/stats"
	"vault/vm"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// HandlerManager 管理所有HTTP处理器及其依赖
type HandlerManager struct {
	executor *vm.Executor
	vaultCfg config.VaultConfig
	limiter  *middleware.RateLimiter
	maxBody  int64

	// 事件总线队列状态，可以为 nil
	busStats func() stats.ChannelStat

	// 统计相关字段
	Stats  *stats.Stats
	Logger logs.Logger
}

// NewHandlerManager 创建新的处理器管理器
func NewHandlerManager(executor *vm.Executor, cfg *config.Config, logger logs.Logger) *HandlerManager {
	if logger == nil {
		logger = logs.NewNodeLogger("api")
	}
	return &HandlerManager{
		executor: executor,
		vaultCfg: cfg.Vault,
		limiter:  middleware.NewRateLimiter(cfg.Server.RateLimitPerSecond, cfg.Server.RateLimitBurst, logger),
		maxBody:  cfg.Server.MaxRequestBodySize,
		Stats:    stats.NewStats(),
		Logger:   logger,
	}
}

// SetBusStats 注入事件总线状态来源
func (hm *HandlerManager) SetBusStats(fn func() stats.ChannelStat) {
	hm.busStats = fn
}

// Limiter 给 cmd 启动后台清理用
func (hm *HandlerManager) Limiter() *middleware.RateLimiter {
	return hm.limiter
}

// Router 注册所有路由
func (hm *HandlerManager) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics(routePattern))

	r.Handle("/metrics", stats.Handler())

	r.Route("/v1", func(api chi.Router) {
		api.Use(hm.limiter.Handler)

		api.Post("/tx", hm.HandleTx)
		api.Get("/status", hm.HandleStatus)
		api.Get("/derive/{authority}", hm.HandleDerive)
		api.Get("/accounts/{address}", hm.HandleGetAccount)
		api.Get("/vaults/{authority}", hm.HandleGetVault)
		api.Get("/vaults/{authority}/events", hm.HandleGetVaultEvents)
	})
	return r
}

// routePattern 用路由模板做指标标签，避免地址把标签基数撑爆
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
