package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"vault/logs"
	"vault/stats"

	"golang.org/x/time/rate"
)

// 清理参数
const (
	idleTimeout     = 3 * time.Minute // 超过这个时间没有请求的 IP 记录会被清理
	cleanupInterval = 2 * time.Minute // 清理间隔
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 的令牌桶限流
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	rate    rate.Limit
	burst   int
	logger  logs.Logger
	now     func() time.Time
}

// NewRateLimiter perSecond <= 0 表示不限流
func NewRateLimiter(perSecond, burst int, logger logs.Logger) *RateLimiter {
	if logger == nil {
		logger = logs.NewNodeLogger("api")
	}
	if burst <= 0 {
		burst = perSecond
	}
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		rate:    rate.Limit(perSecond),
		burst:   burst,
		logger:  logger,
		now:     time.Now,
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.clients[ip] = c
	}
	c.lastSeen = rl.now()
	return c.limiter
}

// Handler 超过阈值返回 429 Too Many Requests
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	if rl.rate <= 0 {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !rl.getLimiter(ip).Allow() {
			stats.RecordRateLimited()
			rl.logger.Debug("[API] rate limit exceeded ip=%s path=%s", ip, r.URL.Path)
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup 删除不活跃的 IP 记录，返回删除条数
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > idleTimeout {
			delete(rl.clients, ip)
			removed++
		}
	}
	return removed
}

// StartCleanup 后台定时清理，stop 关闭后退出
func (rl *RateLimiter) StartCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(cleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

// clientIP 取 RemoteAddr 的主机部分，兼容 IPv6
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// statusRecorder 记录响应状态码
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Metrics 记录每个路由的请求数，route 由调用方提供（chi 的路由模板）
func Metrics(route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			stats.RecordHTTP(route(r), rec.status)
		})
	}
}
