package stats

import (
	"sync"
	"time"
)

// Stats 进程内的简单计数，给 /v1/status 用；长期监控走 Prometheus
type Stats struct {
	statsLock     sync.RWMutex
	startedAt     time.Time
	apiCallCounts map[string]uint64
	outcomes      map[string]uint64
}

func NewStats() *Stats {
	return &Stats{
		startedAt:     time.Now(),
		apiCallCounts: make(map[string]uint64),
		outcomes:      make(map[string]uint64),
	}
}

// 记录API调用
func (h *Stats) RecordAPICall(apiName string) {
	h.statsLock.Lock()
	defer h.statsLock.Unlock()
	h.apiCallCounts[apiName]++
}

// RecordOutcome 记录请求结果（"ok" 或错误类型）
func (h *Stats) RecordOutcome(outcome string) {
	h.statsLock.Lock()
	defer h.statsLock.Unlock()
	h.outcomes[outcome]++
}

// Snapshot 统计快照
type Snapshot struct {
	Uptime   string            `json:"uptime"`
	APICalls map[string]uint64 `json:"api_calls"`
	Outcomes map[string]uint64 `json:"outcomes"`
}

// 获取统计快照（复制，调用方可以随意修改）
func (h *Stats) Snapshot() Snapshot {
	h.statsLock.RLock()
	defer h.statsLock.RUnlock()

	snap := Snapshot{
		Uptime:   time.Since(h.startedAt).Truncate(time.Second).String(),
		APICalls: make(map[string]uint64, len(h.apiCallCounts)),
		Outcomes: make(map[string]uint64, len(h.outcomes)),
	}
	for api, count := range h.apiCallCounts {
		snap.APICalls[api] = count
	}
	for o, count := range h.outcomes {
		snap.Outcomes[o] = count
	}
	return snap
}
