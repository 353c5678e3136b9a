package handlers

import (
	"net/http"

	"vault/stats"
	"vault/types"
)

// StatusResponse 节点状态
type StatusResponse struct {
	Status    string             `json:"status"`
	Namespace string             `json:"namespace"`
	Kinds     []types.Kind       `json:"kinds"`
	Stats     stats.Snapshot     `json:"stats"`
	EventBus  *stats.ChannelStat `json:"event_bus,omitempty"`
}

// HandleStatus 处理状态查询
func (hm *HandlerManager) HandleStatus(w http.ResponseWriter, r *http.Request) {
	hm.Stats.RecordAPICall("HandleStatus")

	resp := StatusResponse{
		Status:    "ok",
		Namespace: hm.executor.Deriver.Namespace,
		Kinds:     hm.executor.Reg.List(),
		Stats:     hm.Stats.Snapshot(),
	}
	if hm.busStats != nil {
		cs := hm.busStats()
		resp.EventBus = &cs
	}
	writeJSON(w, http.StatusOK, resp)
}
