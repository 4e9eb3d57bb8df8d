package server

import (
	"encoding/json"
	"net/http"
)

// Observer 只读观察接口：健康检查、房间列表、运行指标与旁观 WebSocket
// 对局规则固定，这里不提供任何写入口
type Observer struct {
	reg *Registry
}

// NewObserver 创建观察接口
func NewObserver(reg *Registry) *Observer {
	return &Observer{reg: reg}
}

// Routes 装配路由
func (o *Observer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/rooms", o.handleRooms)
	mux.HandleFunc("/metrics", o.handleMetrics)
	mux.HandleFunc("/watch", o.handleWatch)
	return mux
}

// handleRooms 房间列表
// GET /rooms
func (o *Observer) handleRooms(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(o.reg.Rooms())
}

// handleMetrics 运行指标
// GET /metrics           进程级指标
// GET /metrics?room=r1   指定房间的指标
func (o *Observer) handleMetrics(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("room")
	if name == "" {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ServerSnapshot(o.reg))
		return
	}

	room := o.reg.Find(name)
	if room == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	payload := map[string]any{
		"room":    room.Name,
		"status":  room.Status(),
		"metrics": room.Metrics().Snapshot(),
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
