package server

import "sync/atomic"

// RoomMetrics 单个房间运行期的关键指标（监控与调试用）
type RoomMetrics struct {
	TickCount     int64 // 已推进的帧数
	TotalTickNs   int64 // 帧耗时累计（纳秒）
	InputsApplied int64 // 已应用的意图数
	BulletsFired  int64 // 生成过的子弹数
	Hits          int64 // 命中次数
	FramesDropped int64 // 因发送队列满被丢弃的广播帧数
}

func (m *RoomMetrics) IncInputs()        { atomic.AddInt64(&m.InputsApplied, 1) }
func (m *RoomMetrics) IncBulletsFired()  { atomic.AddInt64(&m.BulletsFired, 1) }
func (m *RoomMetrics) IncHits()          { atomic.AddInt64(&m.Hits, 1) }
func (m *RoomMetrics) IncFramesDropped() { atomic.AddInt64(&m.FramesDropped, 1) }

func (m *RoomMetrics) AddTick(ns int64) {
	atomic.AddInt64(&m.TickCount, 1)
	atomic.AddInt64(&m.TotalTickNs, ns)
}

func (m *RoomMetrics) Ticks() int64 { return atomic.LoadInt64(&m.TickCount) }

// Snapshot 返回只读副本，便于 HTTP 输出
func (m *RoomMetrics) Snapshot() map[string]any {
	tick := atomic.LoadInt64(&m.TickCount)
	total := atomic.LoadInt64(&m.TotalTickNs)
	var avgMs float64
	if tick > 0 {
		avgMs = float64(total) / float64(tick) / 1e6
	}
	return map[string]any{
		"tick_count":     tick,
		"inputs_applied": atomic.LoadInt64(&m.InputsApplied),
		"bullets_fired":  atomic.LoadInt64(&m.BulletsFired),
		"hits":           atomic.LoadInt64(&m.Hits),
		"frames_dropped": atomic.LoadInt64(&m.FramesDropped),
		"avg_tick_ms":    avgMs,
	}
}

// 进程级计数：会话与协议错误和具体房间无关
var (
	sessionsOpened int64
	sessionsClosed int64
	protocolErrors int64
)

func incSessionsOpened() { atomic.AddInt64(&sessionsOpened, 1) }
func incSessionsClosed() { atomic.AddInt64(&sessionsClosed, 1) }
func incProtocolErrors() { atomic.AddInt64(&protocolErrors, 1) }

// ServerSnapshot 进程级指标快照
func ServerSnapshot(reg *Registry) map[string]any {
	opened := atomic.LoadInt64(&sessionsOpened)
	closed := atomic.LoadInt64(&sessionsClosed)
	return map[string]any{
		"rooms":           reg.RoomCount(),
		"sessions_open":   opened - closed,
		"sessions_total":  opened,
		"protocol_errors": atomic.LoadInt64(&protocolErrors),
	}
}
