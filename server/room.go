package server

import (
	"sync"
)

// RoomStatus 房间所处阶段
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"  // 等待第二名玩家
	StatusPlaying  RoomStatus = "playing"  // 对局进行中
	StatusFinished RoomStatus = "finished" // 已决出胜负
)

// Room 一场对局的权威状态：至多两名玩家、存活子弹与运行标志
// 所有可变字段由 mu 保护；tick 全程持锁，意图不会插进帧内任一步骤之间
type Room struct {
	Name string

	mu       sync.Mutex
	players  []*Player // 有序：创建者（1 号）在前
	bullets  []Bullet
	status   RoomStatus
	watchers map[Outbound]struct{}

	metrics *RoomMetrics

	loopStarted bool
	stopCh      chan struct{}
	doneCh      chan struct{}
	stopOnce    sync.Once
}

// NewRoom 创建空房间
func NewRoom(name string) *Room {
	return &Room{
		Name:     name,
		status:   StatusWaiting,
		watchers: make(map[Outbound]struct{}),
		metrics:  &RoomMetrics{},
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// AddPlayer 追加一名玩家；满员时不改动任何状态并返回 ErrRoomFull
func (r *Room) AddPlayer(p *Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) >= RoomCapacity {
		return ErrRoomFull
	}
	r.players = append(r.players, p)
	return nil
}

// RemovePlayer 断线时把玩家移出房间；对局循环不受影响，继续向剩下的一方广播
func (r *Room) RemovePlayer(playerID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.players {
		if p.ID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return
		}
	}
}

// ApplyInput 应用一次移动/射击意图：x 裁剪到 [0,19]，射击在玩家前方一格生成子弹
func (r *Room) ApplyInput(playerID int, action string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerByIDLocked(playerID)
	if p == nil {
		return
	}

	switch action {
	case ActionMoveLeft:
		if p.X > 0 {
			p.X--
		}
	case ActionMoveRight:
		if p.X < MaxX {
			p.X++
		}
	case ActionShoot:
		dir := p.FireDirection()
		r.bullets = append(r.bullets, Bullet{X: p.X, Y: p.Y + dir, Owner: p.ID, Direction: dir})
		r.metrics.IncBulletsFired()
	}
	r.metrics.IncInputs()
}

// BeginMatch 两人到齐后通知双方并启动对局循环
func (r *Room) BeginMatch() {
	r.mu.Lock()
	start := EncodeGameStart()
	for _, p := range r.players {
		if p.Conn != nil {
			p.Conn.Enqueue(start)
		}
	}
	r.mu.Unlock()

	r.StartLoop()
}

// Watch 挂上一个只读旁观者，此后收到和玩家一样的广播帧
func (r *Room) Watch(o Outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.watchers[o] = struct{}{}
}

// Unwatch 摘除旁观者
func (r *Room) Unwatch(o Outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watchers, o)
}

// Status 当前阶段
func (r *Room) Status() RoomStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// PlayerCount 当前在房内的玩家数
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// Metrics 本房间的运行指标
func (r *Room) Metrics() *RoomMetrics { return r.metrics }

// Stop 请求对局循环退出（幂等）
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
}

// AwaitLoop 等待对局循环退出；循环从未启动时立即返回
func (r *Room) AwaitLoop() {
	r.mu.Lock()
	started := r.loopStarted
	r.mu.Unlock()
	if started {
		<-r.doneCh
	}
}

func (r *Room) playerByIDLocked(id int) *Player {
	for _, p := range r.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// snapshotLocked 构造广播用的状态快照（持锁调用；空集合编码为 [] 而非 null）
func (r *Room) snapshotLocked() ([]PlayerState, []BulletState) {
	players := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, PlayerState{ID: p.ID, X: p.X, Y: p.Y, Lives: p.Lives})
	}
	bullets := make([]BulletState, 0, len(r.bullets))
	for _, b := range r.bullets {
		bullets = append(bullets, BulletState{X: b.X, Y: b.Y, Owner: b.Owner})
	}
	return players, bullets
}

// broadcastLocked 向双方玩家与旁观者推送一帧
// 入队非阻塞：慢连接丢帧计数，绝不拖住 tick
func (r *Room) broadcastLocked(frame []byte) {
	for _, p := range r.players {
		if p.Conn != nil && !p.Conn.Enqueue(frame) {
			r.metrics.IncFramesDropped()
		}
	}
	for w := range r.watchers {
		if !w.Enqueue(frame) {
			r.metrics.IncFramesDropped()
		}
	}
}

// broadcastFinalLocked 推送终局帧并收尾旁观连接
// 玩家连接阻塞发送（循环随即退出，不会拖累其他房间）；失败只记日志
func (r *Room) broadcastFinalLocked(frame []byte) {
	for _, p := range r.players {
		if p.Conn == nil {
			continue
		}
		if err := p.Conn.Send(frame); err != nil {
			Log.Debugf("room %s: final frame to player %d: %v", r.Name, p.ID, err)
		}
	}
	for w := range r.watchers {
		_ = w.Enqueue(frame)
		w.Close()
	}
	r.watchers = make(map[Outbound]struct{})
}
