package server

import "time"

const (
	// TicksPerSecond 对局推进频率（20 TPS，即 50ms 一帧）
	TicksPerSecond = 20
)

var tickInterval = time.Second / TicksPerSecond

// StartLoop 启动房间的对局循环；只会生效一次，且要求两名玩家均已就位
func (r *Room) StartLoop() {
	r.mu.Lock()
	if r.loopStarted || len(r.players) < RoomCapacity {
		r.mu.Unlock()
		return
	}
	r.loopStarted = true
	r.status = StatusPlaying
	r.mu.Unlock()

	go r.runLoop()
}

func (r *Room) runLoop() {
	defer close(r.doneCh)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	Log.Infof("room %s: match started", r.Name)
	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			start := time.Now()
			over := r.tick()
			r.metrics.AddTick(time.Since(start).Nanoseconds())
			if over {
				Log.Infof("room %s: match finished after %d ticks", r.Name, r.metrics.Ticks())
				return
			}
		}
	}
}

// tick 推进一帧。全程持有房间锁，对外表现为原子：
// 子弹前进 → 命中判定 → 清除 → 终局检查 → 广播
// 返回 true 表示对局已结束，循环应永久停止
func (r *Room) tick() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. 子弹前进一格
	for i := range r.bullets {
		r.bullets[i].Y += r.bullets[i].Direction
	}

	// 2. 命中判定：一颗子弹至多命中一名对方玩家，槽位靠前者优先
	for i := range r.bullets {
		b := &r.bullets[i]
		if b.hit {
			continue
		}
		for _, p := range r.players {
			if p.ID != b.Owner && p.X == b.X && p.Y == b.Y {
				p.Lives--
				b.hit = true
				r.metrics.IncHits()
				break
			}
		}
	}

	// 3. 清除命中与出界的子弹
	kept := r.bullets[:0]
	for _, b := range r.bullets {
		if !b.hit && b.Y >= 0 && b.Y <= MaxY {
			kept = append(kept, b)
		}
	}
	r.bullets = kept

	// 4. 终局检查：任一玩家生命耗尽即结算
	// 双方同帧归零按槽位顺序取第一个为败方（现行规则下本不可能发生，守住不崩）
	for _, p := range r.players {
		if p.Lives <= 0 {
			r.status = StatusFinished
			r.broadcastFinalLocked(EncodeGameOver(opponentID(p.ID)))
			return true
		}
	}

	// 5. 广播结算后的状态
	players, bullets := r.snapshotLocked()
	r.broadcastLocked(EncodeStateUpdate(players, bullets))
	return false
}
