package server

import (
	"errors"
	"sync"
)

// 注册表层的业务结果，由会话层翻译成 ROOM_FULL / ROOM_NOT_FOUND 回包
var (
	ErrRoomFull     = errors.New("room is full")
	ErrRoomNotFound = errors.New("room not found")
)

// Registry 进程级的房间注册表
// 用有序切片而不是 map：CREATE_ROOM 不拒绝重名（与线协议一致），
// JOIN_ROOM 线性扫描命中名字相同的最早一间。房间建成后不回收。
type Registry struct {
	mu    sync.RWMutex
	rooms []*Room
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{}
}

// Create 新建房间并把创建者绑定为 1 号玩家；总是成功，重名只记 Warn
func (g *Registry) Create(roomName, playerName string, conn Outbound) (*Room, *Player) {
	room := NewRoom(roomName)
	p := NewPlayer(1, playerName, conn)
	_ = room.AddPlayer(p)

	g.mu.Lock()
	dup := g.findLocked(roomName) != nil
	g.rooms = append(g.rooms, room)
	g.mu.Unlock()

	if dup {
		Log.Warnf("duplicate room name %q; JOIN_ROOM binds the oldest one", roomName)
	}
	Log.Infof("room %s created by %s", roomName, playerName)
	return room, p
}

// Join 把玩家放进名字匹配的第一间房
// 满员返回 ErrRoomFull，查无此房返回 ErrRoomNotFound，两种情况都不改动任何状态
func (g *Registry) Join(roomName, playerName string, conn Outbound) (*Room, *Player, error) {
	g.mu.RLock()
	room := g.findLocked(roomName)
	g.mu.RUnlock()

	if room == nil {
		return nil, nil, ErrRoomNotFound
	}

	p := NewPlayer(2, playerName, conn)
	if err := room.AddPlayer(p); err != nil {
		return nil, nil, err
	}

	Log.Infof("player %s joined room %s", playerName, roomName)
	return room, p, nil
}

// Find 按名字取第一间匹配的房间，供观察接口使用
func (g *Registry) Find(roomName string) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.findLocked(roomName)
}

// RoomInfo 观察接口用的房间摘要
type RoomInfo struct {
	Name    string     `json:"name"`
	Players int        `json:"players"`
	Status  RoomStatus `json:"status"`
}

// Rooms 注册表快照
func (g *Registry) Rooms() []RoomInfo {
	g.mu.RLock()
	defer g.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(g.rooms))
	for _, r := range g.rooms {
		infos = append(infos, RoomInfo{Name: r.Name, Players: r.PlayerCount(), Status: r.Status()})
	}
	return infos
}

// RoomCount 当前注册的房间数
func (g *Registry) RoomCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

// Stop 让所有对局循环退出并逐一等待，供进程收尾时调用
func (g *Registry) Stop() {
	g.mu.RLock()
	rooms := make([]*Room, len(g.rooms))
	copy(rooms, g.rooms)
	g.mu.RUnlock()

	for _, r := range rooms {
		r.Stop()
	}
	for _, r := range rooms {
		r.AwaitLoop()
	}
	Log.Info("registry stopped")
}

func (g *Registry) findLocked(name string) *Room {
	for _, r := range g.rooms {
		if r.Name == name {
			return r
		}
	}
	return nil
}
