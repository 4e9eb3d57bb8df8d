package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
)

// GameServer 监听游戏端口，为每条 TCP 连接启动一个会话协程
// 会话被登记在案：Close 能掐断所有连接并等到它们全部退出
type GameServer struct {
	reg *Registry

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}

	wg     sync.WaitGroup
	closed atomic.Bool
}

// NewGameServer 创建游戏服务
func NewGameServer(reg *Registry) *GameServer {
	return &GameServer{
		reg:   reg,
		conns: make(map[net.Conn]struct{}),
	}
}

// Listen 在 addr 上监听并进入接受循环；阻塞直到 Close 或监听出错
func (gs *GameServer) Listen(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	gs.mu.Lock()
	gs.listener = ln
	gs.mu.Unlock()

	Log.Infof("game server listening on %s", addr)
	return gs.serve(ln)
}

func (gs *GameServer) serve(ln net.Listener) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if gs.closed.Load() {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		if tc, ok := conn.(*net.TCPConn); ok {
			// 和原服务一致：关 Nagle，压低输入到广播的时延
			_ = tc.SetNoDelay(true)
		}
		Log.Infof("client connected: %s", conn.RemoteAddr())
		incSessionsOpened()

		gs.track(conn)
		gs.wg.Add(1)
		go func(c net.Conn) {
			defer gs.wg.Done()
			defer gs.untrack(c)
			defer incSessionsClosed()
			NewSession(c, gs.reg).Run()
		}(conn)
	}
}

// Close 停止监听，掐断所有在线连接并等待会话退出
func (gs *GameServer) Close() {
	gs.closed.Store(true)

	gs.mu.Lock()
	if gs.listener != nil {
		_ = gs.listener.Close()
	}
	for c := range gs.conns {
		_ = c.Close()
	}
	gs.mu.Unlock()

	gs.wg.Wait()
	Log.Info("game server closed")
}

func (gs *GameServer) track(c net.Conn) {
	gs.mu.Lock()
	gs.conns[c] = struct{}{}
	gs.mu.Unlock()
}

func (gs *GameServer) untrack(c net.Conn) {
	gs.mu.Lock()
	delete(gs.conns, c)
	gs.mu.Unlock()
}
