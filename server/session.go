package server

import (
	"errors"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session 绑定一条客户端连接的服务端执行上下文
// 状态走向：未入房 → 建房等待对手 / 入房 → 对局 → 关闭
// 入房之后收到的 INPUT 一律转给房间，服务端信任已绑定连接的全部意图
type Session struct {
	id   string // 仅用于日志定位，远端地址在 NAT 后可能重复
	conn net.Conn
	out  *connWriter
	reg  *Registry

	room   *Room
	player *Player
}

// NewSession 包装一条已接受的连接
func NewSession(conn net.Conn, reg *Registry) *Session {
	return &Session{
		id:   uuid.NewString(),
		conn: conn,
		reg:  reg,
		out:  newConnWriter(conn),
	}
}

// Run 会话主循环：逐行读入 → 解码 → 分发；读失败即视为断线
// 退出时把自己的玩家从房间摘除，不再通知留下的对手（对局继续）
func (s *Session) Run() {
	defer s.close()
	go s.out.run()

	sc := NewLineScanner(s.conn)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		msg, err := DecodeClientLine(line)
		if err != nil {
			// 坏行只丢本行，不回包，连接继续
			incProtocolErrors()
			Log.Debugf("session %s: %v", s.id, err)
			continue
		}
		if msg == nil {
			// 未知 type，按协议静默忽略
			continue
		}
		s.dispatch(msg)
	}
	if err := sc.Err(); err != nil {
		Log.Infof("session %s: connection lost: %v", s.id, err)
	}
}

func (s *Session) dispatch(msg ClientMessage) {
	switch m := msg.(type) {
	case CreateRoomMsg:
		if s.room != nil {
			return // 已绑定房间的连接不再建房
		}
		s.room, s.player = s.reg.Create(m.Room, m.Name, s.out)
		s.reply(EncodeRoomCreated(s.player.ID))

	case JoinRoomMsg:
		if s.room != nil {
			return
		}
		room, p, err := s.reg.Join(m.Room, m.Name, s.out)
		switch {
		case errors.Is(err, ErrRoomNotFound):
			s.reply(EncodeRoomNotFound())
		case errors.Is(err, ErrRoomFull):
			s.reply(EncodeRoomFull())
		case err == nil:
			s.room, s.player = room, p
			// 先回 ROOM_JOINED，再让房间向双方广播 GAME_START 并开转
			s.reply(EncodeRoomJoined(p.ID))
			room.BeginMatch()
		}

	case InputMsg:
		if s.room == nil {
			return
		}
		s.room.ApplyInput(s.player.ID, m.Action)
	}
}

func (s *Session) reply(frame []byte) {
	if err := s.out.Send(frame); err != nil {
		Log.Debugf("session %s: reply: %v", s.id, err)
	}
}

func (s *Session) close() {
	if s.room != nil {
		s.room.RemovePlayer(s.player.ID)
		Log.Infof("session %s: player %d left room %s", s.id, s.player.ID, s.room.Name)
	}
	s.out.Close()
}

// connWriter 串行化一条连接上的全部写出
// 独立写协程 + 缓冲队列：对局循环永远不会被慢客户端的 socket 卡住
type connWriter struct {
	conn      net.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newConnWriter(conn net.Conn) *connWriter {
	return &connWriter{
		conn: conn,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

// Enqueue 非阻塞入队；队列满或连接已关时丢帧并返回 false
func (w *connWriter) Enqueue(b []byte) bool {
	select {
	case <-w.done:
		return false
	default:
	}
	select {
	case w.send <- b:
		return true
	default:
		return false
	}
}

// Send 阻塞入队，用于回包与终局帧这类必须送达的消息
func (w *connWriter) Send(b []byte) error {
	select {
	case w.send <- b:
		return nil
	case <-w.done:
		return net.ErrClosed
	}
}

// run 写泵：从队列写出到连接；写失败即收尾，读端会随之发现断线
func (w *connWriter) run() {
	defer w.Close()
	for {
		select {
		case <-w.done:
			return
		case b := <-w.send:
			_ = w.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if _, err := w.conn.Write(b); err != nil {
				return
			}
		}
	}
}

// Close 关闭发送端与底层连接（幂等）
func (w *connWriter) Close() {
	w.closeOnce.Do(func() { close(w.done) })
	_ = w.conn.Close()
}
