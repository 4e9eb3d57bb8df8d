package server

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 旁观是只读的，放开来源即可
		return true
	},
}

// handleWatch 旁观接入：GET /watch?room=r1
// 升级为 WebSocket 后挂到房间上，收到和玩家完全相同的广播帧
func (o *Observer) handleWatch(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("room")
	if name == "" {
		http.Error(w, "missing room query", http.StatusBadRequest)
		return
	}
	room := o.reg.Find(name)
	if room == nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Log.Warnf("watch upgrade: %v", err)
		return
	}

	wc := newWatchConn(ws)
	room.Watch(wc)
	Log.Infof("watcher attached to room %s", name)

	go wc.writePump()
	// 读协程只用来感知断开，入站数据一律丢弃
	go func() {
		defer room.Unwatch(wc)
		defer wc.Close()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// watchConn 把对局帧转写为 WebSocket 文本消息的只读连接
// 结构与玩家侧的 connWriter 相同：缓冲队列 + 写泵，慢旁观者丢帧
type watchConn struct {
	ws        *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

func newWatchConn(ws *websocket.Conn) *watchConn {
	return &watchConn{
		ws:   ws,
		send: make(chan []byte, 64),
		done: make(chan struct{}),
	}
}

func (w *watchConn) Enqueue(b []byte) bool {
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

func (w *watchConn) Send(b []byte) error {
	select {
	case w.send <- b:
		return nil
	case <-w.done:
		return net.ErrClosed
	}
}

func (w *watchConn) writePump() {
	defer w.Close()
	for {
		select {
		case <-w.done:
			return
		case b := <-w.send:
			_ = w.ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := w.ws.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}
}

func (w *watchConn) Close() {
	w.closeOnce.Do(func() { close(w.done) })
	_ = w.ws.Close()
}
