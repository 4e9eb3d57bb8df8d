package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newObserverServer(t *testing.T) (*Registry, *httptest.Server) {
	t.Helper()
	reg := NewRegistry()
	ts := httptest.NewServer(NewObserver(reg).Routes())
	t.Cleanup(ts.Close)
	t.Cleanup(reg.Stop)
	return reg, ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// TestObserverHealthz 健康检查
func TestObserverHealthz(t *testing.T) {
	_, ts := newObserverServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// TestObserverRooms 房间列表快照
func TestObserverRooms(t *testing.T) {
	reg, ts := newObserverServer(t)

	var infos []RoomInfo
	getJSON(t, ts.URL+"/rooms", &infos)
	assert.Empty(t, infos)

	reg.Create("r1", "A", &fakeConn{})
	getJSON(t, ts.URL+"/rooms", &infos)
	require.Len(t, infos, 1)
	assert.Equal(t, RoomInfo{Name: "r1", Players: 1, Status: StatusWaiting}, infos[0])
}

// TestObserverMetrics 进程级与房间级指标
func TestObserverMetrics(t *testing.T) {
	reg, ts := newObserverServer(t)
	room, _ := reg.Create("r1", "A", &fakeConn{})
	room.ApplyInput(1, ActionShoot)

	var proc map[string]any
	getJSON(t, ts.URL+"/metrics", &proc)
	assert.EqualValues(t, 1, proc["rooms"])

	var payload struct {
		Room    string         `json:"room"`
		Metrics map[string]any `json:"metrics"`
	}
	getJSON(t, ts.URL+"/metrics?room=r1", &payload)
	assert.Equal(t, "r1", payload.Room)
	assert.EqualValues(t, 1, payload.Metrics["bullets_fired"])
	assert.EqualValues(t, 1, payload.Metrics["inputs_applied"])

	resp := getJSON(t, ts.URL+"/metrics?room=missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestObserverWatch 旁观 WebSocket 收到与玩家一致的对局帧
func TestObserverWatch(t *testing.T) {
	reg, ts := newObserverServer(t)
	room, _ := reg.Create("r1", "A", &fakeConn{})
	_, _, err := reg.Join("r1", "B", &fakeConn{})
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/watch?room=r1"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()

	room.BeginMatch()

	_ = ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, frame, err := ws.ReadMessage()
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(frame, &m))
	assert.Equal(t, TypeStateUpdate, m["type"])
}

// TestObserverWatchErrors 缺参数 400，查无此房 404
func TestObserverWatchErrors(t *testing.T) {
	_, ts := newObserverServer(t)

	resp, err := http.Get(ts.URL + "/watch")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/watch?room=nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
