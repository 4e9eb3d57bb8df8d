package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// 线协议：UTF-8 文本，一行一个 JSON 对象，以 '\n' 结尾
// 入站消息是封闭集合，解码时逐类型校验必填字段

// 消息类型标签（type 字段的取值）
const (
	TypeCreateRoom = "CREATE_ROOM"
	TypeJoinRoom   = "JOIN_ROOM"
	TypeInput      = "INPUT"

	TypeRoomCreated  = "ROOM_CREATED"
	TypeRoomJoined   = "ROOM_JOINED"
	TypeRoomFull     = "ROOM_FULL"
	TypeRoomNotFound = "ROOM_NOT_FOUND"
	TypeGameStart    = "GAME_START"
	TypeStateUpdate  = "STATE_UPDATE"
	TypeGameOver     = "GAME_OVER"
)

// 玩家意图动作
const (
	ActionMoveLeft  = "MOVE_LEFT"
	ActionMoveRight = "MOVE_RIGHT"
	ActionShoot     = "SHOOT"
)

// ProtocolError 表示一行报文不是合法消息；该行被丢弃，连接继续
type ProtocolError struct {
	Reason string
	Err    error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("protocol: %s: %v", e.Reason, e.Err)
	}
	return "protocol: " + e.Reason
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// ClientMessage 客户端入站消息的封闭集合
type ClientMessage interface{ clientMessage() }

// CreateRoomMsg 创建房间并绑定为 1 号玩家
type CreateRoomMsg struct {
	Room string
	Name string
}

// JoinRoomMsg 加入已有房间并绑定为 2 号玩家
type JoinRoomMsg struct {
	Room string
	Name string
}

// InputMsg 一次移动或射击意图
type InputMsg struct {
	Action string
}

func (CreateRoomMsg) clientMessage() {}
func (JoinRoomMsg) clientMessage()   {}
func (InputMsg) clientMessage()      {}

// DecodeClientLine 把一行文本解码为类型化消息
// 未知 type 返回 (nil, nil)，按协议静默忽略；格式问题返回 *ProtocolError
func DecodeClientLine(line []byte) (ClientMessage, error) {
	var env struct {
		Type   *string `json:"type"`
		Room   *string `json:"room"`
		Name   *string `json:"name"`
		Action *string `json:"action"`
	}
	if err := json.Unmarshal(line, &env); err != nil {
		return nil, &ProtocolError{Reason: "malformed line", Err: err}
	}
	if env.Type == nil {
		return nil, &ProtocolError{Reason: "missing type field"}
	}

	switch *env.Type {
	case TypeCreateRoom:
		if env.Room == nil || env.Name == nil {
			return nil, &ProtocolError{Reason: "CREATE_ROOM requires room and name"}
		}
		return CreateRoomMsg{Room: *env.Room, Name: *env.Name}, nil
	case TypeJoinRoom:
		if env.Room == nil || env.Name == nil {
			return nil, &ProtocolError{Reason: "JOIN_ROOM requires room and name"}
		}
		return JoinRoomMsg{Room: *env.Room, Name: *env.Name}, nil
	case TypeInput:
		if env.Action == nil {
			return nil, &ProtocolError{Reason: "INPUT requires action"}
		}
		switch *env.Action {
		case ActionMoveLeft, ActionMoveRight, ActionShoot:
			return InputMsg{Action: *env.Action}, nil
		}
		return nil, &ProtocolError{Reason: fmt.Sprintf("unknown action %q", *env.Action)}
	}
	// 未知类型不回包也不报错
	return nil, nil
}

// NewLineScanner 按 '\n' 拆分字节流，残缺的行尾字节留在缓冲里等待后续输入
func NewLineScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	return sc
}

// PlayerState 广播给客户端的玩家状态
type PlayerState struct {
	ID    int `json:"id"`
	X     int `json:"x"`
	Y     int `json:"y"`
	Lives int `json:"lives"`
}

// BulletState 广播给客户端的子弹状态
type BulletState struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Owner int `json:"owner"`
}

// encodeLine 序列化为一行完整报文（含结尾换行）
func encodeLine(v any) []byte {
	b, _ := json.Marshal(v)
	return append(b, '\n')
}

type typeOnly struct {
	Type string `json:"type"`
}

func EncodeRoomCreated(playerID int) []byte {
	return encodeLine(struct {
		Type     string `json:"type"`
		PlayerID int    `json:"player_id"`
	}{TypeRoomCreated, playerID})
}

func EncodeRoomJoined(playerID int) []byte {
	return encodeLine(struct {
		Type     string `json:"type"`
		PlayerID int    `json:"player_id"`
	}{TypeRoomJoined, playerID})
}

func EncodeRoomFull() []byte { return encodeLine(typeOnly{TypeRoomFull}) }

func EncodeRoomNotFound() []byte { return encodeLine(typeOnly{TypeRoomNotFound}) }

func EncodeGameStart() []byte { return encodeLine(typeOnly{TypeGameStart}) }

func EncodeStateUpdate(players []PlayerState, bullets []BulletState) []byte {
	return encodeLine(struct {
		Type    string        `json:"type"`
		Players []PlayerState `json:"players"`
		Bullets []BulletState `json:"bullets"`
	}{TypeStateUpdate, players, bullets})
}

func EncodeGameOver(winnerID int) []byte {
	return encodeLine(struct {
		Type     string `json:"type"`
		WinnerID int    `json:"winner_id"`
	}{TypeGameOver, winnerID})
}
