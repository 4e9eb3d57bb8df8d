package server

// 网格与对局常量：20×20 格，坐标 0–19，双方各 3 条命
const (
	GridWidth  = 20
	GridHeight = 20
	MaxX       = GridWidth - 1
	MaxY       = GridHeight - 1

	StartLives   = 3
	RoomCapacity = 2
)

// Outbound 向单个客户端推送数据的发送端（缓冲队列 + 独立写协程）
type Outbound interface {
	// Enqueue 非阻塞入队，队列满时丢弃该帧并返回 false
	Enqueue(b []byte) bool
	// Send 阻塞入队，用于必须送达的控制类消息；连接已关闭时报错
	Send(b []byte) error
	Close()
}

// Player 房间内的玩家实体（服务端权威状态）
// x 只受移动意图影响且被裁剪到网格内，y 固定在出生行
type Player struct {
	ID    int // 1 或 2
	Name  string
	X     int
	Y     int
	Lives int

	Conn Outbound
}

// NewPlayer 按槽位生成玩家：1 号出生在底行 (10,19)，2 号在顶行 (10,0)
func NewPlayer(id int, name string, conn Outbound) *Player {
	p := &Player{ID: id, Name: name, X: GridWidth / 2, Lives: StartLives, Conn: conn}
	if id == 1 {
		p.Y = MaxY
	}
	return p
}

// FireDirection 子弹行进方向：1 号朝第 0 行，2 号朝第 19 行
func (p *Player) FireDirection() int {
	if p.ID == 1 {
		return -1
	}
	return 1
}

// Bullet 子弹：出生在主人前方一格，命中对方或飞出网格即销毁
type Bullet struct {
	X         int
	Y         int
	Owner     int
	Direction int // -1 朝第 0 行，+1 朝第 19 行

	hit bool // 本帧命中标记，结算阶段移除
}

// opponentID 两人对局里对手的编号
func opponentID(id int) int {
	if id == 1 {
		return 2
	}
	return 1
}
