package core

// 服务端下发的消息类型
const (
	MsgWelcome   = "welcome"
	MsgBroadcast = "broadcast"
	MsgChat      = "chat"
	MsgError     = "error"
)

type ServerMessage struct {
	Type     string   `json:"type"`
	Text     string   `json:"text,omitempty"`
	PlayerID PlayerID `json:"player_id,omitempty"`
	Tick     int64    `json:"tick,omitempty"`
}

// ClientMessage is what the client (or the physics frontend acting for it) reports.
type ClientMessage struct {
	Type     string  `json:"type"` // hit, shot, aim, kill, chat, team
	Victim   int     `json:"victim,omitempty"`
	Wallshot bool    `json:"wallshot,omitempty"`
	Failed   bool    `json:"failed,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Text     string  `json:"text,omitempty"`
	Team     int     `json:"team,omitempty"`
}

type CommandKind int

const (
	CmdHit CommandKind = iota
	CmdShot
	CmdAim
	CmdSuicide
	CmdChat
	CmdTeam
)

// Command 由连接 goroutine 投递给房间循环
type Command struct {
	Player   PlayerID
	Kind     CommandKind
	Target   PlayerID
	Wallshot bool
	Failed   bool
	X, Y     float64
	Text     string
	Team     int

	// Conn is the sending connection, nil for commands from inside the server
	Conn *WebSocketConn
}

// Command converts the message for player id. ok is false for unknown types.
func (m ClientMessage) Command(id PlayerID) (Command, bool) {
	cmd := Command{Player: id}
	switch m.Type {
	case "hit":
		cmd.Kind = CmdHit
		cmd.Target = PlayerID(m.Victim)
		cmd.Wallshot = m.Wallshot
	case "shot":
		cmd.Kind = CmdShot
		cmd.Failed = m.Failed
	case "aim":
		cmd.Kind = CmdAim
		cmd.X, cmd.Y = m.X, m.Y
	case "kill":
		cmd.Kind = CmdSuicide
	case "chat":
		cmd.Kind = CmdChat
		cmd.Text = m.Text
	case "team":
		cmd.Kind = CmdTeam
		cmd.Team = m.Team
	default:
		return Command{}, false
	}
	return cmd, true
}
