package core

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocketConn struct {
	Conn *websocket.Conn
	mu   sync.Mutex
}

func (c *WebSocketConn) Send(msg ServerMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// WriteJSON 不是线程安全的，所以需要加锁
	c.Conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	c.Conn.WriteJSON(msg)
}

func (c *WebSocketConn) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	return c.Conn.WriteMessage(websocket.PingMessage, nil)
}

// Notifier 消息通知 (broadcast line / chat)，发送即忘
type Notifier interface {
	Notify(id PlayerID, text string)
	Chat(text string)
}

// connNotifier writes to the players' websocket connections.
type connNotifier struct {
	room *Room
}

func (n connNotifier) Notify(id PlayerID, text string) {
	if p := n.room.Resolve(id); p != nil && p.Conn != nil {
		p.Conn.Send(ServerMessage{Type: MsgBroadcast, Text: text})
	}
}

func (n connNotifier) Chat(text string) {
	for _, p := range n.room.Players {
		if p.Conn != nil {
			p.Conn.Send(ServerMessage{Type: MsgChat, Text: text})
		}
	}
}
