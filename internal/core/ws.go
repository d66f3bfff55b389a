package core

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"zcatch-server/internal/dao"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

const (
	wsReadDeadline  = 60 * time.Second
	wsWriteDeadline = 10 * time.Second
	wsPingPeriod    = 30 * time.Second
)

func HandleWebSocket(c *gin.Context) {
	roomID := c.Query("room_id")
	token := c.Query("token")
	name := c.Query("name")

	if roomID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "room_id required"})
		return
	}

	// 在升级连接前通过 Redis 校验 room token 是否匹配该 room_id
	if ok, err := dao.ValidateRoomToken(context.Background(), roomID, token); err != nil {
		log.Println("redis error:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	} else if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "invalid room token"})
		return
	}

	room := CreateRoom(roomID)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Upgrade failed:", err)
		return
	}
	defer ws.Close()

	playerConn := &WebSocketConn{Conn: ws}
	id, err := room.RequestJoin(name, playerConn)
	if err != nil {
		playerConn.Send(ServerMessage{Type: MsgError, Text: err.Error()})
		return
	}
	defer room.RequestLeave(id)

	playerConn.Send(ServerMessage{Type: MsgWelcome, PlayerID: id, Text: "Welcome to zCatch, room " + roomID})

	ws.SetReadDeadline(time.Now().Add(wsReadDeadline))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	pingTicker := time.NewTicker(wsPingPeriod)
	defer pingTicker.Stop()

	messageChan := make(chan []byte)
	doneChan := make(chan bool)
	stopChan := make(chan struct{})
	defer close(stopChan)

	go func() {
		defer close(doneChan)
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			select {
			case messageChan <- data:
			case <-stopChan:
				return
			}
		}
	}()

	for {
		select {
		case <-pingTicker.C:
			if err := playerConn.Ping(); err != nil {
				log.Println("Ping error:", err)
				return
			}

		case data := <-messageChan:
			ws.SetReadDeadline(time.Now().Add(wsReadDeadline))

			var msg ClientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			if cmd, ok := msg.Command(id); ok {
				cmd.Conn = playerConn
				room.Submit(cmd)
			}

		case <-doneChan:
			return
		}
	}
}
