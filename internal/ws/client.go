package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tradingpit/tradingpit/internal/game"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// maxFrameSize bounds inbound frames; game intents are tiny.
	maxFrameSize = 4096
	sendBuffer   = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Any origin may upgrade. Browser clients connect from arbitrary hosts
	// and the protocol requires a JOIN or RECONNECT before any state change.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one websocket connection bound to a session. It satisfies
// game.Conn: Send never blocks the session actor, and a client whose
// buffer is full has its connection dropped rather than stalling the game.
type Client struct {
	session *game.Session
	conn    *websocket.Conn
	send    chan []byte
	log     *slog.Logger
}

// Send queues a frame for delivery. Called from the session actor.
func (c *Client) Send(data []byte) {
	select {
	case c.send <- data:
	default:
		c.log.Warn("send buffer full, dropping connection")
		c.conn.Close()
	}
}

// readPump decodes inbound frames into intents and dispatches them to the
// session. Frames that fail to parse are answered directly with an ERROR
// frame and never reach the actor.
func (c *Client) readPump() {
	// send is never closed: the session actor may still call Send after
	// detach is queued. writePump exits on its next failed write instead.
	defer func() {
		c.session.Detach(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read failed", slog.String("error", err.Error()))
			}
			return
		}

		intent, err := game.ParseIntent(data)
		if err != nil {
			frame, mErr := json.Marshal(game.ErrorMessage(err))
			if mErr == nil {
				c.Send(frame)
			}
			continue
		}
		c.session.Dispatch(c, intent)
	}
}

// writePump drains the send buffer onto the wire and keeps the connection
// alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Serve upgrades the request and attaches the connection to the session.
// The client immediately receives the current state snapshot.
func Serve(session *game.Session, log *slog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &Client{
		session: session,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
		log:     log.With(slog.String("remote", conn.RemoteAddr().String())),
	}
	session.Attach(client)

	go client.writePump()
	go client.readPump()
}
