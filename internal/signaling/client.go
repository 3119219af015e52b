package signaling

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Client is one live transport session. Its connection id is allocated on
// connect and never reused; userId is unknown until the first join event
// supplies it and is only touched from the server loop.
type Client struct {
	id     string
	conn   *websocket.Conn
	srv    *SignalServer
	log    *log.Logger
	userId int
	send   chan *ServerEvent
	stop   chan struct{}

	stopOnce sync.Once
}

func NewClient(id string, conn *websocket.Conn, srv *SignalServer, l *log.Logger) *Client {
	return &Client{
		id:   id,
		conn: conn,
		srv:  srv,
		log:  l,
		send: make(chan *ServerEvent, 256),
		stop: make(chan struct{}),
	}
}

// Id returns the client's connection id.
func (c *Client) Id() string {
	return c.id
}

func (c *Client) Write() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}

			bytes, err := json.Marshal(ev)
			if err != nil {
				c.log.Println("failed to serialize event:", err)
				continue
			}

			if !c.writeMessage(websocket.TextMessage, bytes) {
				return
			}
		case <-c.stop:
			return
		case <-ticker.C:
			if !c.writeMessage(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *Client) Read() {
	defer func() {
		c.conn.Close()
		c.srv.Deregister(c)
		c.stopClient()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				c.log.Printf("ws: read: %v", err)
			}
			break
		}

		var ev ClientEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			c.log.Printf("conn %s: error parsing event: %v", c.id, err)
			continue
		}

		// Malformed events are dropped here so they never reach the
		// server loop or affect another connection.
		if err := ev.Validate(); err != nil {
			c.log.Printf("conn %s: dropping event: %v", c.id, err)
			continue
		}

		ev.client = c
		c.srv.Dispatch(&ev)
	}
}

// queueEvent delivers an event to the client's write pump without blocking.
// A full send buffer drops the event, matching the relay's best-effort
// semantics.
func (c *Client) queueEvent(ev *ServerEvent) bool {
	select {
	case c.send <- ev:
	default:
		c.log.Printf("conn %s: send buffer full, dropping event", c.id)
		return false
	}

	return true
}

func (c *Client) writeMessage(msgType int, msg []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if err := c.conn.WriteMessage(msgType, msg); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			c.log.Printf("write message: %s", err)
		}
		return false
	}

	return true
}

func (c *Client) stopClient() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}
