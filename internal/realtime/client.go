package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 32
)

// Client is the per-connection context object. Each websocket connection
// gets exactly one Client; the hub reaches it only through the buffered send
// channel, and the client mutates room membership only through the hub.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	// rooms this client joined, maintained under the hub's lock.
	rooms map[string]bool

	closeOnce sync.Once
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		done:  make(chan struct{}),
		rooms: make(map[string]bool),
	}
}

// ServeConn runs the read loop for an upgraded connection and blocks until
// the connection dies. The write pump runs alongside it.
func (h *Hub) ServeConn(conn *websocket.Conn) {
	c := newClient(h, conn)
	go c.writePump()
	c.readPump()
}

// close unregisters the client and wakes the write pump. The send channel is
// never closed, so a broadcast racing with teardown cannot panic.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.hub.remove(c)
		close(c.done)
	})
}

// trySend queues an event without ever blocking. A full buffer means the
// write pump is wedged, so the client is dropped instead.
func (c *Client) trySend(payload []byte) {
	select {
	case <-c.done:
	case c.send <- payload:
	default:
		c.close()
	}
}

func (c *Client) sendEvent(event string, data any) {
	c.trySend(marshalEvent(event, data))
}

func (c *Client) sendError(message string) {
	c.sendEvent(EventError, errorPayload{Message: message})
}

func (c *Client) readPump() {
	defer func() {
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed", zap.Error(err))
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			c.sendError("Invalid message frame")
			continue
		}

		switch env.Event {
		case EventJoinRoom:
			var projectID string
			if err := json.Unmarshal(env.Data, &projectID); err != nil || projectID == "" {
				c.sendError("Project ID is required")
				continue
			}
			c.hub.join(c, RoomKey(projectID))

		case EventSendMessage:
			var payload SendMessagePayload
			if err := json.Unmarshal(env.Data, &payload); err != nil {
				c.sendError("Invalid message payload")
				continue
			}
			c.hub.handleSendMessage(c, payload)

		default:
			c.sendError("Unknown event")
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case payload := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
