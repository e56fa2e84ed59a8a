package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messenger-service/internal/models"
	"messenger-service/internal/observability"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufSize    = 64
)

// Client wraps one websocket connection. All writes go through the buffered
// send channel so broadcasts never block on a slow peer.
type Client struct {
	userID int
	conn   *websocket.Conn
	send   chan []byte
	info   ConnInfo

	closeOnce sync.Once
	closed    chan struct{}
}

func newClient(userID int, conn *websocket.Conn, info ConnInfo) *Client {
	return &Client{
		userID: userID,
		conn:   conn,
		send:   make(chan []byte, sendBufSize),
		info:   info,
		closed: make(chan struct{}),
	}
}

// UserID returns the authenticated identity bound at the handshake.
func (c *Client) UserID() int { return c.userID }

// Info returns handshake metadata for observability.
func (c *Client) Info() ConnInfo { return c.info }

// Send marshals the event and enqueues it. A full buffer drops the
// connection; the client will reconnect and refetch over REST.
func (c *Client) Send(event models.ServerEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("marshal server event %q: %v", event.Event, err)
		return
	}
	select {
	case c.send <- payload:
	case <-c.closed:
	default:
		log.Printf("send buffer full, dropping connection conn_id=%s user=%d", c.info.ConnID, c.userID)
		observability.IncWSEvent("realtime", "ws_slow_consumer")
		c.close()
	}
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Printf("websocket write error: %v", err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

// readPump reads client frames and hands them to dispatch. It returns the
// close reason once the connection dies.
func (c *Client) readPump(dispatch func(models.ClientEvent)) string {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ""
			}
			return err.Error()
		}

		var event models.ClientEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			c.Send(models.ServerEvent{Event: models.EvError, Data: models.ErrorPayload{Code: "validation_failure", Message: "malformed event frame"}})
			continue
		}
		dispatch(event)
	}
}
