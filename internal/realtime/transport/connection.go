package transport

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192
)

// DefaultSendBuffer is the per-connection outbound queue depth. A peer
// that cannot drain this many frames is considered dead.
const DefaultSendBuffer = 256

// Connection wraps one WebSocket with a buffered outbound queue. All
// writes to the socket go through WritePump so gorilla's single-writer
// rule holds.
type Connection struct {
	id       string
	userID   int64
	username string

	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

func NewConnection(conn *websocket.Conn, userID int64, username string, buffer int, logger *slog.Logger) *Connection {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Connection{
		id:       uuid.NewString(),
		userID:   userID,
		username: username,
		conn:     conn,
		send:     make(chan []byte, buffer),
		done:     make(chan struct{}),
		logger:   logger,
	}
}

func (c *Connection) ID() string       { return c.id }
func (c *Connection) UserID() int64    { return c.userID }
func (c *Connection) Username() string { return c.username }

// Done is closed once the connection is torn down.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// TrySend enqueues a frame without blocking. It reports false when the
// outbound queue is full or the connection is already closed; callers
// treat a full queue as a dead peer.
func (c *Connection) TrySend(payload []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close tears the connection down exactly once. Safe to call from any
// goroutine and from both pumps.
func (c *Connection) Close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// CloseWithCode sends a close frame before tearing down, so the peer
// sees why it was rejected.
func (c *Connection) CloseWithCode(code int, reason string) {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason))
	c.Close()
}

// ReadPump reads frames from the peer and hands each one to onMessage.
// It blocks until the peer disconnects or the connection is closed.
func (c *Connection) ReadPump(onMessage func(payload []byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.logger.Debug("websocket read failed", "conn_id", c.id, "error", err)
			}
			return
		}
		onMessage(payload)
	}
}

// WritePump drains the outbound queue onto the socket and keeps the
// peer alive with pings. Run it in its own goroutine.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
