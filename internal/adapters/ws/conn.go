package ws

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/studyhive/studyhive/internal/core"
)

const (
	writeWait = 10 * time.Second
	pongWait  = 60 * time.Second
	sendDepth = 64
)

// netConn is an indirection over *websocket.Conn to ease testing.
type netConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetWriteDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPongHandler(h func(string) error)
	Close() error
}

// wsConn adapts a websocket connection to core.Conn. Frames are queued on a
// buffered channel; a full buffer fails the send instead of blocking the
// fan-out path. The channel is never closed: fan-out goroutines may still be
// inside TrySend when the connection dies, so Close only flips a flag and
// closes the socket, and the write pump exits on its own.
type wsConn struct {
	conn netConn
	send chan core.Frame

	mu     sync.Mutex
	closed bool
}

func newWSConn(conn netConn) *wsConn {
	return &wsConn{
		conn: conn,
		send: make(chan core.Frame, sendDepth),
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	_ = c.conn.Close()
}

// writePump drains the send queue to the network and keeps the connection
// alive with periodic pings. It exits when the context is canceled or the
// socket dies; queued frames left behind are dropped with the connection.
func (c *wsConn) writePump(ctx context.Context, pingPeriod time.Duration) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Debug().Err(err).Str("module", "adapters.ws").Msg("write failed")
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
