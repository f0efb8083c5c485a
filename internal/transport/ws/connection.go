package ws

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/swaggyasy/tff-socket-server/internal/converter"
	"github.com/swaggyasy/tff-socket-server/internal/model"
)

var errSendQueueFull = errors.New("send queue full")

// connection adapts one websocket peer to the relay's Conn interface.
// Send only enqueues; a dedicated writer goroutine owns all writes to
// the socket, so the relay never blocks on a slow peer.
type connection struct {
	id   string
	ws   *websocket.Conn
	send chan []byte

	writeTimeout time.Duration
	pingInterval time.Duration
}

func newConnection(ws *websocket.Conn, sendBufferSize int, writeTimeout, pingInterval time.Duration) *connection {
	return &connection{
		id:           uuid.NewString(),
		ws:           ws,
		send:         make(chan []byte, sendBufferSize),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
	}
}

func (c *connection) ID() string { return c.id }

func (c *connection) Send(event model.StatusUpdateEvent) error {
	frame, err := converter.OrderUpdatedToFrame(event)
	if err != nil {
		return err
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return errSendQueueFull
	}
}

// close stops the writer goroutine. Must be called only after the
// connection is removed from the relay, so no Send can race the close.
func (c *connection) close() {
	close(c.send)
}

// writePump drains the send queue onto the socket and keeps the peer
// alive with periodic pings. It exits when the queue is closed or a
// write fails.
func (c *connection) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
