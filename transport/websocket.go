// Package transport adapts websockets to the frame-based protocol. The
// wire format is one JSON object per websocket text message; the state
// machine never sees websocket details.
package transport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"im-core/domain"
	imerrors "im-core/errors"
)

const (
	writeWait     = 10 * time.Second
	pingPeriod    = 30 * time.Second
	maxFrameBytes = 64 << 10
	sendBuffer    = 128
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Origin policy is enforced upstream by the edge proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Upgrade promotes an HTTP request to a websocket.
func Upgrade(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return upgrader.Upgrade(w, r, nil)
}

// wireFrame is the JSON envelope of one websocket message.
type wireFrame struct {
	Cmd  uint16          `json:"cmd"`
	Corr uint64          `json:"corr,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

// WSConn coordinates outbound writes via a buffered channel and decodes
// inbound messages into frames. It is safe for concurrent use.
type WSConn struct {
	ws  *websocket.Conn
	log *slog.Logger

	frames chan domain.Frame
	send   chan domain.Frame
	once   sync.Once
	closed chan struct{}
}

func NewWSConn(ws *websocket.Conn, log *slog.Logger) *WSConn {
	return &WSConn{
		ws:     ws,
		log:    log,
		frames: make(chan domain.Frame, 16),
		send:   make(chan domain.Frame, sendBuffer),
		closed: make(chan struct{}),
	}
}

// Start launches the read and write loops. It must be called exactly
// once per connection.
func (c *WSConn) Start() {
	go c.writeLoop()
	go c.readLoop()
}

// Frames is the inbound side. The channel closes when the peer goes
// away or the connection is closed locally.
func (c *WSConn) Frames() <-chan domain.Frame {
	return c.frames
}

// WriteFrame enqueues a frame for delivery. If the client is slow and
// the buffer is full, the connection is closed to keep backpressure
// bounded.
func (c *WSConn) WriteFrame(frame domain.Frame) error {
	select {
	case <-c.closed:
		return imerrors.ErrConnectionClosed
	case c.send <- frame:
		return nil
	default:
		c.log.Warn("Send buffer full, dropping connection")
		_ = c.Close()
		return imerrors.ErrConnectionClosed
	}
}

// Close terminates the connection and stops both loops. Idempotent.
func (c *WSConn) Close() error {
	c.once.Do(func() {
		close(c.closed)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
	return nil
}

func (c *WSConn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case frame := <-c.send:
			if err := c.writeFrame(frame); err != nil {
				c.log.Debug("Write failed", "err", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				_ = c.Close()
				return
			}
		}
	}
}

// readLoop decodes inbound messages until the websocket dies, then
// closes the frames channel so the connection worker sees the peer
// gone. Undecodable messages drop the connection: the protocol has no
// in-band way to complain about framing.
func (c *WSConn) readLoop() {
	defer close(c.frames)
	c.ws.SetReadLimit(maxFrameBytes)

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.log.Debug("Read failed", "err", err)
			}
			return
		}
		var wire wireFrame
		if err := json.Unmarshal(payload, &wire); err != nil {
			c.log.Warn("Undecodable frame", "err", err)
			_ = c.Close()
			return
		}
		frame := domain.Frame{
			Command:       domain.Command(wire.Cmd),
			CorrelationID: wire.Corr,
			Body:          []byte(wire.Body),
		}
		select {
		case c.frames <- frame:
		case <-c.closed:
			return
		}
	}
}

func (c *WSConn) writeFrame(frame domain.Frame) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	payload, err := json.Marshal(wireFrame{
		Cmd:  uint16(frame.Command),
		Corr: frame.CorrelationID,
		Body: json.RawMessage(frame.Body),
	})
	if err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *WSConn) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
