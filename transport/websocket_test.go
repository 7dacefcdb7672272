package transport

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"im-core/domain"
)

// echoServer upgrades each request and echoes every decoded frame back
// through the write side, exercising both loops.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrade(w, r)
		require.NoError(t, err)
		conn := NewWSConn(ws, slog.Default())
		conn.Start()
		go func() {
			for frame := range conn.Frames() {
				if err := conn.WriteFrame(frame); err != nil {
					return
				}
			}
			_ = conn.Close()
		}()
	}))
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return client
}

func TestWSConn_RoundTrip(t *testing.T) {
	req := require.New(t)
	server := echoServer(t)
	defer server.Close()

	client := dial(t, server)
	defer client.Close()

	err := client.WriteMessage(websocket.TextMessage,
		[]byte(`{"cmd":2,"corr":7,"body":{"ping":true}}`))
	req.NoError(err)

	req.NoError(client.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, payload, err := client.ReadMessage()
	req.NoError(err)
	req.JSONEq(`{"cmd":2,"corr":7,"body":{"ping":true}}`, string(payload))
}

func TestWSConn_FramesCloseWhenPeerLeaves(t *testing.T) {
	req := require.New(t)

	framesClosed := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrade(w, r)
		require.NoError(t, err)
		conn := NewWSConn(ws, slog.Default())
		conn.Start()
		go func() {
			for range conn.Frames() {
			}
			close(framesClosed)
		}()
	}))
	defer server.Close()

	client := dial(t, server)
	req.NoError(client.Close())

	select {
	case <-framesClosed:
	case <-time.After(2 * time.Second):
		req.Fail("frames channel should close when the peer disconnects")
	}
}

func TestWSConn_UndecodableFrameDropsConnection(t *testing.T) {
	req := require.New(t)
	server := echoServer(t)
	defer server.Close()

	client := dial(t, server)
	defer client.Close()

	req.NoError(client.WriteMessage(websocket.TextMessage, []byte("{not json")))

	req.NoError(client.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, _, err := client.ReadMessage()
	req.Error(err)
}

func TestWSConn_FrameBodyIsPassedThrough(t *testing.T) {
	req := require.New(t)

	received := make(chan domain.Frame, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := Upgrade(w, r)
		require.NoError(t, err)
		conn := NewWSConn(ws, slog.Default())
		conn.Start()
		go func() {
			for frame := range conn.Frames() {
				received <- frame
			}
		}()
	}))
	defer server.Close()

	client := dial(t, server)
	defer client.Close()

	err := client.WriteMessage(websocket.TextMessage,
		[]byte(`{"cmd":3,"corr":11,"body":{"conversation_id":"conv-1","type":"text","body":"hi"}}`))
	req.NoError(err)

	select {
	case frame := <-received:
		req.Equal(domain.CmdSendMessage, frame.Command)
		req.Equal(uint64(11), frame.CorrelationID)
		req.JSONEq(`{"conversation_id":"conv-1","type":"text","body":"hi"}`, string(frame.Body))
	case <-time.After(2 * time.Second):
		req.Fail("frame should have been decoded")
	}
}
