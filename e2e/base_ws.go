package e2e

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

// wsFrame mirrors the gateway wire format: one JSON object per
// websocket text message.
type wsFrame struct {
	Cmd  uint16          `json:"cmd"`
	Corr uint64          `json:"corr,omitempty"`
	Body json.RawMessage `json:"body,omitempty"`
}

type BaseWSSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseWSSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.GatewayAddr == "" {
		s.T().Skip("GATEWAY_ADDR not set, skipping end-to-end suite")
	}
}

// Dial opens a websocket to the gateway with a colorized step header.
func (s *BaseWSSuite) Dial(name string) *websocket.Conn {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	url := fmt.Sprintf("ws://%s/ws", s.Config.GatewayAddr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err, "Failed to reach gateway at %s", url)
	return conn
}

// SendFrame marshals body and writes one frame.
func (s *BaseWSSuite) SendFrame(conn *websocket.Conn, cmd uint16, corr uint64, body any) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	frame := wsFrame{Cmd: cmd, Corr: corr, Body: payload}
	raw, err := json.Marshal(frame)
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Logf(">> %s", raw)
	}
	s.Require().NoError(conn.WriteMessage(websocket.TextMessage, raw))
}

// ReadFrame reads the next frame within the deadline.
func (s *BaseWSSuite) ReadFrame(conn *websocket.Conn, timeout time.Duration) wsFrame {
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(timeout)))
	_, raw, err := conn.ReadMessage()
	s.Require().NoError(err)
	if s.Config.DebugJSON {
		s.T().Logf("<< %s", raw)
	}
	var frame wsFrame
	s.Require().NoError(json.Unmarshal(raw, &frame))
	return frame
}
