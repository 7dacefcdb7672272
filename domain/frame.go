package domain

// Command identifies the kind of an inbound frame. The delivery core
// interprets AUTH and HEARTBEAT; everything else is forwarded down the
// per-connection pipeline untouched.
type Command uint16

const (
	CmdAuth        Command = 1
	CmdHeartbeat   Command = 2
	CmdSendMessage Command = 3
)

// Frame is one inbound or outbound protocol unit. Wire framing is the
// transport adapter's problem; here the body is opaque bytes.
type Frame struct {
	Command       Command
	CorrelationID uint64
	Body          []byte
}

// Control reports whether the frame is handled by the state machine
// itself rather than forwarded.
func (f Frame) Control() bool {
	return f.Command == CmdAuth || f.Command == CmdHeartbeat
}

// Reason codes carried in AUTH_FAILED replies. An authentication
// failure is always terminal for the connection attempt.
const (
	AuthReasonUserNotFound = "USER_NOT_FOUND"
	AuthReasonTokenInvalid = "TOKEN_INVALID"
	AuthReasonBanned       = "BANNED"
	AuthReasonKicked       = "KICKED"
)

// CloseReason labels why a connection was terminated.
type CloseReason string

const (
	CloseIdle     CloseReason = "idle"
	CloseKicked   CloseReason = "kicked"
	CloseBanned   CloseReason = "banned"
	CloseClient   CloseReason = "client-initiated"
	CloseReplaced CloseReason = "replaced"
	CloseProtocol CloseReason = "protocol"
	CloseAuth     CloseReason = "auth-failed"
	CloseShutdown CloseReason = "server-shutdown"
)

// AuthRequest is the decoded body of an AUTH frame.
type AuthRequest struct {
	Token      string `json:"token"`
	DeviceID   string `json:"device_id"`
	DeviceType string `json:"device_type,omitempty"`
}

// AuthResponse is the body of the AUTH reply. Message carries "OK" on
// success or one of the reason codes above.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

// HeartbeatResponse acknowledges a HEARTBEAT with the server clock. It
// is a liveness probe only and is unordered with respect to
// application messages.
type HeartbeatResponse struct {
	Timestamp int64  `json:"timestamp"`
	Message   string `json:"message"`
}
