// Package runtime implements the per-connection protocol state machine.
// One Conn exists per live transport; it owns that connection's state
// exclusively and shares nothing with other connections except the
// session directory and the risk directory.
package runtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"im-core/auth"
	"im-core/directory"
	"im-core/domain"
)

type State uint8

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	case StateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// maxProtocolViolations bounds how many malformed or out-of-state
// frames a peer may send before the connection is forced closed.
const maxProtocolViolations = 5

// Binding is the (user, device) pair to register in the session
// directory once authentication succeeds.
type Binding struct {
	UserID   string
	DeviceID string
}

// Transition is the outcome of handling one frame: replies to write,
// an optional frame to forward down the pipeline, an optional session
// binding to apply, and an optional close. The worker applies the side
// effects; the handler itself only decides them.
type Transition struct {
	Replies    []domain.Frame
	Forward    *domain.Frame
	Bind       *Binding
	Close      domain.CloseReason // empty while the connection stays open
	AuthReason string             // reason code when an AUTH attempt was rejected
}

// Conn is the protocol state machine for a single connection.
// It is driven by exactly one worker goroutine and is not safe for
// concurrent use; cross-goroutine triggers (kick, idle) go through the
// worker's mailbox, never through Conn directly.
type Conn struct {
	id         string
	state      State
	identity   auth.Identity
	violations int

	verifier auth.CredentialVerifier
	devMode  *auth.DevModeVerifier
	risk     directory.RiskDirectory
	now      func() time.Time
	log      *slog.Logger
}

// Option tweaks a Conn at construction.
type Option func(*Conn)

// WithDevMode enables the development identity bypass. Never set in
// production; the flag that wires it defaults to off.
func WithDevMode(v *auth.DevModeVerifier) Option {
	return func(c *Conn) { c.devMode = v }
}

// WithClock substitutes the server clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Conn) { c.now = now }
}

func NewConn(id string, verifier auth.CredentialVerifier, risk directory.RiskDirectory, log *slog.Logger, opts ...Option) *Conn {
	c := &Conn{
		id:       id,
		state:    StateUnauthenticated,
		verifier: verifier,
		risk:     risk,
		now:      time.Now,
		log:      log.With("conn_id", id),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Conn) ID() string { return c.id }

func (c *Conn) State() State { return c.state }

// Identity returns the bound identity, zero until authenticated.
func (c *Conn) Identity() auth.Identity { return c.identity }

// MarkClosed makes the terminal transition. Safe to call repeatedly.
func (c *Conn) MarkClosed() {
	c.state = StateClosed
}

// Handle dispatches one inbound frame against the current state.
func (c *Conn) Handle(ctx context.Context, frame domain.Frame) Transition {
	switch {
	case c.state == StateClosed:
		// Terminal: late frames are dropped.
		return Transition{}
	case frame.Command == domain.CmdAuth:
		if c.state == StateAuthenticated {
			// AUTH is no longer routed here once authenticated; pass it
			// along like any other application frame.
			return Transition{Forward: &frame}
		}
		return c.handleAuth(ctx, frame)
	case frame.Command == domain.CmdHeartbeat:
		if c.state != StateAuthenticated {
			return c.violation("heartbeat before auth")
		}
		return c.handleHeartbeat(frame)
	default:
		if c.state != StateAuthenticated {
			return c.violation("application frame before auth")
		}
		return Transition{Forward: &frame}
	}
}

// handleAuth runs the handshake: credential check, identity resolution,
// risk checks, then the session binding. Every failure path closes the
// connection; the client must reconnect to retry.
func (c *Conn) handleAuth(ctx context.Context, frame domain.Frame) Transition {
	var request domain.AuthRequest
	if err := json.Unmarshal(frame.Body, &request); err != nil {
		c.log.Warn("Unparseable AUTH body", "err", err)
		return c.rejectAuth(frame, domain.AuthReasonUserNotFound)
	}

	identity, reason := c.resolveIdentity(request)
	if reason != "" {
		return c.rejectAuth(frame, reason)
	}

	// Device id from the token wins; the client's claim is a fallback.
	if identity.DeviceID == "" {
		identity.DeviceID = request.DeviceID
	}

	banned, err := c.risk.IsBanned(ctx, identity.UserID)
	if err != nil {
		c.log.Error("Risk directory unreachable during handshake", "err", err)
		return Transition{Close: domain.CloseProtocol}
	}
	if banned {
		return c.rejectAuth(frame, domain.AuthReasonBanned)
	}

	if identity.DeviceID != "" {
		kicked, err := c.risk.IsKicked(ctx, identity.UserID, identity.DeviceID)
		if err != nil {
			c.log.Error("Risk directory unreachable during handshake", "err", err)
			return Transition{Close: domain.CloseProtocol}
		}
		if kicked {
			return c.rejectAuth(frame, domain.AuthReasonKicked)
		}
	}

	c.state = StateAuthenticated
	c.identity = identity
	c.log.Info("Authentication succeeded", "user_id", identity.UserID, "device_id", identity.DeviceID)

	return Transition{
		Replies: []domain.Frame{authReply(frame, domain.AuthResponse{
			Success: true,
			Message: "OK",
			UserID:  identity.UserID,
		})},
		Bind: &Binding{UserID: identity.UserID, DeviceID: identity.DeviceID},
	}
}

// resolveIdentity picks the verification path and maps its failures to
// AUTH_FAILED reason codes.
func (c *Conn) resolveIdentity(request domain.AuthRequest) (auth.Identity, string) {
	if c.devMode != nil {
		identity, err := c.devMode.VerifyDevice(request.Token, request.DeviceID)
		if err != nil {
			if request.Token == "" {
				return auth.Identity{}, domain.AuthReasonUserNotFound
			}
			return auth.Identity{}, domain.AuthReasonTokenInvalid
		}
		return identity, ""
	}

	if request.Token == "" {
		return auth.Identity{}, domain.AuthReasonUserNotFound
	}
	identity, err := c.verifier.Verify(request.Token)
	if err != nil {
		c.log.Warn("Token rejected", "err", err)
		return auth.Identity{}, domain.AuthReasonTokenInvalid
	}
	if identity.UserID == "" {
		return auth.Identity{}, domain.AuthReasonUserNotFound
	}
	return identity, ""
}

func (c *Conn) rejectAuth(frame domain.Frame, reason string) Transition {
	c.log.Warn("Authentication rejected", "reason", reason)
	return Transition{
		Replies:    []domain.Frame{authReply(frame, domain.AuthResponse{Success: false, Message: reason})},
		Close:      domain.CloseAuth,
		AuthReason: reason,
	}
}

func (c *Conn) handleHeartbeat(frame domain.Frame) Transition {
	body, _ := json.Marshal(domain.HeartbeatResponse{
		Timestamp: c.now().UnixMilli(),
		Message:   "PONG",
	})
	return Transition{Replies: []domain.Frame{{
		Command:       domain.CmdHeartbeat,
		CorrelationID: frame.CorrelationID,
		Body:          body,
	}}}
}

// violation rejects a frame without tearing the connection down, until
// the peer exhausts the allowance.
func (c *Conn) violation(detail string) Transition {
	c.violations++
	c.log.Debug("Protocol violation", "detail", detail, "count", c.violations)
	if c.violations >= maxProtocolViolations {
		c.log.Warn("Too many protocol violations, closing", "count", c.violations)
		return Transition{Close: domain.CloseProtocol}
	}
	return Transition{}
}

func authReply(request domain.Frame, response domain.AuthResponse) domain.Frame {
	body, _ := json.Marshal(response)
	return domain.Frame{
		Command:       domain.CmdAuth,
		CorrelationID: request.CorrelationID,
		Body:          body,
	}
}
