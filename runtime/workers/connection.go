package workers

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"im-core/directory"
	"im-core/domain"
	"im-core/observability"
	"im-core/runtime"
	"im-core/sink"
)

// FrameTransport is the write side of whatever carries the frames.
type FrameTransport interface {
	WriteFrame(frame domain.Frame) error
	Close() error
}

// ConnWorker drives one connection's state machine. It owns the
// connection's mailboxes (inbound frames, forced-close triggers, idle
// timer) and is the only goroutine touching the Conn. Forced closes
// from other goroutines (kick, ban, replacement) arrive through
// Terminate and are serialized here.
type ConnWorker struct {
	conn      *runtime.Conn
	sessions  directory.SessionDirectory
	transport FrameTransport
	monitor   *observability.Monitor
	log       *slog.Logger

	frames      <-chan domain.Frame
	forced      chan domain.CloseReason
	forward     chan<- sink.Inbound
	idleTimeout time.Duration

	closeOnce sync.Once
}

var _ directory.Handle = (*ConnWorker)(nil)

func NewConnWorker(
	conn *runtime.Conn,
	sessions directory.SessionDirectory,
	transport FrameTransport,
	frames <-chan domain.Frame,
	forward chan<- sink.Inbound,
	idleTimeout time.Duration,
	monitor *observability.Monitor,
	log *slog.Logger,
) *ConnWorker {
	return &ConnWorker{
		conn:        conn,
		sessions:    sessions,
		transport:   transport,
		monitor:     monitor,
		log:         log.With("conn_id", conn.ID()),
		frames:      frames,
		forced:      make(chan domain.CloseReason, 1),
		forward:     forward,
		idleTimeout: idleTimeout,
	}
}

func (w *ConnWorker) ID() string { return w.conn.ID() }

// Terminate requests an asynchronous close. It never blocks: if a
// close is already pending the extra trigger is dropped, which is what
// makes racing idle/kick/replace closes collapse into one.
func (w *ConnWorker) Terminate(reason domain.CloseReason) {
	select {
	case w.forced <- reason:
	default:
	}
}

// Run is the per-connection event loop. The idle timer supervises
// inbound traffic only: any frame resets it, outbound writes do not.
func (w *ConnWorker) Run(ctx context.Context) error {
	w.monitor.ConnectionOpened()
	idle := time.NewTimer(w.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			w.shutdown(domain.CloseShutdown)
			return nil
		case reason := <-w.forced:
			w.shutdown(reason)
			return nil
		case <-idle.C:
			w.log.Warn("Read-idle timeout, closing", "timeout", w.idleTimeout)
			w.shutdown(domain.CloseIdle)
			return nil
		case frame, ok := <-w.frames:
			if !ok {
				// Transport read loop ended: peer went away.
				w.shutdown(domain.CloseClient)
				return nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(w.idleTimeout)

			if done := w.apply(ctx, w.conn.Handle(ctx, frame)); done {
				return nil
			}
		}
	}
}

// apply executes the side effects a transition decided on. Returns true
// when the connection is finished.
func (w *ConnWorker) apply(ctx context.Context, transition runtime.Transition) bool {
	for _, reply := range transition.Replies {
		if err := w.transport.WriteFrame(reply); err != nil {
			w.log.Debug("Reply write failed", "err", err)
			w.shutdown(domain.CloseClient)
			return true
		}
	}

	if transition.Bind != nil {
		if err := w.sessions.Bind(ctx, transition.Bind.UserID, transition.Bind.DeviceID, w); err != nil {
			w.log.Error("Session bind failed", "err", err)
			w.shutdown(domain.CloseProtocol)
			return true
		}
		w.monitor.AuthSucceeded(transition.Bind.UserID, transition.Bind.DeviceID)
	}

	if transition.AuthReason != "" {
		w.monitor.AuthRejected(transition.AuthReason)
	}

	if transition.Forward != nil {
		item := sink.Inbound{
			SenderID: w.conn.Identity().UserID,
			Frame:    *transition.Forward,
			Reply:    w.transport.WriteFrame,
		}
		select {
		case w.forward <- item:
		case <-ctx.Done():
			w.shutdown(domain.CloseShutdown)
			return true
		}
	}

	if transition.Close != "" {
		w.shutdown(transition.Close)
		return true
	}
	return false
}

// shutdown is the single terminal path: unbind, mark closed, close the
// transport, record the event. Racing triggers (idle vs kick vs
// replace) all funnel here and only the first one does the work.
func (w *ConnWorker) shutdown(reason domain.CloseReason) {
	w.closeOnce.Do(func() {
		w.conn.MarkClosed()
		// The parent context may already be canceled; unbinding must
		// still reach the directory.
		if err := w.sessions.Unbind(context.Background(), w); err != nil {
			w.log.Error("Session unbind failed", "err", err)
		}
		if err := w.transport.Close(); err != nil {
			w.log.Debug("Transport close", "err", err)
		}
		w.monitor.ConnectionClosed(string(reason))
		w.log.Info("Connection closed", "reason", reason, "state", w.conn.State())
	})
}
