package workers

import (
	"context"
	"encoding/json"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"im-core/directory"
	"im-core/domain"
)

// RiskEventChannel is the pub/sub channel the risk service announces
// bans and kicks on.
const RiskEventChannel = "im:risk:events"

// RiskEvent is an out-of-band order to drop connections. A kick targets
// one (user, device); a ban drops every device of the user.
type RiskEvent struct {
	Type     string `json:"type"` // "kick" or "ban"
	UserID   string `json:"user_id"`
	DeviceID string `json:"device_id,omitempty"`
}

// RiskWatchWorker subscribes to risk events and forces the matching
// local connections closed. It applies regardless of connection state:
// a connection mid-handshake is dropped like any other.
type RiskWatchWorker struct {
	client   *redis.Client
	sessions *directory.Sessions
	log      *slog.Logger
}

func NewRiskWatchWorker(client *redis.Client, sessions *directory.Sessions, log *slog.Logger) *RiskWatchWorker {
	return &RiskWatchWorker{client: client, sessions: sessions, log: log}
}

func (w *RiskWatchWorker) Run(ctx context.Context) error {
	sub := w.client.Subscribe(ctx, RiskEventChannel)
	defer sub.Close()

	w.log.Info("Risk watcher subscribed", "channel", RiskEventChannel)
	messages := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case message, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			var event RiskEvent
			if err := json.Unmarshal([]byte(message.Payload), &event); err != nil {
				w.log.Warn("Unparseable risk event", "payload", message.Payload, "err", err)
				continue
			}
			w.dispatch(event)
		}
	}
}

func (w *RiskWatchWorker) dispatch(event RiskEvent) {
	switch event.Type {
	case "kick":
		if handle := w.sessions.Find(event.UserID, event.DeviceID); handle != nil {
			w.log.Info("Kicking device", "user_id", event.UserID, "device_id", event.DeviceID)
			handle.Terminate(domain.CloseKicked)
		}
	case "ban":
		handles := w.sessions.FindUser(event.UserID)
		w.log.Info("Banning user", "user_id", event.UserID, "connections", len(handles))
		for _, handle := range handles {
			handle.Terminate(domain.CloseBanned)
		}
	default:
		w.log.Warn("Unknown risk event type", "type", event.Type)
	}
}
