package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"im-core/broker"
	"im-core/domain"
)

// Consumer materializes published envelopes from the task queue.
type Consumer struct {
	store IDeliveryStore
	log   *slog.Logger
}

func NewConsumer(store IDeliveryStore, log *slog.Logger) *Consumer {
	return &Consumer{store: store, log: log}
}

// Register binds the handler to the task mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(broker.TaskMessagePublish, c.HandleMessagePublish)
}

// HandleMessagePublish applies one envelope to the delivery store.
// Redelivered tasks resolve as duplicates and succeed, so the queue can
// retry freely without double-applying.
func (c *Consumer) HandleMessagePublish(ctx context.Context, task *asynq.Task) error {
	var envelope domain.MessageEnvelope
	if err := json.Unmarshal(task.Payload(), &envelope); err != nil {
		// Malformed payloads never become valid; retrying is pointless.
		return fmt.Errorf("unmarshal envelope: %w: %w", err, asynq.SkipRetry)
	}

	applied, err := c.store.Apply(envelope)
	if err != nil {
		return fmt.Errorf("apply %s: %w", envelope.MessageID, err)
	}
	if !applied {
		c.log.Debug("Envelope already applied", "message_id", envelope.MessageID)
		return nil
	}

	c.log.Info("Message delivered",
		"message_id", envelope.MessageID,
		"conversation_id", envelope.ConversationID,
		"seq", envelope.Seq,
		"mode", envelope.DeliveryMode,
		"recipients", len(envelope.RecipientIDs),
	)
	return nil
}
