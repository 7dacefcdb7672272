package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"im-core/domain"
	imerrors "im-core/errors"
)

const (
	publishMaxRetry  = 5
	publishRetention = 24 * time.Hour
)

// AsynqPublisher implements Publisher on a Redis-backed asynq queue.
// The idempotency key becomes the task id: a second enqueue with the
// same id is rejected by the queue, which is exactly the
// already-committed answer the retry contract wants.
type AsynqPublisher struct {
	client *asynq.Client
	log    *slog.Logger
}

var _ Publisher = (*AsynqPublisher)(nil)

func NewAsynqPublisher(client *asynq.Client, log *slog.Logger) *AsynqPublisher {
	return &AsynqPublisher{client: client, log: log}
}

// NewAsynqClient builds the queue client from a Redis URL.
func NewAsynqClient(redisURL string) (*asynq.Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("asynq: parse redis url: %w", err)
	}
	return asynq.NewClient(opt), nil
}

func (p *AsynqPublisher) Publish(ctx context.Context, topic string, envelope domain.MessageEnvelope, idempotencyKey string) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("%w: encode envelope %s: %v", imerrors.ErrPublishFailed, idempotencyKey, err)
	}

	task := asynq.NewTask(TaskMessagePublish, payload)
	_, err = p.client.EnqueueContext(ctx, task,
		asynq.TaskID(idempotencyKey),
		asynq.Queue(topic),
		asynq.MaxRetry(publishMaxRetry),
		asynq.Retention(publishRetention),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		// Same idempotency key already enqueued: the earlier attempt
		// committed, so this retry already succeeded.
		p.log.Debug("Duplicate publish collapsed", "message_id", idempotencyKey)
		return nil
	}
	if err != nil {
		// Timeouts land here too: the enqueue may or may not have gone
		// through, and surfacing the ambiguity beats guessing success.
		return fmt.Errorf("%w: message %s: %v", imerrors.ErrPublishFailed, idempotencyKey, err)
	}

	p.log.Debug("Envelope published",
		"message_id", idempotencyKey,
		"conversation_id", envelope.ConversationID,
		"seq", envelope.Seq,
		"mode", envelope.DeliveryMode,
	)
	return nil
}
