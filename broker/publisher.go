//go:generate go run go.uber.org/mock/mockgen -source=publisher.go -destination=../mocks/mock_publisher.go -package=mocks
// Package broker is the pipeline's door to the durable queue. A publish
// either fully commits (durably enqueued, consumer visible) or the
// caller gets a typed error; ambiguity is reported, never guessed away.
package broker

import (
	"context"

	"im-core/domain"
)

// TaskMessagePublish is the task type delivery consumers subscribe to.
const TaskMessagePublish = "im:message:publish"

// DefaultTopic is the queue messages land on unless routed elsewhere.
const DefaultTopic = "im_push"

// Publisher enqueues one envelope exactly once per idempotency key.
// A nil return means committed — including the case where the same key
// was already committed by an earlier attempt, so retrying a send with
// the same message id is safe.
type Publisher interface {
	Publish(ctx context.Context, topic string, envelope domain.MessageEnvelope, idempotencyKey string) error
}
