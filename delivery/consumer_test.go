package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"im-core/broker"
)

func publishTask(t *testing.T, seq int64, messageID string, recipients ...string) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(envelope(messageID, seq, recipients...))
	require.NoError(t, err)
	return asynq.NewTask(broker.TaskMessagePublish, payload)
}

func Test_Consumer_Applies_Envelope(t *testing.T) {
	req := require.New(t)
	store := openStore(t, nil)
	consumer := NewConsumer(store, slog.Default())

	err := consumer.HandleMessagePublish(context.Background(), publishTask(t, 1, "msg-1", "bob"))
	req.NoError(err)

	timeline, err := store.Timeline("conv-1", 0)
	req.NoError(err)
	req.Len(timeline, 1)
	req.Equal("msg-1", timeline[0].MessageID)

	inbox, err := store.Inbox("bob", "conv-1", 0)
	req.NoError(err)
	req.Len(inbox, 1)
}

func Test_Consumer_Redelivery_Applies_Once(t *testing.T) {
	req := require.New(t)
	store := openStore(t, nil)
	consumer := NewConsumer(store, slog.Default())

	task := publishTask(t, 1, "msg-1", "bob")
	req.NoError(consumer.HandleMessagePublish(context.Background(), task))
	req.NoError(consumer.HandleMessagePublish(context.Background(), task))

	timeline, err := store.Timeline("conv-1", 0)
	req.NoError(err)
	req.Len(timeline, 1)

	inbox, err := store.Inbox("bob", "conv-1", 0)
	req.NoError(err)
	req.Len(inbox, 1)
}

func Test_Consumer_Rejects_Malformed_Payload(t *testing.T) {
	req := require.New(t)
	store := openStore(t, nil)
	consumer := NewConsumer(store, slog.Default())

	task := asynq.NewTask(broker.TaskMessagePublish, []byte("{not json"))
	err := consumer.HandleMessagePublish(context.Background(), task)
	req.Error(err)
	req.True(errors.Is(err, asynq.SkipRetry))
}
