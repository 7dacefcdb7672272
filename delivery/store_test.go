package delivery

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"

	"im-core/domain"
)

func openStore(t *testing.T, limit *int) Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewStore(db, slog.Default(), limit)
}

func envelope(messageID string, seq int64, recipients ...string) domain.MessageEnvelope {
	mode := domain.DeliveryPull
	if len(recipients) > 0 {
		mode = domain.DeliveryFanout
	}
	return domain.MessageEnvelope{
		MessageID:      messageID,
		ConversationID: "conv-1",
		SenderID:       "alice",
		Seq:            seq,
		Type:           domain.MessageText,
		Body:           "hello",
		CreatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		DeliveryMode:   mode,
		RecipientIDs:   recipients,
	}
}

func Test_Apply_And_Read_Timeline(t *testing.T) {
	req := require.New(t)
	store := openStore(t, nil)

	for seq := int64(1); seq <= 5; seq++ {
		applied, err := store.Apply(envelope(lo.RandomString(12, lo.LettersCharset), seq))
		req.NoError(err)
		req.True(applied)
	}

	all, err := store.Timeline("conv-1", 0)
	req.NoError(err)
	req.Len(all, 5)
	req.Equal(lo.Map(all, func(e domain.MessageEnvelope, _ int) int64 { return e.Seq }),
		[]int64{1, 2, 3, 4, 5})

	tail, err := store.Timeline("conv-1", 3)
	req.NoError(err)
	req.Len(tail, 2)
	req.Equal(int64(4), tail[0].Seq)
	req.Equal(int64(5), tail[1].Seq)
}

func Test_Apply_Is_Idempotent(t *testing.T) {
	req := require.New(t)
	store := openStore(t, nil)

	first := envelope("msg-1", 1, "bob", "clara")
	applied, err := store.Apply(first)
	req.NoError(err)
	req.True(applied)

	// A broker redelivery carries the same message id.
	applied, err = store.Apply(first)
	req.NoError(err)
	req.False(applied)

	timeline, err := store.Timeline("conv-1", 0)
	req.NoError(err)
	req.Len(timeline, 1)

	inbox, err := store.Inbox("bob", "conv-1", 0)
	req.NoError(err)
	req.Len(inbox, 1)
}

func Test_Inbox_Rows_Only_For_Recipients(t *testing.T) {
	req := require.New(t)
	store := openStore(t, nil)

	_, err := store.Apply(envelope("msg-1", 1, "bob", "clara"))
	req.NoError(err)
	_, err = store.Apply(envelope("msg-2", 2))
	req.NoError(err)
	_, err = store.Apply(envelope("msg-3", 3, "bob"))
	req.NoError(err)

	bob, err := store.Inbox("bob", "conv-1", 0)
	req.NoError(err)
	req.Len(bob, 2)
	req.Equal("msg-1", bob[0].MessageID)
	req.Equal("msg-3", bob[1].MessageID)

	clara, err := store.Inbox("clara", "conv-1", 0)
	req.NoError(err)
	req.Len(clara, 1)

	// The sender never receives an inbox row; the pull message is only
	// on the timeline.
	alice, err := store.Inbox("alice", "conv-1", 0)
	req.NoError(err)
	req.Empty(alice)

	timeline, err := store.Timeline("conv-1", 0)
	req.NoError(err)
	req.Len(timeline, 3)
}

func Test_Reads_Honor_Limit(t *testing.T) {
	req := require.New(t)
	limit := 2
	store := openStore(t, &limit)

	for seq := int64(1); seq <= 4; seq++ {
		_, err := store.Apply(envelope(lo.RandomString(12, lo.LettersCharset), seq, "bob"))
		req.NoError(err)
	}

	timeline, err := store.Timeline("conv-1", 0)
	req.NoError(err)
	req.Len(timeline, limit)
	req.Equal(int64(1), timeline[0].Seq)

	inbox, err := store.Inbox("bob", "conv-1", 0)
	req.NoError(err)
	req.Len(inbox, limit)
}
