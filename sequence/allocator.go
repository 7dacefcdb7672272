//go:generate go run go.uber.org/mock/mockgen -source=allocator.go -destination=../mocks/mock_sequence.go -package=mocks
// Package sequence issues strictly increasing integers per conversation.
// The backing store's atomic increment is the sole serialization point
// for a conversation's ordering; an in-process lock would not survive
// horizontal scaling, so the store lives outside the process.
package sequence

import (
	"context"
	"fmt"

	imerrors "im-core/errors"
)

// CounterStore is the shared atomic-increment store. All three calls
// must be safe under arbitrary concurrent callers across the fleet.
type CounterStore interface {
	Increment(ctx context.Context, key string) (int64, error)
	SetIfAbsent(ctx context.Context, key string, value int64) (bool, error)
	Get(ctx context.Context, key string) (int64, error)
}

const seqKeyPrefix = "im:channel:seq:"

// Allocator hands out per-conversation sequence numbers. Two concurrent
// Next calls for the same conversation never return the same value;
// nothing stronger (no causal order between racing senders) is promised.
type Allocator struct {
	store CounterStore
}

func NewAllocator(store CounterStore) *Allocator {
	return &Allocator{store: store}
}

// Next atomically increments the conversation counter and returns the
// new value. A store failure is retryable and must never be skipped:
// skipping risks either a duplicate or a needless gap.
func (a *Allocator) Next(ctx context.Context, conversationID string) (int64, error) {
	seq, err := a.store.Increment(ctx, seqKeyPrefix+conversationID)
	if err != nil {
		return 0, fmt.Errorf("%w: next seq for %s: %v", imerrors.ErrCounterStoreUnavailable, conversationID, err)
	}
	return seq, nil
}

// Current returns the counter without advancing it, 0 if uninitialized.
func (a *Allocator) Current(ctx context.Context, conversationID string) (int64, error) {
	seq, err := a.store.Get(ctx, seqKeyPrefix+conversationID)
	if err != nil {
		return 0, fmt.Errorf("%w: current seq for %s: %v", imerrors.ErrCounterStoreUnavailable, conversationID, err)
	}
	return seq, nil
}

// Init sets the counter only if absent. Calling it again, or after the
// counter advanced, is a no-op.
func (a *Allocator) Init(ctx context.Context, conversationID string, start int64) error {
	if _, err := a.store.SetIfAbsent(ctx, seqKeyPrefix+conversationID, start); err != nil {
		return fmt.Errorf("%w: init seq for %s: %v", imerrors.ErrCounterStoreUnavailable, conversationID, err)
	}
	return nil
}
