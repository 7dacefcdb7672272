//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_delivery.go -package=mocks
package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"im-core/domain"
)

type IDeliveryStore interface {
	Apply(envelope domain.MessageEnvelope) (bool, error)
	Timeline(conversationID string, afterSeq int64) ([]domain.MessageEnvelope, error)
	Inbox(userID, conversationID string, afterSeq int64) ([]domain.MessageEnvelope, error)
}

// Store materializes broker envelopes into per-conversation timelines
// and, for fanout messages, per-recipient inbox rows.
//
// Keys are padded to 19 digits so lexicographic iteration follows the
// sequence order:
//
//	dedupe:{message_id}                      applied marker
//	log:{conversation}:{seq}                 timeline entry (JSON envelope)
//	inbox:{user}:{conversation}:{seq}        message id reference
type Store struct {
	db    *badger.DB
	log   *slog.Logger
	limit *int
}

func NewStore(db *badger.DB, log *slog.Logger, limit *int) Store {
	return Store{db: db, log: log, limit: limit}
}

func dedupeKey(messageID string) []byte {
	return []byte(fmt.Sprintf("dedupe:%s", messageID))
}

func logKey(conversationID string, seq int64) []byte {
	return []byte(fmt.Sprintf("log:%s:%019d", conversationID, seq))
}

func inboxKey(userID, conversationID string, seq int64) []byte {
	return []byte(fmt.Sprintf("inbox:%s:%s:%019d", userID, conversationID, seq))
}

// Apply records one envelope. The timeline row is written for every
// message; inbox rows only when the envelope carries recipients. A
// message id seen before is skipped entirely, so broker redeliveries
// are harmless. Returns false for such duplicates.
func (s Store) Apply(envelope domain.MessageEnvelope) (bool, error) {
	applied := false
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(dedupeKey(envelope.MessageID))
		if err == nil {
			s.log.Debug("Duplicate delivery skipped", "message_id", envelope.MessageID)
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		bytes, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		if err := txn.Set(logKey(envelope.ConversationID, envelope.Seq), bytes); err != nil {
			return err
		}
		for _, userID := range envelope.RecipientIDs {
			key := inboxKey(userID, envelope.ConversationID, envelope.Seq)
			if err := txn.Set(key, []byte(envelope.MessageID)); err != nil {
				return err
			}
		}
		if err := txn.Set(dedupeKey(envelope.MessageID), []byte{1}); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied, err
}

// Timeline returns the conversation log strictly after afterSeq, in
// sequence order, up to the configured limit.
func (s Store) Timeline(conversationID string, afterSeq int64) ([]domain.MessageEnvelope, error) {
	prefix := []byte(fmt.Sprintf("log:%s:", conversationID))
	seek := logKey(conversationID, afterSeq+1)

	var envelopes []domain.MessageEnvelope
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if s.limit != nil && len(envelopes) == *s.limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				var envelope domain.MessageEnvelope
				if err := json.Unmarshal(value, &envelope); err != nil {
					return err
				}
				envelopes = append(envelopes, envelope)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return envelopes, nil
}

// Inbox returns the fanout rows for one user in one conversation after
// afterSeq, resolved against the timeline within the same view.
func (s Store) Inbox(userID, conversationID string, afterSeq int64) ([]domain.MessageEnvelope, error) {
	prefix := []byte(fmt.Sprintf("inbox:%s:%s:", userID, conversationID))
	seek := inboxKey(userID, conversationID, afterSeq+1)
	prefixLen := len(prefix)

	var envelopes []domain.MessageEnvelope
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if s.limit != nil && len(envelopes) == *s.limit {
				break
			}
			// The inbox key carries the padded sequence; the value only
			// references the message. Resolve through the timeline row.
			seqPart := string(it.Item().Key()[prefixLen:])
			entry, err := txn.Get([]byte(fmt.Sprintf("log:%s:%s", conversationID, seqPart)))
			if err != nil {
				return err
			}
			err = entry.Value(func(value []byte) error {
				var envelope domain.MessageEnvelope
				if err := json.Unmarshal(value, &envelope); err != nil {
					return err
				}
				envelopes = append(envelopes, envelope)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return envelopes, nil
}
