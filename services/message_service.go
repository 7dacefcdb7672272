//go:generate go run go.uber.org/mock/mockgen -source=message_service.go -destination=../mocks/mock_message_service.go -package=mocks
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"im-core/broker"
	"im-core/directory"
	"im-core/domain"
	imerrors "im-core/errors"
	"im-core/sequence"
)

type IMessageService interface {
	Send(ctx context.Context, senderID string, req domain.SendRequest) (string, error)
}

var validate = validator.New()

// MessageService is the publication pipeline: it authorizes the sender,
// assigns the message its identity and order, picks the delivery mode,
// and hands the envelope to the durable broker exactly once.
type MessageService struct {
	log       *slog.Logger
	members   directory.MembershipDirectory
	allocator *sequence.Allocator
	publisher broker.Publisher
	topic     string
}

func NewMessageService(
	log *slog.Logger,
	members directory.MembershipDirectory,
	allocator *sequence.Allocator,
	publisher broker.Publisher,
) *MessageService {
	return &MessageService{
		log:       log,
		members:   members,
		allocator: allocator,
		publisher: publisher,
		topic:     broker.DefaultTopic,
	}
}

// Send pushes one logical message into the publication pipeline and
// returns its globally unique id.
//
// The seq allocation always happens before the publish; a failure after
// it leaves a gap in the conversation's sequence, which is acceptable.
// A duplicate seq is not, so the allocator is never bypassed. Retrying
// a failed send with the same message id is the caller's job and is
// collapsed downstream by the idempotency key.
func (s *MessageService) Send(ctx context.Context, senderID string, req domain.SendRequest) (string, error) {
	if err := validate.Struct(req); err != nil {
		return "", fmt.Errorf("%w: %v", imerrors.ErrInvalidSendRequest, err)
	}

	// 1. Authorization: only active members may send.
	member, err := s.members.IsMember(ctx, req.ConversationID, senderID)
	if err != nil {
		return "", fmt.Errorf("membership check: %w", err)
	}
	if !member {
		return "", fmt.Errorf("%w: user %s in conversation %s", imerrors.ErrNotAMember, senderID, req.ConversationID)
	}

	// 2. The conversation must exist and be active.
	conversation, err := s.members.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return "", fmt.Errorf("conversation lookup: %w", err)
	}
	if conversation.ID == "" || !conversation.Active() {
		return "", fmt.Errorf("%w: %s", imerrors.ErrConversationUnavailable, req.ConversationID)
	}

	// 3. Identity and order. UUIDv7 is time-sortable, so message ids
	// double as a coarse global ordering the way snowflake ids did.
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("message id: %w", err)
	}
	messageID := id.String()

	seq, err := s.allocator.Next(ctx, req.ConversationID)
	if err != nil {
		// Never fabricate a sequence number: abort the send.
		return "", err
	}

	// 4. Delivery mode from the membership size at this instant.
	envelope := domain.MessageEnvelope{
		MessageID:      messageID,
		ConversationID: req.ConversationID,
		SenderID:       senderID,
		Seq:            seq,
		Type:           req.Type,
		Body:           req.Content,
		ReplyTo:        req.ReplyTo,
		Mentions:       req.Mentions,
		CreatedAt:      time.Now().UTC(),
		DeliveryMode:   domain.SelectDeliveryMode(conversation.MemberCount),
	}
	if envelope.DeliveryMode == domain.DeliveryFanout {
		memberIDs, err := s.members.GetMemberIDs(ctx, req.ConversationID)
		if err != nil {
			return "", fmt.Errorf("recipient resolution: %w", err)
		}
		envelope.RecipientIDs = lo.Without(memberIDs, senderID)
	}

	// 5. Exactly-once publish keyed by the message id. From here the
	// send is in motion: it completes or surfaces a typed error.
	if err := s.publisher.Publish(ctx, s.topic, envelope, messageID); err != nil {
		return "", err
	}

	s.log.Info("Message sent",
		"message_id", messageID,
		"conversation_id", req.ConversationID,
		"sender_id", senderID,
		"seq", seq,
		"mode", envelope.DeliveryMode,
	)
	return messageID, nil
}
