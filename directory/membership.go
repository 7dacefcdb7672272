//go:generate go run go.uber.org/mock/mockgen -source=membership.go -destination=../mocks/mock_membership.go -package=mocks
// Package directory holds the delivery core's views of externally owned
// state: conversation membership, live sessions, and risk flags. The
// membership directory is consumed strictly read-only here.
package directory

import (
	"context"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"im-core/domain"
)

// MembershipDirectory is the read-only contract against the external
// service that owns conversations and memberships.
type MembershipDirectory interface {
	GetMemberCount(ctx context.Context, conversationID string) (int, error)
	GetMemberIDs(ctx context.Context, conversationID string) ([]string, error)
	IsMember(ctx context.Context, conversationID, userID string) (bool, error)
	GetConversation(ctx context.Context, conversationID string) (domain.Conversation, error)
}

const (
	memberSetPrefix    = "im:channel:members:"
	conversationPrefix = "im:channel:meta:"
)

// RedisMembership reads the membership projection the directory service
// maintains in Redis: a member set and a meta hash per conversation.
type RedisMembership struct {
	client *redis.Client
}

var _ MembershipDirectory = (*RedisMembership)(nil)

func NewRedisMembership(client *redis.Client) *RedisMembership {
	return &RedisMembership{client: client}
}

func (d *RedisMembership) GetMemberCount(ctx context.Context, conversationID string) (int, error) {
	count, err := d.client.SCard(ctx, memberSetPrefix+conversationID).Result()
	if err != nil {
		return 0, fmt.Errorf("member count for %s: %w", conversationID, err)
	}
	return int(count), nil
}

func (d *RedisMembership) GetMemberIDs(ctx context.Context, conversationID string) ([]string, error) {
	members, err := d.client.SMembers(ctx, memberSetPrefix+conversationID).Result()
	if err != nil {
		return nil, fmt.Errorf("member ids for %s: %w", conversationID, err)
	}
	return members, nil
}

func (d *RedisMembership) IsMember(ctx context.Context, conversationID, userID string) (bool, error) {
	ok, err := d.client.SIsMember(ctx, memberSetPrefix+conversationID, userID).Result()
	if err != nil {
		return false, fmt.Errorf("membership check for %s: %w", conversationID, err)
	}
	return ok, nil
}

func (d *RedisMembership) GetConversation(ctx context.Context, conversationID string) (domain.Conversation, error) {
	meta, err := d.client.HGetAll(ctx, conversationPrefix+conversationID).Result()
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("conversation meta for %s: %w", conversationID, err)
	}
	if len(meta) == 0 {
		return domain.Conversation{}, nil
	}

	count, err := d.client.SCard(ctx, memberSetPrefix+conversationID).Result()
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("conversation meta for %s: %w", conversationID, err)
	}

	return domain.Conversation{
		ID:          conversationID,
		Type:        domain.ConversationType(meta["type"]),
		Status:      domain.ConversationStatus(meta["status"]),
		OwnerID:     meta["owner_id"],
		MemberCount: int(count),
	}, nil
}
