package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"im-core/domain"
	imerrors "im-core/errors"
	"im-core/mocks"
	"im-core/sequence"
)

func textRequest(conversationID string) domain.SendRequest {
	return domain.SendRequest{
		ConversationID: conversationID,
		Type:           domain.MessageText,
		Content:        "hi",
	}
}

func TestMessageService_Send_Fanout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()

	members := mocks.NewMockMembershipDirectory(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	allocator := sequence.NewAllocator(sequence.NewMemoryStore())
	svc := NewMessageService(slog.Default(), members, allocator, publisher)

	// Two sequence numbers were already handed out for this conversation.
	_, err := allocator.Next(ctx, "conv-3")
	req.NoError(err)
	priorSeq, err := allocator.Next(ctx, "conv-3")
	req.NoError(err)

	members.EXPECT().IsMember(gomock.Any(), "conv-3", "alice").Return(true, nil)
	members.EXPECT().GetConversation(gomock.Any(), "conv-3").Return(domain.Conversation{
		ID:          "conv-3",
		Type:        domain.ConversationGroup,
		Status:      domain.ConversationActive,
		MemberCount: 3,
	}, nil)
	members.EXPECT().GetMemberIDs(gomock.Any(), "conv-3").Return([]string{"alice", "bob", "clara"}, nil)

	var published domain.MessageEnvelope
	publisher.EXPECT().
		Publish(gomock.Any(), "im_push", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, envelope domain.MessageEnvelope, key string) error {
			published = envelope
			require.Equal(t, envelope.MessageID, key)
			return nil
		})

	messageID, err := svc.Send(ctx, "alice", textRequest("conv-3"))
	req.NoError(err)
	req.NotEmpty(messageID)

	req.Equal(domain.DeliveryFanout, published.DeliveryMode)
	req.ElementsMatch([]string{"bob", "clara"}, published.RecipientIDs)
	req.NotContains(published.RecipientIDs, "alice")
	req.Equal(priorSeq+1, published.Seq)
	req.Equal("hi", published.Body)
	req.Equal(messageID, published.MessageID)
}

func TestMessageService_Send_Pull(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()

	members := mocks.NewMockMembershipDirectory(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	allocator := sequence.NewAllocator(sequence.NewMemoryStore())
	svc := NewMessageService(slog.Default(), members, allocator, publisher)

	members.EXPECT().IsMember(gomock.Any(), "conv-600", "alice").Return(true, nil)
	members.EXPECT().GetConversation(gomock.Any(), "conv-600").Return(domain.Conversation{
		ID:          "conv-600",
		Type:        domain.ConversationGroup,
		Status:      domain.ConversationActive,
		MemberCount: 600,
	}, nil)
	// Read diffusion: no member list resolution, no recipient ids.

	var published domain.MessageEnvelope
	publisher.EXPECT().
		Publish(gomock.Any(), "im_push", gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, envelope domain.MessageEnvelope, _ string) error {
			published = envelope
			return nil
		})

	_, err := svc.Send(ctx, "alice", textRequest("conv-600"))
	req.NoError(err)

	req.Equal(domain.DeliveryPull, published.DeliveryMode)
	req.Empty(published.RecipientIDs)
	req.Equal(int64(1), published.Seq)
}

func TestMessageService_Send_NonMember(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()

	members := mocks.NewMockMembershipDirectory(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	store := sequence.NewMemoryStore()
	allocator := sequence.NewAllocator(store)
	svc := NewMessageService(slog.Default(), members, allocator, publisher)

	members.EXPECT().IsMember(gomock.Any(), "conv-3", "mallory").Return(false, nil)
	// Neither the conversation lookup nor the publish may happen.
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Send(ctx, "mallory", textRequest("conv-3"))
	req.ErrorIs(err, imerrors.ErrNotAMember)

	// No seq was allocated for the rejected send.
	current, err := allocator.Current(ctx, "conv-3")
	req.NoError(err)
	req.Zero(current)
}

func TestMessageService_Send_ConversationUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()

	members := mocks.NewMockMembershipDirectory(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	svc := NewMessageService(slog.Default(), members, sequence.NewAllocator(sequence.NewMemoryStore()), publisher)

	t.Run("should fail when the conversation does not exist", func(t *testing.T) {
		members.EXPECT().IsMember(gomock.Any(), "ghost", "alice").Return(true, nil)
		members.EXPECT().GetConversation(gomock.Any(), "ghost").Return(domain.Conversation{}, nil)

		_, err := svc.Send(ctx, "alice", textRequest("ghost"))
		require.ErrorIs(t, err, imerrors.ErrConversationUnavailable)
	})

	t.Run("should fail when the conversation is dissolved", func(t *testing.T) {
		members.EXPECT().IsMember(gomock.Any(), "conv-9", "alice").Return(true, nil)
		members.EXPECT().GetConversation(gomock.Any(), "conv-9").Return(domain.Conversation{
			ID:     "conv-9",
			Status: domain.ConversationDissolved,
		}, nil)

		_, err := svc.Send(ctx, "alice", textRequest("conv-9"))
		require.ErrorIs(t, err, imerrors.ErrConversationUnavailable)
	})

	req.NotNil(svc)
}

func TestMessageService_Send_CounterStoreDown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()

	members := mocks.NewMockMembershipDirectory(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	store := mocks.NewMockCounterStore(ctrl)
	svc := NewMessageService(slog.Default(), members, sequence.NewAllocator(store), publisher)

	members.EXPECT().IsMember(gomock.Any(), "conv-3", "alice").Return(true, nil)
	members.EXPECT().GetConversation(gomock.Any(), "conv-3").Return(domain.Conversation{
		ID:          "conv-3",
		Status:      domain.ConversationActive,
		MemberCount: 3,
	}, nil)
	store.EXPECT().Increment(gomock.Any(), gomock.Any()).Return(int64(0), context.DeadlineExceeded)
	// The send aborts instead of fabricating a sequence number.
	publisher.EXPECT().Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Send(ctx, "alice", textRequest("conv-3"))
	req.ErrorIs(err, imerrors.ErrCounterStoreUnavailable)
}

func TestMessageService_Send_PublishFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)
	ctx := context.Background()

	members := mocks.NewMockMembershipDirectory(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	svc := NewMessageService(slog.Default(), members, sequence.NewAllocator(sequence.NewMemoryStore()), publisher)

	members.EXPECT().IsMember(gomock.Any(), "conv-3", "alice").Return(true, nil)
	members.EXPECT().GetConversation(gomock.Any(), "conv-3").Return(domain.Conversation{
		ID:          "conv-3",
		Status:      domain.ConversationActive,
		MemberCount: 2,
	}, nil)
	members.EXPECT().GetMemberIDs(gomock.Any(), "conv-3").Return([]string{"alice", "bob"}, nil)
	publisher.EXPECT().
		Publish(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(imerrors.ErrPublishFailed)

	_, err := svc.Send(ctx, "alice", textRequest("conv-3"))
	req.ErrorIs(err, imerrors.ErrPublishFailed)
}

func TestMessageService_Send_InvalidRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	req := require.New(t)

	members := mocks.NewMockMembershipDirectory(ctrl)
	publisher := mocks.NewMockPublisher(ctrl)
	svc := NewMessageService(slog.Default(), members, sequence.NewAllocator(sequence.NewMemoryStore()), publisher)

	invalid := []domain.SendRequest{
		{Type: domain.MessageText, Content: "hi"},                       // missing conversation
		{ConversationID: "conv-1", Type: "bogus", Content: "hi"},        // unknown type
		{ConversationID: "conv-1", Type: domain.MessageText},            // empty content
		{ConversationID: "conv-1", Type: domain.MessageText, Content: lo.RandomString(8193, lo.LettersCharset)},
	}
	for _, request := range invalid {
		_, err := svc.Send(context.Background(), "alice", request)
		req.ErrorIs(err, imerrors.ErrInvalidSendRequest)
	}
}
