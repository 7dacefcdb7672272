package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"im-core/domain"
	imerrors "im-core/errors"
	"im-core/mocks"
)

type replyRecorder struct {
	mu     sync.Mutex
	frames []domain.Frame
}

func (r *replyRecorder) record(frame domain.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, frame)
	return nil
}

func (r *replyRecorder) last(t *testing.T) sendAck {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.frames)
	var ack sendAck
	require.NoError(t, json.Unmarshal(r.frames[len(r.frames)-1].Body, &ack))
	return ack
}

func runSink(t *testing.T, service *mocks.MockIMessageService) (chan Inbound, func()) {
	t.Helper()
	inbound := make(chan Inbound)
	s := NewMessageSink(service, inbound, time.Second, 4, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()
	return inbound, func() {
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("sink did not stop")
		}
	}
}

func sendFrame(t *testing.T) domain.Frame {
	t.Helper()
	body, err := json.Marshal(sendPayload{ConversationID: "conv-1", Type: "text", Content: "hello"})
	require.NoError(t, err)
	return domain.Frame{Command: domain.CmdSendMessage, CorrelationID: 5, Body: body}
}

func TestMessageSink_AcksSuccessfulSend(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockIMessageService(ctrl)
	service.EXPECT().
		Send(gomock.Any(), "alice", domain.SendRequest{
			ConversationID: "conv-1",
			Type:           domain.MessageText,
			Content:        "hello",
		}).
		Return("msg-1", nil)

	inbound, stop := runSink(t, service)
	defer stop()

	recorder := &replyRecorder{}
	acked := make(chan struct{})
	inbound <- Inbound{SenderID: "alice", Frame: sendFrame(t), Reply: func(frame domain.Frame) error {
		err := recorder.record(frame)
		close(acked)
		return err
	}}

	select {
	case <-acked:
	case <-time.After(time.Second):
		req.Fail("sink should have replied")
	}

	ack := recorder.last(t)
	req.True(ack.Success)
	req.Equal("msg-1", ack.MessageID)
	req.Equal(uint64(5), recorder.frames[0].CorrelationID)
	req.Equal(domain.CmdSendMessage, recorder.frames[0].Command)
}

func TestMessageSink_MapsErrorsToCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not a member", imerrors.ErrNotAMember, ackNotAMember},
		{"conversation unavailable", imerrors.ErrConversationUnavailable, ackConversationUnavailable},
		{"invalid request", imerrors.ErrInvalidSendRequest, ackInvalidRequest},
		{"counter store down", fmt.Errorf("%w: redis", imerrors.ErrCounterStoreUnavailable), ackTryAgain},
		{"publish failed", imerrors.ErrPublishFailed, ackTryAgain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			service := mocks.NewMockIMessageService(ctrl)
			service.EXPECT().
				Send(gomock.Any(), "alice", gomock.Any()).
				Return("", tt.err)

			inbound, stop := runSink(t, service)
			defer stop()

			recorder := &replyRecorder{}
			acked := make(chan struct{})
			inbound <- Inbound{SenderID: "alice", Frame: sendFrame(t), Reply: func(frame domain.Frame) error {
				err := recorder.record(frame)
				close(acked)
				return err
			}}

			select {
			case <-acked:
			case <-time.After(time.Second):
				req.Fail("sink should have replied")
			}

			ack := recorder.last(t)
			req.False(ack.Success)
			req.Equal(tt.code, ack.Error)
		})
	}
}

func TestMessageSink_SlowPublishDoesNotStallOthers(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	release := make(chan struct{})
	service := mocks.NewMockIMessageService(ctrl)
	service.EXPECT().
		Send(gomock.Any(), "alice", gomock.Any()).
		DoAndReturn(func(ctx context.Context, senderID string, r domain.SendRequest) (string, error) {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return "msg-slow", nil
		})
	service.EXPECT().
		Send(gomock.Any(), "bob", gomock.Any()).
		Return("msg-fast", nil)

	inbound, stop := runSink(t, service)
	defer stop()

	aliceAcked := make(chan struct{})
	aliceRecorder := &replyRecorder{}
	inbound <- Inbound{SenderID: "alice", Frame: sendFrame(t), Reply: func(frame domain.Frame) error {
		err := aliceRecorder.record(frame)
		close(aliceAcked)
		return err
	}}

	bobAcked := make(chan struct{})
	bobRecorder := &replyRecorder{}
	inbound <- Inbound{SenderID: "bob", Frame: sendFrame(t), Reply: func(frame domain.Frame) error {
		err := bobRecorder.record(frame)
		close(bobAcked)
		return err
	}}

	// Bob is acked while alice's publish is still in flight.
	select {
	case <-bobAcked:
	case <-time.After(time.Second):
		req.Fail("an unrelated send should not wait behind a slow publish")
	}
	req.Equal("msg-fast", bobRecorder.last(t).MessageID)

	select {
	case <-aliceAcked:
		req.Fail("the slow send should still be in flight")
	default:
	}

	close(release)
	select {
	case <-aliceAcked:
	case <-time.After(time.Second):
		req.Fail("the slow send should complete once the broker answers")
	}
	req.Equal("msg-slow", aliceRecorder.last(t).MessageID)
}

func TestMessageSink_RejectsMalformedBody(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// The service is never reached.
	service := mocks.NewMockIMessageService(ctrl)

	inbound, stop := runSink(t, service)
	defer stop()

	recorder := &replyRecorder{}
	acked := make(chan struct{})
	inbound <- Inbound{
		SenderID: "alice",
		Frame:    domain.Frame{Command: domain.CmdSendMessage, Body: []byte("{not json")},
		Reply: func(frame domain.Frame) error {
			err := recorder.record(frame)
			close(acked)
			return err
		},
	}

	select {
	case <-acked:
	case <-time.After(time.Second):
		req.Fail("sink should have replied")
	}

	ack := recorder.last(t)
	req.False(ack.Success)
	req.Equal(ackInvalidRequest, ack.Error)
}

func TestMessageSink_DropsUnknownCommands(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := mocks.NewMockIMessageService(ctrl)

	inbound, stop := runSink(t, service)

	replied := false
	inbound <- Inbound{
		SenderID: "alice",
		Frame:    domain.Frame{Command: 99},
		Reply: func(frame domain.Frame) error {
			replied = true
			return nil
		},
	}
	stop()

	require.False(t, replied)
}
