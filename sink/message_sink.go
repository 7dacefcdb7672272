package sink

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"im-core/domain"
	imerrors "im-core/errors"
	"im-core/services"
)

// Inbound is one authenticated application frame handed off by a
// connection worker, with enough context to answer it.
type Inbound struct {
	SenderID string
	Frame    domain.Frame
	Reply    func(domain.Frame) error
}

// sendPayload is the wire body of a SEND_MESSAGE frame.
type sendPayload struct {
	ConversationID string   `json:"conversation_id"`
	Type           string   `json:"type"`
	Content        string   `json:"content"`
	ReplyTo        string   `json:"reply_to,omitempty"`
	Mentions       []string `json:"mentions,omitempty"`
}

// sendAck is the wire body of the reply. Error carries a stable code
// the client can branch on; TRY_AGAIN marks retryable failures.
type sendAck struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

const (
	ackInvalidRequest          = "INVALID_REQUEST"
	ackNotAMember              = "NOT_A_MEMBER"
	ackConversationUnavailable = "CONVERSATION_UNAVAILABLE"
	ackTryAgain                = "TRY_AGAIN"
)

// MessageSink drains application frames from every connection on the
// node and feeds sends into the publication pipeline. It runs under the
// supervisor like any other worker.
//
// Each frame is handled in its own goroutine so one connection's
// publish latency never delays another connection's sends; maxInFlight
// bounds the pressure on the broker. Two racing sends from the same
// connection may publish in either order, which the sequence allocator
// already allows.
type MessageSink struct {
	service     services.IMessageService
	inbound     <-chan Inbound
	timeout     time.Duration
	maxInFlight int
	log         *slog.Logger
}

func NewMessageSink(service services.IMessageService, inbound <-chan Inbound, timeout time.Duration, maxInFlight int, log *slog.Logger) *MessageSink {
	return &MessageSink{service: service, inbound: inbound, timeout: timeout, maxInFlight: maxInFlight, log: log}
}

func (s *MessageSink) Run(ctx context.Context) error {
	s.log.Info("Starting message sink", "timeout", s.timeout, "max_in_flight", s.maxInFlight)
	sem := make(chan struct{}, s.maxInFlight)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case item, ok := <-s.inbound:
			if !ok {
				return nil
			}
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			wg.Add(1)
			go func(item Inbound) {
				defer wg.Done()
				defer func() { <-sem }()
				s.handle(ctx, item)
			}(item)
		}
	}
}

func (s *MessageSink) handle(ctx context.Context, item Inbound) {
	if item.Frame.Command != domain.CmdSendMessage {
		s.log.Debug("Unknown application frame dropped",
			"command", item.Frame.Command, "sender_id", item.SenderID)
		return
	}

	var payload sendPayload
	if err := json.Unmarshal(item.Frame.Body, &payload); err != nil {
		s.reply(item, sendAck{Success: false, Error: ackInvalidRequest})
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	messageID, err := s.service.Send(sendCtx, item.SenderID, domain.SendRequest{
		ConversationID: payload.ConversationID,
		Type:           domain.MessageType(payload.Type),
		Content:        payload.Content,
		ReplyTo:        payload.ReplyTo,
		Mentions:       payload.Mentions,
	})
	if err != nil {
		s.log.Warn("Send rejected", "sender_id", item.SenderID, "err", err)
		s.reply(item, sendAck{Success: false, Error: ackCode(err)})
		return
	}
	s.reply(item, sendAck{Success: true, MessageID: messageID})
}

func (s *MessageSink) reply(item Inbound, ack sendAck) {
	body, _ := json.Marshal(ack)
	err := item.Reply(domain.Frame{
		Command:       item.Frame.Command,
		CorrelationID: item.Frame.CorrelationID,
		Body:          body,
	})
	if err != nil {
		// The connection died between the frame and its answer; the
		// send itself already succeeded or failed on its own.
		s.log.Debug("Ack write failed", "sender_id", item.SenderID, "err", err)
	}
}

func ackCode(err error) string {
	switch {
	case errors.Is(err, imerrors.ErrInvalidSendRequest):
		return ackInvalidRequest
	case errors.Is(err, imerrors.ErrNotAMember):
		return ackNotAMember
	case errors.Is(err, imerrors.ErrConversationUnavailable):
		return ackConversationUnavailable
	default:
		return ackTryAgain
	}
}
