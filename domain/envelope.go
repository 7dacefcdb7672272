package domain

import "time"

type DeliveryMode string

const (
	// DeliveryFanout writes one delivery record per recipient at send
	// time (write diffusion).
	DeliveryFanout DeliveryMode = "fanout"
	// DeliveryPull appends once to the shared conversation log and lets
	// recipients tail it by cursor (read diffusion).
	DeliveryPull DeliveryMode = "pull"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// MessageEnvelope is the canonical unit handed to the durable broker.
// It is constructed once per send and never persisted by this core;
// downstream consumers dedupe on MessageID.
type MessageEnvelope struct {
	MessageID      string       `json:"message_id"`
	ConversationID string       `json:"conversation_id"`
	SenderID       string       `json:"sender_id"`
	Seq            int64        `json:"seq"`
	Type           MessageType  `json:"type"`
	Body           string       `json:"body"`
	ReplyTo        string       `json:"reply_to,omitempty"`
	Mentions       []string     `json:"mentions,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	DeliveryMode   DeliveryMode `json:"delivery_mode"`
	// RecipientIDs is populated only in fanout mode and never contains
	// the sender.
	RecipientIDs []string `json:"recipient_ids,omitempty"`
}

// SendRequest is what the request-handling layer passes into the
// publication pipeline.
type SendRequest struct {
	ConversationID string      `validate:"required"`
	Type           MessageType `validate:"required,oneof=text image file"`
	Content        string      `validate:"required,max=8192"`
	ReplyTo        string      `validate:"omitempty"`
	Mentions       []string    `validate:"omitempty,dive,required"`
}
