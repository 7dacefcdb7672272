// Package domain contains core concepts of the delivery core.
// This file defines Conversation and Membership and their invariants.
// No runtime, network, or storage logic should be added here.
package domain

import "time"

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

type ConversationStatus string

const (
	ConversationActive    ConversationStatus = "active"
	ConversationDissolved ConversationStatus = "dissolved"
)

// Conversation is owned by the external membership directory; this core
// only reads it. Direct conversations have exactly 2 members and a
// dissolved conversation never becomes active again.
type Conversation struct {
	ID          string
	Type        ConversationType
	MemberCount int
	MaxMembers  int
	Status      ConversationStatus
	OwnerID     string // group only
}

// Active reports whether the conversation can still accept sends.
func (c Conversation) Active() bool {
	return c.Status == ConversationActive
}

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Membership links a user to a conversation. A rejoin clears LeftAt on
// the existing record instead of creating a duplicate; at most one
// owner exists per group.
type Membership struct {
	ConversationID string
	UserID         string
	Role           Role
	JoinedAt       time.Time
	LeftAt         *time.Time
}

// Current reports whether the member has not left the conversation.
func (m Membership) Current() bool {
	return m.LeftAt == nil
}
