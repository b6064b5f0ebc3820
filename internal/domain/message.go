package domain

import (
	"time"

	"github.com/google/uuid"
)

type Message struct {
	ID          uuid.UUID  `json:"id"`
	SenderID    uuid.UUID  `json:"sender_id"`
	RecipientID uuid.UUID  `json:"recipient_id"`
	Content     string     `json:"content"`
	ExchangeID  *uuid.UUID `json:"exchange_id,omitempty"`
	Read        bool       `json:"read"`
	CreatedAt   time.Time  `json:"created_at"`
	// Joined fields
	SenderName      string  `json:"sender_name,omitempty"`
	SenderAvatar    *string `json:"sender_avatar,omitempty"`
	RecipientName   string  `json:"recipient_name,omitempty"`
	RecipientAvatar *string `json:"recipient_avatar,omitempty"`
}

// Before reports whether m sorts ahead of other in a conversation.
// Ordering is total under (created_at, id) so two messages with the
// same timestamp land in the same position for every reader.
func (m Message) Before(other Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID.String() < other.ID.String()
	}
	return m.CreatedAt.Before(other.CreatedAt)
}

// PeerOf returns the other participant of the message relative to userID.
func (m Message) PeerOf(userID uuid.UUID) uuid.UUID {
	if m.SenderID == userID {
		return m.RecipientID
	}
	return m.SenderID
}

// UnreadCount is the number of unread messages a user holds from one sender.
type UnreadCount struct {
	SenderID uuid.UUID `json:"sender_id"`
	Count    int64     `json:"count"`
}
