package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap/internal/domain"
)

// UserRepository is the read-side of the user directory. The messaging
// core never mutates identity state; it only resolves ids bound at the
// websocket handshake or referenced by a message.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// MessageFilter narrows ListForUser results. Nil fields are ignored.
type MessageFilter struct {
	Peer       *uuid.UUID
	Read       *bool
	ExchangeID *uuid.UUID
	// Box limits results to messages the user sent ("sent") or
	// received ("received"). Empty means both directions.
	Box string
}

// MessageRepository is the durable conversation log. Conversations are
// never stored as their own entity; they are recomputed from messages
// keyed by the unordered participant pair.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error)
	// ListConversation returns every message between the two users,
	// ascending by (created_at, id).
	ListConversation(ctx context.Context, userA, userB uuid.UUID) ([]domain.Message, error)
	// ListForUser returns messages the user sent or received, newest
	// first, optionally narrowed by filter.
	ListForUser(ctx context.Context, userID uuid.UUID, filter MessageFilter) ([]domain.Message, error)
	// MarkRead flips read=true on the given ids, reporting how many
	// rows changed and the distinct senders of the changed rows (so
	// callers can push read receipts). Only unread messages addressed
	// to readerID are touched; everything else is silently skipped.
	MarkRead(ctx context.Context, ids []uuid.UUID, readerID uuid.UUID) (int64, []uuid.UUID, error)
	// MarkConversationRead marks every unread message from senderID to
	// readerID and reports how many rows changed.
	MarkConversationRead(ctx context.Context, senderID, readerID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// UnreadCounts groups the user's unread messages by sender.
	UnreadCounts(ctx context.Context, userID uuid.UUID) ([]domain.UnreadCount, error)
}
