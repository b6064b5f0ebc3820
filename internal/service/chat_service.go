package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap/internal/domain"
	"github.com/skillswap/skillswap/internal/repository"
)

var (
	ErrEmptyContent      = errors.New("message content is required")
	ErrSelfMessage       = errors.New("cannot send a message to yourself")
	ErrRecipientNotFound = errors.New("recipient not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrNotParticipant    = errors.New("you are not a participant of this conversation")
	ErrNotRecipient      = errors.New("only the recipient can mark a message as read")
	ErrNotSender         = errors.New("only the message sender can perform this action")
	ErrUserNotFound      = errors.New("user not found")
)

// Notifier pushes real-time events to connected clients.
type Notifier interface {
	// NotifyNewMessage delivers the message to the recipient's live
	// connections and echoes a confirmation to the sender's.
	NotifyNewMessage(msg *domain.Message)
	// NotifyMessagesRead tells the sender that readerID has read their
	// messages.
	NotifyMessagesRead(senderID, readerID uuid.UUID)
}

type ChatService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	notifier    Notifier
}

func NewChatService(messageRepo repository.MessageRepository, userRepo repository.UserRepository) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// SetNotifier sets the real-time notifier (optional dependency).
func (s *ChatService) SetNotifier(n Notifier) {
	s.notifier = n
}

type SendMessageInput struct {
	RecipientID uuid.UUID  `json:"recipient_id"`
	Content     string     `json:"content"`
	ExchangeID  *uuid.UUID `json:"exchange_id,omitempty"`
}

// Send validates and persists a message, then fans it out to live
// connections. Whitespace-only content is rejected, but the stored
// content keeps the sender's original spacing.
func (s *ChatService) Send(ctx context.Context, senderID uuid.UUID, input SendMessageInput) (*domain.Message, error) {
	if strings.TrimSpace(input.Content) == "" {
		return nil, ErrEmptyContent
	}
	if input.RecipientID == senderID {
		return nil, ErrSelfMessage
	}

	recipient, err := s.userRepo.GetByID(ctx, input.RecipientID)
	if err != nil {
		return nil, err
	}
	if recipient == nil {
		return nil, ErrRecipientNotFound
	}

	msg := &domain.Message{
		ID:          uuid.New(),
		SenderID:    senderID,
		RecipientID: input.RecipientID,
		Content:     input.Content,
		ExchangeID:  input.ExchangeID,
		Read:        false,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	// Re-fetch with sender/recipient info joined in
	full, err := s.messageRepo.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyNewMessage(full)
	}

	return full, nil
}

// Conversation returns every message between the user and peer,
// ascending by (created_at, id).
func (s *ChatService) Conversation(ctx context.Context, userID, peerID uuid.UUID) ([]domain.Message, error) {
	messages, err := s.messageRepo.ListConversation(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// ListForUser returns the user's messages, newest first.
func (s *ChatService) ListForUser(ctx context.Context, userID uuid.UUID, filter repository.MessageFilter) ([]domain.Message, error) {
	messages, err := s.messageRepo.ListForUser(ctx, userID, filter)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// GetMessage returns a single message, visible to its participants only.
func (s *ChatService) GetMessage(ctx context.Context, userID, messageID uuid.UUID) (*domain.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.SenderID != userID && msg.RecipientID != userID {
		return nil, ErrNotParticipant
	}
	return msg, nil
}

// MarkMessageRead marks one message read. Unlike the bulk variant this
// is strict: a non-recipient caller gets ErrNotRecipient.
func (s *ChatService) MarkMessageRead(ctx context.Context, readerID, messageID uuid.UUID) (*domain.Message, error) {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.RecipientID != readerID {
		return nil, ErrNotRecipient
	}
	if msg.Read {
		return msg, nil
	}

	if _, _, err := s.messageRepo.MarkRead(ctx, []uuid.UUID{messageID}, readerID); err != nil {
		return nil, err
	}
	msg.Read = true

	if s.notifier != nil {
		s.notifier.NotifyMessagesRead(msg.SenderID, readerID)
	}

	return msg, nil
}

// MarkReadBulk marks the given messages read and reports how many rows
// actually changed. Ids the reader does not own, already-read ids and
// unknown ids are skipped, not errors, so the operation is idempotent.
// Each sender whose messages actually flipped gets a read receipt on
// their live connections.
func (s *ChatService) MarkReadBulk(ctx context.Context, readerID uuid.UUID, ids []uuid.UUID) (int64, error) {
	modified, senders, err := s.messageRepo.MarkRead(ctx, ids, readerID)
	if err != nil {
		return 0, err
	}

	if s.notifier != nil {
		for _, senderID := range senders {
			s.notifier.NotifyMessagesRead(senderID, readerID)
		}
	}

	return modified, nil
}

// MarkConversationRead marks everything the peer sent the reader as
// read and notifies the peer's live connections.
func (s *ChatService) MarkConversationRead(ctx context.Context, readerID, peerID uuid.UUID) (int64, error) {
	count, err := s.messageRepo.MarkConversationRead(ctx, peerID, readerID)
	if err != nil {
		return 0, err
	}

	if s.notifier != nil {
		s.notifier.NotifyMessagesRead(peerID, readerID)
	}

	return count, nil
}

// Delete hard-deletes a message. Sender only.
func (s *ChatService) Delete(ctx context.Context, requesterID, messageID uuid.UUID) error {
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return ErrMessageNotFound
	}
	if msg.SenderID != requesterID {
		return ErrNotSender
	}

	return s.messageRepo.Delete(ctx, messageID)
}

// UnreadCounts returns the user's unread messages grouped by sender.
func (s *ChatService) UnreadCounts(ctx context.Context, userID uuid.UUID) ([]domain.UnreadCount, error) {
	counts, err := s.messageRepo.UnreadCounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	if counts == nil {
		counts = []domain.UnreadCount{}
	}
	return counts, nil
}

// GetUser resolves an identity from the user directory.
func (s *ChatService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
