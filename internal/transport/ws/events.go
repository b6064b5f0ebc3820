package ws

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/skillswap/skillswap/internal/domain"
)

// Event types - Client → Server
const (
	EventTypeSendMessage = "send_message"
	EventTypeTypingStart = "typing_start"
	EventTypeTypingStop  = "typing_stop"
	EventTypeMarkRead    = "mark_read"
	EventTypePing        = "ping"
)

// Event types - Server → Client
const (
	EventTypeReceiveMessage = "receive_message"
	EventTypeMessageSent    = "message_sent"
	EventTypeMessageError   = "message_error"
	EventTypeUserTyping     = "user_typing"
	EventTypeUserStopTyping = "user_stop_typing"
	EventTypeMessagesRead   = "messages_read"
	EventTypeStatusChange   = "user_status_change"
	EventTypePong           = "pong"
	EventTypeError          = "error"
)

// TypingExpiry is how long a client should show a typing indicator
// without a follow-up. The server does not track this timeout; senders
// debounce their own typing_stop and receivers expire stale indicators
// after this window.
const TypingExpiry = time.Second

// Event is the base envelope for all WebSocket messages. Inbound
// payloads are decoded into a typed struct and validated before any
// handler runs; unknown or malformed shapes never reach the router.
type Event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"ts,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// --- Client → Server payloads ---

type SendMessagePayload struct {
	RecipientID uuid.UUID  `json:"recipient_id" validate:"required"`
	Content     string     `json:"content" validate:"required"`
	ExchangeID  *uuid.UUID `json:"exchange_id,omitempty"`
}

type TypingPayload struct {
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
}

type MarkReadPayload struct {
	PeerID uuid.UUID `json:"peer_id" validate:"required"`
}

// --- Server → Client payloads ---

type MessagePayload struct {
	domain.Message
}

type UserTypingPayload struct {
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name,omitempty"`
}

type MessagesReadPayload struct {
	ReaderID uuid.UUID `json:"reader_id"`
}

type StatusChangePayload struct {
	UserID uuid.UUID `json:"user_id"`
	Status string    `json:"status"` // "online" | "offline"
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewEvent creates a server→client event with the current timestamp.
func NewEvent(eventType string, payload any) (*Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Event{
		Type:      eventType,
		Payload:   data,
		Timestamp: time.Now().Unix(),
	}, nil
}

// decodePayload unmarshals and validates an inbound payload.
func decodePayload(event *Event, dst any) error {
	if len(event.Payload) == 0 {
		return validate.Struct(dst)
	}
	if err := json.Unmarshal(event.Payload, dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}
