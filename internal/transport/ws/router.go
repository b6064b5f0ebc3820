package ws

import (
	"context"
	"errors"
	"log"

	"github.com/skillswap/skillswap/internal/service"
)

// Router dispatches inbound client events. Each event is handled
// atomically against the message store and the hub; a failed event is
// reported to its sender only and never tears down the connection.
type Router struct {
	chat *service.ChatService
	hub  *Hub
}

func NewRouter(chat *service.ChatService, hub *Hub) *Router {
	return &Router{chat: chat, hub: hub}
}

func (r *Router) Handle(ctx context.Context, c *Client, event *Event) {
	switch event.Type {
	case EventTypeSendMessage:
		r.handleSend(ctx, c, event)

	case EventTypeTypingStart, EventTypeTypingStop:
		r.handleTyping(c, event)

	case EventTypeMarkRead:
		r.handleMarkRead(ctx, c, event)

	case EventTypePing:
		c.sendPong()

	default:
		c.sendError(EventTypeError, "UNKNOWN_EVENT", "unknown event type: "+event.Type)
	}
}

func (r *Router) handleSend(ctx context.Context, c *Client, event *Event) {
	var p SendMessagePayload
	if err := decodePayload(event, &p); err != nil {
		c.sendError(EventTypeMessageError, "INVALID_PAYLOAD", "invalid send_message payload")
		return
	}

	// Persistence and fan-out happen inside the service; the notifier
	// delivers receive_message to the recipient's connections and the
	// message_sent echo to all of the sender's.
	_, err := r.chat.Send(ctx, c.user.ID, service.SendMessageInput{
		RecipientID: p.RecipientID,
		Content:     p.Content,
		ExchangeID:  p.ExchangeID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyContent):
			c.sendError(EventTypeMessageError, "EMPTY_CONTENT", "Message content is required")
		case errors.Is(err, service.ErrSelfMessage):
			c.sendError(EventTypeMessageError, "SELF_MESSAGE", "Cannot send a message to yourself")
		case errors.Is(err, service.ErrRecipientNotFound):
			c.sendError(EventTypeMessageError, "RECIPIENT_NOT_FOUND", "Recipient not found")
		default:
			log.Printf("ws: send_message from %s failed: %v", c.user.ID, err)
			c.sendError(EventTypeMessageError, "STORE_ERROR", "Message could not be saved, try again")
		}
	}
}

func (r *Router) handleTyping(c *Client, event *Event) {
	var p TypingPayload
	if err := decodePayload(event, &p); err != nil {
		c.sendError(EventTypeError, "INVALID_PAYLOAD", "invalid typing payload")
		return
	}

	// Nothing is persisted; the indicator only reaches the recipient's
	// live connections. Receivers expire it after TypingExpiry if no
	// typing_stop follows. Only the start event carries the display
	// name; the stop event identifies the user by id alone.
	eventType := EventTypeUserTyping
	payload := UserTypingPayload{UserID: c.user.ID, Name: c.user.Name}
	if event.Type == EventTypeTypingStop {
		eventType = EventTypeUserStopTyping
		payload.Name = ""
	}

	evt, err := NewEvent(eventType, payload)
	if err != nil {
		return
	}
	r.hub.SendToUser(p.RecipientID, evt)
}

func (r *Router) handleMarkRead(ctx context.Context, c *Client, event *Event) {
	var p MarkReadPayload
	if err := decodePayload(event, &p); err != nil {
		c.sendError(EventTypeError, "INVALID_PAYLOAD", "invalid mark_read payload")
		return
	}

	// Zero unread messages is still success; the peer gets the read
	// receipt either way.
	if _, err := r.chat.MarkConversationRead(ctx, c.user.ID, p.PeerID); err != nil {
		log.Printf("ws: mark_read from %s failed: %v", c.user.ID, err)
		c.sendError(EventTypeError, "STORE_ERROR", "Could not mark messages read, try again")
	}
}
