package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap/internal/repository"
	"github.com/skillswap/skillswap/internal/service"
	"github.com/skillswap/skillswap/internal/transport/http/middleware"
)

type MessageHandler struct {
	chatService *service.ChatService
}

func NewMessageHandler(chatService *service.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

// List returns the authenticated user's messages, newest first,
// optionally filtered by peer, read state, exchange or direction.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var filter repository.MessageFilter

	if peerStr := r.URL.Query().Get("peer"); peerStr != "" {
		id, err := uuid.Parse(peerStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid peer ID")
			return
		}
		filter.Peer = &id
	}
	if readStr := r.URL.Query().Get("read"); readStr != "" {
		read := readStr == "true"
		filter.Read = &read
	}
	if exStr := r.URL.Query().Get("exchange_id"); exStr != "" {
		id, err := uuid.Parse(exStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid exchange ID")
			return
		}
		filter.ExchangeID = &id
	}
	if box := r.URL.Query().Get("box"); box != "" {
		if box != "sent" && box != "received" {
			writeError(w, http.StatusBadRequest, "INVALID_BOX", "box must be sent or received")
			return
		}
		filter.Box = box
	}

	messages, err := h.chatService.ListForUser(r.Context(), userID, filter)
	if err != nil {
		log.Printf("ERROR list messages: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// Conversation returns all messages between the authenticated user and
// a peer, ascending by (created_at, id).
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	peerStr := r.URL.Query().Get("user_id")
	if peerStr == "" {
		writeError(w, http.StatusBadRequest, "MISSING_USER_ID", "user_id query param is required")
		return
	}
	peerID, err := uuid.Parse(peerStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid user ID")
		return
	}

	messages, err := h.chatService.Conversation(r.Context(), userID, peerID)
	if err != nil {
		log.Printf("ERROR load conversation: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, messages)
}

// Unread returns per-sender unread counts for the authenticated user.
func (h *MessageHandler) Unread(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	counts, err := h.chatService.UnreadCounts(r.Context(), userID)
	if err != nil {
		log.Printf("ERROR unread counts: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

func (h *MessageHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	msg, err := h.chatService.GetMessage(r.Context(), userID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
		case errors.Is(err, service.ErrNotParticipant):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You are not a participant of this conversation")
		default:
			log.Printf("ERROR get message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// MarkRead marks a single message read. Recipient only.
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	msg, err := h.chatService.MarkMessageRead(r.Context(), userID, messageID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
		case errors.Is(err, service.ErrNotRecipient):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "Only the recipient can mark a message as read")
		default:
			log.Printf("ERROR mark read: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	writeJSON(w, http.StatusOK, msg)
}

// MarkReadBulk marks a list of messages read and reports how many rows
// changed. Idempotent: ids the caller does not own or that are already
// read are skipped silently.
func (h *MessageHandler) MarkReadBulk(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var input struct {
		MessageIDs []uuid.UUID `json:"message_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid request body")
		return
	}
	if input.MessageIDs == nil {
		writeError(w, http.StatusBadRequest, "MISSING_IDS", "message_ids is required")
		return
	}

	modified, err := h.chatService.MarkReadBulk(r.Context(), userID, input.MessageIDs)
	if err != nil {
		log.Printf("ERROR bulk mark read: %v", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"modified_count": modified})
}

// Delete hard-deletes a message. Sender only.
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	messageID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", "Invalid message ID")
		return
	}

	if err := h.chatService.Delete(r.Context(), userID, messageID); err != nil {
		switch {
		case errors.Is(err, service.ErrMessageNotFound):
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Message not found")
		case errors.Is(err, service.ErrNotSender):
			writeError(w, http.StatusForbidden, "FORBIDDEN", "You can only delete your own messages")
		default:
			log.Printf("ERROR delete message: %v", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL", "Something went wrong")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
