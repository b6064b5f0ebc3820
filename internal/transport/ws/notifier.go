package ws

import (
	"log"

	"github.com/google/uuid"
	"github.com/skillswap/skillswap/internal/domain"
)

// HubNotifier implements service.Notifier using the WebSocket Hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

// NotifyNewMessage fans the message out to every live connection of
// the recipient as receive_message and echoes it to every live
// connection of the sender as message_sent. The two event types are
// deliberately distinct so a sender's other devices never mistake
// their own message for an incoming one.
func (n *HubNotifier) NotifyNewMessage(msg *domain.Message) {
	delivered, err := NewEvent(EventTypeReceiveMessage, MessagePayload{Message: *msg})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.SendToUser(msg.RecipientID, delivered)

	echo, err := NewEvent(EventTypeMessageSent, MessagePayload{Message: *msg})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.SendToUser(msg.SenderID, echo)
}

func (n *HubNotifier) NotifyMessagesRead(senderID, readerID uuid.UUID) {
	evt, err := NewEvent(EventTypeMessagesRead, MessagesReadPayload{ReaderID: readerID})
	if err != nil {
		log.Printf("ws notifier: marshal error: %v", err)
		return
	}
	n.hub.SendToUser(senderID, evt)
}
