package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap/internal/domain"
	"github.com/skillswap/skillswap/internal/repository/memory"
	"github.com/skillswap/skillswap/internal/service"
)

type routerFixture struct {
	hub    *Hub
	router *Router
	chat   *service.ChatService
	msgs   *memory.MessageRepo
}

func newRouterFixture(t *testing.T, users ...*domain.User) *routerFixture {
	t.Helper()
	msgRepo := memory.NewMessageRepo()
	userRepo := memory.NewUserRepo()
	for _, u := range users {
		userRepo.Add(*u)
	}
	chat := service.NewChatService(msgRepo, userRepo)
	hub := NewHub()
	chat.SetNotifier(NewHubNotifier(hub))
	return &routerFixture{
		hub:    hub,
		router: NewRouter(chat, hub),
		chat:   chat,
		msgs:   msgRepo,
	}
}

func (f *routerFixture) connect(user *domain.User) *Client {
	c := NewClient(f.hub, f.router, nil, user)
	f.hub.Register(c)
	return c
}

func clientEvent(t *testing.T, eventType string, payload any) *Event {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return &Event{Type: eventType, Payload: data}
}

func Test_Router_SendMessage_DeliversAndEchoes(t *testing.T) {
	req := require.New(t)
	alice, bob := newTestUser("Alice"), newTestUser("Bob")
	f := newRouterFixture(t, alice, bob)

	bobClient := f.connect(bob)
	alicePhone := f.connect(alice)
	aliceLaptop := f.connect(alice)
	recvEvent(t, bobClient) // alice's online transition
	recvNone(t, bobClient)

	f.router.Handle(context.Background(), bobClient, clientEvent(t, EventTypeSendMessage, SendMessagePayload{
		RecipientID: alice.ID,
		Content:     "hello",
	}))

	// Every one of the recipient's devices gets exactly one
	// receive_message.
	for _, device := range []*Client{alicePhone, aliceLaptop} {
		evt := recvEvent(t, device)
		req.Equal(EventTypeReceiveMessage, evt.Type)
		msg := payloadAs[MessagePayload](t, evt)
		req.Equal(bob.ID, msg.SenderID)
		req.Equal(alice.ID, msg.RecipientID)
		req.Equal("hello", msg.Content)
		req.False(msg.Read)
		recvNone(t, device)
	}

	// The sender gets the echo under its own event type.
	evt := recvEvent(t, bobClient)
	req.Equal(EventTypeMessageSent, evt.Type)
	echo := payloadAs[MessagePayload](t, evt)
	req.Equal("hello", echo.Content)
	recvNone(t, bobClient)

	// And the message is durable.
	stored, err := f.chat.Conversation(context.Background(), alice.ID, bob.ID)
	req.NoError(err)
	req.Len(stored, 1)
	req.Equal(echo.ID, stored[0].ID)
}

func Test_Router_SendMessage_EmptyContent(t *testing.T) {
	req := require.New(t)
	alice, bob := newTestUser("Alice"), newTestUser("Bob")
	f := newRouterFixture(t, alice, bob)

	aliceClient := f.connect(alice)
	bobClient := f.connect(bob)
	recvEvent(t, aliceClient) // bob's online transition

	f.router.Handle(context.Background(), aliceClient, clientEvent(t, EventTypeSendMessage, SendMessagePayload{
		RecipientID: bob.ID,
		Content:     "   ",
	}))

	evt := recvEvent(t, aliceClient)
	req.Equal(EventTypeMessageError, evt.Type)
	p := payloadAs[ErrorPayload](t, evt)
	req.Equal("EMPTY_CONTENT", p.Code)

	// Error is scoped to the sender; nothing reached the recipient and
	// nothing was stored.
	recvNone(t, bobClient)
	stored, err := f.chat.Conversation(context.Background(), alice.ID, bob.ID)
	req.NoError(err)
	req.Empty(stored)
}

func Test_Router_SendMessage_UnknownRecipient(t *testing.T) {
	req := require.New(t)
	alice := newTestUser("Alice")
	f := newRouterFixture(t, alice)

	aliceClient := f.connect(alice)
	f.router.Handle(context.Background(), aliceClient, clientEvent(t, EventTypeSendMessage, SendMessagePayload{
		RecipientID: uuid.New(),
		Content:     "hello?",
	}))

	evt := recvEvent(t, aliceClient)
	req.Equal(EventTypeMessageError, evt.Type)
	req.Equal("RECIPIENT_NOT_FOUND", payloadAs[ErrorPayload](t, evt).Code)
}

func Test_Router_MalformedPayloadRejected(t *testing.T) {
	req := require.New(t)
	alice := newTestUser("Alice")
	f := newRouterFixture(t, alice)
	aliceClient := f.connect(alice)

	// Not JSON at all.
	f.router.Handle(context.Background(), aliceClient, &Event{
		Type:    EventTypeSendMessage,
		Payload: json.RawMessage(`"garbage`),
	})
	evt := recvEvent(t, aliceClient)
	req.Equal(EventTypeMessageError, evt.Type)
	req.Equal("INVALID_PAYLOAD", payloadAs[ErrorPayload](t, evt).Code)

	// Valid JSON missing required fields.
	f.router.Handle(context.Background(), aliceClient, &Event{
		Type:    EventTypeMarkRead,
		Payload: json.RawMessage(`{}`),
	})
	evt = recvEvent(t, aliceClient)
	req.Equal(EventTypeError, evt.Type)
	req.Equal("INVALID_PAYLOAD", payloadAs[ErrorPayload](t, evt).Code)

	// Unknown event type.
	f.router.Handle(context.Background(), aliceClient, &Event{Type: "bogus"})
	evt = recvEvent(t, aliceClient)
	req.Equal(EventTypeError, evt.Type)
	req.Equal("UNKNOWN_EVENT", payloadAs[ErrorPayload](t, evt).Code)
}

func Test_Router_Typing_ReachesRecipientOnly(t *testing.T) {
	req := require.New(t)
	alice, bob, clara := newTestUser("Alice"), newTestUser("Bob"), newTestUser("Clara")
	f := newRouterFixture(t, alice, bob, clara)

	aliceClient := f.connect(alice)
	bobClient := f.connect(bob)
	claraClient := f.connect(clara)
	recvEvent(t, aliceClient) // bob online
	recvEvent(t, aliceClient) // clara online
	recvEvent(t, bobClient)   // clara online

	f.router.Handle(context.Background(), aliceClient, clientEvent(t, EventTypeTypingStart, TypingPayload{RecipientID: bob.ID}))

	evt := recvEvent(t, bobClient)
	req.Equal(EventTypeUserTyping, evt.Type)
	p := payloadAs[UserTypingPayload](t, evt)
	req.Equal(alice.ID, p.UserID)
	req.Equal("Alice", p.Name)
	recvNone(t, claraClient)
	recvNone(t, aliceClient)

	f.router.Handle(context.Background(), aliceClient, clientEvent(t, EventTypeTypingStop, TypingPayload{RecipientID: bob.ID}))

	// The stop event identifies the user by id only; no display name.
	evt = recvEvent(t, bobClient)
	req.Equal(EventTypeUserStopTyping, evt.Type)
	stop := payloadAs[UserTypingPayload](t, evt)
	req.Equal(alice.ID, stop.UserID)
	req.Empty(stop.Name)
	req.NotContains(string(evt.Payload), `"name"`)
}

func Test_Router_MarkRead_NotifiesPeerAndPersists(t *testing.T) {
	req := require.New(t)
	alice, bob := newTestUser("Alice"), newTestUser("Bob")
	f := newRouterFixture(t, alice, bob)

	aliceClient := f.connect(alice)
	bobClient := f.connect(bob)
	recvEvent(t, aliceClient) // bob online

	// Alice sends, then Bob marks the conversation read.
	f.router.Handle(context.Background(), aliceClient, clientEvent(t, EventTypeSendMessage, SendMessagePayload{
		RecipientID: bob.ID,
		Content:     "hello",
	}))
	recvEvent(t, aliceClient) // message_sent echo
	recvEvent(t, bobClient)   // receive_message

	f.router.Handle(context.Background(), bobClient, clientEvent(t, EventTypeMarkRead, MarkReadPayload{PeerID: alice.ID}))

	evt := recvEvent(t, aliceClient)
	req.Equal(EventTypeMessagesRead, evt.Type)
	req.Equal(bob.ID, payloadAs[MessagesReadPayload](t, evt).ReaderID)

	stored, err := f.chat.Conversation(context.Background(), alice.ID, bob.ID)
	req.NoError(err)
	req.Len(stored, 1)
	req.True(stored[0].Read)

	// A second mark_read still sends the receipt but changes nothing.
	f.router.Handle(context.Background(), bobClient, clientEvent(t, EventTypeMarkRead, MarkReadPayload{PeerID: alice.ID}))
	evt = recvEvent(t, aliceClient)
	req.Equal(EventTypeMessagesRead, evt.Type)
}

func Test_Router_Ping(t *testing.T) {
	alice := newTestUser("Alice")
	f := newRouterFixture(t, alice)
	aliceClient := f.connect(alice)

	f.router.Handle(context.Background(), aliceClient, &Event{Type: EventTypePing})
	evt := recvEvent(t, aliceClient)
	require.Equal(t, EventTypePong, evt.Type)
}
