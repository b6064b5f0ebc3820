package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/skillswap/skillswap/internal/domain"
)

func newTestUser(name string) *domain.User {
	return &domain.User{ID: uuid.New(), Name: name, Email: name + "@example.com"}
}

func newTestClient(hub *Hub, user *domain.User) *Client {
	return NewClient(hub, nil, nil, user)
}

// recvEvent pops one queued event off a client's send buffer. All
// deliveries in these tests happen synchronously, so an empty buffer
// means the event was never sent.
func recvEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		var evt Event
		require.NoError(t, json.Unmarshal(data, &evt))
		return evt
	default:
		t.Fatal("expected a queued event, got none")
		return Event{}
	}
}

func recvNone(t *testing.T, c *Client) {
	t.Helper()
	select {
	case data := <-c.send:
		t.Fatalf("expected no queued event, got %s", data)
	default:
	}
}

func payloadAs[T any](t *testing.T, evt Event) T {
	t.Helper()
	var p T
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	return p
}

func Test_Hub_FanOut_AllDevicesExactlyOnce(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	alice := newTestUser("Alice")

	phone := newTestClient(hub, alice)
	laptop := newTestClient(hub, alice)
	hub.Register(phone)
	hub.Register(laptop)

	evt, err := NewEvent(EventTypeReceiveMessage, MessagePayload{})
	req.NoError(err)
	hub.SendToUser(alice.ID, evt)

	for _, device := range []*Client{phone, laptop} {
		got := recvEvent(t, device)
		req.Equal(EventTypeReceiveMessage, got.Type)
		recvNone(t, device) // exactly once per device
	}
}

func Test_Hub_SendToUser_NoConnectionsIsNoop(t *testing.T) {
	hub := NewHub()
	evt, err := NewEvent(EventTypeReceiveMessage, MessagePayload{})
	require.NoError(t, err)
	hub.SendToUser(uuid.New(), evt) // must not panic
}

func Test_Hub_PresenceTransitions(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	alice := newTestUser("Alice")
	bob := newTestUser("Bob")

	observer := newTestClient(hub, bob)
	hub.Register(observer)

	// First device: online transition, seen by Bob only.
	phone := newTestClient(hub, alice)
	hub.Register(phone)
	req.True(hub.IsOnline(alice.ID))

	evt := recvEvent(t, observer)
	req.Equal(EventTypeStatusChange, evt.Type)
	p := payloadAs[StatusChangePayload](t, evt)
	req.Equal(alice.ID, p.UserID)
	req.Equal("online", p.Status)
	recvNone(t, phone) // own transition is not echoed back

	// Second device: no duplicate online broadcast.
	laptop := newTestClient(hub, alice)
	hub.Register(laptop)
	recvNone(t, observer)

	// Dropping one of two devices: still online, no broadcast.
	hub.Unregister(phone)
	req.True(hub.IsOnline(alice.ID))
	recvNone(t, observer)

	// Dropping the last device flips presence to offline.
	hub.Unregister(laptop)
	req.False(hub.IsOnline(alice.ID))

	evt = recvEvent(t, observer)
	req.Equal(EventTypeStatusChange, evt.Type)
	p = payloadAs[StatusChangePayload](t, evt)
	req.Equal(alice.ID, p.UserID)
	req.Equal("offline", p.Status)
}

func Test_Hub_RegistryQueries(t *testing.T) {
	req := require.New(t)
	hub := NewHub()
	alice := newTestUser("Alice")
	bob := newTestUser("Bob")

	req.False(hub.IsOnline(alice.ID))
	req.Empty(hub.ConnectionsFor(alice.ID))

	phone := newTestClient(hub, alice)
	laptop := newTestClient(hub, alice)
	hub.Register(phone)
	hub.Register(laptop)
	hub.Register(newTestClient(hub, bob))

	req.Len(hub.ConnectionsFor(alice.ID), 2)
	req.ElementsMatch([]uuid.UUID{alice.ID, bob.ID}, hub.OnlineUsers())

	hub.Unregister(phone)
	req.Len(hub.ConnectionsFor(alice.ID), 1)
}

func Test_Hub_UnregisterUnknownClientIsNoop(t *testing.T) {
	hub := NewHub()
	alice := newTestUser("Alice")
	stray := newTestClient(hub, alice)

	// Never registered; must not panic or close anything twice.
	hub.Unregister(stray)
	hub.Unregister(stray)
}
