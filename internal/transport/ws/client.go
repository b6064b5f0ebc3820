package ws

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/skillswap/skillswap/internal/domain"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	sendBufSize  = 256
)

// Client represents a single WebSocket connection. The identity bound
// at the handshake never changes; reauthentication means a new
// connection.
type Client struct {
	hub    *Hub
	router *Router
	conn   *websocket.Conn
	user   *domain.User

	send chan []byte
	done chan struct{}
}

func NewClient(hub *Hub, router *Router, conn *websocket.Conn, user *domain.User) *Client {
	return &Client{
		hub:    hub,
		router: router,
		conn:   conn,
		user:   user,
		send:   make(chan []byte, sendBufSize),
		done:   make(chan struct{}),
	}
}

// ReadPump reads events from the WebSocket and dispatches them in
// order. Events from one connection are handled FIFO; there is no
// ordering across connections.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("ws: client %s disconnected", c.user.ID)
			} else {
				log.Printf("ws: read error from %s: %v", c.user.ID, err)
			}
			return
		}

		c.router.Handle(context.Background(), c, &event)
	}
}

// WritePump writes queued events to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Printf("ws: write error to %s: %v", c.user.ID, err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				log.Printf("ws: ping error to %s: %v", c.user.ID, err)
				return
			}

		case <-c.done:
			return
		}
	}
}

func (c *Client) sendEvent(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func (c *Client) sendError(eventType, code, message string) {
	evt, err := NewEvent(eventType, ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	c.sendEvent(evt)
}

func (c *Client) sendPong() {
	c.sendEvent(&Event{Type: EventTypePong, Timestamp: time.Now().Unix()})
}
