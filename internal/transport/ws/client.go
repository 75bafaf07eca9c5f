package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"messagewall/internal/wall"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 4096
	sendBufSize  = 256
)

// Client represents a single WebSocket connection.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	admin bool

	send chan []byte
	done chan struct{}

	// slow is closed when the send buffer overflowed.
	slow     chan struct{}
	slowOnce sync.Once

	unobserve func()
}

func NewClient(hub *Hub, conn *websocket.Conn, admin bool) *Client {
	conn.SetReadLimit(readLimit)
	return &Client{
		hub:       hub,
		conn:      conn,
		admin:     admin,
		send:      make(chan []byte, sendBufSize),
		done:      make(chan struct{}),
		slow:      make(chan struct{}),
		unobserve: func() {},
	}
}

// onUpdate runs under the board lock and never blocks.
func (c *Client) onUpdate(update wall.Update) {
	evt, err := Translate(update, c.admin)
	if err != nil {
		log.Printf("ws: skipping update: %v", err)
		return
	}
	if evt == nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.enqueue(data)
}

func (c *Client) enqueue(data []byte) {
	select {
	case <-c.done:
	case c.send <- data:
	default:
		c.slowOnce.Do(func() { close(c.slow) })
	}
}

// ReadPump reads messages from the WebSocket until the peer goes away.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		var event Event
		err := wsjson.Read(context.Background(), c.conn, &event)
		if err != nil {
			if websocket.CloseStatus(err) == -1 {
				log.Printf("ws: read error: %v", err)
			}
			return
		}

		c.handleEvent(&event)
	}
}

// WritePump writes messages from the send channel to the WebSocket.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		select {
		case message := <-c.send:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Write(ctx, websocket.MessageText, message)
			cancel()
			if err != nil {
				log.Printf("ws: write error: %v", err)
				return
			}

		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			err := c.conn.Ping(ctx)
			cancel()
			if err != nil {
				log.Printf("ws: ping error: %v", err)
				return
			}

		case <-c.slow:
			c.conn.Close(websocket.StatusPolicyViolation, "client too slow")
			return

		case <-c.done:
			return
		}
	}
}

func (c *Client) handleEvent(event *Event) {
	switch event.Type {
	case EventTypePing:
		c.sendEvent(EventTypePong, nil)
	default:
		c.sendEvent(EventTypeError, ErrorPayload{Code: "UNKNOWN_EVENT", Message: "unknown event type: " + event.Type})
	}
}

func (c *Client) sendEvent(eventType string, payload any) {
	evt := &Event{Type: eventType, Timestamp: time.Now().Unix()}
	if payload != nil {
		var err error
		if evt, err = NewEvent(eventType, payload); err != nil {
			return
		}
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	c.enqueue(data)
}
