package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"nhooyr.io/websocket"

	"messagewall/internal/models"
	"messagewall/internal/wall"
)

type Board interface {
	Observe(fn wall.Observer) func()
}

type TokenValidator interface {
	ValidateToken(tokenString string) error
}

// Hub manages all active WebSocket clients. Each client observes the board
// on its own; the hub only tracks membership and broadcasts settings changes.
type Hub struct {
	board  Board
	tokens TokenValidator

	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	stopped    chan struct{}
}

func NewHub(board Board, tokens TokenValidator) *Hub {
	return &Hub{
		board:      board,
		tokens:     tokens,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		stopped:    make(chan struct{}),
	}
}

// Run starts the Hub's main event loop. Call this in a goroutine.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.stopped)

	for {
		select {
		case client := <-h.register:
			h.clients[client] = struct{}{}
			client.unobserve = h.board.Observe(client.onUpdate)
			log.Printf("ws hub: client connected, admin=%t (%d total)", client.admin, len(h.clients))

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				h.drop(client)
				log.Printf("ws hub: client disconnected (%d total)", len(h.clients))
			}

		case data := <-h.broadcast:
			for client := range h.clients {
				client.enqueue(data)
			}

		case <-ctx.Done():
			for client := range h.clients {
				h.drop(client)
				client.conn.Close(websocket.StatusGoingAway, "server shutting down")
			}
			return
		}
	}
}

func (h *Hub) drop(client *Client) {
	delete(h.clients, client)
	client.unobserve()
	close(client.done)
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

// OnSettingsChange forwards moderation toggles to every socket.
func (h *Hub) OnSettingsChange(change models.ChangeEvent) {
	if change.Event == models.EventResync || !change.HasNew() {
		return
	}

	setting, err := change.NewSetting()
	if err != nil || setting.Key != models.SettingModerationEnabled {
		return
	}

	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		log.Printf("ws hub: bad moderation value %q", setting.Value)
		return
	}

	evt, err := NewEvent(EventTypeSettingsChanged, SettingsPayload{ModerationEnabled: enabled})
	if err != nil {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("ws hub: broadcast buffer full, settings change dropped")
	}
}

// ServeWS upgrades to WebSocket. A valid admin token in ?token=xxx opens
// the full moderation feed (WebSocket can't send headers); without it the
// socket gets the public feed.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	admin := false
	if tokenStr := r.URL.Query().Get("token"); tokenStr != "" {
		if err := h.tokens.ValidateToken(tokenStr); err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		admin = true
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // Allow any origin (dev mode)
	})
	if err != nil {
		log.Printf("ws: accept error: %v", err)
		return
	}

	client := NewClient(h, conn, admin)

	select {
	case h.register <- client:
	case <-h.stopped:
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
