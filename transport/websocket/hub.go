package websocket

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Default ping period. Must be less than pongWait.
	defaultPingPeriod = 10 * time.Second

	// Maximum message size allowed from peer.
	maxMessageSize = 16 * 1024

	// Pending error frames per client before new ones are dropped.
	errorQueueSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Gateway is what a connected player's commands are submitted to
type Gateway interface {
	PlaceShips(ctx context.Context, roomID string, playerID engine.PlayerID, placements []engine.ShipPlacement) error
	AttackShips(ctx context.Context, roomID string, playerID engine.PlayerID, target engine.Coordinate) error
	LeaveRoom(ctx context.Context, roomID string, playerID engine.PlayerID, out room.Outbox) error
	WithdrawJoin(ctx context.Context, roomID string, playerID engine.PlayerID, out room.Outbox) error
}

// CheckHandshake reports whether r is a websocket handshake the upgrader
// will accept. Callers use it to reject plain requests before they change
// any room state.
func CheckHandshake(r *http.Request) error {
	if r.Method != http.MethodGet {
		return errors.New("websocket handshake requires GET")
	}
	if !websocket.IsWebSocketUpgrade(r) {
		return errors.New("websocket upgrade required")
	}
	if r.Header.Get("Sec-Websocket-Version") != "13" {
		return errors.New("unsupported websocket version")
	}
	key, err := base64.StdEncoding.DecodeString(r.Header.Get("Sec-Websocket-Key"))
	if err != nil || len(key) != 16 {
		return errors.New("invalid Sec-WebSocket-Key")
	}
	return nil
}

// Hub tracks the live connections of every room
type Hub struct {
	// Registered clients by room ID
	rooms map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	counts     chan chan map[string]int
	done       chan struct{}

	// Send pings to peers with this period
	pingPeriod time.Duration

	logger *slog.Logger
}

// HubOption configures a Hub
type HubOption func(*Hub)

// WithPingPeriod overrides how often idle connections are pinged. Values
// that are not below pongWait are ignored.
func WithPingPeriod(d time.Duration) HubOption {
	return func(h *Hub) {
		if d > 0 && d < pongWait {
			h.pingPeriod = d
		}
	}
}

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger, opts ...HubOption) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		counts:     make(chan chan map[string]int),
		done:       make(chan struct{}),
		pingPeriod: defaultPingPeriod,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run starts the hub's event loop. When ctx is cancelled every live
// connection is closed and Run returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case reply := <-h.counts:
			counts := make(map[string]int, len(h.rooms))
			for roomID, clients := range h.rooms {
				counts[roomID] = len(clients)
			}
			reply <- counts

		case <-ctx.Done():
			h.closeAll()
			return
		}
	}
}

// ServeWS upgrades the request and starts the pumps for a player whose
// join already succeeded with out attached. If no connection comes up the
// join is withdrawn so the player can try again.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, gw Gateway, roomID string, playerID engine.PlayerID, out room.Outbox) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "room_id", roomID, "player_id", playerID, "error", err)
		h.withdraw(gw, roomID, playerID, out)
		return
	}

	client := &Client{
		hub:      h,
		conn:     conn,
		gateway:  gw,
		roomID:   roomID,
		playerID: playerID,
		outbox:   out,
		errs:     make(chan ServerMessage, errorQueueSize),
		logger:   h.logger.With("room_id", roomID, "player_id", playerID),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		h.withdraw(gw, roomID, playerID, out)
		return
	}

	go client.writePump()
	go client.readPump()
}

func (h *Hub) withdraw(gw Gateway, roomID string, playerID engine.PlayerID, out room.Outbox) {
	if err := gw.WithdrawJoin(context.Background(), roomID, playerID, out); err != nil {
		h.logger.Warn("join kept after failed connection", "room_id", roomID, "player_id", playerID, "error", err)
	}
}

// ClientCounts returns the number of live connections per room
func (h *Hub) ClientCounts() map[string]int {
	reply := make(chan map[string]int, 1)
	select {
	case h.counts <- reply:
		return <-reply
	case <-h.done:
		return map[string]int{}
	}
}

// TotalClients returns the number of live connections across all rooms
func (h *Hub) TotalClients() int {
	total := 0
	for _, n := range h.ClientCounts() {
		total += n
	}
	return total
}

// Done is closed once Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// registerClient adds a client to a room
func (h *Hub) registerClient(client *Client) {
	if h.rooms[client.roomID] == nil {
		h.rooms[client.roomID] = make(map[*Client]bool)
	}
	h.rooms[client.roomID][client] = true

	h.logger.Debug("client registered", "room_id", client.roomID, "player_id", client.playerID,
		"clients", len(h.rooms[client.roomID]))
}

// unregisterClient removes a client from a room
func (h *Hub) unregisterClient(client *Client) {
	clients, ok := h.rooms[client.roomID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.rooms, client.roomID)
	}

	h.logger.Debug("client unregistered", "room_id", client.roomID, "player_id", client.playerID,
		"clients", len(clients))
}

// closeAll closes every connection; the pumps notice and detach their players
func (h *Hub) closeAll() {
	n := 0
	for _, clients := range h.rooms {
		for client := range clients {
			client.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			client.conn.Close()
			n++
		}
	}
	h.rooms = make(map[string]map[*Client]bool)
	h.logger.Info("closed websocket connections", "count", n)
}
