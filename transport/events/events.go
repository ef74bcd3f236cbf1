package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/wricardo/battleship-server/game/engine"
)

// Type names a room lifecycle event
type Type string

const (
	RoomCreated  Type = "room.created"
	PlayerJoined Type = "player.joined"
	PlayerLeft   Type = "player.left"
	GameStarted  Type = "game.started"
	GameFinished Type = "game.finished"
	RoomRemoved  Type = "room.removed"
)

// DefaultSubjectPrefix is prepended to every published subject
const DefaultSubjectPrefix = "battleship.rooms"

// Event is a room lifecycle notification. It never carries board contents.
type Event struct {
	Type      Type              `json:"type"`
	RoomID    string            `json:"room_id"`
	Player    engine.PlayerID   `json:"player,omitempty"`
	Players   []engine.PlayerID `json:"players,omitempty"`
	Winner    engine.PlayerID   `json:"winner,omitempty"`
	Phase     engine.PhaseKind  `json:"phase,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Publisher delivers room events to interested parties
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// NATSPublisher publishes events as JSON on core NATS subjects of the form
// <prefix>.<room id>.<event type>.
type NATSPublisher struct {
	conn   *nats.Conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	conn, err := nats.Connect(url,
		nats.Name("battleship-server"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.PingInterval(20*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATSPublisher{conn: conn, prefix: prefix, logger: logger}, nil
}

// Publish implements Publisher
func (p *NATSPublisher) Publish(ctx context.Context, evt Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.conn.Publish(Subject(p.prefix, evt), data); err != nil {
		return fmt.Errorf("failed to publish %s: %w", evt.Type, err)
	}
	return nil
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// Subject returns the NATS subject an event is published on
func Subject(prefix string, evt Event) string {
	return fmt.Sprintf("%s.%s.%s", prefix, evt.RoomID, evt.Type)
}
