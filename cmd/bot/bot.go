package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/wricardo/battleship-server/game/engine"
	protocol "github.com/wricardo/battleship-server/transport/websocket"
)

// Result is the outcome of one game as seen by a bot
type Result struct {
	RoomID string
	Winner engine.PlayerID
	Won    bool
	Shots  int
}

// Bot plays one seat of a room over the WebSocket protocol
type Bot struct {
	baseURL string
	player  engine.PlayerID
	rng     *rand.Rand
	delay   time.Duration
	logger  *slog.Logger
	dialer  *gws.Dialer
}

// NewBot creates a bot that joins rooms on the server at baseURL
func NewBot(baseURL string, player engine.PlayerID, seed int64, delay time.Duration, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		player:  player,
		rng:     rand.New(rand.NewSource(seed)),
		delay:   delay,
		logger:  logger.With("player", string(player)),
		dialer:  &gws.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// CreateRoom asks the server for a new room and returns its id
func CreateRoom(ctx context.Context, client *http.Client, baseURL, ruleset string) (string, error) {
	endpoint := strings.TrimSuffix(baseURL, "/") + "/createGame"
	if ruleset != "" {
		endpoint += "?ruleset=" + url.QueryEscape(ruleset)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create room failed: %s - %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}

func (b *Bot) joinURL(roomID string) (string, error) {
	u, err := url.Parse(b.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/join/" + roomID + "/" + string(b.player)
	return u.String(), nil
}

// Play joins roomID and plays until the game is won or ctx is cancelled
func (b *Bot) Play(ctx context.Context, roomID string) (*Result, error) {
	target, err := b.joinURL(roomID)
	if err != nil {
		return nil, err
	}

	conn, resp, err := b.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, fmt.Errorf("join rejected: %s - %s", resp.Status, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("dial %s: %w", target, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	b.logger.Info("joined room", "room_id", roomID)

	result := &Result{RoomID: roomID}
	targeter := NewTargeter(b.rng)
	var (
		last       *engine.View
		placed     bool
		lastTarget *engine.Coordinate
	)

	for {
		var msg protocol.ServerMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("connection lost: %w", err)
		}

		switch msg.Event {
		case protocol.EventError:
			if msg.Error == nil {
				continue
			}
			b.logger.Warn("action rejected", "kind", msg.Error.Kind, "message", msg.Error.Detail)
			retry := false
			if errors.Is(msg.Error, engine.ErrInvalidPlacement) {
				placed, retry = false, true
			}
			if lastTarget != nil && (errors.Is(msg.Error, engine.ErrDuplicateAttack) || errors.Is(msg.Error, engine.ErrInvalidCoordinate)) {
				targeter.Skip(*lastTarget)
				lastTarget, retry = nil, true
			}
			// retry against the last known state
			if !retry || last == nil {
				continue
			}
		case protocol.EventState:
			if msg.State == nil {
				continue
			}
			last = msg.State
		default:
			continue
		}

		switch last.Phase {
		case engine.PhasePlacing:
			if placed || last.YouReady {
				continue
			}
			placements, err := RandomFleet(b.rng, last.Width, last.Height, last.Fleet)
			if err != nil {
				return nil, err
			}
			if err := b.send(conn, protocol.ClientMessage{Type: protocol.TypePlaceShips, Placements: placements}); err != nil {
				return nil, err
			}
			placed = true
			b.logger.Info("fleet placed", "ships", len(placements))

		case engine.PhaseAttacking:
			if !last.YourTurn {
				continue
			}
			c, ok := targeter.Next(last.OpponentBoard)
			if !ok {
				return nil, fmt.Errorf("no cells left to attack")
			}
			b.pause(ctx)
			if err := b.send(conn, protocol.ClientMessage{Type: protocol.TypeAttackShips, Coordinate: &c}); err != nil {
				return nil, err
			}
			lastTarget = &c
			result.Shots++
			b.logger.Debug("attack", "target", c.String())

		case engine.PhaseWin:
			result.Winner = last.Winner
			result.Won = last.Winner == b.player
			b.logger.Info("game over", "winner", string(last.Winner), "won", result.Won, "shots", result.Shots)
			conn.WriteControl(gws.CloseMessage,
				gws.FormatCloseMessage(gws.CloseNormalClosure, "game over"),
				time.Now().Add(time.Second))
			return result, nil
		}
	}
}

func (b *Bot) send(conn *gws.Conn, msg protocol.ClientMessage) error {
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("send %s: %w", msg.Type, err)
	}
	return nil
}

func (b *Bot) pause(ctx context.Context) {
	if b.delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(b.delay):
	}
}
