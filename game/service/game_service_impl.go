package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	rooms    RoomRegistry
	rulesets RulesetCatalog
	logger   *slog.Logger
}

// NewGameService creates a new game service instance
func NewGameService(rooms RoomRegistry, rulesets RulesetCatalog, logger *slog.Logger) GameService {
	if logger == nil {
		logger = slog.Default()
	}
	return &gameServiceImpl{
		rooms:    rooms,
		rulesets: rulesets,
		logger:   logger,
	}
}

// CreateRoom creates a room playing the named ruleset, or the default one
// when name is empty
func (s *gameServiceImpl) CreateRoom(ctx context.Context, name string) (*RoomInfo, error) {
	rules, err := s.resolveRuleset(name)
	if err != nil {
		return nil, err
	}

	r, err := s.rooms.Create(rules)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	return &RoomInfo{Summary: r.Summary(), Rules: r.Rules()}, nil
}

func (s *gameServiceImpl) resolveRuleset(name string) (*engine.Ruleset, error) {
	if name == "" {
		return s.rulesets.GetDefault(), nil
	}

	rules, err := s.rulesets.LoadRuleset(name)
	if err == nil {
		return rules, nil
	}
	if !errors.Is(err, ErrRulesetNotFound) {
		return nil, fmt.Errorf("failed to load ruleset %s: %w", name, err)
	}

	// Provide helpful error message with available options
	available, listErr := s.rulesets.ListRulesets()
	if listErr == nil && len(available) > 0 {
		ids := make([]string, 0, len(available))
		for _, info := range available {
			ids = append(ids, info.RulesetID)
		}
		return nil, fmt.Errorf("%w: '%s'. Available rulesets: %v", ErrRulesetNotFound, name, ids)
	}
	return nil, fmt.Errorf("%w: '%s'. Use /rulesets to list available rulesets", ErrRulesetNotFound, name)
}

// GetRoom returns the summary and ruleset of one room
func (s *gameServiceImpl) GetRoom(ctx context.Context, roomID string) (*RoomInfo, error) {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return nil, err
	}
	return &RoomInfo{Summary: r.Summary(), Rules: r.Rules()}, nil
}

// ListRooms returns every room, oldest first
func (s *gameServiceImpl) ListRooms(ctx context.Context) ([]*RoomInfo, error) {
	summaries := s.rooms.List()
	result := make([]*RoomInfo, 0, len(summaries))
	for _, summary := range summaries {
		result = append(result, &RoomInfo{Summary: summary})
	}
	return result, nil
}

// CleanupIdleRooms drops abandoned rooms and returns how many were removed
func (s *gameServiceImpl) CleanupIdleRooms(ctx context.Context, maxAge time.Duration) int {
	removed := s.rooms.CleanupIdleRooms(maxAge)
	if removed > 0 {
		s.logger.Info("cleaned up idle rooms", "removed", removed, "max_age", maxAge)
	}
	return removed
}

// JoinRoom admits playerID and attaches out to the room. On error out is
// not attached and receives nothing.
func (s *gameServiceImpl) JoinRoom(ctx context.Context, roomID string, playerID engine.PlayerID, out room.Outbox) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}

	if err := r.Join(playerID, out); err != nil {
		s.logger.Debug("join rejected", "room_id", roomID, "player_id", playerID, "error", err)
		return fmt.Errorf("failed to join room %s: %w", roomID, err)
	}

	s.logger.Info("player joined", "room_id", roomID, "player_id", playerID)
	return nil
}

// LeaveRoom detaches out from the room. The player stays a member of the game.
func (s *gameServiceImpl) LeaveRoom(ctx context.Context, roomID string, playerID engine.PlayerID, out room.Outbox) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}

	if r.Detach(playerID, out) {
		s.logger.Info("player disconnected", "room_id", roomID, "player_id", playerID)
	}
	return nil
}

// WithdrawJoin undoes a join whose connection could not be established, so
// the player can join again. If the game already moved on, out is still
// detached and the error explains why membership was kept.
func (s *gameServiceImpl) WithdrawJoin(ctx context.Context, roomID string, playerID engine.PlayerID, out room.Outbox) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}

	if err := r.Withdraw(playerID, out); err != nil {
		return fmt.Errorf("failed to withdraw %s from room %s: %w", playerID, roomID, err)
	}

	s.logger.Info("join withdrawn", "room_id", roomID, "player_id", playerID)
	return nil
}

// PlaceShips submits a fleet placement
func (s *gameServiceImpl) PlaceShips(ctx context.Context, roomID string, playerID engine.PlayerID, placements []engine.ShipPlacement) error {
	return s.submit(roomID, engine.PlaceShipsCommand{PlayerID: playerID, Placements: placements})
}

// AttackShips submits a shot at the opponent's board
func (s *gameServiceImpl) AttackShips(ctx context.Context, roomID string, playerID engine.PlayerID, target engine.Coordinate) error {
	return s.submit(roomID, engine.AttackShipsCommand{PlayerID: playerID, Coordinate: target})
}

func (s *gameServiceImpl) submit(roomID string, cmd engine.Command) error {
	r, err := s.rooms.Get(roomID)
	if err != nil {
		return err
	}

	if err := r.Apply(cmd); err != nil {
		s.logger.Debug("command rejected", "room_id", roomID, "player_id", cmd.Player(), "error", err)
		return err
	}
	return nil
}

// ListRulesets returns every ruleset the catalog can load
func (s *gameServiceImpl) ListRulesets(ctx context.Context) ([]*RulesetInfo, error) {
	rulesets, err := s.rulesets.ListRulesets()
	if err != nil {
		return nil, fmt.Errorf("failed to list rulesets: %w", err)
	}
	return rulesets, nil
}
