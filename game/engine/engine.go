package engine

import "fmt"

// Engine applies the game rules for one ruleset. Its transitions are pure:
// they never mutate the phase they receive and either return the next phase
// or a *GameError with the prior phase left intact.
type Engine struct {
	rules *Ruleset
}

// NewEngine creates an engine for the provided ruleset
func NewEngine(rules *Ruleset) (*Engine, error) {
	if rules == nil {
		rules = ClassicRuleset()
	}
	if err := ValidateRuleset(rules); err != nil {
		return nil, err
	}
	return &Engine{rules: rules}, nil
}

// Rules returns the ruleset the engine enforces.
func (e *Engine) Rules() *Ruleset {
	return e.rules
}

// Join adds a player to a room that is still waiting for players.
func (e *Engine) Join(p Phase, id PlayerID) (Phase, error) {
	switch ph := p.(type) {
	case AwaitingPlayers:
		if id == "" {
			return p, NewError(KindUnknownPlayer, "player id is required")
		}
		for _, existing := range ph.Players {
			if existing == id {
				return p, NewError(KindDuplicatePlayer, "player %q already joined", id)
			}
		}
		if len(ph.Players) >= 2 {
			return p, NewError(KindRoomFull, "room already has two players")
		}
		if len(ph.Players) == 0 {
			return AwaitingPlayers{Players: []PlayerID{id}}, nil
		}
		players := [2]PlayerID{ph.Players[0], id}
		return Placing{
			Players: players,
			Boards:  map[PlayerID]Board{players[0]: {}, players[1]: {}},
			Ready:   map[PlayerID]bool{},
		}, nil
	case Placing:
		return p, joinStarted(ph.Players, id)
	case Attacking:
		return p, joinStarted(ph.Players, id)
	case Win:
		return p, NewError(KindWrongPhase, "cannot join a finished game")
	default:
		return p, unknownPhase(p)
	}
}

func joinStarted(players [2]PlayerID, id PlayerID) error {
	if id == players[0] || id == players[1] {
		return NewError(KindDuplicatePlayer, "player %q already joined", id)
	}
	return NewError(KindRoomFull, "room already has two players")
}

// Withdraw takes back a join. It only succeeds while nothing has been built
// on that join: before the second player arrives, or while placing with no
// fleet submitted yet, in which case the room goes back to waiting.
func (e *Engine) Withdraw(p Phase, id PlayerID) (Phase, error) {
	switch ph := p.(type) {
	case AwaitingPlayers:
		players := make([]PlayerID, 0, len(ph.Players))
		for _, existing := range ph.Players {
			if existing != id {
				players = append(players, existing)
			}
		}
		if len(players) == len(ph.Players) {
			return p, NewError(KindUnknownPlayer, "player %q is not in this room", id)
		}
		return AwaitingPlayers{Players: players}, nil
	case Placing:
		other, member := opponentOf(ph.Players, id)
		if !member {
			return p, NewError(KindUnknownPlayer, "player %q is not in this room", id)
		}
		if len(ph.Ready) > 0 {
			return p, NewError(KindWrongPhase, "cannot withdraw after ships were placed")
		}
		return AwaitingPlayers{Players: []PlayerID{other}}, nil
	default:
		return p, wrongPhase(p, "withdraw")
	}
}

// PlaceShips records a player's fleet. The whole submission is validated
// before anything is recorded.
func (e *Engine) PlaceShips(p Phase, id PlayerID, placements []ShipPlacement) (Phase, error) {
	ph, ok := p.(Placing)
	if !ok {
		return p, wrongPhase(p, "place ships")
	}
	if _, member := opponentOf(ph.Players, id); !member {
		return p, NewError(KindUnknownPlayer, "player %q is not in this room", id)
	}
	if ph.Ready[id] {
		return p, NewError(KindWrongPhase, "ships already placed")
	}

	board, err := e.BuildBoard(placements)
	if err != nil {
		return p, err
	}

	boards := cloneBoards(ph.Boards)
	boards[id] = board
	ready := cloneReady(ph.Ready)
	ready[id] = true

	if ready[ph.Players[0]] && ready[ph.Players[1]] {
		return Attacking{
			Players: ph.Players,
			Boards:  boards,
			Turn:    ph.Players[0],
		}, nil
	}
	return Placing{Players: ph.Players, Boards: boards, Ready: ready}, nil
}

// AttackShips fires at a coordinate on the opponent's board.
func (e *Engine) AttackShips(p Phase, id PlayerID, target Coordinate) (Phase, error) {
	ph, ok := p.(Attacking)
	if !ok {
		return p, wrongPhase(p, "attack")
	}
	opponent, member := opponentOf(ph.Players, id)
	if !member {
		return p, NewError(KindUnknownPlayer, "player %q is not in this room", id)
	}
	if ph.Turn != id {
		return p, NewError(KindNotYourTurn, "it is %s's turn", ph.Turn)
	}
	if !e.rules.InBounds(target) {
		return p, NewError(KindInvalidCoordinate, "%s is outside the %dx%d grid", target, e.rules.Width, e.rules.Height)
	}

	current := ph.Boards[opponent]
	switch current.At(target) {
	case Hit, Miss:
		return p, NewError(KindDuplicateAttack, "%s was already attacked", target)
	}

	board := current.Clone()
	if board.At(target) == Ship {
		board[target] = Hit
	} else {
		board[target] = Miss
	}
	boards := cloneBoards(ph.Boards)
	boards[opponent] = board

	if board.Remaining() == 0 {
		return Win{Players: ph.Players, Boards: boards, Winner: id}, nil
	}
	return Attacking{Players: ph.Players, Boards: boards, Turn: opponent}, nil
}

func wrongPhase(p Phase, action string) error {
	return NewError(KindWrongPhase, "cannot %s while %s", action, p.Kind())
}

func unknownPhase(p Phase) error {
	return fmt.Errorf("unknown phase %T", p)
}
