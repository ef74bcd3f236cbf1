package engine

import "fmt"

// ErrorKind classifies a rejected command.
type ErrorKind string

const (
	KindRoomNotFound      ErrorKind = "room_not_found"
	KindRoomFull          ErrorKind = "room_full"
	KindUnknownPlayer     ErrorKind = "unknown_player"
	KindDuplicatePlayer   ErrorKind = "duplicate_player"
	KindWrongPhase        ErrorKind = "wrong_phase"
	KindInvalidPlacement  ErrorKind = "invalid_placement"
	KindInvalidCoordinate ErrorKind = "invalid_coordinate"
	KindDuplicateAttack   ErrorKind = "duplicate_attack"
	KindNotYourTurn       ErrorKind = "not_your_turn"
	KindMalformedMessage  ErrorKind = "malformed_message"
)

// GameError is a rejection returned by the state machine or the room layer.
// It never implies a state change.
type GameError struct {
	Kind   ErrorKind `json:"kind"`
	Detail string    `json:"message,omitempty"`
}

func (e *GameError) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

// Is matches any GameError of the same kind, so the sentinels below work
// with errors.Is regardless of detail.
func (e *GameError) Is(target error) bool {
	t, ok := target.(*GameError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrRoomNotFound      = &GameError{Kind: KindRoomNotFound}
	ErrRoomFull          = &GameError{Kind: KindRoomFull}
	ErrUnknownPlayer     = &GameError{Kind: KindUnknownPlayer}
	ErrDuplicatePlayer   = &GameError{Kind: KindDuplicatePlayer}
	ErrWrongPhase        = &GameError{Kind: KindWrongPhase}
	ErrInvalidPlacement  = &GameError{Kind: KindInvalidPlacement}
	ErrInvalidCoordinate = &GameError{Kind: KindInvalidCoordinate}
	ErrDuplicateAttack   = &GameError{Kind: KindDuplicateAttack}
	ErrNotYourTurn       = &GameError{Kind: KindNotYourTurn}
	ErrMalformedMessage  = &GameError{Kind: KindMalformedMessage}
)

// NewError builds a GameError with a formatted detail.
func NewError(kind ErrorKind, format string, args ...any) *GameError {
	return &GameError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}
