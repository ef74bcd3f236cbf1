package websocket

import (
	"encoding/json"
	"errors"

	"github.com/wricardo/battleship-server/game/engine"
	"github.com/wricardo/battleship-server/game/room"
)

// Client message types
const (
	TypePlaceShips  = "PlaceShips"
	TypeAttackShips = "AttackShips"
)

// Server frame events
const (
	EventState = "state"
	EventError = "error"
)

// kindInternal is reported for failures that are not game rejections
const kindInternal engine.ErrorKind = "internal_error"

// ClientMessage is one frame sent by a player
type ClientMessage struct {
	Type       string                 `json:"type"`
	Placements []engine.ShipPlacement `json:"placements,omitempty"`
	Coordinate *engine.Coordinate     `json:"coordinate,omitempty"`
}

// ServerMessage is one frame sent to a player
type ServerMessage struct {
	Event  string            `json:"event"`
	RoomID string            `json:"room_id"`
	State  *engine.View      `json:"state,omitempty"`
	Error  *engine.GameError `json:"error,omitempty"`
}

// DecodeClientMessage parses and checks a client frame. Any failure is a
// malformed_message GameError.
func DecodeClientMessage(data []byte) (*ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, engine.NewError(engine.KindMalformedMessage, "invalid JSON: %v", err)
	}

	switch msg.Type {
	case TypePlaceShips:
	case TypeAttackShips:
		if msg.Coordinate == nil {
			return nil, engine.NewError(engine.KindMalformedMessage, "AttackShips requires a coordinate")
		}
	case "":
		return nil, engine.NewError(engine.KindMalformedMessage, "missing message type")
	default:
		return nil, engine.NewError(engine.KindMalformedMessage, "unknown message type %q", msg.Type)
	}
	return &msg, nil
}

func stateFrame(u room.Update) ServerMessage {
	view := u.View
	return ServerMessage{Event: EventState, RoomID: u.RoomID, State: &view}
}

func errorFrame(roomID string, err error) ServerMessage {
	var ge *engine.GameError
	if !errors.As(err, &ge) {
		ge = &engine.GameError{Kind: kindInternal, Detail: err.Error()}
	}
	detail := ge.Detail
	if detail == "" {
		detail = string(ge.Kind)
	}
	return ServerMessage{
		Event:  EventError,
		RoomID: roomID,
		Error:  &engine.GameError{Kind: ge.Kind, Detail: detail},
	}
}
