package engine

// Command is a player-attributed action submitted to a room.
type Command interface {
	Player() PlayerID
	Apply(e *Engine, p Phase) (Phase, error)
}

type JoinCommand struct {
	PlayerID PlayerID
}

type PlaceShipsCommand struct {
	PlayerID   PlayerID
	Placements []ShipPlacement
}

type AttackShipsCommand struct {
	PlayerID   PlayerID
	Coordinate Coordinate
}

func (c JoinCommand) Player() PlayerID        { return c.PlayerID }
func (c PlaceShipsCommand) Player() PlayerID  { return c.PlayerID }
func (c AttackShipsCommand) Player() PlayerID { return c.PlayerID }

func (c JoinCommand) Apply(e *Engine, p Phase) (Phase, error) {
	return e.Join(p, c.PlayerID)
}

func (c PlaceShipsCommand) Apply(e *Engine, p Phase) (Phase, error) {
	return e.PlaceShips(p, c.PlayerID, c.Placements)
}

func (c AttackShipsCommand) Apply(e *Engine, p Phase) (Phase, error) {
	return e.AttackShips(p, c.PlayerID, c.Coordinate)
}
