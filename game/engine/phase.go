package engine

// PhaseKind is the discriminant of a Phase.
type PhaseKind string

const (
	PhaseAwaitingPlayers PhaseKind = "awaiting_players"
	PhasePlacing         PhaseKind = "placing"
	PhaseAttacking       PhaseKind = "attacking"
	PhaseWin             PhaseKind = "win"
)

// Phase is the state of one room. The set of implementations is closed:
// AwaitingPlayers, Placing, Attacking and Win.
type Phase interface {
	Kind() PhaseKind
	// Members returns the joined players in join order.
	Members() []PlayerID
	phase()
}

// AwaitingPlayers is the initial phase; it accepts joins until two players are present.
type AwaitingPlayers struct {
	Players []PlayerID
}

// Placing waits for both players to submit a fleet.
type Placing struct {
	Players [2]PlayerID
	Boards  map[PlayerID]Board
	Ready   map[PlayerID]bool
}

// Attacking alternates attacks between the players. Turn always holds one of Players.
type Attacking struct {
	Players [2]PlayerID
	Boards  map[PlayerID]Board
	Turn    PlayerID
}

// Win is terminal.
type Win struct {
	Players [2]PlayerID
	Boards  map[PlayerID]Board
	Winner  PlayerID
}

func (AwaitingPlayers) Kind() PhaseKind { return PhaseAwaitingPlayers }
func (Placing) Kind() PhaseKind         { return PhasePlacing }
func (Attacking) Kind() PhaseKind       { return PhaseAttacking }
func (Win) Kind() PhaseKind             { return PhaseWin }

func (p AwaitingPlayers) Members() []PlayerID {
	return append([]PlayerID(nil), p.Players...)
}
func (p Placing) Members() []PlayerID   { return p.Players[:] }
func (p Attacking) Members() []PlayerID { return p.Players[:] }
func (p Win) Members() []PlayerID       { return p.Players[:] }

func (AwaitingPlayers) phase() {}
func (Placing) phase()         {}
func (Attacking) phase()       {}
func (Win) phase()             {}

// NewGame returns the initial phase of a fresh room.
func NewGame() Phase {
	return AwaitingPlayers{}
}

// HasEnded reports whether p is terminal.
func HasEnded(p Phase) bool {
	_, ok := p.(Win)
	return ok
}

// opponentOf returns the other member of a two-player roster.
func opponentOf(players [2]PlayerID, id PlayerID) (PlayerID, bool) {
	switch id {
	case players[0]:
		return players[1], true
	case players[1]:
		return players[0], true
	}
	return "", false
}

func cloneBoards(in map[PlayerID]Board) map[PlayerID]Board {
	out := make(map[PlayerID]Board, len(in))
	for id, b := range in {
		out[id] = b
	}
	return out
}

func cloneReady(in map[PlayerID]bool) map[PlayerID]bool {
	out := make(map[PlayerID]bool, len(in))
	for id, r := range in {
		out[id] = r
	}
	return out
}
