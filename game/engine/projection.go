package engine

// View is the information one player is allowed to see about a room.
type View struct {
	Phase         PhaseKind  `json:"phase"`
	You           PlayerID   `json:"you"`
	Players       []PlayerID `json:"players"`
	Opponent      PlayerID   `json:"opponent,omitempty"`
	YouReady      bool       `json:"you_ready"`
	OpponentReady bool       `json:"opponent_ready"`
	Turn          PlayerID   `json:"turn,omitempty"`
	YourTurn      bool       `json:"your_turn"`
	Winner        PlayerID   `json:"winner,omitempty"`
	Width         int        `json:"width"`
	Height        int        `json:"height"`
	Fleet         []ShipSpec `json:"fleet"`
	OwnBoard      [][]Cell   `json:"own_board,omitempty"`
	OpponentBoard [][]Cell   `json:"opponent_board,omitempty"`
}

// ProjectFor renders p for viewer. The viewer's board is shown as is; on
// the opponent's board unhit ship segments are rendered as empty.
func (e *Engine) ProjectFor(p Phase, viewer PlayerID) View {
	v := View{
		Phase:   p.Kind(),
		You:     viewer,
		Players: p.Members(),
		Width:   e.rules.Width,
		Height:  e.rules.Height,
		Fleet:   e.rules.Fleet,
	}

	var (
		players [2]PlayerID
		boards  map[PlayerID]Board
	)
	switch ph := p.(type) {
	case AwaitingPlayers:
		return v
	case Placing:
		players, boards = ph.Players, ph.Boards
		v.YouReady = ph.Ready[viewer]
		if opp, ok := opponentOf(players, viewer); ok {
			v.OpponentReady = ph.Ready[opp]
		}
	case Attacking:
		players, boards = ph.Players, ph.Boards
		v.YouReady, v.OpponentReady = true, true
		v.Turn = ph.Turn
		v.YourTurn = ph.Turn == viewer
	case Win:
		players, boards = ph.Players, ph.Boards
		v.YouReady, v.OpponentReady = true, true
		v.Winner = ph.Winner
	}

	opp, member := opponentOf(players, viewer)
	if !member {
		return v
	}
	v.Opponent = opp
	v.OwnBoard = e.render(boards[viewer], false)
	v.OpponentBoard = e.render(boards[opp], true)
	return v
}

func (e *Engine) render(b Board, masked bool) [][]Cell {
	grid := make([][]Cell, e.rules.Height)
	for y := range grid {
		grid[y] = make([]Cell, e.rules.Width)
		for x := range grid[y] {
			cell := b.At(Coordinate{X: x, Y: y})
			if masked && cell == Ship {
				cell = Empty
			}
			grid[y][x] = cell
		}
	}
	return grid
}
