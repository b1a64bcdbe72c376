// Package game holds the Snake & Ladder board rules and the message
// schema two paired clients exchange through the relay. It is pure
// state-machine logic with no rendering or transport concerns.
package game

import (
	"crypto/rand"
	"errors"
	"fmt"
)

// Board tables: landing on a key square moves the token to its value.
var (
	Snakes = map[int]int{
		98: 78,
		95: 56,
		87: 24,
		62: 18,
		54: 34,
		16: 6,
	}

	Ladders = map[int]int{
		1:  38,
		4:  14,
		9:  21,
		28: 84,
		36: 44,
		51: 67,
		71: 91,
		80: 100,
	}
)

const (
	// WinningSquare ends the game; a roll that would overshoot it
	// forfeits the move instead.
	WinningSquare = 100

	// NoWinner is the Winner value while the game is in progress.
	NoWinner = -1
)

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrGameOver    = errors.New("game is over")
)

// Roll returns a fair die value in [1, 6].
func Roll() int {
	// Rejection sampling keeps the die unbiased: 252 is the largest
	// multiple of 6 that fits in a byte.
	for {
		var b [1]byte
		if _, err := rand.Read(b[:]); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		if b[0] < 252 {
			return int(b[0])%6 + 1
		}
	}
}

// Outcome describes the effect of a single move.
type Outcome struct {
	From  int
	To    int
	Moved bool // false when the roll overshoots the winning square
	Snake bool // landed on a snake's head
	Climb bool // landed on a ladder's foot
	Won   bool
}

// State is the shared game state synchronized between peers.
type State struct {
	Positions     []int `json:"positions"`
	CurrentPlayer int   `json:"current_player"`
}

// Game tracks a two-player match. Position 0 means the token has not
// entered the board yet.
type Game struct {
	Positions [2]int
	Current   int
	Winner    int
}

func New() *Game {
	return &Game{Winner: NoWinner}
}

// Move applies a die roll for player. Overshooting the winning square
// forfeits the move; either way the turn passes unless the move won.
func (g *Game) Move(player, dice int) (Outcome, error) {
	if g.Winner != NoWinner {
		return Outcome{}, ErrGameOver
	}
	if player != g.Current {
		return Outcome{}, ErrNotYourTurn
	}
	if dice < 1 || dice > 6 {
		return Outcome{}, fmt.Errorf("invalid die value: %d", dice)
	}

	from := g.Positions[player]

	next := from + dice
	if from == 0 {
		next = dice
	}

	if next > WinningSquare {
		g.SwitchTurn()
		return Outcome{From: from, To: from}, nil
	}

	out := Outcome{From: from, Moved: true}

	if top, ok := Ladders[next]; ok {
		next = top
		out.Climb = true
	} else if tail, ok := Snakes[next]; ok {
		next = tail
		out.Snake = true
	}

	g.Positions[player] = next
	out.To = next

	if next >= WinningSquare {
		g.Winner = player
		out.Won = true
		return out, nil
	}

	g.SwitchTurn()
	return out, nil
}

// SetPosition applies a position reported by the remote player,
// bypassing local move validation.
func (g *Game) SetPosition(player, position int) error {
	if player < 0 || player > 1 {
		return fmt.Errorf("invalid player index: %d", player)
	}
	if position < 0 || position > WinningSquare {
		return fmt.Errorf("invalid position: %d", position)
	}

	g.Positions[player] = position
	if position == WinningSquare {
		g.Winner = player
	}
	return nil
}

func (g *Game) SwitchTurn() {
	g.Current = 1 - g.Current
}

// State snapshots the synchronizable portion of the game.
func (g *Game) State() State {
	return State{
		Positions:     []int{g.Positions[0], g.Positions[1]},
		CurrentPlayer: g.Current,
	}
}

// Sync overwrites local state with a peer's game_sync snapshot.
func (g *Game) Sync(state State) {
	for i, pos := range state.Positions {
		if i > 1 {
			break
		}
		g.Positions[i] = pos
	}
	if state.CurrentPlayer == 0 || state.CurrentPlayer == 1 {
		g.Current = state.CurrentPlayer
	}
}

func (g *Game) Reset() {
	g.Positions = [2]int{}
	g.Current = 0
	g.Winner = NoWinner
}
