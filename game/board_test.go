package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollBounds(t *testing.T) {
	seen := make(map[int]bool)
	for i := 0; i < 1000; i++ {
		v := Roll()
		require.GreaterOrEqual(t, v, 1)
		require.LessOrEqual(t, v, 6)
		seen[v] = true
	}
	// Every face should show up in a thousand rolls.
	assert.Len(t, seen, 6)
}

func TestFirstMoveEntersBoard(t *testing.T) {
	g := New()

	out, err := g.Move(0, 3)
	require.NoError(t, err)

	assert.True(t, out.Moved)
	assert.Equal(t, 0, out.From)
	assert.Equal(t, 3, out.To)
	assert.Equal(t, 3, g.Positions[0])
	assert.Equal(t, 1, g.Current)
}

func TestLadderClimb(t *testing.T) {
	g := New()

	// First square is a ladder foot: entering on a roll of 1 climbs
	// straight to 38.
	out, err := g.Move(0, 1)
	require.NoError(t, err)

	assert.True(t, out.Climb)
	assert.False(t, out.Snake)
	assert.Equal(t, 38, out.To)
	assert.Equal(t, 38, g.Positions[0])
}

func TestSnakeBite(t *testing.T) {
	g := New()
	g.Positions[0] = 12

	out, err := g.Move(0, 4) // lands on 16, snake down to 6
	require.NoError(t, err)

	assert.True(t, out.Snake)
	assert.Equal(t, 6, out.To)
	assert.Equal(t, 6, g.Positions[0])
}

func TestOvershootForfeitsMove(t *testing.T) {
	g := New()
	g.Positions[0] = 98

	out, err := g.Move(0, 6)
	require.NoError(t, err)

	assert.False(t, out.Moved)
	assert.Equal(t, 98, g.Positions[0])
	assert.Equal(t, 1, g.Current, "turn passes after an overshoot")
	assert.Equal(t, NoWinner, g.Winner)
}

func TestExactLandingWins(t *testing.T) {
	g := New()
	g.Positions[0] = 97

	out, err := g.Move(0, 3)
	require.NoError(t, err)

	assert.True(t, out.Won)
	assert.Equal(t, WinningSquare, g.Positions[0])
	assert.Equal(t, 0, g.Winner)
	assert.Equal(t, 0, g.Current, "no turn switch after a win")

	_, err = g.Move(1, 2)
	require.ErrorIs(t, err, ErrGameOver)
}

func TestLadderToWinningSquare(t *testing.T) {
	g := New()
	g.Positions[0] = 78

	out, err := g.Move(0, 2) // lands on 80, ladder to 100
	require.NoError(t, err)

	assert.True(t, out.Climb)
	assert.True(t, out.Won)
	assert.Equal(t, 0, g.Winner)
}

func TestMoveValidation(t *testing.T) {
	g := New()

	_, err := g.Move(1, 3)
	require.ErrorIs(t, err, ErrNotYourTurn)

	_, err = g.Move(0, 7)
	require.Error(t, err)

	_, err = g.Move(0, 0)
	require.Error(t, err)
}

func TestSetPosition(t *testing.T) {
	g := New()

	require.NoError(t, g.SetPosition(1, 44))
	assert.Equal(t, 44, g.Positions[1])

	require.NoError(t, g.SetPosition(1, WinningSquare))
	assert.Equal(t, 1, g.Winner)

	require.Error(t, g.SetPosition(2, 10))
	require.Error(t, g.SetPosition(0, 101))
}

func TestSyncAndReset(t *testing.T) {
	g := New()

	g.Sync(State{Positions: []int{12, 34}, CurrentPlayer: 1})
	assert.Equal(t, [2]int{12, 34}, g.Positions)
	assert.Equal(t, 1, g.Current)

	state := g.State()
	assert.Equal(t, []int{12, 34}, state.Positions)
	assert.Equal(t, 1, state.CurrentPlayer)

	g.Winner = 0
	g.Reset()
	assert.Equal(t, [2]int{0, 0}, g.Positions)
	assert.Equal(t, 0, g.Current)
	assert.Equal(t, NoWinner, g.Winner)
}

func TestAlternatingTurns(t *testing.T) {
	g := New()

	_, err := g.Move(0, 3)
	require.NoError(t, err)
	_, err = g.Move(1, 5)
	require.NoError(t, err)
	_, err = g.Move(0, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, g.Positions[0])
	assert.Equal(t, 5, g.Positions[1])
	assert.Equal(t, 1, g.Current)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		msg  any
	}{
		{"dice_roll", NewDiceRoll(0, 4)},
		{"player_move", NewPlayerMove(1, 38)},
		{"move_complete", NewMoveComplete(0)},
		{"player_ready", NewPlayerReady(1, "Bo", "😎")},
		{"game_sync", NewSync(State{Positions: []int{3, 0}, CurrentPlayer: 1})},
		{"reset", NewReset()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.msg)
			require.NoError(t, err)

			decoded, err := Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, tc.msg, decoded)
		})
	}
}

func TestDecodeRejectsUnknown(t *testing.T) {
	_, err := Decode(json.RawMessage(`{"type":"teleport"}`))
	require.Error(t, err)

	_, err = Decode(json.RawMessage(`not json`))
	require.Error(t, err)
}
