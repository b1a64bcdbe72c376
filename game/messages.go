package game

import (
	"encoding/json"
	"fmt"
)

// Peer-to-peer message schema, carried as the opaque data field of
// relay game_message frames.

// PlayerReady announces a player's display info once pairing settles.
type PlayerReady struct {
	Type        string `json:"type"` // "player_ready"
	PlayerIndex int    `json:"player_index"`
	Name        string `json:"name"`
	Avatar      string `json:"avatar"`
}

// DiceRoll reports a die roll to the remote player.
type DiceRoll struct {
	Type   string `json:"type"` // "dice_roll"
	Player int    `json:"player"`
	Value  int    `json:"value"`
}

// PlayerMove reports the resulting token position after a roll.
type PlayerMove struct {
	Type        string `json:"type"` // "player_move"
	Player      int    `json:"player"`
	NewPosition int    `json:"new_position"`
}

// MoveComplete confirms that the remote side finished animating a
// move, releasing the sender's turn logic.
type MoveComplete struct {
	Type   string `json:"type"` // "move_complete"
	Player int    `json:"player"`
}

// Sync carries a full state snapshot, sent after every turn switch.
type Sync struct {
	Type  string `json:"type"` // "game_sync"
	State State  `json:"state"`
}

// Reset asks both sides to start a fresh match.
type Reset struct {
	Type string `json:"type"` // "reset"
}

func NewPlayerReady(index int, name, avatar string) PlayerReady {
	return PlayerReady{Type: "player_ready", PlayerIndex: index, Name: name, Avatar: avatar}
}

func NewDiceRoll(player, value int) DiceRoll {
	return DiceRoll{Type: "dice_roll", Player: player, Value: value}
}

func NewPlayerMove(player, position int) PlayerMove {
	return PlayerMove{Type: "player_move", Player: player, NewPosition: position}
}

func NewMoveComplete(player int) MoveComplete {
	return MoveComplete{Type: "move_complete", Player: player}
}

func NewSync(state State) Sync {
	return Sync{Type: "game_sync", State: state}
}

func NewReset() Reset {
	return Reset{Type: "reset"}
}

// Decode parses a raw game payload into its typed message.
func Decode(raw json.RawMessage) (any, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("game: decode payload: %w", err)
	}

	var (
		msg any
		err error
	)

	switch probe.Type {
	case "player_ready":
		var m PlayerReady
		err = json.Unmarshal(raw, &m)
		msg = m
	case "dice_roll":
		var m DiceRoll
		err = json.Unmarshal(raw, &m)
		msg = m
	case "player_move":
		var m PlayerMove
		err = json.Unmarshal(raw, &m)
		msg = m
	case "move_complete":
		var m MoveComplete
		err = json.Unmarshal(raw, &m)
		msg = m
	case "game_sync":
		var m Sync
		err = json.Unmarshal(raw, &m)
		msg = m
	case "reset":
		var m Reset
		err = json.Unmarshal(raw, &m)
		msg = m
	default:
		return nil, fmt.Errorf("game: unknown message type %q", probe.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("game: decode %s: %w", probe.Type, err)
	}
	return msg, nil
}
