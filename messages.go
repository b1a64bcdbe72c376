package main

import (
	"encoding/json"
)

// PlayerInfo is the display metadata exchanged between paired peers.
// Both fields are opaque to the relay.
type PlayerInfo struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// ClientMessage is the envelope for all frames arriving from clients.
type ClientMessage struct {
	Type         string          `json:"type"`                    // "create_session", "join_session", "game_message"
	PlayerName   string          `json:"player_name,omitempty"`   // create_session / join_session
	PlayerAvatar string          `json:"player_avatar,omitempty"` // create_session / join_session
	SessionID    string          `json:"session_id,omitempty"`    // join_session / game_message
	InviteCode   string          `json:"invite_code,omitempty"`   // join_session
	Data         json.RawMessage `json:"data,omitempty"`          // game_message, never interpreted
}

// SessionCreatedMessage is the reply to a successful create_session.
type SessionCreatedMessage struct {
	Type       string `json:"type"` // "session_created"
	SessionID  string `json:"session_id"`
	InviteCode string `json:"invite_code"`
	PlayerRole string `json:"player_role"` // always "host"
}

// GuestJoinedMessage notifies the host that a guest filled the session.
type GuestJoinedMessage struct {
	Type      string     `json:"type"` // "guest_joined"
	SessionID string     `json:"session_id"`
	GuestInfo PlayerInfo `json:"guest_info"`
}

// SessionJoinedMessage is the reply to a successful join_session.
type SessionJoinedMessage struct {
	Type       string     `json:"type"` // "session_joined"
	SessionID  string     `json:"session_id"`
	PlayerRole string     `json:"player_role"` // always "guest"
	HostInfo   PlayerInfo `json:"host_info"`
}

// ConnectionEstablishedMessage is broadcast to both parties once the
// settle window after a join has elapsed.
type ConnectionEstablishedMessage struct {
	Type      string `json:"type"` // "connection_established"
	SessionID string `json:"session_id"`
}

// GameMessage carries an opaque application payload to the counterpart.
type GameMessage struct {
	Type      string          `json:"type"` // "game_message"
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
}

// ErrorMessage is the uniform error reply shape.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// PeerDisconnectedMessage tells the surviving participant that its
// counterpart is gone and the session has been discarded.
type PeerDisconnectedMessage struct {
	Type      string `json:"type"` // "peer_disconnected"
	SessionID string `json:"session_id"`
}
