// Package client connects a game to the ladderbox relay: it creates
// or joins a pairing session and exchanges opaque game payloads with
// the peer. Inbound payloads are buffered in a pending queue that the
// game loop drains at its own pace.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
)

var (
	ErrSessionNotFound = errors.New("Session not found")
	ErrSessionFull     = errors.New("Session is full")
	ErrClosed          = errors.New("connection closed")
)

// Info is the display metadata exchanged during pairing.
type Info struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

type serverMessage struct {
	Type       string          `json:"type"`
	SessionID  string          `json:"session_id"`
	InviteCode string          `json:"invite_code"`
	PlayerRole string          `json:"player_role"`
	HostInfo   *Info           `json:"host_info"`
	GuestInfo  *Info           `json:"guest_info"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
}

type clientMessage struct {
	Type         string          `json:"type"`
	PlayerName   string          `json:"player_name,omitempty"`
	PlayerAvatar string          `json:"player_avatar,omitempty"`
	SessionID    string          `json:"session_id,omitempty"`
	InviteCode   string          `json:"invite_code,omitempty"`
	Data         json.RawMessage `json:"data,omitempty"`
}

// Client is a single relay connection. Configure the On* callbacks
// before calling Dial; they are invoked from the read loop, one at a
// time.
type Client struct {
	// OnPeerInfo fires when the counterpart's display info arrives
	// (guest_joined on the host side).
	OnPeerInfo func(Info)

	// OnConnectionEstablished fires once the relay declares the pair
	// ready to play.
	OnConnectionEstablished func(sessionID string)

	// OnPeerDisconnected fires when the counterpart drops and the
	// session is discarded.
	OnPeerDisconnected func(sessionID string)

	conn    *websocket.Conn
	writeMu sync.Mutex

	replies chan serverMessage
	done    chan struct{}

	mu         sync.Mutex
	pending    []json.RawMessage
	sessionID  string
	inviteCode string
	isHost     bool
}

// Dial connects to a relay WebSocket endpoint, e.g.
// "ws://127.0.0.1:8765/ws".
func (c *Client) Dial(ctx context.Context, url string) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", url, err)
	}

	c.conn = conn
	c.replies = make(chan serverMessage, 4)
	c.done = make(chan struct{})

	go c.readLoop()

	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg serverMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case "session_created", "session_joined", "error":
			select {
			case c.replies <- msg:
			default:
			}

		case "guest_joined":
			if c.OnPeerInfo != nil && msg.GuestInfo != nil {
				c.OnPeerInfo(*msg.GuestInfo)
			}

		case "connection_established":
			if c.OnConnectionEstablished != nil {
				c.OnConnectionEstablished(msg.SessionID)
			}

		case "peer_disconnected":
			if c.OnPeerDisconnected != nil {
				c.OnPeerDisconnected(msg.SessionID)
			}

		case "game_message":
			c.mu.Lock()
			c.pending = append(c.pending, msg.Data)
			c.mu.Unlock()
		}
	}
}

func (c *Client) write(msg clientMessage) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(msg)
}

func (c *Client) awaitReply(ctx context.Context) (serverMessage, error) {
	select {
	case msg := <-c.replies:
		if msg.Type == "error" {
			return serverMessage{}, replyError(msg.Message)
		}
		return msg, nil
	case <-c.done:
		return serverMessage{}, ErrClosed
	case <-ctx.Done():
		return serverMessage{}, ctx.Err()
	}
}

func replyError(message string) error {
	switch message {
	case ErrSessionNotFound.Error():
		return ErrSessionNotFound
	case ErrSessionFull.Error():
		return ErrSessionFull
	default:
		return errors.New(message)
	}
}

// CreateSession opens a new session as host and returns its id and
// shareable invite code.
func (c *Client) CreateSession(ctx context.Context, name, avatar string) (sessionID, inviteCode string, err error) {
	if err := c.write(clientMessage{
		Type:         "create_session",
		PlayerName:   name,
		PlayerAvatar: avatar,
	}); err != nil {
		return "", "", err
	}

	msg, err := c.awaitReply(ctx)
	if err != nil {
		return "", "", err
	}

	c.mu.Lock()
	c.sessionID = msg.SessionID
	c.inviteCode = msg.InviteCode
	c.isHost = true
	c.mu.Unlock()

	return msg.SessionID, msg.InviteCode, nil
}

// JoinSession joins an existing session as guest. An 8-character
// value is treated as an invite code, anything else as a raw session
// id. Returns the host's display info on success.
func (c *Client) JoinSession(ctx context.Context, codeOrID, name, avatar string) (Info, error) {
	msg := clientMessage{
		Type:         "join_session",
		PlayerName:   name,
		PlayerAvatar: avatar,
	}
	if len(codeOrID) == 8 {
		msg.InviteCode = strings.ToUpper(codeOrID)
	} else {
		msg.SessionID = codeOrID
	}

	if err := c.write(msg); err != nil {
		return Info{}, err
	}

	reply, err := c.awaitReply(ctx)
	if err != nil {
		return Info{}, err
	}

	c.mu.Lock()
	c.sessionID = reply.SessionID
	c.isHost = false
	c.mu.Unlock()

	var host Info
	if reply.HostInfo != nil {
		host = *reply.HostInfo
	}
	return host, nil
}

// SendGame forwards payload to the counterpart through the relay.
func (c *Client) SendGame(payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("client: encode payload: %w", err)
	}

	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	if sessionID == "" {
		return errors.New("client: no active session")
	}

	return c.write(clientMessage{
		Type:      "game_message",
		SessionID: sessionID,
		Data:      data,
	})
}

// PendingMessages drains and returns the buffered inbound payloads in
// arrival order.
func (c *Client) PendingMessages() []json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := c.pending
	c.pending = nil
	return msgs
}

// SessionID returns the current session id, empty before pairing.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// InviteCode returns the invite code when hosting, empty otherwise.
func (c *Client) InviteCode() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inviteCode
}

// IsHost reports whether this side created the session.
func (c *Client) IsHost() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isHost
}

// Close tears down the connection and waits for the read loop to
// finish.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	<-c.done
	return err
}
