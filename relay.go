// Ladderbox pairing and relay service
//
// Pairs exactly two clients into a session addressable by a short
// invite code, then forwards opaque game payloads between them.
//
// Features:
// - Persistent WebSocket per client: /ws
// - First message creates or joins a session; sessions hold one host
//   and at most one guest
// - Invite codes are the uppercased 8-char prefix of the session ID,
//   matched case-insensitively
// - Game payloads are relayed verbatim and never interpreted
// - Either side disconnecting tears the session down and notifies the
//   survivor with peer_disconnected
// - Malformed or unknown frames are logged and dropped, never fatal
// - In-browser QR for sharing invite codes, backed by go-qrcode

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const (
	defaultHostName   = "Host"
	defaultHostAvatar = "🙂"

	defaultGuestName   = "Guest"
	defaultGuestAvatar = "😎"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	conn *websocket.Conn
	send chan any
	addr string

	closeOnce sync.Once
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// relay owns the session and connection registries. All registry
// access happens under mu; connection goroutines never touch the maps
// directly.
type relay struct {
	cfg *Config

	mu       sync.Mutex
	sessions *sessionRegistry
	conns    *connectionRegistry
}

func newRelay(cfg *Config) *relay {
	return &relay{
		cfg:      cfg,
		sessions: newSessionRegistry(),
		conns:    newConnectionRegistry(),
	}
}

// deliverLocked queues msg for c and reports whether it was handed to
// the connection's writer. Unregistered targets and clients whose send
// buffer is full count as failed; a full buffer drops the slow client
// the same way its own disconnect would. Callers hold r.mu.
func (r *relay) deliverLocked(c *client, msg any) bool {
	if !r.conns.registered(c) {
		return false
	}

	select {
	case c.send <- msg:
		return true
	default:
		r.conns.drop(c)
		c.close()
		return false
	}
}

// teardown removes c from the connection registry and discards every
// session it participated in, notifying any surviving peer. Safe to
// call more than once for the same connection.
func (r *relay) teardown(c *client) {
	r.mu.Lock()

	r.conns.drop(c)

	for _, s := range r.sessions.containing(c) {
		peer := s.counterpart(c)
		r.sessions.remove(s.id)

		if peer == nil {
			logf(r.cfg, "RELAY: Session %s removed, no peer to notify", s.id)
			continue
		}

		if r.deliverLocked(peer, PeerDisconnectedMessage{
			Type:      "peer_disconnected",
			SessionID: s.id,
		}) {
			logf(r.cfg, "RELAY: Session %s removed, notified peer %s", s.id, peer.addr)
		} else {
			logf(r.cfg, "RELAY: Session %s removed, peer %s unreachable", s.id, peer.addr)
		}
	}

	remaining := r.conns.count()
	r.mu.Unlock()

	c.close()

	logf(r.cfg, "RELAY: Client %s disconnected (%d remaining)", c.addr, remaining)
}

func (r *relay) handleCreate(c *client, msg ClientMessage) {
	info := PlayerInfo{
		Name:   msg.PlayerName,
		Avatar: msg.PlayerAvatar,
	}
	if info.Name == "" {
		info.Name = defaultHostName
	}
	if info.Avatar == "" {
		info.Avatar = defaultHostAvatar
	}

	r.mu.Lock()
	s := r.sessions.create(c, info)
	r.deliverLocked(c, SessionCreatedMessage{
		Type:       "session_created",
		SessionID:  s.id,
		InviteCode: s.inviteCode,
		PlayerRole: "host",
	})
	r.mu.Unlock()

	logf(r.cfg, "RELAY: Session %s created by %s with invite code %s", s.id, c.addr, s.inviteCode)
}

func (r *relay) handleJoin(c *client, msg ClientMessage) {
	info := PlayerInfo{
		Name:   msg.PlayerName,
		Avatar: msg.PlayerAvatar,
	}
	if info.Name == "" {
		info.Name = defaultGuestName
	}
	if info.Avatar == "" {
		info.Avatar = defaultGuestAvatar
	}

	r.mu.Lock()

	sessionID := msg.SessionID
	if msg.InviteCode != "" && sessionID == "" {
		if s, ok := r.sessions.findByInviteCode(msg.InviteCode); ok {
			sessionID = s.id
		}
	}

	s, err := r.sessions.join(sessionID, c, info)
	if err != nil {
		r.deliverLocked(c, ErrorMessage{
			Type:    "error",
			Message: err.Error(),
		})
		r.mu.Unlock()

		logf(r.cfg, "RELAY: Join from %s rejected: %v (code/id: %s)", c.addr, err, msg.InviteCode+msg.SessionID)
		return
	}

	host := s.host

	r.deliverLocked(host, GuestJoinedMessage{
		Type:      "guest_joined",
		SessionID: s.id,
		GuestInfo: s.guestInfo,
	})
	r.deliverLocked(c, SessionJoinedMessage{
		Type:       "session_joined",
		SessionID:  s.id,
		PlayerRole: "guest",
		HostInfo:   s.hostInfo,
	})

	r.mu.Unlock()

	logf(r.cfg, "RELAY: Client %s joined session %s", c.addr, s.id)

	// Settle window: both join replies are already queued per
	// connection, so connection_established can never overtake them.
	go r.announceEstablished(s.id, host, c)
}

func (r *relay) announceEstablished(sessionID string, host, guest *client) {
	time.Sleep(r.cfg.settleDelay)

	msg := ConnectionEstablishedMessage{
		Type:      "connection_established",
		SessionID: sessionID,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// The session may already be gone if either side dropped during
	// the settle window; announcing to the survivor is still harmless.
	hostOk := r.deliverLocked(host, msg)
	guestOk := r.deliverLocked(guest, msg)

	if hostOk && guestOk {
		logf(r.cfg, "RELAY: Connection established for session %s", sessionID)
	} else {
		logf(r.cfg, "RELAY: Incomplete establish broadcast for session %s (host: %t, guest: %t)", sessionID, hostOk, guestOk)
	}
}

func (r *relay) handleGame(c *client, msg ClientMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions.get(msg.SessionID)
	if !ok {
		logf(r.cfg, "RELAY: Game message from %s for unknown session %s", c.addr, msg.SessionID)
		return
	}

	target := s.counterpart(c)
	if target == nil {
		logf(r.cfg, "RELAY: No counterpart for game message in session %s", s.id)
		return
	}

	if !r.deliverLocked(target, GameMessage{
		Type:      "game_message",
		SessionID: s.id,
		Data:      msg.Data,
	}) {
		logf(r.cfg, "RELAY: Counterpart %s unreachable in session %s", target.addr, s.id)
	}
}

func (c *client) readPump(r *relay) {
	defer func() {
		r.teardown(c)
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			logf(r.cfg, "RELAY: Malformed frame from %s: %v", c.addr, err)
			continue
		}

		switch msg.Type {
		case "create_session":
			r.handleCreate(c, msg)
		case "join_session":
			r.handleJoin(c, msg)
		case "game_message":
			r.handleGame(c, msg)
		default:
			logf(r.cfg, "RELAY: Unknown message type %q from %s", msg.Type, c.addr)
		}
	}
}

func (c *client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// serveWS upgrades the request and runs the connection until it closes.
func (r *relay) serveWS() httprouter.Handle {
	return func(w http.ResponseWriter, req *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			logf(r.cfg, "RELAY: Upgrade error for %s: %v", realIP(req), err)
			return
		}

		c := &client{
			conn: conn,
			send: make(chan any, 8),
			addr: realIP(req),
		}

		r.mu.Lock()
		r.conns.add(c)
		total := r.conns.count()
		r.mu.Unlock()

		logf(r.cfg, "RELAY: Client %s connected (%d total)", c.addr, total)

		go c.writePump()
		c.readPump(r)
	}
}

// qrHandler generates a PNG QR code for an invite code, for sharing
// the session out-of-band.
func qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := ps.ByName("code")
	if code == "" {
		http.Error(w, "missing invite code", http.StatusBadRequest)
		return
	}

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(code, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ServeRelay runs the pairing and relay service until ctx is cancelled.
func ServeRelay(ctx context.Context, cfg *Config) error {
	logf(cfg, "START: ladderbox relay v%s", releaseVersion)

	errs := make(chan error, 64)
	go func() {
		for err := range errs {
			logf(cfg, "ERROR: %v", err)
		}
	}()

	mux := newMux(cfg, errs)

	r := newRelay(cfg)

	mux.GET(cfg.prefix+"/ws", r.serveWS())

	mux.GET(cfg.prefix+"/invite/:code/qr", qrHandler)

	return serve(ctx, cfg, newServer(cfg, mux))
}
