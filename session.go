package main

import (
	"strings"

	"github.com/google/uuid"
)

const inviteCodeLength = 8

// session pairs a host connection with at most one guest connection.
type session struct {
	id         string
	inviteCode string

	host      *client
	guest     *client // nil until a guest joins, set at most once
	hostInfo  PlayerInfo
	guestInfo PlayerInfo
}

// counterpart returns the other participant relative to c, or nil if c
// is not a participant or has no peer yet.
func (s *session) counterpart(c *client) *client {
	switch {
	case c == s.host:
		return s.guest
	case c == s.guest:
		return s.host
	default:
		return nil
	}
}

func (s *session) contains(c *client) bool {
	return c == s.host || (s.guest != nil && c == s.guest)
}

// sessionRegistry maps session IDs to live sessions. It is not
// self-locking; the owning relay serializes all access, so that
// "find guest slot, then fill it" stays atomic.
type sessionRegistry struct {
	sessions map[string]*session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{
		sessions: make(map[string]*session),
	}
}

// create registers a new session for hostConn. The invite code is the
// uppercased first 8 characters of the generated ID; uniqueness rides
// on ID randomness, with no check against other live codes.
func (r *sessionRegistry) create(hostConn *client, hostInfo PlayerInfo) *session {
	id := uuid.NewString()

	s := &session{
		id:         id,
		inviteCode: strings.ToUpper(id[:inviteCodeLength]),
		host:       hostConn,
		hostInfo:   hostInfo,
	}
	r.sessions[id] = s

	return s
}

// findByInviteCode scans live sessions for a case-insensitive code
// match, returning the first hit.
func (r *sessionRegistry) findByInviteCode(code string) (*session, bool) {
	code = strings.ToUpper(code)
	for _, s := range r.sessions {
		if s.inviteCode == code {
			return s, true
		}
	}
	return nil, false
}

func (r *sessionRegistry) get(id string) (*session, bool) {
	s, ok := r.sessions[id]
	return s, ok
}

// join fills the guest slot of the named session. A session whose
// guest is already set stays untouched and the join is rejected.
func (r *sessionRegistry) join(id string, guestConn *client, guestInfo PlayerInfo) (*session, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.guest != nil {
		return nil, ErrSessionFull
	}

	s.guest = guestConn
	s.guestInfo = guestInfo

	return s, nil
}

func (r *sessionRegistry) remove(id string) {
	delete(r.sessions, id)
}

// containing returns every session c participates in. Correct
// operation yields zero or one, but membership is not enforced to be
// exclusive, so teardown sweeps them all.
func (r *sessionRegistry) containing(c *client) []*session {
	var found []*session
	for _, s := range r.sessions {
		if s.contains(c) {
			found = append(found, s)
		}
	}
	return found
}

func (r *sessionRegistry) count() int {
	return len(r.sessions)
}

// connectionRegistry tracks every open connection, paired or not.
// Like sessionRegistry, access is serialized by the owning relay.
type connectionRegistry struct {
	clients map[*client]bool
}

func newConnectionRegistry() *connectionRegistry {
	return &connectionRegistry{
		clients: make(map[*client]bool),
	}
}

func (r *connectionRegistry) add(c *client) {
	r.clients[c] = true
}

// drop removes c and reports whether it was still registered, making
// repeated teardown of the same connection a no-op.
func (r *connectionRegistry) drop(c *client) bool {
	if !r.clients[c] {
		return false
	}
	delete(r.clients, c)
	return true
}

func (r *connectionRegistry) registered(c *client) bool {
	return r.clients[c]
}

func (r *connectionRegistry) count() int {
	return len(r.clients)
}
