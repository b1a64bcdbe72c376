package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionCreate(t *testing.T) {
	reg := newSessionRegistry()
	host := &client{}

	s := reg.create(host, PlayerInfo{Name: "Ann", Avatar: "🙂"})

	require.NotEmpty(t, s.id)
	require.Len(t, s.inviteCode, inviteCodeLength)
	assert.Equal(t, strings.ToUpper(s.id[:inviteCodeLength]), s.inviteCode)
	assert.Equal(t, host, s.host)
	assert.Nil(t, s.guest)
	assert.Equal(t, "Ann", s.hostInfo.Name)
	assert.Equal(t, 1, reg.count())
}

func TestSessionCreateDistinctIDs(t *testing.T) {
	reg := newSessionRegistry()

	first := reg.create(&client{}, PlayerInfo{})
	second := reg.create(&client{}, PlayerInfo{})

	assert.NotEqual(t, first.id, second.id)
	assert.NotEqual(t, first.inviteCode, second.inviteCode)
	assert.Equal(t, 2, reg.count())
}

func TestFindByInviteCodeCaseInsensitive(t *testing.T) {
	reg := newSessionRegistry()
	s := reg.create(&client{}, PlayerInfo{})

	for _, code := range []string{
		s.inviteCode,
		strings.ToLower(s.inviteCode),
	} {
		found, ok := reg.findByInviteCode(code)
		require.True(t, ok, "code %q", code)
		assert.Equal(t, s.id, found.id)
	}

	_, ok := reg.findByInviteCode("ZZZZZZZZ")
	assert.False(t, ok)
}

func TestJoinFillsGuestSlotOnce(t *testing.T) {
	reg := newSessionRegistry()
	host := &client{}
	guest := &client{}
	late := &client{}

	s := reg.create(host, PlayerInfo{Name: "Ann"})

	joined, err := reg.join(s.id, guest, PlayerInfo{Name: "Bo"})
	require.NoError(t, err)
	assert.Equal(t, guest, joined.guest)
	assert.Equal(t, "Bo", joined.guestInfo.Name)

	_, err = reg.join(s.id, late, PlayerInfo{Name: "Caz"})
	require.ErrorIs(t, err, ErrSessionFull)

	// The original guest must never be overwritten.
	assert.Equal(t, guest, s.guest)
	assert.Equal(t, "Bo", s.guestInfo.Name)
}

func TestRegistryJoinUnknownSession(t *testing.T) {
	reg := newSessionRegistry()

	_, err := reg.join("no-such-id", &client{}, PlayerInfo{})
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRemoveDeletesRecord(t *testing.T) {
	reg := newSessionRegistry()
	s := reg.create(&client{}, PlayerInfo{})

	reg.remove(s.id)

	_, ok := reg.get(s.id)
	assert.False(t, ok)
	assert.Equal(t, 0, reg.count())

	// Removing again is harmless.
	reg.remove(s.id)
}

func TestContaining(t *testing.T) {
	reg := newSessionRegistry()
	host := &client{}
	guest := &client{}
	other := &client{}

	s := reg.create(host, PlayerInfo{})
	_, err := reg.join(s.id, guest, PlayerInfo{})
	require.NoError(t, err)

	require.Len(t, reg.containing(host), 1)
	require.Len(t, reg.containing(guest), 1)
	assert.Empty(t, reg.containing(other))

	// A connection hosting several sessions is swept in full.
	reg.create(host, PlayerInfo{})
	assert.Len(t, reg.containing(host), 2)
}

func TestCounterpart(t *testing.T) {
	host := &client{}
	guest := &client{}
	s := &session{host: host}

	assert.Nil(t, s.counterpart(host))
	assert.Nil(t, s.counterpart(guest))

	s.guest = guest
	assert.Equal(t, guest, s.counterpart(host))
	assert.Equal(t, host, s.counterpart(guest))
}

func TestConnectionRegistryDropIdempotent(t *testing.T) {
	reg := newConnectionRegistry()
	c := &client{}

	reg.add(c)
	require.True(t, reg.registered(c))
	assert.Equal(t, 1, reg.count())

	assert.True(t, reg.drop(c))
	assert.False(t, reg.drop(c))
	assert.False(t, reg.registered(c))
	assert.Equal(t, 0, reg.count())
}
