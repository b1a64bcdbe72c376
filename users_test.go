package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "users.db")

	store, err := openUserStore(path)
	require.NoError(t, err)

	require.NoError(t, store.Register(ctx, "Ann", "secret"))

	profile, err := store.Authenticate(ctx, "ann", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.Username)
	require.NotNil(t, profile.LastLogin)
	assert.NotEmpty(t, profile.CreatedAt)

	_, err = store.Authenticate(ctx, "Ann", "wrong")
	require.ErrorIs(t, err, errInvalidCredentials)

	require.NoError(t, store.Close())

	// Accounts survive a reopen.
	store, err = openUserStore(path)
	require.NoError(t, err)
	defer store.Close()

	profile, err = store.Authenticate(ctx, "ANN", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Ann", profile.Username)
}

func TestUserStoreDuplicate(t *testing.T) {
	ctx := context.Background()

	store, err := openUserStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Register(ctx, "Ann", "secret"))
	require.ErrorIs(t, store.Register(ctx, "Ann", "secret"), errUserExists)
	require.ErrorIs(t, store.Register(ctx, "aNN", "other"), errUserExists)
}

func TestUserStoreRecordResult(t *testing.T) {
	ctx := context.Background()

	store, err := openUserStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Register(ctx, "Ann", "secret"))

	require.NoError(t, store.RecordResult(ctx, "Ann", true))
	require.NoError(t, store.RecordResult(ctx, "ann", false))
	require.ErrorIs(t, store.RecordResult(ctx, "Nobody", true), errUnknownUser)

	profile, err := store.Authenticate(ctx, "Ann", "secret")
	require.NoError(t, err)
	assert.Equal(t, 2, profile.GamesPlayed)
	assert.Equal(t, 1, profile.Wins)
	assert.Equal(t, 1, profile.Losses)
}

func TestUserStoreList(t *testing.T) {
	ctx := context.Background()

	store, err := openUserStore(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	defer store.Close()

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, store.Register(ctx, "Ann", "secret"))
	require.NoError(t, store.Register(ctx, "Bo", "secret"))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	profiles, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 2)

	names := []string{profiles[0].Username, profiles[1].Username}
	assert.ElementsMatch(t, []string{"Ann", "Bo"}, names)
}
