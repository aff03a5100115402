package persist

import (
	"context"
	"testing"
	"time"

	"github.com/roomsync/roomsync-client/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialsRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	creds := NewCredentials(storage)

	assert.Equal(t, "", creds.Token(ctx))
	_, err := creds.User(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	user := types.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: types.UserRoleTenant}
	require.NoError(t, creds.Save(ctx, "jwt-token-value", user))

	assert.Equal(t, "jwt-token-value", creds.Token(ctx))
	got, err := creds.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.Name)
}

func TestCredentialsClearNotifiesListeners(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	creds := NewCredentials(storage)
	require.NoError(t, creds.Save(ctx, "tok", types.User{ID: "u1"}))

	calls := 0
	creds.OnClear(func() { calls++ })

	require.NoError(t, creds.Clear(ctx))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "", creds.Token(ctx))
	assert.Equal(t, 0, storage.Len())
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	_, err := LoadSnapshot(ctx, storage)
	assert.ErrorIs(t, err, ErrNotFound)

	session := types.Session{
		Token:           "tok",
		User:            &types.User{ID: "u1", Name: "Ada"},
		IsAuthenticated: true,
		ExpiresAt:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, SaveSnapshot(ctx, storage, session))

	snap, err := LoadSnapshot(ctx, storage)
	require.NoError(t, err)
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.True(t, snap.Session.IsAuthenticated)
	assert.Equal(t, "u1", snap.Session.User.ID)
	assert.Equal(t, "state:v1", StateKey)
}

func TestSnapshotIgnoresOtherVersions(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set(ctx, StateKey, []byte(`{"version":7,"session":{"isAuthenticated":true}}`)))

	_, err := LoadSnapshot(ctx, storage)
	assert.ErrorIs(t, err, ErrNotFound)
}
