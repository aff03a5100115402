package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/roomsync/roomsync-client/config"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/internal/persist"
	"github.com/roomsync/roomsync-client/internal/realtime"
	"github.com/roomsync/roomsync-client/internal/testutil"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	os.Exit(m.Run())
}

const (
	password = "secret-pass"
	waitFor  = 3 * time.Second
	tick     = 10 * time.Millisecond
)

type fixture struct {
	backend *testutil.Backend
	storage *persist.MemoryStorage
	toasts  *effects.Recorder
}

func newFixture(t *testing.T) *fixture {
	return &fixture{
		backend: testutil.NewBackend(t),
		storage: persist.NewMemoryStorage(),
		toasts:  &effects.Recorder{},
	}
}

// newApp builds a client over the fixture's storage. Clients for different
// users need their own storage, see newClient.
func (f *fixture) newApp(t *testing.T) *App {
	t.Helper()
	return f.newClient(t, f.storage, f.toasts)
}

func (f *fixture) newClient(t *testing.T, storage persist.Storage, toaster effects.Toaster) *App {
	t.Helper()
	cfg := &config.Config{
		API:      config.APIConfig{BaseURL: f.backend.URL(), TimeoutSeconds: 5},
		Realtime: config.RealtimeConfig{Enabled: true},
		Storage:  config.StorageConfig{Driver: config.StorageMemory},
	}
	a, err := New(cfg,
		WithStorage(storage),
		WithToaster(toaster),
		WithRealtimeOptions(realtime.Options{
			URL:                  f.backend.RealtimeURL(),
			MaxReconnectAttempts: 3,
			ReconnectDelay:       10 * time.Millisecond,
			MaxReconnectDelay:    50 * time.Millisecond,
			PingInterval:         time.Second,
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Bridge.Close() })
	return a
}

func (f *fixture) login(t *testing.T, a *App, u types.User) {
	t.Helper()
	_, err := a.Login(context.Background(), types.LoginRequest{Email: u.Email, Password: password})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.backend.Hub.Connected(u.ID) }, waitFor, tick)
}

func TestStart_SignedOut(t *testing.T) {
	f := newFixture(t)
	a := f.newApp(t)

	sess := a.Start(context.Background())
	assert.False(t, sess.IsAuthenticated)
	assert.False(t, a.Bridge.Connected())
	assert.Zero(t, a.Bridge.Dials())
}

func TestLoginSyncAndLiveNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.backend.AddUser("Ana", "ana@example.com", password, types.UserRoleTenant)
	bo := f.backend.AddUser("Bo", "bo@example.com", password, types.UserRoleTenant)
	g := f.backend.AddGroup(bo.ID, "Flat", "", ana.ID)
	f.backend.AddNotification(ana.ID, types.NotificationGroupJoin, "Welcome", true)

	a := f.newApp(t)
	f.login(t, a, ana)
	require.NoError(t, a.Sync(ctx))
	assert.Equal(t, []string{g.ID}, a.Store.MyGroupIDs())
	assert.Len(t, a.Store.Notifications(), 1)
	require.Eventually(t, func() bool {
		rooms := f.backend.Hub.Rooms(ana.ID)
		return len(rooms) == 1 && rooms[0] == g.ID
	}, waitFor, tick)

	// Bo adds an expense from another client; Ana hears about it live.
	other := f.newClient(t, persist.NewMemoryStorage(), &effects.Recorder{})
	f.login(t, other, bo)
	_, err := other.Store.CreateExpense(ctx, types.CreateExpenseRequest{
		Title:             "Internet",
		ReceiptTotal:      decimal.NewFromInt(60),
		Category:          types.ExpenseCategoryInternet,
		GroupID:           g.ID,
		SelectedRoommates: []string{ana.ID, bo.ID},
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(a.Store.Notifications()) == 2 }, waitFor, tick)
	live := a.Store.Notifications()[0]
	assert.Equal(t, types.NotificationExpenseAdded, live.Type)
	assert.Equal(t, 1, a.Store.UnreadCount())
	require.Eventually(t, func() bool { return f.toasts.Count(effects.LevelInfo) == 1 }, waitFor, tick)

	// A replay of the same id is dropped.
	f.backend.Hub.Push(ana.ID, live)
	n := f.backend.Notify(ana.ID, types.NotificationTaskAssigned, "Take out the bins")
	require.Eventually(t, func() bool { return len(a.Store.Notifications()) == 3 }, waitFor, tick)
	assert.Equal(t, n.ID, a.Store.Notifications()[0].ID)
	assert.Equal(t, 2, a.Store.UnreadCount())

	// Group broadcasts reach room members.
	sent := f.backend.Hub.PushGroup(g.ID, types.Notification{ID: "group-1", Message: "House meeting", Type: types.NotificationGroupJoin})
	assert.Equal(t, 1, sent)
	require.Eventually(t, func() bool { return len(a.Store.Notifications()) == 4 }, waitFor, tick)

	// Fetching the same page again does not duplicate what arrived live.
	_, err = a.Store.FetchNotifications(ctx)
	require.NoError(t, err)
	assert.Len(t, a.Store.Notifications(), 3, "server list holds the stored three")
}

func TestJoinGroupFollowsIntoRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.backend.AddUser("Ana", "ana@example.com", password, types.UserRoleTenant)
	owner := f.backend.AddUser("Olu", "olu@example.com", password, types.UserRoleOwner)
	g := f.backend.AddGroup(owner.ID, "Flat", "")

	a := f.newApp(t)
	f.login(t, a, ana)

	_, err := a.Store.JoinGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(f.backend.Hub.Rooms(ana.ID)) == 1 }, waitFor, tick)

	_, err = a.Store.LeaveGroup(ctx, g.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(f.backend.Hub.Rooms(ana.ID)) == 0 }, waitFor, tick)
}

func TestReconnectRejoinsRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.backend.AddUser("Ana", "ana@example.com", password, types.UserRoleTenant)
	g := f.backend.AddGroup(ana.ID, "Flat", "")

	a := f.newApp(t)
	f.login(t, a, ana)
	require.NoError(t, a.Sync(ctx))
	require.Eventually(t, func() bool { return len(f.backend.Hub.Rooms(ana.ID)) == 1 }, waitFor, tick)

	f.backend.Hub.Drop(ana.ID)
	require.Eventually(t, func() bool {
		rooms := f.backend.Hub.Rooms(ana.ID)
		return len(rooms) == 1 && rooms[0] == g.ID
	}, waitFor, tick)
	assert.GreaterOrEqual(t, a.Bridge.Dials(), 2)
}

func TestLogoutClosesChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.backend.AddUser("Ana", "ana@example.com", password, types.UserRoleTenant)

	a := f.newApp(t)
	f.login(t, a, ana)

	require.NoError(t, a.Logout(ctx))
	assert.False(t, a.Store.IsAuthenticated())
	assert.False(t, a.Bridge.Connected())
	require.Eventually(t, func() bool { return !f.backend.Hub.Connected(ana.ID) }, waitFor, tick)
}

func TestUnauthorizedClosesChannel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.backend.AddUser("Ana", "ana@example.com", password, types.UserRoleTenant)

	a := f.newApp(t)
	f.login(t, a, ana)

	f.backend.Revoke(a.Credentials.Token(ctx))
	_, err := a.Store.FetchMyGroups(ctx)
	require.Error(t, err)

	assert.Empty(t, a.Credentials.Token(ctx))
	assert.False(t, a.Bridge.Connected())
	dials := a.Bridge.Dials()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, dials, a.Bridge.Dials(), "no reconnect once signed out")
}

func TestRestartRestoresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ana := f.backend.AddUser("Ana", "ana@example.com", password, types.UserRoleTenant)

	first := f.newApp(t)
	f.login(t, first, ana)
	require.NoError(t, first.Bridge.Close())

	second := f.newApp(t)
	sess := second.Start(ctx)
	require.True(t, sess.IsAuthenticated)
	require.NotNil(t, sess.User)
	assert.Equal(t, ana.ID, sess.User.ID)
	require.Eventually(t, second.Bridge.Connected, waitFor, tick)
}
