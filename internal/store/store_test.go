package store

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/internal/api"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/internal/persist"
	"github.com/roomsync/roomsync-client/internal/testutil"
	"github.com/roomsync/roomsync-client/internal/transport"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.IsTest = true
	os.Exit(m.Run())
}

const password = "secret-pass"

// effectLog records every effect the store raises.
type effectLog struct {
	mu      sync.Mutex
	effects []effects.Effect
}

func (l *effectLog) HandleEffect(_ context.Context, e effects.Effect) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.effects = append(l.effects, e)
	return nil
}

func (l *effectLog) SupportedKinds() []effects.Kind {
	return []effects.Kind{effects.OpRejected, effects.OpFulfilled, effects.NotificationReceived, effects.GroupMembershipChanged}
}

func (l *effectLog) ofKind(kind effects.Kind) []effects.Effect {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []effects.Effect
	for _, e := range l.effects {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

type harness struct {
	backend *testutil.Backend
	storage *persist.MemoryStorage
	creds   *persist.Credentials
	toasts  *effects.Recorder
	effects *effectLog
	spinner *effects.Spinner
	store   *Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		backend: testutil.NewBackend(t),
		storage: persist.NewMemoryStorage(),
		toasts:  &effects.Recorder{},
		effects: &effectLog{},
		spinner: effects.NewSpinner(nil),
	}
	h.creds = persist.NewCredentials(h.storage)

	dispatcher := effects.NewDispatcher()
	dispatcher.Register(effects.NewToastPolicy(h.toasts))
	dispatcher.Register(h.effects)

	tc := transport.NewClient(h.backend.URL(), transport.WithCredentials(h.creds), transport.WithTimeout(5*time.Second))
	h.store = New(Deps{
		API:         api.New(tc),
		Credentials: h.creds,
		Storage:     h.storage,
		Dispatcher:  dispatcher,
		Spinner:     h.spinner,
	})
	return h
}

// signIn creates an account on the backend and logs the store into it.
func (h *harness) signIn(t *testing.T, name string, role types.UserRole) types.User {
	t.Helper()
	u := h.backend.AddUser(name, name+"@example.com", password, role)
	_, err := h.store.Login(context.Background(), types.LoginRequest{Email: u.Email, Password: password})
	require.NoError(t, err)
	h.toasts.Reset()
	return u
}

// other builds a second client against the same backend.
func (h *harness) other(t *testing.T, name string, role types.UserRole) (*Store, types.User) {
	t.Helper()
	storage := persist.NewMemoryStorage()
	creds := persist.NewCredentials(storage)
	tc := transport.NewClient(h.backend.URL(), transport.WithCredentials(creds))
	s := New(Deps{API: api.New(tc), Credentials: creds, Storage: storage})

	u := h.backend.AddUser(name, name+"@example.com", password, role)
	_, err := s.Login(context.Background(), types.LoginRequest{Email: u.Email, Password: password})
	require.NoError(t, err)
	return s, u
}

func TestLogin_Success(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.backend.AddUser("Ana", "ana@example.com", password, types.UserRoleTenant)

	res, err := h.store.Login(ctx, types.LoginRequest{Email: "ana@example.com", Password: password})
	require.NoError(t, err)

	sess := h.store.Session()
	assert.True(t, sess.IsAuthenticated)
	require.NotNil(t, sess.User)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.Equal(t, res.Token, sess.Token)
	assert.False(t, sess.ExpiresAt.IsZero(), "expiry read from the token")
	assert.NotEmpty(t, h.creds.Token(ctx))
	assert.Equal(t, 1, h.toasts.Count(effects.LevelSuccess))
	assert.Zero(t, h.toasts.Count(effects.LevelError))
	assert.Equal(t, Status{}, h.store.Status(SliceSession))
	assert.False(t, h.spinner.Visible())
}

func TestLogin_WrongPasswordIsSilent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.backend.AddUser("Ana", "ana@example.com", password, types.UserRoleTenant)

	_, err := h.store.Login(ctx, types.LoginRequest{Email: "ana@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))

	assert.False(t, h.store.IsAuthenticated())
	st := h.store.Status(SliceSession)
	assert.False(t, st.IsLoading)
	assert.Equal(t, "Invalid email or password", st.Error)
	assert.Empty(t, h.toasts.Toasts(), "login errors render inline")
	assert.Empty(t, h.creds.Token(ctx))

	rejected := h.effects.ofKind(effects.OpRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, effects.OpLogin, rejected[0].Op)
}

func TestRegister_ValidationFieldWins(t *testing.T) {
	h := newHarness(t)

	_, err := h.store.Register(context.Background(), types.RegisterRequest{Name: "Bo", Email: "bo@example.com", Password: "abc"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "Password must be at least 6 characters", h.store.Status(SliceSession).Error)
	assert.False(t, h.store.IsAuthenticated())
	assert.Empty(t, h.toasts.Toasts())
}

func TestUnauthorizedClearsCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "ana", types.UserRoleTenant)
	_, err := h.store.FetchMyGroups(ctx)
	require.NoError(t, err)

	h.backend.Revoke(h.creds.Token(ctx))
	_, err = h.store.FetchMyTasks(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuth(err))

	assert.Empty(t, h.creds.Token(ctx))
	_, err = h.creds.User(ctx)
	assert.ErrorIs(t, err, persist.ErrNotFound)
	assert.False(t, h.store.IsAuthenticated())
	assert.Empty(t, h.store.MyGroups())

	snap, err := persist.LoadSnapshot(ctx, h.storage)
	require.NoError(t, err)
	assert.False(t, snap.Session.IsAuthenticated)
}

func TestStructuredVersusPlainBadRequest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "owner", types.UserRoleOwner)

	_, err := h.store.CreateProperty(ctx, types.CreatePropertyRequest{Address: "1 Main"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "Name is required", h.store.Status(SliceProperties).Error)

	h.backend.FailNext(http.MethodPost, "/properties", http.StatusBadRequest, "Property limit reached")
	_, err = h.store.CreateProperty(ctx, types.CreatePropertyRequest{Name: "Loft", Address: "1 Main"})
	require.Error(t, err)
	assert.False(t, apperrors.IsValidation(err))
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.DomainError, appErr.Type)
	assert.Equal(t, "Property limit reached", h.store.Status(SliceProperties).Error)

	errs := h.toasts.Toasts()
	require.Len(t, errs, 2)
	assert.Equal(t, "Name is required", errs[0].Message)
	assert.Equal(t, "Property limit reached", errs[1].Message)
}

func TestTransportFailureUsesOverride(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "owner", types.UserRoleOwner)
	h.backend.Server.Close()

	_, err := h.store.FetchMyProperties(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, apperrors.DefaultMessage, h.store.Status(SliceProperties).Error)

	toasts := h.toasts.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, "Could not load your properties.", toasts[0].Message)
	assert.True(t, h.store.IsAuthenticated(), "network errors keep the session")
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "ana", types.UserRoleTenant)
	token := h.creds.Token(ctx)

	require.NoError(t, h.store.Logout(ctx))
	assert.False(t, h.store.IsAuthenticated())
	assert.Empty(t, h.creds.Token(ctx))
	assert.Empty(t, h.toasts.Toasts())
	assert.Equal(t, 1, h.backend.Hits(http.MethodPost, "/auth/logout"))

	require.NoError(t, h.creds.Save(ctx, token, types.User{ID: "x"}))
	_, err := h.store.FetchProfile(ctx)
	assert.True(t, apperrors.IsAuth(err), "server revoked the token")
}

func TestLogout_ServerFailureStillSignsOut(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "ana", types.UserRoleTenant)
	h.backend.FailNext(http.MethodPost, "/auth/logout", http.StatusInternalServerError, "boom")

	require.NoError(t, h.store.Logout(ctx))
	assert.False(t, h.store.IsAuthenticated())
	assert.Empty(t, h.creds.Token(ctx))
}

func TestProfileUpdates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "ana", types.UserRoleTenant)

	name := "Ana Maria"
	u, err := h.store.UpdateProfile(ctx, types.UpdateProfileRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, u.Name)
	assert.Equal(t, name, h.store.Session().User.Name)

	stored, err := h.creds.User(ctx)
	require.NoError(t, err)
	assert.Equal(t, name, stored.Name)

	fetched, err := h.store.FetchProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, name, fetched.Name)

	err = h.store.UpdatePassword(ctx, types.UpdatePasswordRequest{CurrentPassword: "nope", NewPassword: "another-pass"})
	require.Error(t, err)
	assert.Equal(t, "Current password is incorrect", h.store.Status(SliceSession).Error)
	assert.Zero(t, h.toasts.Count(effects.LevelError))

	require.NoError(t, h.store.UpdatePassword(ctx, types.UpdatePasswordRequest{CurrentPassword: password, NewPassword: "another-pass"}))
	assert.Empty(t, h.store.Status(SliceSession).Error)
}

func TestRehydrate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.signIn(t, "ana", types.UserRoleTenant)

	// A fresh store over the same storage, as after an app restart.
	tc := transport.NewClient(h.backend.URL(), transport.WithCredentials(h.creds))
	restarted := New(Deps{API: api.New(tc), Credentials: h.creds, Storage: h.storage})
	assert.False(t, restarted.IsAuthenticated())

	sess := restarted.Rehydrate(ctx)
	assert.True(t, sess.IsAuthenticated)
	require.NotNil(t, sess.User)
	assert.Equal(t, u.ID, sess.User.ID)

	_, err := restarted.FetchMyGroups(ctx)
	require.NoError(t, err)
}

func TestRehydrate_ExpiredToken(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.backend.AddUser("ana", "ana@example.com", password, types.UserRoleTenant)
	require.NoError(t, h.creds.Save(ctx, h.backend.IssueToken(u.ID, time.Minute), u))

	later := time.Now().Add(time.Hour)
	tc := transport.NewClient(h.backend.URL(), transport.WithCredentials(h.creds))
	s := New(Deps{API: api.New(tc), Credentials: h.creds, Storage: h.storage, Now: func() time.Time { return later }})

	sess := s.Rehydrate(ctx)
	assert.False(t, sess.IsAuthenticated)
	assert.Empty(t, h.creds.Token(ctx))
}

func TestRehydrate_NoToken(t *testing.T) {
	h := newHarness(t)
	sess := h.store.Rehydrate(context.Background())
	assert.False(t, sess.IsAuthenticated)
	assert.Nil(t, sess.User)
}

func TestSpinnerCoversConcurrentOps(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.signIn(t, "ana", types.UserRoleTenant)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = h.store.FetchMyTasks(ctx)
		}()
	}
	wg.Wait()
	assert.False(t, h.spinner.Visible())
	assert.False(t, h.store.Status(SliceTasks).IsLoading)
}

func TestSignOutResetsEverySlice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := h.signIn(t, "owner", types.UserRoleOwner)
	h.backend.AddProperty(me.ID, "Loft")
	h.backend.AddNotification(me.ID, types.NotificationGroupJoin, "hi", false)
	_, err := h.store.FetchMyProperties(ctx)
	require.NoError(t, err)
	_, err = h.store.FetchUnreadCount(ctx)
	require.NoError(t, err)
	_, err = h.store.FetchNotifications(ctx)
	require.NoError(t, err)

	require.NoError(t, h.store.Logout(ctx))
	assert.Empty(t, h.store.MyProperties())
	assert.Empty(t, h.store.Notifications())
	assert.Zero(t, h.store.UnreadCount())
}
