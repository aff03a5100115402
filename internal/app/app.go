// Package app wires the sync layer together: storage, credentials, REST
// clients, the store, the effects pipeline and the realtime channel.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/roomsync/roomsync-client/config"
	"github.com/roomsync/roomsync-client/internal/api"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/internal/persist"
	"github.com/roomsync/roomsync-client/internal/realtime"
	"github.com/roomsync/roomsync-client/internal/store"
	"github.com/roomsync/roomsync-client/internal/transport"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"go.uber.org/zap"
)

// Option customizes New.
type Option func(*options)

type options struct {
	storage    persist.Storage
	toaster    effects.Toaster
	httpClient *http.Client
	realtime   *realtime.Options
	onBusy     func(visible bool)
}

// WithStorage uses s instead of opening the configured driver.
func WithStorage(s persist.Storage) Option {
	return func(o *options) { o.storage = s }
}

// WithToaster routes toasts to t instead of the log.
func WithToaster(t effects.Toaster) Option {
	return func(o *options) { o.toaster = t }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithRealtimeOptions overrides the channel options derived from config.
func WithRealtimeOptions(opts realtime.Options) Option {
	return func(o *options) { o.realtime = &opts }
}

// WithBusyIndicator is called whenever the global spinner shows or hides.
func WithBusyIndicator(fn func(visible bool)) Option {
	return func(o *options) { o.onBusy = fn }
}

// App is the composition root. Store is the surface callers read and drive.
type App struct {
	Store       *store.Store
	Credentials *persist.Credentials
	Bridge      *realtime.Bridge
	Spinner     *effects.Spinner

	cfg        *config.Config
	storage    persist.Storage
	dispatcher *effects.Dispatcher
	log        *zap.SugaredLogger
}

func New(cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	log := logger.GetLogger().Named("app")

	storage := o.storage
	if storage == nil {
		var err error
		storage, err = persist.Open(cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
		}
	}
	creds := persist.NewCredentials(storage)

	clientOpts := []transport.ClientOption{transport.WithCredentials(creds)}
	if o.httpClient != nil {
		clientOpts = append(clientOpts, transport.WithHTTPClient(o.httpClient))
	}
	if cfg.API.TimeoutSeconds > 0 {
		clientOpts = append(clientOpts, transport.WithTimeout(cfg.API.Timeout()))
	}
	tc := transport.NewClient(cfg.API.BaseURL, clientOpts...)

	toaster := o.toaster
	if toaster == nil {
		toaster = effects.NewLogToaster()
	}
	dispatcher := effects.NewDispatcher()
	dispatcher.Register(effects.NewToastPolicy(toaster))

	spinner := effects.NewSpinner(o.onBusy)
	st := store.New(store.Deps{
		API:         api.New(tc),
		Credentials: creds,
		Storage:     storage,
		Dispatcher:  dispatcher,
		Spinner:     spinner,
	})

	a := &App{
		Store:       st,
		Credentials: creds,
		Spinner:     spinner,
		cfg:         cfg,
		storage:     storage,
		dispatcher:  dispatcher,
		log:         log,
	}

	if cfg.Realtime.Enabled {
		rtOpts := realtime.OptionsFromConfig(cfg.Realtime)
		if o.realtime != nil {
			rtOpts = *o.realtime
		}
		a.Bridge = realtime.NewBridge(rtOpts, creds, st, st)
		dispatcher.Register(a.Bridge)
		// Any sign-out, including a 401 on an unrelated request, ends the channel.
		creds.OnClear(func() {
			if err := a.Bridge.Close(); err != nil {
				log.Warnw("Failed to close realtime channel", "error", err)
			}
		})
	}

	log.Infow("Sync client initialized",
		"apiURL", cfg.API.BaseURL,
		"storage", cfg.Storage.Driver,
		"realtime", cfg.Realtime.Enabled)
	return a, nil
}

// Start restores the persisted session and, when signed in, opens the
// realtime channel.
func (a *App) Start(ctx context.Context) types.Session {
	sess := a.Store.Rehydrate(ctx)
	if sess.IsAuthenticated {
		a.openChannel(ctx)
	}
	return sess
}

func (a *App) Login(ctx context.Context, req types.LoginRequest) (types.AuthResult, error) {
	res, err := a.Store.Login(ctx, req)
	if err != nil {
		return res, err
	}
	a.openChannel(ctx)
	return res, nil
}

func (a *App) Register(ctx context.Context, req types.RegisterRequest) (types.AuthResult, error) {
	res, err := a.Store.Register(ctx, req)
	if err != nil {
		return res, err
	}
	a.openChannel(ctx)
	return res, nil
}

// Logout signs out; the channel closes with the cleared credentials.
func (a *App) Logout(ctx context.Context) error {
	return a.Store.Logout(ctx)
}

// Sync loads the signed-in user's working set: groups, splits, tasks and
// the first page of notifications, then joins the rooms of the loaded
// groups. Every step runs; failures are joined.
func (a *App) Sync(ctx context.Context) error {
	var errs []error
	if _, err := a.Store.FetchMyGroups(ctx); err != nil {
		errs = append(errs, err)
	} else if a.Bridge != nil {
		for _, id := range a.Store.MyGroupIDs() {
			if err := a.Bridge.JoinGroup(ctx, id); err != nil {
				a.log.Warnw("Failed to join group room", "groupID", id, "error", err)
			}
		}
	}
	if err := a.Store.RefreshSplits(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := a.Store.FetchMyTasks(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := a.Store.FetchNotifications(ctx); err != nil {
		errs = append(errs, err)
	}
	if _, err := a.Store.FetchUnreadCount(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close stops the channel and releases storage.
func (a *App) Close() error {
	var errs []error
	if a.Bridge != nil {
		if a.dispatcher != nil {
			a.dispatcher.Unregister(a.Bridge)
		}
		errs = append(errs, a.Bridge.Close())
	}
	errs = append(errs, a.storage.Close())
	return errors.Join(errs...)
}

func (a *App) openChannel(ctx context.Context) {
	if a.Bridge == nil {
		return
	}
	// A channel that stopped on its own (rejected credential, attempts
	// exhausted) is still marked open until closed.
	_ = a.Bridge.Close()
	if err := a.Bridge.Open(ctx); err != nil {
		a.log.Warnw("Realtime channel not opened", "error", err)
	}
}
