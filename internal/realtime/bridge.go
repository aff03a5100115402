// Package realtime keeps the authenticated notification channel open and
// feeds pushed notifications into the store.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roomsync/roomsync-client/config"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

var (
	ErrAlreadyOpen = errors.New("realtime channel already open")
	ErrNoToken     = errors.New("no credential for realtime channel")
	errRejected    = errors.New("realtime channel rejected the credential")
)

// TokenSource supplies the bearer credential for the handshake.
type TokenSource interface {
	Token(ctx context.Context) string
}

// Receiver applies a pushed notification. It returns false for one it
// already holds.
type Receiver interface {
	ReceiveNotification(ctx context.Context, n types.Notification) bool
}

// GroupSource lists the groups whose rooms should be joined on connect.
type GroupSource interface {
	MyGroupIDs() []string
}

// Options tune the channel. Zero values fall back to defaults.
type Options struct {
	URL                  string
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
	PingInterval         time.Duration
	WriteTimeout         time.Duration
	// ReconnectBurst and ReconnectWindow size the reconnect rate limit.
	ReconnectBurst  int
	ReconnectWindow time.Duration
}

// OptionsFromConfig maps the realtime config section onto Options.
func OptionsFromConfig(cfg config.RealtimeConfig) Options {
	return Options{
		URL:                  cfg.URL,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		ReconnectDelay:       cfg.ReconnectDelay(),
		MaxReconnectDelay:    cfg.MaxReconnectDelay(),
		PingInterval:         cfg.PingInterval(),
	}
}

func (o *Options) withDefaults() {
	if o.ReconnectDelay <= 0 {
		o.ReconnectDelay = time.Second
	}
	if o.MaxReconnectDelay < o.ReconnectDelay {
		o.MaxReconnectDelay = 30 * time.Second
	}
	if o.PingInterval <= 0 {
		o.PingInterval = 25 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.ReconnectBurst <= 0 {
		o.ReconnectBurst = 3
	}
	if o.ReconnectWindow <= 0 {
		o.ReconnectWindow = 10 * time.Second
	}
}

// Bridge owns the notification channel. Open starts it, Close tears it down
// and stops reconnecting. Safe for concurrent use.
type Bridge struct {
	opts     Options
	tokens   TokenSource
	receiver Receiver
	groups   GroupSource
	log      *zap.SugaredLogger
	metrics  *Metrics
	bucket   *TokenBucket

	mu     sync.Mutex
	conn   *websocket.Conn
	rooms  map[string]struct{}
	cancel context.CancelFunc
	done   chan struct{}

	connected atomic.Bool
	dials     atomic.Int32
}

func NewBridge(opts Options, tokens TokenSource, receiver Receiver, groups GroupSource) *Bridge {
	opts.withDefaults()
	return &Bridge{
		opts:     opts,
		tokens:   tokens,
		receiver: receiver,
		groups:   groups,
		log:      logger.GetLogger().Named("realtime"),
		metrics:  getMetrics(),
		bucket:   NewTokenBucket(opts.ReconnectBurst, opts.ReconnectWindow),
		rooms:    make(map[string]struct{}),
	}
}

// Open starts the channel in the background. It fails fast when signed out.
func (b *Bridge) Open(ctx context.Context) error {
	if b.tokens.Token(ctx) == "" {
		return ErrNoToken
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cancel != nil {
		return ErrAlreadyOpen
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.loop(loopCtx, b.done)
	return nil
}

// Close tears the channel down and waits for the loop to exit. Closing a
// bridge that is not open is a no-op.
func (b *Bridge) Close() error {
	b.mu.Lock()
	cancel, done, conn := b.cancel, b.done, b.conn
	b.cancel, b.done = nil, nil
	b.rooms = make(map[string]struct{})
	b.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	if conn != nil {
		if err := conn.Close(websocket.StatusNormalClosure, "logout"); err != nil {
			b.log.Debugw("Close handshake incomplete", "error", err)
		}
	}
	<-done
	b.log.Infow("Realtime channel closed")
	return nil
}

// Connected reports whether the channel is currently open.
func (b *Bridge) Connected() bool {
	return b.connected.Load()
}

// Dials counts connection attempts, successful or not.
func (b *Bridge) Dials() int {
	return int(b.dials.Load())
}

// JoinGroup subscribes to a group's room now if connected and after every
// reconnect.
func (b *Bridge) JoinGroup(ctx context.Context, groupID string) error {
	b.mu.Lock()
	b.rooms[groupID] = struct{}{}
	b.mu.Unlock()
	return b.sendGroupFrame(ctx, TypeJoinGroup, groupID)
}

func (b *Bridge) LeaveGroup(ctx context.Context, groupID string) error {
	b.mu.Lock()
	delete(b.rooms, groupID)
	b.mu.Unlock()
	return b.sendGroupFrame(ctx, TypeLeaveGroup, groupID)
}

func (b *Bridge) SupportedKinds() []effects.Kind {
	return []effects.Kind{effects.GroupMembershipChanged}
}

// HandleEffect follows group membership changes made through the store.
func (b *Bridge) HandleEffect(ctx context.Context, effect effects.Effect) error {
	if effect.GroupID == "" {
		return nil
	}
	if effect.Joined {
		return b.JoinGroup(ctx, effect.GroupID)
	}
	return b.LeaveGroup(ctx, effect.GroupID)
}

func (b *Bridge) sendGroupFrame(ctx context.Context, typ, groupID string) error {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return nil
	}
	frame, err := NewFrame(typ, GroupPayload{GroupID: groupID})
	if err != nil {
		return err
	}
	return b.write(ctx, conn, frame)
}

func (b *Bridge) write(ctx context.Context, conn *websocket.Conn, frame Frame) error {
	writeCtx, cancel := context.WithTimeout(ctx, b.opts.WriteTimeout)
	defer cancel()
	return wsjson.Write(writeCtx, conn, frame)
}

// loop keeps a session running until ctx ends, the credential is rejected
// or reconnect attempts run out.
func (b *Bridge) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	attempt := 0
	for {
		established, err := b.session(ctx)
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, errRejected) || errors.Is(err, ErrNoToken) {
			b.log.Warnw("Realtime channel stopped", "error", err)
			return
		}
		if established {
			attempt = 0
		}

		attempt++
		if b.opts.MaxReconnectAttempts > 0 && attempt > b.opts.MaxReconnectAttempts {
			b.log.Errorw("Max reconnect attempts reached", "maxAttempts", b.opts.MaxReconnectAttempts, "error", err)
			return
		}

		delay := Backoff(attempt, b.opts.ReconnectDelay, b.opts.MaxReconnectDelay)
		if !b.bucket.Take() {
			wait := b.bucket.UntilRefill()
			b.log.Warnw("Reconnect rate limit exceeded", "wait", wait)
			if wait > delay {
				delay = wait
			}
		}

		b.metrics.reconnects.Inc()
		b.log.Infow("Reconnecting realtime channel", "attempt", attempt, "backoff", delay, "error", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// session dials, authenticates, rejoins rooms and reads until the channel
// drops. established is true when the handshake completed.
func (b *Bridge) session(ctx context.Context) (established bool, err error) {
	token := b.tokens.Token(ctx)
	if token == "" {
		return false, ErrNoToken
	}

	b.dials.Add(1)
	conn, resp, err := websocket.Dial(ctx, b.opts.URL, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{"Bearer " + token}},
	})
	if err != nil {
		b.metrics.dials.WithLabelValues("error").Inc()
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			return false, fmt.Errorf("%w: %s", errRejected, resp.Status)
		}
		return false, fmt.Errorf("dial realtime channel: %w", err)
	}
	b.metrics.dials.WithLabelValues("ok").Inc()

	if err := b.write(ctx, conn, mustFrame(TypeAuth, AuthPayload{Token: token})); err != nil {
		_ = conn.Close(websocket.StatusInternalError, "auth failed")
		return false, fmt.Errorf("send auth frame: %w", err)
	}

	b.mu.Lock()
	if ctx.Err() != nil {
		b.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
		return false, ctx.Err()
	}
	b.conn = conn
	rooms := b.roomsLocked()
	b.mu.Unlock()

	b.connected.Store(true)
	b.metrics.connected.Set(1)
	b.log.Infow("Realtime channel connected", "rooms", len(rooms))

	defer func() {
		b.mu.Lock()
		if b.conn == conn {
			b.conn = nil
		}
		b.mu.Unlock()
		b.connected.Store(false)
		b.metrics.connected.Set(0)
	}()

	for _, id := range rooms {
		if err := b.write(ctx, conn, mustFrame(TypeJoinGroup, GroupPayload{GroupID: id})); err != nil {
			return true, fmt.Errorf("rejoin group %s: %w", id, err)
		}
	}

	sessCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go b.pingLoop(sessCtx, conn)

	err = b.readLoop(sessCtx, conn)
	if websocket.CloseStatus(err) == websocket.StatusPolicyViolation {
		return true, fmt.Errorf("%w: %v", errRejected, err)
	}
	return true, err
}

// roomsLocked merges explicitly joined rooms with the store's groups.
func (b *Bridge) roomsLocked() []string {
	seen := make(map[string]struct{}, len(b.rooms))
	var out []string
	add := func(id string) {
		if _, ok := seen[id]; ok || id == "" {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if b.groups != nil {
		for _, id := range b.groups.MyGroupIDs() {
			add(id)
		}
	}
	for id := range b.rooms {
		add(id)
	}
	return out
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		var frame Frame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			return err
		}
		b.handleFrame(ctx, frame)
	}
}

func (b *Bridge) handleFrame(ctx context.Context, frame Frame) {
	b.metrics.frames.WithLabelValues(frame.Type).Inc()

	switch {
	case isNotification(frame.Type):
		var n types.Notification
		if err := json.Unmarshal(frame.Payload, &n); err != nil {
			b.log.Warnw("Dropping malformed notification frame", "type", frame.Type, "error", err)
			return
		}
		if n.ID == "" {
			n.ID = frame.ID
		}
		if !b.receiver.ReceiveNotification(ctx, n) {
			b.metrics.duplicates.Inc()
			b.log.Debugw("Dropped duplicate notification", "id", n.ID)
		}
	case frame.Type == TypeError:
		b.log.Warnw("Realtime channel error", "error", frame.Error)
	case frame.Type == TypeConnected, frame.Type == TypePong:
	default:
		b.log.Debugw("Unknown frame type", "type", frame.Type)
	}
}

func (b *Bridge) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(b.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, b.opts.WriteTimeout)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if ctx.Err() == nil {
					b.log.Warnw("Realtime ping failed", "error", err)
					_ = conn.Close(websocket.StatusGoingAway, "ping timeout")
				}
				return
			}
		}
	}
}

func mustFrame(typ string, payload any) Frame {
	f, err := NewFrame(typ, payload)
	if err != nil {
		panic(fmt.Sprintf("encode %s frame: %v", typ, err))
	}
	return f
}
