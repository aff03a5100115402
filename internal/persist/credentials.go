package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"go.uber.org/zap"
)

// Fixed keys the transport reads the bearer credential from.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// Credentials is the durable bearer token and user record. An absent token
// means requests go out anonymously.
type Credentials struct {
	storage Storage
	log     *zap.SugaredLogger

	mu      sync.RWMutex
	onClear []func()
}

func NewCredentials(storage Storage) *Credentials {
	return &Credentials{
		storage: storage,
		log:     logger.GetLogger().Named("credentials"),
	}
}

// Token returns the stored token, or "" when none is stored or the medium
// is unreadable.
func (c *Credentials) Token(ctx context.Context) string {
	v, err := c.storage.Get(ctx, TokenKey)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.log.Warnw("Failed to read stored token", "error", err)
		}
		return ""
	}
	return string(v)
}

// User returns the stored user record. ErrNotFound when signed out.
func (c *Credentials) User(ctx context.Context) (*types.User, error) {
	v, err := c.storage.Get(ctx, UserKey)
	if err != nil {
		return nil, err
	}
	var u types.User
	if err := json.Unmarshal(v, &u); err != nil {
		return nil, fmt.Errorf("failed to decode stored user: %w", err)
	}
	return &u, nil
}

// Save stores the token and user record after a successful login or register.
func (c *Credentials) Save(ctx context.Context, token string, user types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := c.storage.Set(ctx, TokenKey, []byte(token)); err != nil {
		return err
	}
	if err := c.storage.Set(ctx, UserKey, data); err != nil {
		return err
	}
	c.log.Debugw("Stored credentials",
		"userID", user.ID,
		"email", logger.MaskEmail(user.Email),
		"token", logger.MaskJWT(token))
	return nil
}

// SaveUser replaces only the stored user record, e.g. after a profile update.
func (c *Credentials) SaveUser(ctx context.Context, user types.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return c.storage.Set(ctx, UserKey, data)
}

// Clear removes token and user, then notifies OnClear listeners. Listeners
// run even when a delete fails so the in-memory session never outlives the
// purge attempt.
func (c *Credentials) Clear(ctx context.Context) error {
	errToken := c.storage.Delete(ctx, TokenKey)
	errUser := c.storage.Delete(ctx, UserKey)

	c.mu.RLock()
	listeners := append([]func(){}, c.onClear...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}

	return errors.Join(errToken, errUser)
}

// OnClear registers fn to run after every Clear.
func (c *Credentials) OnClear(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClear = append(c.onClear, fn)
}
