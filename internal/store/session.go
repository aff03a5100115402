package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/internal/persist"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
)

// Session returns a copy of the session slice.
func (s *Store) Session() types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySession(s.session)
}

func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated
}

func copySession(sess types.Session) types.Session {
	if sess.User != nil {
		u := *sess.User
		sess.User = &u
	}
	return sess
}

// tokenExpiry reads the exp claim without verifying the signature; the
// server is the only verifier. Opaque tokens have no expiry.
func tokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func (s *Store) Login(ctx context.Context, req types.LoginRequest) (types.AuthResult, error) {
	return s.authenticate(ctx, effects.OpLogin, func(ctx context.Context) (*types.Envelope[types.AuthResult], error) {
		return s.api.Auth.Login(ctx, req)
	})
}

func (s *Store) Register(ctx context.Context, req types.RegisterRequest) (types.AuthResult, error) {
	return s.authenticate(ctx, effects.OpRegister, func(ctx context.Context) (*types.Envelope[types.AuthResult], error) {
		return s.api.Auth.Register(ctx, req)
	})
}

// authenticate stores the credential before the session flips to
// authenticated, so a failed write leaves the user signed out.
func (s *Store) authenticate(ctx context.Context, op effects.Op,
	call func(context.Context) (*types.Envelope[types.AuthResult], error)) (types.AuthResult, error) {

	res, err := run(ctx, s, SliceSession, op, func(ctx context.Context) (*types.Envelope[types.AuthResult], error) {
		env, err := call(ctx)
		if err != nil {
			return nil, err
		}
		if env.Data.Token == "" {
			return nil, apperrors.AuthenticationFailed("Server returned no token")
		}
		if err := s.credentials.Save(ctx, env.Data.Token, env.Data.User); err != nil {
			return nil, apperrors.Wrap(err, apperrors.StorageError, "Failed to store credentials")
		}
		return env, nil
	}, func(res types.AuthResult) {
		user := res.User
		s.resetLocked()
		s.session = types.Session{
			Token:           res.Token,
			User:            &user,
			IsAuthenticated: true,
			ExpiresAt:       tokenExpiry(res.Token),
		}
	})
	if err != nil {
		return res, err
	}
	s.log.Infow("Signed in", "userID", res.User.ID, "email", logger.MaskEmail(res.User.Email))
	s.persistSession(ctx)
	return res, nil
}

func (s *Store) FetchProfile(ctx context.Context) (types.User, error) {
	return s.updateUser(ctx, effects.OpFetchProfile, func(ctx context.Context) (*types.Envelope[types.User], error) {
		return s.api.Auth.Profile(ctx)
	})
}

func (s *Store) UpdateProfile(ctx context.Context, req types.UpdateProfileRequest) (types.User, error) {
	return s.updateUser(ctx, effects.OpUpdateProfile, func(ctx context.Context) (*types.Envelope[types.User], error) {
		return s.api.Auth.UpdateProfile(ctx, req)
	})
}

func (s *Store) updateUser(ctx context.Context, op effects.Op,
	call func(context.Context) (*types.Envelope[types.User], error)) (types.User, error) {

	user, err := run(ctx, s, SliceSession, op, call, func(u types.User) {
		if !s.session.IsAuthenticated {
			return
		}
		s.session.User = &u
	})
	if err != nil {
		return user, err
	}
	if err := s.credentials.SaveUser(ctx, user); err != nil {
		s.log.Warnw("Failed to store user record", "error", err)
	}
	s.persistSession(ctx)
	return user, nil
}

func (s *Store) UpdatePassword(ctx context.Context, req types.UpdatePasswordRequest) error {
	_, err := run(ctx, s, SliceSession, effects.OpUpdatePassword, func(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
		return s.api.Auth.UpdatePassword(ctx, req)
	}, nil)
	return err
}

// Logout always signs out locally. A failed server call is logged only.
func (s *Store) Logout(ctx context.Context) error {
	_, err := run(ctx, s, SliceSession, effects.OpLogout, func(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
		if _, err := s.api.Auth.Logout(ctx); err != nil && !apperrors.IsAuth(err) {
			s.log.Warnw("Server logout failed, signing out locally", "error", err)
		}
		if err := s.credentials.Clear(ctx); err != nil {
			return nil, apperrors.Wrap(err, apperrors.StorageError, "Failed to clear credentials")
		}
		return &types.Envelope[json.RawMessage]{Success: true}, nil
	}, nil)
	return err
}

// Rehydrate restores the session at boot from the persisted snapshot and
// credential. A missing token, or one whose exp has passed, leaves the user
// signed out.
func (s *Store) Rehydrate(ctx context.Context) types.Session {
	token := s.credentials.Token(ctx)
	if token == "" {
		s.mu.Lock()
		s.session = types.Session{}
		s.mu.Unlock()
		return s.Session()
	}

	sess := types.Session{Token: token, IsAuthenticated: true, ExpiresAt: tokenExpiry(token)}
	snap, err := persist.LoadSnapshot(ctx, s.storage)
	switch {
	case err == nil && snap.Session.Token == token:
		sess.User = snap.Session.User
	case err != nil && !errors.Is(err, persist.ErrNotFound):
		s.log.Warnw("Ignoring unreadable state snapshot", "error", err)
	}
	if sess.User == nil {
		if u, err := s.credentials.User(ctx); err == nil {
			sess.User = u
		}
	}

	if sess.Expired(s.now()) {
		s.log.Infow("Stored session expired", "expiresAt", sess.ExpiresAt)
		if err := s.credentials.Clear(ctx); err != nil {
			s.log.Warnw("Failed to clear expired credentials", "error", err)
		}
		return s.Session()
	}

	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	s.persistSession(ctx)
	return s.Session()
}

// signedOut runs after the credential store is cleared, by logout or by a
// 401 from any request.
func (s *Store) signedOut() {
	s.mu.Lock()
	wasAuthenticated := s.session.IsAuthenticated
	s.resetLocked()
	s.mu.Unlock()

	if wasAuthenticated {
		s.log.Infow("Session cleared")
	}
	s.persistSession(context.Background())
}

func (s *Store) persistSession(ctx context.Context) {
	if s.storage == nil {
		return
	}
	if err := persist.SaveSnapshot(ctx, s.storage, s.Session()); err != nil {
		s.log.Warnw("Failed to persist state snapshot", "error", err)
	}
}
