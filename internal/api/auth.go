package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/roomsync/roomsync-client/internal/transport"
	"github.com/roomsync/roomsync-client/types"
)

type AuthAPI struct {
	tc *transport.Client
}

func (a *AuthAPI) Login(ctx context.Context, req types.LoginRequest) (*types.Envelope[types.AuthResult], error) {
	return transport.Do[types.AuthResult](ctx, a.tc, http.MethodPost, "/auth/login", req)
}

func (a *AuthAPI) Register(ctx context.Context, req types.RegisterRequest) (*types.Envelope[types.AuthResult], error) {
	return transport.Do[types.AuthResult](ctx, a.tc, http.MethodPost, "/auth/register", req)
}

func (a *AuthAPI) Profile(ctx context.Context) (*types.Envelope[types.User], error) {
	return transport.Do[types.User](ctx, a.tc, http.MethodGet, "/auth/profile", nil)
}

func (a *AuthAPI) UpdateProfile(ctx context.Context, req types.UpdateProfileRequest) (*types.Envelope[types.User], error) {
	return transport.Do[types.User](ctx, a.tc, http.MethodPut, "/auth/profile", req)
}

func (a *AuthAPI) UpdatePassword(ctx context.Context, req types.UpdatePasswordRequest) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodPut, "/auth/password", req)
}

func (a *AuthAPI) Logout(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodPost, "/auth/logout", nil)
}
