package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/roomsync/roomsync-client/internal/transport"
	"github.com/roomsync/roomsync-client/types"
)

type GroupAPI struct {
	tc *transport.Client
}

func (a *GroupAPI) ListMine(ctx context.Context) (*types.Envelope[[]types.Group], error) {
	return transport.Do[[]types.Group](ctx, a.tc, http.MethodGet, "/groups/my", nil)
}

func (a *GroupAPI) ListForProperty(ctx context.Context, propertyID string) (*types.Envelope[[]types.Group], error) {
	return transport.Do[[]types.Group](ctx, a.tc, http.MethodGet, "/groups/property/"+url.PathEscape(propertyID), nil)
}

func (a *GroupAPI) Get(ctx context.Context, id string) (*types.Envelope[types.Group], error) {
	return transport.Do[types.Group](ctx, a.tc, http.MethodGet, "/groups/"+url.PathEscape(id), nil)
}

func (a *GroupAPI) Create(ctx context.Context, req types.CreateGroupRequest) (*types.Envelope[types.Group], error) {
	return transport.Do[types.Group](ctx, a.tc, http.MethodPost, "/groups", req)
}

func (a *GroupAPI) Update(ctx context.Context, id string, req types.UpdateGroupRequest) (*types.Envelope[types.Group], error) {
	return transport.Do[types.Group](ctx, a.tc, http.MethodPut, "/groups/"+url.PathEscape(id), req)
}

// Join returns the group with the caller added to its members.
func (a *GroupAPI) Join(ctx context.Context, id string) (*types.Envelope[types.Group], error) {
	return transport.Do[types.Group](ctx, a.tc, http.MethodPost, "/groups/"+url.PathEscape(id)+"/join", nil)
}

// Leave returns the group without the caller.
func (a *GroupAPI) Leave(ctx context.Context, id string) (*types.Envelope[types.Group], error) {
	return transport.Do[types.Group](ctx, a.tc, http.MethodPost, "/groups/"+url.PathEscape(id)+"/leave", nil)
}

func (a *GroupAPI) UploadImage(ctx context.Context, id, filename string, data []byte) (*types.Envelope[types.Group], error) {
	return transport.Upload[types.Group](ctx, a.tc, http.MethodPost, "/groups/"+url.PathEscape(id)+"/image", "image", filename, data)
}
