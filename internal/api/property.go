package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/roomsync/roomsync-client/internal/transport"
	"github.com/roomsync/roomsync-client/types"
)

type PropertyAPI struct {
	tc *transport.Client
}

func (a *PropertyAPI) ListMine(ctx context.Context) (*types.Envelope[[]types.Property], error) {
	return transport.Do[[]types.Property](ctx, a.tc, http.MethodGet, "/properties/my", nil)
}

func (a *PropertyAPI) Get(ctx context.Context, id string) (*types.Envelope[types.Property], error) {
	return transport.Do[types.Property](ctx, a.tc, http.MethodGet, "/properties/"+url.PathEscape(id), nil)
}

func (a *PropertyAPI) Create(ctx context.Context, req types.CreatePropertyRequest) (*types.Envelope[types.Property], error) {
	return transport.Do[types.Property](ctx, a.tc, http.MethodPost, "/properties", req)
}

func (a *PropertyAPI) Update(ctx context.Context, id string, req types.UpdatePropertyRequest) (*types.Envelope[types.Property], error) {
	return transport.Do[types.Property](ctx, a.tc, http.MethodPut, "/properties/"+url.PathEscape(id), req)
}

func (a *PropertyAPI) Delete(ctx context.Context, id string) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodDelete, "/properties/"+url.PathEscape(id), nil)
}

type PropertyAdAPI struct {
	tc *transport.Client
}

// List returns the active ads tenants can browse.
func (a *PropertyAdAPI) List(ctx context.Context, filter types.AdFilter) (*types.Envelope[[]types.PropertyAd], error) {
	q := url.Values{}
	if filter.Search != "" {
		q.Set("search", filter.Search)
	}
	if len(filter.Tags) > 0 {
		q.Set("tags", strings.Join(filter.Tags, ","))
	}
	return transport.DoQuery[[]types.PropertyAd](ctx, a.tc, http.MethodGet, "/property-ads", q, nil)
}

// ListMine returns the ads the signed-in owner published.
func (a *PropertyAdAPI) ListMine(ctx context.Context) (*types.Envelope[[]types.PropertyAd], error) {
	return transport.Do[[]types.PropertyAd](ctx, a.tc, http.MethodGet, "/property-ads/my", nil)
}

func (a *PropertyAdAPI) Get(ctx context.Context, id string) (*types.Envelope[types.PropertyAd], error) {
	return transport.Do[types.PropertyAd](ctx, a.tc, http.MethodGet, "/property-ads/"+url.PathEscape(id), nil)
}

func (a *PropertyAdAPI) Create(ctx context.Context, req types.CreatePropertyAdRequest) (*types.Envelope[types.PropertyAd], error) {
	return transport.Do[types.PropertyAd](ctx, a.tc, http.MethodPost, "/property-ads", req)
}

func (a *PropertyAdAPI) Update(ctx context.Context, id string, req types.UpdatePropertyAdRequest) (*types.Envelope[types.PropertyAd], error) {
	return transport.Do[types.PropertyAd](ctx, a.tc, http.MethodPatch, "/property-ads/"+url.PathEscape(id), req)
}

func (a *PropertyAdAPI) Delete(ctx context.Context, id string) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodDelete, "/property-ads/"+url.PathEscape(id), nil)
}

type JoinRequestAPI struct {
	tc *transport.Client
}

func (a *JoinRequestAPI) Create(ctx context.Context, req types.CreateJoinRequestRequest) (*types.Envelope[types.PropertyJoinRequest], error) {
	return transport.Do[types.PropertyJoinRequest](ctx, a.tc, http.MethodPost, "/join-requests", req)
}

// ListMine returns the signed-in tenant's requests.
func (a *JoinRequestAPI) ListMine(ctx context.Context) (*types.Envelope[[]types.PropertyJoinRequest], error) {
	return transport.Do[[]types.PropertyJoinRequest](ctx, a.tc, http.MethodGet, "/join-requests/my", nil)
}

// ListForAd returns the requests an owner received on one ad.
func (a *JoinRequestAPI) ListForAd(ctx context.Context, adID string) (*types.Envelope[[]types.PropertyJoinRequest], error) {
	return transport.Do[[]types.PropertyJoinRequest](ctx, a.tc, http.MethodGet, "/join-requests/ad/"+url.PathEscape(adID), nil)
}

func (a *JoinRequestAPI) Respond(ctx context.Context, id string, status types.JoinRequestStatus) (*types.Envelope[types.PropertyJoinRequest], error) {
	return transport.Do[types.PropertyJoinRequest](ctx, a.tc, http.MethodPatch, "/join-requests/"+url.PathEscape(id)+"/respond",
		types.RespondJoinRequestRequest{Status: status})
}

func (a *JoinRequestAPI) Cancel(ctx context.Context, id string) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodDelete, "/join-requests/"+url.PathEscape(id), nil)
}
