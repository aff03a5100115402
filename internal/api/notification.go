package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/roomsync/roomsync-client/internal/transport"
	"github.com/roomsync/roomsync-client/types"
)

type NotificationAPI struct {
	tc *transport.Client
}

// List passes limit and offset straight through; zero values are omitted.
func (a *NotificationAPI) List(ctx context.Context, page types.Page) (*types.Envelope[[]types.Notification], error) {
	q := url.Values{}
	if page.Limit > 0 {
		q.Set("limit", strconv.Itoa(page.Limit))
	}
	if page.Offset > 0 {
		q.Set("offset", strconv.Itoa(page.Offset))
	}
	return transport.DoQuery[[]types.Notification](ctx, a.tc, http.MethodGet, "/notifications", q, nil)
}

func (a *NotificationAPI) UnreadCount(ctx context.Context) (*types.Envelope[types.UnreadCount], error) {
	return transport.Do[types.UnreadCount](ctx, a.tc, http.MethodGet, "/notifications/unread-count", nil)
}

func (a *NotificationAPI) MarkRead(ctx context.Context, id string) (*types.Envelope[types.Notification], error) {
	return transport.Do[types.Notification](ctx, a.tc, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil)
}

func (a *NotificationAPI) MarkAllRead(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodPatch, "/notifications/read-all", nil)
}

func (a *NotificationAPI) Delete(ctx context.Context, id string) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil)
}
