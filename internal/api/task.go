package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/roomsync/roomsync-client/internal/transport"
	"github.com/roomsync/roomsync-client/types"
)

type TaskAPI struct {
	tc *transport.Client
}

func (a *TaskAPI) ListForGroup(ctx context.Context, groupID string) (*types.Envelope[[]types.Task], error) {
	return transport.Do[[]types.Task](ctx, a.tc, http.MethodGet, "/tasks/group/"+url.PathEscape(groupID), nil)
}

func (a *TaskAPI) ListMine(ctx context.Context) (*types.Envelope[[]types.Task], error) {
	return transport.Do[[]types.Task](ctx, a.tc, http.MethodGet, "/tasks/my", nil)
}

func (a *TaskAPI) Create(ctx context.Context, req types.CreateTaskRequest) (*types.Envelope[types.Task], error) {
	return transport.Do[types.Task](ctx, a.tc, http.MethodPost, "/tasks", req)
}

func (a *TaskAPI) Update(ctx context.Context, id string, req types.UpdateTaskRequest) (*types.Envelope[types.Task], error) {
	return transport.Do[types.Task](ctx, a.tc, http.MethodPut, "/tasks/"+url.PathEscape(id), req)
}

func (a *TaskAPI) ToggleComplete(ctx context.Context, id string) (*types.Envelope[types.Task], error) {
	return transport.Do[types.Task](ctx, a.tc, http.MethodPatch, "/tasks/"+url.PathEscape(id)+"/complete", nil)
}

func (a *TaskAPI) Delete(ctx context.Context, id string) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil)
}
