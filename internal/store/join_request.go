package store

import (
	"context"
	"encoding/json"

	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/types"
)

func adRequestsView(adID string) string { return "ad:" + adID }

// MyJoinRequests returns the signed-in tenant's requests.
func (s *Store) MyJoinRequests() []types.PropertyJoinRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinRequests.View(viewMine)
}

// AdJoinRequests returns the requests an owner loaded for one ad.
func (s *Store) AdJoinRequests(adID string) []types.PropertyJoinRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinRequests.View(adRequestsView(adID))
}

func (s *Store) CreateJoinRequest(ctx context.Context, req types.CreateJoinRequestRequest) (types.PropertyJoinRequest, error) {
	return run(ctx, s, SliceJoinRequests, effects.OpCreateJoinRequest, func(ctx context.Context) (*types.Envelope[types.PropertyJoinRequest], error) {
		return s.api.JoinRequests.Create(ctx, req)
	}, func(r types.PropertyJoinRequest) {
		s.joinRequests.Prepend(viewMine, r)
	})
}

func (s *Store) FetchMyRequests(ctx context.Context) ([]types.PropertyJoinRequest, error) {
	return run(ctx, s, SliceJoinRequests, effects.OpFetchMyRequests, s.api.JoinRequests.ListMine, func(items []types.PropertyJoinRequest) {
		s.joinRequests.ReplaceView(viewMine, items)
	})
}

func (s *Store) FetchAdRequests(ctx context.Context, adID string) ([]types.PropertyJoinRequest, error) {
	return run(ctx, s, SliceJoinRequests, effects.OpFetchAdRequests, func(ctx context.Context) (*types.Envelope[[]types.PropertyJoinRequest], error) {
		return s.api.JoinRequests.ListForAd(ctx, adID)
	}, func(items []types.PropertyJoinRequest) {
		s.joinRequests.ReplaceView(adRequestsView(adID), items)
	})
}

// RespondJoinRequest approves or rejects a pending request. A request already
// decided is rejected locally.
func (s *Store) RespondJoinRequest(ctx context.Context, id string, status types.JoinRequestStatus) (types.PropertyJoinRequest, error) {
	if status != types.JoinRequestApproved && status != types.JoinRequestRejected {
		return types.PropertyJoinRequest{}, s.reject(ctx, SliceJoinRequests, effects.OpRespondJoinRequest,
			apperrors.ValidationFailed("Invalid response", apperrors.FieldError{Field: "status", Message: "Status must be approved or rejected"}))
	}
	s.mu.RLock()
	current, known := s.joinRequests.Get(id)
	s.mu.RUnlock()
	if known && current.Status != types.JoinRequestPending {
		return types.PropertyJoinRequest{}, s.reject(ctx, SliceJoinRequests, effects.OpRespondJoinRequest,
			apperrors.InvalidStatusTransition(string(current.Status), string(status)))
	}

	return run(ctx, s, SliceJoinRequests, effects.OpRespondJoinRequest, func(ctx context.Context) (*types.Envelope[types.PropertyJoinRequest], error) {
		return s.api.JoinRequests.Respond(ctx, id, status)
	}, func(r types.PropertyJoinRequest) {
		s.joinRequests.Upsert(r)
	})
}

func (s *Store) CancelJoinRequest(ctx context.Context, id string) error {
	_, err := run(ctx, s, SliceJoinRequests, effects.OpCancelJoinRequest, func(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
		return s.api.JoinRequests.Cancel(ctx, id)
	}, func(json.RawMessage) {
		s.joinRequests.Remove(id)
	})
	return err
}
