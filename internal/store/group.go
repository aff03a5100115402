package store

import (
	"context"

	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/types"
)

func propertyGroupsView(propertyID string) string { return "property:" + propertyID }

func (s *Store) MyGroups() []types.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups.View(viewMine)
}

// MyGroupIDs lists the groups whose realtime rooms the client should be in.
func (s *Store) MyGroupIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups.IDs(viewMine)
}

func (s *Store) PropertyGroups(propertyID string) []types.Group {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups.View(propertyGroupsView(propertyID))
}

func (s *Store) Group(id string) (types.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups.Get(id)
}

func (s *Store) CurrentGroup() (types.Group, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.groups.Current(viewCurrent)
}

func (s *Store) FetchMyGroups(ctx context.Context) ([]types.Group, error) {
	return run(ctx, s, SliceGroups, effects.OpFetchMyGroups, s.api.Groups.ListMine, func(items []types.Group) {
		s.groups.ReplaceView(viewMine, items)
	})
}

func (s *Store) FetchPropertyGroups(ctx context.Context, propertyID string) ([]types.Group, error) {
	return run(ctx, s, SliceGroups, effects.OpFetchPropertyGroups, func(ctx context.Context) (*types.Envelope[[]types.Group], error) {
		return s.api.Groups.ListForProperty(ctx, propertyID)
	}, func(items []types.Group) {
		s.groups.ReplaceView(propertyGroupsView(propertyID), items)
	})
}

func (s *Store) FetchGroup(ctx context.Context, id string) (types.Group, error) {
	return run(ctx, s, SliceGroups, effects.OpFetchGroup, func(ctx context.Context) (*types.Envelope[types.Group], error) {
		return s.api.Groups.Get(ctx, id)
	}, func(g types.Group) {
		s.groups.SetCurrent(viewCurrent, g)
	})
}

func (s *Store) CreateGroup(ctx context.Context, req types.CreateGroupRequest) (types.Group, error) {
	g, err := run(ctx, s, SliceGroups, effects.OpCreateGroup, func(ctx context.Context) (*types.Envelope[types.Group], error) {
		return s.api.Groups.Create(ctx, req)
	}, func(g types.Group) {
		s.groups.Prepend(viewMine, g)
		if g.PropertyID != "" && s.groups.Len(propertyGroupsView(g.PropertyID)) > 0 {
			s.groups.Prepend(propertyGroupsView(g.PropertyID), g)
		}
	})
	if err == nil {
		s.membershipChanged(ctx, g.ID, true)
	}
	return g, err
}

func (s *Store) UpdateGroup(ctx context.Context, id string, req types.UpdateGroupRequest) (types.Group, error) {
	return run(ctx, s, SliceGroups, effects.OpUpdateGroup, func(ctx context.Context) (*types.Envelope[types.Group], error) {
		return s.api.Groups.Update(ctx, id, req)
	}, func(g types.Group) {
		s.groups.Upsert(g)
	})
}

func (s *Store) JoinGroup(ctx context.Context, id string) (types.Group, error) {
	g, err := run(ctx, s, SliceGroups, effects.OpJoinGroup, func(ctx context.Context) (*types.Envelope[types.Group], error) {
		return s.api.Groups.Join(ctx, id)
	}, func(g types.Group) {
		s.groups.Upsert(g)
		if !s.groups.Contains(viewMine, g.ID) {
			s.groups.Prepend(viewMine, g)
		}
	})
	if err == nil {
		s.membershipChanged(ctx, id, true)
	}
	return g, err
}

func (s *Store) LeaveGroup(ctx context.Context, id string) (types.Group, error) {
	g, err := run(ctx, s, SliceGroups, effects.OpLeaveGroup, func(ctx context.Context) (*types.Envelope[types.Group], error) {
		return s.api.Groups.Leave(ctx, id)
	}, func(g types.Group) {
		s.groups.Upsert(g)
		s.groups.RemoveFromView(viewMine, id)
	})
	if err == nil {
		s.membershipChanged(ctx, id, false)
	}
	return g, err
}

func (s *Store) UploadGroupImage(ctx context.Context, id, filename string, data []byte) (types.Group, error) {
	return run(ctx, s, SliceGroups, effects.OpUploadGroupImage, func(ctx context.Context) (*types.Envelope[types.Group], error) {
		return s.api.Groups.UploadImage(ctx, id, filename, data)
	}, func(g types.Group) {
		s.groups.Upsert(g)
	})
}

func (s *Store) membershipChanged(ctx context.Context, groupID string, joined bool) {
	s.dispatch(ctx, effects.Effect{
		Kind:    effects.GroupMembershipChanged,
		GroupID: groupID,
		Joined:  joined,
	})
}
