package store

import (
	"context"
	"encoding/json"

	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/types"
)

func (s *Store) GroupTasks(groupID string) []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.View(groupView(groupID))
}

func (s *Store) MyTasks() []types.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tasks.View(viewMine)
}

// OverdueTasks returns the user's incomplete tasks past their due date.
func (s *Store) OverdueTasks() []types.Task {
	now := s.now()
	var out []types.Task
	for _, t := range s.MyTasks() {
		if t.Overdue(now) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Store) FetchGroupTasks(ctx context.Context, groupID string) ([]types.Task, error) {
	return run(ctx, s, SliceTasks, effects.OpFetchGroupTasks, func(ctx context.Context) (*types.Envelope[[]types.Task], error) {
		return s.api.Tasks.ListForGroup(ctx, groupID)
	}, func(items []types.Task) {
		s.tasks.ReplaceView(groupView(groupID), items)
	})
}

func (s *Store) FetchMyTasks(ctx context.Context) ([]types.Task, error) {
	return run(ctx, s, SliceTasks, effects.OpFetchMyTasks, s.api.Tasks.ListMine, func(items []types.Task) {
		s.tasks.ReplaceView(viewMine, items)
	})
}

func (s *Store) CreateTask(ctx context.Context, req types.CreateTaskRequest) (types.Task, error) {
	return run(ctx, s, SliceTasks, effects.OpCreateTask, func(ctx context.Context) (*types.Envelope[types.Task], error) {
		return s.api.Tasks.Create(ctx, req)
	}, func(t types.Task) {
		s.tasks.Prepend(groupView(t.GroupID), t)
		if t.AssignedTo != "" && t.AssignedTo == s.currentUserID() {
			s.tasks.Prepend(viewMine, t)
		}
	})
}

func (s *Store) UpdateTask(ctx context.Context, id string, req types.UpdateTaskRequest) (types.Task, error) {
	return run(ctx, s, SliceTasks, effects.OpUpdateTask, func(ctx context.Context) (*types.Envelope[types.Task], error) {
		return s.api.Tasks.Update(ctx, id, req)
	}, s.applyTask)
}

func (s *Store) ToggleTaskComplete(ctx context.Context, id string) (types.Task, error) {
	return run(ctx, s, SliceTasks, effects.OpToggleTaskComplete, func(ctx context.Context) (*types.Envelope[types.Task], error) {
		return s.api.Tasks.ToggleComplete(ctx, id)
	}, s.applyTask)
}

// applyTask stores the server's task, moving it out of the user's list when
// it was reassigned to someone else.
func (s *Store) applyTask(t types.Task) {
	s.tasks.Upsert(t)
	if t.AssignedTo != s.currentUserID() {
		s.tasks.RemoveFromView(viewMine, t.ID)
	}
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	_, err := run(ctx, s, SliceTasks, effects.OpDeleteTask, func(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
		return s.api.Tasks.Delete(ctx, id)
	}, func(json.RawMessage) {
		s.tasks.Remove(id)
	})
	return err
}
