package store

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/types"
)

const defaultPageSize = 20

func (s *Store) Notifications() []types.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifications.View(viewAll)
}

func (s *Store) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.unread
}

// HasMoreNotifications is true while the last page came back full.
func (s *Store) HasMoreNotifications() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

// FetchNotifications replaces the list with the first page.
func (s *Store) FetchNotifications(ctx context.Context) ([]types.Notification, error) {
	page := types.Page{Limit: s.pageSize}
	return run(ctx, s, SliceNotifications, effects.OpFetchNotifications, func(ctx context.Context) (*types.Envelope[[]types.Notification], error) {
		return s.api.Notifications.List(ctx, page)
	}, func(items []types.Notification) {
		s.notifications.ReplaceView(viewAll, items)
		s.hasMore = len(items) == page.Limit
	})
}

// FetchMoreNotifications appends the page after what is loaded.
func (s *Store) FetchMoreNotifications(ctx context.Context) ([]types.Notification, error) {
	s.mu.RLock()
	page := types.Page{Limit: s.pageSize, Offset: s.notifications.Len(viewAll)}
	s.mu.RUnlock()

	return run(ctx, s, SliceNotifications, effects.OpFetchMoreNotifications, func(ctx context.Context) (*types.Envelope[[]types.Notification], error) {
		return s.api.Notifications.List(ctx, page)
	}, func(items []types.Notification) {
		s.notifications.Append(viewAll, items...)
		s.hasMore = len(items) == page.Limit
	})
}

func (s *Store) FetchUnreadCount(ctx context.Context) (int, error) {
	c, err := run(ctx, s, SliceNotifications, effects.OpFetchUnreadCount, s.api.Notifications.UnreadCount, func(c types.UnreadCount) {
		s.unread = c.Count
	})
	return c.Count, err
}

func (s *Store) MarkRead(ctx context.Context, id string) (types.Notification, error) {
	return run(ctx, s, SliceNotifications, effects.OpMarkRead, func(ctx context.Context) (*types.Envelope[types.Notification], error) {
		return s.api.Notifications.MarkRead(ctx, id)
	}, func(n types.Notification) {
		if prev, ok := s.notifications.Get(id); ok && !prev.IsRead {
			s.decrementUnread()
		}
		n.IsRead = true
		s.notifications.Upsert(n)
	})
}

func (s *Store) MarkAllRead(ctx context.Context) error {
	_, err := run(ctx, s, SliceNotifications, effects.OpMarkAllRead, s.api.Notifications.MarkAllRead, func(json.RawMessage) {
		s.notifications.Update(func(n types.Notification) types.Notification {
			n.IsRead = true
			return n
		})
		s.unread = 0
	})
	return err
}

// DeleteNotification decrements the unread count only when the deleted
// entry was unread.
func (s *Store) DeleteNotification(ctx context.Context, id string) error {
	_, err := run(ctx, s, SliceNotifications, effects.OpDeleteNotification, func(ctx context.Context) (*types.Envelope[json.RawMessage], error) {
		return s.api.Notifications.Delete(ctx, id)
	}, func(json.RawMessage) {
		if prev, ok := s.notifications.Get(id); ok && !prev.IsRead {
			s.decrementUnread()
		}
		s.notifications.Remove(id)
	})
	return err
}

// ReceiveNotification applies a pushed notification: prepend it and count it
// as unread. A notification already held (by id) is ignored, which makes
// replays after a reconnect harmless. Reports whether it was applied.
func (s *Store) ReceiveNotification(ctx context.Context, n types.Notification) bool {
	if n.ID == "" {
		n.ID = "local-" + uuid.NewString()
	}

	s.mu.Lock()
	if _, dup := s.notifications.Get(n.ID); dup {
		s.mu.Unlock()
		return false
	}
	s.notifications.Prepend(viewAll, n)
	if !n.IsRead {
		s.unread++
	}
	s.mu.Unlock()

	s.dispatch(ctx, effects.Effect{Kind: effects.NotificationReceived, Notification: &n})
	return true
}

func (s *Store) decrementUnread() {
	if s.unread > 0 {
		s.unread--
	}
}
