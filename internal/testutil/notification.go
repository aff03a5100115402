package testutil

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/roomsync/roomsync-client/types"
)

// pendingPush is a stored notification awaiting realtime delivery once the
// state lock is released.
type pendingPush struct {
	recipientID string
	n           types.Notification
}

func (b *Backend) notifyLocked(recipientID string, senderID *string, typ types.NotificationType, message string, ref *types.EntityRef) pendingPush {
	ts := now()
	n := &types.Notification{
		ID:            b.nextID("notif"),
		Message:       message,
		Type:          typ,
		RecipientID:   recipientID,
		SenderID:      senderID,
		RelatedEntity: ref,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	b.notifications = append(b.notifications, n)
	return pendingPush{recipientID: recipientID, n: *n}
}

func (b *Backend) deliver(pushed []pendingPush) {
	for _, p := range pushed {
		b.Hub.Push(p.recipientID, p.n)
	}
}

// AddNotification stores a notification for recipientID without pushing it.
func (b *Backend) AddNotification(recipientID string, typ types.NotificationType, message string, read bool) types.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := b.notifyLocked(recipientID, nil, typ, message, nil)
	b.notifications[len(b.notifications)-1].IsRead = read
	p.n.IsRead = read
	return p.n
}

// Notify stores a notification for recipientID and pushes it over the hub.
func (b *Backend) Notify(recipientID string, typ types.NotificationType, message string) types.Notification {
	b.mu.Lock()
	p := b.notifyLocked(recipientID, nil, typ, message, nil)
	b.mu.Unlock()
	b.deliver([]pendingPush{p})
	return p.n
}

func (b *Backend) findNotification(id, recipientID string) (int, *types.Notification) {
	for i, n := range b.notifications {
		if n.ID == id && n.RecipientID == recipientID {
			return i, n
		}
	}
	return -1, nil
}

func (b *Backend) listNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	me := currentUser(c)

	b.mu.Lock()
	defer b.mu.Unlock()
	var mine []types.Notification
	for _, n := range b.notifications {
		if n.RecipientID == me {
			mine = append(mine, *n)
		}
	}
	// Newest first; ids break ties between notifications created together.
	sort.SliceStable(mine, func(i, j int) bool {
		return mine[i].CreatedAt.After(mine[j].CreatedAt)
	})
	reverseTies(mine)

	if offset > len(mine) {
		offset = len(mine)
	}
	mine = mine[offset:]
	if limit > 0 && limit < len(mine) {
		mine = mine[:limit]
	}
	if mine == nil {
		mine = []types.Notification{}
	}
	ok(c, http.StatusOK, "", mine)
}

// reverseTies orders runs with equal timestamps by descending creation order.
func reverseTies(ns []types.Notification) {
	for start := 0; start < len(ns); {
		end := start + 1
		for end < len(ns) && ns[end].CreatedAt.Equal(ns[start].CreatedAt) {
			end++
		}
		for i, j := start, end-1; i < j; i, j = i+1, j-1 {
			ns[i], ns[j] = ns[j], ns[i]
		}
		start = end
	}
}

func (b *Backend) unreadCount(c *gin.Context) {
	me := currentUser(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	count := 0
	for _, n := range b.notifications {
		if n.RecipientID == me && !n.IsRead {
			count++
		}
	}
	ok(c, http.StatusOK, "", types.UnreadCount{Count: count})
}

func (b *Backend) markRead(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, n := b.findNotification(c.Param("id"), currentUser(c))
	if n == nil {
		fail(c, http.StatusNotFound, "Notification not found")
		return
	}
	n.IsRead = true
	n.UpdatedAt = now()
	ok(c, http.StatusOK, "", *n)
}

func (b *Backend) markAllRead(c *gin.Context) {
	me := currentUser(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, n := range b.notifications {
		if n.RecipientID == me {
			n.IsRead = true
		}
	}
	ok(c, http.StatusOK, "All notifications marked as read", nil)
}

func (b *Backend) deleteNotification(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, n := b.findNotification(c.Param("id"), currentUser(c))
	if n == nil {
		fail(c, http.StatusNotFound, "Notification not found")
		return
	}
	b.notifications = append(b.notifications[:i], b.notifications[i+1:]...)
	ok(c, http.StatusOK, "Notification deleted", nil)
}
