// Package effects routes the side effects of store operations (toasts,
// realtime room changes) through typed handlers instead of matching on
// operation names.
package effects

import (
	"context"

	"github.com/roomsync/roomsync-client/types"
)

// Kind identifies what happened.
type Kind string

const (
	OpRejected             Kind = "op_rejected"
	OpFulfilled            Kind = "op_fulfilled"
	NotificationReceived   Kind = "notification_received"
	GroupMembershipChanged Kind = "group_membership_changed"
)

// Op names a store operation.
type Op string

const (
	OpLogin          Op = "auth/login"
	OpRegister       Op = "auth/register"
	OpFetchProfile   Op = "auth/fetchProfile"
	OpUpdateProfile  Op = "auth/updateProfile"
	OpUpdatePassword Op = "auth/updatePassword"
	OpLogout         Op = "auth/logout"

	OpFetchMyProperties Op = "properties/fetchMine"
	OpFetchProperty     Op = "properties/fetchOne"
	OpCreateProperty    Op = "properties/create"
	OpUpdateProperty    Op = "properties/update"
	OpDeleteProperty    Op = "properties/delete"

	OpFetchAds       Op = "propertyAds/fetchAll"
	OpFetchMyAds     Op = "propertyAds/fetchMine"
	OpFetchAd        Op = "propertyAds/fetchOne"
	OpCreateAd       Op = "propertyAds/create"
	OpUpdateAd       Op = "propertyAds/update"
	OpToggleAdActive Op = "propertyAds/toggleActive"
	OpDeleteAd       Op = "propertyAds/delete"

	OpCreateJoinRequest  Op = "joinRequests/create"
	OpFetchMyRequests    Op = "joinRequests/fetchMine"
	OpFetchAdRequests    Op = "joinRequests/fetchForAd"
	OpRespondJoinRequest Op = "joinRequests/respond"
	OpCancelJoinRequest  Op = "joinRequests/cancel"

	OpFetchMyGroups       Op = "groups/fetchMine"
	OpFetchPropertyGroups Op = "groups/fetchForProperty"
	OpFetchGroup          Op = "groups/fetchOne"
	OpCreateGroup         Op = "groups/create"
	OpUpdateGroup         Op = "groups/update"
	OpJoinGroup           Op = "groups/join"
	OpLeaveGroup          Op = "groups/leave"
	OpUploadGroupImage    Op = "groups/uploadImage"

	OpFetchGroupExpenses Op = "expenses/fetchForGroup"
	OpFetchExpense       Op = "expenses/fetchOne"
	OpCreateExpense      Op = "expenses/create"
	OpUpdateExpense      Op = "expenses/update"
	OpDeleteExpense      Op = "expenses/delete"

	OpFetchToPay       Op = "splits/fetchToPay"
	OpFetchToReceive   Op = "splits/fetchToReceive"
	OpFetchHistory     Op = "splits/fetchHistory"
	OpRefreshSplits    Op = "splits/refresh"
	OpMarkSplitPaid    Op = "splits/markPaid"
	OpConfirmSplitPaid Op = "splits/confirmPaid"

	OpFetchGroupTasks    Op = "tasks/fetchForGroup"
	OpFetchMyTasks       Op = "tasks/fetchMine"
	OpCreateTask         Op = "tasks/create"
	OpUpdateTask         Op = "tasks/update"
	OpToggleTaskComplete Op = "tasks/toggleComplete"
	OpDeleteTask         Op = "tasks/delete"

	OpFetchNotifications     Op = "notifications/fetch"
	OpFetchMoreNotifications Op = "notifications/fetchMore"
	OpFetchUnreadCount       Op = "notifications/fetchUnreadCount"
	OpMarkRead               Op = "notifications/markRead"
	OpMarkAllRead            Op = "notifications/markAllRead"
	OpDeleteNotification     Op = "notifications/delete"
)

// Effect is one side effect raised by the store.
type Effect struct {
	Kind Kind
	Op   Op
	// Err is set for OpRejected.
	Err error
	// Message is the resolved user-facing text: the error message on
	// rejection, the success message on fulfilment.
	Message      string
	Notification *types.Notification
	GroupID      string
	Joined       bool
}

// Handler reacts to the effect kinds it declares.
type Handler interface {
	HandleEffect(ctx context.Context, effect Effect) error
	SupportedKinds() []Kind
}

// HandlerFunc adapts a function to Handler for the given kinds.
type HandlerFunc struct {
	Kinds []Kind
	Fn    func(ctx context.Context, effect Effect) error
}

func (h *HandlerFunc) HandleEffect(ctx context.Context, effect Effect) error {
	return h.Fn(ctx, effect)
}

func (h *HandlerFunc) SupportedKinds() []Kind {
	return h.Kinds
}
