package effects

import (
	"context"

	apperrors "github.com/roomsync/roomsync-client/errors"
)

// suppressed ops render their errors inline, so no toast is raised for them.
var suppressed = map[Op]struct{}{
	OpLogin:          {},
	OpRegister:       {},
	OpFetchProfile:   {},
	OpUpdatePassword: {},
	OpLogout:         {},
}

// overrides are used when a rejection carries no message of its own.
var overrides = map[Op]string{
	OpFetchMyProperties:  "Could not load your properties.",
	OpCreateProperty:     "Could not create the property.",
	OpFetchAds:           "Could not load listings.",
	OpCreateAd:           "Could not publish the listing.",
	OpCreateJoinRequest:  "Could not send your join request.",
	OpRespondJoinRequest: "Could not respond to the join request.",
	OpFetchMyGroups:      "Could not load your groups.",
	OpJoinGroup:          "Could not join the group.",
	OpLeaveGroup:         "Could not leave the group.",
	OpUploadGroupImage:   "Could not upload the group image.",
	OpCreateExpense:      "Could not add the expense.",
	OpMarkSplitPaid:      "Could not mark the payment as paid.",
	OpConfirmSplitPaid:   "Could not confirm the payment.",
	OpCreateTask:         "Could not create the task.",
	OpFetchNotifications: "Could not load notifications.",
}

// IsSuppressed reports whether rejections of op skip the error toast.
func IsSuppressed(op Op) bool {
	_, ok := suppressed[op]
	return ok
}

// ResolveMessage picks the text for a rejected op: the effect's own message,
// then the per-op override, then the generic default.
func ResolveMessage(op Op, message string) string {
	if message != "" {
		return message
	}
	if msg, ok := overrides[op]; ok {
		return msg
	}
	return apperrors.DefaultMessage
}

// ToastPolicy turns effects into toasts.
type ToastPolicy struct {
	toaster Toaster
}

func NewToastPolicy(toaster Toaster) *ToastPolicy {
	return &ToastPolicy{toaster: toaster}
}

func (p *ToastPolicy) SupportedKinds() []Kind {
	return []Kind{OpRejected, OpFulfilled, NotificationReceived}
}

func (p *ToastPolicy) HandleEffect(_ context.Context, effect Effect) error {
	switch effect.Kind {
	case OpRejected:
		if IsSuppressed(effect.Op) {
			return nil
		}
		msg := effect.Message
		if msg == "" {
			msg = apperrors.Message(effect.Err)
		}
		p.toaster.Show(Toast{Level: LevelError, Message: ResolveMessage(effect.Op, msg)})
	case OpFulfilled:
		if effect.Message != "" {
			p.toaster.Show(Toast{Level: LevelSuccess, Message: effect.Message})
		}
	case NotificationReceived:
		if effect.Notification != nil && effect.Notification.Message != "" {
			p.toaster.Show(Toast{Level: LevelInfo, Message: effect.Notification.Message})
		}
	}
	return nil
}
