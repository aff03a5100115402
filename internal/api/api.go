// Package api maps typed requests onto RoomSync REST endpoints. Every client
// is stateless: no caching, batching or in-flight dedup.
package api

import (
	"github.com/roomsync/roomsync-client/internal/transport"
)

// Clients bundles one resource client per domain noun.
type Clients struct {
	Auth          *AuthAPI
	Properties    *PropertyAPI
	PropertyAds   *PropertyAdAPI
	JoinRequests  *JoinRequestAPI
	Groups        *GroupAPI
	Expenses      *ExpenseAPI
	Splits        *SplitAPI
	Tasks         *TaskAPI
	Notifications *NotificationAPI
}

func New(tc *transport.Client) *Clients {
	return &Clients{
		Auth:          &AuthAPI{tc: tc},
		Properties:    &PropertyAPI{tc: tc},
		PropertyAds:   &PropertyAdAPI{tc: tc},
		JoinRequests:  &JoinRequestAPI{tc: tc},
		Groups:        &GroupAPI{tc: tc},
		Expenses:      &ExpenseAPI{tc: tc},
		Splits:        &SplitAPI{tc: tc},
		Tasks:         &TaskAPI{tc: tc},
		Notifications: &NotificationAPI{tc: tc},
	}
}
