package types

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationJoinRequest         NotificationType = "join_request"
	NotificationJoinRequestResponse NotificationType = "join_request_response"
	NotificationGroupJoin           NotificationType = "group_join"
	NotificationExpenseAdded        NotificationType = "expense_added"
	NotificationPaymentClaimed      NotificationType = "payment_claimed"
	NotificationPaymentConfirmed    NotificationType = "payment_confirmed"
	NotificationTaskAssigned        NotificationType = "task_assigned"
)

// EntityRef points at the record a notification is about.
type EntityRef struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

type Notification struct {
	ID            string           `json:"_id"`
	Message       string           `json:"message"`
	Type          NotificationType `json:"type"`
	RecipientID   string           `json:"recipient_id"`
	SenderID      *string          `json:"sender_id,omitempty"`
	IsRead        bool             `json:"is_read"`
	RelatedEntity *EntityRef       `json:"related_entity,omitempty"`
	Metadata      json.RawMessage  `json:"metadata,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
}

func (n Notification) GetID() string { return n.ID }

// UnreadCount is the data payload of the unread-count endpoint.
type UnreadCount struct {
	Count int `json:"count"`
}
