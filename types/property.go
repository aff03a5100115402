package types

import "time"

// Location holds a property's coordinates.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Property struct {
	ID             string    `json:"_id"`
	Name           string    `json:"name"`
	Address        string    `json:"address"`
	Location       Location  `json:"location"`
	Description    string    `json:"description,omitempty"`
	AvailableSpace int       `json:"available_space"`
	Tags           []string  `json:"tags,omitempty"`
	OwnerID        string    `json:"owner_id"`
	CreatedAt      time.Time `json:"createdAt,omitempty"`
}

func (p Property) GetID() string { return p.ID }

type CreatePropertyRequest struct {
	Name           string   `json:"name"`
	Address        string   `json:"address"`
	Location       Location `json:"location"`
	Description    string   `json:"description,omitempty"`
	AvailableSpace int      `json:"available_space"`
	Tags           []string `json:"tags,omitempty"`
}

type UpdatePropertyRequest struct {
	Name           *string   `json:"name,omitempty"`
	Address        *string   `json:"address,omitempty"`
	Location       *Location `json:"location,omitempty"`
	Description    *string   `json:"description,omitempty"`
	AvailableSpace *int      `json:"available_space,omitempty"`
	Tags           []string  `json:"tags,omitempty"`
}

// PropertyAd publishes a property to tenants with a requested tenant count.
type PropertyAd struct {
	ID               string    `json:"_id"`
	PropertyID       string    `json:"property_id"`
	Property         *Property `json:"property,omitempty"`
	RequestedTenants int       `json:"requested_tenants"`
	IsActive         bool      `json:"is_active"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}

func (a PropertyAd) GetID() string { return a.ID }

type CreatePropertyAdRequest struct {
	PropertyID       string `json:"property_id"`
	RequestedTenants int    `json:"requested_tenants"`
}

type UpdatePropertyAdRequest struct {
	RequestedTenants *int  `json:"requested_tenants,omitempty"`
	IsActive         *bool `json:"is_active,omitempty"`
}

// AdFilter narrows the tenant-facing ad listing.
type AdFilter struct {
	Search string
	Tags   []string
}

type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// PropertyJoinRequest is a tenant's request to join a property via one of its ads.
type PropertyJoinRequest struct {
	ID         string            `json:"_id"`
	AdID       string            `json:"ad_id"`
	PropertyID string            `json:"property_id"`
	TenantID   string            `json:"tenant_id"`
	Tenant     *User             `json:"tenant,omitempty"`
	Status     JoinRequestStatus `json:"status"`
	Message    string            `json:"message,omitempty"`
	CreatedAt  time.Time         `json:"createdAt,omitempty"`
	UpdatedAt  time.Time         `json:"updatedAt,omitempty"`
}

func (r PropertyJoinRequest) GetID() string { return r.ID }

type CreateJoinRequestRequest struct {
	AdID    string `json:"ad_id"`
	Message string `json:"message,omitempty"`
}

type RespondJoinRequestRequest struct {
	Status JoinRequestStatus `json:"status"`
}
