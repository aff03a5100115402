package types

import "time"

// GroupMember is a tenant id plus the profile snapshot the server embeds.
type GroupMember struct {
	TenantID     string `json:"tenant_id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	ProfileImage string `json:"profile_image,omitempty"`
}

type Group struct {
	ID          string        `json:"_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	PropertyID  string        `json:"property_id"`
	Members     []GroupMember `json:"members"`
	Image       string        `json:"image,omitempty"`
	CreatedBy   string        `json:"created_by"`
	CreatedAt   time.Time     `json:"createdAt,omitempty"`
}

func (g Group) GetID() string { return g.ID }

// HasMember reports whether tenantID is listed among the group's members.
func (g Group) HasMember(tenantID string) bool {
	for _, m := range g.Members {
		if m.TenantID == tenantID {
			return true
		}
	}
	return false
}

type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	PropertyID  string `json:"property_id"`
}

type UpdateGroupRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}
