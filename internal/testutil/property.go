package testutil

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/roomsync/roomsync-client/types"
)

func (b *Backend) findProperty(id string) (int, *types.Property) {
	for i, p := range b.properties {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (b *Backend) findAd(id string) (int, *types.PropertyAd) {
	for i, a := range b.ads {
		if a.ID == id {
			return i, a
		}
	}
	return -1, nil
}

func (b *Backend) findJoinRequest(id string) (int, *types.PropertyJoinRequest) {
	for i, r := range b.joinRequests {
		if r.ID == id {
			return i, r
		}
	}
	return -1, nil
}

// adWithProperty embeds the property the way list responses do.
func (b *Backend) adWithProperty(ad *types.PropertyAd) types.PropertyAd {
	out := *ad
	if _, p := b.findProperty(ad.PropertyID); p != nil {
		cp := *p
		out.Property = &cp
	}
	return out
}

// AddProperty seeds a property owned by ownerID.
func (b *Backend) AddProperty(ownerID, name string, tags ...string) types.Property {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &types.Property{
		ID:             b.nextID("property"),
		Name:           name,
		Address:        name + " Street",
		AvailableSpace: 3,
		Tags:           tags,
		OwnerID:        ownerID,
		CreatedAt:      now(),
	}
	b.properties = append(b.properties, p)
	return *p
}

// AddAd seeds an active ad for propertyID.
func (b *Backend) AddAd(propertyID string, requestedTenants int) types.PropertyAd {
	b.mu.Lock()
	defer b.mu.Unlock()
	ad := &types.PropertyAd{
		ID:               b.nextID("ad"),
		PropertyID:       propertyID,
		RequestedTenants: requestedTenants,
		IsActive:         true,
		CreatedAt:        now(),
	}
	b.ads = append(b.ads, ad)
	return *ad
}

func (b *Backend) myProperties(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Property{}
	for _, p := range b.properties {
		if p.OwnerID == currentUser(c) {
			out = append(out, *p)
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) getProperty(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, p := b.findProperty(c.Param("id"))
	if p == nil {
		fail(c, http.StatusNotFound, "Property not found")
		return
	}
	ok(c, http.StatusOK, "", *p)
}

func (b *Backend) createProperty(c *gin.Context) {
	var req types.CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fields := required([2]string{"name", req.Name}, [2]string{"address", req.Address}); len(fields) > 0 {
		fail(c, http.StatusBadRequest, "Validation failed", fields...)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	p := &types.Property{
		ID:             b.nextID("property"),
		Name:           req.Name,
		Address:        req.Address,
		Location:       req.Location,
		Description:    req.Description,
		AvailableSpace: req.AvailableSpace,
		Tags:           req.Tags,
		OwnerID:        currentUser(c),
		CreatedAt:      now(),
	}
	b.properties = append(b.properties, p)
	ok(c, http.StatusCreated, "Property created", *p)
}

func (b *Backend) updateProperty(c *gin.Context) {
	var req types.UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, p := b.findProperty(c.Param("id"))
	if p == nil {
		fail(c, http.StatusNotFound, "Property not found")
		return
	}
	if p.OwnerID != currentUser(c) {
		fail(c, http.StatusForbidden, "Only the owner can edit this property")
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Location != nil {
		p.Location = *req.Location
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.AvailableSpace != nil {
		p.AvailableSpace = *req.AvailableSpace
	}
	if req.Tags != nil {
		p.Tags = req.Tags
	}
	ok(c, http.StatusOK, "Property updated", *p)
}

func (b *Backend) deleteProperty(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, p := b.findProperty(c.Param("id"))
	if p == nil {
		fail(c, http.StatusNotFound, "Property not found")
		return
	}
	if p.OwnerID != currentUser(c) {
		fail(c, http.StatusForbidden, "Only the owner can delete this property")
		return
	}
	b.properties = append(b.properties[:i], b.properties[i+1:]...)
	ads := b.ads[:0]
	for _, ad := range b.ads {
		if ad.PropertyID != p.ID {
			ads = append(ads, ad)
		}
	}
	b.ads = ads
	ok(c, http.StatusOK, "Property deleted", nil)
}

func (b *Backend) listAds(c *gin.Context) {
	search := strings.ToLower(c.Query("search"))
	var tags []string
	if raw := c.Query("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.PropertyAd{}
	for _, ad := range b.ads {
		if !ad.IsActive {
			continue
		}
		full := b.adWithProperty(ad)
		if full.Property == nil {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(full.Property.Name+" "+full.Property.Address+" "+full.Property.Description), search) {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(full.Property.Tags, tags) {
			continue
		}
		out = append(out, full)
	}
	ok(c, http.StatusOK, "", out)
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func (b *Backend) myAds(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.PropertyAd{}
	for _, ad := range b.ads {
		if _, p := b.findProperty(ad.PropertyID); p != nil && p.OwnerID == currentUser(c) {
			out = append(out, b.adWithProperty(ad))
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) getAd(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ad := b.findAd(c.Param("id"))
	if ad == nil {
		fail(c, http.StatusNotFound, "Listing not found")
		return
	}
	ok(c, http.StatusOK, "", b.adWithProperty(ad))
}

func (b *Backend) createAd(c *gin.Context) {
	var req types.CreatePropertyAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.RequestedTenants < 1 {
		fail(c, http.StatusBadRequest, "Validation failed",
			types.FieldError{Field: "requested_tenants", Message: "At least one tenant must be requested"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, p := b.findProperty(req.PropertyID)
	if p == nil || p.OwnerID != currentUser(c) {
		fail(c, http.StatusNotFound, "Property not found")
		return
	}
	ad := &types.PropertyAd{
		ID:               b.nextID("ad"),
		PropertyID:       p.ID,
		RequestedTenants: req.RequestedTenants,
		IsActive:         true,
		CreatedAt:        now(),
	}
	b.ads = append(b.ads, ad)
	ok(c, http.StatusCreated, "Listing published", b.adWithProperty(ad))
}

func (b *Backend) updateAd(c *gin.Context) {
	var req types.UpdatePropertyAdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	_, ad := b.findAd(c.Param("id"))
	if ad == nil {
		fail(c, http.StatusNotFound, "Listing not found")
		return
	}
	if req.IsActive != nil {
		ad.IsActive = *req.IsActive
	}
	if req.RequestedTenants != nil {
		ad.RequestedTenants = *req.RequestedTenants
	}
	ok(c, http.StatusOK, "Listing updated", b.adWithProperty(ad))
}

func (b *Backend) deleteAd(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, ad := b.findAd(c.Param("id"))
	if ad == nil {
		fail(c, http.StatusNotFound, "Listing not found")
		return
	}
	b.ads = append(b.ads[:i], b.ads[i+1:]...)
	ok(c, http.StatusOK, "Listing removed", nil)
}

func (b *Backend) createJoinRequest(c *gin.Context) {
	var req types.CreateJoinRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fields := required([2]string{"ad_id", req.AdID}); len(fields) > 0 {
		fail(c, http.StatusBadRequest, "Validation failed", fields...)
		return
	}

	me := currentUser(c)
	b.mu.Lock()
	_, ad := b.findAd(req.AdID)
	if ad == nil || !ad.IsActive {
		b.mu.Unlock()
		fail(c, http.StatusNotFound, "Listing not found")
		return
	}
	for _, r := range b.joinRequests {
		if r.AdID == ad.ID && r.TenantID == me && r.Status == types.JoinRequestPending {
			b.mu.Unlock()
			fail(c, http.StatusBadRequest, "You already have a pending request for this listing")
			return
		}
	}
	tenant, _ := b.userLocked(me)
	r := &types.PropertyJoinRequest{
		ID:         b.nextID("joinreq"),
		AdID:       ad.ID,
		PropertyID: ad.PropertyID,
		TenantID:   me,
		Tenant:     &tenant,
		Status:     types.JoinRequestPending,
		Message:    req.Message,
		CreatedAt:  now(),
		UpdatedAt:  now(),
	}
	b.joinRequests = append(b.joinRequests, r)
	_, p := b.findProperty(ad.PropertyID)
	var pushed []pendingPush
	if p != nil {
		pushed = append(pushed, b.notifyLocked(p.OwnerID, &me, types.NotificationJoinRequest,
			fmt.Sprintf("%s requested to join %s", tenant.Name, p.Name), &types.EntityRef{Kind: "join_request", ID: r.ID}))
	}
	out := *r
	b.mu.Unlock()

	b.deliver(pushed)
	ok(c, http.StatusCreated, "Join request sent", out)
}

func (b *Backend) myJoinRequests(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.PropertyJoinRequest{}
	for _, r := range b.joinRequests {
		if r.TenantID == currentUser(c) {
			out = append(out, *r)
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) adJoinRequests(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.PropertyJoinRequest{}
	for _, r := range b.joinRequests {
		if r.AdID == c.Param("id") {
			out = append(out, *r)
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) respondJoinRequest(c *gin.Context) {
	var req types.RespondJoinRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != types.JoinRequestApproved && req.Status != types.JoinRequestRejected {
		fail(c, http.StatusBadRequest, "Validation failed",
			types.FieldError{Field: "status", Message: "Status must be approved or rejected"})
		return
	}

	me := currentUser(c)
	b.mu.Lock()
	_, r := b.findJoinRequest(c.Param("id"))
	if r == nil {
		b.mu.Unlock()
		fail(c, http.StatusNotFound, "Join request not found")
		return
	}
	_, p := b.findProperty(r.PropertyID)
	if p == nil || p.OwnerID != me {
		b.mu.Unlock()
		fail(c, http.StatusForbidden, "Only the property owner can respond")
		return
	}
	if r.Status != types.JoinRequestPending {
		b.mu.Unlock()
		fail(c, http.StatusBadRequest, "Join request already processed")
		return
	}
	r.Status = req.Status
	r.UpdatedAt = now()
	pushed := []pendingPush{b.notifyLocked(r.TenantID, &me, types.NotificationJoinRequestResponse,
		fmt.Sprintf("Your request to join %s was %s", p.Name, req.Status), &types.EntityRef{Kind: "join_request", ID: r.ID})}
	out := *r
	b.mu.Unlock()

	b.deliver(pushed)
	ok(c, http.StatusOK, "Response recorded", out)
}

func (b *Backend) cancelJoinRequest(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	i, r := b.findJoinRequest(c.Param("id"))
	if r == nil || r.TenantID != currentUser(c) {
		fail(c, http.StatusNotFound, "Join request not found")
		return
	}
	b.joinRequests = append(b.joinRequests[:i], b.joinRequests[i+1:]...)
	ok(c, http.StatusOK, "Join request cancelled", nil)
}
