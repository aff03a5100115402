package testutil

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/roomsync/roomsync-client/types"
)

func (b *Backend) findGroup(id string) *types.Group {
	for _, g := range b.groups {
		if g.ID == id {
			return g
		}
	}
	return nil
}

func (b *Backend) memberLocked(userID string) types.GroupMember {
	u, _ := b.userLocked(userID)
	return types.GroupMember{TenantID: u.ID, Name: u.Name, Email: u.Email, ProfileImage: u.ProfileImage}
}

func copyGroup(g *types.Group) types.Group {
	out := *g
	out.Members = append([]types.GroupMember(nil), g.Members...)
	return out
}

// AddGroup seeds a group created by creatorID with extra members.
func (b *Backend) AddGroup(creatorID, name, propertyID string, memberIDs ...string) types.Group {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := &types.Group{
		ID:         b.nextID("group"),
		Name:       name,
		PropertyID: propertyID,
		Members:    []types.GroupMember{b.memberLocked(creatorID)},
		CreatedBy:  creatorID,
		CreatedAt:  now(),
	}
	for _, id := range memberIDs {
		g.Members = append(g.Members, b.memberLocked(id))
	}
	b.groups = append(b.groups, g)
	return copyGroup(g)
}

// IsGroupMember reports server-side membership.
func (b *Backend) IsGroupMember(groupID, userID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.findGroup(groupID)
	return g != nil && g.HasMember(userID)
}

func (b *Backend) myGroups(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Group{}
	for _, g := range b.groups {
		if g.HasMember(currentUser(c)) {
			out = append(out, copyGroup(g))
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) propertyGroups(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []types.Group{}
	for _, g := range b.groups {
		if g.PropertyID == c.Param("id") {
			out = append(out, copyGroup(g))
		}
	}
	ok(c, http.StatusOK, "", out)
}

func (b *Backend) getGroup(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.findGroup(c.Param("id"))
	if g == nil {
		fail(c, http.StatusNotFound, "Group not found")
		return
	}
	ok(c, http.StatusOK, "", copyGroup(g))
}

func (b *Backend) createGroup(c *gin.Context) {
	var req types.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if fields := required([2]string{"name", req.Name}); len(fields) > 0 {
		fail(c, http.StatusBadRequest, "Validation failed", fields...)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	g := &types.Group{
		ID:          b.nextID("group"),
		Name:        req.Name,
		Description: req.Description,
		PropertyID:  req.PropertyID,
		Members:     []types.GroupMember{b.memberLocked(currentUser(c))},
		CreatedBy:   currentUser(c),
		CreatedAt:   now(),
	}
	b.groups = append(b.groups, g)
	ok(c, http.StatusCreated, "Group created", copyGroup(g))
}

func (b *Backend) updateGroup(c *gin.Context) {
	var req types.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.findGroup(c.Param("id"))
	if g == nil {
		fail(c, http.StatusNotFound, "Group not found")
		return
	}
	if req.Name != nil {
		g.Name = *req.Name
	}
	if req.Description != nil {
		g.Description = *req.Description
	}
	ok(c, http.StatusOK, "Group updated", copyGroup(g))
}

func (b *Backend) joinGroup(c *gin.Context) {
	me := currentUser(c)
	b.mu.Lock()
	g := b.findGroup(c.Param("id"))
	if g == nil {
		b.mu.Unlock()
		fail(c, http.StatusNotFound, "Group not found")
		return
	}
	if g.HasMember(me) {
		b.mu.Unlock()
		fail(c, http.StatusBadRequest, "Already a member of this group")
		return
	}
	member := b.memberLocked(me)
	var pushed []pendingPush
	for _, m := range g.Members {
		pushed = append(pushed, b.notifyLocked(m.TenantID, &me, types.NotificationGroupJoin,
			fmt.Sprintf("%s joined %s", member.Name, g.Name), &types.EntityRef{Kind: "group", ID: g.ID}))
	}
	g.Members = append(g.Members, member)
	out := copyGroup(g)
	b.mu.Unlock()

	b.deliver(pushed)
	ok(c, http.StatusOK, "Joined group", out)
}

func (b *Backend) leaveGroup(c *gin.Context) {
	me := currentUser(c)
	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.findGroup(c.Param("id"))
	if g == nil {
		fail(c, http.StatusNotFound, "Group not found")
		return
	}
	if !g.HasMember(me) {
		fail(c, http.StatusBadRequest, "Not a member of this group")
		return
	}
	members := g.Members[:0]
	for _, m := range g.Members {
		if m.TenantID != me {
			members = append(members, m)
		}
	}
	g.Members = members
	ok(c, http.StatusOK, "Left group", copyGroup(g))
}

func (b *Backend) uploadGroupImage(c *gin.Context) {
	fh, err := c.FormFile("image")
	if err != nil {
		fail(c, http.StatusBadRequest, "Validation failed", types.FieldError{Field: "image", Message: "Image is required"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, "Unreadable upload")
		return
	}
	defer f.Close()
	if _, err := io.Copy(io.Discard, f); err != nil {
		fail(c, http.StatusBadRequest, "Unreadable upload")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	g := b.findGroup(c.Param("id"))
	if g == nil {
		fail(c, http.StatusNotFound, "Group not found")
		return
	}
	g.Image = "/uploads/groups/" + g.ID + "/" + fh.Filename
	ok(c, http.StatusOK, "Image uploaded", copyGroup(g))
}
