package store

import (
	"context"
	"net/http"
	"testing"

	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func propertyIDs(ps []types.Property) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestFetchMyProperties_ReplacesExactly(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := h.signIn(t, "owner", types.UserRoleOwner)
	p1 := h.backend.AddProperty(me.ID, "Loft")
	p2 := h.backend.AddProperty(me.ID, "Barn")

	_, err := h.store.FetchMyProperties(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{p1.ID, p2.ID}, propertyIDs(h.store.MyProperties()))

	// The server forgets p1; the next fetch must not keep it.
	require.NoError(t, h.store.DeleteProperty(ctx, p1.ID))
	p3 := h.backend.AddProperty(me.ID, "Cabin")
	got, err := h.store.FetchMyProperties(ctx)
	require.NoError(t, err)
	assert.Equal(t, propertyIDs(got), propertyIDs(h.store.MyProperties()))
	assert.Equal(t, []string{p2.ID, p3.ID}, propertyIDs(h.store.MyProperties()))

	// Idempotent.
	_, err = h.store.FetchMyProperties(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{p2.ID, p3.ID}, propertyIDs(h.store.MyProperties()))
}

func TestCreateProperty_AddsExactlyOne(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := h.signIn(t, "owner", types.UserRoleOwner)
	existing := h.backend.AddProperty(me.ID, "Loft")
	_, err := h.store.FetchMyProperties(ctx)
	require.NoError(t, err)

	created, err := h.store.CreateProperty(ctx, types.CreatePropertyRequest{Name: "Barn", Address: "2 Farm Rd", AvailableSpace: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{created.ID, existing.ID}, propertyIDs(h.store.MyProperties()))
	toasts := h.toasts.Toasts()
	require.Len(t, toasts, 1)
	assert.Equal(t, effects.Toast{Level: effects.LevelSuccess, Message: "Property created"}, toasts[0])
}

func TestUpdateProperty_VisibleInEveryView(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := h.signIn(t, "owner", types.UserRoleOwner)
	p := h.backend.AddProperty(me.ID, "Loft")
	_, err := h.store.FetchMyProperties(ctx)
	require.NoError(t, err)
	_, err = h.store.FetchProperty(ctx, p.ID)
	require.NoError(t, err)

	name := "Sky Loft"
	_, err = h.store.UpdateProperty(ctx, p.ID, types.UpdatePropertyRequest{Name: &name})
	require.NoError(t, err)

	assert.Equal(t, name, h.store.MyProperties()[0].Name)
	cur, ok := h.store.CurrentProperty()
	require.True(t, ok)
	assert.Equal(t, name, cur.Name)
}

func TestAds_ToggleAndCascade(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := h.signIn(t, "owner", types.UserRoleOwner)
	p := h.backend.AddProperty(me.ID, "Loft", "pets")
	other := h.backend.AddProperty(me.ID, "Barn", "garden")

	ad, err := h.store.CreateAd(ctx, types.CreatePropertyAdRequest{PropertyID: p.ID, RequestedTenants: 2})
	require.NoError(t, err)
	require.NotNil(t, ad.Property)
	_, err = h.store.CreateAd(ctx, types.CreatePropertyAdRequest{PropertyID: other.ID, RequestedTenants: 1})
	require.NoError(t, err)
	assert.Len(t, h.store.MyAds(), 2)

	listed, err := h.store.FetchAds(ctx, types.AdFilter{Tags: []string{"pets"}})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, ad.ID, h.store.Ads()[0].ID)

	toggled, err := h.store.ToggleAdActive(ctx, ad.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)
	assert.Empty(t, h.store.Ads(), "inactive ads leave the listing")
	assert.False(t, h.store.MyAds()[1].IsActive)

	require.NoError(t, h.store.DeleteProperty(ctx, p.ID))
	assert.Len(t, h.store.MyAds(), 1)
}

func TestToggleAdActive_UnknownAdRejectedLocally(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "owner", types.UserRoleOwner)

	_, err := h.store.ToggleAdActive(context.Background(), "ad-404")
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.NotFoundError, appErr.Type)
	assert.Zero(t, h.backend.Hits(http.MethodPatch, "/property-ads/ad-404"))
	assert.Equal(t, "Listing not found", h.store.Status(SlicePropertyAds).Error)
}

func TestJoinRequest_ApproveWithoutDuplicates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signIn(t, "owner", types.UserRoleOwner)
	p := h.backend.AddProperty(owner.ID, "Loft")
	ad := h.backend.AddAd(p.ID, 2)

	tenant, _ := h.other(t, "tenant", types.UserRoleTenant)
	req, err := tenant.CreateJoinRequest(ctx, types.CreateJoinRequestRequest{AdID: ad.ID, Message: "Hi"})
	require.NoError(t, err)
	mine := tenant.MyJoinRequests()
	require.Len(t, mine, 1)
	assert.Equal(t, types.JoinRequestPending, mine[0].Status)

	_, err = h.store.FetchAdRequests(ctx, ad.ID)
	require.NoError(t, err)
	require.Len(t, h.store.AdJoinRequests(ad.ID), 1)

	approved, err := h.store.RespondJoinRequest(ctx, req.ID, types.JoinRequestApproved)
	require.NoError(t, err)
	assert.Equal(t, types.JoinRequestApproved, approved.Status)
	assert.Equal(t, types.JoinRequestApproved, h.store.AdJoinRequests(ad.ID)[0].Status)

	_, err = tenant.FetchMyRequests(ctx)
	require.NoError(t, err)
	mine = tenant.MyJoinRequests()
	require.Len(t, mine, 1)
	assert.Equal(t, req.ID, mine[0].ID)
	assert.Equal(t, types.JoinRequestApproved, mine[0].Status)

	// Responding twice is caught before the request goes out.
	hits := h.backend.Hits(http.MethodPatch, "/join-requests/"+req.ID+"/respond")
	_, err = h.store.RespondJoinRequest(ctx, req.ID, types.JoinRequestRejected)
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.InvalidStatusTransitionError, appErr.Type)
	assert.Equal(t, hits, h.backend.Hits(http.MethodPatch, "/join-requests/"+req.ID+"/respond"))
}

func TestJoinRequest_DuplicatePendingIsPlainError(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	owner := h.signIn(t, "owner", types.UserRoleOwner)
	ad := h.backend.AddAd(h.backend.AddProperty(owner.ID, "Loft").ID, 1)

	tenant, _ := h.other(t, "tenant", types.UserRoleTenant)
	_, err := tenant.CreateJoinRequest(ctx, types.CreateJoinRequestRequest{AdID: ad.ID})
	require.NoError(t, err)
	_, err = tenant.CreateJoinRequest(ctx, types.CreateJoinRequestRequest{AdID: ad.ID})
	require.Error(t, err)
	assert.False(t, apperrors.IsValidation(err))
	assert.Len(t, tenant.MyJoinRequests(), 1)

	require.NoError(t, tenant.CancelJoinRequest(ctx, tenant.MyJoinRequests()[0].ID))
	assert.Empty(t, tenant.MyJoinRequests())
}

func TestRespondJoinRequest_InvalidStatus(t *testing.T) {
	h := newHarness(t)
	h.signIn(t, "owner", types.UserRoleOwner)

	_, err := h.store.RespondJoinRequest(context.Background(), "joinreq-1", types.JoinRequestPending)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "Status must be approved or rejected", h.store.Status(SliceJoinRequests).Error)
}
