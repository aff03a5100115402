package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/roomsync/roomsync-client/internal/transport"
	"github.com/roomsync/roomsync-client/types"
)

type ExpenseAPI struct {
	tc *transport.Client
}

func (a *ExpenseAPI) ListForGroup(ctx context.Context, groupID string) (*types.Envelope[[]types.Expense], error) {
	return transport.Do[[]types.Expense](ctx, a.tc, http.MethodGet, "/expenses/group/"+url.PathEscape(groupID), nil)
}

func (a *ExpenseAPI) Get(ctx context.Context, id string) (*types.Envelope[types.Expense], error) {
	return transport.Do[types.Expense](ctx, a.tc, http.MethodGet, "/expenses/"+url.PathEscape(id), nil)
}

// Create records an expense; the server derives one split per selected roommate.
func (a *ExpenseAPI) Create(ctx context.Context, req types.CreateExpenseRequest) (*types.Envelope[types.Expense], error) {
	return transport.Do[types.Expense](ctx, a.tc, http.MethodPost, "/expenses", req)
}

func (a *ExpenseAPI) Update(ctx context.Context, id string, req types.UpdateExpenseRequest) (*types.Envelope[types.Expense], error) {
	return transport.Do[types.Expense](ctx, a.tc, http.MethodPut, "/expenses/"+url.PathEscape(id), req)
}

func (a *ExpenseAPI) Delete(ctx context.Context, id string) (*types.Envelope[json.RawMessage], error) {
	return transport.Do[json.RawMessage](ctx, a.tc, http.MethodDelete, "/expenses/"+url.PathEscape(id), nil)
}

type SplitAPI struct {
	tc *transport.Client
}

func groupQuery(groupID string) url.Values {
	if groupID == "" {
		return nil
	}
	return url.Values{"group_id": []string{groupID}}
}

// ToPay lists unsettled splits the caller owes. groupID may be empty.
func (a *SplitAPI) ToPay(ctx context.Context, groupID string) (*types.Envelope[[]types.Split], error) {
	return transport.DoQuery[[]types.Split](ctx, a.tc, http.MethodGet, "/splits/to-pay", groupQuery(groupID), nil)
}

// ToReceive lists unsettled splits owed to the caller.
func (a *SplitAPI) ToReceive(ctx context.Context, groupID string) (*types.Envelope[[]types.Split], error) {
	return transport.DoQuery[[]types.Split](ctx, a.tc, http.MethodGet, "/splits/to-receive", groupQuery(groupID), nil)
}

// History lists settled splits involving the caller.
func (a *SplitAPI) History(ctx context.Context, groupID string) (*types.Envelope[[]types.Split], error) {
	return transport.DoQuery[[]types.Split](ctx, a.tc, http.MethodGet, "/splits/history", groupQuery(groupID), nil)
}

// MarkPaid is the payer's claim: unpaid -> pending.
func (a *SplitAPI) MarkPaid(ctx context.Context, id string) (*types.Envelope[types.Split], error) {
	return transport.Do[types.Split](ctx, a.tc, http.MethodPatch, "/splits/"+url.PathEscape(id)+"/mark-paid", nil)
}

// ConfirmPaid is the receiver's confirmation: pending -> paid.
func (a *SplitAPI) ConfirmPaid(ctx context.Context, id string) (*types.Envelope[types.Split], error) {
	return transport.Do[types.Split](ctx, a.tc, http.MethodPatch, "/splits/"+url.PathEscape(id)+"/confirm", nil)
}
