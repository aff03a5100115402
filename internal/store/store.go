// Package store is the client-side mirror of server state. Each domain slice
// owns normalized tables and a status; every operation follows the same
// idle -> pending -> fulfilled | rejected lifecycle and reports its outcome
// through the effects dispatcher.
package store

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/roomsync/roomsync-client/errors"
	"github.com/roomsync/roomsync-client/internal/api"
	"github.com/roomsync/roomsync-client/internal/effects"
	"github.com/roomsync/roomsync-client/internal/persist"
	"github.com/roomsync/roomsync-client/logger"
	"github.com/roomsync/roomsync-client/types"
	"go.uber.org/zap"
)

// Slice names one domain subtree of the store.
type Slice string

const (
	SliceSession       Slice = "session"
	SliceProperties    Slice = "properties"
	SlicePropertyAds   Slice = "propertyAds"
	SliceJoinRequests  Slice = "joinRequests"
	SliceGroups        Slice = "groups"
	SliceExpenses      Slice = "expenses"
	SliceSplits        Slice = "splits"
	SliceTasks         Slice = "tasks"
	SliceNotifications Slice = "notifications"
)

var allSlices = []Slice{
	SliceSession, SliceProperties, SlicePropertyAds, SliceJoinRequests,
	SliceGroups, SliceExpenses, SliceSplits, SliceTasks, SliceNotifications,
}

const viewCurrent = "current"

// Status is the loading flag and last error of a slice.
type Status struct {
	IsLoading bool
	Error     string
}

type sliceStatus struct {
	inflight int
	err      string
}

// Deps are the collaborators a Store needs. Spinner and Now are optional.
type Deps struct {
	API         *api.Clients
	Credentials *persist.Credentials
	Storage     persist.Storage
	Dispatcher  *effects.Dispatcher
	Spinner     *effects.Spinner
	Now         func() time.Time
}

// Store is safe for concurrent use. Reads return copies.
type Store struct {
	api         *api.Clients
	credentials *persist.Credentials
	storage     persist.Storage
	dispatcher  *effects.Dispatcher
	spinner     *effects.Spinner
	now         func() time.Time
	log         *zap.SugaredLogger

	mu            sync.RWMutex
	status        map[Slice]*sliceStatus
	session       types.Session
	properties    *Table[types.Property]
	ads           *Table[types.PropertyAd]
	joinRequests  *Table[types.PropertyJoinRequest]
	groups        *Table[types.Group]
	expenses      *Table[types.Expense]
	splits        *Table[types.Split]
	tasks         *Table[types.Task]
	notifications *Table[types.Notification]
	unread        int
	hasMore       bool
	pageSize      int
}

func New(deps Deps) *Store {
	s := &Store{
		api:           deps.API,
		credentials:   deps.Credentials,
		storage:       deps.Storage,
		dispatcher:    deps.Dispatcher,
		spinner:       deps.Spinner,
		now:           deps.Now,
		log:           logger.GetLogger().Named("store"),
		status:        make(map[Slice]*sliceStatus, len(allSlices)),
		properties:    NewTable[types.Property](),
		ads:           NewTable[types.PropertyAd](),
		joinRequests:  NewTable[types.PropertyJoinRequest](),
		groups:        NewTable[types.Group](),
		expenses:      NewTable[types.Expense](),
		splits:        NewTable[types.Split](),
		tasks:         NewTable[types.Task](),
		notifications: NewTable[types.Notification](),
		pageSize:      defaultPageSize,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.dispatcher == nil {
		s.dispatcher = effects.NewDispatcher()
	}
	for _, slice := range allSlices {
		s.status[slice] = &sliceStatus{}
	}
	if s.credentials != nil {
		s.credentials.OnClear(s.signedOut)
	}
	return s
}

// Dispatcher returns the dispatcher effects are raised on.
func (s *Store) Dispatcher() *effects.Dispatcher {
	return s.dispatcher
}

// Status returns the lifecycle state of slice.
func (s *Store) Status(slice Slice) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.status[slice]
	if !ok {
		return Status{}
	}
	return Status{IsLoading: st.inflight > 0, Error: st.err}
}

// successMessages lists the ops that toast on success, with the text used
// when the server sends none.
var successMessages = map[effects.Op]string{
	effects.OpLogin:              "Welcome back!",
	effects.OpRegister:           "Account created",
	effects.OpUpdateProfile:      "Profile updated",
	effects.OpUpdatePassword:     "Password updated",
	effects.OpCreateProperty:     "Property created",
	effects.OpUpdateProperty:     "Property updated",
	effects.OpDeleteProperty:     "Property deleted",
	effects.OpCreateAd:           "Listing published",
	effects.OpDeleteAd:           "Listing removed",
	effects.OpCreateJoinRequest:  "Join request sent",
	effects.OpRespondJoinRequest: "Response sent",
	effects.OpCancelJoinRequest:  "Join request cancelled",
	effects.OpCreateGroup:        "Group created",
	effects.OpJoinGroup:          "Joined group",
	effects.OpLeaveGroup:         "Left group",
	effects.OpCreateExpense:      "Expense added",
	effects.OpDeleteExpense:      "Expense deleted",
	effects.OpMarkSplitPaid:      "Payment marked as paid",
	effects.OpConfirmSplitPaid:   "Payment confirmed",
	effects.OpCreateTask:         "Task created",
	effects.OpDeleteTask:         "Task deleted",
}

func successMessage(op effects.Op, server string) string {
	fallback, ok := successMessages[op]
	if !ok {
		return ""
	}
	if server != "" {
		return server
	}
	return fallback
}

// run drives one operation through its lifecycle. apply runs under the write
// lock with the response data and must not block.
func run[T any](ctx context.Context, s *Store, slice Slice, op effects.Op,
	call func(context.Context) (*types.Envelope[T], error), apply func(T)) (T, error) {

	release := s.begin(slice)
	defer release()

	env, err := call(ctx)
	if err != nil {
		var zero T
		s.fail(ctx, slice, op, err, true)
		return zero, err
	}

	s.mu.Lock()
	if apply != nil {
		apply(env.Data)
	}
	s.status[slice].inflight--
	s.mu.Unlock()

	s.dispatch(ctx, effects.Effect{
		Kind:    effects.OpFulfilled,
		Op:      op,
		Message: successMessage(op, env.Message),
	})
	return env.Data, nil
}

// begin marks slice pending and clears its error.
func (s *Store) begin(slice Slice) (release func()) {
	s.mu.Lock()
	st := s.status[slice]
	st.inflight++
	st.err = ""
	s.mu.Unlock()

	if s.spinner == nil {
		return func() {}
	}
	return s.spinner.Acquire()
}

// fail records err on slice and raises OpRejected. started is false for
// operations rejected before begin.
func (s *Store) fail(ctx context.Context, slice Slice, op effects.Op, err error, started bool) {
	s.mu.Lock()
	st := s.status[slice]
	if started {
		st.inflight--
	}
	st.err = apperrors.UserMessage(err, "")
	s.mu.Unlock()

	s.log.Debugw("Operation rejected", "op", op, "error", err)
	s.dispatch(ctx, effects.Effect{
		Kind:    effects.OpRejected,
		Op:      op,
		Err:     err,
		Message: apperrors.Message(err),
	})
}

// reject fails op locally without issuing a request.
func (s *Store) reject(ctx context.Context, slice Slice, op effects.Op, err error) error {
	s.fail(ctx, slice, op, err, false)
	return err
}

func (s *Store) dispatch(ctx context.Context, effect effects.Effect) {
	// Handler failures are logged by the dispatcher and never fail the op.
	_ = s.dispatcher.Dispatch(ctx, effect)
}

// currentUserID is "" when signed out. Callers hold mu.
func (s *Store) currentUserID() string {
	if s.session.User == nil {
		return ""
	}
	return s.session.User.ID
}

// resetLocked drops every user-scoped table. Callers hold the write lock.
func (s *Store) resetLocked() {
	s.session = types.Session{}
	s.properties.Reset()
	s.ads.Reset()
	s.joinRequests.Reset()
	s.groups.Reset()
	s.expenses.Reset()
	s.splits.Reset()
	s.tasks.Reset()
	s.notifications.Reset()
	s.unread = 0
	s.hasMore = false
	for _, st := range s.status {
		st.err = ""
	}
}
