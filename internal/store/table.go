package store

// Entity is anything the server identifies by id.
type Entity interface {
	GetID() string
}

// Table holds one copy of each entity keyed by id plus named, ordered views
// of ids. An entity updated once is seen by every view that lists it. Entities
// no view references are dropped.
type Table[T Entity] struct {
	byID  map[string]T
	views map[string][]string
}

func NewTable[T Entity]() *Table[T] {
	return &Table[T]{
		byID:  make(map[string]T),
		views: make(map[string][]string),
	}
}

// Get returns the entity with id, whether or not a view lists it.
func (t *Table[T]) Get(id string) (T, bool) {
	v, ok := t.byID[id]
	return v, ok
}

// Upsert replaces the stored copy of each item without touching any view.
// Items not yet referenced by a view are ignored.
func (t *Table[T]) Upsert(items ...T) {
	for _, item := range items {
		if _, ok := t.byID[item.GetID()]; ok {
			t.byID[item.GetID()] = item
		}
	}
}

// ReplaceView sets view to exactly items, in order. Duplicate ids keep their
// first position.
func (t *Table[T]) ReplaceView(view string, items []T) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := item.GetID()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		t.byID[id] = item
		ids = append(ids, id)
	}
	old := t.views[view]
	t.views[view] = ids
	t.prune(old...)
}

// Prepend stores item and moves it to the front of view.
func (t *Table[T]) Prepend(view string, item T) {
	id := item.GetID()
	t.byID[id] = item
	ids := t.without(view, id)
	t.views[view] = append([]string{id}, ids...)
}

// Append stores items and adds those not already in view to its end.
func (t *Table[T]) Append(view string, items ...T) {
	for _, item := range items {
		id := item.GetID()
		t.byID[id] = item
		if !t.Contains(view, id) {
			t.views[view] = append(t.views[view], id)
		}
	}
}

// SetCurrent makes item the single entry of view.
func (t *Table[T]) SetCurrent(view string, item T) {
	t.ReplaceView(view, []T{item})
}

// Current returns the first entry of view.
func (t *Table[T]) Current(view string) (T, bool) {
	ids := t.views[view]
	if len(ids) == 0 {
		var zero T
		return zero, false
	}
	return t.Get(ids[0])
}

// RemoveFromView drops id from view only.
func (t *Table[T]) RemoveFromView(view, id string) {
	if !t.Contains(view, id) {
		return
	}
	t.views[view] = t.without(view, id)
	t.prune(id)
}

// Remove drops id from every view and from the table.
func (t *Table[T]) Remove(id string) {
	for view := range t.views {
		t.views[view] = t.without(view, id)
	}
	delete(t.byID, id)
}

// RemoveWhere removes every entity matching fn and returns how many went.
func (t *Table[T]) RemoveWhere(fn func(T) bool) int {
	var ids []string
	for id, item := range t.byID {
		if fn(item) {
			ids = append(ids, id)
		}
	}
	for _, id := range ids {
		t.Remove(id)
	}
	return len(ids)
}

func (t *Table[T]) Contains(view, id string) bool {
	for _, v := range t.views[view] {
		if v == id {
			return true
		}
	}
	return false
}

// View returns a copy of view's entities in order.
func (t *Table[T]) View(view string) []T {
	ids := t.views[view]
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if item, ok := t.byID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func (t *Table[T]) IDs(view string) []string {
	return append([]string(nil), t.views[view]...)
}

// Len is the number of ids in view.
func (t *Table[T]) Len(view string) int {
	return len(t.views[view])
}

// Size is the number of stored entities.
func (t *Table[T]) Size() int {
	return len(t.byID)
}

// Where returns every stored entity matching fn, in no particular order.
func (t *Table[T]) Where(fn func(T) bool) []T {
	var out []T
	for _, item := range t.byID {
		if fn(item) {
			out = append(out, item)
		}
	}
	return out
}

// Update applies fn to every stored entity.
func (t *Table[T]) Update(fn func(T) T) {
	for id, item := range t.byID {
		t.byID[id] = fn(item)
	}
}

func (t *Table[T]) Reset() {
	t.byID = make(map[string]T)
	t.views = make(map[string][]string)
}

func (t *Table[T]) without(view, id string) []string {
	ids := t.views[view]
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// prune drops candidates no view references any more.
func (t *Table[T]) prune(candidates ...string) {
	for _, id := range candidates {
		if !t.referenced(id) {
			delete(t.byID, id)
		}
	}
}

func (t *Table[T]) referenced(id string) bool {
	for view := range t.views {
		if t.Contains(view, id) {
			return true
		}
	}
	return false
}
