package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	id    string
	label string
}

func (i item) GetID() string { return i.id }

func ids(items []item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.id
	}
	return out
}

func TestTable_ReplaceViewIsExact(t *testing.T) {
	tb := NewTable[item]()
	tb.ReplaceView("all", []item{{id: "a"}, {id: "b"}, {id: "c"}})
	tb.ReplaceView("all", []item{{id: "c"}, {id: "d"}})

	assert.Equal(t, []string{"c", "d"}, ids(tb.View("all")))
	assert.Equal(t, 2, tb.Size(), "entities dropped from the only view are pruned")

	tb.ReplaceView("all", []item{{id: "x"}, {id: "x", label: "dup"}})
	assert.Equal(t, []string{"x"}, tb.IDs("all"))
	got, _ := tb.Get("x")
	assert.Empty(t, got.label, "first occurrence wins")
}

func TestTable_UpdateSeenByEveryView(t *testing.T) {
	tb := NewTable[item]()
	tb.ReplaceView("mine", []item{{id: "a", label: "old"}})
	tb.ReplaceView("all", []item{{id: "b"}, {id: "a", label: "old"}})

	tb.Upsert(item{id: "a", label: "new"})

	assert.Equal(t, "new", tb.View("mine")[0].label)
	assert.Equal(t, "new", tb.View("all")[1].label)
	assert.Equal(t, 2, tb.Size())
}

func TestTable_UpsertIgnoresUnknown(t *testing.T) {
	tb := NewTable[item]()
	tb.Upsert(item{id: "ghost"})
	_, ok := tb.Get("ghost")
	assert.False(t, ok)
}

func TestTable_PrependAndAppend(t *testing.T) {
	tb := NewTable[item]()
	tb.ReplaceView("all", []item{{id: "a"}, {id: "b"}})

	tb.Prepend("all", item{id: "b", label: "moved"})
	assert.Equal(t, []string{"b", "a"}, tb.IDs("all"))

	tb.Append("all", item{id: "a"}, item{id: "c"})
	assert.Equal(t, []string{"b", "a", "c"}, tb.IDs("all"))
	assert.Equal(t, 3, tb.Len("all"))
}

func TestTable_RemoveDropsFromEveryView(t *testing.T) {
	tb := NewTable[item]()
	tb.ReplaceView("mine", []item{{id: "a"}})
	tb.ReplaceView("all", []item{{id: "a"}, {id: "b"}})

	tb.Remove("a")

	assert.Empty(t, tb.View("mine"))
	assert.Equal(t, []string{"b"}, tb.IDs("all"))
	_, ok := tb.Get("a")
	assert.False(t, ok)
}

func TestTable_RemoveFromViewKeepsReferenced(t *testing.T) {
	tb := NewTable[item]()
	tb.ReplaceView("mine", []item{{id: "a"}})
	tb.ReplaceView("all", []item{{id: "a"}})

	tb.RemoveFromView("mine", "a")
	_, ok := tb.Get("a")
	assert.True(t, ok)

	tb.RemoveFromView("all", "a")
	_, ok = tb.Get("a")
	assert.False(t, ok)
}

func TestTable_CurrentAndWhere(t *testing.T) {
	tb := NewTable[item]()
	_, ok := tb.Current("current")
	assert.False(t, ok)

	tb.SetCurrent("current", item{id: "a", label: "x"})
	tb.ReplaceView("all", []item{{id: "b", label: "x"}, {id: "c"}})

	cur, ok := tb.Current("current")
	require.True(t, ok)
	assert.Equal(t, "a", cur.id)

	matched := tb.Where(func(i item) bool { return i.label == "x" })
	assert.ElementsMatch(t, []string{"a", "b"}, ids(matched))

	n := tb.RemoveWhere(func(i item) bool { return i.label == "x" })
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, tb.Size())

	tb.Reset()
	assert.Zero(t, tb.Size())
	assert.Empty(t, tb.IDs("all"))
}
