package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	ID string
	V  int
}

func byID(i item) string { return i.ID }

func TestAppendUnique(t *testing.T) {
	existing := []item{{"a", 1}, {"b", 1}}
	incoming := []item{{"b", 2}, {"c", 1}}

	got := AppendUnique(existing, incoming, byID)

	assert.Equal(t, []item{{"a", 1}, {"b", 1}, {"c", 1}}, got)
	assert.Equal(t, []item{{"a", 1}, {"b", 1}}, existing, "input must not be mutated")
}

func TestAppendUnique_DuplicateIncomingLastWins(t *testing.T) {
	got := AppendUnique([]item{{"a", 1}}, []item{{"c", 1}, {"d", 1}, {"c", 2}}, byID)
	assert.Equal(t, []item{{"a", 1}, {"c", 2}, {"d", 1}}, got)
}

func TestAppendUnique_EmptyInputs(t *testing.T) {
	assert.Empty(t, AppendUnique[item, string](nil, nil, byID))
	assert.Equal(t, []item{{"a", 1}}, AppendUnique(nil, []item{{"a", 1}}, byID))
}

func TestReplacePreservingOrder(t *testing.T) {
	existing := []item{{"a", 1}, {"b", 1}}
	incoming := []item{{"b", 2}, {"c", 1}}

	got := ReplacePreservingOrder(existing, incoming, byID)

	assert.Equal(t, []item{{"a", 1}, {"b", 2}, {"c", 1}}, got)
	assert.Equal(t, []item{{"a", 1}, {"b", 1}}, existing)
}

func TestReplacePreservingOrder_NoReordering(t *testing.T) {
	existing := []item{{"a", 1}, {"b", 1}, {"c", 1}}
	incoming := []item{{"c", 2}, {"a", 2}}

	got := ReplacePreservingOrder(existing, incoming, byID)

	assert.Equal(t, []item{{"a", 2}, {"b", 1}, {"c", 2}}, got)
}

func TestReplacePreservingOrder_DuplicateIncomingLastWins(t *testing.T) {
	got := ReplacePreservingOrder([]item{{"a", 1}}, []item{{"a", 2}, {"x", 1}, {"a", 3}, {"x", 2}}, byID)
	assert.Equal(t, []item{{"a", 3}, {"x", 2}}, got)
}

func TestReplacePreservingOrder_EmptyKeyIsOrdinary(t *testing.T) {
	got := ReplacePreservingOrder([]item{{"", 1}}, []item{{"", 2}}, byID)
	assert.Equal(t, []item{{"", 2}}, got)
}

func TestPrepend(t *testing.T) {
	got := Prepend([]item{{"a", 1}, {"b", 1}}, []item{{"z", 1}, {"a", 9}, {"y", 1}}, byID)
	assert.Equal(t, []item{{"z", 1}, {"y", 1}, {"a", 1}, {"b", 1}}, got)
}

func TestRemoveAndUpdate(t *testing.T) {
	items := []item{{"a", 1}, {"b", 1}}

	out, removed := Remove(items, byID, "a")
	assert.True(t, removed)
	assert.Equal(t, []item{{"b", 1}}, out)

	_, removed = Remove(items, byID, "missing")
	assert.False(t, removed)

	out, updated := Update(items, byID, "b", func(i item) item { i.V = 5; return i })
	assert.True(t, updated)
	assert.Equal(t, []item{{"a", 1}, {"b", 5}}, out)
	assert.Equal(t, 1, items[1].V)

	assert.Equal(t, -1, IndexOf(items, byID, "zz"))
}
