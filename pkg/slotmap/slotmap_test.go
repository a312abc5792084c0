package slotmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertGetRemove(t *testing.T) {
	m := New[string](2)

	a, ok := m.Insert("a")
	require.True(t, ok)
	b, ok := m.Insert("b")
	require.True(t, ok)
	_, ok = m.Insert("c")
	assert.False(t, ok, "map is full")
	assert.Equal(t, 2, m.Len())

	v, ok := m.Get(a)
	require.True(t, ok)
	assert.Equal(t, "a", *v)

	removed, ok := m.Remove(a)
	require.True(t, ok)
	assert.Equal(t, "a", removed)
	assert.False(t, m.Contains(a))
	assert.True(t, m.Contains(b))

	_, ok = m.Remove(a)
	assert.False(t, ok, "double remove")
}

func TestStaleHandleAfterReuse(t *testing.T) {
	m := New[int](1)
	old, _ := m.Insert(1)
	m.Remove(old)

	fresh, ok := m.Insert(2)
	require.True(t, ok)
	assert.Equal(t, old.Index(), fresh.Index(), "slot is reused")
	assert.False(t, m.Contains(old), "stale handle does not resolve")

	v, ok := m.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, 2, *v)
}

func TestZeroHandle(t *testing.T) {
	m := New[int](4)
	m.Insert(1)
	var h Handle
	assert.True(t, h.IsZero())
	assert.False(t, m.Contains(h))
}

func TestAllIteratesLiveValues(t *testing.T) {
	m := New[int](4)
	h1, _ := m.Insert(1)
	m.Insert(2)
	m.Insert(3)
	m.Remove(h1)

	var got []int
	for _, v := range m.All() {
		got = append(got, *v)
	}
	assert.Equal(t, []int{2, 3}, got)
}

func TestGetReturnsMutablePointer(t *testing.T) {
	m := New[int](1)
	h, _ := m.Insert(1)
	p, _ := m.Get(h)
	*p = 42
	v, _ := m.Get(h)
	assert.Equal(t, 42, *v)
}
