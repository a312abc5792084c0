package sendqueue

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/timer"
)

func dests(t *testing.T) (registry.Handle, registry.Handle) {
	t.Helper()
	r := registry.New(4)
	a, err := r.Save(netip.MustParseAddrPort("10.0.0.1:30490"))
	require.NoError(t, err)
	b, err := r.Save(netip.MustParseAddrPort("10.0.0.2:30490"))
	require.NoError(t, err)
	return a, b
}

func at(ms int) timer.Stamp {
	return timer.FromDuration(time.Duration(ms) * time.Millisecond)
}

func payloads(q *Queue[string], dest registry.Handle) []string {
	var out []string
	for _, it := range q.Entries(dest) {
		out = append(out, it.Payload)
	}
	return out
}

func TestPushKeepsPerDestinationOrder(t *testing.T) {
	a, b := dests(t)
	q := New[string](8)

	for _, p := range []string{"a1", "a2", "a3"} {
		_, err := q.Push(Item[string]{Kind: KindOffer, Dest: a, SendAt: at(100), Payload: p})
		require.NoError(t, err)
	}
	_, err := q.Push(Item[string]{Kind: KindFind, Dest: b, SendAt: at(50), Payload: "b1"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a1", "a2", "a3"}, payloads(q, a))
	assert.Equal(t, []string{"b1"}, payloads(q, b))
	assert.Equal(t, []registry.Handle{a, b}, q.Destinations())
	assert.Equal(t, 4, q.Total())
	assert.Equal(t, 4, q.Free())
}

func TestSendTimeIsEarliestCommit(t *testing.T) {
	a, _ := dests(t)
	q := New[string](4)

	q.Push(Item[string]{Dest: a, SendAt: at(300)})
	assert.Equal(t, at(300), q.SendAt(a))
	q.Push(Item[string]{Dest: a, SendAt: at(100)})
	assert.Equal(t, at(100), q.SendAt(a))
	q.Push(Item[string]{Dest: a, SendAt: at(200)})
	assert.Equal(t, at(100), q.SendAt(a), "later commit does not delay")

	assert.Empty(t, q.Due(at(99), false))
	assert.Equal(t, []registry.Handle{a}, q.Due(at(100), false))
	assert.Equal(t, at(100), q.NextSendAt())
}

func TestRemoveRelinks(t *testing.T) {
	a, _ := dests(t)
	q := New[string](4)
	h1, _ := q.Push(Item[string]{Dest: a, Payload: "1"})
	h2, _ := q.Push(Item[string]{Dest: a, Payload: "2"})
	h3, _ := q.Push(Item[string]{Dest: a, Payload: "3"})

	item, ok := q.Remove(h2)
	require.True(t, ok)
	assert.Equal(t, "2", item.Payload)
	assert.Equal(t, []string{"1", "3"}, payloads(q, a))

	q.Remove(h1)
	assert.Equal(t, []string{"3"}, payloads(q, a))
	q.Remove(h3)
	assert.Empty(t, q.Destinations(), "empty destination is dropped")
	assert.Equal(t, timer.Invalid, q.SendAt(a))

	_, ok = q.Remove(h3)
	assert.False(t, ok)
}

func TestPoolExhaustion(t *testing.T) {
	a, _ := dests(t)
	q := New[string](2)
	_, err := q.Push(Item[string]{Dest: a})
	require.NoError(t, err)
	h, err := q.Push(Item[string]{Dest: a})
	require.NoError(t, err)

	_, err = q.Push(Item[string]{Dest: a})
	assert.ErrorIs(t, err, ErrNoFreeEntry)

	q.Remove(h)
	_, err = q.Push(Item[string]{Dest: a})
	assert.NoError(t, err, "removed entry returns to the pool")
}

func TestRemoveDuringIteration(t *testing.T) {
	a, _ := dests(t)
	q := New[string](4)
	for _, p := range []string{"x", "keep", "y"} {
		q.Push(Item[string]{Dest: a, Payload: p})
	}

	for h, it := range q.Entries(a) {
		if it.Payload != "keep" {
			q.Remove(h)
		}
	}
	assert.Equal(t, []string{"keep"}, payloads(q, a))
}

func TestClear(t *testing.T) {
	a, b := dests(t)
	q := New[string](4)
	q.Push(Item[string]{Dest: a, Payload: "1"})
	q.Push(Item[string]{Dest: b, Payload: "2"})

	var cleared []string
	q.Clear(func(it Item[string]) { cleared = append(cleared, it.Payload) })
	assert.ElementsMatch(t, []string{"1", "2"}, cleared)
	assert.Equal(t, 0, q.Total())
	assert.Empty(t, q.Destinations())
}

func TestForcedDue(t *testing.T) {
	a, _ := dests(t)
	q := New[string](2)
	q.Push(Item[string]{Dest: a, SendAt: at(1000)})
	assert.Empty(t, q.Due(at(0), false))
	assert.Equal(t, []registry.Handle{a}, q.Due(at(0), true))
}

func TestKindIsStop(t *testing.T) {
	assert.True(t, KindStopOffer.IsStop())
	assert.True(t, KindSubscribeNack.IsStop())
	assert.False(t, KindOffer.IsStop())
	assert.Equal(t, "STOP_SUBSCRIBE", KindStopSubscribe.String())
}
