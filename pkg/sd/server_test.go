package sd_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/someip-sd/sd-go/pkg/sd"
	"github.com/someip-sd/sd-go/pkg/wire"
)

func serverPhase(t *testing.T, h *harness) sd.ServerPhase {
	t.Helper()
	s, ok := h.eng.Server("svc")
	require.True(t, ok)
	phase, err := h.eng.ServerState(s)
	require.NoError(t, err)
	return phase
}

func handlerOf(t *testing.T, h *harness) sd.EventHandlerHandle {
	t.Helper()
	s, ok := h.eng.Server("svc")
	require.True(t, ok)
	eh, ok := h.eng.EventHandler(s, "eh")
	require.True(t, ok)
	return eh
}

// offering brings the server into the repetition phase at t=10ms.
func offering(t *testing.T, threshold int) *harness {
	t.Helper()
	h := newHarness(t, withServer(threshold))
	h.up()
	h.advance(10 * time.Millisecond)
	require.Equal(t, sd.PhaseRepetition, serverPhase(t, h))
	h.drain()
	return h
}

func TestServer_OfferCycle(t *testing.T) {
	h := newHarness(t, withServer(0))
	h.up()
	assert.Equal(t, sd.PhaseInitialWait, serverPhase(t, h))
	assert.Empty(t, h.drain())

	h.advance(10 * time.Millisecond)
	msgs := h.drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, sdGroup, msgs[0].dest)
	assert.Equal(t, uint16(1), msgs[0].header.SessionID)
	assert.True(t, msgs[0].header.Flags.Reboot())
	assert.True(t, msgs[0].header.Flags.Unicast())
	require.Len(t, msgs[0].entries, 1)
	e := msgs[0].entries[0]
	assert.Equal(t, wire.EntryOfferService, e.entry.Type)
	assert.Equal(t, uint16(0x1234), e.entry.ServiceID)
	assert.Equal(t, uint16(1), e.entry.InstanceID)
	assert.Equal(t, uint32(3), e.entry.TTL)
	require.Len(t, e.opts, 1)
	assert.Equal(t, localUDP, e.opts[0].Endpoint)
	assert.Equal(t, wire.ProtoUDP, e.opts[0].Proto)
	assert.Equal(t, sd.PhaseRepetition, serverPhase(t, h))

	// Repetitions double the delay: 30ms, 60ms, 120ms.
	for i, d := range []time.Duration{30, 60, 120} {
		h.advance(d*time.Millisecond - time.Millisecond)
		assert.Empty(t, h.drain(), "repetition %d early", i)
		h.advance(time.Millisecond)
		msgs := h.drain()
		require.Len(t, msgs, 1, "repetition %d", i)
		assert.Equal(t, uint16(i+2), msgs[0].header.SessionID)
	}
	assert.Equal(t, sd.PhaseMain, serverPhase(t, h))

	h.advance(999 * time.Millisecond)
	assert.Empty(t, h.drain())
	h.advance(time.Millisecond)
	require.Len(t, h.drain(), 1)

	assert.Equal(t, []string{"server svc AVAILABLE"}, h.modes.list())
}

func TestServer_NoRepetitions(t *testing.T) {
	cfg := withServer(0)
	cfg.Instances[0].Servers[0].Timing.RepetitionsMax = 0
	h := newHarness(t, cfg)
	h.up()
	h.advance(10 * time.Millisecond)
	require.Len(t, h.drain(), 1)
	assert.Equal(t, sd.PhaseMain, serverPhase(t, h))
}

func TestServer_FindAnswers(t *testing.T) {
	t.Run("unicast find answered at once", func(t *testing.T) {
		h := offering(t, 0)
		require.NoError(t, h.receive(connUnicast, peerSD, find(3)))
		h.advance(0)

		msgs := h.drain()
		require.Len(t, msgs, 1)
		assert.Equal(t, peerSD, msgs[0].dest)
		assert.Equal(t, wire.EntryOfferService, msgs[0].entries[0].entry.Type)
		assert.Equal(t, uint16(1), msgs[0].header.SessionID)
	})

	t.Run("multicast find answered after a delay", func(t *testing.T) {
		h := offering(t, 0)
		require.NoError(t, h.receive(connMulticast, peerSD, find(3)))
		h.advance(5 * time.Millisecond)
		assert.Empty(t, h.drain())

		h.advance(5 * time.Millisecond)
		msgs := h.drain()
		require.Len(t, msgs, 1)
		assert.Equal(t, peerSD, msgs[0].dest)
	})

	t.Run("find for other major version ignored", func(t *testing.T) {
		h := offering(t, 0)
		f := find(3)
		f.entry.MajorVersion = 2
		require.NoError(t, h.receive(connUnicast, peerSD, f))
		h.advance(0)
		assert.Empty(t, h.drain())
	})

	t.Run("find with endpoint option rejected", func(t *testing.T) {
		h := offering(t, 0)
		f := find(3)
		f.opts = []wire.Option{udpEndpoint(peerUDP)}
		require.NoError(t, h.receive(connUnicast, peerSD, f))
		h.advance(0)
		assert.Empty(t, h.drain())
	})

	t.Run("find during initial wait ignored", func(t *testing.T) {
		h := newHarness(t, withServer(0))
		h.up()
		require.NoError(t, h.receive(connUnicast, peerSD, find(3)))
		h.advance(5 * time.Millisecond)
		assert.Empty(t, h.drain())
	})
}

func TestServer_SessionContinuesPerPeer(t *testing.T) {
	h := offering(t, 0)

	for want := uint16(1); want <= 3; want++ {
		require.NoError(t, h.receive(connUnicast, peerSD, find(3)))
		h.advance(0)
		msgs := h.drain()
		require.Len(t, msgs, 1)
		assert.Equal(t, peerSD, msgs[0].dest)
		assert.Equal(t, want, msgs[0].header.SessionID)
		assert.True(t, msgs[0].header.Flags.Reboot())
	}
}

func TestServer_ServiceDownSendsStopOffer(t *testing.T) {
	h := offering(t, 0)
	s, _ := h.eng.Server("svc")

	require.NoError(t, h.eng.SetServerServiceState(s, sd.ServerDown))
	h.advance(0)

	msgs := h.drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, sdGroup, msgs[0].dest)
	require.Len(t, msgs[0].entries, 1)
	assert.Equal(t, wire.EntryOfferService, msgs[0].entries[0].entry.Type)
	assert.Equal(t, uint32(0), msgs[0].entries[0].entry.TTL)
	assert.Equal(t, sd.PhaseNotReady, serverPhase(t, h))
	assert.False(t, h.tr.isOpen(connUDP))
	assert.Equal(t, []string{"server svc AVAILABLE", "server svc DOWN"}, h.modes.list())
}

func TestServer_InstanceDownSendsNothing(t *testing.T) {
	h := offering(t, 0)

	require.NoError(t, h.eng.LocalAddrAssignmentChanged(connUnicast, false))
	h.advance(0)

	assert.Empty(t, h.drain())
	assert.Equal(t, sd.PhaseNotReady, serverPhase(t, h))
	inst, ok := h.eng.Instance("eth0")
	require.True(t, ok)
	state, err := h.eng.InstanceState(inst)
	require.NoError(t, err)
	assert.Equal(t, sd.InstanceDown, state)
	assert.False(t, h.tr.isOpen(connUnicast))
	assert.False(t, h.tr.isOpen(connMulticast))

	// Coming back restarts the offer cycle.
	require.NoError(t, h.eng.LocalAddrAssignmentChanged(connUnicast, true))
	h.advance(0)
	assert.Equal(t, sd.PhaseInitialWait, serverPhase(t, h))
}

func TestServer_InstanceIDChange(t *testing.T) {
	cfg := withServer(0)
	cfg.Instances[0].Servers[0].AutoAvailable = false
	h := newHarness(t, cfg)
	h.up()
	s, _ := h.eng.Server("svc")

	require.NoError(t, h.eng.SetServerInstanceID(s, 7))
	require.NoError(t, h.eng.SetServerServiceState(s, sd.ServerAvailable))
	h.advance(0)
	h.advance(10 * time.Millisecond)
	assert.ErrorIs(t, h.eng.SetServerInstanceID(s, 8), sd.ErrWrongState)

	msgs := h.drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, uint16(7), msgs[0].entries[0].entry.InstanceID)
}

func TestServer_WildcardInstanceNotOffered(t *testing.T) {
	cfg := withServer(0)
	cfg.Instances[0].Servers[0].InstanceID = wire.InstanceAny
	h := newHarness(t, cfg)
	h.up()
	h.advance(100 * time.Millisecond)

	assert.Equal(t, sd.PhaseNotReady, serverPhase(t, h))
	assert.Empty(t, h.drain())
}

func TestServer_HostNameAndCapabilities(t *testing.T) {
	cfg := withServer(0)
	cfg.Instances[0].HostName = "ecu1"
	cfg.Instances[0].Servers[0].Capabilities = []string{"prio=high"}
	h := newHarness(t, cfg)
	h.up()
	h.advance(10 * time.Millisecond)

	msgs := h.drain()
	require.Len(t, msgs, 1)
	opts := msgs[0].entries[0].opts
	require.Len(t, opts, 2)
	assert.Equal(t, wire.OptionConfiguration, opts[1].Type)
	assert.Equal(t, []string{"hostname=ecu1", "prio=high"}, opts[1].Config)
}
