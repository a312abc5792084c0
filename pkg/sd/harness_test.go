package sd_test

import (
	"fmt"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/someip-sd/sd-go/pkg/sd"
	"github.com/someip-sd/sd-go/pkg/wire"
)

const (
	connUnicast   sd.ConnID = 1
	connMulticast sd.ConnID = 2
	connUDP       sd.ConnID = 10
	connTCP       sd.ConnID = 11
	connMcastAny  sd.ConnID = 12
	connMcastPort sd.ConnID = 13

	routeUDP       sd.RoutingGroupID = 100
	routeMulticast sd.RoutingGroupID = 101
	routeClientUDP sd.RoutingGroupID = 200
	routeClientTCP sd.RoutingGroupID = 201
	routeClientMC  sd.RoutingGroupID = 202
)

var (
	localSD    = netip.MustParseAddrPort("192.168.1.10:30490")
	sdGroup    = netip.MustParseAddrPort("224.224.224.245:30490")
	peerSD     = netip.MustParseAddrPort("192.168.1.20:30490")
	peer2SD    = netip.MustParseAddrPort("192.168.1.21:30490")
	peerUDP    = netip.MustParseAddrPort("192.168.1.20:50000")
	peer2UDP   = netip.MustParseAddrPort("192.168.1.21:50000")
	peerTCP    = netip.MustParseAddrPort("192.168.1.20:50001")
	eventGroup = netip.MustParseAddrPort("239.1.1.1:40001")
	localUDP   = netip.MustParseAddrPort("192.168.1.10:40000")
	localTCP   = netip.MustParseAddrPort("192.168.1.10:40002")
)

type datagram struct {
	conn sd.ConnID
	dest netip.AddrPort
	data []byte
}

// fakeTransport records everything the engine does with its connections.
type fakeTransport struct {
	mu       sync.Mutex
	prefix   int
	local    map[sd.ConnID]netip.AddrPort
	remote   map[sd.ConnID]netip.AddrPort
	open     map[sd.ConnID]bool
	routes   map[sd.RoutingGroupID]bool
	specific map[sd.RoutingGroupID]map[netip.AddrPort]bool
	sent     []datagram

	failSends int
	onSend    func()
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		prefix: 24,
		local: map[sd.ConnID]netip.AddrPort{
			connUnicast:   localSD,
			connMulticast: sdGroup,
			connUDP:       netip.MustParseAddrPort("0.0.0.0:40000"),
			connTCP:       localTCP,
			connMcastAny:  netip.MustParseAddrPort("239.1.1.1:0"),
			connMcastPort: eventGroup,
		},
		remote:   map[sd.ConnID]netip.AddrPort{},
		open:     map[sd.ConnID]bool{},
		routes:   map[sd.RoutingGroupID]bool{},
		specific: map[sd.RoutingGroupID]map[netip.AddrPort]bool{},
	}
}

func (f *fakeTransport) OpenConn(id sd.ConnID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open[id] = true
	return nil
}

func (f *fakeTransport) CloseConn(id sd.ConnID, abort bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open[id] = false
	return nil
}

func (f *fakeTransport) LocalAddr(id sd.ConnID) (netip.AddrPort, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.local[id], f.prefix, nil
}

func (f *fakeTransport) SetLocalAddr(id sd.ConnID, addr netip.AddrPort) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.local[id] = addr
	return nil
}

func (f *fakeTransport) RemoteAddr(id sd.ConnID) (netip.AddrPort, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remote[id], nil
}

func (f *fakeTransport) SetRemoteAddr(id sd.ConnID, addr netip.AddrPort) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote[id] = addr
	return nil
}

func (f *fakeTransport) ReleaseRemoteAddr(id sd.ConnID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.remote, id)
	return nil
}

func (f *fakeTransport) Send(id sd.ConnID, dest netip.AddrPort, payload []byte) error {
	if f.onSend != nil {
		f.onSend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSends > 0 {
		f.failSends--
		return fmt.Errorf("send to %s failed", dest)
	}
	f.sent = append(f.sent, datagram{conn: id, dest: dest, data: append([]byte(nil), payload...)})
	return nil
}

func (f *fakeTransport) EnableRouting(group sd.RoutingGroupID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[group] = true
	return nil
}

func (f *fakeTransport) DisableRouting(group sd.RoutingGroupID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[group] = false
	return nil
}

func (f *fakeTransport) EnableSpecificRouting(group sd.RoutingGroupID, remote netip.AddrPort) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.specific[group] == nil {
		f.specific[group] = map[netip.AddrPort]bool{}
	}
	f.specific[group][remote] = true
	return nil
}

func (f *fakeTransport) DisableSpecificRouting(group sd.RoutingGroupID, remote netip.AddrPort) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.specific[group], remote)
	return nil
}

func (f *fakeTransport) isOpen(id sd.ConnID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open[id]
}

func (f *fakeTransport) routed(group sd.RoutingGroupID) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.routes[group]
}

func (f *fakeTransport) routedTo(group sd.RoutingGroupID, remote netip.AddrPort) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.specific[group][remote]
}

func (f *fakeTransport) remoteOf(id sd.ConnID) netip.AddrPort {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.remote[id]
}

type manualClock struct {
	mu sync.Mutex
	d  time.Duration
}

func (c *manualClock) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.d
}

func (c *manualClock) add(d time.Duration) {
	c.mu.Lock()
	c.d += d
	c.mu.Unlock()
}

// minRandom always draws the lower bound.
type minRandom struct{}

func (minRandom) Intn(lo, hi uint32) uint32 { return lo }

type modeRecorder struct {
	mu     sync.Mutex
	events []string
}

func (m *modeRecorder) add(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, fmt.Sprintf(format, args...))
}

func (m *modeRecorder) ServerServiceChanged(name string, mode sd.ServiceMode) {
	m.add("server %s %s", name, mode)
}

func (m *modeRecorder) ClientServiceChanged(name string, mode sd.ServiceMode) {
	m.add("client %s %s", name, mode)
}

func (m *modeRecorder) EventHandlerChanged(name string, mode sd.EventHandlerMode) {
	m.add("handler %s %s", name, mode)
}

func (m *modeRecorder) ConsumedEventgroupChanged(name string, mode sd.ServiceMode) {
	m.add("eventgroup %s %s", name, mode)
}

func (m *modeRecorder) list() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.events...)
}

type diagRecorder struct {
	mu            sync.Mutex
	malformed     int
	nacksReceived int
	nacksSent     int
}

func (d *diagRecorder) MalformedMessage(string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.malformed++
}

func (d *diagRecorder) SubscribeNackReceived(string, uint16, uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nacksReceived++
}

func (d *diagRecorder) SubscribeNackSent(string, uint16, uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nacksSent++
}

// sentEntry is one decoded entry of a transmitted message.
type sentEntry struct {
	entry wire.Entry
	opts  []wire.Option
}

type sentMsg struct {
	dest    netip.AddrPort
	header  wire.Header
	entries []sentEntry
}

type harness struct {
	t     *testing.T
	eng   *sd.Engine
	tr    *fakeTransport
	clock *manualClock
	modes *modeRecorder

	sessions map[sessionKey]uint16
	drained  int
}

type sessionKey struct {
	conn sd.ConnID
	from netip.AddrPort
}

func newHarness(t *testing.T, cfg sd.Config, deps ...func(*sd.Dependencies)) *harness {
	t.Helper()
	h := &harness{
		t:        t,
		tr:       newFakeTransport(),
		clock:    &manualClock{},
		modes:    &modeRecorder{},
		sessions: map[sessionKey]uint16{},
	}
	d := sd.Dependencies{
		Transport: h.tr,
		Modes:     h.modes,
		Random:    minRandom{},
		Clock:     h.clock,
	}
	for _, fn := range deps {
		fn(&d)
	}
	eng, err := sd.New(cfg, d)
	require.NoError(t, err)
	h.eng = eng
	return h
}

func baseConfig() sd.Config {
	cfg := sd.DefaultConfig()
	cfg.Instances = []sd.InstanceConfig{sd.DefaultInstanceConfig("eth0", connUnicast, connMulticast)}
	return cfg
}

func serverConfig(threshold int) sd.ServerConfig {
	return sd.ServerConfig{
		Name:          "svc",
		ServiceID:     0x1234,
		InstanceID:    1,
		MajorVersion:  1,
		MinorVersion:  0,
		AutoAvailable: true,
		UDPConn:       connUDP,
		TCPConn:       sd.NoConn,
		Timing:        sd.DefaultServerTiming(),
		EventHandlers: []sd.EventHandlerConfig{{
			Name:               "eh",
			EventgroupID:       0x10,
			MulticastThreshold: threshold,
			MulticastAddr:      eventGroup,
			UDPRouting:         routeUDP,
			TCPRouting:         sd.NoRouting,
			MulticastRouting:   routeMulticast,
		}},
	}
}

func clientConfig() sd.ClientConfig {
	return sd.ClientConfig{
		Name:         "cli",
		ServiceID:    0x1234,
		InstanceID:   1,
		MajorVersion: 1,
		MinorVersion: wire.MinorAny,
		UDPConn:      connUDP,
		TCPConn:      sd.NoConn,
		Timing:       sd.DefaultClientTiming(),
		Eventgroups: []sd.EventgroupConfig{{
			Name:             "ceg",
			EventgroupID:     0x10,
			UDPRouting:       routeClientUDP,
			TCPRouting:       sd.NoRouting,
			MulticastRouting: sd.NoRouting,
		}},
	}
}

func withServer(threshold int) sd.Config {
	cfg := baseConfig()
	cfg.Instances[0].Servers = []sd.ServerConfig{serverConfig(threshold)}
	return cfg
}

func withClient(cc sd.ClientConfig) sd.Config {
	cfg := baseConfig()
	cfg.Instances[0].Clients = []sd.ClientConfig{cc}
	return cfg
}

// up reports the unicast address assigned and runs the first Tick.
func (h *harness) up() {
	h.t.Helper()
	require.NoError(h.t, h.eng.LocalAddrAssignmentChanged(connUnicast, true))
	h.eng.Tick()
}

// advance moves the clock forward and runs one Tick.
func (h *harness) advance(d time.Duration) {
	h.clock.add(d)
	h.eng.Tick()
}

// receive delivers a message from peer on conn. Session ids count up per
// connection and peer with the reboot flag set, like a freshly started
// peer.
func (h *harness) receive(conn sd.ConnID, from netip.AddrPort, entries ...sentEntry) error {
	h.t.Helper()
	k := sessionKey{conn: conn, from: from}
	h.sessions[k]++
	return h.receiveAs(conn, from, h.sessions[k], wire.FlagReboot|wire.FlagUnicast, entries...)
}

func (h *harness) receiveAs(conn sd.ConnID, from netip.AddrPort, session uint16, flags wire.Flags, entries ...sentEntry) error {
	h.t.Helper()
	return h.eng.Receive(conn, from, encodeMsg(h.t, session, flags, entries...))
}

func encodeMsg(t *testing.T, session uint16, flags wire.Flags, entries ...sentEntry) []byte {
	t.Helper()
	b := wire.NewBuilder(wire.Header{SessionID: session, Flags: flags}, 1400)
	for _, e := range entries {
		require.NoError(t, b.Add(e.entry, e.opts))
	}
	return b.Bytes()
}

// drainRaw returns the datagrams sent since the last drain.
func (h *harness) drainRaw() []datagram {
	h.tr.mu.Lock()
	defer h.tr.mu.Unlock()
	raw := append([]datagram(nil), h.tr.sent[h.drained:]...)
	h.drained = len(h.tr.sent)
	return raw
}

// drain returns the messages sent since the last drain, decoded.
func (h *harness) drain() []sentMsg {
	h.t.Helper()
	var out []sentMsg
	for _, dg := range h.drainRaw() {
		msg, err := wire.Decode(dg.data, wire.DefaultLimits())
		require.NoError(h.t, err)
		sm := sentMsg{dest: dg.dest, header: msg.Header}
		for i := range msg.NumEntries() {
			e, err := msg.Entry(i)
			require.NoError(h.t, err)
			idx, err := msg.OptionIndices(e)
			require.NoError(h.t, err)
			se := sentEntry{entry: e}
			for _, j := range idx {
				o, err := msg.Option(j)
				require.NoError(h.t, err)
				se.opts = append(se.opts, o)
			}
			sm.entries = append(sm.entries, se)
		}
		out = append(out, sm)
	}
	return out
}

// entries flattens messages to their entries.
func entriesOf(msgs []sentMsg) []sentEntry {
	var out []sentEntry
	for _, m := range msgs {
		out = append(out, m.entries...)
	}
	return out
}

func find(ttl uint32) sentEntry {
	return sentEntry{entry: wire.Entry{
		Type:         wire.EntryFindService,
		ServiceID:    0x1234,
		InstanceID:   wire.InstanceAny,
		MajorVersion: wire.MajorAny,
		TTL:          ttl,
		MinorVersion: wire.MinorAny,
	}}
}

func offer(ttl uint32, opts ...wire.Option) sentEntry {
	return sentEntry{
		entry: wire.Entry{
			Type:         wire.EntryOfferService,
			ServiceID:    0x1234,
			InstanceID:   1,
			MajorVersion: 1,
			TTL:          ttl,
			MinorVersion: 0,
		},
		opts: opts,
	}
}

func subscribe(eventgroup uint16, ttl uint32, counter uint16, opts ...wire.Option) sentEntry {
	return sentEntry{
		entry: wire.Entry{
			Type:         wire.EntrySubscribeEventgroup,
			ServiceID:    0x1234,
			InstanceID:   1,
			MajorVersion: 1,
			TTL:          ttl,
			Counter:      counter,
			EventgroupID: eventgroup,
		},
		opts: opts,
	}
}

func ack(ttl uint32, opts ...wire.Option) sentEntry {
	return sentEntry{
		entry: wire.Entry{
			Type:         wire.EntrySubscribeEventgroupAck,
			ServiceID:    0x1234,
			InstanceID:   1,
			MajorVersion: 1,
			TTL:          ttl,
			EventgroupID: 0x10,
		},
		opts: opts,
	}
}

func udpEndpoint(ep netip.AddrPort) wire.Option {
	return wire.EndpointOption(ep, wire.ProtoUDP)
}

func tcpEndpoint(ep netip.AddrPort) wire.Option {
	return wire.EndpointOption(ep, wire.ProtoTCP)
}

func netipPort(ep netip.AddrPort, port uint16) netip.AddrPort {
	return netip.AddrPortFrom(ep.Addr(), port)
}
