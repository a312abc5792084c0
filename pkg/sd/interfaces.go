package sd

import (
	"math/rand/v2"
	"net/netip"
	"time"
)

// Transport gives the engine access to the connections it uses: the SD
// unicast and multicast connections of every instance and the service
// connections of offered and consumed services.
//
// Implementations must not call back into the engine synchronously from
// any method other than Send; Send is called without the engine lock
// held.
type Transport interface {
	OpenConn(id ConnID) error
	CloseConn(id ConnID, abort bool) error

	// LocalAddr returns the bound address and the prefix length of the
	// local network.
	LocalAddr(id ConnID) (addr netip.AddrPort, prefixLen int, err error)
	SetLocalAddr(id ConnID, addr netip.AddrPort) error
	RemoteAddr(id ConnID) (netip.AddrPort, error)
	SetRemoteAddr(id ConnID, addr netip.AddrPort) error
	ReleaseRemoteAddr(id ConnID) error

	Send(id ConnID, dest netip.AddrPort, payload []byte) error

	// Coarse routing delivers events of a group to every destination.
	EnableRouting(group RoutingGroupID) error
	DisableRouting(group RoutingGroupID) error

	// Specific routing delivers events of a group to one remote endpoint.
	EnableSpecificRouting(group RoutingGroupID, remote netip.AddrPort) error
	DisableSpecificRouting(group RoutingGroupID, remote netip.AddrPort) error
}

// ModePublisher receives availability changes. Each change is reported
// exactly once per transition. Calls happen with the engine lock held and
// must not call back into the engine.
type ModePublisher interface {
	ServerServiceChanged(name string, mode ServiceMode)
	ClientServiceChanged(name string, mode ServiceMode)
	EventHandlerChanged(name string, mode EventHandlerMode)
	ConsumedEventgroupChanged(name string, mode ServiceMode)
}

// DiagnosticSink receives error reports.
type DiagnosticSink interface {
	MalformedMessage(instance string, reason error)
	SubscribeNackReceived(instance string, serviceID, eventgroupID uint16)
	SubscribeNackSent(instance string, serviceID, eventgroupID uint16)
}

// RandomSource draws the random delays of the state machines.
type RandomSource interface {
	// Intn returns a uniformly distributed value in [min, max].
	Intn(min, max uint32) uint32
}

// Clock reports the time since engine start. Without a Clock the engine
// advances time by one main function cycle per Tick.
type Clock interface {
	Elapsed() time.Duration
}

// FindValidator accepts or rejects a Find based on its configuration
// option items.
type FindValidator interface {
	ValidateFind(server ServerHandle, remote netip.AddrPort, config []string) bool
}

// OfferValidator accepts or rejects an Offer.
type OfferValidator interface {
	ValidateOffer(client ClientHandle, remote netip.AddrPort, config []string) bool
}

// SubscribeValidator accepts or rejects a Subscribe.
type SubscribeValidator interface {
	ValidateSubscribe(handler EventHandlerHandle, remote netip.AddrPort, config []string) bool
}

// Dependencies are the engine's collaborators. Only Transport is required.
type Dependencies struct {
	Transport   Transport
	Modes       ModePublisher
	Diagnostics DiagnosticSink
	Random      RandomSource
	Clock       Clock

	FindValidator      FindValidator
	OfferValidator     OfferValidator
	SubscribeValidator SubscribeValidator
}

// NoopModePublisher discards mode changes.
type NoopModePublisher struct{}

func (NoopModePublisher) ServerServiceChanged(string, ServiceMode) {}
func (NoopModePublisher) ClientServiceChanged(string, ServiceMode) {}
func (NoopModePublisher) EventHandlerChanged(string, EventHandlerMode) {}
func (NoopModePublisher) ConsumedEventgroupChanged(string, ServiceMode) {}

// NoopDiagnostics discards error reports.
type NoopDiagnostics struct{}

func (NoopDiagnostics) MalformedMessage(string, error) {}
func (NoopDiagnostics) SubscribeNackReceived(string, uint16, uint16) {}
func (NoopDiagnostics) SubscribeNackSent(string, uint16, uint16) {}

type defaultRandom struct{}

func (defaultRandom) Intn(lo, hi uint32) uint32 {
	if hi <= lo {
		return lo
	}
	n := hi - lo + 1
	if n == 0 {
		return rand.Uint32()
	}
	return lo + rand.Uint32N(n)
}

// tickClock is the fallback time source: one main function cycle per Tick.
type tickClock struct {
	cycle time.Duration
	ticks int64
}

func (c *tickClock) advance() time.Duration {
	c.ticks++
	return time.Duration(c.ticks) * c.cycle
}

var (
	_ ModePublisher  = NoopModePublisher{}
	_ DiagnosticSink = NoopDiagnostics{}
	_ RandomSource   = defaultRandom{}
)
