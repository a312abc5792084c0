package sd

import (
	"net/netip"

	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/sendqueue"
	"github.com/someip-sd/sd-go/pkg/slotmap"
	"github.com/someip-sd/sd-go/pkg/timer"
	"github.com/someip-sd/sd-go/pkg/wire"
)

// instance is the runtime state of one SD instance.
type instance struct {
	handle InstanceHandle
	cfg    *InstanceConfig

	state        InstanceState
	addrAssigned bool
	local        netip.AddrPort
	prefixLen    int

	peers         *registry.Registry
	queue         *sendqueue.Queue[outEntry]
	multicastDest registry.Handle
	forceFlush    bool

	// servers and clients are sorted by service id for lookup.
	servers     []*offeredService
	clients     []*consumedService
	handlers    []*eventHandler
	eventgroups []*consumedEventgroup

	wake      wakeHeap
	requested []entityRef
}

type sched struct {
	wake      timer.Stamp
	requested bool
}

type offeredService struct {
	sched
	handle ServerHandle
	cfg    *ServerConfig
	inst   *instance

	instanceID  uint16
	desired     ServerServiceState
	phase       ServerPhase
	timer       timer.Stamp
	repetitions int
	mode        ServiceMode
	handlers    []*eventHandler
}

type pendingSubscribe struct {
	ttl      uint32
	counter  uint16
	udp, tcp netip.AddrPort
}

type subscriber struct {
	peer     registry.Handle
	remote   netip.AddrPort
	udp, tcp netip.AddrPort
	counter  uint16
	reqTTL   uint32
	ttl      timer.Stamp

	udpRouted, tcpRouted bool

	pending     *pendingSubscribe
	pendingStop bool
}

type eventHandler struct {
	sched
	handle EventHandlerHandle
	cfg    *EventHandlerConfig
	server *offeredService

	state           HandlerState
	mode            EventHandlerMode
	subs            *slotmap.Map[subscriber]
	multicastRouted bool
}

// offerInfo is what a client remembers about an accepted Offer.
type offerInfo struct {
	sender     registry.Handle
	remote     netip.AddrPort
	instanceID uint16
	minor      uint32
	ttl        uint32
	udp, tcp   netip.AddrPort
	multicast  bool
}

type consumedService struct {
	sched
	handle ClientHandle
	cfg    *ClientConfig
	inst   *instance

	instanceID  uint16
	desired     ClientServiceState
	phase       ClientPhase
	timer       timer.Stamp
	repetitions int
	mode        ServiceMode

	// offer is the accepted Offer, valid while ttl is.
	offer *offerInfo
	ttl   timer.Stamp
	bound bool

	pendingOffer *offerInfo
	pendingStop  bool

	eventgroups []*consumedEventgroup
}

type ackOutcome struct {
	ack       bool
	invalid   bool
	ttl       uint32
	multicast netip.AddrPort
	serial    uint64
}

type subscribeTrigger uint8

const (
	triggerNone subscribeTrigger = iota
	triggerRequest
	triggerUnicastOffer
	triggerMulticastOffer
)

type consumedEventgroup struct {
	sched
	handle EventgroupHandle
	cfg    *EventgroupConfig
	client *consumedService

	desired EventgroupRequest
	phase   EventgroupPhase
	mode    ServiceMode
	ttl     timer.Stamp
	retryAt timer.Stamp
	retries int

	trigger        subscribeTrigger
	multicastOffer bool
	pendingAck     *ackOutcome

	mcConn  ConnID
	mcGroup netip.AddrPort
	routed  bool
}

// outEntry is the payload of a queued entry.
type outEntry struct {
	entry   wire.Entry
	options []wire.Option

	server     *offeredService
	client     *consumedService
	eventgroup *consumedEventgroup
	handler    *eventHandler
	sub        slotmap.Handle

	// When wait is set, transmission is held until waitConn is online.
	wait     bool
	waitConn ConnID
}
