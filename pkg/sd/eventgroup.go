package sd

import (
	"errors"
	"net/netip"
	"time"

	"github.com/someip-sd/sd-go/pkg/sendqueue"
	"github.com/someip-sd/sd-go/pkg/timer"
	"github.com/someip-sd/sd-go/pkg/wire"
)

var (
	errInvalidAck = errors.New("subscribe ack without usable endpoint")
	errConnLost   = errors.New("tcp connection lost")
)

// runEventgroup drives the subscription state machine of one consumed
// eventgroup. It only acts while its client is ready; the client resets
// it otherwise.
func (e *Engine) runEventgroup(g *consumedEventgroup) {
	inst := g.client.inst
	if g.client.phase != ClientServiceReady {
		g.pendingAck = nil
		g.trigger = triggerNone
		e.arm(inst, groupRef(g), timer.Invalid)
		return
	}

	if a := g.pendingAck; a != nil {
		g.pendingAck = nil
		e.eventgroupOutcome(g, a)
	}
	if g.phase == EventgroupSubscribed && g.ttl.Expired(e.now) {
		e.eventgroupUnsubscribe(g, EventgroupUnsubscribed, "ttl expired")
	}
	if g.phase == EventgroupSubscribed && g.cfg.needsTCP() && e.connLost(g.client.cfg.TCPConn) {
		e.reportError(inst, g.client.offer.remote, "subscription "+g.cfg.Name, errConnLost)
		e.eventgroupUnsubscribe(g, EventgroupUnsubscribed, "connection lost")
	}

	trig := g.trigger
	g.trigger = triggerNone
	switch {
	case g.desired != EventgroupRequested:
		if !g.phase.unsubscribed() {
			e.queueSubscription(g, sendqueue.KindStopSubscribe, 0)
			e.eventgroupUnsubscribe(g, EventgroupUnsubscribed, "released")
		}
	case trig != triggerNone:
		e.eventgroupTriggered(g, trig)
	case g.phase.registering() && g.retryAt.Expired(e.now):
		e.eventgroupRetry(g)
	}

	e.arm(inst, groupRef(g), timer.Earliest(g.ttl, g.retryAt))
}

// eventgroupTriggered reacts to a request or an accepted Offer. Every
// Offer renews a subscription; after a Nack of a subscription triggered
// by a multicast Offer the next Offer resubscribes from scratch.
func (e *Engine) eventgroupTriggered(g *consumedEventgroup, trig subscribeTrigger) {
	multicast := trig == triggerMulticastOffer
	var delay time.Duration
	if multicast {
		t := g.client.cfg.Timing
		delay = e.randDelay(t.RequestResponseMinDelay, t.RequestResponseMaxDelay)
	}

	switch g.phase {
	case EventgroupUnsubscribed:
		e.queueSubscription(g, sendqueue.KindSubscribe, delay)
		if multicast {
			e.setEventgroupPhase(g, EventgroupRegistrationSentMultiOffer, "multicast offer")
		} else {
			e.setEventgroupPhase(g, EventgroupRegistrationSent, "subscribe")
		}
	case EventgroupUnsubscribedAfterMultiOfferNack:
		if trig == triggerRequest {
			e.queueSubscription(g, sendqueue.KindSubscribe, delay)
			e.setEventgroupPhase(g, EventgroupRegistrationSent, "subscribe")
			break
		}
		e.queueSubscription(g, sendqueue.KindStopSubscribe, delay)
		e.queueSubscription(g, sendqueue.KindSubscribe, delay)
		e.setEventgroupPhase(g, EventgroupRegistrationSentReconfigure, "resubscribe")
	default:
		if trig == triggerRequest {
			return
		}
		e.queueSubscription(g, sendqueue.KindSubscribe, delay)
	}
	g.multicastOffer = multicast
	g.retries = 0
}

// eventgroupRetry resends a Subscribe that got no answer. Retries are
// only armed for subscriptions with infinite TTL, which are not renewed
// by cyclic Offers.
func (e *Engine) eventgroupRetry(g *consumedEventgroup) {
	t := g.client.cfg.Timing
	if g.retries >= t.SubscribeRetryMax {
		g.retryAt = timer.Invalid
		return
	}
	g.retries++
	e.queueSubscription(g, sendqueue.KindSubscribe, 0)
}

// eventgroupOutcome applies the Ack or Nack received for the pending
// subscription. An Ack the eventgroup cannot use counts as a Nack.
func (e *Engine) eventgroupOutcome(g *consumedEventgroup, a *ackOutcome) {
	if !g.phase.registering() && g.phase != EventgroupSubscribed {
		return
	}
	if !a.ack || a.invalid {
		reason := "nack"
		if a.invalid {
			reason = "invalid ack"
			e.reportError(g.client.inst, g.client.offer.remote, "ack of "+g.cfg.Name, errInvalidAck)
		}
		next := EventgroupUnsubscribed
		if g.phase == EventgroupRegistrationSentMultiOffer || (g.phase == EventgroupSubscribed && g.multicastOffer) {
			next = EventgroupUnsubscribedAfterMultiOfferNack
		}
		e.eventgroupUnsubscribe(g, next, reason)
		return
	}

	if err := e.eventgroupConfigure(g, a.multicast); err != nil {
		e.reportError(g.client.inst, g.client.offer.remote, "configure "+g.cfg.Name, err)
		e.eventgroupUnsubscribe(g, EventgroupUnsubscribed, "configuration failed")
		return
	}
	g.ttl = e.now.AddTTL(a.ttl)
	g.retryAt = timer.Invalid
	g.retries = 0
	e.setEventgroupPhase(g, EventgroupSubscribed, "ack")
	e.setEventgroupMode(g, ModeAvailable)
}

// eventgroupConfigure enables event reception: the unicast routes and,
// if the Ack names a multicast group, a bound multicast connection.
func (e *Engine) eventgroupConfigure(g *consumedEventgroup, group netip.AddrPort) error {
	c := g.client
	if g.cfg.usesMulticast() && group.IsValid() && g.mcGroup != group {
		e.eventgroupReleaseMulticast(g)
		conn, err := e.selectMulticastConn(g, group, c.offer.udp)
		switch {
		case err == nil:
			if err := e.bindMulticast(conn, group, c.offer.udp); err != nil {
				return err
			}
			if err := e.transport.EnableRouting(g.cfg.MulticastRouting); err != nil {
				return err
			}
			g.mcConn, g.mcGroup = conn, group
		case !g.cfg.needsUDP():
			return err
		default:
			e.reportError(c.inst, c.offer.remote, "multicast of "+g.cfg.Name, err)
		}
	}

	if !g.routed {
		for _, rg := range []RoutingGroupID{g.cfg.UDPRouting, g.cfg.TCPRouting} {
			if rg == NoRouting {
				continue
			}
			if err := e.transport.EnableRouting(rg); err != nil {
				return err
			}
		}
		g.routed = true
	}
	return nil
}

// bindMulticast sets the local address of conn to the group unless it is
// already bound, restricts the remote side to the server's event
// endpoint if it is a wildcard and opens the connection.
func (e *Engine) bindMulticast(conn ConnID, group, server netip.AddrPort) error {
	local, _, err := e.transport.LocalAddr(conn)
	if err != nil {
		return err
	}
	if !local.IsValid() || local.Addr().IsUnspecified() || local.Port() == 0 {
		if err := e.transport.SetLocalAddr(conn, group); err != nil {
			return err
		}
	}
	if server.IsValid() {
		remote, err := e.transport.RemoteAddr(conn)
		if err != nil {
			return err
		}
		if !remote.IsValid() || remote.Addr().IsUnspecified() || remote.Port() == 0 {
			if err := e.transport.SetRemoteAddr(conn, server); err != nil {
				return err
			}
		}
	}
	return e.transport.OpenConn(conn)
}

func (e *Engine) eventgroupReleaseMulticast(g *consumedEventgroup) {
	if g.mcConn == NoConn {
		return
	}
	inst := g.client.inst
	if err := e.transport.DisableRouting(g.cfg.MulticastRouting); err != nil {
		e.reportError(inst, g.mcGroup, "multicast routing of "+g.cfg.Name, err)
	}
	if err := e.transport.CloseConn(g.mcConn, false); err != nil {
		e.reportError(inst, g.mcGroup, "close multicast of "+g.cfg.Name, err)
	}
	if err := e.transport.ReleaseRemoteAddr(g.mcConn); err != nil {
		e.reportError(inst, g.mcGroup, "release multicast of "+g.cfg.Name, err)
	}
	g.mcConn = NoConn
	g.mcGroup = netip.AddrPort{}
}

// eventgroupUnconfigure disables event reception.
func (e *Engine) eventgroupUnconfigure(g *consumedEventgroup) {
	if g.routed {
		for _, rg := range []RoutingGroupID{g.cfg.UDPRouting, g.cfg.TCPRouting} {
			if rg == NoRouting {
				continue
			}
			if err := e.transport.DisableRouting(rg); err != nil {
				e.reportError(g.client.inst, netip.AddrPort{}, "routing of "+g.cfg.Name, err)
			}
		}
		g.routed = false
	}
	e.eventgroupReleaseMulticast(g)
}

func (e *Engine) eventgroupUnsubscribe(g *consumedEventgroup, next EventgroupPhase, reason string) {
	e.eventgroupUnconfigure(g)
	g.ttl = timer.Invalid
	g.retryAt = timer.Invalid
	g.retries = 0
	e.setEventgroupPhase(g, next, reason)
	e.setEventgroupMode(g, ModeDown)
}

// eventgroupReset returns the eventgroup to Unsubscribed when its client
// stops being ready. With stop set, a pending or active subscription is
// withdrawn first.
func (e *Engine) eventgroupReset(g *consumedEventgroup, stop bool, reason string) {
	if stop && !g.phase.unsubscribed() {
		e.queueSubscription(g, sendqueue.KindStopSubscribe, 0)
	}
	g.pendingAck = nil
	g.trigger = triggerNone
	g.multicastOffer = false
	e.eventgroupUnsubscribe(g, EventgroupUnsubscribed, reason)
}

// queueSubscription queues a Subscribe or StopSubscribe of g for the
// server its client is bound to. A Subscribe already pending is not
// queued twice. A TCP Subscribe waits for the TCP connection to come
// online.
func (e *Engine) queueSubscription(g *consumedEventgroup, kind sendqueue.Kind, delay time.Duration) {
	c := g.client
	if c.offer == nil {
		return
	}
	inst := c.inst
	if kind == sendqueue.KindSubscribe && e.queued(inst, c.offer.sender, kind, func(o *outEntry) bool { return o.eventgroup == g }) {
		return
	}
	entry := wire.Entry{
		Type:         wire.EntrySubscribeEventgroup,
		ServiceID:    c.cfg.ServiceID,
		InstanceID:   c.offer.instanceID,
		MajorVersion: c.cfg.MajorVersion,
		TTL:          c.cfg.Timing.TTL,
		EventgroupID: g.cfg.EventgroupID,
	}
	if kind == sendqueue.KindStopSubscribe {
		entry.TTL = 0
	}

	var opts []wire.Option
	if g.cfg.needsUDP() || g.cfg.usesMulticast() {
		if ep, ok := e.serviceEndpoint(inst, c.cfg.UDPConn); ok {
			opts = append(opts, wire.EndpointOption(ep, wire.ProtoUDP))
		}
	}
	wait := false
	if g.cfg.needsTCP() {
		if ep, ok := e.serviceEndpoint(inst, c.cfg.TCPConn); ok {
			opts = append(opts, wire.EndpointOption(ep, wire.ProtoTCP))
		}
		wait = kind == sendqueue.KindSubscribe
	}
	if cfg, ok := e.configOption(inst, c.cfg.Capabilities); ok {
		opts = append(opts, cfg)
	}

	e.enqueue(inst, kind, c.offer.sender, delay, outEntry{
		entry:      entry,
		options:    opts,
		client:     c,
		eventgroup: g,
		wait:       wait,
		waitConn:   c.cfg.TCPConn,
	})

	g.retryAt = timer.Invalid
	if kind == sendqueue.KindSubscribe && c.cfg.Timing.TTL == wire.TTLInfinite && c.cfg.Timing.SubscribeRetryMax > 0 {
		g.retryAt = e.now.Add(delay + c.cfg.Timing.SubscribeRetryDelay)
	}
}
