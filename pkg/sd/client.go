package sd

import (
	"errors"
	"net/netip"

	"github.com/someip-sd/sd-go/pkg/sendqueue"
	"github.com/someip-sd/sd-go/pkg/timer"
	"github.com/someip-sd/sd-go/pkg/wire"
)

var errServerChanged = errors.New("server endpoints changed")

func (c *consumedService) needsUDP() bool {
	if c.cfg.UDPConn == NoConn {
		return false
	}
	for _, g := range c.eventgroups {
		if g.cfg.needsUDP() {
			return true
		}
	}
	return false
}

func (c *consumedService) needsTCP() bool {
	if c.cfg.TCPConn == NoConn {
		return false
	}
	for _, g := range c.eventgroups {
		if g.cfg.needsTCP() {
			return true
		}
	}
	return false
}

// seen reports whether an unexpired Offer is known.
func (c *consumedService) seen() bool {
	return c.offer != nil && c.ttl.IsValid()
}

// runClient drives the find state machine of one client. Offer and
// StopOffer entries received since the last run are applied first, in
// the order stop before offer.
func (e *Engine) runClient(c *consumedService) {
	if c.phase == ClientInit {
		e.setClientPhase(c, ClientNotRequestedNotSeen, "initialized")
	}
	if c.pendingStop {
		c.pendingStop = false
		e.clientOfferStopped(c, "stop offer")
	}
	if off := c.pendingOffer; off != nil {
		c.pendingOffer = nil
		e.clientOfferReceived(c, off)
	}
	if c.offer != nil && c.ttl.Expired(e.now) {
		e.clientOfferExpired(c)
	}
	e.stepClient(c)
	e.arm(c.inst, clientRef(c), timer.Earliest(c.timer, c.ttl))
}

func (e *Engine) stepClient(c *consumedService) {
	configured := c.inst.state == InstanceConfigured
	requested := c.desired == ClientRequested

	switch c.phase {
	case ClientNotRequestedNotSeen, ClientNotRequestedSeen:
		if !requested {
			return
		}
		if !configured {
			e.setClientPhase(c, ClientRequestedNotReady, "requested")
			return
		}
		e.clientSearchOrConnect(c)

	case ClientRequestedNotReady:
		if !requested {
			e.clientIdle(c, "released")
			return
		}
		if configured {
			e.clientSearchOrConnect(c)
		}

	case ClientSearchingInitialWait, ClientSearchingRepetition, ClientStopped:
		switch {
		case !requested:
			c.timer = timer.Invalid
			e.clientIdle(c, "released")
		case !configured:
			c.timer = timer.Invalid
			e.setClientPhase(c, ClientRequestedNotReady, "instance down")
		case c.seen():
			e.clientConnect(c)
		case c.timer.Expired(e.now):
			e.clientSearchTimerExpired(c)
		}

	case ClientServiceReady:
		switch {
		case !configured:
			e.clientUnbind(c, false)
			e.forgetOffer(c)
			e.setClientPhase(c, ClientRequestedNotReady, "instance down")
		case !requested:
			e.clientUnbind(c, true)
			e.clientIdle(c, "released")
		}
	}
}

// clientIdle moves a released client to the matching NotRequested phase.
func (e *Engine) clientIdle(c *consumedService, reason string) {
	if c.seen() {
		e.setClientPhase(c, ClientNotRequestedSeen, reason)
		return
	}
	e.setClientPhase(c, ClientNotRequestedNotSeen, reason)
}

func (e *Engine) clientSearchOrConnect(c *consumedService) {
	if c.seen() {
		e.clientConnect(c)
		return
	}
	e.clientStartSearch(c)
}

func (e *Engine) clientStartSearch(c *consumedService) {
	t := c.cfg.Timing
	c.repetitions = 0
	c.timer = e.now.Add(e.randDelay(t.InitialDelayMin, t.InitialDelayMax))
	e.setClientPhase(c, ClientSearchingInitialWait, "searching")
}

func (e *Engine) clientSearchTimerExpired(c *consumedService) {
	t := c.cfg.Timing
	e.queueFind(c)

	switch c.phase {
	case ClientSearchingInitialWait:
		if t.RepetitionsMax > 0 {
			c.repetitions = 0
			c.timer = e.now.Add(t.RepetitionBaseDelay)
			e.setClientPhase(c, ClientSearchingRepetition, "initial wait expired")
			return
		}
		c.timer = timer.Invalid
		e.setClientPhase(c, ClientStopped, "initial wait expired")
	case ClientSearchingRepetition:
		c.repetitions++
		if c.repetitions >= t.RepetitionsMax {
			c.timer = timer.Invalid
			e.setClientPhase(c, ClientStopped, "repetitions done")
			return
		}
		c.timer = e.now.Add(t.RepetitionBaseDelay << c.repetitions)
	}
}

// clientConnect binds the service connections to the offered endpoints
// and makes the service ready. A failure is retried after one cycle.
func (e *Engine) clientConnect(c *consumedService) {
	if err := e.clientBind(c); err != nil {
		e.reportError(c.inst, c.offer.remote, "bind "+c.cfg.Name, err)
		c.timer = e.now.Add(e.cfg.MainFunctionCycle)
		return
	}
	c.timer = timer.Invalid
	c.repetitions = 0
	e.setClientPhase(c, ClientServiceReady, "offer accepted")
	e.setClientMode(c, ModeAvailable)
	e.triggerEventgroups(c, c.offer.multicast)
}

func (e *Engine) clientBind(c *consumedService) error {
	off := c.offer
	type binding struct {
		conn ConnID
		ep   netip.AddrPort
	}
	var bound []ConnID
	for _, b := range []binding{{c.cfg.UDPConn, off.udp}, {c.cfg.TCPConn, off.tcp}} {
		if b.conn == NoConn || !b.ep.IsValid() {
			continue
		}
		err := e.transport.SetRemoteAddr(b.conn, b.ep)
		if err == nil {
			err = e.transport.OpenConn(b.conn)
		}
		if err != nil {
			for _, conn := range bound {
				_ = e.transport.CloseConn(conn, true)
				_ = e.transport.ReleaseRemoteAddr(conn)
			}
			_ = e.transport.ReleaseRemoteAddr(b.conn)
			return err
		}
		bound = append(bound, b.conn)
	}
	c.bound = true
	return nil
}

// clientUnbind resets the eventgroups and releases the service
// connections. With stop set, active subscriptions are withdrawn.
func (e *Engine) clientUnbind(c *consumedService, stop bool) {
	for _, g := range c.eventgroups {
		e.eventgroupReset(g, stop, "service not ready")
	}
	if c.bound {
		for _, conn := range []ConnID{c.cfg.UDPConn, c.cfg.TCPConn} {
			if conn == NoConn {
				continue
			}
			if err := e.transport.CloseConn(conn, false); err != nil {
				e.reportError(c.inst, netip.AddrPort{}, "close connection of "+c.cfg.Name, err)
			}
			if err := e.transport.ReleaseRemoteAddr(conn); err != nil {
				e.reportError(c.inst, netip.AddrPort{}, "release remote of "+c.cfg.Name, err)
			}
		}
		c.bound = false
	}
	e.setClientMode(c, ModeDown)
}

// clientOfferReceived applies an accepted Offer. A ready client keeps
// its server unless the server's endpoints changed, in which case it
// searches again.
func (e *Engine) clientOfferReceived(c *consumedService, off *offerInfo) {
	if c.seen() && c.offer.instanceID != off.instanceID {
		_ = c.inst.peers.Release(off.sender)
		return
	}
	changed := c.offer != nil && (c.offer.sender != off.sender || c.offer.udp != off.udp || c.offer.tcp != off.tcp)
	e.forgetOffer(c)
	c.offer = off
	c.ttl = e.now.AddTTL(off.ttl)

	switch c.phase {
	case ClientServiceReady:
		if changed {
			e.reportError(c.inst, off.remote, "offer of "+c.cfg.Name, errServerChanged)
			e.clientUnbind(c, false)
			e.forgetOffer(c)
			e.queueFind(c)
			e.setClientPhase(c, ClientStopped, "server changed")
			return
		}
		e.triggerEventgroups(c, off.multicast)
	case ClientNotRequestedNotSeen:
		e.setClientPhase(c, ClientNotRequestedSeen, "offer received")
	}
}

func (e *Engine) clientOfferStopped(c *consumedService, reason string) {
	switch c.phase {
	case ClientServiceReady:
		e.clientUnbind(c, false)
		e.forgetOffer(c)
		e.setClientPhase(c, ClientStopped, reason)
	case ClientNotRequestedSeen:
		e.forgetOffer(c)
		e.setClientPhase(c, ClientNotRequestedNotSeen, reason)
	default:
		e.forgetOffer(c)
	}
}

func (e *Engine) clientOfferExpired(c *consumedService) {
	e.forgetOffer(c)
	switch c.phase {
	case ClientServiceReady:
		e.clientUnbind(c, false)
		e.clientStartSearch(c)
	case ClientNotRequestedSeen:
		e.setClientPhase(c, ClientNotRequestedNotSeen, "ttl expired")
	}
}

func (e *Engine) forgetOffer(c *consumedService) {
	if c.offer != nil {
		_ = c.inst.peers.Release(c.offer.sender)
		c.offer = nil
	}
	c.ttl = timer.Invalid
}

// triggerEventgroups passes an accepted Offer to every eventgroup.
func (e *Engine) triggerEventgroups(c *consumedService, multicast bool) {
	trig := triggerUnicastOffer
	if multicast {
		trig = triggerMulticastOffer
	}
	for _, g := range c.eventgroups {
		g.trigger = trig
		e.request(c.inst, groupRef(g))
	}
}

// queueFind queues a multicast Find for c. Only one Find per client is
// pending at a time.
func (e *Engine) queueFind(c *consumedService) {
	inst := c.inst
	if inst.state != InstanceConfigured {
		return
	}
	dest := inst.multicastDest
	if e.queued(inst, dest, sendqueue.KindFind, func(o *outEntry) bool { return o.client == c }) {
		return
	}
	entry := wire.Entry{
		Type:         wire.EntryFindService,
		ServiceID:    c.cfg.ServiceID,
		InstanceID:   c.instanceID,
		MajorVersion: c.cfg.MajorVersion,
		TTL:          c.cfg.Timing.TTL,
		MinorVersion: c.cfg.MinorVersion,
	}
	var opts []wire.Option
	if cfg, ok := e.configOption(inst, c.cfg.Capabilities); ok {
		opts = append(opts, cfg)
	}
	e.enqueue(inst, sendqueue.KindFind, dest, 0, outEntry{
		entry:   entry,
		options: opts,
		client:  c,
	})
}
