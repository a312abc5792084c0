package sd

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/someip-sd/sd-go/pkg/log"
	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/sendqueue"
	"github.com/someip-sd/sd-go/pkg/wire"
)

// rxMessage is one received message being dispatched.
type rxMessage struct {
	inst    *instance
	msg     *wire.Message
	channel registry.Channel
	peer    registry.Handle
	remote  netip.AddrPort
	serial  uint64
}

// Receive processes a datagram received on an SD connection. It returns
// an error only for malformed messages, which are also counted and
// reported to the DiagnosticSink. A message without the unicast flag is
// malformed. Rejected entries are logged and skipped; a rejected Subscribe
// is answered with a Nack.
func (e *Engine) Receive(conn ConnID, from netip.AddrPort, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrNotInitialized
	}
	ref, ok := e.sdConns[conn]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownConnection, conn)
	}
	inst := ref.inst
	if inst.state != InstanceConfigured {
		return nil
	}
	e.captureDatagram(inst, log.DirectionIn, from, data)

	msg, err := wire.Decode(data, wire.Limits{MaxOptions: e.cfg.MaxRxOptions})
	if err == nil && !msg.Header.Flags.Unicast() {
		err = fmt.Errorf("%w: %w", wire.ErrMalformedMessage, wire.ErrNotUnicast)
	}
	if err != nil {
		e.count(MeasInvalidMessages)
		e.diag.MalformedMessage(inst.cfg.Name, err)
		e.reportError(inst, from, "decode", err)
		return err
	}

	sender := from
	if ep, ok := sdEndpoint(msg); ok {
		sender = ep
	}
	if sender == inst.local {
		return nil
	}
	e.captureMessage(inst, log.DirectionIn, sender, msg)

	peer, err := inst.peers.Save(sender)
	if err != nil {
		e.count(MeasDroppedEntries)
		e.reportError(inst, sender, "register peer", fmt.Errorf("%w: %w", ErrPeerTableFull, err))
		return nil
	}
	defer inst.peers.Release(peer)

	e.rxSerial++
	rx := &rxMessage{
		inst:    inst,
		msg:     msg,
		channel: ref.channel,
		peer:    peer,
		remote:  sender,
		serial:  e.rxSerial,
	}

	rebooted, _ := inst.peers.DetectReboot(peer, ref.channel, msg.Header.SessionID, msg.Header.Flags.Reboot())
	if rebooted {
		e.peerRebooted(rx)
	}

	for i := range msg.NumEntries() {
		entry, err := msg.Entry(i)
		if err != nil {
			continue
		}
		opts, err := entryOptions(msg, entry)
		switch entry.Type {
		case wire.EntryFindService:
			e.rxFind(rx, entry, opts, err)
		case wire.EntryOfferService:
			e.rxOffer(rx, entry, opts, err)
		case wire.EntrySubscribeEventgroup:
			e.rxSubscribe(rx, entry, opts, err)
		case wire.EntrySubscribeEventgroupAck:
			e.rxAck(rx, entry, opts, err)
		}
	}
	return nil
}

// sdEndpoint returns the address from an SD endpoint option, which
// overrides the datagram source as the sender identity.
func sdEndpoint(msg *wire.Message) (netip.AddrPort, bool) {
	for i := range msg.NumOptions() {
		o, err := msg.Option(i)
		if err == nil && o.IsSDEndpoint() && o.Endpoint.IsValid() {
			return o.Endpoint, true
		}
	}
	return netip.AddrPort{}, false
}

func (e *Engine) rejectEntry(rx *rxMessage, entry wire.Entry, err error) {
	e.reportError(rx.inst, rx.remote, "reject "+entry.String(), err)
}

// peerRebooted forgets everything learned from a rebooted peer: its
// subscriptions are removed and services it offered are stopped.
func (e *Engine) peerRebooted(rx *rxMessage) {
	inst := rx.inst
	e.count(MeasRebootsDetected)
	e.stateChanged(inst, log.StateEntityPeer, rx.remote.String(), "", "REBOOTED", "session reset")

	for _, h := range inst.handlers {
		marked := false
		for _, sub := range h.subs.All() {
			if sub.peer == rx.peer {
				sub.pendingStop = true
				sub.pending = nil
				marked = true
			}
		}
		if marked {
			e.request(inst, handlerRef(h))
		}
	}
	for _, c := range inst.clients {
		if c.offer != nil && c.offer.sender == rx.peer {
			c.pendingStop = true
			e.request(inst, clientRef(c))
		}
		if c.pendingOffer != nil && c.pendingOffer.sender == rx.peer {
			_ = inst.peers.Release(c.pendingOffer.sender)
			c.pendingOffer = nil
		}
	}
}

// rxFind answers a Find for a service this instance offers with a
// unicast Offer. Answers to multicast Finds are delayed randomly.
func (e *Engine) rxFind(rx *rxMessage, entry wire.Entry, opts []wire.Option, err error) {
	if entry.TTL == 0 {
		return
	}
	if err != nil {
		e.rejectEntry(rx, entry, err)
		return
	}
	set, err := e.classify(rx.inst, opts, optionRules{})
	if err != nil {
		e.rejectEntry(rx, entry, err)
		return
	}

	for _, s := range serviceRange(rx.inst.servers, entry.ServiceID, serverKey) {
		if !s.phase.offering() || !findMatches(s, entry) {
			continue
		}
		if e.findValidator != nil && !e.findValidator.ValidateFind(s.handle, rx.remote, set.config) {
			continue
		}
		var delay time.Duration
		if rx.channel == registry.ChannelMulticast {
			t := s.cfg.Timing
			delay = e.randDelay(t.RequestResponseMinDelay, t.RequestResponseMaxDelay)
		}
		e.queueServerEntry(s, sendqueue.KindOffer, rx.peer, delay)
	}
}

func findMatches(s *offeredService, entry wire.Entry) bool {
	return (entry.InstanceID == wire.InstanceAny || entry.InstanceID == s.instanceID) &&
		(entry.MajorVersion == wire.MajorAny || entry.MajorVersion == s.cfg.MajorVersion) &&
		(entry.MinorVersion == wire.MinorAny || entry.MinorVersion == s.cfg.MinorVersion)
}

func offerMatches(c *consumedService, entry wire.Entry) bool {
	return (c.instanceID == wire.InstanceAny || c.instanceID == entry.InstanceID) &&
		c.cfg.MajorVersion == entry.MajorVersion &&
		(c.cfg.MinorVersion == wire.MinorAny || c.cfg.MinorVersion == entry.MinorVersion)
}

// rxOffer hands an Offer or StopOffer to every matching client. The
// client applies it on its next run.
func (e *Engine) rxOffer(rx *rxMessage, entry wire.Entry, opts []wire.Option, err error) {
	inst := rx.inst
	for _, c := range serviceRange(inst.clients, entry.ServiceID, clientKey) {
		if !offerMatches(c, entry) {
			continue
		}
		if entry.TTL == 0 {
			e.rxStopOffer(rx, c, entry)
			continue
		}
		if err != nil {
			e.rejectEntry(rx, entry, err)
			return
		}

		set, cerr := e.classify(inst, opts, optionRules{
			unicast: true,
			needUDP: c.needsUDP(),
			needTCP: c.needsTCP(),
		})
		if cerr == nil && ((c.needsUDP() && !set.udp.IsValid()) || (c.needsTCP() && !set.tcp.IsValid())) {
			cerr = fmt.Errorf("%w: required endpoint missing", ErrRejectedOptions)
		}
		if cerr != nil {
			e.rejectEntry(rx, entry, cerr)
			continue
		}
		if e.offerValidator != nil && !e.offerValidator.ValidateOffer(c.handle, rx.remote, set.config) {
			continue
		}
		if inst.peers.Acquire(rx.peer) != nil {
			continue
		}

		if c.pendingOffer != nil {
			_ = inst.peers.Release(c.pendingOffer.sender)
		}
		c.pendingOffer = &offerInfo{
			sender:     rx.peer,
			remote:     rx.remote,
			instanceID: entry.InstanceID,
			minor:      entry.MinorVersion,
			ttl:        entry.TTL,
			udp:        set.udp,
			tcp:        set.tcp,
			multicast:  rx.channel == registry.ChannelMulticast,
		}
		e.request(inst, clientRef(c))
	}
}

func (e *Engine) rxStopOffer(rx *rxMessage, c *consumedService, entry wire.Entry) {
	inst := rx.inst
	if p := c.pendingOffer; p != nil && p.sender == rx.peer && p.instanceID == entry.InstanceID {
		_ = inst.peers.Release(p.sender)
		c.pendingOffer = nil
	}
	if c.offer != nil && c.offer.sender == rx.peer && c.offer.instanceID == entry.InstanceID {
		c.pendingStop = true
		e.request(inst, clientRef(c))
	}
}

// rxSubscribe records a Subscribe or StopSubscribe for the matching event
// handler, which applies it on its next run. A Subscribe that cannot be
// accepted is answered with a Nack at once.
func (e *Engine) rxSubscribe(rx *rxMessage, entry wire.Entry, opts []wire.Option, err error) {
	inst := rx.inst
	var h *eventHandler
	for _, s := range serviceRange(inst.servers, entry.ServiceID, serverKey) {
		if s.instanceID != entry.InstanceID || s.cfg.MajorVersion != entry.MajorVersion || !s.phase.offering() {
			continue
		}
		for _, eh := range s.handlers {
			if eh.cfg.EventgroupID == entry.EventgroupID {
				h = eh
			}
		}
	}
	if h == nil {
		if entry.TTL != 0 {
			e.rejectEntry(rx, entry, fmt.Errorf("%w: no event handler", ErrRejectedOptions))
			e.queueNack(rx, entry)
		}
		return
	}

	var set endpointSet
	if err == nil {
		set, err = e.classify(inst, opts, optionRules{
			unicast: true,
			needUDP: h.needsUDP(),
			needTCP: h.needsTCP(),
		})
	}
	if err == nil && (h.needsUDP() || h.needsTCP()) &&
		!(h.needsUDP() && set.udp.IsValid()) && !(h.needsTCP() && set.tcp.IsValid()) {
		err = fmt.Errorf("%w: no usable endpoint", ErrRejectedOptions)
	}

	sh, sub := e.findSubscriber(h, rx.peer)
	if entry.TTL == 0 {
		if sub != nil {
			sub.pendingStop = true
			sub.pending = nil
			e.request(inst, handlerRef(h))
		}
		return
	}
	if err == nil && e.subscribeValidator != nil && !e.subscribeValidator.ValidateSubscribe(h.handle, rx.remote, set.config) {
		err = fmt.Errorf("%w: rejected by validator", ErrRejectedOptions)
	}
	if err != nil {
		e.rejectEntry(rx, entry, err)
		e.queueNack(rx, entry)
		return
	}

	if sub == nil {
		if inst.peers.Acquire(rx.peer) != nil {
			return
		}
		var ok bool
		sh, ok = h.subs.Insert(subscriber{peer: rx.peer, remote: rx.remote})
		if !ok {
			_ = inst.peers.Release(rx.peer)
			e.count(MeasDroppedEntries)
			e.rejectEntry(rx, entry, fmt.Errorf("%w: subscriber table of %s full", ErrRejectedOptions, h.cfg.Name))
			e.queueNack(rx, entry)
			return
		}
		sub, _ = h.subs.Get(sh)
	}
	sub.pending = &pendingSubscribe{
		ttl:     entry.TTL,
		counter: entry.Counter,
		udp:     set.udp,
		tcp:     set.tcp,
	}
	e.request(inst, handlerRef(h))
}

// queueNack answers a Subscribe with a Nack that repeats its fields.
func (e *Engine) queueNack(rx *rxMessage, entry wire.Entry) {
	nack := wire.Entry{
		Type:         wire.EntrySubscribeEventgroupAck,
		ServiceID:    entry.ServiceID,
		InstanceID:   entry.InstanceID,
		MajorVersion: entry.MajorVersion,
		Reserved:     entry.Reserved,
		Counter:      entry.Counter,
		EventgroupID: entry.EventgroupID,
	}
	e.enqueue(rx.inst, sendqueue.KindSubscribeNack, rx.peer, 0, outEntry{entry: nack})
}

// rxAck records the outcome of a subscription for the matching consumed
// eventgroup. Only the first outcome per message counts.
func (e *Engine) rxAck(rx *rxMessage, entry wire.Entry, opts []wire.Option, err error) {
	inst := rx.inst
	for _, c := range serviceRange(inst.clients, entry.ServiceID, clientKey) {
		if c.phase != ClientServiceReady || c.offer == nil || c.offer.sender != rx.peer ||
			c.offer.instanceID != entry.InstanceID || c.cfg.MajorVersion != entry.MajorVersion {
			continue
		}
		for _, g := range c.eventgroups {
			if g.cfg.EventgroupID != entry.EventgroupID {
				continue
			}
			if !g.phase.registering() && g.phase != EventgroupSubscribed {
				continue
			}
			if g.pendingAck != nil && g.pendingAck.serial == rx.serial {
				continue
			}

			out := &ackOutcome{ack: entry.TTL != 0, ttl: entry.TTL, serial: rx.serial}
			if out.ack {
				var set endpointSet
				cerr := err
				if cerr == nil {
					set, cerr = e.classify(inst, opts, optionRules{multicast: true})
				}
				switch {
				case cerr != nil:
					out.invalid = true
					e.rejectEntry(rx, entry, cerr)
				case g.cfg.usesMulticast() && !set.multicast.IsValid() && !g.cfg.needsUDP() && !g.cfg.needsTCP():
					out.invalid = true
				default:
					out.multicast = set.multicast
				}
			} else {
				e.diag.SubscribeNackReceived(inst.cfg.Name, entry.ServiceID, entry.EventgroupID)
			}
			g.pendingAck = out
			e.request(inst, groupRef(g))
		}
	}
}
