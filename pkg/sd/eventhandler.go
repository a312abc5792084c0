package sd

import (
	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/sendqueue"
	"github.com/someip-sd/sd-go/pkg/slotmap"
	"github.com/someip-sd/sd-go/pkg/timer"
	"github.com/someip-sd/sd-go/pkg/wire"
)

func (h *eventHandler) needsUDP() bool {
	return h.server.cfg.UDPConn != NoConn && (h.cfg.UDPRouting != NoRouting || h.cfg.MulticastThreshold > 0)
}

func (h *eventHandler) needsTCP() bool {
	return h.server.cfg.TCPConn != NoConn && h.cfg.TCPRouting != NoRouting
}

// runHandler applies the subscribe and stop requests received since the
// last run, expires stale subscribers and acknowledges accepted
// subscriptions.
func (e *Engine) runHandler(h *eventHandler) {
	inst := h.server.inst
	if !h.server.phase.offering() {
		e.arm(inst, handlerRef(h), timer.Invalid)
		return
	}

	for sh, sub := range h.subs.All() {
		switch {
		case sub.pendingStop:
			sub.pendingStop = false
			e.unrouteSubscriber(h, sub)
			if sub.pending == nil {
				e.removeSubscriber(h, sh, "stop subscribe")
			}
		case sub.pending == nil && sub.ttl.Expired(e.now):
			e.unrouteSubscriber(h, sub)
			e.removeSubscriber(h, sh, "ttl expired")
		}
	}

	var acks []slotmap.Handle
	for sh, sub := range h.subs.All() {
		p := sub.pending
		if p == nil {
			continue
		}
		sub.pending = nil
		if sub.udp != p.udp || sub.tcp != p.tcp {
			e.unrouteSubscriber(h, sub)
		}
		sub.udp, sub.tcp = p.udp, p.tcp
		sub.counter = p.counter
		sub.reqTTL = p.ttl
		sub.ttl = e.now.AddTTL(p.ttl)
		acks = append(acks, sh)
	}

	e.updateHandler(h)
	for _, sh := range acks {
		e.queueAck(h, sh)
	}

	next := timer.Invalid
	for _, sub := range h.subs.All() {
		next = timer.Earliest(next, sub.ttl)
	}
	e.arm(inst, handlerRef(h), next)
}

// updateHandler derives the handler state from the subscriber count and
// brings event routing in line with it. In Multicast state UDP
// subscribers are served by the multicast group instead of one route
// each; TCP subscribers always keep their own route.
func (e *Engine) updateHandler(h *eventHandler) {
	n := h.subs.Len()
	next := HandlerUnicast
	switch {
	case n == 0:
		next = HandlerNotSubscribed
	case h.cfg.MulticastThreshold > 0 && n >= h.cfg.MulticastThreshold:
		next = HandlerMulticast
	}
	multicast := next == HandlerMulticast

	for _, sub := range h.subs.All() {
		e.routeSubscriber(h, sub, multicast)
	}
	if multicast != h.multicastRouted {
		var err error
		if multicast {
			err = e.transport.EnableRouting(h.cfg.MulticastRouting)
		} else {
			err = e.transport.DisableRouting(h.cfg.MulticastRouting)
		}
		if err != nil {
			e.reportError(h.server.inst, h.cfg.MulticastAddr, "multicast routing of "+h.cfg.Name, err)
		}
		h.multicastRouted = multicast
	}

	e.setHandlerState(h, next, "subscribers changed")
	if n > 0 {
		e.setHandlerMode(h, EventHandlerRequested)
	} else {
		e.setHandlerMode(h, EventHandlerReleased)
	}
}

func (e *Engine) routeSubscriber(h *eventHandler, sub *subscriber, multicast bool) {
	wantUDP := !multicast && sub.udp.IsValid() && h.cfg.UDPRouting != NoRouting
	if wantUDP != sub.udpRouted {
		var err error
		if wantUDP {
			err = e.transport.EnableSpecificRouting(h.cfg.UDPRouting, sub.udp)
		} else {
			err = e.transport.DisableSpecificRouting(h.cfg.UDPRouting, sub.udp)
		}
		if err != nil {
			e.reportError(h.server.inst, sub.remote, "udp routing of "+h.cfg.Name, err)
		}
		sub.udpRouted = wantUDP
	}

	wantTCP := sub.tcp.IsValid() && h.cfg.TCPRouting != NoRouting
	if wantTCP != sub.tcpRouted {
		var err error
		if wantTCP {
			err = e.transport.EnableSpecificRouting(h.cfg.TCPRouting, sub.tcp)
		} else {
			err = e.transport.DisableSpecificRouting(h.cfg.TCPRouting, sub.tcp)
		}
		if err != nil {
			e.reportError(h.server.inst, sub.remote, "tcp routing of "+h.cfg.Name, err)
		}
		sub.tcpRouted = wantTCP
	}
}

func (e *Engine) unrouteSubscriber(h *eventHandler, sub *subscriber) {
	if sub.udpRouted {
		if err := e.transport.DisableSpecificRouting(h.cfg.UDPRouting, sub.udp); err != nil {
			e.reportError(h.server.inst, sub.remote, "udp routing of "+h.cfg.Name, err)
		}
		sub.udpRouted = false
	}
	if sub.tcpRouted {
		if err := e.transport.DisableSpecificRouting(h.cfg.TCPRouting, sub.tcp); err != nil {
			e.reportError(h.server.inst, sub.remote, "tcp routing of "+h.cfg.Name, err)
		}
		sub.tcpRouted = false
	}
}

func (e *Engine) removeSubscriber(h *eventHandler, sh slotmap.Handle, reason string) {
	sub, ok := h.subs.Remove(sh)
	if !ok {
		return
	}
	_ = h.server.inst.peers.Release(sub.peer)
	e.logger.Debug("sd subscriber removed",
		"instance", h.server.inst.cfg.Name,
		"handler", h.cfg.Name,
		"remote", sub.remote,
		"reason", reason)
}

// findSubscriber returns the subscriber registered from peer.
func (e *Engine) findSubscriber(h *eventHandler, peer registry.Handle) (slotmap.Handle, *subscriber) {
	for sh, sub := range h.subs.All() {
		if sub.peer == peer {
			return sh, sub
		}
	}
	return slotmap.Handle{}, nil
}

// handlerServiceDown drops every subscriber without notifying them.
func (e *Engine) handlerServiceDown(h *eventHandler) {
	for sh, sub := range h.subs.All() {
		e.unrouteSubscriber(h, sub)
		e.removeSubscriber(h, sh, "service down")
	}
	if h.multicastRouted {
		if err := e.transport.DisableRouting(h.cfg.MulticastRouting); err != nil {
			e.reportError(h.server.inst, h.cfg.MulticastAddr, "multicast routing of "+h.cfg.Name, err)
		}
		h.multicastRouted = false
	}
	e.setHandlerState(h, HandlerServiceDown, "service down")
	e.setHandlerMode(h, EventHandlerReleased)
}

// queueAck acknowledges the subscription of sub. In Multicast state the
// Ack carries the multicast group events are sent to.
func (e *Engine) queueAck(h *eventHandler, sh slotmap.Handle) {
	sub, ok := h.subs.Get(sh)
	if !ok {
		return
	}
	s := h.server
	entry := wire.Entry{
		Type:         wire.EntrySubscribeEventgroupAck,
		ServiceID:    s.cfg.ServiceID,
		InstanceID:   s.instanceID,
		MajorVersion: s.cfg.MajorVersion,
		TTL:          sub.reqTTL,
		Counter:      sub.counter,
		EventgroupID: h.cfg.EventgroupID,
	}
	var opts []wire.Option
	if h.state == HandlerMulticast && h.cfg.MulticastAddr.IsValid() {
		opts = append(opts, wire.MulticastOption(h.cfg.MulticastAddr))
	}
	e.enqueue(s.inst, sendqueue.KindSubscribeAck, sub.peer, 0, outEntry{
		entry:   entry,
		options: opts,
		server:  s,
		handler: h,
		sub:     sh,
	})
}
