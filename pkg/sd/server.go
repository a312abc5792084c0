package sd

import (
	"errors"
	"net/netip"
	"time"

	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/sendqueue"
	"github.com/someip-sd/sd-go/pkg/timer"
	"github.com/someip-sd/sd-go/pkg/wire"
)

var errInstanceUnassigned = errors.New("instance id not assigned")

// runServer drives the offer state machine of one server.
//
//	NotReady -> InitialWait -> Repetition -> Main
//
// Any phase falls back to NotReady when the service is withdrawn or the
// instance goes down.
func (e *Engine) runServer(s *offeredService) {
	inst := s.inst
	configured := inst.state == InstanceConfigured
	want := configured && s.desired == ServerAvailable

	switch {
	case s.phase == PhaseNotReady:
		s.timer = timer.Invalid
		if want {
			e.serverUp(s)
		}
	case !want:
		e.serverDown(s, configured)
	case s.timer.Expired(e.now):
		e.serverTimerExpired(s)
	}
	e.arm(inst, serverRef(s), s.timer)
}

func (e *Engine) serverUp(s *offeredService) {
	if s.instanceID == wire.InstanceAny {
		e.reportError(s.inst, s.inst.cfg.MulticastAddr, "offer "+s.cfg.Name, errInstanceUnassigned)
		return
	}
	if err := e.openServiceConns(s); err != nil {
		e.reportError(s.inst, s.inst.cfg.MulticastAddr, "open connections of "+s.cfg.Name, err)
		s.timer = e.now.Add(e.cfg.MainFunctionCycle)
		return
	}

	t := s.cfg.Timing
	s.repetitions = 0
	s.timer = e.now.Add(e.randDelay(t.InitialDelayMin, t.InitialDelayMax))
	e.setServerPhase(s, PhaseInitialWait, "service available")
	for _, h := range s.handlers {
		e.setHandlerState(h, HandlerNotSubscribed, "service available")
	}
	e.setServerMode(s, ModeAvailable)
}

func (e *Engine) openServiceConns(s *offeredService) error {
	for _, conn := range []ConnID{s.cfg.UDPConn, s.cfg.TCPConn} {
		if conn == NoConn {
			continue
		}
		if err := e.transport.OpenConn(conn); err != nil {
			e.closeServiceConns(s)
			return err
		}
	}
	return nil
}

func (e *Engine) closeServiceConns(s *offeredService) {
	for _, conn := range []ConnID{s.cfg.UDPConn, s.cfg.TCPConn} {
		if conn == NoConn {
			continue
		}
		if err := e.transport.CloseConn(conn, false); err != nil {
			e.reportError(s.inst, netip.AddrPort{}, "close connection of "+s.cfg.Name, err)
		}
	}
}

// serverDown withdraws the service. A StopOffer goes out only if the
// service was already announced and the instance can still send.
func (e *Engine) serverDown(s *offeredService, configured bool) {
	if configured && s.phase.offering() {
		e.queueServerEntry(s, sendqueue.KindStopOffer, s.inst.multicastDest, 0)
	}
	for _, h := range s.handlers {
		e.handlerServiceDown(h)
	}
	e.closeServiceConns(s)

	s.timer = timer.Invalid
	s.repetitions = 0
	reason := "service withdrawn"
	if !configured {
		reason = "instance down"
	}
	e.setServerPhase(s, PhaseNotReady, reason)
	e.setServerMode(s, ModeDown)
}

func (e *Engine) serverTimerExpired(s *offeredService) {
	t := s.cfg.Timing
	e.queueServerEntry(s, sendqueue.KindOffer, s.inst.multicastDest, 0)

	switch s.phase {
	case PhaseInitialWait:
		if t.RepetitionsMax > 0 {
			s.repetitions = 0
			s.timer = e.now.Add(t.RepetitionBaseDelay)
			e.setServerPhase(s, PhaseRepetition, "initial wait expired")
			return
		}
		e.enterMain(s, "initial wait expired")
	case PhaseRepetition:
		s.repetitions++
		if s.repetitions >= t.RepetitionsMax {
			e.enterMain(s, "repetitions done")
			return
		}
		s.timer = e.now.Add(t.RepetitionBaseDelay << s.repetitions)
	case PhaseMain:
		s.timer = e.now.Add(t.OfferCyclicDelay)
	}
}

func (e *Engine) enterMain(s *offeredService, reason string) {
	s.timer = timer.Invalid
	if d := s.cfg.Timing.OfferCyclicDelay; d > 0 {
		s.timer = e.now.Add(d)
	}
	e.setServerPhase(s, PhaseMain, reason)
}

// queueServerEntry queues an Offer or StopOffer of s for dest. An Offer
// already pending for dest is not queued twice.
func (e *Engine) queueServerEntry(s *offeredService, kind sendqueue.Kind, dest registry.Handle, delay time.Duration) {
	inst := s.inst
	if kind == sendqueue.KindOffer && e.queued(inst, dest, kind, func(o *outEntry) bool { return o.server == s }) {
		return
	}

	entry := wire.Entry{
		Type:         wire.EntryOfferService,
		ServiceID:    s.cfg.ServiceID,
		InstanceID:   s.instanceID,
		MajorVersion: s.cfg.MajorVersion,
		TTL:          s.cfg.Timing.TTL,
		MinorVersion: s.cfg.MinorVersion,
	}
	if kind == sendqueue.KindStopOffer {
		entry.TTL = 0
	}
	e.enqueue(inst, kind, dest, delay, outEntry{
		entry:   entry,
		options: e.serverOptions(s),
		server:  s,
	})
}

// serverOptions returns the endpoint and configuration options of s.
func (e *Engine) serverOptions(s *offeredService) []wire.Option {
	var opts []wire.Option
	if ep, ok := e.serviceEndpoint(s.inst, s.cfg.UDPConn); ok {
		opts = append(opts, wire.EndpointOption(ep, wire.ProtoUDP))
	}
	if ep, ok := e.serviceEndpoint(s.inst, s.cfg.TCPConn); ok {
		opts = append(opts, wire.EndpointOption(ep, wire.ProtoTCP))
	}
	if cfg, ok := e.configOption(s.inst, s.cfg.Capabilities); ok {
		opts = append(opts, cfg)
	}
	return opts
}
