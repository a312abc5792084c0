package sd

import (
	"net/netip"
	"time"

	"github.com/someip-sd/sd-go/pkg/log"
	"github.com/someip-sd/sd-go/pkg/wire"
)

// stateChanged records a state machine transition.
func (e *Engine) stateChanged(inst *instance, entity log.StateEntity, name, old, next, reason string) {
	e.logger.Debug("sd state change",
		"instance", inst.cfg.Name,
		"entity", entity.String(),
		"name", name,
		"old", old,
		"new", next,
		"reason", reason)

	e.plog.Log(log.Event{
		Timestamp: time.Now(),
		TraceID:   e.traceID,
		Direction: log.DirectionNone,
		Layer:     log.LayerEngine,
		Category:  log.CategoryState,
		Instance:  inst.cfg.Name,
		StateChange: &log.StateChangeEvent{
			Entity:   entity,
			Name:     name,
			OldState: old,
			NewState: next,
			Reason:   reason,
		},
	})
}

// reportError records a problem that does not surface to the caller.
func (e *Engine) reportError(inst *instance, remote netip.AddrPort, context string, err error) {
	e.logger.Warn("sd error",
		"instance", inst.cfg.Name,
		"remote", remote,
		"context", context,
		"error", err)

	ev := log.Event{
		Timestamp: time.Now(),
		TraceID:   e.traceID,
		Direction: log.DirectionNone,
		Layer:     log.LayerEngine,
		Category:  log.CategoryError,
		Instance:  inst.cfg.Name,
		Error: &log.ErrorEventData{
			Layer:   log.LayerEngine,
			Message: err.Error(),
			Context: context,
		},
	}
	if remote.IsValid() {
		ev.RemoteAddr = remote.String()
	}
	e.plog.Log(ev)
}

func (e *Engine) captureDatagram(inst *instance, dir log.Direction, remote netip.AddrPort, data []byte) {
	e.plog.Log(log.Event{
		Timestamp:  time.Now(),
		TraceID:    e.traceID,
		Direction:  dir,
		Layer:      log.LayerTransport,
		Category:   log.CategoryMessage,
		Instance:   inst.cfg.Name,
		RemoteAddr: remote.String(),
		Datagram:   log.NewDatagramEvent(data),
	})
}

func (e *Engine) captureMessage(inst *instance, dir log.Direction, remote netip.AddrPort, msg *wire.Message) {
	e.plog.Log(log.Event{
		Timestamp:  time.Now(),
		TraceID:    e.traceID,
		Direction:  dir,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		Instance:   inst.cfg.Name,
		RemoteAddr: remote.String(),
		Message:    log.NewMessageEvent(msg),
	})
}

func (e *Engine) setInstanceState(inst *instance, st InstanceState, reason string) {
	if inst.state == st {
		return
	}
	old := inst.state
	inst.state = st
	e.stateChanged(inst, log.StateEntityInstance, inst.cfg.Name, old.String(), st.String(), reason)
}

func (e *Engine) setServerPhase(s *offeredService, p ServerPhase, reason string) {
	if s.phase == p {
		return
	}
	old := s.phase
	s.phase = p
	e.stateChanged(s.inst, log.StateEntityServer, s.cfg.Name, old.String(), p.String(), reason)
}

func (e *Engine) setHandlerState(h *eventHandler, st HandlerState, reason string) {
	if h.state == st {
		return
	}
	old := h.state
	h.state = st
	e.stateChanged(h.server.inst, log.StateEntityEventHandler, h.cfg.Name, old.String(), st.String(), reason)
}

func (e *Engine) setClientPhase(c *consumedService, p ClientPhase, reason string) {
	if c.phase == p {
		return
	}
	old := c.phase
	c.phase = p
	e.stateChanged(c.inst, log.StateEntityClient, c.cfg.Name, old.String(), p.String(), reason)
}

func (e *Engine) setEventgroupPhase(g *consumedEventgroup, p EventgroupPhase, reason string) {
	if g.phase == p {
		return
	}
	old := g.phase
	g.phase = p
	e.stateChanged(g.client.inst, log.StateEntityEventgroup, g.cfg.Name, old.String(), p.String(), reason)
}

// Mode setters publish each change exactly once.

func (e *Engine) setServerMode(s *offeredService, m ServiceMode) {
	if s.mode == m {
		return
	}
	s.mode = m
	e.modes.ServerServiceChanged(s.cfg.Name, m)
}

func (e *Engine) setHandlerMode(h *eventHandler, m EventHandlerMode) {
	if h.mode == m {
		return
	}
	h.mode = m
	e.modes.EventHandlerChanged(h.cfg.Name, m)
}

func (e *Engine) setClientMode(c *consumedService, m ServiceMode) {
	if c.mode == m {
		return
	}
	c.mode = m
	e.modes.ClientServiceChanged(c.cfg.Name, m)
}

func (e *Engine) setEventgroupMode(g *consumedEventgroup, m ServiceMode) {
	if g.mode == m {
		return
	}
	g.mode = m
	e.modes.ConsumedEventgroupChanged(g.cfg.Name, m)
}
