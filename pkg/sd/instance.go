package sd

import (
	"fmt"

	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/sendqueue"
)

// LocalAddrAssignmentChanged reports whether the address of an SD
// unicast connection is assigned. The instance follows on the next Tick.
func (e *Engine) LocalAddrAssignmentChanged(conn ConnID, assigned bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrNotInitialized
	}
	ref, ok := e.sdConns[conn]
	if !ok || ref.channel != registry.ChannelUnicast {
		return fmt.Errorf("%w: %d", ErrUnknownConnection, conn)
	}
	ref.inst.addrAssigned = assigned
	return nil
}

// ConnectionModeChanged reports the mode of a service connection.
// Subscribes that wait for a TCP connection go out once it is online.
func (e *Engine) ConnectionModeChanged(conn ConnID, mode ConnMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrNotInitialized
	}
	if mode > ConnOnline {
		return ErrInvalidState
	}
	old, known := e.connModes[conn]
	e.connModes[conn] = mode
	if known && old == mode {
		return nil
	}

	for _, inst := range e.instances {
		if mode == ConnOnline {
			for _, dest := range inst.queue.Destinations() {
				for _, it := range inst.queue.Entries(dest) {
					if it.Payload.wait && it.Payload.waitConn == conn {
						inst.queue.Rearm(dest, e.now)
						break
					}
				}
			}
		}
		for _, g := range inst.eventgroups {
			if g.client.cfg.TCPConn == conn && g.cfg.needsTCP() {
				e.request(inst, groupRef(g))
			}
		}
	}
	return nil
}

func (e *Engine) connOnline(conn ConnID) bool {
	return e.connModes[conn] == ConnOnline
}

func (e *Engine) connLost(conn ConnID) bool {
	mode, ok := e.connModes[conn]
	return ok && mode == ConnOffline
}

// runInstance updates the instance state and runs its due entities.
func (e *Engine) runInstance(inst *instance) {
	e.updateInstance(inst)
	for range maxPasses {
		due := e.collectDue(inst)
		if len(due) == 0 {
			return
		}
		for _, ref := range due {
			e.runEntity(ref)
		}
	}
}

func (e *Engine) updateInstance(inst *instance) {
	if !inst.addrAssigned {
		if inst.state != InstanceDown {
			e.instanceDown(inst, "address lost")
		}
		return
	}
	if inst.state == InstanceDown {
		e.setInstanceState(inst, InstanceUp, "address assigned")
	}
	if inst.state == InstanceUp {
		e.configureInstance(inst)
	}
}

// configureInstance opens the SD connections. Failures leave the
// instance up and are retried on the next Tick.
func (e *Engine) configureInstance(inst *instance) {
	ic := inst.cfg
	if err := e.transport.OpenConn(ic.UnicastConn); err != nil {
		e.reportError(inst, ic.MulticastAddr, "open unicast connection", err)
		return
	}
	local, prefix, err := e.transport.LocalAddr(ic.UnicastConn)
	if err != nil || !local.IsValid() {
		if err == nil {
			err = ErrUnknownConnection
		}
		e.reportError(inst, ic.MulticastAddr, "unicast local address", err)
		return
	}
	if err := e.transport.OpenConn(ic.MulticastConn); err != nil {
		e.reportError(inst, ic.MulticastAddr, "open multicast connection", err)
		return
	}
	dest, err := inst.peers.Save(ic.MulticastAddr)
	if err != nil {
		e.reportError(inst, ic.MulticastAddr, "register multicast destination", err)
		return
	}

	inst.local = local
	inst.prefixLen = prefix
	inst.multicastDest = dest
	e.setInstanceState(inst, InstanceConfigured, "connections open")
	e.logger.Info("sd instance configured",
		"instance", ic.Name,
		"local", local,
		"prefix", prefix)
	e.requestAll(inst)
}

// instanceDown drops everything queued and closes the SD connections.
// Entities notice on their next run and go down without sending.
func (e *Engine) instanceDown(inst *instance, reason string) {
	inst.queue.Clear(func(it sendqueue.Item[outEntry]) {
		_ = inst.peers.Release(it.Dest)
	})
	if inst.state == InstanceConfigured {
		for _, conn := range []ConnID{inst.cfg.UnicastConn, inst.cfg.MulticastConn} {
			if err := e.transport.CloseConn(conn, true); err != nil {
				e.reportError(inst, inst.cfg.MulticastAddr, "close SD connection", err)
			}
		}
		_ = inst.peers.Release(inst.multicastDest)
		inst.multicastDest = registry.Handle{}
	}
	inst.forceFlush = false
	e.setInstanceState(inst, InstanceDown, reason)
	e.requestAll(inst)
}

func (e *Engine) requestAll(inst *instance) {
	for _, s := range inst.servers {
		e.request(inst, serverRef(s))
	}
	for _, c := range inst.clients {
		e.request(inst, clientRef(c))
	}
}
