package sd

import (
	"errors"
	"fmt"
	"net/netip"
	"time"

	"github.com/someip-sd/sd-go/pkg/log"
	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/sendqueue"
	"github.com/someip-sd/sd-go/pkg/wire"
)

// enqueue adds an entry for dest, to be sent after delay. The queue holds
// a reference on dest until the entry is sent or dropped. When the pool
// runs low every destination is flushed on the next Tick.
func (e *Engine) enqueue(inst *instance, kind sendqueue.Kind, dest registry.Handle, delay time.Duration, out outEntry) {
	if inst.state != InstanceConfigured {
		return
	}
	addr, _ := inst.peers.Addr(dest)
	if err := inst.peers.Acquire(dest); err != nil {
		e.reportError(inst, addr, "queue "+kind.String(), err)
		return
	}
	_, err := inst.queue.Push(sendqueue.Item[outEntry]{
		Kind:    kind,
		Dest:    dest,
		SendAt:  e.now.Add(delay),
		Payload: out,
	})
	if err != nil {
		_ = inst.peers.Release(dest)
		e.count(MeasDroppedEntries)
		e.reportError(inst, addr, "queue "+kind.String(), ErrSendQueueFull)
		inst.forceFlush = true
		return
	}
	if inst.queue.Free() == 0 {
		inst.forceFlush = true
	}
}

// queued reports whether an entry of kind matching fn is pending for dest.
func (e *Engine) queued(inst *instance, dest registry.Handle, kind sendqueue.Kind, fn func(*outEntry) bool) bool {
	for _, it := range inst.queue.Entries(dest) {
		if it.Kind == kind && fn(&it.Payload) {
			return true
		}
	}
	return false
}

// stillWanted reports whether a queued entry still reflects the state of
// its owner. Withdrawals are always sent.
func (e *Engine) stillWanted(it *sendqueue.Item[outEntry]) bool {
	p := &it.Payload
	switch it.Kind {
	case sendqueue.KindOffer:
		s := p.server
		return s.phase.offering() && s.instanceID == p.entry.InstanceID
	case sendqueue.KindFind:
		c := p.client
		return c.desired == ClientRequested && c.phase != ClientServiceReady
	case sendqueue.KindSubscribe:
		g := p.eventgroup
		c := g.client
		return c.phase == ClientServiceReady &&
			c.offer != nil && c.offer.instanceID == p.entry.InstanceID &&
			g.desired == EventgroupRequested &&
			(g.phase.registering() || g.phase == EventgroupSubscribed)
	case sendqueue.KindSubscribeAck:
		h := p.handler
		return h.server.phase.offering() && h.subs.Contains(p.sub)
	default:
		return true
	}
}

type sentEntry struct {
	h     sendqueue.Handle
	kind  sendqueue.Kind
	entry wire.Entry
}

// batch is the set of messages for one destination built in one Tick.
type batch struct {
	inst *instance
	dest registry.Handle
	addr netip.AddrPort
	conn ConnID

	msgs    [][]byte
	entries [][]sentEntry

	// waiting is set if entries were held back for a connection.
	waiting bool
	sent    int
	err     error
}

// buildBatches encodes the pending entries of every due destination.
// Each batch holds a reference on its destination until commit.
func (e *Engine) buildBatches(inst *instance) []*batch {
	if inst.state != InstanceConfigured {
		return nil
	}
	force := inst.forceFlush
	inst.forceFlush = false

	var out []*batch
	for _, dest := range inst.queue.Due(e.now, force) {
		if b := e.buildBatch(inst, dest); b != nil {
			out = append(out, b)
		}
	}
	return out
}

func (e *Engine) buildBatch(inst *instance, dest registry.Handle) *batch {
	addr, ok := inst.peers.Addr(dest)
	if !ok || inst.peers.Acquire(dest) != nil {
		for h := range inst.queue.Entries(dest) {
			inst.queue.Remove(h)
		}
		return nil
	}
	b := &batch{inst: inst, dest: dest, addr: addr, conn: inst.cfg.UnicastConn}

	header := func(k int) wire.Header {
		session, reboot, _ := inst.peers.SessionAt(dest, k)
		flags := wire.FlagUnicast
		if reboot {
			flags |= wire.FlagReboot
		}
		return wire.Header{SessionID: session, Flags: flags}
	}
	builder := wire.NewBuilder(header(0), inst.cfg.TxBufferSize)
	var cur []sentEntry
	closeMsg := func() {
		b.msgs = append(b.msgs, builder.Bytes())
		b.entries = append(b.entries, cur)
		cur = nil
		builder.Reset(header(len(b.msgs)))
	}

	for h, it := range inst.queue.Entries(dest) {
		if !e.stillWanted(it) {
			inst.queue.Remove(h)
			_ = inst.peers.Release(dest)
			continue
		}
		if it.Payload.wait && !e.connOnline(it.Payload.waitConn) {
			b.waiting = true
			continue
		}

		err := builder.Add(it.Payload.entry, it.Payload.options)
		if errors.Is(err, wire.ErrBufferTooSmall) && builder.Count() > 0 {
			closeMsg()
			err = builder.Add(it.Payload.entry, it.Payload.options)
		}
		if err != nil {
			if errors.Is(err, wire.ErrBufferTooSmall) {
				err = fmt.Errorf("%w: %w", ErrEntryTooLarge, err)
			}
			e.count(MeasDroppedEntries)
			e.reportError(inst, addr, "encode "+it.Kind.String(), err)
			inst.queue.Remove(h)
			_ = inst.peers.Release(dest)
			continue
		}
		cur = append(cur, sentEntry{h: h, kind: it.Kind, entry: it.Payload.entry})
	}
	if builder.Count() > 0 {
		closeMsg()
	}

	if len(b.msgs) == 0 {
		if b.waiting {
			inst.queue.Rearm(dest, e.now.Add(inst.cfg.ConnRetryDelay))
		}
		_ = inst.peers.Release(dest)
		return nil
	}
	return b
}

// sendBatches transmits without the engine lock. The first failure for
// a destination stops its remaining messages so session ids stay
// contiguous.
func (e *Engine) sendBatches(batches []*batch) {
	for _, b := range batches {
		for _, msg := range b.msgs {
			if err := e.transport.Send(b.conn, b.addr, msg); err != nil {
				b.err = err
				break
			}
			b.sent++
		}
	}
}

// commitBatches advances the session counters by the messages actually
// sent and removes their entries. Entries of unsent messages stay queued
// and are retried after the connection retry delay.
func (e *Engine) commitBatches(batches []*batch) {
	for _, b := range batches {
		inst := b.inst
		if b.sent > 0 {
			_ = inst.peers.AdvanceSession(b.dest, b.sent)
		}
		for i := range b.sent {
			e.captureDatagram(inst, log.DirectionOut, b.addr, b.msgs[i])
			if msg, err := wire.Decode(b.msgs[i], wire.DefaultLimits()); err == nil {
				e.captureMessage(inst, log.DirectionOut, b.addr, msg)
			}
			for _, se := range b.entries[i] {
				if _, ok := inst.queue.Remove(se.h); ok {
					_ = inst.peers.Release(b.dest)
				}
				if se.kind == sendqueue.KindSubscribeNack {
					e.count(MeasSubscribeNackSent)
					e.diag.SubscribeNackSent(inst.cfg.Name, se.entry.ServiceID, se.entry.EventgroupID)
				}
			}
		}
		if b.err != nil {
			e.reportError(inst, b.addr, "send", b.err)
		}
		if (b.err != nil || b.waiting) && inst.queue.Len(b.dest) > 0 {
			inst.queue.Rearm(b.dest, e.now.Add(inst.cfg.ConnRetryDelay))
		}
		_ = inst.peers.Release(b.dest)
	}
}
