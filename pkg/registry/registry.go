package registry

import (
	"errors"
	"fmt"
	"net/netip"

	"github.com/someip-sd/sd-go/pkg/slotmap"
)

// Registry errors.
var (
	ErrFull          = errors.New("remote address registry full")
	ErrInvalidHandle = errors.New("invalid remote address handle")
	ErrInvalidAddr   = errors.New("invalid remote address")
)

// Channel selects the receive path a message arrived on.
type Channel uint8

const (
	ChannelUnicast Channel = iota
	ChannelMulticast
)

// String returns the channel name.
func (c Channel) String() string {
	switch c {
	case ChannelUnicast:
		return "UNICAST"
	case ChannelMulticast:
		return "MULTICAST"
	default:
		return "UNKNOWN"
	}
}

// Handle refers to a registered remote address.
type Handle struct {
	h slotmap.Handle
}

// IsZero reports whether h refers to nothing.
func (h Handle) IsZero() bool {
	return h.h.IsZero()
}

// Index returns a small integer unique among live entries.
func (h Handle) Index() int {
	return h.h.Index()
}

type rxState struct {
	session uint16
	reboot  bool
}

type entry struct {
	addr      netip.AddrPort
	refs      int
	txSession uint16
	txReboot  bool
	rx        [2]rxState
	reboots   int
	lastUse   uint64
}

// Registry stores remote addresses. Entries without references stay
// registered, so session counters and reboot state survive until the
// slot is needed for a new address.
type Registry struct {
	slots *slotmap.Map[entry]
	index map[netip.AddrPort]Handle
	uses  uint64
}

// New creates a registry for at most capacity addresses.
func New(capacity int) *Registry {
	return &Registry{
		slots: slotmap.New[entry](capacity),
		index: make(map[netip.AddrPort]Handle, capacity),
	}
}

func normalize(addr netip.AddrPort) netip.AddrPort {
	return netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port())
}

// Save returns the handle for addr and takes a reference on it, creating
// the entry if needed.
func (r *Registry) Save(addr netip.AddrPort) (Handle, error) {
	if !addr.IsValid() {
		return Handle{}, fmt.Errorf("%w: %s", ErrInvalidAddr, addr)
	}
	addr = normalize(addr)
	r.uses++
	if h, ok := r.index[addr]; ok {
		e, _ := r.slots.Get(h.h)
		e.refs++
		e.lastUse = r.uses
		return h, nil
	}
	fresh := entry{addr: addr, refs: 1, txSession: 1, txReboot: true, lastUse: r.uses}
	sh, ok := r.slots.Insert(fresh)
	if !ok && r.evictIdle() {
		sh, ok = r.slots.Insert(fresh)
	}
	if !ok {
		return Handle{}, fmt.Errorf("%w: %d entries", ErrFull, r.slots.Cap())
	}
	h := Handle{h: sh}
	r.index[addr] = h
	return h, nil
}

// evictIdle removes the least recently used entry without references.
func (r *Registry) evictIdle() bool {
	var (
		victim slotmap.Handle
		addr   netip.AddrPort
		oldest uint64
		found  bool
	)
	for sh, e := range r.slots.All() {
		if e.refs == 0 && (!found || e.lastUse < oldest) {
			victim, addr, oldest, found = sh, e.addr, e.lastUse, true
		}
	}
	if !found {
		return false
	}
	delete(r.index, addr)
	r.slots.Remove(victim)
	return true
}

func (r *Registry) get(h Handle) (*entry, error) {
	e, ok := r.slots.Get(h.h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	return e, nil
}

// Acquire takes an additional reference on h.
func (r *Registry) Acquire(h Handle) error {
	e, err := r.get(h)
	if err != nil {
		return err
	}
	e.refs++
	r.uses++
	e.lastUse = r.uses
	return nil
}

// Release drops a reference on h. An entry without references stays
// registered until its slot is reclaimed for another address.
func (r *Registry) Release(h Handle) error {
	e, err := r.get(h)
	if err != nil {
		return err
	}
	if e.refs == 0 {
		return fmt.Errorf("%w: %s has no references", ErrInvalidHandle, e.addr)
	}
	e.refs--
	return nil
}

// Lookup returns the handle for addr without taking a reference.
func (r *Registry) Lookup(addr netip.AddrPort) (Handle, bool) {
	h, ok := r.index[normalize(addr)]
	return h, ok
}

// Addr returns the address for h.
func (r *Registry) Addr(h Handle) (netip.AddrPort, bool) {
	e, err := r.get(h)
	if err != nil {
		return netip.AddrPort{}, false
	}
	return e.addr, true
}

// Refs returns the reference count of h, zero if h does not resolve.
func (r *Registry) Refs(h Handle) int {
	e, err := r.get(h)
	if err != nil {
		return 0
	}
	return e.refs
}

// Len returns the number of registered addresses, including entries
// without references.
func (r *Registry) Len() int {
	return r.slots.Len()
}

// Cap returns the registry capacity.
func (r *Registry) Cap() int {
	return r.slots.Cap()
}

// SessionAt returns the session id and reboot flag the k-th next message
// to h will carry, without advancing the counter.
func (r *Registry) SessionAt(h Handle, k int) (uint16, bool, error) {
	e, err := r.get(h)
	if err != nil {
		return 0, false, err
	}
	session, reboot := e.txSession, e.txReboot
	for range k {
		session, reboot = nextSession(session, reboot)
	}
	return session, reboot, nil
}

// AdvanceSession moves the transmit counter of h forward by n messages.
func (r *Registry) AdvanceSession(h Handle, n int) error {
	e, err := r.get(h)
	if err != nil {
		return err
	}
	for range n {
		e.txSession, e.txReboot = nextSession(e.txSession, e.txReboot)
	}
	return nil
}

func nextSession(session uint16, reboot bool) (uint16, bool) {
	if session == 0xFFFF {
		return 1, false
	}
	return session + 1, reboot
}

// DetectReboot records an incoming message on channel ch and reports
// whether it shows that the peer rebooted.
func (r *Registry) DetectReboot(h Handle, ch Channel, session uint16, reboot bool) (bool, error) {
	e, err := r.get(h)
	if err != nil {
		return false, err
	}
	if ch > ChannelMulticast {
		return false, fmt.Errorf("%w: channel %d", ErrInvalidHandle, ch)
	}

	st := &e.rx[ch]
	detected := st.session != 0 && reboot && (!st.reboot || session <= st.session)
	if detected {
		e.reboots++
		e.rx[1-ch] = rxState{}
	}
	st.session = session
	st.reboot = reboot
	return detected, nil
}

// Reboots returns how many reboots were detected for h.
func (r *Registry) Reboots(h Handle) int {
	e, err := r.get(h)
	if err != nil {
		return 0
	}
	return e.reboots
}

// All iterates over registered handles and addresses.
func (r *Registry) All(yield func(Handle, netip.AddrPort) bool) {
	for sh, e := range r.slots.All() {
		if !yield(Handle{h: sh}, e.addr) {
			return
		}
	}
}
