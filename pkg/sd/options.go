package sd

import (
	"fmt"
	"net/netip"

	"github.com/someip-sd/sd-go/pkg/wire"
)

// serviceEndpoint returns the address of a service connection as it is
// announced to peers. A wildcard local address is replaced by the
// instance's unicast address.
func (e *Engine) serviceEndpoint(inst *instance, conn ConnID) (netip.AddrPort, bool) {
	if conn == NoConn {
		return netip.AddrPort{}, false
	}
	addr, _, err := e.transport.LocalAddr(conn)
	if err != nil || !addr.IsValid() || addr.Port() == 0 {
		return netip.AddrPort{}, false
	}
	if addr.Addr().IsUnspecified() {
		addr = netip.AddrPortFrom(inst.local.Addr(), addr.Port())
	}
	return addr, true
}

// configOption returns the configuration option carrying the host name
// of inst and items, if there is anything to carry.
func (e *Engine) configOption(inst *instance, items []string) (wire.Option, bool) {
	var all []string
	if inst.cfg.HostName != "" {
		all = append(all, "hostname="+inst.cfg.HostName)
	}
	all = append(all, items...)
	if len(all) == 0 {
		return wire.Option{}, false
	}
	return wire.ConfigOption(all...), true
}

// endpointSet is what an entry's options resolve to.
type endpointSet struct {
	udp, tcp  netip.AddrPort
	multicast netip.AddrPort
	config    []string
}

// optionRules says which endpoint options an entry type may carry and
// which must lie in the local subnet.
type optionRules struct {
	unicast   bool
	multicast bool
	needUDP   bool
	needTCP   bool
}

// classify resolves the options of an entry. Duplicate endpoints and
// option kinds the entry must not carry reject the entry. A unicast
// endpoint outside the local subnet rejects the entry if it is needed
// and is ignored otherwise.
func (e *Engine) classify(inst *instance, opts []wire.Option, rules optionRules) (endpointSet, error) {
	var set endpointSet
	for _, o := range opts {
		switch {
		case o.Type == wire.OptionConfiguration:
			set.config = append(set.config, o.Config...)
		case o.IsSDEndpoint(), o.Type == wire.OptionLoadBalancing:
		case o.IsUnicastEndpoint():
			if !rules.unicast {
				return set, fmt.Errorf("%w: unexpected %s", ErrRejectedOptions, o.Type)
			}
			slot, needed := &set.udp, rules.needUDP
			switch o.Proto {
			case wire.ProtoUDP:
			case wire.ProtoTCP:
				slot, needed = &set.tcp, rules.needTCP
			default:
				return set, fmt.Errorf("%w: protocol 0x%02x", ErrRejectedOptions, uint8(o.Proto))
			}
			if slot.IsValid() {
				return set, fmt.Errorf("%w: duplicate %s endpoint", ErrRejectedOptions, o.Proto)
			}
			if !e.inSubnet(inst, o.Endpoint) {
				if needed {
					return set, fmt.Errorf("%w: %s outside local subnet", ErrRejectedOptions, o.Endpoint)
				}
				continue
			}
			*slot = o.Endpoint
		case o.IsMulticast():
			if !rules.multicast || o.Proto != wire.ProtoUDP || set.multicast.IsValid() {
				return set, fmt.Errorf("%w: unexpected multicast %s", ErrRejectedOptions, o.Endpoint)
			}
			set.multicast = o.Endpoint
		default:
			if !o.Discardable {
				return set, fmt.Errorf("%w: unknown option %s", ErrRejectedOptions, o.Type)
			}
		}
	}
	return set, nil
}

// inSubnet reports whether ep lies in the local network of inst.
func (e *Engine) inSubnet(inst *instance, ep netip.AddrPort) bool {
	if inst.prefixLen <= 0 {
		return true
	}
	local := inst.local.Addr().Unmap()
	remote := ep.Addr().Unmap()
	if local.Is4() != remote.Is4() {
		return false
	}
	p, err := local.Prefix(inst.prefixLen)
	if err != nil {
		return false
	}
	return p.Contains(remote)
}

// entryOptions decodes the options referenced by entry.
func entryOptions(msg *wire.Message, entry wire.Entry) ([]wire.Option, error) {
	idx, err := msg.OptionIndices(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRejectedOptions, err)
	}
	opts := make([]wire.Option, 0, len(idx))
	for _, i := range idx {
		o, err := msg.Option(i)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRejectedOptions, err)
		}
		opts = append(opts, o)
	}
	return opts, nil
}
