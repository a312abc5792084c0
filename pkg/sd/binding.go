package sd

import (
	"fmt"
	"net/netip"
)

// matchQuality rates how well a configured address matches an actual
// one: 3 for an exact match, 2 for an exact address with any port, 1 for
// any address with an exact port, 0 for a full wildcard and -1 for a
// mismatch.
func matchQuality(pattern, actual netip.AddrPort) int {
	anyAddr := !pattern.IsValid() || pattern.Addr().IsUnspecified()
	anyPort := !pattern.IsValid() || pattern.Port() == 0
	if !anyAddr && (!actual.IsValid() || pattern.Addr().Unmap() != actual.Addr().Unmap()) {
		return -1
	}
	if !anyPort && (!actual.IsValid() || pattern.Port() != actual.Port()) {
		return -1
	}
	switch {
	case !anyAddr && !anyPort:
		return 3
	case !anyAddr:
		return 2
	case !anyPort:
		return 1
	default:
		return 0
	}
}

// selectMulticastConn picks the configured multicast connection of g
// that best matches the group announced in an Ack and the server's event
// endpoint. The local side is compared first, then the remote side; ties
// go to the connection configured first.
func (e *Engine) selectMulticastConn(g *consumedEventgroup, group, server netip.AddrPort) (ConnID, error) {
	best, bestLocal, bestRemote := NoConn, -1, -1
	for _, conn := range g.cfg.MulticastConns {
		local, _, err := e.transport.LocalAddr(conn)
		if err != nil {
			continue
		}
		lq := matchQuality(local, group)
		if lq < 0 {
			continue
		}
		rq := 0
		if server.IsValid() {
			remote, err := e.transport.RemoteAddr(conn)
			if err != nil {
				continue
			}
			if rq = matchQuality(remote, server); rq < 0 {
				continue
			}
		}
		if lq > bestLocal || (lq == bestLocal && rq > bestRemote) {
			best, bestLocal, bestRemote = conn, lq, rq
		}
	}
	if best == NoConn {
		return NoConn, fmt.Errorf("%w: group %s", ErrNoMulticastBinding, group)
	}
	return best, nil
}
