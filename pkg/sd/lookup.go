package sd

import "sort"

// serviceRange returns the run of items whose key equals id. items must
// be sorted by key. Service ids tend to be spread evenly, so an
// interpolated probe usually lands inside the run; otherwise the bounds
// come from binary search.
func serviceRange[T any](items []T, id uint16, key func(T) uint16) []T {
	n := len(items)
	if n == 0 {
		return nil
	}
	lo, hi := key(items[0]), key(items[n-1])
	if id < lo || id > hi {
		return nil
	}

	probe := 0
	if hi > lo {
		probe = int(uint64(id-lo) * uint64(n-1) / uint64(hi-lo))
	}
	if key(items[probe]) == id {
		first, last := probe, probe+1
		for first > 0 && key(items[first-1]) == id {
			first--
		}
		for last < n && key(items[last]) == id {
			last++
		}
		return items[first:last]
	}

	first := sort.Search(n, func(i int) bool { return key(items[i]) >= id })
	last := sort.Search(n, func(i int) bool { return key(items[i]) > id })
	return items[first:last]
}

func serverKey(s *offeredService) uint16 { return s.cfg.ServiceID }
func clientKey(c *consumedService) uint16 { return c.cfg.ServiceID }
