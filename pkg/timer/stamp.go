package timer

import (
	"fmt"
	"math"
	"time"
)

// InfiniteTTL is the TTL field value that never expires.
const InfiniteTTL uint32 = 0xFFFFFF

// Stamp is a point in time relative to engine start.
type Stamp struct {
	Sec uint32
	Ms  uint16
}

var (
	// Invalid is the value of an unarmed timer.
	Invalid = Stamp{Sec: math.MaxUint32, Ms: math.MaxUint16}

	// Infinite never elapses.
	Infinite = Stamp{Sec: math.MaxUint32, Ms: math.MaxUint16 - 1}

	// maxFinite is the latest representable real stamp.
	maxFinite = Stamp{Sec: math.MaxUint32 - 1, Ms: 999}
)

// Zero is engine start.
var Zero = Stamp{}

// FromDuration converts an offset from engine start into a stamp.
// Negative offsets clamp to Zero, overlarge ones to the latest real stamp.
func FromDuration(d time.Duration) Stamp {
	if d <= 0 {
		return Zero
	}
	ms := d.Milliseconds()
	sec := ms / 1000
	if sec > int64(maxFinite.Sec) {
		return maxFinite
	}
	return Stamp{Sec: uint32(sec), Ms: uint16(ms % 1000)}
}

// IsValid reports whether the stamp is armed.
func (s Stamp) IsValid() bool {
	return s != Invalid
}

// IsInfinite reports whether the stamp never elapses.
func (s Stamp) IsInfinite() bool {
	return s == Infinite
}

// IsFinite reports whether the stamp is a real point in time.
func (s Stamp) IsFinite() bool {
	return s.IsValid() && !s.IsInfinite()
}

// Duration returns the offset from engine start. It is only meaningful
// for finite stamps.
func (s Stamp) Duration() time.Duration {
	return time.Duration(s.Sec)*time.Second + time.Duration(s.Ms)*time.Millisecond
}

// Add returns s moved forward by d. Sentinels are returned unchanged.
func (s Stamp) Add(d time.Duration) Stamp {
	if !s.IsFinite() {
		return s
	}
	if d <= 0 {
		return s
	}
	if d > maxFinite.Duration()-s.Duration() {
		return maxFinite
	}
	return FromDuration(s.Duration() + d)
}

// AddTTL returns the expiry for an entry received at s with the given TTL
// in seconds. InfiniteTTL yields Infinite, zero yields Invalid.
func (s Stamp) AddTTL(ttl uint32) Stamp {
	switch {
	case ttl == 0:
		return Invalid
	case ttl >= InfiniteTTL:
		return Infinite
	}
	return s.Add(time.Duration(ttl) * time.Second)
}

// Before reports whether s sorts before o. Finite stamps sort before
// Infinite, which sorts before Invalid.
func (s Stamp) Before(o Stamp) bool {
	if s.Sec != o.Sec {
		return s.Sec < o.Sec
	}
	return s.Ms < o.Ms
}

// Expired reports whether a finite deadline s has been reached at now.
func (s Stamp) Expired(now Stamp) bool {
	return s.IsFinite() && !now.Before(s)
}

// Until returns the time left from now until s, zero once elapsed.
// Sentinels report the maximum duration.
func (s Stamp) Until(now Stamp) time.Duration {
	if !s.IsFinite() {
		return time.Duration(math.MaxInt64)
	}
	if !now.Before(s) {
		return 0
	}
	return s.Duration() - now.Duration()
}

// Earliest returns the earlier of a and b.
func Earliest(a, b Stamp) Stamp {
	if b.Before(a) {
		return b
	}
	return a
}

// String returns a human readable form.
func (s Stamp) String() string {
	switch s {
	case Invalid:
		return "invalid"
	case Infinite:
		return "infinite"
	}
	return fmt.Sprintf("%d.%03ds", s.Sec, s.Ms)
}
