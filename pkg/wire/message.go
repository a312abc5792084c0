package wire

import (
	"fmt"
	"net/netip"
)

// SOME/IP header constants used by SD messages.
const (
	MessageID               uint32 = 0xFFFF8100
	ProtocolVersion         uint8  = 0x01
	InterfaceVersion        uint8  = 0x01
	MessageTypeNotification uint8  = 0x02
	ReturnCodeOK            uint8  = 0x00
)

// Sizes of the fixed parts of a message.
const (
	// SomeIPHeaderSize is the size of the SOME/IP header.
	SomeIPHeaderSize = 16

	// MinMessageSize is the size of a message with no entries and no options.
	MinMessageSize = SomeIPHeaderSize + 12

	// EntrySize is the size of every entry.
	EntrySize = 16

	// OptionHeaderSize covers the length and type fields. The length field
	// counts every byte after the type, starting with the reserved byte.
	OptionHeaderSize = 3

	ipv4EndpointLen = 9
	ipv6EndpointLen = 21
)

// Special field values.
const (
	TTLInfinite  uint32 = 0xFFFFFF
	InstanceAny  uint16 = 0xFFFF
	MajorAny     uint8  = 0xFF
	MinorAny     uint32 = 0xFFFFFFFF
	MaxTTL       uint32 = 0xFFFFFF
	MaxRunLength        = 15
	MaxRunIndex         = 255
)

// DefaultMaxOptions bounds the number of options indexed per message.
const DefaultMaxOptions = 64

// Header holds the per-message fields the SD engine varies.
type Header struct {
	SessionID uint16
	Flags     Flags
}

// Entry is a decoded SD entry. Service entries use MinorVersion,
// eventgroup entries use Reserved, Counter and EventgroupID.
type Entry struct {
	Type         EntryType
	Index1       uint8
	Index2       uint8
	Num1         uint8
	Num2         uint8
	ServiceID    uint16
	InstanceID   uint16
	MajorVersion uint8
	TTL          uint32
	MinorVersion uint32

	// Reserved holds the upper 12 bits of the 16-bit field in front of the
	// eventgroup id, Counter the low 4 bits.
	Reserved     uint16
	Counter      uint16
	EventgroupID uint16
}

// IsStop reports whether the entry is the stop variant of its type
// (StopOffer, StopSubscribe or Nack).
func (e Entry) IsStop() bool {
	return e.TTL == 0
}

// String returns a compact description for logs.
func (e Entry) String() string {
	if e.Type.IsServiceEntry() {
		return fmt.Sprintf("%s svc=0x%04x inst=0x%04x maj=%d min=%d ttl=%d",
			e.Type, e.ServiceID, e.InstanceID, e.MajorVersion, e.MinorVersion, e.TTL)
	}
	return fmt.Sprintf("%s svc=0x%04x inst=0x%04x maj=%d eg=0x%04x ttl=%d",
		e.Type, e.ServiceID, e.InstanceID, e.MajorVersion, e.EventgroupID, e.TTL)
}

// Option is a decoded SD option.
type Option struct {
	Type        OptionType
	Discardable bool

	// Endpoint and Proto are set for endpoint options.
	Endpoint netip.AddrPort
	Proto    L4Proto

	// Config holds the DNS-TXT style items of a configuration option.
	Config []string

	// Data is the raw payload of option types without a structured form.
	Data []byte
}

// EndpointOption returns a unicast endpoint option for ep.
func EndpointOption(ep netip.AddrPort, proto L4Proto) Option {
	t := OptionIPv4Endpoint
	if ep.Addr().Unmap().Is6() {
		t = OptionIPv6Endpoint
	}
	return Option{Type: t, Endpoint: ep, Proto: proto}
}

// MulticastOption returns a multicast endpoint option for group.
func MulticastOption(group netip.AddrPort) Option {
	t := OptionIPv4Multicast
	if group.Addr().Unmap().Is6() {
		t = OptionIPv6Multicast
	}
	return Option{Type: t, Endpoint: group, Proto: ProtoUDP}
}

// SDEndpointOption returns an SD endpoint option for ep.
func SDEndpointOption(ep netip.AddrPort) Option {
	t := OptionIPv4SDEndpoint
	if ep.Addr().Unmap().Is6() {
		t = OptionIPv6SDEndpoint
	}
	return Option{Type: t, Endpoint: ep, Proto: ProtoUDP}
}

// ConfigOption returns a configuration option carrying items.
func ConfigOption(items ...string) Option {
	return Option{Type: OptionConfiguration, Config: items}
}

// IsUnicastEndpoint reports whether o is an IPv4 or IPv6 endpoint option.
func (o Option) IsUnicastEndpoint() bool {
	return o.Type == OptionIPv4Endpoint || o.Type == OptionIPv6Endpoint
}

// IsMulticast reports whether o is a multicast endpoint option.
func (o Option) IsMulticast() bool {
	return o.Type == OptionIPv4Multicast || o.Type == OptionIPv6Multicast
}

// IsSDEndpoint reports whether o is an SD endpoint option.
func (o Option) IsSDEndpoint() bool {
	return o.Type == OptionIPv4SDEndpoint || o.Type == OptionIPv6SDEndpoint
}

// ValidateConfigItem checks a configuration option item. An item is
// either "key" or "key=value". The key must be non-empty printable ASCII
// without '='.
func ValidateConfigItem(item string) error {
	if len(item) == 0 || len(item) > 255 {
		return fmt.Errorf("%w: item length %d", ErrInvalidConfigItem, len(item))
	}
	for i := 0; i < len(item); i++ {
		c := item[i]
		if c == '=' {
			if i == 0 {
				return fmt.Errorf("%w: empty key", ErrInvalidConfigItem)
			}
			return nil
		}
		if c < 0x20 || c > 0x7E {
			return fmt.Errorf("%w: key byte 0x%02x", ErrInvalidConfigItem, c)
		}
	}
	return nil
}
