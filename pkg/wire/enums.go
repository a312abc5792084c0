package wire

// EntryType identifies the kind of an SD entry.
type EntryType uint8

const (
	// EntryFindService asks for offers of a service.
	EntryFindService EntryType = 0x00

	// EntryOfferService announces a service. TTL 0 means StopOffer.
	EntryOfferService EntryType = 0x01

	// EntrySubscribeEventgroup requests event delivery. TTL 0 means
	// StopSubscribe.
	EntrySubscribeEventgroup EntryType = 0x06

	// EntrySubscribeEventgroupAck answers a subscription. TTL 0 means Nack.
	EntrySubscribeEventgroupAck EntryType = 0x07
)

// IsServiceEntry reports whether the entry uses the service entry layout
// (trailing minor version). Otherwise the eventgroup layout applies.
func (t EntryType) IsServiceEntry() bool {
	return t&0x04 == 0
}

// String returns the entry type name.
func (t EntryType) String() string {
	switch t {
	case EntryFindService:
		return "FIND_SERVICE"
	case EntryOfferService:
		return "OFFER_SERVICE"
	case EntrySubscribeEventgroup:
		return "SUBSCRIBE_EVENTGROUP"
	case EntrySubscribeEventgroupAck:
		return "SUBSCRIBE_EVENTGROUP_ACK"
	default:
		return "UNKNOWN"
	}
}

// OptionType identifies the kind of an SD option.
type OptionType uint8

const (
	OptionConfiguration  OptionType = 0x01
	OptionLoadBalancing  OptionType = 0x02
	OptionIPv4Endpoint   OptionType = 0x04
	OptionIPv6Endpoint   OptionType = 0x06
	OptionIPv4Multicast  OptionType = 0x14
	OptionIPv6Multicast  OptionType = 0x16
	OptionIPv4SDEndpoint OptionType = 0x24
	OptionIPv6SDEndpoint OptionType = 0x26
)

// IsEndpoint reports whether the option carries an address and port.
func (t OptionType) IsEndpoint() bool {
	switch t {
	case OptionIPv4Endpoint, OptionIPv6Endpoint,
		OptionIPv4Multicast, OptionIPv6Multicast,
		OptionIPv4SDEndpoint, OptionIPv6SDEndpoint:
		return true
	}
	return false
}

// IsIPv6 reports whether an endpoint option type carries an IPv6 address.
func (t OptionType) IsIPv6() bool {
	return t.IsEndpoint() && t&0x0F == 0x06
}

// payloadLen returns the fixed length field value for endpoint options,
// or 0 for variable-size options.
func (t OptionType) payloadLen() int {
	if !t.IsEndpoint() {
		return 0
	}
	if t.IsIPv6() {
		return ipv6EndpointLen
	}
	return ipv4EndpointLen
}

// String returns the option type name.
func (t OptionType) String() string {
	switch t {
	case OptionConfiguration:
		return "CONFIGURATION"
	case OptionLoadBalancing:
		return "LOAD_BALANCING"
	case OptionIPv4Endpoint:
		return "IPV4_ENDPOINT"
	case OptionIPv6Endpoint:
		return "IPV6_ENDPOINT"
	case OptionIPv4Multicast:
		return "IPV4_MULTICAST"
	case OptionIPv6Multicast:
		return "IPV6_MULTICAST"
	case OptionIPv4SDEndpoint:
		return "IPV4_SD_ENDPOINT"
	case OptionIPv6SDEndpoint:
		return "IPV6_SD_ENDPOINT"
	default:
		return "UNKNOWN"
	}
}

// L4Proto is the transport protocol carried in endpoint options.
type L4Proto uint8

const (
	ProtoTCP L4Proto = 0x06
	ProtoUDP L4Proto = 0x11
)

// String returns the protocol name.
func (p L4Proto) String() string {
	switch p {
	case ProtoTCP:
		return "TCP"
	case ProtoUDP:
		return "UDP"
	default:
		return "UNKNOWN"
	}
}

// Flags is the SD header flags byte.
type Flags uint8

const (
	// FlagReboot is set until the sender's session counter wraps for
	// the first time after startup.
	FlagReboot Flags = 0x80

	// FlagUnicast announces that the sender can receive unicast SD messages.
	FlagUnicast Flags = 0x40
)

// Reboot reports whether the reboot flag is set.
func (f Flags) Reboot() bool { return f&FlagReboot != 0 }

// Unicast reports whether the unicast flag is set.
func (f Flags) Unicast() bool { return f&FlagUnicast != 0 }
