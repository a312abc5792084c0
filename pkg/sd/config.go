package sd

import (
	"fmt"
	"log/slog"
	"net/netip"
	"sync"
	"time"

	"github.com/someip-sd/sd-go/pkg/log"
	"github.com/someip-sd/sd-go/pkg/wire"
)

// Config configures an Engine.
type Config struct {
	// MainFunctionCycle is the period at which Tick is called.
	MainFunctionCycle time.Duration

	// MaxRemoteAddresses bounds the remote SD endpoints tracked per instance.
	MaxRemoteAddresses int

	// MaxSendEntries bounds the entries queued per instance.
	MaxSendEntries int

	// MaxSubscribers bounds the subscribers per event handler.
	MaxSubscribers int

	// MaxRxOptions bounds the options indexed per received message.
	MaxRxOptions int

	Instances []InstanceConfig

	// Logger receives operational logs. Nil disables them.
	Logger *slog.Logger

	// ProtocolLogger receives protocol capture events. Nil disables capture.
	ProtocolLogger log.Logger

	// Locker guards engine state. Defaults to a sync.Mutex.
	Locker sync.Locker
}

// InstanceConfig configures one SD instance.
type InstanceConfig struct {
	Name string

	// HostName is sent as "hostname=" configuration item on Offers and
	// Finds when set.
	HostName string

	UnicastConn   ConnID
	MulticastConn ConnID

	// MulticastAddr is the SD multicast group messages are sent to.
	MulticastAddr netip.AddrPort

	// TxBufferSize is the maximum size of an outgoing SD message.
	TxBufferSize int

	// ConnRetryDelay is how long entries that wait for a TCP connection
	// stay queued before the next attempt.
	ConnRetryDelay time.Duration

	Servers []ServerConfig
	Clients []ClientConfig
}

// ServerTiming holds the timing parameters of an offered service.
type ServerTiming struct {
	InitialDelayMin     time.Duration
	InitialDelayMax     time.Duration
	RepetitionBaseDelay time.Duration
	RepetitionsMax      int

	// OfferCyclicDelay is the period of Offers in the main phase. Zero
	// disables cyclic Offers.
	OfferCyclicDelay time.Duration

	// RequestResponseDelay bounds the random delay of Offers answering a
	// multicast Find.
	RequestResponseMinDelay time.Duration
	RequestResponseMaxDelay time.Duration

	// TTL is announced in Offers, in seconds.
	TTL uint32
}

// ClientTiming holds the timing parameters of a consumed service.
type ClientTiming struct {
	InitialDelayMin     time.Duration
	InitialDelayMax     time.Duration
	RepetitionBaseDelay time.Duration
	RepetitionsMax      int

	// RequestResponseDelay bounds the random delay of Subscribes
	// triggered by a multicast Offer.
	RequestResponseMinDelay time.Duration
	RequestResponseMaxDelay time.Duration

	// TTL is announced in Finds and Subscribes, in seconds.
	TTL uint32

	// SubscribeRetryDelay and SubscribeRetryMax resend unanswered
	// Subscribes with infinite TTL. Zero disables retries.
	SubscribeRetryDelay time.Duration
	SubscribeRetryMax   int
}

// ServerConfig configures an offered service.
type ServerConfig struct {
	Name         string
	ServiceID    uint16
	InstanceID   uint16
	MajorVersion uint8
	MinorVersion uint32

	// AutoAvailable makes the service available at startup.
	AutoAvailable bool

	// Groups lists the service groups the service belongs to.
	Groups []string

	// UDPConn and TCPConn are the service connections. NoConn if unused.
	UDPConn ConnID
	TCPConn ConnID

	// Capabilities are additional configuration option items.
	Capabilities []string

	Timing        ServerTiming
	EventHandlers []EventHandlerConfig
}

// EventHandlerConfig configures an eventgroup of an offered service.
type EventHandlerConfig struct {
	Name         string
	EventgroupID uint16

	// MulticastThreshold is the subscriber count at which delivery
	// switches to multicast. Zero disables multicast.
	MulticastThreshold int
	MulticastAddr      netip.AddrPort

	UDPRouting       RoutingGroupID
	TCPRouting       RoutingGroupID
	MulticastRouting RoutingGroupID
}

// ClientConfig configures a consumed service.
type ClientConfig struct {
	Name string

	ServiceID uint16
	// InstanceID may be wire.InstanceAny to accept any instance.
	InstanceID   uint16
	MajorVersion uint8
	// MinorVersion may be wire.MinorAny.
	MinorVersion uint32

	// AutoRequire requests the service at startup.
	AutoRequire bool
	Groups      []string

	UDPConn ConnID
	TCPConn ConnID

	Capabilities []string

	Timing      ClientTiming
	Eventgroups []EventgroupConfig
}

// EventgroupConfig configures an eventgroup of a consumed service.
type EventgroupConfig struct {
	Name         string
	EventgroupID uint16
	AutoRequire  bool

	// MulticastConns are candidate connections for multicast reception,
	// in order of preference for equally good matches.
	MulticastConns []ConnID

	UDPRouting       RoutingGroupID
	TCPRouting       RoutingGroupID
	MulticastRouting RoutingGroupID
}

func (c *EventgroupConfig) needsUDP() bool { return c.UDPRouting != NoRouting }
func (c *EventgroupConfig) needsTCP() bool { return c.TCPRouting != NoRouting }
func (c *EventgroupConfig) usesMulticast() bool { return len(c.MulticastConns) > 0 }

// DefaultConfig returns a Config with default capacities and no instances.
func DefaultConfig() Config {
	return Config{
		MainFunctionCycle:  10 * time.Millisecond,
		MaxRemoteAddresses: 64,
		MaxSendEntries:     128,
		MaxSubscribers:     16,
		MaxRxOptions:       wire.DefaultMaxOptions,
	}
}

// DefaultInstanceConfig returns an instance on the standard SD port.
func DefaultInstanceConfig(name string, unicast, multicast ConnID) InstanceConfig {
	return InstanceConfig{
		Name:           name,
		UnicastConn:    unicast,
		MulticastConn:  multicast,
		MulticastAddr:  netip.MustParseAddrPort("224.224.224.245:30490"),
		TxBufferSize:   1400,
		ConnRetryDelay: 50 * time.Millisecond,
	}
}

// DefaultServerTiming returns commonly used server timing.
func DefaultServerTiming() ServerTiming {
	return ServerTiming{
		InitialDelayMin:         10 * time.Millisecond,
		InitialDelayMax:         100 * time.Millisecond,
		RepetitionBaseDelay:     30 * time.Millisecond,
		RepetitionsMax:          3,
		OfferCyclicDelay:        1 * time.Second,
		RequestResponseMinDelay: 10 * time.Millisecond,
		RequestResponseMaxDelay: 50 * time.Millisecond,
		TTL:                     3,
	}
}

// DefaultClientTiming returns commonly used client timing.
func DefaultClientTiming() ClientTiming {
	return ClientTiming{
		InitialDelayMin:         10 * time.Millisecond,
		InitialDelayMax:         100 * time.Millisecond,
		RepetitionBaseDelay:     30 * time.Millisecond,
		RepetitionsMax:          3,
		RequestResponseMinDelay: 10 * time.Millisecond,
		RequestResponseMaxDelay: 50 * time.Millisecond,
		TTL:                     3,
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MainFunctionCycle <= 0 {
		return invalid("main function cycle must be positive")
	}
	if c.MaxRemoteAddresses < 1 || c.MaxSendEntries < 1 || c.MaxSubscribers < 1 {
		return invalid("capacities must be positive")
	}
	if len(c.Instances) == 0 {
		return invalid("no instances")
	}

	names := map[string]string{}
	unique := func(kind, name string) error {
		if name == "" {
			return invalid("%s without name", kind)
		}
		if prev, ok := names[kind+"/"+name]; ok {
			return invalid("duplicate %s name %q (%s)", kind, name, prev)
		}
		names[kind+"/"+name] = kind
		return nil
	}
	sdConns := map[ConnID]bool{}

	for i := range c.Instances {
		inst := &c.Instances[i]
		if err := unique("instance", inst.Name); err != nil {
			return err
		}
		for _, id := range []ConnID{inst.UnicastConn, inst.MulticastConn} {
			if id == NoConn || sdConns[id] {
				return invalid("instance %q: SD connection %d unset or reused", inst.Name, id)
			}
			sdConns[id] = true
		}
		if !inst.MulticastAddr.IsValid() || !inst.MulticastAddr.Addr().IsMulticast() {
			return invalid("instance %q: multicast address %s", inst.Name, inst.MulticastAddr)
		}
		if inst.TxBufferSize < wire.MinMessageSize+wire.EntrySize {
			return invalid("instance %q: tx buffer size %d", inst.Name, inst.TxBufferSize)
		}
		if err := validateConfigItem(inst.Name, "hostname="+inst.HostName, inst.HostName != ""); err != nil {
			return err
		}

		offered := map[[2]uint16]bool{}
		for j := range inst.Servers {
			s := &inst.Servers[j]
			if err := unique("server", s.Name); err != nil {
				return err
			}
			if err := s.validate(); err != nil {
				return err
			}
			key := [2]uint16{s.ServiceID, s.InstanceID}
			if s.InstanceID != wire.InstanceAny && offered[key] {
				return invalid("server %q: service 0x%04x instance 0x%04x offered twice", s.Name, s.ServiceID, s.InstanceID)
			}
			offered[key] = true
		}
		for j := range inst.Clients {
			cl := &inst.Clients[j]
			if err := unique("client", cl.Name); err != nil {
				return err
			}
			if err := cl.validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateConfigItem(owner, item string, enabled bool) error {
	if !enabled {
		return nil
	}
	if err := wire.ValidateConfigItem(item); err != nil {
		return invalid("%s: %v", owner, err)
	}
	return nil
}

func (s *ServerConfig) validate() error {
	if s.ServiceID == 0xFFFF || s.MajorVersion == wire.MajorAny {
		return invalid("server %q: wildcard service id or major version", s.Name)
	}
	t := s.Timing
	if t.TTL == 0 || t.TTL > wire.MaxTTL {
		return invalid("server %q: TTL %d", s.Name, t.TTL)
	}
	if t.InitialDelayMin > t.InitialDelayMax || t.RequestResponseMinDelay > t.RequestResponseMaxDelay {
		return invalid("server %q: delay range", s.Name)
	}
	if t.RepetitionsMax < 0 || t.RepetitionsMax > 30 {
		return invalid("server %q: repetitions %d", s.Name, t.RepetitionsMax)
	}
	for _, item := range s.Capabilities {
		if err := validateConfigItem("server "+s.Name, item, true); err != nil {
			return err
		}
	}

	handlers := map[string]bool{}
	groups := map[uint16]bool{}
	for _, h := range s.EventHandlers {
		if h.Name == "" || handlers[h.Name] {
			return invalid("server %q: event handler name %q", s.Name, h.Name)
		}
		if groups[h.EventgroupID] {
			return invalid("server %q: eventgroup 0x%04x configured twice", s.Name, h.EventgroupID)
		}
		handlers[h.Name], groups[h.EventgroupID] = true, true
		if h.MulticastThreshold < 0 {
			return invalid("event handler %q: negative multicast threshold", h.Name)
		}
		if h.MulticastThreshold > 0 {
			if !h.MulticastAddr.IsValid() || !h.MulticastAddr.Addr().IsMulticast() {
				return invalid("event handler %q: multicast address %s", h.Name, h.MulticastAddr)
			}
			if h.MulticastRouting == NoRouting {
				return invalid("event handler %q: multicast without routing group", h.Name)
			}
		}
	}
	return nil
}

func (c *ClientConfig) validate() error {
	if c.ServiceID == 0xFFFF || c.MajorVersion == wire.MajorAny {
		return invalid("client %q: wildcard service id or major version", c.Name)
	}
	t := c.Timing
	if t.TTL == 0 || t.TTL > wire.MaxTTL {
		return invalid("client %q: TTL %d", c.Name, t.TTL)
	}
	if t.InitialDelayMin > t.InitialDelayMax || t.RequestResponseMinDelay > t.RequestResponseMaxDelay {
		return invalid("client %q: delay range", c.Name)
	}
	if t.RepetitionsMax < 0 || t.RepetitionsMax > 30 || t.SubscribeRetryMax < 0 {
		return invalid("client %q: repetition counts", c.Name)
	}
	for _, item := range c.Capabilities {
		if err := validateConfigItem("client "+c.Name, item, true); err != nil {
			return err
		}
	}

	names := map[string]bool{}
	ids := map[uint16]bool{}
	for _, g := range c.Eventgroups {
		if g.Name == "" || names[g.Name] {
			return invalid("client %q: eventgroup name %q", c.Name, g.Name)
		}
		if ids[g.EventgroupID] {
			return invalid("client %q: eventgroup 0x%04x configured twice", c.Name, g.EventgroupID)
		}
		names[g.Name], ids[g.EventgroupID] = true, true
		if g.needsUDP() && c.UDPConn == NoConn {
			return invalid("eventgroup %q: UDP routing without UDP connection", g.Name)
		}
		if g.needsTCP() && c.TCPConn == NoConn {
			return invalid("eventgroup %q: TCP routing without TCP connection", g.Name)
		}
		if g.usesMulticast() && g.MulticastRouting == NoRouting {
			return invalid("eventgroup %q: multicast without routing group", g.Name)
		}
	}
	return nil
}
