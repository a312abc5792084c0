package config

import (
	"net/netip"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/someip-sd/sd-go/pkg/sd"
)

// File is the YAML form of sd.Config.
type File struct {
	MainFunctionCycle  Duration   `yaml:"main_function_cycle"`
	MaxRemoteAddresses int        `yaml:"max_remote_addresses"`
	MaxSendEntries     int        `yaml:"max_send_entries"`
	MaxSubscribers     int        `yaml:"max_subscribers"`
	MaxRxOptions       int        `yaml:"max_rx_options"`
	Instances          []Instance `yaml:"instances"`
}

// Instance is the YAML form of sd.InstanceConfig.
type Instance struct {
	Name           string         `yaml:"name"`
	HostName       string         `yaml:"host_name"`
	UnicastConn    U16            `yaml:"unicast_conn"`
	MulticastConn  U16            `yaml:"multicast_conn"`
	MulticastAddr  netip.AddrPort `yaml:"multicast_addr"`
	TxBufferSize   int            `yaml:"tx_buffer_size"`
	ConnRetryDelay Duration       `yaml:"conn_retry_delay"`
	Servers        []Server       `yaml:"servers"`
	Clients        []Client       `yaml:"clients"`
}

// Server is the YAML form of sd.ServerConfig.
type Server struct {
	Name          string         `yaml:"name"`
	ServiceID     U16            `yaml:"service_id"`
	InstanceID    U16            `yaml:"instance_id"`
	MajorVersion  U8             `yaml:"major_version"`
	MinorVersion  U32            `yaml:"minor_version"`
	AutoAvailable bool           `yaml:"auto_available"`
	Groups        []string       `yaml:"groups"`
	UDPConn       U16            `yaml:"udp_conn"`
	TCPConn       U16            `yaml:"tcp_conn"`
	Capabilities  []string       `yaml:"capabilities"`
	Timing        ServerTiming   `yaml:"timing"`
	EventHandlers []EventHandler `yaml:"event_handlers"`
}

// ServerTiming is the YAML form of sd.ServerTiming.
type ServerTiming struct {
	InitialDelayMin         Duration `yaml:"initial_delay_min"`
	InitialDelayMax         Duration `yaml:"initial_delay_max"`
	RepetitionBaseDelay     Duration `yaml:"repetition_base_delay"`
	RepetitionsMax          int      `yaml:"repetitions_max"`
	OfferCyclicDelay        Duration `yaml:"offer_cyclic_delay"`
	RequestResponseMinDelay Duration `yaml:"request_response_min_delay"`
	RequestResponseMaxDelay Duration `yaml:"request_response_max_delay"`
	TTL                     U32      `yaml:"ttl"`
}

// EventHandler is the YAML form of sd.EventHandlerConfig.
type EventHandler struct {
	Name               string         `yaml:"name"`
	EventgroupID       U16            `yaml:"eventgroup_id"`
	MulticastThreshold int            `yaml:"multicast_threshold"`
	MulticastAddr      netip.AddrPort `yaml:"multicast_addr"`
	UDPRouting         U16            `yaml:"udp_routing"`
	TCPRouting         U16            `yaml:"tcp_routing"`
	MulticastRouting   U16            `yaml:"multicast_routing"`
}

// Client is the YAML form of sd.ClientConfig.
type Client struct {
	Name         string       `yaml:"name"`
	ServiceID    U16          `yaml:"service_id"`
	InstanceID   U16          `yaml:"instance_id"`
	MajorVersion U8           `yaml:"major_version"`
	MinorVersion U32          `yaml:"minor_version"`
	AutoRequire  bool         `yaml:"auto_require"`
	Groups       []string     `yaml:"groups"`
	UDPConn      U16          `yaml:"udp_conn"`
	TCPConn      U16          `yaml:"tcp_conn"`
	Capabilities []string     `yaml:"capabilities"`
	Timing       ClientTiming `yaml:"timing"`
	Eventgroups  []Eventgroup `yaml:"eventgroups"`
}

// ClientTiming is the YAML form of sd.ClientTiming.
type ClientTiming struct {
	InitialDelayMin         Duration `yaml:"initial_delay_min"`
	InitialDelayMax         Duration `yaml:"initial_delay_max"`
	RepetitionBaseDelay     Duration `yaml:"repetition_base_delay"`
	RepetitionsMax          int      `yaml:"repetitions_max"`
	RequestResponseMinDelay Duration `yaml:"request_response_min_delay"`
	RequestResponseMaxDelay Duration `yaml:"request_response_max_delay"`
	TTL                     U32      `yaml:"ttl"`
	SubscribeRetryDelay     Duration `yaml:"subscribe_retry_delay"`
	SubscribeRetryMax       int      `yaml:"subscribe_retry_max"`
}

// Eventgroup is the YAML form of sd.EventgroupConfig.
type Eventgroup struct {
	Name             string `yaml:"name"`
	EventgroupID     U16    `yaml:"eventgroup_id"`
	AutoRequire      bool   `yaml:"auto_require"`
	MulticastConns   []U16  `yaml:"multicast_conns"`
	UDPRouting       U16    `yaml:"udp_routing"`
	TCPRouting       U16    `yaml:"tcp_routing"`
	MulticastRouting U16    `yaml:"multicast_routing"`
}

// Each UnmarshalYAML fills in the defaults of package sd before decoding
// so omitted keys keep them.

func defaultFile() File {
	d := sd.DefaultConfig()
	return File{
		MainFunctionCycle:  Duration(d.MainFunctionCycle),
		MaxRemoteAddresses: d.MaxRemoteAddresses,
		MaxSendEntries:     d.MaxSendEntries,
		MaxSubscribers:     d.MaxSubscribers,
		MaxRxOptions:       d.MaxRxOptions,
	}
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (i *Instance) UnmarshalYAML(n *yaml.Node) error {
	d := sd.DefaultInstanceConfig("", sd.NoConn, sd.NoConn)
	type plain Instance
	p := plain{
		UnicastConn:    U16(sd.NoConn),
		MulticastConn:  U16(sd.NoConn),
		MulticastAddr:  d.MulticastAddr,
		TxBufferSize:   d.TxBufferSize,
		ConnRetryDelay: Duration(d.ConnRetryDelay),
	}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*i = Instance(p)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Server) UnmarshalYAML(n *yaml.Node) error {
	t := sd.DefaultServerTiming()
	type plain Server
	p := plain{
		UDPConn: U16(sd.NoConn),
		TCPConn: U16(sd.NoConn),
		Timing: ServerTiming{
			InitialDelayMin:         Duration(t.InitialDelayMin),
			InitialDelayMax:         Duration(t.InitialDelayMax),
			RepetitionBaseDelay:     Duration(t.RepetitionBaseDelay),
			RepetitionsMax:          t.RepetitionsMax,
			OfferCyclicDelay:        Duration(t.OfferCyclicDelay),
			RequestResponseMinDelay: Duration(t.RequestResponseMinDelay),
			RequestResponseMaxDelay: Duration(t.RequestResponseMaxDelay),
			TTL:                     U32(t.TTL),
		},
	}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*s = Server(p)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *EventHandler) UnmarshalYAML(n *yaml.Node) error {
	type plain EventHandler
	p := plain{
		UDPRouting:       U16(sd.NoRouting),
		TCPRouting:       U16(sd.NoRouting),
		MulticastRouting: U16(sd.NoRouting),
	}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*h = EventHandler(p)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *Client) UnmarshalYAML(n *yaml.Node) error {
	t := sd.DefaultClientTiming()
	type plain Client
	p := plain{
		MinorVersion: U32(0xFFFFFFFF),
		UDPConn:      U16(sd.NoConn),
		TCPConn:      U16(sd.NoConn),
		Timing: ClientTiming{
			InitialDelayMin:         Duration(t.InitialDelayMin),
			InitialDelayMax:         Duration(t.InitialDelayMax),
			RepetitionBaseDelay:     Duration(t.RepetitionBaseDelay),
			RepetitionsMax:          t.RepetitionsMax,
			RequestResponseMinDelay: Duration(t.RequestResponseMinDelay),
			RequestResponseMaxDelay: Duration(t.RequestResponseMaxDelay),
			TTL:                     U32(t.TTL),
		},
	}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*c = Client(p)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (g *Eventgroup) UnmarshalYAML(n *yaml.Node) error {
	type plain Eventgroup
	p := plain{
		UDPRouting:       U16(sd.NoRouting),
		TCPRouting:       U16(sd.NoRouting),
		MulticastRouting: U16(sd.NoRouting),
	}
	if err := n.Decode(&p); err != nil {
		return err
	}
	*g = Eventgroup(p)
	return nil
}

// config converts the file into an engine configuration.
func (f *File) config() sd.Config {
	cfg := sd.DefaultConfig()
	cfg.MainFunctionCycle = time.Duration(f.MainFunctionCycle)
	cfg.MaxRemoteAddresses = f.MaxRemoteAddresses
	cfg.MaxSendEntries = f.MaxSendEntries
	cfg.MaxSubscribers = f.MaxSubscribers
	cfg.MaxRxOptions = f.MaxRxOptions

	for _, fi := range f.Instances {
		ic := sd.InstanceConfig{
			Name:           fi.Name,
			HostName:       fi.HostName,
			UnicastConn:    sd.ConnID(fi.UnicastConn),
			MulticastConn:  sd.ConnID(fi.MulticastConn),
			MulticastAddr:  fi.MulticastAddr,
			TxBufferSize:   fi.TxBufferSize,
			ConnRetryDelay: time.Duration(fi.ConnRetryDelay),
		}
		for _, s := range fi.Servers {
			ic.Servers = append(ic.Servers, s.config())
		}
		for _, c := range fi.Clients {
			ic.Clients = append(ic.Clients, c.config())
		}
		cfg.Instances = append(cfg.Instances, ic)
	}
	return cfg
}

func (s *Server) config() sd.ServerConfig {
	t := s.Timing
	sc := sd.ServerConfig{
		Name:          s.Name,
		ServiceID:     uint16(s.ServiceID),
		InstanceID:    uint16(s.InstanceID),
		MajorVersion:  uint8(s.MajorVersion),
		MinorVersion:  uint32(s.MinorVersion),
		AutoAvailable: s.AutoAvailable,
		Groups:        s.Groups,
		UDPConn:       sd.ConnID(s.UDPConn),
		TCPConn:       sd.ConnID(s.TCPConn),
		Capabilities:  s.Capabilities,
		Timing: sd.ServerTiming{
			InitialDelayMin:         time.Duration(t.InitialDelayMin),
			InitialDelayMax:         time.Duration(t.InitialDelayMax),
			RepetitionBaseDelay:     time.Duration(t.RepetitionBaseDelay),
			RepetitionsMax:          t.RepetitionsMax,
			OfferCyclicDelay:        time.Duration(t.OfferCyclicDelay),
			RequestResponseMinDelay: time.Duration(t.RequestResponseMinDelay),
			RequestResponseMaxDelay: time.Duration(t.RequestResponseMaxDelay),
			TTL:                     uint32(t.TTL),
		},
	}
	for _, h := range s.EventHandlers {
		sc.EventHandlers = append(sc.EventHandlers, sd.EventHandlerConfig{
			Name:               h.Name,
			EventgroupID:       uint16(h.EventgroupID),
			MulticastThreshold: h.MulticastThreshold,
			MulticastAddr:      h.MulticastAddr,
			UDPRouting:         sd.RoutingGroupID(h.UDPRouting),
			TCPRouting:         sd.RoutingGroupID(h.TCPRouting),
			MulticastRouting:   sd.RoutingGroupID(h.MulticastRouting),
		})
	}
	return sc
}

func (c *Client) config() sd.ClientConfig {
	t := c.Timing
	cc := sd.ClientConfig{
		Name:         c.Name,
		ServiceID:    uint16(c.ServiceID),
		InstanceID:   uint16(c.InstanceID),
		MajorVersion: uint8(c.MajorVersion),
		MinorVersion: uint32(c.MinorVersion),
		AutoRequire:  c.AutoRequire,
		Groups:       c.Groups,
		UDPConn:      sd.ConnID(c.UDPConn),
		TCPConn:      sd.ConnID(c.TCPConn),
		Capabilities: c.Capabilities,
		Timing: sd.ClientTiming{
			InitialDelayMin:         time.Duration(t.InitialDelayMin),
			InitialDelayMax:         time.Duration(t.InitialDelayMax),
			RepetitionBaseDelay:     time.Duration(t.RepetitionBaseDelay),
			RepetitionsMax:          t.RepetitionsMax,
			RequestResponseMinDelay: time.Duration(t.RequestResponseMinDelay),
			RequestResponseMaxDelay: time.Duration(t.RequestResponseMaxDelay),
			TTL:                     uint32(t.TTL),
			SubscribeRetryDelay:     time.Duration(t.SubscribeRetryDelay),
			SubscribeRetryMax:       t.SubscribeRetryMax,
		},
	}
	for _, g := range c.Eventgroups {
		ec := sd.EventgroupConfig{
			Name:             g.Name,
			EventgroupID:     uint16(g.EventgroupID),
			AutoRequire:      g.AutoRequire,
			UDPRouting:       sd.RoutingGroupID(g.UDPRouting),
			TCPRouting:       sd.RoutingGroupID(g.TCPRouting),
			MulticastRouting: sd.RoutingGroupID(g.MulticastRouting),
		}
		for _, conn := range g.MulticastConns {
			ec.MulticastConns = append(ec.MulticastConns, sd.ConnID(conn))
		}
		cc.Eventgroups = append(cc.Eventgroups, ec)
	}
	return cc
}
