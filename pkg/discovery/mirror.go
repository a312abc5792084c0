package discovery

import (
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"

	"github.com/someip-sd/sd-go/pkg/sd"
)

const (
	// ServiceType is the DNS-SD service type of mirrored services.
	ServiceType = "_someip._udp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the SOME/IP SD port announced when a service has none.
	DefaultPort = 30490

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// Service describes an offered service for DNS-SD.
type Service struct {
	// Name is the server name used by the engine.
	Name         string
	ServiceID    uint16
	InstanceID   uint16
	MajorVersion uint8
	MinorVersion uint32
	Port         uint16
}

// InstanceName returns the DNS-SD instance name of s.
func (s Service) InstanceName() string {
	name := fmt.Sprintf("%s-%04x-%04x", s.Name, s.ServiceID, s.InstanceID)
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// ServicesFromConfig lists the servers of cfg for mirroring. The
// instance ids are the configured ones; set MirrorConfig.Lookup to follow
// SetServerInstanceID.
func ServicesFromConfig(cfg sd.Config) []Service {
	var out []Service
	for _, inst := range cfg.Instances {
		for _, s := range inst.Servers {
			out = append(out, Service{
				Name:         s.Name,
				ServiceID:    s.ServiceID,
				InstanceID:   s.InstanceID,
				MajorVersion: s.MajorVersion,
				MinorVersion: s.MinorVersion,
				Port:         inst.MulticastAddr.Port(),
			})
		}
	}
	return out
}

// Registration is an active DNS-SD registration.
type Registration interface {
	Shutdown()
}

// Registrar announces DNS-SD instances.
type Registrar interface {
	Register(instance, service, domain string, port int, txt []string) (Registration, error)
}

// ZeroconfRegistrar registers instances with zeroconf.
type ZeroconfRegistrar struct {
	// Interface restricts announcements to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL of the announced records. Zero uses the zeroconf default.
	TTL time.Duration
}

// Register implements Registrar.
func (r ZeroconfRegistrar) Register(instance, service, domain string, port int, txt []string) (Registration, error) {
	var opts []zeroconf.ServerOption
	if r.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(r.TTL.Seconds())))
	}

	var ifaces []net.Interface
	if r.Interface != "" {
		iface, err := net.InterfaceByName(r.Interface)
		if err != nil {
			return nil, fmt.Errorf("interface %q: %w", r.Interface, err)
		}
		ifaces = []net.Interface{*iface}
	}

	server, err := zeroconf.Register(instance, service, domain, port, txt, ifaces, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", instance, err)
	}
	return server, nil
}

// MirrorConfig configures a Mirror.
type MirrorConfig struct {
	// Registrar announces the services. Defaults to ZeroconfRegistrar{}.
	Registrar Registrar

	// Next receives every mode change after the mirror has seen it.
	Next sd.ModePublisher

	// Logger receives registration failures. Nil disables logging.
	Logger *slog.Logger

	// Lookup, if set, supplies the live instance id of a server before
	// it is registered. Without it the id from the service list is used.
	Lookup InstanceLookup
}

// InstanceLookup returns the instance id a server currently offers.
type InstanceLookup interface {
	ServerInstanceID(name string) (uint16, bool)
}

// EngineLookup adapts an engine to InstanceLookup.
type EngineLookup struct {
	Engine *sd.Engine
}

// ServerInstanceID implements InstanceLookup.
func (l EngineLookup) ServerInstanceID(name string) (uint16, bool) {
	h, ok := l.Engine.Server(name)
	if !ok {
		return 0, false
	}
	id, err := l.Engine.ServerInstanceID(h)
	return id, err == nil
}

// Mirror registers available servers as DNS-SD instances.
type Mirror struct {
	registrar Registrar
	next      sd.ModePublisher
	logger    *slog.Logger
	lookup    InstanceLookup

	mu      sync.Mutex
	entries map[string]*mirrored
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// mirrored is the state of one server. gen counts mode changes; a
// registration that failed is not retried until gen moves on.
type mirrored struct {
	svc       Service
	want      bool
	gen       uint64
	failedGen uint64
	failed    bool
	reg       Registration
}

func (e *mirrored) pending() bool {
	if e.want {
		return e.reg == nil && !(e.failed && e.failedGen == e.gen)
	}
	return e.reg != nil
}

var _ sd.ModePublisher = (*Mirror)(nil)

// NewMirror creates a mirror for services and starts its worker. Servers
// not listed in services are ignored.
func NewMirror(cfg MirrorConfig, services []Service) *Mirror {
	m := &Mirror{
		registrar: cfg.Registrar,
		next:      cfg.Next,
		logger:    cfg.Logger,
		lookup:    cfg.Lookup,
		entries:   make(map[string]*mirrored, len(services)),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	if m.registrar == nil {
		m.registrar = ZeroconfRegistrar{}
	}
	if m.next == nil {
		m.next = sd.NoopModePublisher{}
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	for _, s := range services {
		if s.Port == 0 {
			s.Port = DefaultPort
		}
		m.entries[s.Name] = &mirrored{svc: s}
	}

	go m.run()
	return m
}

// ServerServiceChanged implements sd.ModePublisher.
func (m *Mirror) ServerServiceChanged(name string, mode sd.ServiceMode) {
	m.mu.Lock()
	if e, ok := m.entries[name]; ok && !m.closed {
		e.want = mode == sd.ModeAvailable
		e.gen++
		select {
		case m.wake <- struct{}{}:
		default:
		}
	}
	m.mu.Unlock()

	m.next.ServerServiceChanged(name, mode)
}

// ClientServiceChanged implements sd.ModePublisher.
func (m *Mirror) ClientServiceChanged(name string, mode sd.ServiceMode) {
	m.next.ClientServiceChanged(name, mode)
}

// EventHandlerChanged implements sd.ModePublisher.
func (m *Mirror) EventHandlerChanged(name string, mode sd.EventHandlerMode) {
	m.next.EventHandlerChanged(name, mode)
}

// ConsumedEventgroupChanged implements sd.ModePublisher.
func (m *Mirror) ConsumedEventgroupChanged(name string, mode sd.ServiceMode) {
	m.next.ConsumedEventgroupChanged(name, mode)
}

// Registered reports whether the server name is currently announced.
func (m *Mirror) Registered(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[name]
	return ok && e.reg != nil
}

// Close stops the worker and withdraws every registration.
func (m *Mirror) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for _, e := range m.entries {
		e.want = false
	}
	close(m.wake)
	m.mu.Unlock()

	<-m.done
}

func (m *Mirror) run() {
	defer close(m.done)
	for range m.wake {
		m.sync()
	}
	m.sync()
}

// sync brings the registrations in line with the wanted state. The
// registrar is called without the lock held.
func (m *Mirror) sync() {
	for {
		m.mu.Lock()
		var e *mirrored
		for _, cand := range m.entries {
			if cand.pending() {
				e = cand
				break
			}
		}
		if e == nil {
			m.mu.Unlock()
			return
		}
		svc, up, gen, reg := e.svc, e.want, e.gen, e.reg
		m.mu.Unlock()

		if up {
			m.register(e, svc, gen)
			continue
		}
		reg.Shutdown()
		m.mu.Lock()
		e.reg = nil
		m.mu.Unlock()
		m.logger.Info("dns-sd service withdrawn", "service", svc.Name)
	}
}

func (m *Mirror) register(e *mirrored, s Service, gen uint64) {
	if m.lookup != nil {
		if id, ok := m.lookup.ServerInstanceID(s.Name); ok {
			s.InstanceID = id
		}
	}
	txt := TXTRecordsToStrings(EncodeServiceTXT(s))
	reg, err := m.registrar.Register(s.InstanceName(), ServiceType, Domain, int(s.Port), txt)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		e.failed, e.failedGen = true, gen
		m.logger.Warn("dns-sd registration failed", "service", s.Name, "error", err)
		return
	}
	e.reg = reg
	m.logger.Info("dns-sd service registered", "service", s.Name, "instance", s.InstanceName())
}
