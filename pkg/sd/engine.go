package sd

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/someip-sd/sd-go/pkg/log"
	"github.com/someip-sd/sd-go/pkg/registry"
	"github.com/someip-sd/sd-go/pkg/sendqueue"
	"github.com/someip-sd/sd-go/pkg/slotmap"
	"github.com/someip-sd/sd-go/pkg/timer"
	"github.com/someip-sd/sd-go/pkg/wire"
)

// maxPasses bounds how often an instance re-runs entities that were
// requested by other entities during the same tick.
const maxPasses = 4

type sdConn struct {
	inst    *instance
	channel registry.Channel
}

// Engine runs the SD state machines of all configured instances.
//
// All methods are safe for concurrent use. Tick must be called every
// MainFunctionCycle; Receive and the state setters may be called at any
// time in between.
type Engine struct {
	mu      sync.Locker
	cfg     Config
	logger  *slog.Logger
	plog    log.Logger
	traceID string

	transport Transport
	modes     ModePublisher
	diag      DiagnosticSink
	rnd       RandomSource
	clock     Clock
	ticks     tickClock

	findValidator      FindValidator
	offerValidator     OfferValidator
	subscribeValidator SubscribeValidator

	now     timer.Stamp
	ticking atomic.Bool
	closed  bool

	instances   []*instance
	servers     []*offeredService
	handlers    []*eventHandler
	clients     []*consumedService
	eventgroups []*consumedEventgroup

	sdConns   map[ConnID]sdConn
	connModes map[ConnID]ConnMode

	meas     [measKindCount]uint32
	rxSerial uint64
}

// New validates cfg and creates an engine. Every instance starts down
// until its unicast address is reported assigned.
func New(cfg Config, deps Dependencies) (*Engine, error) {
	if deps.Transport == nil {
		return nil, ErrMissingTransport
	}
	cfg = cloneConfig(cfg)
	if cfg.MaxRxOptions <= 0 {
		cfg.MaxRxOptions = wire.DefaultMaxOptions
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		mu:                 cfg.Locker,
		cfg:                cfg,
		logger:             cfg.Logger,
		plog:               log.OrNoop(cfg.ProtocolLogger),
		traceID:            uuid.NewString(),
		transport:          deps.Transport,
		modes:              deps.Modes,
		diag:               deps.Diagnostics,
		rnd:                deps.Random,
		clock:              deps.Clock,
		ticks:              tickClock{cycle: cfg.MainFunctionCycle},
		findValidator:      deps.FindValidator,
		offerValidator:     deps.OfferValidator,
		subscribeValidator: deps.SubscribeValidator,
		now:                timer.Zero,
		sdConns:            make(map[ConnID]sdConn),
		connModes:          make(map[ConnID]ConnMode),
	}
	if e.mu == nil {
		e.mu = &sync.Mutex{}
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	if e.modes == nil {
		e.modes = NoopModePublisher{}
	}
	if e.diag == nil {
		e.diag = NoopDiagnostics{}
	}
	if e.rnd == nil {
		e.rnd = defaultRandom{}
	}

	for i := range e.cfg.Instances {
		e.addInstance(&e.cfg.Instances[i])
	}

	e.logger.Info("sd engine created",
		"trace_id", e.traceID,
		"instances", len(e.instances),
		"servers", len(e.servers),
		"clients", len(e.clients))
	return e, nil
}

func (e *Engine) addInstance(ic *InstanceConfig) {
	inst := &instance{
		handle:        InstanceHandle(len(e.instances)),
		cfg:           ic,
		peers:         registry.New(e.cfg.MaxRemoteAddresses),
		queue:         sendqueue.New[outEntry](e.cfg.MaxSendEntries),
		multicastDest: registry.Handle{},
	}
	e.instances = append(e.instances, inst)
	e.sdConns[ic.UnicastConn] = sdConn{inst: inst, channel: registry.ChannelUnicast}
	e.sdConns[ic.MulticastConn] = sdConn{inst: inst, channel: registry.ChannelMulticast}

	for j := range ic.Servers {
		sc := &ic.Servers[j]
		s := &offeredService{
			sched:      sched{wake: timer.Invalid},
			handle:     ServerHandle(len(e.servers)),
			cfg:        sc,
			inst:       inst,
			instanceID: sc.InstanceID,
			timer:      timer.Invalid,
		}
		if sc.AutoAvailable {
			s.desired = ServerAvailable
		}
		e.servers = append(e.servers, s)
		inst.servers = append(inst.servers, s)

		for k := range sc.EventHandlers {
			h := &eventHandler{
				sched:  sched{wake: timer.Invalid},
				handle: EventHandlerHandle(len(e.handlers)),
				cfg:    &sc.EventHandlers[k],
				server: s,
				subs:   slotmap.New[subscriber](e.cfg.MaxSubscribers),
			}
			e.handlers = append(e.handlers, h)
			inst.handlers = append(inst.handlers, h)
			s.handlers = append(s.handlers, h)
		}
	}

	for j := range ic.Clients {
		cc := &ic.Clients[j]
		c := &consumedService{
			sched:      sched{wake: timer.Invalid},
			handle:     ClientHandle(len(e.clients)),
			cfg:        cc,
			inst:       inst,
			instanceID: cc.InstanceID,
			timer:      timer.Invalid,
			ttl:        timer.Invalid,
		}
		if cc.AutoRequire {
			c.desired = ClientRequested
		}
		e.clients = append(e.clients, c)
		inst.clients = append(inst.clients, c)

		for k := range cc.Eventgroups {
			gc := &cc.Eventgroups[k]
			g := &consumedEventgroup{
				sched:   sched{wake: timer.Invalid},
				handle:  EventgroupHandle(len(e.eventgroups)),
				cfg:     gc,
				client:  c,
				ttl:     timer.Invalid,
				retryAt: timer.Invalid,
				mcConn:  NoConn,
			}
			if gc.AutoRequire {
				g.desired = EventgroupRequested
			}
			e.eventgroups = append(e.eventgroups, g)
			inst.eventgroups = append(inst.eventgroups, g)
			c.eventgroups = append(c.eventgroups, g)
		}
	}

	slices.SortStableFunc(inst.servers, func(a, b *offeredService) int {
		return cmp.Compare(a.cfg.ServiceID, b.cfg.ServiceID)
	})
	slices.SortStableFunc(inst.clients, func(a, b *consumedService) int {
		return cmp.Compare(a.cfg.ServiceID, b.cfg.ServiceID)
	})

	for _, c := range inst.clients {
		e.request(inst, clientRef(c))
	}
}

// cloneConfig copies every slice of cfg so the engine never shares
// memory with the caller.
func cloneConfig(cfg Config) Config {
	cfg.Instances = slices.Clone(cfg.Instances)
	for i := range cfg.Instances {
		ic := &cfg.Instances[i]
		ic.Servers = slices.Clone(ic.Servers)
		for j := range ic.Servers {
			sc := &ic.Servers[j]
			sc.Groups = slices.Clone(sc.Groups)
			sc.Capabilities = slices.Clone(sc.Capabilities)
			sc.EventHandlers = slices.Clone(sc.EventHandlers)
		}
		ic.Clients = slices.Clone(ic.Clients)
		for j := range ic.Clients {
			cc := &ic.Clients[j]
			cc.Groups = slices.Clone(cc.Groups)
			cc.Capabilities = slices.Clone(cc.Capabilities)
			cc.Eventgroups = slices.Clone(cc.Eventgroups)
			for k := range cc.Eventgroups {
				cc.Eventgroups[k].MulticastConns = slices.Clone(cc.Eventgroups[k].MulticastConns)
			}
		}
	}
	return cfg
}

func serverRef(s *offeredService) entityRef { return entityRef{kind: kindServer, idx: int(s.handle)} }
func handlerRef(h *eventHandler) entityRef { return entityRef{kind: kindHandler, idx: int(h.handle)} }
func clientRef(c *consumedService) entityRef { return entityRef{kind: kindClient, idx: int(c.handle)} }
func groupRef(g *consumedEventgroup) entityRef { return entityRef{kind: kindEventgroup, idx: int(g.handle)} }

// TraceID returns the id stamped on every protocol capture event.
func (e *Engine) TraceID() string {
	return e.traceID
}

// Tick advances time by one main function cycle, runs every due state
// machine and transmits the queued entries that are due.
//
// Transport.Send is called without the engine lock held. A Tick issued
// while another Tick is still running returns immediately.
func (e *Engine) Tick() {
	if !e.ticking.CompareAndSwap(false, true) {
		return
	}
	defer e.ticking.Store(false)

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.advanceClock()
	var batches []*batch
	for _, inst := range e.instances {
		e.runInstance(inst)
		batches = append(batches, e.buildBatches(inst)...)
	}
	e.mu.Unlock()

	if len(batches) == 0 {
		return
	}
	e.sendBatches(batches)

	e.mu.Lock()
	e.commitBatches(batches)
	e.mu.Unlock()
}

func (e *Engine) advanceClock() {
	var elapsed time.Duration
	if e.clock != nil {
		elapsed = e.clock.Elapsed()
	} else {
		elapsed = e.ticks.advance()
	}
	if now := timer.FromDuration(elapsed); e.now.Before(now) {
		e.now = now
	}
}

// NextWake returns how long the engine may sleep before the next Tick
// has work to do. It returns a negative duration if nothing is pending.
func (e *Engine) NextWake() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	next := timer.Invalid
	for _, inst := range e.instances {
		next = timer.Earliest(next, e.nextWake(inst))
	}
	if !next.IsFinite() {
		return -1
	}
	return next.Until(e.now)
}

// Shutdown takes every instance down without sending StopOffer entries
// and detaches the engine from the transport. Further calls return
// ErrNotInitialized.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrNotInitialized
	}
	for _, inst := range e.instances {
		inst.addrAssigned = false
		e.instanceDown(inst, "shutdown")
		e.runInstance(inst)
	}
	e.closed = true
	e.logger.Info("sd engine shut down", "trace_id", e.traceID)
	return nil
}

// SetServerServiceState requests a server to be offered or withdrawn.
func (e *Engine) SetServerServiceState(h ServerHandle, state ServerServiceState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.server(h)
	if err != nil {
		return err
	}
	if state > ServerAvailable {
		return ErrInvalidState
	}
	if s.desired != state {
		s.desired = state
		e.request(s.inst, serverRef(s))
	}
	return nil
}

// SetClientServiceState requests or releases a consumed service.
func (e *Engine) SetClientServiceState(h ClientHandle, state ClientServiceState) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.client(h)
	if err != nil {
		return err
	}
	if state > ClientRequested {
		return ErrInvalidState
	}
	if c.desired != state {
		c.desired = state
		e.request(c.inst, clientRef(c))
	}
	return nil
}

// SetConsumedEventgroupState requests or releases a consumed eventgroup.
// A requested eventgroup subscribes once its client is ready.
func (e *Engine) SetConsumedEventgroupState(h EventgroupHandle, state EventgroupRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.eventgroup(h)
	if err != nil {
		return err
	}
	if state > EventgroupRequested {
		return ErrInvalidState
	}
	if g.desired == state {
		return nil
	}
	g.desired = state
	if state == EventgroupRequested {
		g.trigger = triggerRequest
	}
	e.request(g.client.inst, groupRef(g))
	return nil
}

// SetServerInstanceID changes the instance id a server offers. The server
// must not be offered.
func (e *Engine) SetServerInstanceID(h ServerHandle, id uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.server(h)
	if err != nil {
		return err
	}
	if s.phase != PhaseNotReady {
		return ErrWrongState
	}
	s.instanceID = id
	e.request(s.inst, serverRef(s))
	return nil
}

// SetClientInstanceID changes the instance id a client looks for. The
// client must be released and have no service bound.
func (e *Engine) SetClientInstanceID(h ClientHandle, id uint16) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.client(h)
	if err != nil {
		return err
	}
	if c.desired != ClientReleased || (c.phase != ClientInit && c.phase != ClientNotRequestedNotSeen && c.phase != ClientNotRequestedSeen) {
		return ErrWrongState
	}
	if c.instanceID != id {
		e.forgetOffer(c)
		c.instanceID = id
		e.setClientPhase(c, ClientNotRequestedNotSeen, "instance id changed")
	}
	return nil
}

// StartGroup offers every server and requests every client that belongs
// to group.
func (e *Engine) StartGroup(group string) error {
	return e.setGroup(group, true)
}

// StopGroup withdraws every server and releases every client that
// belongs to group.
func (e *Engine) StopGroup(group string) error {
	return e.setGroup(group, false)
}

func (e *Engine) setGroup(group string, on bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrNotInitialized
	}

	found := false
	for _, s := range e.servers {
		if !slices.Contains(s.cfg.Groups, group) {
			continue
		}
		found = true
		want := ServerDown
		if on {
			want = ServerAvailable
		}
		if s.desired != want {
			s.desired = want
			e.request(s.inst, serverRef(s))
		}
	}
	for _, c := range e.clients {
		if !slices.Contains(c.cfg.Groups, group) {
			continue
		}
		found = true
		want := ClientReleased
		if on {
			want = ClientRequested
		}
		if c.desired != want {
			c.desired = want
			e.request(c.inst, clientRef(c))
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, group)
	}
	return nil
}

// GetAndResetMeasurementData returns a counter and resets it. MeasAll
// resets every counter and returns zero.
func (e *Engine) GetAndResetMeasurementData(kind MeasurementKind) (uint32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if kind == MeasAll {
		e.meas = [measKindCount]uint32{}
		return 0, nil
	}
	if kind >= measKindCount {
		return 0, ErrInvalidMeasurement
	}
	v := e.meas[kind]
	e.meas[kind] = 0
	return v, nil
}

func (e *Engine) count(kind MeasurementKind) {
	if e.meas[kind] < ^uint32(0) {
		e.meas[kind]++
	}
}

// Server returns the handle of the server named name.
func (e *Engine) Server(name string) (ServerHandle, bool) {
	for _, s := range e.servers {
		if s.cfg.Name == name {
			return s.handle, true
		}
	}
	return -1, false
}

// EventHandler returns the handle of an event handler of server.
func (e *Engine) EventHandler(server ServerHandle, name string) (EventHandlerHandle, bool) {
	s, err := e.server(server)
	if err != nil {
		return -1, false
	}
	for _, h := range s.handlers {
		if h.cfg.Name == name {
			return h.handle, true
		}
	}
	return -1, false
}

// Client returns the handle of the client named name.
func (e *Engine) Client(name string) (ClientHandle, bool) {
	for _, c := range e.clients {
		if c.cfg.Name == name {
			return c.handle, true
		}
	}
	return -1, false
}

// Eventgroup returns the handle of a consumed eventgroup of client.
func (e *Engine) Eventgroup(client ClientHandle, name string) (EventgroupHandle, bool) {
	c, err := e.client(client)
	if err != nil {
		return -1, false
	}
	for _, g := range c.eventgroups {
		if g.cfg.Name == name {
			return g.handle, true
		}
	}
	return -1, false
}

// Instance returns the handle of the instance named name.
func (e *Engine) Instance(name string) (InstanceHandle, bool) {
	for _, inst := range e.instances {
		if inst.cfg.Name == name {
			return inst.handle, true
		}
	}
	return -1, false
}

// InstanceState returns the state of an instance.
func (e *Engine) InstanceState(h InstanceHandle) (InstanceState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if int(h) < 0 || int(h) >= len(e.instances) {
		return 0, ErrInvalidHandle
	}
	return e.instances[h].state, nil
}

// ServerState returns the offer phase of a server.
func (e *Engine) ServerState(h ServerHandle) (ServerPhase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.server(h)
	if err != nil {
		return 0, err
	}
	return s.phase, nil
}

// EventHandlerState returns the subscription state of an event handler.
func (e *Engine) EventHandlerState(h EventHandlerHandle) (HandlerState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	eh, err := e.handler(h)
	if err != nil {
		return 0, err
	}
	return eh.state, nil
}

// ServerInstanceID returns the instance id a server currently offers.
func (e *Engine) ServerInstanceID(h ServerHandle) (uint16, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.server(h)
	if err != nil {
		return 0, err
	}
	return s.instanceID, nil
}

// SubscriberCount returns the number of subscribers of an event handler.
func (e *Engine) SubscriberCount(h EventHandlerHandle) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	eh, err := e.handler(h)
	if err != nil {
		return 0, err
	}
	return eh.subs.Len(), nil
}

// ClientState returns the discovery phase of a client.
func (e *Engine) ClientState(h ClientHandle) (ClientPhase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, err := e.client(h)
	if err != nil {
		return 0, err
	}
	return c.phase, nil
}

// EventgroupState returns the subscription phase of a consumed
// eventgroup.
func (e *Engine) EventgroupState(h EventgroupHandle) (EventgroupPhase, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.eventgroup(h)
	if err != nil {
		return 0, err
	}
	return g.phase, nil
}

func (e *Engine) server(h ServerHandle) (*offeredService, error) {
	if e.closed {
		return nil, ErrNotInitialized
	}
	if int(h) < 0 || int(h) >= len(e.servers) {
		return nil, ErrInvalidHandle
	}
	return e.servers[h], nil
}

func (e *Engine) handler(h EventHandlerHandle) (*eventHandler, error) {
	if e.closed {
		return nil, ErrNotInitialized
	}
	if int(h) < 0 || int(h) >= len(e.handlers) {
		return nil, ErrInvalidHandle
	}
	return e.handlers[h], nil
}

func (e *Engine) client(h ClientHandle) (*consumedService, error) {
	if e.closed {
		return nil, ErrNotInitialized
	}
	if int(h) < 0 || int(h) >= len(e.clients) {
		return nil, ErrInvalidHandle
	}
	return e.clients[h], nil
}

func (e *Engine) eventgroup(h EventgroupHandle) (*consumedEventgroup, error) {
	if e.closed {
		return nil, ErrNotInitialized
	}
	if int(h) < 0 || int(h) >= len(e.eventgroups) {
		return nil, ErrInvalidHandle
	}
	return e.eventgroups[h], nil
}

// runEntity dispatches one scheduled state machine.
func (e *Engine) runEntity(ref entityRef) {
	switch ref.kind {
	case kindServer:
		e.runServer(e.servers[ref.idx])
	case kindHandler:
		e.runHandler(e.handlers[ref.idx])
	case kindClient:
		e.runClient(e.clients[ref.idx])
	case kindEventgroup:
		e.runEventgroup(e.eventgroups[ref.idx])
	}
}

func (e *Engine) randDelay(lo, hi time.Duration) time.Duration {
	ms := e.rnd.Intn(uint32(lo.Milliseconds()), uint32(hi.Milliseconds()))
	return time.Duration(ms) * time.Millisecond
}
