package sd

// Handles are indices into the engine's configuration-ordered arenas.
// They are stable for the lifetime of the engine.
type (
	InstanceHandle     int
	ServerHandle       int
	EventHandlerHandle int
	ClientHandle       int
	EventgroupHandle   int
)

// ConnID identifies a transport connection.
type ConnID uint16

// NoConn marks an unused connection slot.
const NoConn ConnID = 0xFFFF

// RoutingGroupID identifies a transport routing group.
type RoutingGroupID uint16

// NoRouting marks an unused routing group slot.
const NoRouting RoutingGroupID = 0xFFFF

// ServerServiceState is the state requested for an offered service.
type ServerServiceState uint8

const (
	ServerDown ServerServiceState = iota
	ServerAvailable
)

// String returns the state name.
func (s ServerServiceState) String() string {
	switch s {
	case ServerDown:
		return "DOWN"
	case ServerAvailable:
		return "AVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// ClientServiceState is the state requested for a consumed service.
type ClientServiceState uint8

const (
	ClientReleased ClientServiceState = iota
	ClientRequested
)

// String returns the state name.
func (s ClientServiceState) String() string {
	switch s {
	case ClientReleased:
		return "RELEASED"
	case ClientRequested:
		return "REQUESTED"
	default:
		return "UNKNOWN"
	}
}

// EventgroupRequest is the state requested for a consumed eventgroup.
type EventgroupRequest uint8

const (
	EventgroupReleased EventgroupRequest = iota
	EventgroupRequested
)

// String returns the state name.
func (s EventgroupRequest) String() string {
	switch s {
	case EventgroupReleased:
		return "RELEASED"
	case EventgroupRequested:
		return "REQUESTED"
	default:
		return "UNKNOWN"
	}
}

// ServiceMode is the availability published for services and eventgroups.
type ServiceMode uint8

const (
	ModeDown ServiceMode = iota
	ModeAvailable
)

// String returns the mode name.
func (m ServiceMode) String() string {
	switch m {
	case ModeDown:
		return "DOWN"
	case ModeAvailable:
		return "AVAILABLE"
	default:
		return "UNKNOWN"
	}
}

// EventHandlerMode is published for event handlers: Requested while at
// least one subscriber exists.
type EventHandlerMode uint8

const (
	EventHandlerReleased EventHandlerMode = iota
	EventHandlerRequested
)

// String returns the mode name.
func (m EventHandlerMode) String() string {
	switch m {
	case EventHandlerReleased:
		return "RELEASED"
	case EventHandlerRequested:
		return "REQUESTED"
	default:
		return "UNKNOWN"
	}
}

// ConnMode is the connection state reported by the transport.
type ConnMode uint8

const (
	ConnOffline ConnMode = iota
	ConnReconnecting
	ConnOnline
)

// String returns the mode name.
func (m ConnMode) String() string {
	switch m {
	case ConnOffline:
		return "OFFLINE"
	case ConnReconnecting:
		return "RECONNECTING"
	case ConnOnline:
		return "ONLINE"
	default:
		return "UNKNOWN"
	}
}

// InstanceState is the lifecycle state of an SD instance.
type InstanceState uint8

const (
	// InstanceDown means no IP address is assigned.
	InstanceDown InstanceState = iota
	// InstanceUp means an address is assigned but the SD connections are
	// not open yet.
	InstanceUp
	// InstanceConfigured means the instance can send and receive.
	InstanceConfigured
)

// String returns the state name.
func (s InstanceState) String() string {
	switch s {
	case InstanceDown:
		return "DOWN"
	case InstanceUp:
		return "UP"
	case InstanceConfigured:
		return "CONFIGURED"
	default:
		return "UNKNOWN"
	}
}

// ServerPhase is the state of an offered service.
type ServerPhase uint8

const (
	PhaseNotReady ServerPhase = iota
	PhaseInitialWait
	PhaseRepetition
	PhaseMain
)

// String returns the phase name.
func (p ServerPhase) String() string {
	switch p {
	case PhaseNotReady:
		return "NOT_READY"
	case PhaseInitialWait:
		return "INITIAL_WAIT"
	case PhaseRepetition:
		return "REPETITION"
	case PhaseMain:
		return "MAIN"
	default:
		return "UNKNOWN"
	}
}

// offering reports whether the service is announced on the network.
func (p ServerPhase) offering() bool {
	return p == PhaseRepetition || p == PhaseMain
}

// HandlerState is the state of an event handler.
type HandlerState uint8

const (
	HandlerServiceDown HandlerState = iota
	HandlerNotSubscribed
	HandlerUnicast
	HandlerMulticast
)

// String returns the state name.
func (s HandlerState) String() string {
	switch s {
	case HandlerServiceDown:
		return "SERVICE_DOWN"
	case HandlerNotSubscribed:
		return "NOT_SUBSCRIBED"
	case HandlerUnicast:
		return "UNICAST"
	case HandlerMulticast:
		return "MULTICAST"
	default:
		return "UNKNOWN"
	}
}

// ClientPhase is the state of a consumed service.
type ClientPhase uint8

const (
	ClientInit ClientPhase = iota
	ClientNotRequestedNotSeen
	ClientNotRequestedSeen
	ClientRequestedNotReady
	ClientSearchingInitialWait
	ClientSearchingRepetition
	ClientServiceReady
	ClientStopped
)

// String returns the phase name.
func (p ClientPhase) String() string {
	switch p {
	case ClientInit:
		return "INIT"
	case ClientNotRequestedNotSeen:
		return "NOT_REQUESTED_NOT_SEEN"
	case ClientNotRequestedSeen:
		return "NOT_REQUESTED_SEEN"
	case ClientRequestedNotReady:
		return "REQUESTED_BUT_NOT_READY"
	case ClientSearchingInitialWait:
		return "SEARCHING_INITIAL_WAIT"
	case ClientSearchingRepetition:
		return "SEARCHING_REPETITION"
	case ClientServiceReady:
		return "SERVICE_READY"
	case ClientStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// EventgroupPhase is the state of a consumed eventgroup.
type EventgroupPhase uint8

const (
	EventgroupUnsubscribed EventgroupPhase = iota
	EventgroupUnsubscribedAfterMultiOfferNack
	EventgroupRegistrationSent
	EventgroupRegistrationSentMultiOffer
	EventgroupRegistrationSentReconfigure
	EventgroupSubscribed
)

// String returns the phase name.
func (p EventgroupPhase) String() string {
	switch p {
	case EventgroupUnsubscribed:
		return "UNSUBSCRIBED"
	case EventgroupUnsubscribedAfterMultiOfferNack:
		return "UNSUBSCRIBED_AFTER_MULTI_OFFER_NACK"
	case EventgroupRegistrationSent:
		return "REGISTRATION_SENT"
	case EventgroupRegistrationSentMultiOffer:
		return "REGISTRATION_SENT_MULTI_OFFER"
	case EventgroupRegistrationSentReconfigure:
		return "REGISTRATION_SENT_RECONFIGURE"
	case EventgroupSubscribed:
		return "SUBSCRIBED"
	default:
		return "UNKNOWN"
	}
}

func (p EventgroupPhase) registering() bool {
	return p == EventgroupRegistrationSent ||
		p == EventgroupRegistrationSentMultiOffer ||
		p == EventgroupRegistrationSentReconfigure
}

func (p EventgroupPhase) unsubscribed() bool {
	return p == EventgroupUnsubscribed || p == EventgroupUnsubscribedAfterMultiOfferNack
}

// MeasurementKind selects a measurement counter.
type MeasurementKind uint8

const (
	MeasSubscribeNackSent MeasurementKind = iota
	MeasInvalidMessages
	MeasRebootsDetected
	MeasDroppedEntries
	measKindCount

	// MeasAll resets every counter.
	MeasAll MeasurementKind = 0xFF
)

// String returns the counter name.
func (k MeasurementKind) String() string {
	switch k {
	case MeasSubscribeNackSent:
		return "SUBSCRIBE_NACK_SENT"
	case MeasInvalidMessages:
		return "INVALID_MESSAGES"
	case MeasRebootsDetected:
		return "REBOOTS_DETECTED"
	case MeasDroppedEntries:
		return "DROPPED_ENTRIES"
	case MeasAll:
		return "ALL"
	default:
		return "UNKNOWN"
	}
}
