package log

import (
	"time"

	"github.com/someip-sd/sd-go/pkg/wire"
)

// Event is one protocol capture record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred.
	Timestamp time.Time `cbor:"1,keyasint"`

	// TraceID identifies the engine run that produced the event (UUID).
	TraceID string `cbor:"2,keyasint"`

	Direction Direction `cbor:"3,keyasint"`
	Layer     Layer     `cbor:"4,keyasint"`
	Category  Category  `cbor:"5,keyasint"`

	// Instance is the name of the SD instance.
	Instance string `cbor:"6,keyasint,omitempty"`

	// RemoteAddr is the peer SD endpoint (IP:port).
	RemoteAddr string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Datagram    *DatagramEvent    `cbor:"10,keyasint,omitempty"`
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"`
}

// Direction indicates message flow.
type Direction uint8

const (
	DirectionIn  Direction = 0
	DirectionOut Direction = 1

	// DirectionNone is used for events not tied to a message.
	DirectionNone Direction = 2
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	case DirectionNone:
		return "NONE"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates where the event was captured.
type Layer uint8

const (
	// LayerTransport is the raw datagram.
	LayerTransport Layer = 0
	// LayerWire is the decoded SD message.
	LayerWire Layer = 1
	// LayerEngine is the discovery state machines.
	LayerEngine Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event.
type Category uint8

const (
	CategoryMessage Category = 0
	CategoryState   Category = 2
	CategoryError   Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// DatagramEvent captures raw bytes at the transport layer.
type DatagramEvent struct {
	// Size is the datagram size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw datagram (may be truncated).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MaxDatagramCapture bounds the bytes kept in a DatagramEvent.
const MaxDatagramCapture = 1500

// NewDatagramEvent copies up to MaxDatagramCapture bytes of data.
func NewDatagramEvent(data []byte) *DatagramEvent {
	ev := &DatagramEvent{Size: len(data)}
	n := min(len(data), MaxDatagramCapture)
	ev.Data = append([]byte(nil), data[:n]...)
	ev.Truncated = n < len(data)
	return ev
}

// MessageEvent captures a decoded SD message.
type MessageEvent struct {
	SessionID uint16       `cbor:"1,keyasint"`
	Reboot    bool         `cbor:"2,keyasint,omitempty"`
	Unicast   bool         `cbor:"3,keyasint,omitempty"`
	Entries   []EntryEvent `cbor:"4,keyasint,omitempty"`
	Options   int          `cbor:"5,keyasint,omitempty"`
}

// EntryEvent summarizes one SD entry.
type EntryEvent struct {
	Type         wire.EntryType `cbor:"1,keyasint"`
	ServiceID    uint16         `cbor:"2,keyasint"`
	InstanceID   uint16         `cbor:"3,keyasint"`
	MajorVersion uint8          `cbor:"4,keyasint"`
	TTL          uint32         `cbor:"5,keyasint"`
	MinorVersion uint32         `cbor:"6,keyasint,omitempty"`
	EventgroupID uint16         `cbor:"7,keyasint,omitempty"`
	Counter      uint16         `cbor:"8,keyasint,omitempty"`
}

// NewEntryEvent converts a wire entry.
func NewEntryEvent(e wire.Entry) EntryEvent {
	return EntryEvent{
		Type:         e.Type,
		ServiceID:    e.ServiceID,
		InstanceID:   e.InstanceID,
		MajorVersion: e.MajorVersion,
		TTL:          e.TTL,
		MinorVersion: e.MinorVersion,
		EventgroupID: e.EventgroupID,
		Counter:      e.Counter,
	}
}

// NewMessageEvent summarizes a decoded message. Entries that fail to
// decode are skipped.
func NewMessageEvent(msg *wire.Message) *MessageEvent {
	ev := &MessageEvent{
		SessionID: msg.Header.SessionID,
		Reboot:    msg.Header.Flags.Reboot(),
		Unicast:   msg.Header.Flags.Unicast(),
		Options:   msg.NumOptions(),
	}
	for i := range msg.NumEntries() {
		e, err := msg.Entry(i)
		if err != nil {
			continue
		}
		ev.Entries = append(ev.Entries, NewEntryEvent(e))
	}
	return ev
}

// StateChangeEvent captures a state machine transition.
type StateChangeEvent struct {
	Entity StateEntity `cbor:"1,keyasint"`

	// Name is the configured name of the entity.
	Name string `cbor:"2,keyasint,omitempty"`

	OldState string `cbor:"3,keyasint,omitempty"`
	NewState string `cbor:"4,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"5,keyasint,omitempty"`
}

// StateEntity indicates what changed state.
type StateEntity uint8

const (
	StateEntityInstance     StateEntity = 0
	StateEntityServer       StateEntity = 1
	StateEntityEventHandler StateEntity = 2
	StateEntityClient       StateEntity = 3
	StateEntityEventgroup   StateEntity = 4
	StateEntityPeer         StateEntity = 5
)

// String returns the entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityInstance:
		return "INSTANCE"
	case StateEntityServer:
		return "SERVER"
	case StateEntityEventHandler:
		return "EVENT_HANDLER"
	case StateEntityClient:
		return "CLIENT"
	case StateEntityEventgroup:
		return "EVENTGROUP"
	case StateEntityPeer:
		return "PEER"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`

	// Context describes what the engine was doing.
	Context string `cbor:"4,keyasint,omitempty"`
}
