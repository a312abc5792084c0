package sd

import "errors"

// Caller errors returned by the public API.
var (
	ErrNotInitialized     = errors.New("engine not initialized")
	ErrInvalidHandle      = errors.New("invalid handle")
	ErrInvalidState       = errors.New("invalid requested state")
	ErrWrongState         = errors.New("operation not allowed in current state")
	ErrUnknownConnection  = errors.New("unknown connection")
	ErrUnknownGroup       = errors.New("unknown group")
	ErrInvalidMeasurement = errors.New("invalid measurement kind")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrMissingTransport   = errors.New("transport is required")
)

// Errors reported through DiagnosticSink and protocol capture.
var (
	ErrPeerTableFull      = errors.New("remote address table full")
	ErrSendQueueFull      = errors.New("send queue full")
	ErrRejectedOptions    = errors.New("entry options rejected")
	ErrNoMulticastBinding = errors.New("no multicast connection matches")
	ErrEntryTooLarge      = errors.New("entry does not fit into an empty message")
)
