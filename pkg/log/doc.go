// Package log provides protocol capture for the SD engine.
//
// Protocol capture is separate from operational logging (slog). It
// records a machine-readable trace of every SD message sent or received
// and every state machine transition, which is what you want when two
// ECUs disagree about whether a service is up.
//
// # Basic Usage
//
// Applications enable capture by passing a Logger in the engine config:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/someip/sd.sdlog")
//
//	// Both: use MultiLogger
//	cfg.ProtocolLogger = log.NewMultiLogger(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at three layers:
//   - Transport: raw datagrams (DatagramEvent)
//   - Wire: decoded SD messages with their entries (MessageEvent)
//   - Engine: state machine transitions (StateChangeEvent)
//
// Errors at any layer use ErrorEventData.
//
// # File Format
//
// Capture files are a plain sequence of CBOR-encoded events with
// integer keys. Reader streams them back with optional filtering.
package log
