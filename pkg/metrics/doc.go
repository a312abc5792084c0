// Package metrics exports SD engine diagnostics to Prometheus.
//
// Diagnostics implements sd.DiagnosticSink and sd.ModePublisher. Engine
// measurement counters, which reset on read, are folded into monotonic
// Prometheus counters by Poll.
package metrics
