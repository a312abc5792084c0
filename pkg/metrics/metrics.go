package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/someip-sd/sd-go/pkg/sd"
	"github.com/someip-sd/sd-go/pkg/wire"
)

const namespace = "someip"

// MeasurementSource is the part of sd.Engine that Poll reads.
type MeasurementSource interface {
	GetAndResetMeasurementData(kind sd.MeasurementKind) (uint32, error)
}

var measurementKinds = []sd.MeasurementKind{
	sd.MeasSubscribeNackSent,
	sd.MeasInvalidMessages,
	sd.MeasRebootsDetected,
	sd.MeasDroppedEntries,
}

// Diagnostics records engine diagnostics as Prometheus metrics.
type Diagnostics struct {
	malformed    *prometheus.CounterVec
	nacks        *prometheus.CounterVec
	measurements *prometheus.CounterVec
	available    *prometheus.GaugeVec

	// next receives mode changes after they are recorded.
	next sd.ModePublisher
}

var (
	_ sd.DiagnosticSink = (*Diagnostics)(nil)
	_ sd.ModePublisher  = (*Diagnostics)(nil)
)

// New creates the metrics and registers them with reg. Mode changes are
// passed on to next, which may be nil.
func New(reg prometheus.Registerer, next sd.ModePublisher) (*Diagnostics, error) {
	if next == nil {
		next = sd.NoopModePublisher{}
	}
	d := &Diagnostics{
		malformed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sd",
			Name:      "malformed_messages_total",
			Help:      "SD messages dropped because they could not be decoded.",
		}, []string{"instance", "reason"}),

		nacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sd",
			Name:      "subscribe_nacks_total",
			Help:      "SubscribeEventgroupNack entries sent and received.",
		}, []string{"instance", "direction", "service", "eventgroup"}),

		measurements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sd",
			Name:      "measurements_total",
			Help:      "Engine measurement counters.",
		}, []string{"kind"}),

		available: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sd",
			Name:      "available",
			Help:      "Availability of services, event handlers and eventgroups (1=up, 0=down).",
		}, []string{"kind", "name"}),

		next: next,
	}

	for _, c := range []prometheus.Collector{d.malformed, d.nacks, d.measurements, d.available} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register sd metrics: %w", err)
		}
	}
	return d, nil
}

func hexID(id uint16) string {
	return "0x" + strconv.FormatUint(uint64(id), 16)
}

// MalformedMessage implements sd.DiagnosticSink.
func (d *Diagnostics) MalformedMessage(instance string, reason error) {
	d.malformed.WithLabelValues(instance, wire.Reason(reason)).Inc()
}

// SubscribeNackReceived implements sd.DiagnosticSink.
func (d *Diagnostics) SubscribeNackReceived(instance string, serviceID, eventgroupID uint16) {
	d.nacks.WithLabelValues(instance, "rx", hexID(serviceID), hexID(eventgroupID)).Inc()
}

// SubscribeNackSent implements sd.DiagnosticSink.
func (d *Diagnostics) SubscribeNackSent(instance string, serviceID, eventgroupID uint16) {
	d.nacks.WithLabelValues(instance, "tx", hexID(serviceID), hexID(eventgroupID)).Inc()
}

func gauge(up bool) float64 {
	if up {
		return 1
	}
	return 0
}

// ServerServiceChanged implements sd.ModePublisher.
func (d *Diagnostics) ServerServiceChanged(name string, mode sd.ServiceMode) {
	d.available.WithLabelValues("server", name).Set(gauge(mode == sd.ModeAvailable))
	d.next.ServerServiceChanged(name, mode)
}

// ClientServiceChanged implements sd.ModePublisher.
func (d *Diagnostics) ClientServiceChanged(name string, mode sd.ServiceMode) {
	d.available.WithLabelValues("client", name).Set(gauge(mode == sd.ModeAvailable))
	d.next.ClientServiceChanged(name, mode)
}

// EventHandlerChanged implements sd.ModePublisher.
func (d *Diagnostics) EventHandlerChanged(name string, mode sd.EventHandlerMode) {
	d.available.WithLabelValues("event_handler", name).Set(gauge(mode == sd.EventHandlerRequested))
	d.next.EventHandlerChanged(name, mode)
}

// ConsumedEventgroupChanged implements sd.ModePublisher.
func (d *Diagnostics) ConsumedEventgroupChanged(name string, mode sd.ServiceMode) {
	d.available.WithLabelValues("eventgroup", name).Set(gauge(mode == sd.ModeAvailable))
	d.next.ConsumedEventgroupChanged(name, mode)
}

// Poll reads and resets the measurement counters of src and adds them to
// the exported totals.
func (d *Diagnostics) Poll(src MeasurementSource) error {
	for _, kind := range measurementKinds {
		n, err := src.GetAndResetMeasurementData(kind)
		if err != nil {
			return fmt.Errorf("read %s: %w", kind, err)
		}
		if n > 0 {
			d.measurements.WithLabelValues(kind.String()).Add(float64(n))
		}
	}
	return nil
}
