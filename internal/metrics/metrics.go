package metrics

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Series names.
const (
	JailBannedCurrent = "fail2ban_jail_banned_current"
	JailFailedCurrent = "fail2ban_jail_failed_current"
	JailBannedTotal   = "fail2ban_jail_banned_total"
	JailFailedTotal   = "fail2ban_jail_failed_total"
	Up                = "fail2ban_up"

	PollDuration   = "fail2ban_exporter_poll_duration_seconds"
	ExporterErrors = "fail2ban_exporter_errors_total"

	NetBytesSent   = "network_bytes_sent"
	NetBytesRecv   = "network_bytes_recv"
	NetPacketsSent = "network_packets_sent"
	NetPacketsRecv = "network_packets_recv"
	NetErrorsIn    = "network_errors_in"
	NetErrorsOut   = "network_errors_out"
)

// Label names.
const (
	LabelJail  = "jail"
	LabelStage = "stage"
)

// Sink receives gauge sets and counter increments.
type Sink interface {
	Set(name string, labels map[string]string, value float64)
	Add(name string, labels map[string]string, delta float64)
}

// Registry is the Prometheus-backed Sink.
type Registry struct {
	reg      *prometheus.Registry
	gauges   map[string]*prometheus.GaugeVec
	counters map[string]*prometheus.CounterVec
}

var _ Sink = (*Registry)(nil)

// New returns a Registry with every exporter series registered, plus the Go
// runtime and process collectors.
func New() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, labels)
	}
	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	}

	return &Registry{
		reg: reg,
		gauges: map[string]*prometheus.GaugeVec{
			JailBannedCurrent: gauge(JailBannedCurrent, "Currently banned IPs", LabelJail),
			JailFailedCurrent: gauge(JailFailedCurrent, "Currently failed attempts", LabelJail),
			Up:                gauge(Up, "Fail2ban service status"),
			PollDuration:      gauge(PollDuration, "Duration of the last poll cycle"),
			NetBytesSent:      gauge(NetBytesSent, "Total bytes sent"),
			NetBytesRecv:      gauge(NetBytesRecv, "Total bytes received"),
			NetPacketsSent:    gauge(NetPacketsSent, "Total packets sent"),
			NetPacketsRecv:    gauge(NetPacketsRecv, "Total packets received"),
			NetErrorsIn:       gauge(NetErrorsIn, "Total incoming errors"),
			NetErrorsOut:      gauge(NetErrorsOut, "Total outgoing errors"),
		},
		counters: map[string]*prometheus.CounterVec{
			JailBannedTotal: counter(JailBannedTotal, "Total banned IPs", LabelJail),
			JailFailedTotal: counter(JailFailedTotal, "Total failed attempts", LabelJail),
			ExporterErrors:  counter(ExporterErrors, "Failed fail2ban requests by stage", LabelStage),
		},
	}
}

// Set sets the gauge name{labels} to value. Unknown names and label
// mismatches are logged and dropped.
func (r *Registry) Set(name string, labels map[string]string, value float64) {
	vec, ok := r.gauges[name]
	if !ok {
		slog.Warn("metrics: set on unknown gauge", "name", name)
		return
	}
	g, err := vec.GetMetricWith(labels)
	if err != nil {
		slog.Warn("metrics: bad gauge labels", "name", name, "err", err)
		return
	}
	g.Set(value)
}

// Add increments the counter name{labels} by delta. Non-positive deltas are
// ignored.
func (r *Registry) Add(name string, labels map[string]string, delta float64) {
	if delta <= 0 {
		return
	}
	vec, ok := r.counters[name]
	if !ok {
		slog.Warn("metrics: add on unknown counter", "name", name)
		return
	}
	c, err := vec.GetMetricWith(labels)
	if err != nil {
		slog.Warn("metrics: bad counter labels", "name", name, "err", err)
		return
	}
	c.Add(delta)
}

// Gatherer exposes the underlying registry for scraping and tests.
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// WriteText gathers every family and writes it to w in the text format.
func (r *Registry) WriteText(w io.Writer) error {
	mfs, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("metrics: gather: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range mfs {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("metrics: encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
