// Package metrics is the exporter's metrics sink. Registry owns a private
// Prometheus registry holding the fail2ban jail gauges and counters, the
// liveness gauge, the exporter's own health series and the optional host
// network gauges. Writers address series by name through Set and Add;
// client_golang handles concurrent scrapes.
//
// Serve exposes the registry over HTTP; WriteText dumps it once in the text
// exposition format.
package metrics
