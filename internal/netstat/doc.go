// Package netstat samples host-wide network interface counters with gopsutil
// and publishes them as gauges. It runs on its own interval, independent of
// the fail2ban poller.
package netstat
