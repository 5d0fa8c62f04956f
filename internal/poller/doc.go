// Package poller drives the fail2ban poll cycle.
//
// One cycle: send "status" to discover jails (failure sets fail2ban_up to 0
// and ends the cycle), set fail2ban_up to 1, then for each jail send
// "status <jail>", write the current gauges and feed the cumulative totals
// through a compute.Reconciler so the exported counters only grow. A failed
// jail is logged and skipped; the rest of the cycle continues.
//
// Requests are issued strictly one after another from a single goroutine.
// The next scheduled cycle is the only retry.
package poller
