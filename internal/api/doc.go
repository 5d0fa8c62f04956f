// Package api serves the exporter's JSON status API.
//
// Routes (all GET, JSON responses):
//
//	/api/v1/health       : liveness of the last poll cycle and jail counts
//	/api/v1/jails        : every jail seen so far with its last stats
//	/api/v1/jails/{name} : one jail, 404 if never seen
//
// The handler reads from store.Store only; it never talks to fail2ban.
package api
