// Package store holds the latest poll outcome per jail and the exporter's
// liveness, for the JSON status API. Entries are never evicted: a jail that
// drops out of discovery keeps its last known state.
package store
