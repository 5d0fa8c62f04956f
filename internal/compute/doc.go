// Package compute turns upstream cumulative counters into monotonic
// increments.
//
// Reconciler keeps, per jail, the last upstream total it has seen (the
// baseline) and the running sum of increments already exported. Reconcile
// returns the non-negative delta to add downstream. When the upstream total
// drops below the baseline (fail2ban restart, jail reload) the delta is 0 and
// the lower value becomes the new baseline, so the exported counter never
// decreases and never spikes.
//
// State lives for the process lifetime only and belongs to the Reconciler
// instance; nothing is persisted.
package compute
