package compute

import "log/slog"

// Reconciler derives counter increments from upstream cumulative totals.
//
// It is not safe for concurrent use. The poller is its only writer.
type Reconciler struct {
	name   string
	states map[string]*counterState
}

// counterState holds one jail's baseline and exported total.
type counterState struct {
	baseline int64
	exported int64
}

// NewReconciler returns an empty Reconciler. name identifies the counter in
// log lines (e.g. "banned_total").
func NewReconciler(name string) *Reconciler {
	return &Reconciler{name: name, states: make(map[string]*counterState)}
}

// Reconcile records observed as the latest upstream total for jail and
// returns the delta to add to the exported counter. The delta is never
// negative.
func (r *Reconciler) Reconcile(jail string, observed int64) int64 {
	st := r.stateFor(jail)

	if observed < st.baseline {
		slog.Debug("compute: upstream counter reset, rebasing",
			"counter", r.name, "jail", jail,
			"previous", st.baseline, "observed", observed)
		st.baseline = observed
		return 0
	}

	delta := deltaOf(observed, st.baseline)
	st.baseline = observed
	st.exported += delta
	return delta
}

// Baseline returns the last upstream total seen for jail and whether the
// jail has been seen at all.
func (r *Reconciler) Baseline(jail string) (int64, bool) {
	st, ok := r.states[jail]
	if !ok {
		return 0, false
	}
	return st.baseline, true
}

// Exported returns the sum of all deltas handed out for jail.
func (r *Reconciler) Exported(jail string) int64 {
	if st, ok := r.states[jail]; ok {
		return st.exported
	}
	return 0
}

func (r *Reconciler) stateFor(jail string) *counterState {
	if st, ok := r.states[jail]; ok {
		return st
	}
	st := &counterState{}
	r.states[jail] = st
	return st
}

// deltaOf returns the positive counter delta between current and previous.
// If current < previous (counter reset after restart), returns 0.
func deltaOf(current, previous int64) int64 {
	d := current - previous
	if d < 0 {
		return 0
	}
	return d
}
