// Package routing implements the routable-parameter pattern (spec.md §9):
// every routable parameter carries a local value and an override value; the
// effective value is the override when routed, the local value otherwise.
// No back-pointers to a routing table are kept on the parameter itself —
// the engine passes the effective routing snapshot in each tick.
package routing

// Routable pairs a local value with an override supplied by a routing
// source. Get returns Override when Routed, Local otherwise.
type Routable[T any] struct {
	Local    T
	Override T
	Routed   bool
}

// NewRoutable returns an unrouted Routable with the given local value.
func NewRoutable[T any](local T) Routable[T] {
	return Routable[T]{Local: local}
}

// Get returns the effective value.
func (r Routable[T]) Get() T {
	if r.Routed {
		return r.Override
	}
	return r.Local
}

// SetLocal assigns the local value, leaving Routed/Override untouched.
func (r *Routable[T]) SetLocal(v T) { r.Local = v }

// SetOverride assigns the routing-supplied override and marks it routed.
func (r *Routable[T]) SetOverride(v T) {
	r.Override = v
	r.Routed = true
}

// ClearRoute drops the override, reverting to the local value.
func (r *Routable[T]) ClearRoute() { r.Routed = false }
