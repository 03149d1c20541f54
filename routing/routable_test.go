package routing

import "testing"

func TestRoutableGetReturnsLocalWhenUnrouted(t *testing.T) {
	r := NewRoutable(5)
	if r.Get() != 5 {
		t.Fatalf("Get() = %v, want 5 (local)", r.Get())
	}
}

func TestRoutableGetReturnsOverrideWhenRouted(t *testing.T) {
	r := NewRoutable(5)
	r.SetOverride(9)
	if !r.Routed {
		t.Fatal("SetOverride must mark the Routable as routed")
	}
	if r.Get() != 9 {
		t.Fatalf("Get() = %v, want 9 (override)", r.Get())
	}
}

func TestClearRouteRevertsToLocal(t *testing.T) {
	r := NewRoutable(5)
	r.SetOverride(9)
	r.ClearRoute()
	if r.Routed {
		t.Fatal("ClearRoute must unset Routed")
	}
	if r.Get() != 5 {
		t.Fatalf("Get() = %v, want 5 after ClearRoute", r.Get())
	}
}

func TestSetLocalLeavesRouteUntouched(t *testing.T) {
	r := NewRoutable(5)
	r.SetOverride(9)
	r.SetLocal(7)
	if !r.Routed {
		t.Fatal("SetLocal must not clear an active route")
	}
	if r.Get() != 9 {
		t.Fatalf("Get() = %v, want 9 (still routed)", r.Get())
	}
	r.ClearRoute()
	if r.Get() != 7 {
		t.Fatalf("Get() = %v, want 7 (new local) once unrouted", r.Get())
	}
}
