package vesper

import "testing"

func TestBehaviorInstanceRunsLifecycleCallbacks(t *testing.T) {
	var entered, updated, exited []string

	b := NewStateBehavior("idle")
	b.AddState(&Meta{
		Name:    "idle",
		OnEnter: func(i *BehaviorInstance) { entered = append(entered, "idle") },
		OnExit:  func(i *BehaviorInstance) { exited = append(exited, "idle") },
	})
	b.AddState(&Meta{
		Name:     "chase",
		OnEnter:  func(i *BehaviorInstance) { entered = append(entered, "chase") },
		OnUpdate: func(i *BehaviorInstance, dt float64) { updated = append(updated, "chase") },
	})

	inst := NewBehaviorInstance(b, Entity(1))
	if inst.State() != "idle" {
		t.Fatalf("State() = %q, want idle", inst.State())
	}

	if !inst.TransitionTo("chase") {
		t.Fatal("expected transition to chase to succeed")
	}
	inst.Update(0.016)

	wantEntered := []string{"idle", "chase"}
	wantExited := []string{"idle"}
	wantUpdated := []string{"chase"}

	if !equalStrings(entered, wantEntered) {
		t.Errorf("entered = %v, want %v", entered, wantEntered)
	}
	if !equalStrings(exited, wantExited) {
		t.Errorf("exited = %v, want %v", exited, wantExited)
	}
	if !equalStrings(updated, wantUpdated) {
		t.Errorf("updated = %v, want %v", updated, wantUpdated)
	}
}

func TestBehaviorInstanceTransitionToUnknownStateFails(t *testing.T) {
	b := NewStateBehavior("idle")
	b.AddState(&Meta{Name: "idle"})
	inst := NewBehaviorInstance(b, Entity(1))

	if inst.TransitionTo("nonexistent") {
		t.Error("expected transition to an unknown state to fail")
	}
	if inst.State() != "idle" {
		t.Errorf("State() = %q, want unchanged idle", inst.State())
	}
}

func TestBehaviorInstanceEnvironment(t *testing.T) {
	b := NewStateBehavior("idle")
	b.AddState(&Meta{Name: "idle"})
	inst := NewBehaviorInstance(b, Entity(1))

	inst.Set("target", Entity(42))
	v, ok := inst.Get("target")
	if !ok || v.(Entity) != 42 {
		t.Errorf("Get(target) = %v, %v, want 42, true", v, ok)
	}
}

func TestStateBehaviorReloadPreservesLiveInstanceInSurvivingState(t *testing.T) {
	b := NewStateBehavior("idle")
	b.AddState(&Meta{Name: "idle"})
	b.AddState(&Meta{Name: "chase"})

	inst := NewBehaviorInstance(b, Entity(1))
	inst.TransitionTo("chase")

	b.Reload("idle", []*Meta{{Name: "idle"}, {Name: "chase"}}, []*BehaviorInstance{inst})
	if inst.State() != "chase" {
		t.Errorf("State() = %q, want chase preserved across reload", inst.State())
	}
}

func TestStateBehaviorReloadFallsBackWhenStateRemoved(t *testing.T) {
	var reenteredIdle bool

	b := NewStateBehavior("idle")
	b.AddState(&Meta{Name: "idle", OnEnter: func(i *BehaviorInstance) { reenteredIdle = true }})
	b.AddState(&Meta{Name: "chase"})

	inst := NewBehaviorInstance(b, Entity(1))
	reenteredIdle = false // ignore the initial NewBehaviorInstance OnEnter
	inst.TransitionTo("chase")

	b.Reload("idle", []*Meta{{Name: "idle", OnEnter: func(i *BehaviorInstance) { reenteredIdle = true }}}, []*BehaviorInstance{inst})

	if inst.State() != "idle" {
		t.Errorf("State() = %q, want fallback to idle once chase was removed", inst.State())
	}
	if !reenteredIdle {
		t.Error("expected OnEnter to fire for the fallback state")
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
