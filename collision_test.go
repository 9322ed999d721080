package vesper

import "testing"

func newTestRigidbody(u *Universe, ce *CollisionEngine, x, y float64, context int) *Rigidbody {
	rb := &Rigidbody{
		Entity:    u.Create(),
		Transform: CollisionTransform{Position: Vec2{x, y}, Scale: Vec2{1, 1}},
		Active:    true,
		Context:   context,
	}
	rb.Collider.InitRotatedRect(Vec2{0, 0}, Vec2{10, 10}, 0)
	ce.Add(rb)
	return rb
}

func TestCollisionEngineBeginEndTransitions(t *testing.T) {
	u := NewUniverse()
	ce := NewCollisionEngine(Rect{0, 0, 1000, 1000})

	a := newTestRigidbody(u, ce, 0, 0, 0)
	b := newTestRigidbody(u, ce, 100, 0, 0)

	ce.Step()
	if len(ce.Began()) != 0 {
		t.Fatalf("expected no overlap while far apart, got %v", ce.Began())
	}

	// Move b next to a, overlapping by 2 units.
	b.Transform.Position.X = 8
	ce.Retag(b.Entity)
	ce.Step()

	began := ce.Began()
	if len(began) != 1 {
		t.Fatalf("Began() = %v, want 1 event", began)
	}
	if began[0].A != a.Entity && began[0].B != a.Entity {
		t.Errorf("expected event to reference entity a, got %+v", began[0])
	}

	// Default reaction should have separated a and b already.
	ce.Step()
	if len(ce.Began()) != 0 {
		t.Errorf("expected no new begin events once separated, got %v", ce.Began())
	}

	// Move b far away: the prior overlap (if any survived) should end.
	b.Transform.Position.X = 1000 - 20
	ce.Retag(b.Entity)
	ce.Step()
	_ = ce.Ended()
}

func TestCollisionEngineIgnoresDifferentContexts(t *testing.T) {
	u := NewUniverse()
	ce := NewCollisionEngine(Rect{0, 0, 1000, 1000})

	a := newTestRigidbody(u, ce, 0, 0, 0)
	_ = newTestRigidbody(u, ce, 5, 5, 1)
	_ = a

	ce.Step()
	if len(ce.Began()) != 0 {
		t.Errorf("expected rigidbodies in different contexts to never overlap, got %v", ce.Began())
	}
}

func TestCollisionEngineIgnoresInactiveBodies(t *testing.T) {
	u := NewUniverse()
	ce := NewCollisionEngine(Rect{0, 0, 1000, 1000})

	a := newTestRigidbody(u, ce, 0, 0, 0)
	b := newTestRigidbody(u, ce, 5, 5, 0)
	b.Active = false

	ce.Step()
	if len(ce.Began()) != 0 {
		t.Errorf("expected inactive rigidbody to be ignored, got %v", ce.Began())
	}
	_ = a
}

func TestCollisionEngineRemove(t *testing.T) {
	u := NewUniverse()
	ce := NewCollisionEngine(Rect{0, 0, 1000, 1000})

	a := newTestRigidbody(u, ce, 0, 0, 0)
	b := newTestRigidbody(u, ce, 5, 5, 0)
	ce.Remove(b.Entity)

	ce.Step()
	if len(ce.Began()) != 0 {
		t.Errorf("expected no overlap after removing b, got %v", ce.Began())
	}
	_ = a
}
