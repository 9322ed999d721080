package vesper

// Rigidbody pairs a collider with the entity it belongs to, an active flag,
// and a collision context index. Two rigidbodies are only tested against
// each other when they share a context (spec §4.3: "a rigidbody sequence of
// 0 or 1 contexts"), which lets e.g. player-vs-world and enemy-vs-enemy
// collisions be computed independently over the same quadtree.
type Rigidbody struct {
	Entity    Entity
	Collider  Collider
	Transform CollisionTransform
	Active    bool
	Context   int
}

func (r *Rigidbody) ElementID() Entity { return r.Entity }
func (r *Rigidbody) Bounds() Rect      { return r.Collider.BoundingBox(r.Transform) }

// collisionBroadPhaseMargin widens a rigidbody's bounds before the
// broad-phase quadtree query, giving fast movers a safety margin against
// tunneling through a neighbor between ticks (spec §4.3: "the entity's
// expanded bounds").
const collisionBroadPhaseMargin = 8.0

func expandRect(r Rect, margin float64) Rect {
	return Rect{
		X:      r.X - margin,
		Y:      r.Y - margin,
		Width:  r.Width + 2*margin,
		Height: r.Height + 2*margin,
	}
}

type overlapKey struct {
	a, b Entity
}

func makeOverlapKey(a, b Entity) overlapKey {
	if a > b {
		a, b = b, a
	}
	return overlapKey{a, b}
}

// OverlapEvent reports the entity pair and MTV of a narrow-phase hit,
// oriented so that translating A by MTV separates the pair.
type OverlapEvent struct {
	A, B Entity
	MTV  Vec2
}

// CollisionEngine runs broad-phase (quadtree query) plus narrow-phase (SAT)
// collision detection over a set of rigidbodies, and reports begin/end
// overlap transitions across ticks via a double-buffered event set (spec
// §4.3).
type CollisionEngine struct {
	bodies map[Entity]*Rigidbody
	tree   *Quadtree

	current  map[overlapKey]OverlapEvent
	previous map[overlapKey]OverlapEvent

	began []OverlapEvent
	ended []OverlapEvent

	// OnOverlap, when set, is invoked for every overlap that began this
	// tick, after Step runs the default MTV-translation reaction.
	OnOverlap func(OverlapEvent)
}

// NewCollisionEngine creates an engine whose broad phase queries the given
// world bounds.
func NewCollisionEngine(bounds Rect) *CollisionEngine {
	return &CollisionEngine{
		bodies:   make(map[Entity]*Rigidbody),
		tree:     NewQuadtree(bounds),
		current:  make(map[overlapKey]OverlapEvent),
		previous: make(map[overlapKey]OverlapEvent),
	}
}

// Add registers a rigidbody with the engine and indexes it in the quadtree.
func (ce *CollisionEngine) Add(rb *Rigidbody) {
	ce.bodies[rb.Entity] = rb
	ce.tree.Insert(rb)
}

// Remove unregisters a rigidbody.
func (ce *CollisionEngine) Remove(e Entity) {
	if rb, ok := ce.bodies[e]; ok {
		ce.tree.Remove(rb)
		delete(ce.bodies, e)
	}
}

// Retag notifies the engine that a rigidbody's bounds changed (it moved).
func (ce *CollisionEngine) Retag(e Entity) {
	if rb, ok := ce.bodies[e]; ok {
		ce.tree.ChangedProperties(rb)
	}
}

// Began returns the overlaps that newly started on the last Step call.
func (ce *CollisionEngine) Began() []OverlapEvent { return ce.began }

// Ended returns the overlaps that stopped on the last Step call.
func (ce *CollisionEngine) Ended() []OverlapEvent { return ce.ended }

// Step runs one broad+narrow phase pass: for every active rigidbody, the
// quadtree supplies candidate neighbors, pairs sharing a context are SAT
// tested once (deduplicated), and begin/end events are diffed against the
// previous tick. The default reaction — translating entity A's transform by
// the MTV — runs for every newly-begun overlap before OnOverlap is called.
func (ce *CollisionEngine) Step() {
	ce.previous, ce.current = ce.current, ce.previous
	for k := range ce.current {
		delete(ce.current, k)
	}
	ce.began = ce.began[:0]
	ce.ended = ce.ended[:0]

	tested := make(map[overlapKey]bool)

	for _, rb := range ce.bodies {
		if !rb.Active {
			continue
		}
		candidates := ce.tree.Retrieve(expandRect(rb.Bounds(), collisionBroadPhaseMargin))
		for _, cand := range candidates {
			other, ok := ce.bodies[cand.ElementID()]
			if !ok || other == rb || !other.Active {
				continue
			}
			if other.Context != rb.Context {
				continue
			}
			key := makeOverlapKey(rb.Entity, other.Entity)
			if tested[key] {
				continue
			}
			tested[key] = true

			result := Collide(&rb.Collider, rb.Transform, &other.Collider, other.Transform)
			if !result.Intersects {
				continue
			}
			ev := OverlapEvent{A: rb.Entity, B: other.Entity, MTV: result.MTV}
			ce.current[key] = ev
		}
	}

	for key, ev := range ce.current {
		if _, existed := ce.previous[key]; !existed {
			ce.began = append(ce.began, ev)
		}
	}
	for key, ev := range ce.previous {
		if _, still := ce.current[key]; !still {
			ce.ended = append(ce.ended, ev)
		}
	}

	for _, ev := range ce.began {
		ce.applyDefaultReaction(ev)
		if ce.OnOverlap != nil {
			ce.OnOverlap(ev)
		}
	}
}

// applyDefaultReaction translates entity A by the MTV, preventing
// interpenetration (spec §4.3's default movement-handler reaction).
func (ce *CollisionEngine) applyDefaultReaction(ev OverlapEvent) {
	rb, ok := ce.bodies[ev.A]
	if !ok {
		return
	}
	rb.Transform.Position.X += ev.MTV.X
	rb.Transform.Position.Y += ev.MTV.Y
	ce.tree.ChangedProperties(rb)
}
