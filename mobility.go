package vesper

import "math"

// mobilityEpsilon is the minimum velocity magnitude below which Mobilize
// snaps velocity to zero rather than letting it decay asymptotically
// (spec §4.6).
const mobilityEpsilon = 0.1

// MobilityUnit accumulates steering forces over a tick and integrates them
// into a bounded velocity (spec §4.6). Force accumulation and
// velocity/force truncation follow the classic steering-behavior model;
// forces are added via Accelerate and flushed via Mobilize.
type MobilityUnit struct {
	Velocity     Vec2
	acceleration Vec2

	// MaxForce caps the accumulated acceleration applied per Mobilize call.
	MaxForce float64
	// MaxVelocity caps the resulting velocity.
	MaxVelocity float64
}

// NewMobilityUnit creates a unit with the given force/velocity caps.
func NewMobilityUnit(maxForce, maxVelocity float64) *MobilityUnit {
	return &MobilityUnit{MaxForce: maxForce, MaxVelocity: maxVelocity}
}

// Accelerate adds force to this tick's accumulated acceleration. Call once
// per steering behavior contributing to the unit this tick.
func (m *MobilityUnit) Accelerate(force Vec2) {
	m.acceleration.X += force.X
	m.acceleration.Y += force.Y
}

func vecLength(v Vec2) float64 { return math.Hypot(v.X, v.Y) }

func truncate(v Vec2, max float64) Vec2 {
	l := vecLength(v)
	if l <= max || l == 0 {
		return v
	}
	scale := max / l
	return Vec2{v.X * scale, v.Y * scale}
}

// Mobilize truncates this tick's accumulated acceleration to MaxForce,
// adds it to velocity, truncates the result to MaxVelocity, snaps velocity
// to zero if its magnitude falls below mobilityEpsilon, and resets the
// accumulator for the next tick (spec §4.6).
func (m *MobilityUnit) Mobilize() {
	acc := truncate(m.acceleration, m.MaxForce)
	m.Velocity.X += acc.X
	m.Velocity.Y += acc.Y
	m.Velocity = truncate(m.Velocity, m.MaxVelocity)
	if vecLength(m.Velocity) < mobilityEpsilon {
		m.Velocity = Vec2{}
	}
	m.acceleration = Vec2{}
}

// Integrate advances position by Velocity*dt. Called after Mobilize, once
// per tick, by whatever owns the entity's Transform.
func (m *MobilityUnit) Integrate(position Vec2, dt float64) Vec2 {
	return Vec2{
		X: position.X + m.Velocity.X*dt,
		Y: position.Y + m.Velocity.Y*dt,
	}
}
