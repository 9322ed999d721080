package vesper

import (
	"math"
	"math/rand/v2"
)

// This file implements the force-accumulation steering behaviors that feed
// [MobilityUnit.Accelerate]: seek, flee, arrival, pursuit, evade, and
// displace (spec §4.8), grounded on
// `original_source/src/ungod/physics/MobilityUnit.cpp`'s `accelerate`/
// `seek`/`flee`/`arrival`/`pursuit`/`evade`/`displace` free functions. Every
// behavior below is a pure `direction * speed` accumulation — none of them
// subtract the unit's current velocity; Mobilize's own truncate-then-add is
// what keeps the result bounded, exactly as the source's
// `accelerate(mu, direction, speed) := mu.acceleration += speed*direction`
// does.

// Seek returns a force toward target at the given speed: pure
// direction-times-speed, no velocity term (MobilityUnit.cpp:41-47).
func Seek(position, target Vec2, speed float64) Vec2 {
	dir := normalize(Vec2{target.X - position.X, target.Y - position.Y})
	return Vec2{dir.X * speed, dir.Y * speed}
}

// Flee is the inverse of Seek: a force away from target
// (MobilityUnit.cpp:49-55).
func Flee(position, target Vec2, speed float64) Vec2 {
	dir := normalize(Vec2{position.X - target.X, position.Y - target.Y})
	return Vec2{dir.X * speed, dir.Y * speed}
}

// Arrival behaves like Seek but scales the desired direction by
// (dist/radius)^2 once within radius of target, reaching zero at the
// target — the squared falloff of MobilityUnit.cpp:57-70, not a linear one.
func Arrival(position, target Vec2, speed, radius float64) Vec2 {
	toTarget := Vec2{target.X - position.X, target.Y - position.Y}
	dist := vecLength(toTarget)
	if dist == 0 {
		return Vec2{}
	}
	dir := Vec2{toTarget.X / dist, toTarget.Y / dist}
	if dist <= radius {
		slow := dist / radius
		dir = Vec2{dir.X * slow * slow, dir.Y * slow * slow}
	}
	return Vec2{dir.X * speed, dir.Y * speed}
}

// Pursuit seeks a point ahead of a moving target, predicted by the target's
// own velocity, damp, and the time it would take the pursuer to close the
// current distance at targetMaxVel, then arrives at that point within
// radius (MobilityUnit.cpp:73-81).
func Pursuit(position, targetPosition, targetVelocity Vec2, targetMaxVel, speed, radius, damp float64) Vec2 {
	diff := Vec2{targetPosition.X - position.X, targetPosition.Y - position.Y}
	distMagn := vecLength(diff)
	if distMagn == 0 {
		return Arrival(position, targetPosition, speed, radius)
	}
	lookAhead := damp * (distMagn / targetMaxVel)
	estimated := Vec2{
		X: targetPosition.X + lookAhead*targetVelocity.X,
		Y: targetPosition.Y + lookAhead*targetVelocity.Y,
	}
	return Arrival(position, estimated, speed, radius)
}

// Evade is the inverse of Pursuit: flees the target's predicted position,
// but only while within evadeDistance — outside it, Evade returns no force
// at all (MobilityUnit.cpp:83-95).
func Evade(position, targetPosition, targetVelocity Vec2, targetMaxVel, speed, evadeDistance, damp float64) Vec2 {
	diff := Vec2{targetPosition.X - position.X, targetPosition.Y - position.Y}
	distMagn := vecLength(diff)
	if distMagn == 0 || distMagn > evadeDistance {
		return Vec2{}
	}
	lookAhead := damp * (distMagn / targetMaxVel)
	estimated := Vec2{
		X: targetPosition.X + lookAhead*targetVelocity.X,
		Y: targetPosition.Y + lookAhead*targetVelocity.Y,
	}
	return Flee(position, estimated, speed)
}

// Displace is the wander primitive: it perturbs the unit's current heading
// by a random angle within [-angleRange, angleRange], blends that with the
// heading scaled by circleDistance, and accelerates by speed in the
// resulting direction (MobilityUnit.cpp:97-111). It is not a separation
// force — callers wanting group spacing compose their own from Flee.
func Displace(velocity Vec2, speed, circleDistance, angleRange float64) Vec2 {
	dispCircle := velocity
	if dispCircle == (Vec2{}) {
		dispCircle = Vec2{X: 1, Y: 1}
	}
	dispCircle = normalize(dispCircle)

	// Angle of dispCircle from the x-axis via acos of its x-component,
	// matching the source's dot-product-with-unit-x derivation verbatim
	// (this folds +Y and -Y headings onto the same angle, a quirk of the
	// original formula rather than a bug introduced here).
	angle := math.Acos(dispCircle.X)
	angle += randRange(-angleRange, angleRange)
	displacementForce := Vec2{X: math.Cos(angle), Y: math.Sin(angle)}

	dispCircle = Vec2{
		X: dispCircle.X*circleDistance + displacementForce.X,
		Y: dispCircle.Y*circleDistance + displacementForce.Y,
	}
	dispCircle = normalize(dispCircle)
	return Vec2{dispCircle.X * speed, dispCircle.Y * speed}
}

func randRange(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}
