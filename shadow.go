package vesper

import (
	"math"
	"math/rand/v2"
)

// LightCollider is a convex-polygon occluder that casts penumbra/umbra
// shadows against a [Light] (spec §3, §4.6). It is distinct from a physics
// [Rigidbody]: it participates only in the lighting pipeline's quadtree
// query, never in SAT collision.
type LightCollider struct {
	Entity Entity
	Points []Vec2
	// Active mirrors Rigidbody.Active: inactive colliders are skipped during
	// penumbra generation but remain in the layer's quadtree.
	Active bool
	// LightOverShape, when true, keeps the area the collider itself covers
	// lit (useful for a translucent occluder); when false the collider's own
	// footprint is also shadowed.
	LightOverShape bool
}

// NewLightCollider builds an active light collider from a convex polygon,
// winding order matching [Collider.InitConvexPolygon].
func NewLightCollider(owner Entity, points []Vec2) *LightCollider {
	return &LightCollider{Entity: owner, Points: append([]Vec2(nil), points...), Active: true}
}

// ElementID and Bounds satisfy [QuadElement], so a LightCollider can be
// stored in a layer's quadtree alongside physics rigidbodies (spec §4.6.a
// "query the quadtree of the light's layer").
func (lc *LightCollider) ElementID() Entity { return lc.Entity }
func (lc *LightCollider) Bounds() Rect      { return lc.BoundingBox() }

// BoundingBox returns the collider's world-space AABB, used to cull against
// a light's bounding box before penumbra generation (spec §4.6.a).
func (lc *LightCollider) BoundingBox() Rect {
	if len(lc.Points) == 0 {
		return Rect{}
	}
	minX, minY := lc.Points[0].X, lc.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range lc.Points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Move translates every point of the collider by vec, mirroring
// [Collider.Move] (used by the transform handler when the owning entity
// moves).
func (lc *LightCollider) Move(vec Vec2) {
	for i := range lc.Points {
		lc.Points[i].X += vec.X
		lc.Points[i].Y += vec.Y
	}
}

// PenumbraQuad is one soft-shadow wedge produced by a single occluder edge
// against a single light (spec §4.6.c): a fan from the light source across
// a light-side boundary ray and a dark-side boundary ray, shaded by a linear
// gradient from LightBrightness (outer/light edge) to DarkBrightness
// (inner/dark edge).
type PenumbraQuad struct {
	Source          Vec2
	LightEdge       [2]Vec2
	DarkEdge        [2]Vec2
	LightBrightness float64
	DarkBrightness  float64
	Distance        float64
}

// UmbraSegment is the fully-shadowed region directly behind an occluder
// edge, bounded by the two inner (umbra) boundary rays.
type UmbraSegment struct {
	Near [2]Vec2
	Far  [2]Vec2
}

// shadowExtendFor returns how far (world units) a boundary ray is cast past
// the occluder, scaled by the light's radius and shadow-extend multiplier
// (spec §3 "shadow-extend multiplier", default per spec §6 is 1.4). l's own
// ShadowExtend wins when set; configDefault (typically Config's value) is
// used otherwise, falling back to [DefaultShadowExtendMultiplier].
func shadowExtendFor(l *Light, configDefault float64) float64 {
	multiplier := l.ShadowExtend
	if multiplier <= 0 {
		multiplier = configDefault
	}
	if multiplier <= 0 {
		multiplier = DefaultShadowExtendMultiplier
	}
	return l.Radius * multiplier
}

// DefaultShadowExtendMultiplier is the spec §6 configuration default applied
// when a light's ShadowExtend is unset (zero).
const DefaultShadowExtendMultiplier = 1.4

// ComputePenumbras generates the penumbra wedges and umbra segment for one
// occluder against one light, per spec §4.6.c:
//
//   - For each edge of the convex occluder, classify its two endpoints as
//     "inner" or "outer" boundary vectors relative to the light source: a
//     vertex is an inner (umbra-facing) boundary of the edge if the edge
//     normal faces away from the light at that vertex, else it's an outer
//     (light-facing) boundary.
//   - The umbra ray from the light through each inner vertex, extended by
//     the shadow-extend distance, bounds the fully dark region.
//   - The tangent from the light "sphere" (here a point; Radius informs the
//     extend distance only) to each outer vertex bounds the penumbra's
//     angular extent on that side.
//
// Returns (quads, umbra, ok); ok is false if the occluder has fewer than 3
// points or the light sits inside/behind it (no shadow to cast).
func ComputePenumbras(l *Light, lc *LightCollider, configDefault float64) (quads []PenumbraQuad, umbra []UmbraSegment, ok bool) {
	pts := lc.Points
	n := len(pts)
	if n < 3 {
		return nil, nil, false
	}
	source := Vec2{l.X, l.Y}
	extend := shadowExtendFor(l, configDefault)
	if extend <= 0 {
		return nil, nil, false
	}

	// A point is "front facing" (lit side) if the light lies on the
	// outward side of the edge from that point to its successor.
	front := make([]bool, n)
	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]
		edge := Vec2{b.X - a.X, b.Y - a.Y}
		toLight := Vec2{source.X - a.X, source.Y - a.Y}
		cross := edge.X*toLight.Y - edge.Y*toLight.X
		front[i] = cross < 0
	}

	anyFront, anyBack := false, false
	for i := 0; i < n; i++ {
		if front[i] {
			anyFront = true
		} else {
			anyBack = true
		}
	}
	if !anyFront || !anyBack {
		// Entirely lit (light sees every edge as front-facing) or entirely
		// behind (the light is inside the occluder): no silhouette edges.
		return nil, nil, false
	}

	castRay := func(v Vec2) Vec2 {
		dir := normalize(Vec2{v.X - source.X, v.Y - source.Y})
		dist := math.Hypot(v.X-source.X, v.Y-source.Y)
		far := dist + extend
		return Vec2{source.X + dir.X*far, source.Y + dir.Y*far}
	}

	for i := 0; i < n; i++ {
		j := (i + 1) % n
		// A silhouette edge transitions between front and back facing; only
		// these edges bound the occluder's shadow-casting boundary.
		if front[i] == front[j] {
			continue
		}
		a, b := pts[i], pts[j]
		// Orient so `inner` is the back-facing (umbra) endpoint and `outer`
		// is the front-facing (penumbra) endpoint of this silhouette edge.
		inner, outer := a, b
		if front[i] {
			inner, outer = b, a
		}

		innerFar := castRay(inner)
		outerFar := castRay(outer)

		dist := math.Hypot((inner.X+outer.X)/2-source.X, (inner.Y+outer.Y)/2-source.Y)
		quads = append(quads, PenumbraQuad{
			Source:          source,
			LightEdge:       [2]Vec2{outer, outerFar},
			DarkEdge:        [2]Vec2{inner, innerFar},
			LightBrightness: 1.0,
			DarkBrightness:  0.0,
			Distance:        dist,
		})
		umbra = append(umbra, UmbraSegment{
			Near: [2]Vec2{inner, outer},
			Far:  [2]Vec2{innerFar, outerFar},
		})
	}
	return quads, umbra, len(quads) > 0
}

// AntumbraRegion marks a region behind a small occluder where the two umbra
// rays re-cross and light "re-emerges" beyond the occluder's far shadow
// (spec §4.6.e). Occurs only when the occluder is small relative to the
// light radius, i.e. the two umbra near-rays are converging rather than
// parallel/diverging.
type AntumbraRegion struct {
	Apex  Vec2
	Start [2]Vec2
}

// ComputeAntumbra finds where the umbra segment's two far rays cross beyond
// the occluder (an antumbra apex), returning ok=false when the rays diverge
// (large occluder relative to the light — a pure umbra with no re-emergence).
func ComputeAntumbra(u UmbraSegment) (region AntumbraRegion, ok bool) {
	apex, hit := segmentIntersection(u.Near[0], u.Far[0], u.Near[1], u.Far[1])
	if !hit {
		return AntumbraRegion{}, false
	}
	return AntumbraRegion{Apex: apex, Start: u.Near}, true
}

// segmentIntersection returns the point where line p1-p2 crosses line
// p3-p4 (treated as infinite rays beyond p2/p4), if any.
func segmentIntersection(p1, p2, p3, p4 Vec2) (Vec2, bool) {
	d1 := Vec2{p2.X - p1.X, p2.Y - p1.Y}
	d2 := Vec2{p4.X - p3.X, p4.Y - p3.Y}
	denom := d1.X*d2.Y - d1.Y*d2.X
	if math.Abs(denom) < 1e-9 {
		return Vec2{}, false
	}
	t := ((p3.X-p1.X)*d2.Y - (p3.Y-p1.Y)*d2.X) / denom
	if t <= 0 {
		return Vec2{}, false
	}
	return Vec2{p1.X + d1.X*t, p1.Y + d1.Y*t}, true
}

// AmbientLight is the current (possibly mid-transition) ambient color, with
// fractional per-channel carry so repeated small steps don't lose precision
// to integer-ish rounding (spec §4.6 "fractional carry accumulated between
// frames").
type AmbientLight struct {
	Current Color
	carry   [4]float64
}

// ambientChannelUnits is the 8-bit-per-channel resolution spec §8's
// "⌈256·speed/Δ⌉ frames" bound is expressed in, even though [Color] itself
// stores channels as float64 in [0,1]: each frame nudges a channel by
// 1/ambientChannelUnits once the accumulated carry reaches a whole unit,
// matching the source's integer-color carry bookkeeping at this
// resolution.
const ambientChannelUnits = 256.0

// InterpolateAmbientLight advances AmbientLight.Current toward target at a
// fixed per-frame rate of delta/speed (in 8-bit channel units), per spec
// §4.6 `interpolate_ambient_light(target, speed)`: each call accumulates
// delta/speed into a per-channel carry; once the carry reaches one whole
// unit, the channel moves by that many units toward target (clamped), and
// the consumed whole part is subtracted back out of the carry so fractional
// progress survives across frames. A speed of 0 snaps immediately.
func (a *AmbientLight) InterpolateAmbientLight(target Color, speed, delta float64) {
	if speed <= 0 {
		a.Current = target
		a.carry = [4]float64{}
		return
	}
	channels := [4]*float64{&a.Current.R, &a.Current.G, &a.Current.B, &a.Current.A}
	targets := [4]float64{target.R, target.G, target.B, target.A}
	step := delta / speed
	for i, ch := range channels {
		diff := targets[i] - *ch
		if diff == 0 {
			continue
		}
		dir := 1.0
		if diff < 0 {
			dir = -1.0
		}
		a.carry[i] += step
		if whole := math.Floor(a.carry[i]); whole >= 1 {
			a.carry[i] -= whole
			*ch += dir * whole / ambientChannelUnits
		}
		if (dir > 0 && *ch > targets[i]) || (dir < 0 && *ch < targets[i]) {
			*ch = targets[i]
			a.carry[i] = 0
		}
	}
}

// LightAffector is a per-frame update callback bound to one [Light],
// implementing scripted lighting effects (spec §4.6 "Light affector").
type LightAffector func(delta float64, l *Light)

// PeriodicFlicker returns a [LightAffector] that oscillates the light's
// radius sinusoidally between [radius*(1-amplitude), radius*(1+amplitude)]
// with the given period in seconds, grounded on spec §4.6's "periodic
// flicker (scale oscillates within bounding box)".
func PeriodicFlicker(baseRadius, amplitude, period float64) LightAffector {
	var t float64
	return func(delta float64, l *Light) {
		t += delta
		phase := 2 * math.Pi * t / period
		l.Radius = baseRadius * (1 + amplitude*math.Sin(phase))
	}
}

// RandomizedFlicker returns a [LightAffector] implementing spec §4.6's
// "randomized flicker (period sampled each cycle)": the radius jumps to a
// new random value in [baseRadius*(1-amplitude), baseRadius*(1+amplitude)]
// every time the current (randomly sampled) period elapses.
func RandomizedFlicker(baseRadius, amplitude, minPeriod, maxPeriod float64) LightAffector {
	var elapsed, period float64
	resample := func() {
		span := maxPeriod - minPeriod
		period = minPeriod
		if span > 0 {
			period += rand.Float64() * span
		}
	}
	resample()
	return func(delta float64, l *Light) {
		elapsed += delta
		if elapsed >= period {
			elapsed = 0
			resample()
			offset := (rand.Float64()*2 - 1) * amplitude
			l.Radius = baseRadius * (1 + offset)
		}
	}
}

// ShadowPipeline owns the four auxiliary render targets the lighting
// pipeline composites per frame (spec §4.6): light, emission, antumbra, and
// composition. The [LightLayer] embeds one of these to perform full
// penumbra-aware shadow casting rather than the plain erase-blend glow it
// falls back to when no occluders are registered.
type ShadowPipeline struct {
	Light       *RenderTexture
	Emission    *RenderTexture
	Antumbra    *RenderTexture
	Composition *RenderTexture
	Ambient     AmbientLight

	colliders []*LightCollider
}

// NewShadowPipeline allocates the four render targets at (w x h).
func NewShadowPipeline(w, h int) *ShadowPipeline {
	return &ShadowPipeline{
		Light:       NewRenderTexture(w, h),
		Emission:    NewRenderTexture(w, h),
		Antumbra:    NewRenderTexture(w, h),
		Composition: NewRenderTexture(w, h),
		Ambient:     AmbientLight{Current: ColorWhite},
	}
}

// AddCollider registers an occluder with the pipeline.
func (sp *ShadowPipeline) AddCollider(lc *LightCollider) {
	sp.colliders = append(sp.colliders, lc)
}

// RemoveCollider unregisters an occluder.
func (sp *ShadowPipeline) RemoveCollider(lc *LightCollider) {
	for i, existing := range sp.colliders {
		if existing == lc {
			sp.colliders = append(sp.colliders[:i], sp.colliders[i+1:]...)
			return
		}
	}
}

// Colliders returns the registered occluder list; callers must not mutate
// the returned slice.
func (sp *ShadowPipeline) Colliders() []*LightCollider { return sp.colliders }

// QueryOccluders returns the active, in-range colliders for light l, as
// spec §4.6.a describes ("query the quadtree of the light's layer with L's
// bounding box"). When a quadtree is supplied, it is used for the broad
// phase; otherwise every registered collider is checked directly (small
// scenes, or tests that don't wire a quadtree).
func (sp *ShadowPipeline) QueryOccluders(l *Light, qt *Quadtree) []*LightCollider {
	lightBox := Rect{l.X - l.Radius, l.Y - l.Radius, l.Radius * 2, l.Radius * 2}
	var candidates []*LightCollider
	if qt == nil {
		candidates = sp.colliders
	} else {
		for _, el := range qt.Retrieve(lightBox) {
			if lc, ok := el.(*LightCollider); ok {
				candidates = append(candidates, lc)
			}
		}
	}
	out := make([]*LightCollider, 0, len(candidates))
	for _, lc := range candidates {
		if !lc.Active {
			continue
		}
		if lightBox.Intersects(lc.BoundingBox()) {
			out = append(out, lc)
		}
	}
	return out
}

// Compose runs one frame of the pipeline (spec §4.6 "Per frame"):
//  1. clear Composition to the current ambient color;
//  2. for each active, camera-visible light, query occluders, build the
//     penumbra quad + antumbra list, and additive-blend the result into
//     Composition.
//
// Rendering the quads/antumbra geometry into the Light/Antumbra targets
// with the shader pair named in Config (light_frag_shader etc.) is left to
// the host's draw call; Compose performs the CPU-side geometry and
// bookkeeping steps that are part of the engine core.
func (sp *ShadowPipeline) Compose(lights []*Light, qt *Quadtree, configDefault float64) map[*Light][]PenumbraQuad {
	sp.Composition.Image().Fill(sp.Ambient.Current.toRGBA())
	result := make(map[*Light][]PenumbraQuad, len(lights))
	for _, l := range lights {
		if !l.Enabled {
			continue
		}
		occluders := sp.QueryOccluders(l, qt)
		var quads []PenumbraQuad
		for _, lc := range occluders {
			qs, _, ok := ComputePenumbras(l, lc, configDefault)
			if ok {
				quads = append(quads, qs...)
			}
		}
		result[l] = quads
	}
	return result
}

// Dispose releases the pipeline's render targets.
func (sp *ShadowPipeline) Dispose() {
	for _, rt := range []*RenderTexture{sp.Light, sp.Emission, sp.Antumbra, sp.Composition} {
		if rt != nil {
			rt.Dispose()
		}
	}
	sp.Light, sp.Emission, sp.Antumbra, sp.Composition = nil, nil, nil, nil
	sp.colliders = nil
}
