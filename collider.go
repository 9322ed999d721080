package vesper

import "math"

// MaxColliderParams bounds the inline float parameter buffer every
// [Collider] carries (spec §3).
const MaxColliderParams = 12

// pointContainsEpsilon is the hardcoded distance threshold used by
// [Collider.ContainsPoint] for edge-chain colliders (spec §4.3).
const pointContainsEpsilon = 0.5

// ColliderShape tags the variant held by a [Collider].
type ColliderShape uint8

const (
	ColliderUndefined ColliderShape = iota
	ColliderRotatedRect
	ColliderConvexPolygon
	ColliderEdgeChain
)

// CollisionTransform is the position+scale pair a [Collider] is evaluated
// against — the world-space placement contributed by an entity's
// [Transform] (spec §4.3: "given two colliders with their entity
// transforms").
type CollisionTransform struct {
	Position Vec2
	Scale    Vec2
}

// Collider is a tagged variant over {RotatedRect, ConvexPolygon, EdgeChain},
// each with at most [MaxColliderParams] float64 parameters (spec §3/§4.3).
// All colliders expose bounding box, transform, move, and SAT axes/pivots.
type Collider struct {
	shape     ColliderShape
	params    [MaxColliderParams]float64
	numParams int
}

// Reset returns the collider to an undefined state; it is ignored in all
// computations while undefined (spec §4.3).
func (c *Collider) Reset() {
	*c = Collider{}
}

// Shape returns the collider's variant tag.
func (c *Collider) Shape() ColliderShape { return c.shape }

// Param returns the ith float parameter.
func (c *Collider) Param(i int) float64 { return c.params[i] }

// SetParam sets the ith float parameter.
func (c *Collider) SetParam(i int, v float64) { c.params[i] = v }

// NumParam returns the number of actively-used float parameters.
func (c *Collider) NumParam() int { return c.numParams }

// InitRotatedRect configures the collider as a rotated rectangle spanning
// upleft..downright (in local space, pre-rotation) and rotated by rotation
// radians about the rectangle's own center.
func (c *Collider) InitRotatedRect(upleft, downright Vec2, rotation float64) {
	c.shape = ColliderRotatedRect
	c.params[0] = rotation
	c.params[1], c.params[2] = upleft.X, upleft.Y
	c.params[3], c.params[4] = downright.X, downright.Y
	c.numParams = 5
}

// InitConvexPolygon configures the collider as a convex polygon with the
// given points, in winding order, local space. At most
// MaxColliderParams/2 points are supported.
func (c *Collider) InitConvexPolygon(points []Vec2) {
	c.initPoints(ColliderConvexPolygon, points)
}

// InitEdgeChain configures the collider as an open line strip through the
// given points, local space.
func (c *Collider) InitEdgeChain(points []Vec2) {
	c.initPoints(ColliderEdgeChain, points)
}

func (c *Collider) initPoints(shape ColliderShape, points []Vec2) {
	n := len(points)
	if n > MaxColliderParams/2 {
		n = MaxColliderParams / 2
	}
	c.shape = shape
	for i := 0; i < n; i++ {
		c.params[2*i] = points[i].X
		c.params[2*i+1] = points[i].Y
	}
	c.numParams = 2 * n
}

func (c *Collider) localPoints() []Vec2 {
	n := c.numParams / 2
	pts := make([]Vec2, n)
	for i := 0; i < n; i++ {
		pts[i] = Vec2{c.params[2*i], c.params[2*i+1]}
	}
	return pts
}

func (c *Collider) rotatedRectCorners() (upleft, downright Vec2, rotation float64) {
	rotation = c.params[0]
	upleft = Vec2{c.params[1], c.params[2]}
	downright = Vec2{c.params[3], c.params[4]}
	return
}

// worldPoints returns this collider's geometry transformed into world space
// by t: rotated-rect corners are rotated about the rect's local center then
// scaled+translated; polygon/edge-chain points are scaled+translated
// directly (they carry no independent rotation — the Transform they're
// evaluated against has none, per spec §3).
func (c *Collider) worldPoints(t CollisionTransform) []Vec2 {
	switch c.shape {
	case ColliderRotatedRect:
		upleft, downright, rotation := c.rotatedRectCorners()
		cx := (upleft.X + downright.X) / 2
		cy := (upleft.Y + downright.Y) / 2
		corners := []Vec2{
			{upleft.X, upleft.Y},
			{downright.X, upleft.Y},
			{downright.X, downright.Y},
			{upleft.X, downright.Y},
		}
		sin, cos := math.Sincos(rotation)
		out := make([]Vec2, 4)
		for i, p := range corners {
			lx, ly := p.X-cx, p.Y-cy
			rx := lx*cos - ly*sin + cx
			ry := lx*sin + ly*cos + cy
			out[i] = Vec2{rx*t.Scale.X + t.Position.X, ry*t.Scale.Y + t.Position.Y}
		}
		return out
	case ColliderConvexPolygon, ColliderEdgeChain:
		local := c.localPoints()
		out := make([]Vec2, len(local))
		for i, p := range local {
			out[i] = Vec2{p.X*t.Scale.X + t.Position.X, p.Y*t.Scale.Y + t.Position.Y}
		}
		return out
	default:
		return nil
	}
}

// BoundingBox returns the collider's world-space axis-aligned bounding box.
func (c *Collider) BoundingBox(t CollisionTransform) Rect {
	pts := c.worldPoints(t)
	if len(pts) == 0 {
		return Rect{}
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return Rect{minX, minY, maxX - minX, maxY - minY}
}

// Move offsets the collider's stored local parameters by vec. Used to
// permanently relocate a standalone collider (e.g. applying an MTV
// directly to collider geometry rather than an entity's transform).
func (c *Collider) Move(vec Vec2) {
	switch c.shape {
	case ColliderRotatedRect:
		c.params[1] += vec.X
		c.params[2] += vec.Y
		c.params[3] += vec.X
		c.params[4] += vec.Y
	case ColliderConvexPolygon, ColliderEdgeChain:
		n := c.numParams / 2
		for i := 0; i < n; i++ {
			c.params[2*i] += vec.X
			c.params[2*i+1] += vec.Y
		}
	}
}

// satFeature is one group of axes+pivots contributed to a SAT test. A
// rotated rect or convex polygon contributes exactly one feature covering
// the whole shape; an edge chain contributes one feature per edge, since
// spec §4.3 has it "run SAT once per edge".
type satFeature struct {
	axes   []Vec2
	pivots []Vec2
}

func normalize(v Vec2) Vec2 {
	len2 := v.X*v.X + v.Y*v.Y
	if len2 < 1e-12 {
		return Vec2{}
	}
	invLen := 1 / math.Sqrt(len2)
	return Vec2{v.X * invLen, v.Y * invLen}
}

func perp(v Vec2) Vec2 { return Vec2{-v.Y, v.X} }

func edgeAxes(pts []Vec2, closed bool) []Vec2 {
	n := len(pts)
	if n < 2 {
		return nil
	}
	limit := n
	if !closed {
		limit = n - 1
	}
	axes := make([]Vec2, 0, limit)
	for i := 0; i < limit; i++ {
		j := (i + 1) % n
		edge := Vec2{pts[j].X - pts[i].X, pts[j].Y - pts[i].Y}
		axes = append(axes, normalize(perp(edge)))
	}
	return axes
}

// rectAxes returns the 2 distinct separating axes of a rectangle: a
// rectangle's opposite edges share the same perpendicular, so unlike a
// general polygon it never needs more than the normals of its first two
// edges (spec §4.3).
func rectAxes(pts []Vec2) []Vec2 {
	if len(pts) < 2 {
		return nil
	}
	edge0 := Vec2{pts[1].X - pts[0].X, pts[1].Y - pts[0].Y}
	edge1 := Vec2{pts[2%len(pts)].X - pts[1].X, pts[2%len(pts)].Y - pts[1].Y}
	return []Vec2{normalize(perp(edge0)), normalize(perp(edge1))}
}

// satFeatures returns this collider's SAT feature list evaluated at t.
func (c *Collider) satFeatures(t CollisionTransform) []satFeature {
	pts := c.worldPoints(t)
	switch c.shape {
	case ColliderRotatedRect:
		return []satFeature{{axes: rectAxes(pts), pivots: pts}}
	case ColliderConvexPolygon:
		return []satFeature{{axes: edgeAxes(pts, true), pivots: pts}}
	case ColliderEdgeChain:
		feats := make([]satFeature, 0, len(pts)-1)
		for i := 0; i+1 < len(pts); i++ {
			edge := Vec2{pts[i+1].X - pts[i].X, pts[i+1].Y - pts[i].Y}
			feats = append(feats, satFeature{
				axes:   []Vec2{normalize(perp(edge))},
				pivots: []Vec2{pts[i], pts[i+1]},
			})
		}
		return feats
	default:
		return nil
	}
}

func centroid(pts []Vec2) Vec2 {
	if len(pts) == 0 {
		return Vec2{}
	}
	var sx, sy float64
	for _, p := range pts {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(pts))
	return Vec2{sx / n, sy / n}
}

// projectOntoAxis returns the [min, max] projection of pts onto axis.
func projectOntoAxis(pts []Vec2, axis Vec2) (min, max float64) {
	min = pts[0].X*axis.X + pts[0].Y*axis.Y
	max = min
	for _, p := range pts[1:] {
		d := p.X*axis.X + p.Y*axis.Y
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return
}

// CollisionResult is the outcome of a SAT test between two colliders.
type CollisionResult struct {
	Intersects bool
	// MTV is the minimum translation vector: translating collider 1 by MTV
	// separates the shapes (spec §4.3).
	MTV Vec2
}

// satSingle runs SAT for one pair of features, returning the smallest
// positive overlap axis (oriented away from centerB, toward centerA) as the
// MTV, or Intersects=false if any axis shows non-positive overlap
// (separating axis found).
func satSingle(fa, fb satFeature, centerA, centerB Vec2) (result CollisionResult) {
	axes := make([]Vec2, 0, len(fa.axes)+len(fb.axes))
	axes = append(axes, fa.axes...)
	axes = append(axes, fb.axes...)

	bestOverlap := math.Inf(1)
	var bestAxis Vec2
	found := false

	for _, axis := range axes {
		if axis == (Vec2{}) {
			continue
		}
		minA, maxA := projectOntoAxis(fa.pivots, axis)
		minB, maxB := projectOntoAxis(fb.pivots, axis)
		overlap := math.Min(maxA, maxB) - math.Max(minA, minB)
		if overlap <= 0 {
			return CollisionResult{Intersects: false}
		}
		if overlap < bestOverlap {
			bestOverlap = overlap
			bestAxis = axis
			found = true
		}
	}
	if !found {
		return CollisionResult{Intersects: false}
	}

	dir := Vec2{centerA.X - centerB.X, centerA.Y - centerB.Y}
	if bestAxis.X*dir.X+bestAxis.Y*dir.Y < 0 {
		bestAxis = Vec2{-bestAxis.X, -bestAxis.Y}
	}
	return CollisionResult{
		Intersects: true,
		MTV:        Vec2{bestAxis.X * bestOverlap, bestAxis.Y * bestOverlap},
	}
}

// Collide runs the separating-axis test between a (with transform ta) and
// b (with transform tb). When either collider is an edge chain, SAT runs
// once per edge (spec §4.3); the smallest-overlap intersecting combination
// wins. Returns Intersects=false if no combination overlaps on every axis.
func Collide(a *Collider, ta CollisionTransform, b *Collider, tb CollisionTransform) CollisionResult {
	featsA := a.satFeatures(ta)
	featsB := b.satFeatures(tb)
	if len(featsA) == 0 || len(featsB) == 0 {
		return CollisionResult{}
	}

	centerA := centroid(a.worldPoints(ta))
	centerB := centroid(b.worldPoints(tb))

	best := CollisionResult{}
	bestMag := math.Inf(1)
	for _, fa := range featsA {
		for _, fb := range featsB {
			r := satSingle(fa, fb, centerA, centerB)
			if !r.Intersects {
				continue
			}
			mag := r.MTV.X*r.MTV.X + r.MTV.Y*r.MTV.Y
			if mag < bestMag {
				bestMag = mag
				best = r
			}
		}
	}
	return best
}

// ContainsPoint reports whether the world-space point p lies inside the
// collider as placed by t (spec §4.3).
func (c *Collider) ContainsPoint(p Vec2, t CollisionTransform) bool {
	switch c.shape {
	case ColliderRotatedRect:
		upleft, downright, rotation := c.rotatedRectCorners()
		cx := (upleft.X + downright.X) / 2
		cy := (upleft.Y + downright.Y) / 2
		// World center of the rect.
		wcx := cx*t.Scale.X + t.Position.X
		wcy := cy*t.Scale.Y + t.Position.Y
		// Inverse translate then inverse rotate about the center.
		lx, ly := p.X-wcx, p.Y-wcy
		sin, cos := math.Sincos(-rotation)
		rx := lx*cos - ly*sin
		ry := lx*sin + ly*cos
		// Back into the rect's unscaled local frame, re-centered at origin.
		if t.Scale.X != 0 {
			rx /= t.Scale.X
		}
		if t.Scale.Y != 0 {
			ry /= t.Scale.Y
		}
		hw := (downright.X - upleft.X) / 2
		hh := (downright.Y - upleft.Y) / 2
		return rx >= -hw && rx <= hw && ry >= -hh && ry <= hh
	case ColliderConvexPolygon:
		pts := c.worldPoints(t)
		return polygonContainsPoint(pts, p)
	case ColliderEdgeChain:
		pts := c.worldPoints(t)
		for i := 0; i+1 < len(pts); i++ {
			if pointSegmentDistance(p, pts[i], pts[i+1]) <= pointContainsEpsilon {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// polygonContainsPoint uses the same-side cross-product test for a convex
// polygon, mirroring the scene graph's HitPolygon.Contains (input.go).
func polygonContainsPoint(pts []Vec2, p Vec2) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	var positive, negative bool
	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]
		cross := (b.X-a.X)*(p.Y-a.Y) - (b.Y-a.Y)*(p.X-a.X)
		if cross > 0 {
			positive = true
		} else if cross < 0 {
			negative = true
		}
		if positive && negative {
			return false
		}
	}
	return true
}

func pointSegmentDistance(p, a, b Vec2) float64 {
	abx, aby := b.X-a.X, b.Y-a.Y
	apx, apy := p.X-a.X, p.Y-a.Y
	lenSq := abx*abx + aby*aby
	if lenSq < 1e-12 {
		return math.Hypot(apx, apy)
	}
	t := (apx*abx + apy*aby) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	cx, cy := a.X+abx*t, a.Y+aby*t
	return math.Hypot(p.X-cx, p.Y-cy)
}
