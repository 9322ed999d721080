package vesper

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// computeLocalTransform computes the local affine matrix from the node's
// transform properties. Returns [a, b, c, d, tx, ty].
//
// Composition order (spec 5.5):
//
//	Translate(-PivotX, -PivotY) -> Scale -> Skew -> Rotate -> Translate(X, Y)
func computeLocalTransform(n *Node) [6]float64 {
	sx := n.ScaleX
	sy := n.ScaleY

	sin, cos := math.Sincos(n.Rotation)

	var tanSkewX, tanSkewY float64
	if n.SkewX != 0 {
		tanSkewX = math.Tan(n.SkewX)
	}
	if n.SkewY != 0 {
		tanSkewY = math.Tan(n.SkewY)
	}

	// After Scale * Translate(-pivot):
	//   a=sx, b=0, c=0, d=sy, tx=-px*sx, ty=-py*sy
	//
	// After Skew:
	a := sx
	b := tanSkewY * sx
	c := tanSkewX * sy
	d := sy

	px := n.PivotX
	py := n.PivotY
	preTx := -px*sx - tanSkewX*py*sy
	preTy := -tanSkewY*px*sx - py*sy

	// After Rotate:
	ra := cos*a - sin*b
	rb := sin*a + cos*b
	rc := cos*c - sin*d
	rd := sin*c + cos*d
	rtx := cos*preTx - sin*preTy
	rty := sin*preTx + cos*preTy

	// After Translate(X, Y):
	return [6]float64{ra, rb, rc, rd, rtx + n.X, rty + n.Y}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	Matrix layout: [a, b, c, d, tx, ty]
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// invertAffine computes the inverse of a 2D affine matrix.
// Returns the identity matrix if the matrix is singular (determinant â‰ˆ 0).
func invertAffine(m [6]float64) [6]float64 {
	det := m[0]*m[3] - m[2]*m[1]
	if det > -1e-12 && det < 1e-12 {
		return identityTransform
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return [6]float64{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// transformPoint applies an affine matrix to a point.
func transformPoint(m [6]float64, x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// updateWorldTransform recomputes a node's worldTransform and worldAlpha.
// parentRecomputed indicates whether the parent was recomputed this frame,
// which forces recomputation of this node even if it's not dirty.
func updateWorldTransform(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool) {
	recompute := n.transformDirty || parentRecomputed
	if recompute {
		local := computeLocalTransform(n)
		n.worldTransform = multiplyAffine(parentTransform, local)
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}

	for _, child := range n.children {
		updateWorldTransform(child, n.worldTransform, n.worldAlpha, recompute)
	}
}

// --- Transform property setters ---

// SetPosition sets the node's local X and Y and marks it dirty.
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
	n.transformDirty = true
}

// SetScale sets the node's ScaleX and ScaleY and marks it dirty.
func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX = sx
	n.ScaleY = sy
	n.transformDirty = true
}

// SetRotation sets the node's rotation (in radians) and marks it dirty.
func (n *Node) SetRotation(r float64) {
	n.Rotation = r
	n.transformDirty = true
}

// SetSkew sets the node's SkewX and SkewY and marks it dirty.
func (n *Node) SetSkew(sx, sy float64) {
	n.SkewX = sx
	n.SkewY = sy
	n.transformDirty = true
}

// SetPivot sets the node's PivotX and PivotY and marks it dirty.
func (n *Node) SetPivot(px, py float64) {
	n.PivotX = px
	n.PivotY = py
	n.transformDirty = true
}

// SetAlpha sets the node's alpha and marks it dirty.
func (n *Node) SetAlpha(a float64) {
	n.Alpha = a
	n.transformDirty = true
	n.alphaDirty = true
}

// MarkDirty marks the node's transform as dirty, forcing recomputation
// on the next frame. Useful after bulk-setting fields directly.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}

// --- Entity transform component & handler (spec §4.2) ---
//
// TransformComponent/TransformHandler are distinct from Node's scene-graph
// transform above: Node drives rendering (affine composition down a parent
// chain); TransformComponent is the ECS-facing position/scale/bounds record
// spec §4.2 and §3's Data Model describe, one per Entity, tracked in the
// quadtree of the entity's layer. Grounded on
// `original_source/src/ungod/base/Transform.h`'s TransformComponent/
// TransformHandler split: a quadtree-backed manager that owns every
// entity's position/scale/bounds mutation and emits change signals,
// distinct from any one entity's own data.

// TransformComponent holds one entity's position, scale, local bounds, and
// baseline offsets (spec §3, §4.2). LowerBound/UpperBound are maintained by
// TransformHandler.HandleContentsChanged as the union of every
// content-reporter's local bounds (sprites, colliders, ...), exactly as
// Transform.h's mUpperBound/mLowerBound are updated by
// TransformHandler::handleContentsChanged.
type TransformComponent struct {
	entity Entity

	Position Vec2
	Scale    Vec2

	LowerBound Vec2
	UpperBound Vec2

	BaselineOffsets Vec2
}

// ElementID and Bounds implement QuadElement, letting a TransformComponent
// live in the quadtree of the entity's layer directly.
func (tc *TransformComponent) ElementID() Entity { return tc.entity }

func (tc *TransformComponent) Bounds() Rect {
	return Rect{
		X:      tc.Position.X + tc.LowerBound.X*tc.Scale.X,
		Y:      tc.Position.Y + tc.LowerBound.Y*tc.Scale.Y,
		Width:  (tc.UpperBound.X - tc.LowerBound.X) * tc.Scale.X,
		Height: (tc.UpperBound.Y - tc.LowerBound.Y) * tc.Scale.Y,
	}
}

// Size returns the local bounding size (UpperBound - LowerBound), matching
// TransformComponent::getSize().
func (tc *TransformComponent) Size() Vec2 {
	return Vec2{X: tc.UpperBound.X - tc.LowerBound.X, Y: tc.UpperBound.Y - tc.LowerBound.Y}
}

// TransformHandler is the manager structure that performs every mutation
// to every entity's TransformComponent, notifying the owning quadtree and
// any registered signal callbacks on every change (spec §4.2;
// Transform.h's TransformHandler).
type TransformHandler struct {
	quadtree   *Quadtree
	components map[Entity]*TransformComponent

	onPositionChanged []func(Entity, Vec2)
	onScaleChanged    []func(Entity, Vec2)
	onSizeChanged     []func(Entity, Vec2)
	onMoveContents    []func(Entity, Vec2)
}

// NewTransformHandler creates a handler backed by the given layer quadtree.
func NewTransformHandler(q *Quadtree) *TransformHandler {
	return &TransformHandler{quadtree: q, components: make(map[Entity]*TransformComponent)}
}

// Register creates and indexes a new TransformComponent for e at position,
// inserting it into the handler's quadtree.
func (h *TransformHandler) Register(e Entity, position Vec2) *TransformComponent {
	tc := &TransformComponent{entity: e, Position: position, Scale: Vec2{X: 1, Y: 1}}
	h.components[e] = tc
	h.quadtree.Insert(tc)
	return tc
}

// Remove removes e's TransformComponent from both the handler and its
// quadtree.
func (h *TransformHandler) Remove(e Entity) {
	if tc, ok := h.components[e]; ok {
		h.quadtree.Remove(tc)
		delete(h.components, e)
	}
}

// Component returns e's TransformComponent, if registered.
func (h *TransformHandler) Component(e Entity) (*TransformComponent, bool) {
	tc, ok := h.components[e]
	return tc, ok
}

// SetPosition sets e's absolute position, notifies the quadtree via
// ChangedProperties, and fires the position-changed signal.
func (h *TransformHandler) SetPosition(e Entity, position Vec2) {
	tc, ok := h.components[e]
	if !ok {
		return
	}
	tc.Position = position
	h.quadtree.ChangedProperties(tc)
	for _, cb := range h.onPositionChanged {
		cb(e, tc.Position)
	}
}

// Move translates e's position by vec, notifies the quadtree, and fires
// both the position-changed and move-contents signals — the latter lets
// attached content (e.g. a camera-follow offset) react to relative motion
// without recomputing it from two absolute positions.
func (h *TransformHandler) Move(e Entity, vec Vec2) {
	tc, ok := h.components[e]
	if !ok {
		return
	}
	tc.Position = Vec2{X: tc.Position.X + vec.X, Y: tc.Position.Y + vec.Y}
	h.quadtree.ChangedProperties(tc)
	for _, cb := range h.onPositionChanged {
		cb(e, tc.Position)
	}
	for _, cb := range h.onMoveContents {
		cb(e, vec)
	}
}

// SetScale sets e's scale, notifies the quadtree (bounds scale with it),
// and fires the scale-changed signal.
func (h *TransformHandler) SetScale(e Entity, scale Vec2) {
	tc, ok := h.components[e]
	if !ok {
		return
	}
	tc.Scale = scale
	h.quadtree.ChangedProperties(tc)
	for _, cb := range h.onScaleChanged {
		cb(e, scale)
	}
}

// SetBaselineOffsets sets e's left/right baseline anchor offsets.
func (h *TransformHandler) SetBaselineOffsets(e Entity, offsets Vec2) {
	if tc, ok := h.components[e]; ok {
		tc.BaselineOffsets = offsets
	}
}

// HandleContentsChanged grows or shrinks e's local bounds to the union with
// rect (spec §4.2): a content-reporter (sprite, collider, ...) calls this
// whenever its own local bounds change. Only triggers the size-changed
// signal and a quadtree rebalance if the union actually moved.
func (h *TransformHandler) HandleContentsChanged(e Entity, rect Rect) {
	tc, ok := h.components[e]
	if !ok {
		return
	}
	lower := Vec2{X: math.Min(tc.LowerBound.X, rect.X), Y: math.Min(tc.LowerBound.Y, rect.Y)}
	upper := Vec2{
		X: math.Max(tc.UpperBound.X, rect.X+rect.Width),
		Y: math.Max(tc.UpperBound.Y, rect.Y+rect.Height),
	}
	if lower == tc.LowerBound && upper == tc.UpperBound {
		return
	}
	tc.LowerBound, tc.UpperBound = lower, upper
	h.quadtree.ChangedProperties(tc)
	for _, cb := range h.onSizeChanged {
		cb(e, tc.Size())
	}
}

// OnPositionChanged registers a callback invoked after every SetPosition/
// Move call.
func (h *TransformHandler) OnPositionChanged(cb func(Entity, Vec2)) {
	h.onPositionChanged = append(h.onPositionChanged, cb)
}

// OnScaleChanged registers a callback invoked after every SetScale call.
func (h *TransformHandler) OnScaleChanged(cb func(Entity, Vec2)) {
	h.onScaleChanged = append(h.onScaleChanged, cb)
}

// OnSizeChanged registers a callback invoked whenever HandleContentsChanged
// actually grows or shrinks an entity's bounds.
func (h *TransformHandler) OnSizeChanged(cb func(Entity, Vec2)) {
	h.onSizeChanged = append(h.onSizeChanged, cb)
}

// OnMoveContents registers a callback invoked after every Move call with
// the relative delta vector.
func (h *TransformHandler) OnMoveContents(cb func(Entity, Vec2)) {
	h.onMoveContents = append(h.onMoveContents, cb)
}

// --- Coordinate conversion ---

// WorldToLocal converts a world-space point to this node's local coordinate space.
func (n *Node) WorldToLocal(wx, wy float64) (lx, ly float64) {
	inv := invertAffine(n.worldTransform)
	return transformPoint(inv, wx, wy)
}

// LocalToWorld converts a local-space point to world-space.
func (n *Node) LocalToWorld(lx, ly float64) (wx, wy float64) {
	return transformPoint(n.worldTransform, lx, ly)
}
