package vesper

import "fmt"

// Layer is one parallax-depth slice of a [LayerContainer]: a named spatial
// partition with its own quadtree, sized independently of the container it
// belongs to (spec §4.4).
type Layer struct {
	name        string
	renderDepth float64
	size        Vec2
	container   *LayerContainer
	tree        *Quadtree
}

// NewLayer creates a layer of the given size and render depth, owned by
// container. renderDepth must be in (0, 1]; values outside that range are
// clamped (spec §4.4: "RenderDepth ∈(0,1]").
func NewLayer(container *LayerContainer, name string, size Vec2, renderDepth float64) *Layer {
	if renderDepth <= 0 {
		renderDepth = 0.0001
	}
	if renderDepth > 1 {
		renderDepth = 1
	}
	return &Layer{
		name:        name,
		renderDepth: renderDepth,
		size:        size,
		container:   container,
		tree:        NewQuadtree(Rect{0, 0, size.X, size.Y}),
	}
}

// Name returns the layer's identifier, unique within its container.
func (l *Layer) Name() string { return l.name }

// RenderDepth returns the layer's parallax depth factor.
func (l *Layer) RenderDepth() float64 { return l.renderDepth }

// Size returns the layer's extent, independent of its container's size.
func (l *Layer) Size() Vec2 { return l.size }

// Container returns the layer container this layer belongs to.
func (l *Layer) Container() *LayerContainer { return l.container }

// Tree returns the layer's spatial index.
func (l *Layer) Tree() *Quadtree { return l.tree }

// ViewCenter computes the parallax-adjusted view center for this layer
// given the camera's world-space center (spec §4.4):
//
//	view_center = container_position + depth·(camera_center − container_position)
func (l *Layer) ViewCenter(cameraCenter Vec2) Vec2 {
	cp := l.container.Position()
	return Vec2{
		X: cp.X + l.renderDepth*(cameraCenter.X-cp.X),
		Y: cp.Y + l.renderDepth*(cameraCenter.Y-cp.Y),
	}
}

type layerEntry struct {
	layer  *Layer
	active bool
}

// LayerContainer is a world-graph node's render-side counterpart: a
// positioned, sized region holding an ordered stack of [Layer]s, one of
// which is designated "main" (spec §4.4). Reordering a layer's position in
// the stack is deferred to the next Flush call so render iteration never
// observes a half-applied reorder mid-frame.
type LayerContainer struct {
	position Vec2
	size     Vec2

	entries  []layerEntry
	byName   map[string]int
	mainName string

	reorders []reorderOp
}

type reorderOp struct {
	name     string
	newIndex int
}

// NewLayerContainer creates an empty layer container at the given
// position and size.
func NewLayerContainer(position, size Vec2) *LayerContainer {
	return &LayerContainer{
		position: position,
		size:     size,
		byName:   make(map[string]int),
	}
}

// Position returns the container's world-space position.
func (lc *LayerContainer) Position() Vec2 { return lc.position }

// SetPosition repositions the container (e.g. when its owning world-graph
// node is relocated).
func (lc *LayerContainer) SetPosition(p Vec2) { lc.position = p }

// Size returns the container's extent.
func (lc *LayerContainer) Size() Vec2 { return lc.size }

// AddLayer appends a new layer to the top of the stack, active by default.
// If this is the first layer added, it becomes the main layer.
func (lc *LayerContainer) AddLayer(name string, size Vec2, renderDepth float64) *Layer {
	l := NewLayer(lc, name, size, renderDepth)
	lc.byName[name] = len(lc.entries)
	lc.entries = append(lc.entries, layerEntry{layer: l, active: true})
	if lc.mainName == "" {
		lc.mainName = name
	}
	return l
}

// Layer looks up a layer by name.
func (lc *LayerContainer) Layer(name string) (*Layer, bool) {
	idx, ok := lc.byName[name]
	if !ok {
		return nil, false
	}
	return lc.entries[idx].layer, true
}

// SetMain designates name as the container's main layer. Panics if no such
// layer exists, mirroring the way [LayerContainer] treats a missing layer
// name as a programmer error elsewhere in this file.
func (lc *LayerContainer) SetMain(name string) {
	if _, ok := lc.byName[name]; !ok {
		panic(fmt.Sprintf("vesper: SetMain: no such layer %q", name))
	}
	lc.mainName = name
}

// Main returns the container's main layer.
func (lc *LayerContainer) Main() *Layer {
	l, _ := lc.Layer(lc.mainName)
	return l
}

// SetActive toggles whether a layer participates in iteration via
// ActiveLayers. Returns false if no such layer exists.
func (lc *LayerContainer) SetActive(name string, active bool) bool {
	idx, ok := lc.byName[name]
	if !ok {
		return false
	}
	lc.entries[idx].active = active
	return true
}

// Active reports whether a layer is currently active.
func (lc *LayerContainer) Active(name string) bool {
	idx, ok := lc.byName[name]
	if !ok {
		return false
	}
	return lc.entries[idx].active
}

// Layers returns every layer in stack order (bottom to top).
func (lc *LayerContainer) Layers() []*Layer {
	out := make([]*Layer, len(lc.entries))
	for i, e := range lc.entries {
		out[i] = e.layer
	}
	return out
}

// ActiveLayers returns only the active layers, in stack order.
func (lc *LayerContainer) ActiveLayers() []*Layer {
	out := make([]*Layer, 0, len(lc.entries))
	for _, e := range lc.entries {
		if e.active {
			out = append(out, e.layer)
		}
	}
	return out
}

// RequestReorder queues a stack-position change for name, applied on the
// next Flush. Multiple requests for the same layer before a Flush leave
// only the last one in effect.
func (lc *LayerContainer) RequestReorder(name string, newIndex int) {
	for i, op := range lc.reorders {
		if op.name == name {
			lc.reorders[i].newIndex = newIndex
			return
		}
	}
	lc.reorders = append(lc.reorders, reorderOp{name: name, newIndex: newIndex})
}

// Flush applies any queued reorders, rebuilding the stack order and name
// index. Call once per frame, between update and draw.
func (lc *LayerContainer) Flush() {
	if len(lc.reorders) == 0 {
		return
	}
	for _, op := range lc.reorders {
		idx, ok := lc.byName[op.name]
		if !ok {
			continue
		}
		entry := lc.entries[idx]
		lc.entries = append(lc.entries[:idx], lc.entries[idx+1:]...)
		newIndex := op.newIndex
		if newIndex < 0 {
			newIndex = 0
		}
		if newIndex > len(lc.entries) {
			newIndex = len(lc.entries)
		}
		lc.entries = append(lc.entries, layerEntry{})
		copy(lc.entries[newIndex+1:], lc.entries[newIndex:])
		lc.entries[newIndex] = entry
	}
	lc.reorders = lc.reorders[:0]
	for i, e := range lc.entries {
		lc.byName[e.layer.name] = i
	}
}
