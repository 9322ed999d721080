package vesper

// WorldNodeID identifies a node within a [WorldGraph].
type WorldNodeID int

// noNode is the zero value, never a valid node ID (node 0 is a legitimate
// ID, so callers compare against this sentinel rather than against 0).
const noNode WorldNodeID = -1

// WorldNode is one streamable region of a [WorldGraph]: a positioned,
// sized area of the world, an adjacency list to its graph neighbors, a
// local spatial index over the entities it currently owns, and a
// loaded/unloaded flag (spec §4.5).
type WorldNode struct {
	id        WorldNodeID
	position  Vec2
	size      Vec2
	neighbors []WorldNodeID
	entities  map[Entity]bool
	tree      *Quadtree
	loaded    bool
}

// worldNodeExpansionFactor is applied to a node's local quadtree bounds
// when an owned entity moves beyond its current extent (spec §4.5).
const worldNodeExpansionFactor = 1.5

// ElementID/Bounds let a *WorldNode serve as a [QuadElement] in the
// world-graph's node-lookup quadtree.
func (n *WorldNode) ElementID() Entity { return Entity(n.id) }
func (n *WorldNode) Bounds() Rect      { return Rect{n.position.X, n.position.Y, n.size.X, n.size.Y} }

// ID returns the node's identity.
func (n *WorldNode) ID() WorldNodeID { return n.id }

// Position returns the node's world-space origin.
func (n *WorldNode) Position() Vec2 { return n.position }

// Size returns the node's extent.
func (n *WorldNode) Size() Vec2 { return n.size }

// Loaded reports whether this node is currently in the active streaming
// window.
func (n *WorldNode) Loaded() bool { return n.loaded }

// Entities returns the entities this node currently owns.
func (n *WorldNode) Entities() []Entity {
	out := make([]Entity, 0, len(n.entities))
	for e := range n.entities {
		out = append(out, e)
	}
	return out
}

// growToFit expands the node's local quadtree boundary by
// worldNodeExpansionFactor until it contains p, re-centered on the node's
// current origin.
func (n *WorldNode) growToFit(p Vec2) {
	b := n.tree.Bounds()
	for !b.Contains(p.X, p.Y) {
		b = Rect{
			X:      b.X,
			Y:      b.Y,
			Width:  b.Width * worldNodeExpansionFactor,
			Height: b.Height * worldNodeExpansionFactor,
		}
	}
	n.tree.SetBoundary(b)
}

// WorldGraph is an undirected graph of [WorldNode]s, streamed in and out
// as a reference position (typically the active camera target) moves
// through the world. Exactly one node is "active" at a time; neighboring
// nodes within NeighborhoodDistance graph-hops of the active node are kept
// loaded (spec §4.5).
type WorldGraph struct {
	nodes  map[WorldNodeID]*WorldNode
	nextID WorldNodeID

	locator *Quadtree // node containment lookup, keyed by world position

	// NeighborhoodDistance is the BFS radius, in graph hops, of nodes kept
	// loaded around the active node.
	NeighborhoodDistance int

	active WorldNodeID

	universe *Universe

	// OnLoad/OnUnload fire once per node as it enters/leaves the loaded set.
	OnLoad   func(*WorldNode)
	OnUnload func(*WorldNode)
	// OnActiveNodeChanged fires when UpdateReferencePosition moves the
	// active node, with the camera translation needed to keep continuity
	// across the two nodes' local coordinate frames.
	OnActiveNodeChanged func(old, new *WorldNode, cameraDelta Vec2)
	// OnEntityChangedNode fires when TransferOutOfBounds finds an entity
	// whose position has left its owning node and entered a different
	// loaded node's bounds. The handler performs the actual transfer, by
	// calling MoveEntity (spec §4.5: "an external handler performs the
	// transfer").
	OnEntityChangedNode func(e Entity, old, new *WorldNode)
}

// NewWorldGraph creates an empty world graph whose node-lookup quadtree
// spans bounds.
func NewWorldGraph(bounds Rect, neighborhoodDistance int) *WorldGraph {
	return &WorldGraph{
		nodes:                make(map[WorldNodeID]*WorldNode),
		locator:              NewQuadtree(bounds),
		NeighborhoodDistance: neighborhoodDistance,
		active:               noNode,
		universe:             NewUniverse(),
	}
}

// AddNode creates a node at position, of the given size, and indexes it
// for containment lookup.
func (wg *WorldGraph) AddNode(position, size Vec2) *WorldNode {
	id := wg.nextID
	wg.nextID++
	n := &WorldNode{
		id:       id,
		position: position,
		size:     size,
		entities: make(map[Entity]bool),
		tree:     NewQuadtree(Rect{position.X, position.Y, size.X, size.Y}),
	}
	wg.nodes[id] = n
	wg.locator.Insert(n)
	return n
}

// Connect adds an undirected adjacency edge between a and b.
func (wg *WorldGraph) Connect(a, b WorldNodeID) {
	na, ok := wg.nodes[a]
	if !ok {
		return
	}
	nb, ok := wg.nodes[b]
	if !ok {
		return
	}
	na.neighbors = append(na.neighbors, b)
	nb.neighbors = append(nb.neighbors, a)
}

// Node looks up a node by ID.
func (wg *WorldGraph) Node(id WorldNodeID) (*WorldNode, bool) {
	n, ok := wg.nodes[id]
	return n, ok
}

// Active returns the currently-active node, or nil if none has been set
// (before the first UpdateReferencePosition call).
func (wg *WorldGraph) Active() *WorldNode {
	if wg.active == noNode {
		return nil
	}
	return wg.nodes[wg.active]
}

// NodeAt returns the node whose bounds contain the world-space point p.
func (wg *WorldGraph) NodeAt(p Vec2) (*WorldNode, bool) {
	candidates := wg.locator.Retrieve(Rect{p.X, p.Y, 0, 0})
	for _, c := range candidates {
		n := wg.nodes[WorldNodeID(c.ElementID())]
		if n != nil && n.Bounds().Contains(p.X, p.Y) {
			return n, true
		}
	}
	return nil, false
}

func (wg *WorldGraph) neighborhood(root WorldNodeID, distance int) map[WorldNodeID]bool {
	visited := map[WorldNodeID]bool{root: true}
	frontier := []WorldNodeID{root}
	for d := 0; d < distance; d++ {
		next := []WorldNodeID{}
		for _, id := range frontier {
			n := wg.nodes[id]
			if n == nil {
				continue
			}
			for _, nb := range n.neighbors {
				if !visited[nb] {
					visited[nb] = true
					next = append(next, nb)
				}
			}
		}
		frontier = next
	}
	return visited
}

// StreamUpdate is the result of an UpdateReferencePosition call.
type StreamUpdate struct {
	Loaded        []WorldNodeID
	Unloaded      []WorldNodeID
	ActiveChanged bool
	CameraDelta   Vec2
}

// UpdateReferencePosition locates the node containing pos, computes the
// BFS neighborhood of NeighborhoodDistance graph-hops around it, loads any
// newly-in-range nodes and unloads any that fell out of range, and — if
// the containing node differs from the previously active one — fires
// OnActiveNodeChanged with the translation needed to keep the camera
// continuous across the two nodes' local coordinate frames (spec §4.5):
// cameraDelta = oldNode.Position - newNode.Position.
func (wg *WorldGraph) UpdateReferencePosition(pos Vec2) StreamUpdate {
	containing, ok := wg.NodeAt(pos)
	if !ok {
		return StreamUpdate{}
	}

	wanted := wg.neighborhood(containing.id, wg.NeighborhoodDistance)

	var update StreamUpdate
	for id, n := range wg.nodes {
		_, shouldLoad := wanted[id]
		switch {
		case shouldLoad && !n.loaded:
			n.loaded = true
			update.Loaded = append(update.Loaded, id)
			if wg.OnLoad != nil {
				wg.OnLoad(n)
			}
		case !shouldLoad && n.loaded:
			n.loaded = false
			update.Unloaded = append(update.Unloaded, id)
			if wg.OnUnload != nil {
				wg.OnUnload(n)
			}
		}
	}

	if wg.active != containing.id {
		old := wg.nodes[wg.active]
		update.ActiveChanged = true
		if old != nil {
			update.CameraDelta = Vec2{
				X: old.position.X - containing.position.X,
				Y: old.position.Y - containing.position.Y,
			}
		}
		wg.active = containing.id
		if wg.OnActiveNodeChanged != nil {
			wg.OnActiveNodeChanged(old, containing, update.CameraDelta)
		}
	}

	return update
}

// AddEntity registers e as owned by node at the given world-space position.
func (wg *WorldGraph) AddEntity(node *WorldNode, e Entity, pos Vec2) {
	node.entities[e] = true
	node.growToFit(pos)
}

// MoveEntity transfers e from one loaded node to another, updating both
// nodes' owned-entity sets and growing the destination's local quadtree
// boundary to include pos. This is the "external handler" spec §4.5 refers
// to; callers invoke it from an OnEntityChangedNode handler once
// TransferOutOfBounds has identified a crossing.
func (wg *WorldGraph) MoveEntity(e Entity, from, to *WorldNode, pos Vec2) {
	delete(from.entities, e)
	from.tree.Remove(entityMarker{id: e})
	to.entities[e] = true
	to.growToFit(pos)
}

// loadedNodeAt queries the node-lookup quadtree for a loaded node whose
// bounds contain p, other than exclude.
func (wg *WorldGraph) loadedNodeAt(p Vec2, exclude *WorldNode) (*WorldNode, bool) {
	candidates := wg.locator.Retrieve(Rect{p.X, p.Y, 0, 0})
	for _, c := range candidates {
		n := wg.nodes[WorldNodeID(c.ElementID())]
		if n != nil && n != exclude && n.loaded && n.Bounds().Contains(p.X, p.Y) {
			return n, true
		}
	}
	return nil, false
}

// TransferOutOfBounds scans every loaded node's entities, and for each
// whose reported position (via lookup) has left the owning node's bounds,
// queries the node-lookup quadtree at that position: if a different loaded
// node's bounds now contain it, fires OnEntityChangedNode so an external
// handler can perform the transfer (spec §4.5: "out-of-bounds entity
// transfer"). Entities that left their node but match no loaded node are
// left in place, to be picked up on a later call once the relevant node
// loads. The quadtree lookup is by spatial containment, not graph
// adjacency, so it also resolves transfers across non-adjacent (e.g.
// portal-style) node pairs.
func (wg *WorldGraph) TransferOutOfBounds(lookup func(Entity) (Vec2, bool)) {
	type crossing struct {
		e        Entity
		from, to *WorldNode
	}
	var crossings []crossing

	for _, n := range wg.nodes {
		if !n.loaded {
			continue
		}
		for e := range n.entities {
			pos, ok := lookup(e)
			if !ok {
				continue
			}
			if n.Bounds().Contains(pos.X, pos.Y) {
				continue
			}
			if dest, ok := wg.loadedNodeAt(pos, n); ok {
				crossings = append(crossings, crossing{e: e, from: n, to: dest})
			}
		}
	}

	for _, c := range crossings {
		if wg.OnEntityChangedNode != nil {
			wg.OnEntityChangedNode(c.e, c.from, c.to)
		}
	}
}

// entityMarker is a throwaway [QuadElement] used only for Remove calls
// where the caller doesn't have the original inserted bounds handy.
type entityMarker struct {
	id Entity
}

func (m entityMarker) ElementID() Entity { return m.id }
func (m entityMarker) Bounds() Rect      { return Rect{} }
