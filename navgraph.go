package vesper

import (
	"container/heap"
	"math"
)

// NavNode is one waypoint of a [NavGraph].
type NavNode struct {
	Position Vec2
	edges    []int // indices into NavGraph.nodes
}

// NavGraph is an explicit waypoint graph used for [Path]-based navigation
// when a route isn't known ahead of time (spec §4.7). Nodes are connected
// by AddEdge; [NavGraph.FindPath] runs A* over graph-hop adjacency,
// weighted by Euclidean edge length, following the min-heap open-set
// pattern used for grid pathfinding elsewhere in this codebase's lineage.
type NavGraph struct {
	nodes []NavNode
}

// NewNavGraph creates an empty navigation graph.
func NewNavGraph() *NavGraph { return &NavGraph{} }

// AddNode appends a waypoint and returns its index.
func (g *NavGraph) AddNode(pos Vec2) int {
	g.nodes = append(g.nodes, NavNode{Position: pos})
	return len(g.nodes) - 1
}

// AddEdge connects two waypoints bidirectionally.
func (g *NavGraph) AddEdge(a, b int) {
	g.nodes[a].edges = append(g.nodes[a].edges, b)
	g.nodes[b].edges = append(g.nodes[b].edges, a)
}

// Node returns the waypoint at index i.
func (g *NavGraph) Node(i int) NavNode { return g.nodes[i] }

func dist(a, b Vec2) float64 { return vecLength(Vec2{a.X - b.X, a.Y - b.Y}) }

type navHeapItem struct {
	node     int
	priority float64
	index    int
}

type navHeap []*navHeapItem

func (h navHeap) Len() int            { return len(h) }
func (h navHeap) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h navHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *navHeap) Push(x interface{}) {
	item := x.(*navHeapItem)
	item.index = len(*h)
	*h = append(*h, item)
}
func (h *navHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// FindPath runs A* from start to goal over the graph's edges, using
// straight-line distance as both edge cost and heuristic (admissible since
// the graph has no shortcuts shorter than Euclidean distance). Returns the
// node index sequence and true, or nil and false if no path exists.
func (g *NavGraph) FindPath(start, goal int) ([]int, bool) {
	if start == goal {
		return []int{start}, true
	}

	gScore := make(map[int]float64)
	cameFrom := make(map[int]int)
	gScore[start] = 0

	open := &navHeap{{node: start, priority: dist(g.nodes[start].Position, g.nodes[goal].Position)}}
	heap.Init(open)
	visited := make(map[int]bool)

	for open.Len() > 0 {
		current := heap.Pop(open).(*navHeapItem).node
		if current == goal {
			return reconstructPath(cameFrom, current), true
		}
		if visited[current] {
			continue
		}
		visited[current] = true

		for _, next := range g.nodes[current].edges {
			tentative := gScore[current] + dist(g.nodes[current].Position, g.nodes[next].Position)
			if existing, ok := gScore[next]; ok && tentative >= existing {
				continue
			}
			cameFrom[next] = current
			gScore[next] = tentative
			priority := tentative + dist(g.nodes[next].Position, g.nodes[goal].Position)
			heap.Push(open, &navHeapItem{node: next, priority: priority})
		}
	}
	return nil, false
}

func reconstructPath(cameFrom map[int]int, current int) []int {
	path := []int{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		path = append([]int{prev}, path...)
		current = prev
	}
	return path
}

// navTriangle is a Bowyer-Watson working triangle, indexing into whatever
// point slice it was built from.
type navTriangle struct {
	a, b, c int
}

// navEdge is an undirected edge between two point indices, always stored
// with the smaller index first so it can serve as a map key.
type navEdge struct {
	a, b int
}

func normalizeNavEdge(a, b int) navEdge {
	if a > b {
		a, b = b, a
	}
	return navEdge{a, b}
}

// circumcircleContains reports whether p lies inside the circumcircle of
// the triangle formed by pts[t.a], pts[t.b], pts[t.c] (spec §4.8's
// Delaunay construction step, grounded on
// original_source/src/ungod/utility/DelaunayTriangulation.h's
// circumcycleContains — using the standard determinant test rather than
// porting that header's asymmetric circumcenter formula verbatim).
func circumcircleContains(pts []Vec2, t navTriangle, p Vec2) bool {
	a, b, c := pts[t.a], pts[t.b], pts[t.c]

	ax, ay := a.X-p.X, a.Y-p.Y
	bx, by := b.X-p.X, b.Y-p.Y
	cx, cy := c.X-p.X, c.Y-p.Y

	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)

	// The determinant's sign flips with the triangle's winding order, so
	// orient by signed area first to make det > 0 reliably mean "inside".
	area := (b.X-a.X)*(c.Y-a.Y) - (c.X-a.X)*(b.Y-a.Y)
	if area < 0 {
		det = -det
	}
	return det > 0
}

// delaunayTriangulate runs the Bowyer-Watson incremental algorithm over
// pts, returning the resulting triangles as index triples into pts (spec
// §4.8's "triangulate the obstacle-corner point set... via Delaunay",
// grounded on DelaunayTriangulation.h's super-triangle + incremental
// insertion structure).
func delaunayTriangulate(pts []Vec2) []navTriangle {
	if len(pts) < 3 {
		return nil
	}

	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := pts[0].X, pts[0].Y
	for _, p := range pts {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	deltaMax := math.Max(maxX-minX, maxY-minY) * 20
	midX, midY := (minX+maxX)/2, (minY+maxY)/2

	// Super-triangle vertices are appended after the real points so
	// triangle index triples can refer to them uniformly; any triangle
	// still touching one is stripped from the final result.
	work := append(append([]Vec2{}, pts...),
		Vec2{midX - deltaMax, midY - deltaMax},
		Vec2{midX, midY + deltaMax},
		Vec2{midX + deltaMax, midY - deltaMax},
	)
	s0, s1, s2 := len(pts), len(pts)+1, len(pts)+2

	triangles := []navTriangle{{s0, s1, s2}}

	edgesOf := func(t navTriangle) [3]navEdge {
		return [3]navEdge{
			normalizeNavEdge(t.a, t.b),
			normalizeNavEdge(t.b, t.c),
			normalizeNavEdge(t.c, t.a),
		}
	}

	for pi := range pts {
		var bad []navTriangle
		for _, t := range triangles {
			if circumcircleContains(work, t, pts[pi]) {
				bad = append(bad, t)
			}
		}

		edgeCount := make(map[navEdge]int)
		for _, t := range bad {
			for _, e := range edgesOf(t) {
				edgeCount[e]++
			}
		}
		var boundary []navEdge
		for _, t := range bad {
			for _, e := range edgesOf(t) {
				if edgeCount[e] == 1 {
					boundary = append(boundary, e)
				}
			}
		}

		kept := triangles[:0]
		for _, t := range triangles {
			isBad := false
			for _, b := range bad {
				if t == b {
					isBad = true
					break
				}
			}
			if !isBad {
				kept = append(kept, t)
			}
		}
		triangles = kept

		for _, e := range boundary {
			triangles = append(triangles, navTriangle{e.a, e.b, pi})
		}
	}

	result := make([]navTriangle, 0, len(triangles))
	for _, t := range triangles {
		if t.a >= len(pts) || t.b >= len(pts) || t.c >= len(pts) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// obstacleCorners returns the world-space corner points of every obstacle
// collider, each nudged outward from its shape's centroid by agentRadius —
// the point set Delaunay triangulates over (spec §4.8: "the obstacle-corner
// point set").
func obstacleCorners(obstacles []*Collider, transforms []CollisionTransform, agentRadius float64) []Vec2 {
	var pts []Vec2
	for i, c := range obstacles {
		corners := c.worldPoints(transforms[i])
		center := centroid(corners)
		for _, p := range corners {
			dir := Vec2{p.X - center.X, p.Y - center.Y}
			length := math.Hypot(dir.X, dir.Y)
			if length > 1e-9 {
				dir = Vec2{dir.X / length * agentRadius, dir.Y / length * agentRadius}
			}
			pts = append(pts, Vec2{p.X + dir.X, p.Y + dir.Y})
		}
	}
	return pts
}

func triangleCenter(pts []Vec2, t navTriangle) Vec2 {
	a, b, c := pts[t.a], pts[t.b], pts[t.c]
	return Vec2{(a.X + b.X + c.X) / 3, (a.Y + b.Y + c.Y) / 3}
}

// BuildNavGraph triangulates the obstacle-corner point set via Delaunay,
// discards triangles whose center lies inside any obstacle, and returns a
// NavGraph whose nodes correspond to the surviving triangles (positioned at
// their centers) and whose edges connect triangles that share an edge
// (spec §4.8's nav graph construction algorithm).
func BuildNavGraph(obstacles []*Collider, transforms []CollisionTransform, agentRadius float64) *NavGraph {
	pts := obstacleCorners(obstacles, transforms, agentRadius)
	triangles := delaunayTriangulate(pts)

	g := NewNavGraph()
	nodeOf := make(map[int]int, len(triangles)) // triangle index -> NavGraph node index

	for ti, t := range triangles {
		center := triangleCenter(pts, t)
		blocked := false
		for i, obstacle := range obstacles {
			if obstacle.ContainsPoint(center, transforms[i]) {
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}
		nodeOf[ti] = g.AddNode(center)
	}

	// Two surviving triangles that share an edge become connected nodes.
	sharedBy := make(map[navEdge][]int)
	for ti, t := range triangles {
		if _, ok := nodeOf[ti]; !ok {
			continue
		}
		for _, e := range []navEdge{
			normalizeNavEdge(t.a, t.b),
			normalizeNavEdge(t.b, t.c),
			normalizeNavEdge(t.c, t.a),
		} {
			sharedBy[e] = append(sharedBy[e], ti)
		}
	}
	connected := make(map[navEdge]bool)
	for _, tis := range sharedBy {
		for i := 0; i < len(tis); i++ {
			for j := i + 1; j < len(tis); j++ {
				key := normalizeNavEdge(nodeOf[tis[i]], nodeOf[tis[j]])
				if !connected[key] {
					connected[key] = true
					g.AddEdge(nodeOf[tis[i]], nodeOf[tis[j]])
				}
			}
		}
	}

	return g
}
