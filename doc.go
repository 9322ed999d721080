// Package vesper is a retained-mode 2D game engine runtime for [Ebitengine].
//
// Vesper provides the scene graph, transform hierarchy, sprite batching,
// input handling, camera viewports, text rendering, particle systems, and
// the simulation core every non-trivial 2D game needs: a quadtree spatial
// index, a streaming world graph of neighboring levels, a SAT collision
// engine, a penumbra/antumbra lighting pipeline, a spatial audio mixer,
// steering/path-following mobility, a reference-counted asset cache, and a
// scripted-behavior runtime.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	scene := vesper.NewScene()
//	// ... add nodes ...
//	vesper.Run(scene, vesper.RunConfig{
//		Title: "My Game", Width: 640, Height: 480,
//	})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Update] and [Scene.Draw] directly:
//
//	type Game struct{ scene *vesper.Scene }
//
//	func (g *Game) Update() error         { g.scene.Update(); return nil }
//	func (g *Game) Draw(s *ebiten.Image)  { g.scene.Draw(s) }
//	func (g *Game) Layout(w, h int) (int, int) { return w, h }
//
// # Scene graph
//
// Every visual element is a [Node]. Nodes form a tree rooted at
// [Scene.Root]. Children inherit their parent's transform and alpha.
//
// Create nodes with typed constructors: [NewContainer], [NewSprite],
// [NewText], [NewParticleEmitter], [NewMesh], [NewPolygon], and others.
//
//	container := vesper.NewContainer("ui")
//	scene.Root().AddChild(container)
//
//	sprite := vesper.NewSprite("hero", atlas.Region("hero_idle"))
//	sprite.X, sprite.Y = 100, 50
//	container.AddChild(sprite)
//
// For solid-color rectangles, use [NewSprite] with a zero-value
// [TextureRegion] and set [Node.Color] and [Node.ScaleX]/[Node.ScaleY]:
//
//	box := vesper.NewSprite("box", vesper.TextureRegion{})
//	box.ScaleX, box.ScaleY = 80, 40
//	box.Color = vesper.Color{R: 0.3, G: 0.7, B: 1, A: 1}
//
// # Simulation core
//
// A [Quadtree] backs each [Layer]'s spatial queries and the [WorldGraph]'s
// node lookup. [CollisionEngine] runs broad+narrow phase SAT collision over
// [Rigidbody] colliders and fires begin/end overlap events. [MobilityUnit.Mobilize]
// together with the seek/flee/arrival/pursuit/evade/displace functions in
// steering.go drives [MobilityUnit]s, optionally along a [Path]. The
// [WorldGraph] streams [WorldNode]s in and out as a reference position
// moves, translating the camera across active-node switches. [LightLayer]
// composes point lights with penumbra/antumbra shadows against
// [LightCollider] occluders. [SoundHandler] and [MusicMixer] provide
// bounded-slot audio dispatch. [AssetCache] provides ref-counted,
// optionally async asset loading with default-asset fallback. [StateBehavior]
// and [BehaviorInstance] provide script-agnostic per-entity callback state.
//
// # Key features
//
// Vesper includes cameras with follow/scroll-to/zoom/shake, bitmap and TTF
// text rendering, CPU-simulated particles, mesh/polygon/rope geometry, Kage
// shader filters, texture caching, masking, blend modes, lighting layers,
// tweens (via [gween]), and ECS integration (via [Donburi] adapter in
// vesper/ecs).
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
// [Donburi]: https://github.com/yohamta/donburi
package vesper
