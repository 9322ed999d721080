package vesper

// Config collects every engine-core tunable spec.md §6 names. It follows
// the teacher's plain-struct-with-defaults style (`EmitterConfig` in
// particle.go, `RunConfig` in scene.go): no flag/env/viper library is used
// anywhere in the retrieval pack for engine-internal tuning, so Config
// stays a plain struct with a DefaultConfig constructor rather than reaching
// for a configuration-file library.
type Config struct {
	// Lighting shader/texture paths (spec §6). The core never loads these
	// itself — they're passed through to the host's draw call, per spec
	// §1's "shader program source" Non-goal — but Config is their one home
	// so a host can wire them without inventing its own plumbing.
	LightVertexShader     string
	LightFragShader       string
	UnshadowVertexShader  string
	UnshadowFragShader    string
	DefaultPenumbraTexture string

	// NeighborhoodDistance is the world-graph BFS load radius (spec §4.5, §6).
	NeighborhoodDistance int

	// QuadtreeMaxCapacity and QuadtreeMaxLevel bound quadtree subdivision
	// (spec §4.1, §6).
	QuadtreeMaxCapacity int
	QuadtreeMaxLevel    int

	// SoundSlotCount and MusicSlotCount size the audio mixer's fixed pools
	// (spec §4.7, §6).
	SoundSlotCount int
	MusicSlotCount int

	// DefaultReflectionOpacity is the water-reflection opacity default
	// (spec §6, §9 open question (iii): only the config knob is specified,
	// reflection rendering itself is out of core scope).
	DefaultReflectionOpacity float64

	// MobilityBaseSpeed, MobilityMaxForce, MobilityMaxVelocity are the
	// default steering/mobilize constants (spec §4.8, §6).
	MobilityBaseSpeed   float64
	MobilityMaxForce    float64
	MobilityMaxVelocity float64

	// WaypointRadius and TraversalSpeed default a [Path]'s reach radius and
	// speed (spec §4.8, §6).
	WaypointRadius float64
	TraversalSpeed float64

	// LightRadiusDefault and ShadowExtendMultiplier default a new [Light]'s
	// Radius and ShadowExtend (spec §4.6, §6).
	LightRadiusDefault     float64
	ShadowExtendMultiplier float64
}

// DefaultConfig returns the spec §6 defaults.
func DefaultConfig() Config {
	return Config{
		NeighborhoodDistance:     1,
		QuadtreeMaxCapacity:      DefaultQuadtreeCapacity,
		QuadtreeMaxLevel:         DefaultQuadtreeMaxLevel,
		SoundSlotCount:           SoundSlotCount,
		MusicSlotCount:           MusicSlotCount,
		DefaultReflectionOpacity: 0.5,
		MobilityBaseSpeed:        0.2,
		MobilityMaxForce:         1.0,
		MobilityMaxVelocity:      1.0,
		WaypointRadius:           defaultWaypointRadius,
		TraversalSpeed:           defaultTraversalSpeed,
		LightRadiusDefault:       10,
		ShadowExtendMultiplier:   DefaultShadowExtendMultiplier,
	}
}
