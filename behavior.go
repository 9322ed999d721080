package vesper

// Meta is a named set of optional lifecycle callbacks for one state of a
// [StateBehavior] (spec §4.10). Any of OnEnter/OnUpdate/OnExit may be nil.
type Meta struct {
	Name     string
	OnEnter  func(inst *BehaviorInstance)
	OnUpdate func(inst *BehaviorInstance, dt float64)
	OnExit   func(inst *BehaviorInstance)
}

// StateBehavior is a script-agnostic state machine definition: a named
// initial state and a table of [Meta] reachable by name (spec §4.10).
// Entities run it through a per-entity [BehaviorInstance].
type StateBehavior struct {
	InitialState string
	states       map[string]*Meta
}

// NewStateBehavior creates a behavior whose instances start in initial.
func NewStateBehavior(initial string) *StateBehavior {
	return &StateBehavior{InitialState: initial, states: make(map[string]*Meta)}
}

// AddState registers a state's callbacks.
func (sb *StateBehavior) AddState(meta *Meta) {
	sb.states[meta.Name] = meta
}

// State looks up a state's callbacks by name.
func (sb *StateBehavior) State(name string) (*Meta, bool) {
	m, ok := sb.states[name]
	return m, ok
}

// Reload replaces this behavior's state table and initial state in place
// (e.g. after a script edit). Every live instance in liveInstances whose
// current state name still exists in the new table keeps running from
// that state untouched; instances whose state was removed fall back to
// the new InitialState, firing OnEnter (spec §4.10).
func (sb *StateBehavior) Reload(initial string, states []*Meta, liveInstances []*BehaviorInstance) {
	sb.InitialState = initial
	sb.states = make(map[string]*Meta, len(states))
	for _, m := range states {
		sb.states[m.Name] = m
	}

	for _, inst := range liveInstances {
		if _, stillExists := sb.states[inst.state]; stillExists {
			continue
		}
		inst.state = sb.InitialState
		if meta, ok := sb.State(inst.state); ok && meta.OnEnter != nil {
			meta.OnEnter(inst)
		}
	}
}

// BehaviorInstance is one entity's running instance of a [StateBehavior]:
// its current state name and a free-form per-entity environment bag for
// whatever the callbacks want to stash between ticks (spec §4.10).
type BehaviorInstance struct {
	behavior *StateBehavior
	Entity   Entity
	state    string
	env      map[string]any
}

// NewBehaviorInstance creates an instance of b for entity e, starting in
// b's InitialState and firing that state's OnEnter if present.
func NewBehaviorInstance(b *StateBehavior, e Entity) *BehaviorInstance {
	inst := &BehaviorInstance{behavior: b, Entity: e, state: b.InitialState, env: make(map[string]any)}
	if meta, ok := b.State(inst.state); ok && meta.OnEnter != nil {
		meta.OnEnter(inst)
	}
	return inst
}

// State returns the instance's current state name.
func (bi *BehaviorInstance) State() string { return bi.state }

// Update runs the current state's OnUpdate callback, if any.
func (bi *BehaviorInstance) Update(dt float64) {
	if meta, ok := bi.behavior.State(bi.state); ok && meta.OnUpdate != nil {
		meta.OnUpdate(bi, dt)
	}
}

// TransitionTo moves the instance to a different state, firing the old
// state's OnExit then the new state's OnEnter. Returns false (and makes no
// change) if name isn't a state of this instance's behavior.
func (bi *BehaviorInstance) TransitionTo(name string) bool {
	if _, ok := bi.behavior.State(name); !ok {
		return false
	}
	if meta, ok := bi.behavior.State(bi.state); ok && meta.OnExit != nil {
		meta.OnExit(bi)
	}
	bi.state = name
	if meta, ok := bi.behavior.State(name); ok && meta.OnEnter != nil {
		meta.OnEnter(bi)
	}
	return true
}

// Set stashes a value in the instance's per-entity environment.
func (bi *BehaviorInstance) Set(key string, value any) { bi.env[key] = value }

// Get retrieves a value from the instance's per-entity environment.
func (bi *BehaviorInstance) Get(key string) (any, bool) {
	v, ok := bi.env[key]
	return v, ok
}
