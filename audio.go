package vesper

import "math"

// SoundSlotCount is the fixed number of concurrent one-shot sound slots
// (spec §4.8 / §6).
const SoundSlotCount = 32

// MusicSlotCount is the fixed number of concurrent music-emitter slots
// (spec §4.8 / §6).
const MusicSlotCount = 5

// defaultSoundDuration is the playback length assumed for a player that
// doesn't implement [durationReporter].
const defaultSoundDuration = 1.0

// soundPlayer is the subset of [ebiten/v2/audio.Player]'s method set this
// package depends on. Production code constructs slots around a real
// *audio.Player; tests use a fake implementing the same four calls.
type soundPlayer interface {
	Play()
	IsPlaying() bool
	SetVolume(scale float64)
	Close() error
}

// durationReporter is implemented by players that know their own playback
// length, letting a slot's remaining-time countdown start accurately. A
// player that doesn't implement it falls back to defaultSoundDuration.
type durationReporter interface {
	Duration() float64
}

// speedSettable is implemented by players that support pitch shifting.
type speedSettable interface {
	SetSpeed(pitch float64)
}

// SoundBundle bundles one loaded sound of a [SoundProfile] with a linkage
// counter tracking how many slots are currently playing it (spec §4.8:
// "sound bundles (buffer + per-bundle linkage counter + expired flag)").
type SoundBundle struct {
	linkage int
}

// SoundProfile is a reusable sound definition: an indexed sequence of sound
// bundles plus the player factory used to instantiate playback for a given
// index (spec §4.8).
type SoundProfile struct {
	Name    string
	Sounds  []*SoundBundle
	expired bool

	newPlayer func(index int) soundPlayer
}

// NewSoundProfile creates a profile holding numSounds bundles. newPlayer
// constructs a fresh player for the sound at the given index each time it's
// played; for ebiten playback, it should call
// audioContext.NewPlayer(decodedStream) against the source for that index.
func NewSoundProfile(name string, numSounds int, newPlayer func(index int) soundPlayer) *SoundProfile {
	sounds := make([]*SoundBundle, numSounds)
	for i := range sounds {
		sounds[i] = &SoundBundle{}
	}
	return &SoundProfile{Name: name, Sounds: sounds, newPlayer: newPlayer}
}

// Expire marks the profile expired: bundles with no live linkage are
// dropped immediately, and any bundle still playing is dropped as soon as
// its last slot finishes (spec §4.8's "expired flag").
func (p *SoundProfile) Expire() {
	p.expired = true
	kept := p.Sounds[:0]
	for _, b := range p.Sounds {
		if b.linkage != 0 {
			kept = append(kept, b)
		}
	}
	p.Sounds = kept
}

// soundSlot is one of SoundHandler's fixed playback slots. A nil profile
// means the slot is free.
type soundSlot struct {
	player    soundPlayer
	profile   *SoundProfile
	index     int
	playing   bool
	playTimer float64
	volume    float64 // baseline (pre-mute) volume, reapplied on unmute
}

// SoundHandler dispatches one-shot sounds across SoundSlotCount fixed
// slots (spec §4.8). Each play links its sound's bundle; Update unlinks it
// once playback finishes and, for an expired profile whose bundle has no
// more listeners, removes the bundle entirely.
type SoundHandler struct {
	slots []soundSlot
	muted bool

	// OnSoundBegin/OnSoundEnd are invoked with the profile name and sound
	// index whenever a one-shot starts or finishes.
	OnSoundBegin func(profile string, index int)
	OnSoundEnd   func(profile string, index int)
}

// NewSoundHandler creates an empty handler with SoundSlotCount slots.
func NewSoundHandler() *SoundHandler {
	return &SoundHandler{slots: make([]soundSlot, SoundSlotCount)}
}

// SetMuted mutes or unmutes all future and in-flight sounds.
func (h *SoundHandler) SetMuted(muted bool) {
	h.muted = muted
	for i := range h.slots {
		if h.slots[i].profile != nil {
			h.applyVolume(&h.slots[i])
		}
	}
}

// Muted reports the handler's mute state.
func (h *SoundHandler) Muted() bool { return h.muted }

func (h *SoundHandler) applyVolume(s *soundSlot) {
	volume := s.volume
	if h.muted {
		volume = 0
	}
	s.player.SetVolume(volume)
}

// Play starts sound index of profile in a free slot, scaled by distance
// attenuation (scaling), a channel volume setting, and pitch. If every
// slot is busy, Play silently drops the request and returns -1 (spec §4.7:
// "find the first free slot... if none, silently drop" — no forced
// eviction).
func (h *SoundHandler) Play(profile *SoundProfile, index int, scaling, volumeSetting, pitch float64) int {
	if index < 0 || index >= len(profile.Sounds) {
		return -1
	}
	idx := h.freeSlot()
	if idx == -1 {
		return -1
	}

	bundle := profile.Sounds[index]
	bundle.linkage++

	player := profile.newPlayer(index)
	duration := defaultSoundDuration
	if dr, ok := player.(durationReporter); ok {
		duration = dr.Duration()
	}
	if sp, ok := player.(speedSettable); ok {
		sp.SetSpeed(pitch)
	}

	h.slots[idx] = soundSlot{
		player:    player,
		profile:   profile,
		index:     index,
		playing:   true,
		playTimer: duration,
		volume:    scaling * volumeSetting,
	}
	h.applyVolume(&h.slots[idx])
	player.Play()
	if h.OnSoundBegin != nil {
		h.OnSoundBegin(profile.Name, index)
	}
	return idx
}

func (h *SoundHandler) freeSlot() int {
	if h.muted {
		return -1
	}
	for i := range h.slots {
		if h.slots[i].profile == nil {
			return i
		}
	}
	return -1
}

// Update advances every occupied slot's remaining-time countdown by delta
// and reclaims any slot whose sound has finished, unlinking its bundle and
// firing OnSoundEnd (spec §4.8). A bundle that belongs to an expired
// profile and has just dropped to zero linkage is removed from the
// profile.
func (h *SoundHandler) Update(delta float64) {
	for i := range h.slots {
		s := &h.slots[i]
		if s.profile == nil {
			continue
		}
		if s.playing {
			s.playTimer -= delta
			if s.playTimer <= 0 {
				s.playing = false
			}
		}
		if !s.playing {
			bundle := s.profile.Sounds[s.index]
			bundle.linkage--
			if s.profile.expired && bundle.linkage == 0 {
				s.profile.Sounds = append(s.profile.Sounds[:s.index], s.profile.Sounds[s.index+1:]...)
			}
			if h.OnSoundEnd != nil {
				h.OnSoundEnd(s.profile.Name, s.index)
			}
			s.player.Close()
			*s = soundSlot{}
		}
	}
}

// ActiveCount returns how many slots are currently in use.
func (h *SoundHandler) ActiveCount() int {
	n := 0
	for _, s := range h.slots {
		if s.profile != nil {
			n++
		}
	}
	return n
}

// volumeForDistance scales a base volume down linearly to zero at
// maxDistance, the distance-attenuation curve [MusicMixer] applies to its
// emitters; one-shot sounds take their scaling from Play's caller.
func volumeForDistance(base, distance, maxDistance float64) float64 {
	if maxDistance <= 0 {
		return 0
	}
	attenuation := 1 - math.Min(distance/maxDistance, 1)
	return base * attenuation
}

// MusicEmitter is a positioned, looping music source competing for one of
// a [MusicMixer]'s fixed slots based on distance to the listener (spec
// §4.8).
type MusicEmitter struct {
	Position    Vec2
	MaxDistance float64
	Volume      float64
	player      soundPlayer
	playing     bool
}

// NewMusicEmitter creates an emitter at position, attenuating to silence
// at maxDistance, wrapping the given player.
func NewMusicEmitter(position Vec2, maxDistance, volume float64, player soundPlayer) *MusicEmitter {
	return &MusicEmitter{Position: position, MaxDistance: maxDistance, Volume: volume, player: player}
}

func (m *MusicEmitter) distanceTo(listener Vec2) float64 {
	return vecLength(Vec2{m.Position.X - listener.X, m.Position.Y - listener.Y})
}

// MusicMixer keeps the MusicSlotCount closest [MusicEmitter]s to a
// listener position actively playing, preempting the farthest playing
// emitter when a closer one needs a slot (spec §4.8).
type MusicMixer struct {
	emitters []*MusicEmitter
	playing  map[*MusicEmitter]bool
	muted    bool
}

// NewMusicMixer creates an empty mixer.
func NewMusicMixer() *MusicMixer {
	return &MusicMixer{playing: make(map[*MusicEmitter]bool)}
}

// Add registers an emitter with the mixer.
func (mx *MusicMixer) Add(e *MusicEmitter) {
	mx.emitters = append(mx.emitters, e)
}

// Remove unregisters and stops an emitter.
func (mx *MusicMixer) Remove(e *MusicEmitter) {
	for i, em := range mx.emitters {
		if em == e {
			mx.emitters = append(mx.emitters[:i], mx.emitters[i+1:]...)
			break
		}
	}
	if mx.playing[e] {
		e.player.Close()
		delete(mx.playing, e)
	}
}

// SetMuted mutes or unmutes every currently-playing emitter.
func (mx *MusicMixer) SetMuted(muted bool) {
	mx.muted = muted
	for e := range mx.playing {
		mx.applyVolume(e, e.distanceTo(Vec2{}))
	}
}

func (mx *MusicMixer) applyVolume(e *MusicEmitter, distanceToListener float64) {
	volume := volumeForDistance(e.Volume, distanceToListener, e.MaxDistance)
	if mx.muted {
		volume = 0
	}
	e.player.SetVolume(volume)
}

// Update recomputes, for the given listener position, which emitters
// should occupy the mixer's MusicSlotCount slots: the closest emitters
// within their MaxDistance win; any currently-playing emitter that falls
// out of the closest set is preempted (stopped) to free its slot.
func (mx *MusicMixer) Update(listener Vec2) {
	type ranked struct {
		emitter  *MusicEmitter
		distance float64
	}
	inRange := make([]ranked, 0, len(mx.emitters))
	for _, e := range mx.emitters {
		d := e.distanceTo(listener)
		if d <= e.MaxDistance {
			inRange = append(inRange, ranked{e, d})
		}
	}
	for i := 1; i < len(inRange); i++ {
		for j := i; j > 0 && inRange[j].distance < inRange[j-1].distance; j-- {
			inRange[j], inRange[j-1] = inRange[j-1], inRange[j]
		}
	}

	keep := make(map[*MusicEmitter]bool, MusicSlotCount)
	for i := 0; i < len(inRange) && i < MusicSlotCount; i++ {
		keep[inRange[i].emitter] = true
	}

	for e := range mx.playing {
		if !keep[e] {
			e.player.Close()
			e.playing = false
			delete(mx.playing, e)
		}
	}
	for e := range keep {
		if !mx.playing[e] {
			e.player.Play()
			e.playing = true
			mx.playing[e] = true
		}
		mx.applyVolume(e, e.distanceTo(listener))
	}
}

// Playing reports whether e currently holds a mixer slot.
func (mx *MusicMixer) Playing(e *MusicEmitter) bool { return mx.playing[e] }
