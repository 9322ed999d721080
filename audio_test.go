package vesper

import "testing"

type fakePlayer struct {
	playing bool
	volume  float64
	closed  bool
}

func (p *fakePlayer) Play()                   { p.playing = true }
func (p *fakePlayer) IsPlaying() bool         { return p.playing }
func (p *fakePlayer) SetVolume(scale float64) { p.volume = scale }
func (p *fakePlayer) Close() error            { p.closed = true; p.playing = false; return nil }

func newFakeProfile(name string, numSounds int) (*SoundProfile, *[]*fakePlayer) {
	var created []*fakePlayer
	profile := NewSoundProfile(name, numSounds, func(index int) soundPlayer {
		p := &fakePlayer{}
		created = append(created, p)
		return p
	})
	return profile, &created
}

func TestSoundHandlerPlayFillsSlots(t *testing.T) {
	h := NewSoundHandler()
	profile, _ := newFakeProfile("blip", 1)

	for i := 0; i < SoundSlotCount; i++ {
		h.Play(profile, 0, 1, 1, 1)
	}
	if h.ActiveCount() != SoundSlotCount {
		t.Fatalf("ActiveCount() = %d, want %d", h.ActiveCount(), SoundSlotCount)
	}
}

func TestSoundHandlerDropsWhenSlotsFull(t *testing.T) {
	h := NewSoundHandler()
	profile, created := newFakeProfile("blip", 1)

	for i := 0; i < SoundSlotCount; i++ {
		h.Play(profile, 0, 1, 1, 1)
	}

	idx := h.Play(profile, 0, 1, 1, 1) // every slot busy: must silently drop
	if idx != -1 {
		t.Fatalf("Play() = %d, want -1 when every slot is busy", idx)
	}
	if h.ActiveCount() != SoundSlotCount {
		t.Fatalf("ActiveCount() = %d, want %d (no eviction)", h.ActiveCount(), SoundSlotCount)
	}
	for _, p := range *created {
		if p.closed {
			t.Error("expected no existing slot to be evicted by an overflowing Play")
		}
	}
}

func TestSoundHandlerUpdateReclaimsFinishedSlots(t *testing.T) {
	h := NewSoundHandler()
	profile, created := newFakeProfile("blip", 1)

	h.Play(profile, 0, 1, 1, 1)
	if profile.Sounds[0].linkage != 1 {
		t.Fatalf("bundle linkage = %d, want 1 while playing", profile.Sounds[0].linkage)
	}
	(*created)[0].playing = false // simulate playback finishing

	h.Update(defaultSoundDuration / 2) // before the default duration elapses
	if h.ActiveCount() != 1 {
		t.Errorf("ActiveCount() = %d, want 1 (not yet expired)", h.ActiveCount())
	}

	h.Update(defaultSoundDuration) // crosses the remaining-time threshold
	if h.ActiveCount() != 0 {
		t.Errorf("ActiveCount() = %d, want 0 once the timer lapses", h.ActiveCount())
	}
	if profile.Sounds[0].linkage != 0 {
		t.Errorf("bundle linkage = %d, want 0 after Update reclaims the slot", profile.Sounds[0].linkage)
	}
}

func TestSoundHandlerExpiredProfileDropsBundleOnceUnlinked(t *testing.T) {
	h := NewSoundHandler()
	profile, created := newFakeProfile("blip", 1)

	h.Play(profile, 0, 1, 1, 1)
	profile.Expire()
	if len(profile.Sounds) != 1 {
		t.Fatalf("Expire() dropped a still-linked bundle early: %d sounds left", len(profile.Sounds))
	}

	(*created)[0].playing = false
	h.Update(defaultSoundDuration)

	if len(profile.Sounds) != 0 {
		t.Errorf("expected the expired, fully-unlinked bundle to be removed, got %d left", len(profile.Sounds))
	}
}

func TestSoundHandlerMuteZeroesVolume(t *testing.T) {
	h := NewSoundHandler()
	profile, created := newFakeProfile("blip", 1)
	h.Play(profile, 0, 1, 0.8, 1)

	h.SetMuted(true)
	if (*created)[0].volume != 0 {
		t.Errorf("volume = %v, want 0 while muted", (*created)[0].volume)
	}
	h.SetMuted(false)
	if (*created)[0].volume != 0.8 {
		t.Errorf("volume = %v, want 0.8 after unmuting", (*created)[0].volume)
	}
}

func TestMusicMixerKeepsClosestEmitters(t *testing.T) {
	mx := NewMusicMixer()
	var emitters []*MusicEmitter
	var players []*fakePlayer
	for i := 0; i < MusicSlotCount+2; i++ {
		p := &fakePlayer{}
		e := NewMusicEmitter(Vec2{float64(i * 100), 0}, 1000, 1, p)
		mx.Add(e)
		emitters = append(emitters, e)
		players = append(players, p)
	}

	mx.Update(Vec2{0, 0})

	for i := 0; i < MusicSlotCount; i++ {
		if !mx.Playing(emitters[i]) {
			t.Errorf("emitter %d (closest %d) should be playing", i, MusicSlotCount)
		}
	}
	for i := MusicSlotCount; i < len(emitters); i++ {
		if mx.Playing(emitters[i]) {
			t.Errorf("emitter %d (farthest) should not be playing, slots are full", i)
		}
	}
}

func TestMusicMixerPreemptsOnListenerMove(t *testing.T) {
	mx := NewMusicMixer()
	near := NewMusicEmitter(Vec2{0, 0}, 1000, 1, &fakePlayer{})
	far := NewMusicEmitter(Vec2{900, 0}, 1000, 1, &fakePlayer{})
	for i := 0; i < MusicSlotCount-1; i++ {
		mx.Add(NewMusicEmitter(Vec2{float64(i), 0}, 1000, 1, &fakePlayer{}))
	}
	mx.Add(near)
	mx.Add(far)

	mx.Update(Vec2{0, 0})
	if !mx.Playing(near) || mx.Playing(far) {
		t.Fatal("expected near to play and far to be excluded initially")
	}

	// Listener walks toward "far" until it becomes one of the closest.
	mx.Update(Vec2{900, 0})
	if !mx.Playing(far) {
		t.Error("expected far emitter to preempt once the listener approaches it")
	}
}

func TestMusicMixerOutOfRangeNeverPlays(t *testing.T) {
	mx := NewMusicMixer()
	e := NewMusicEmitter(Vec2{10000, 0}, 100, 1, &fakePlayer{})
	mx.Add(e)

	mx.Update(Vec2{0, 0})
	if mx.Playing(e) {
		t.Error("expected an out-of-range emitter to never be scheduled")
	}
}
