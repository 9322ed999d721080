package vesper

import (
	"sync"
	"sync/atomic"
)

// LoadPolicy controls whether [AssetCache.Load] blocks the caller or
// loads in the background (spec §4.9).
type LoadPolicy uint8

const (
	// LoadSync loads on the calling goroutine, blocking until done.
	LoadSync LoadPolicy = iota
	// LoadAsync loads on a background goroutine; callers are notified by
	// calling AssetEntry.Get.
	LoadAsync
)

// AssetEntry is one cached asset, identified by its filepath. Loading
// happens at most once per entry; further Load calls only add a
// reference (spec §4.9).
type AssetEntry struct {
	path string

	refCount int32 // atomic

	mu       sync.Mutex
	loaded   bool
	loading  bool
	value    any
	err      error
	pending  []func(any, error)
	loadOnce func() (any, error)
}

// Path returns the entry's identity.
func (a *AssetEntry) Path() string { return a.path }

// RefCount returns the current reference count.
func (a *AssetEntry) RefCount() int32 { return atomic.LoadInt32(&a.refCount) }

// addRef increments the reference count.
func (a *AssetEntry) addRef() { atomic.AddInt32(&a.refCount, 1) }

// release decrements the reference count and reports whether it reached
// zero.
func (a *AssetEntry) release() bool {
	return atomic.AddInt32(&a.refCount, -1) == 0
}

// Loaded reports whether the asset has finished loading (successfully or
// not).
func (a *AssetEntry) Loaded() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loaded
}

// Get invokes callback with the loaded value once loading completes. If
// the asset is already loaded, callback runs synchronously and
// immediately; otherwise it's queued and runs from whichever goroutine
// finishes the load (the loading goroutine for LoadAsync, or the calling
// goroutine itself for LoadSync, which has already finished by the time
// Get could be called).
func (a *AssetEntry) Get(callback func(value any, err error)) {
	a.mu.Lock()
	if a.loaded {
		value, err := a.value, a.err
		a.mu.Unlock()
		callback(value, err)
		return
	}
	a.pending = append(a.pending, callback)
	a.mu.Unlock()
}

func (a *AssetEntry) complete(value any, err error) {
	a.mu.Lock()
	a.value, a.err = value, err
	a.loaded = true
	a.loading = false
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, cb := range pending {
		cb(value, err)
	}
}

// AssetCache is a reference-counted, path-keyed asset loader supporting
// both synchronous and background loading, with a default-asset fallback
// returned by Get when a load has failed (spec §4.9).
type AssetCache struct {
	mu      sync.RWMutex
	entries map[string]*AssetEntry

	// Default is returned (alongside the original error) to every pending
	// callback when a load fails, if set.
	Default any
}

// NewAssetCache creates an empty cache.
func NewAssetCache() *AssetCache {
	return &AssetCache{entries: make(map[string]*AssetEntry)}
}

// Load ensures path is loaded (or loading), incrementing its reference
// count, and returns its entry. loader performs the actual decode and is
// called at most once per path, regardless of how many times Load is
// called. With LoadSync, Load blocks until loader returns; with LoadAsync,
// loader runs on a new goroutine and Load returns immediately.
func (c *AssetCache) Load(path string, policy LoadPolicy, loader func() (any, error)) *AssetEntry {
	c.mu.Lock()
	entry, exists := c.entries[path]
	if !exists {
		entry = &AssetEntry{path: path, loadOnce: loader}
		c.entries[path] = entry
	}
	c.mu.Unlock()

	entry.addRef()

	entry.mu.Lock()
	alreadyStarted := entry.loaded || entry.loading
	if !alreadyStarted {
		entry.loading = true
	}
	entry.mu.Unlock()
	if alreadyStarted {
		return entry
	}

	run := func() {
		value, err := loader()
		if err != nil && c.Default != nil {
			entry.complete(c.Default, err)
			return
		}
		entry.complete(value, err)
	}

	if policy == LoadAsync {
		go run()
	} else {
		run()
	}
	return entry
}

// Drop releases one reference to the entry at path. Once the reference
// count reaches zero, Drop blocks until any in-flight load finishes (so a
// caller never observes a half-loaded asset being evicted), then removes
// the entry from the cache (spec §4.9).
func (c *AssetCache) Drop(path string) {
	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()
	if !ok {
		return
	}

	if !entry.release() {
		return
	}

	done := make(chan struct{})
	entry.Get(func(any, error) { close(done) })
	<-done

	c.mu.Lock()
	if c.entries[path] == entry && entry.RefCount() <= 0 {
		delete(c.entries, path)
	}
	c.mu.Unlock()
}

// Lookup returns the cached entry for path, if any, without affecting its
// reference count.
func (c *AssetCache) Lookup(path string) (*AssetEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[path]
	return e, ok
}

// Count returns how many distinct paths are currently cached.
func (c *AssetCache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
