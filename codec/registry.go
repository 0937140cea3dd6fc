package codec

import "sync"

// Priority tiers recognised by the registry (spec §4.G "Registry contract").
const (
	PriorityDefault        = 50
	PriorityNativeBacked    = 100
	PriorityExplicitOverride = 200
)

type entry struct {
	codec    Codec
	priority int
	source   string
}

// Registry is a transfer-syntax UID → codec mapping with priority-based
// override (spec §4.G). It mirrors the lifecycle discipline the teacher
// applies to the data dictionary (sync.Once-guarded lazy init) but adds the
// explicit initialize/reset/freeze contract spec §9 "Global registries"
// calls for: a process-wide default instance exists for ergonomics, but
// nothing relies on implicit initialization order.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	frozen  bool
	// negativeCache records UIDs that returned "none" since the freeze
	// latch was last toggled; registration of a UID present here
	// invalidates the cached negative (spec §4.G "subsequent mutations
	// invalidate any cached negative lookups").
	negativeCache map[string]struct{}
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{
		entries:       make(map[string]entry),
		negativeCache: make(map[string]struct{}),
	}
}

// Register adds or overrides the codec for transferSyntaxUID. Registration
// is append-only-with-override: the new entry replaces the existing one if
// and only if priority is strictly greater than the incumbent's. source is
// free-form provenance (e.g. "jpeglossless", "rle", a plugin name) carried
// for diagnostics only.
func (r *Registry) Register(transferSyntaxUID string, c Codec, priority int, source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[transferSyntaxUID]; ok && existing.priority >= priority {
		return
	}
	r.entries[transferSyntaxUID] = entry{codec: c, priority: priority, source: source}
	delete(r.negativeCache, transferSyntaxUID)
}

// Lookup returns the codec registered for transferSyntaxUID, or (nil, false)
// if none is registered. The first call toggles the freeze latch: subsequent
// Register calls still succeed (registrations are never rejected outright),
// but a "none" result is cached per-UID until invalidated by a Register call
// for that UID.
func (r *Registry) Lookup(transferSyntaxUID string) (Codec, bool) {
	r.mu.RLock()
	if e, ok := r.entries[transferSyntaxUID]; ok {
		frozen := r.frozen
		r.mu.RUnlock()
		if !frozen {
			r.mu.Lock()
			r.frozen = true
			r.mu.Unlock()
		}
		return e.codec, true
	}
	_, cachedNegative := r.negativeCache[transferSyntaxUID]
	r.mu.RUnlock()
	if cachedNegative {
		return nil, false
	}
	r.mu.Lock()
	r.frozen = true
	r.negativeCache[transferSyntaxUID] = struct{}{}
	r.mu.Unlock()
	return nil, false
}

// Frozen reports whether any lookup has occurred yet.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// Reset clears all registrations and the freeze latch, returning the
// registry to its initial state. Intended for tests and for hosts that want
// to rebuild the codec set at runtime.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[string]entry)
	r.negativeCache = make(map[string]struct{})
	r.frozen = false
}

// Default is the process-wide registry instance used when a caller has no
// reason to maintain its own (spec §9 "Global registries": "Allow a default
// process-wide instance for ergonomics; never rely on implicit
// initialization order"). Reference codecs register themselves here from
// their package init(), the same pattern the corpus's pixel package uses for
// its decoder table.
var Default = NewRegistry()
