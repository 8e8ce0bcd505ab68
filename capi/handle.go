package capi

import (
	"sync"

	"github.com/google/uuid"
)

// Handle is the opaque value a foreign caller holds instead of a Go
// pointer. It is derived from a uuid rather than handed out as a raw
// Go pointer, since a C caller storing a live Go pointer across a cgo
// boundary would violate the runtime's pointer-passing rules the
// moment the garbage collector moves or frees the referent; keying a
// registry by an opaque integer sidesteps that entirely.
type Handle uint64

// Registry is a process-wide table of live handles. The zero Registry
// is ready to use.
type Registry struct {
	mu      sync.Mutex
	entries map[Handle]any
}

// global is the default Registry every package-level helper operates
// on; a real FFI boundary has exactly one process, so one shared
// registry (rather than a registry-per-Configuration) matches spec.md
// §6's description of the ABI.
var global = &Registry{}

// New mints a handle for v and stores it in r, retrying on the
// astronomically unlikely event of a uuid collision with a still-live
// handle.
func (r *Registry) New(v any) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries == nil {
		r.entries = make(map[Handle]any)
	}
	for {
		h := Handle(uuidToUint64(uuid.New()))
		if _, exists := r.entries[h]; exists {
			continue
		}
		r.entries[h] = v
		return h
	}
}

// Get returns the value behind h, or ok=false if h is invalid or
// already released.
func (r *Registry) Get(h Handle) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[h]
	return v, ok
}

// Release invalidates h. Releasing an unknown or already-released
// handle is a no-op, matching a free()-like "double free of NULL is
// fine" convention rather than panicking on foreign-caller misuse.
func (r *Registry) Release(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, h)
}

// Count reports the number of live handles, for tests and diagnostics.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// New, Get, and Release mint/resolve/invalidate handles against the
// package's shared global registry — the entry points a cgo/FFI
// binding would actually export.
func New(v any) Handle         { return global.New(v) }
func Get(h Handle) (any, bool) { return global.Get(h) }
func Release(h Handle)         { global.Release(h) }
func Count() int               { return global.Count() }

func uuidToUint64(id uuid.UUID) uint64 {
	var v uint64
	for _, b := range id[:8] {
		v = v<<8 | uint64(b)
	}
	return v
}
