package passes

import (
	"sync"

	"github.com/gowasm/wasm2spirv/ir"
)

// Result is what a pass adapter produces: binary output (e.g.
// optimized SPIR-V words), text output (e.g. cross-compiled source,
// disassembly), and any side-channel diagnostic the adapter captured
// even on success (warnings an external tool printed to stderr).
type Result struct {
	Bytes      []byte
	Text       string
	Diagnostic string
}

// Adapter is the shape spec.md §4.7 gives every validator, optimizer,
// and cross-compiler: a pure function of a compiled module's SPIR-V
// words, with the ir.Module that produced them available too so a
// cross-compiler can walk the richer representation instead of
// re-parsing words.
type Adapter func(module *ir.Module, words []byte) (Result, error)

// Cache runs an Adapter at most once per (pass name, word vector)
// pair, matching spec.md §4.7's "the core ... caches results keyed on
// the SPIR-V word vector." A caller that keeps one Cache and reuses it
// for repeated requests (disassembly, GLSL, and so on) over the same
// words runs each pass only once.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	pass  string
	words string
}

type cacheEntry struct {
	result Result
	err    error
}

// Run executes fn under the name pass, or returns the Result/error
// from the last time pass ran against this exact word vector.
func (c *Cache) Run(pass string, module *ir.Module, words []byte, fn Adapter) (Result, error) {
	key := cacheKey{pass: pass, words: string(words)}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return e.result, e.err
	}
	c.mu.Unlock()

	result, err := fn(module, words)

	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[cacheKey]cacheEntry)
	}
	c.entries[key] = cacheEntry{result: result, err: err}
	c.mu.Unlock()

	return result, err
}

// Invalidate drops every cached entry. The cache key already includes
// the words, so a result keyed on a previous word vector is never served
// for new words; Invalidate only bounds memory when one Cache outlives
// many recompiles.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}
