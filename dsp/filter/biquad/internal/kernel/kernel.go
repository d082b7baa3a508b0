// Package kernel holds the DF-II-T block kernels behind biquad processing and
// the registry that picks one for the running CPU.
//
// Every kernel evaluates
//
//	y  = b0*x + d0
//	d0 = b1*x - a1*y + d1
//	d1 = b2*x - a2*y
//
// in exactly this order, so all of them are bit-identical. They differ only
// in how far the loop is unrolled.
package kernel

import (
	"sort"
	"sync"

	"github.com/cwbudde/algo-fxchain/internal/cpu"
)

// Coefficients mirrors biquad.Coefficients without importing it.
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// BlockFn filters buf in place and returns the updated delay line.
type BlockFn func(c Coefficients, d0, d1 float64, buf []float64) (float64, float64)

// Entry is one registered kernel.
type Entry struct {
	Name     string
	Level    cpu.Level
	Priority int
	Block    BlockFn
}

// Registry stores kernels ordered by priority.
type Registry struct {
	mu      sync.RWMutex
	entries []Entry
}

// Global is populated by this package's init functions.
var Global = &Registry{}

// Register adds an entry.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = append(r.entries, e)
	sort.SliceStable(r.entries, func(i, j int) bool {
		return r.entries[i].Priority > r.entries[j].Priority
	})
}

// Lookup returns the highest-priority entry that f supports, or nil.
func (r *Registry) Lookup(f cpu.Features) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i := range r.entries {
		if cpu.Supports(f, r.entries[i].Level) {
			e := r.entries[i]
			return &e
		}
	}

	return nil
}

// Entries returns a copy of the registered entries.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Entry(nil), r.entries...)
}

// Select returns the kernel for the currently detected CPU.
func Select() Entry {
	e := Global.Lookup(cpu.DetectFeatures())
	if e == nil || e.Block == nil {
		panic("biquad: no block kernel registered")
	}

	return *e
}

func init() {
	Global.Register(Entry{
		Name:     "generic",
		Level:    cpu.LevelGeneric,
		Priority: 0,
		Block:    Generic,
	})
}
