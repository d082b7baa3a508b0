// Package cpu detects the instruction set extensions that select the biquad
// kernel. Detection runs once and is cached; tests and the --generic CLI
// switch can force the portable kernel.
package cpu

import "sync"

// Level identifies a kernel tier.
type Level int

const (
	// LevelGeneric is the portable Go kernel.
	LevelGeneric Level = iota

	// LevelAVX2 marks x86-64 CPUs with AVX2.
	LevelAVX2

	// LevelNEON marks arm64 CPUs with Advanced SIMD.
	LevelNEON
)

func (l Level) String() string {
	switch l {
	case LevelGeneric:
		return "generic"
	case LevelAVX2:
		return "avx2"
	case LevelNEON:
		return "neon"
	default:
		return "unknown"
	}
}

// Features describes the detected CPU.
type Features struct {
	HasAVX2 bool
	HasNEON bool

	// ForceGeneric restricts selection to LevelGeneric.
	ForceGeneric bool

	Architecture string
}

var (
	mu       sync.Mutex
	detected *Features
	forced   *Features
)

// DetectFeatures returns the cached CPU features, or the forced override if
// one is set.
func DetectFeatures() Features {
	mu.Lock()
	defer mu.Unlock()

	if forced != nil {
		return *forced
	}

	if detected == nil {
		f := detect()
		detected = &f
	}

	return *detected
}

// SetForcedFeatures overrides detection until ResetDetection is called.
func SetForcedFeatures(f Features) {
	mu.Lock()
	defer mu.Unlock()

	forced = &f
}

// ForceGeneric keeps the detected architecture but disables every
// accelerated tier.
func ForceGeneric() {
	f := DetectFeatures()
	f.ForceGeneric = true
	SetForcedFeatures(f)
}

// ResetDetection drops the override and the cache.
func ResetDetection() {
	mu.Lock()
	defer mu.Unlock()

	forced = nil
	detected = nil
}

// Supports reports whether f can run kernels of the given level.
func Supports(f Features, level Level) bool {
	if f.ForceGeneric {
		return level == LevelGeneric
	}

	switch level {
	case LevelGeneric:
		return true
	case LevelAVX2:
		return f.HasAVX2
	case LevelNEON:
		return f.HasNEON
	default:
		return false
	}
}
