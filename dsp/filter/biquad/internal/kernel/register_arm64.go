//go:build arm64 && !purego

package kernel

import "github.com/cwbudde/algo-fxchain/internal/cpu"

func init() {
	Global.Register(Entry{
		Name:     "neon",
		Level:    cpu.LevelNEON,
		Priority: 20,
		Block:    Unrolled4,
	})
}
