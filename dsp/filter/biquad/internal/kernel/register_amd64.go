//go:build amd64 && !purego

package kernel

import "github.com/cwbudde/algo-fxchain/internal/cpu"

func init() {
	Global.Register(Entry{
		Name:     "avx2",
		Level:    cpu.LevelAVX2,
		Priority: 20,
		Block:    Unrolled4,
	})
}
