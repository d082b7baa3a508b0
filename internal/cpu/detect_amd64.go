//go:build amd64

package cpu

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

func detect() Features {
	return Features{
		HasAVX2:      cpu.X86.HasAVX2,
		Architecture: runtime.GOARCH,
	}
}
