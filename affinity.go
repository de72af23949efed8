//go:build linux

package combiner

import (
	"golang.org/x/sys/unix"
)

// PinToCPU restricts the calling OS thread to a single CPU.
func PinToCPU(cpu int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	return unix.SchedSetaffinity(0, &mask)
}
