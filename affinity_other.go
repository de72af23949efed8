//go:build !linux

package combiner

import "errors"

func PinToCPU(cpu int) error {
	return errors.New("combiner: cpu pinning is only supported on linux")
}
