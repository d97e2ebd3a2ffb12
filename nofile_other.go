//go:build !unix

package listen

import "errors"

// FileLimit returns the process's soft and hard limits on open file
// descriptors. Not supported on this platform.
func FileLimit() (soft, hard uint64, err error) {
	return 0, 0, errors.ErrUnsupported
}

// RaiseFileLimit raises the soft open-file limit to n. Not supported on
// this platform.
func RaiseFileLimit(n uint64) (uint64, error) {
	return 0, errors.ErrUnsupported
}
