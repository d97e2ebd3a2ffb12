//go:build unix

package listen

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// fileLimitMu protects the getrlimit→setrlimit read-modify-write in
// RaiseFileLimit from concurrent callers within the process.
var fileLimitMu sync.Mutex

// FileLimit returns the process's soft and hard limits on open file
// descriptors (RLIMIT_NOFILE). Together with Hint it helps act on
// EMFILE/ENFILE accept errors.
func FileLimit() (soft, hard uint64, err error) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, 0, fmt.Errorf("listen: getrlimit RLIMIT_NOFILE: %w", err)
	}
	return rl.Cur, rl.Max, nil
}

// RaiseFileLimit raises the soft RLIMIT_NOFILE to n, capped at the hard
// limit. It never lowers either limit. Returns the soft limit actually in
// effect afterwards.
func RaiseFileLimit(n uint64) (uint64, error) {
	fileLimitMu.Lock()
	defer fileLimitMu.Unlock()

	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, fmt.Errorf("listen: getrlimit RLIMIT_NOFILE: %w", err)
	}
	if n <= rl.Cur {
		return rl.Cur, nil
	}
	if n > rl.Max {
		n = rl.Max
	}
	rl.Cur = n
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, fmt.Errorf("listen: setrlimit RLIMIT_NOFILE: %w", err)
	}
	return rl.Cur, nil
}
