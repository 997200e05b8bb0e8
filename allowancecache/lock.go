package allowancecache

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ProfileLock guards a wallet profile's cache directory against being
// opened by two scanner processes at once (e.g. two browser windows
// pointed at the same profile). It is advisory and OS-level, independent
// of the in-process run coalescing AllowanceScanner performs for
// concurrent callers within one process.
type ProfileLock struct {
	fl *flock.Flock
}

// AcquireProfileLock takes an exclusive, non-blocking lock on dir.
func AcquireProfileLock(dir string) (*ProfileLock, error) {
	fl := flock.New(filepath.Join(dir, ".allowance-scanner.lock"))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("allowancecache: acquiring profile lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("allowancecache: profile %q is already locked by another process", dir)
	}
	return &ProfileLock{fl: fl}, nil
}

// Release drops the lock.
func (l *ProfileLock) Release() error {
	return l.fl.Unlock()
}
