package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/gofrs/flock"

	"avsser/internal/logging"
)

// LockFileName is created in every destination directory of a run.
const LockFileName = ".avsser.lock"

type dirLocks struct {
	locks []*flock.Flock
}

// lockDirectories takes an exclusive lock in each directory, creating
// missing ones. It fails if another run already holds any of them.
func lockDirectories(dirs []string) (*dirLocks, error) {
	sorted := append([]string(nil), dirs...)
	sort.Strings(sorted)

	held := &dirLocks{}
	for _, dir := range sorted {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			held.release(nil)
			return nil, fmt.Errorf("create destination %s: %w", dir, err)
		}
		lock := flock.New(filepath.Join(dir, LockFileName))
		ok, err := lock.TryLock()
		if err != nil {
			held.release(nil)
			return nil, fmt.Errorf("lock %s: %w", dir, err)
		}
		if !ok {
			held.release(nil)
			return nil, fmt.Errorf("another avsser run is writing to %s", dir)
		}
		held.locks = append(held.locks, lock)
	}
	return held, nil
}

func (d *dirLocks) release(logger *slog.Logger) {
	if d == nil {
		return
	}
	for _, lock := range d.locks {
		if err := lock.Unlock(); err != nil && logger != nil {
			logger.Warn("failed to release destination lock",
				logging.String("lock", lock.Path()),
				logging.Error(err),
			)
		}
	}
	d.locks = nil
}
