package syncrepo

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// repoLock serializes local writes to one cloned repository's working tree,
// per spec.md §5's "writes to it are serialized per repository by a file
// lock at the repository root".
type repoLock struct {
	f *os.File
}

func openRepoLock(root string) (*repoLock, error) {
	path := filepath.Join(root, ".crev-sync.lock")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("syncrepo: open lock: %w", err)
	}
	return &repoLock{f: f}, nil
}

func (l *repoLock) Lock() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("syncrepo: acquire lock: %w", err)
	}
	return nil
}

func (l *repoLock) Unlock() error {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		return fmt.Errorf("syncrepo: release lock: %w", err)
	}
	return nil
}

func (l *repoLock) Close() error {
	return l.f.Close()
}
