package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Lock is a transient handle to an acquired path lock. It is only valid
// inside the WithLock callback; it never outlives the operation.
type Lock struct {
	store *Store
	path  string
}

// WithLock acquires the exclusive advisory lock for path, runs fn with a
// handle scoped to that path, and releases the lock on every exit path.
// Acquisition retries with exponential backoff; a lock file older than the
// stale threshold is assumed to belong to a crashed holder and reclaimed.
func (s *Store) WithLock(path string, fn func(*Lock) error) error {
	lockPath, err := s.acquire(path)
	if err != nil {
		return err
	}
	defer os.Remove(lockPath)
	return fn(&Lock{store: s, path: path})
}

// ReadJSON reads the locked document. Missing file leaves dst at its
// fallback value, same as Store.ReadJSON.
func (l *Lock) ReadJSON(dst interface{}) error {
	return l.store.ReadJSON(l.path, dst)
}

// WriteJSON replaces the locked document via temp file and atomic rename.
func (l *Lock) WriteJSON(v interface{}) error {
	return writeJSONFile(l.path, v)
}

// AppendLine appends one line to the locked file.
func (l *Lock) AppendLine(line string) error {
	return appendLineFile(l.path, line)
}

func (s *Store) acquire(path string) (string, error) {
	lockPath := path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return "", err
	}
	backoff := s.backoff
	for attempt := 0; attempt <= s.retries; attempt++ {
		f, err := os.OpenFile(lockPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			f.Close()
			return lockPath, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		if s.reclaimStale(lockPath) {
			continue
		}
		if attempt == s.retries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > s.maxBackoff {
			backoff = s.maxBackoff
		}
	}
	return "", fmt.Errorf("%w: %s", ErrLockTimeout, path)
}

// reclaimStale removes the lock file if its holder appears to have crashed.
// Reclaim goes through a rename so that exactly one waiter takes the file,
// and the claim is verified by identity: a fresh lock created by a rival
// between the stat and the rename is handed back, never deleted.
func (s *Store) reclaimStale(lockPath string) bool {
	fi, err := os.Stat(lockPath)
	if err != nil {
		// Holder released between our open and stat; retry immediately.
		return os.IsNotExist(err)
	}
	if time.Since(fi.ModTime()) < s.staleAfter {
		return false
	}
	claimed := fmt.Sprintf("%s.%s.reclaim", lockPath, uuid.NewString())
	if err := os.Rename(lockPath, claimed); err != nil {
		return os.IsNotExist(err)
	}
	cfi, err := os.Stat(claimed)
	if err != nil || !os.SameFile(fi, cfi) {
		// Not the file we judged stale: the lock changed hands in between.
		if err == nil {
			os.Rename(claimed, lockPath)
		}
		return false
	}
	os.Remove(claimed)
	return true
}
