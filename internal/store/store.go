package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/streamv8/streamv8/internal/config"
)

var (
	// ErrLockTimeout is returned when the path lock cannot be acquired
	// within the retry budget.
	ErrLockTimeout = errors.New("lock acquisition timed out")

	// ErrNotFound reports an absent document where the caller required
	// one to exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict reports an existing document where the caller required
	// the path to be free.
	ErrConflict = errors.New("document already exists")
)

// DecodeError reports a document whose stored content is not valid JSON.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Store is the durable document layer. One JSON document per file, one
// advisory lock per path; all mutation of a path is serialized through
// that lock, in-process and across cooperating processes.
type Store struct {
	retries    int
	backoff    time.Duration
	maxBackoff time.Duration
	staleAfter time.Duration
}

func New(cfg *config.Config) *Store {
	return &Store{
		retries:    cfg.LockRetries,
		backoff:    cfg.LockBackoff,
		maxBackoff: cfg.LockMaxBackoff,
		staleAfter: cfg.LockStaleAfter,
	}
}

// ReadJSON decodes the document at path into dst. A missing file is not an
// error: dst keeps whatever fallback value the caller seeded it with.
func (s *Store) ReadJSON(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return &DecodeError{Path: path, Err: err}
	}
	return nil
}

// WriteJSON atomically replaces the document at path, creating parent
// directories as needed. The path lock is held for the duration.
func (s *Store) WriteJSON(path string, v interface{}) error {
	return s.WithLock(path, func(l *Lock) error {
		return l.WriteJSON(v)
	})
}

// AppendLine appends one line to a log-style file under the path lock.
func (s *Store) AppendLine(path, line string) error {
	return s.WithLock(path, func(l *Lock) error {
		return l.AppendLine(line)
	})
}

func (s *Store) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Remove deletes the document at path. Removing an absent path is not an
// error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func writeJSONFile(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func appendLineFile(path, line string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		return err
	}
	return f.Sync()
}
