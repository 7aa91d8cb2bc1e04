package store

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamv8/streamv8/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DataRoot:       t.TempDir(),
		SessionSecret:  "test-secret",
		Env:            "test",
		LockRetries:    20,
		LockBackoff:    2 * time.Millisecond,
		LockMaxBackoff: 10 * time.Millisecond,
		LockStaleAfter: 5 * time.Second,
	}
}

type doc struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Tags  []string `json:"tags"`
}

func TestWriteReadRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	path := filepath.Join(cfg.DataRoot, "nested", "dir", "doc.json")

	want := doc{Name: "iron-legacy", Count: 42, Tags: []string{"a", "b"}}
	require.NoError(t, s.WriteJSON(path, want))

	var got doc
	require.NoError(t, s.ReadJSON(path, &got))
	assert.Equal(t, want, got)
}

func TestReadMissingKeepsFallback(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)

	got := doc{Name: "fallback", Count: 7}
	require.NoError(t, s.ReadJSON(filepath.Join(cfg.DataRoot, "absent.json"), &got))
	assert.Equal(t, "fallback", got.Name)
	assert.Equal(t, 7, got.Count)
}

func TestReadCorruptReturnsDecodeError(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	path := filepath.Join(cfg.DataRoot, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got doc
	err := s.ReadJSON(path, &got)
	var derr *DecodeError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, path, derr.Path)
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	path := filepath.Join(cfg.DataRoot, "doc.json")
	require.NoError(t, s.WriteJSON(path, doc{Name: "x"}))
	require.NoError(t, s.WriteJSON(path, doc{Name: "y"}))

	entries, err := os.ReadDir(cfg.DataRoot)
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "orphaned temp file %s", e.Name())
		assert.False(t, strings.HasSuffix(e.Name(), ".lock"), "leaked lock file %s", e.Name())
	}
}

func TestConcurrentWritesNeverMixPayloads(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	path := filepath.Join(cfg.DataRoot, "contended.json")

	payloads := []doc{
		{Name: strings.Repeat("alpha-", 500), Count: 1},
		{Name: strings.Repeat("omega-", 500), Count: 2},
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Lock contention may exhaust retries under the race
			// detector; a timed-out writer is fine, a torn file is not.
			_ = s.WriteJSON(path, payloads[i%2])
		}(i)
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got doc
	require.NoError(t, json.Unmarshal(data, &got), "file must always hold one complete payload")
	assert.Contains(t, []int{1, 2}, got.Count)
	assert.Equal(t, payloads[got.Count-1].Name, got.Name)
}

func TestAppendLineCreatesFileAndParents(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	path := filepath.Join(cfg.DataRoot, "logs", "audit.log")

	require.NoError(t, s.AppendLine(path, "first"))
	require.NoError(t, s.AppendLine(path, "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestExists(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	path := filepath.Join(cfg.DataRoot, "doc.json")

	ok, err := s.Exists(path)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.WriteJSON(path, doc{}))
	ok, err = s.Exists(path)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRemoveIdempotent(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	path := filepath.Join(cfg.DataRoot, "doc.json")

	require.NoError(t, s.WriteJSON(path, doc{}))
	require.NoError(t, s.Remove(path))
	require.NoError(t, s.Remove(path), "removing an absent path is not an error")
}

func TestCrashMidWriteLeavesPriorVersion(t *testing.T) {
	cfg := testConfig(t)
	s := New(cfg)
	path := filepath.Join(cfg.DataRoot, "doc.json")
	require.NoError(t, s.WriteJSON(path, doc{Name: "stable"}))

	// A crashed writer manifests as an orphaned temp file beside the
	// target; the committed document must be untouched.
	orphan := path + ".deadbeef.tmp"
	require.NoError(t, os.WriteFile(orphan, []byte("{\"name\":\"partial"), 0o644))

	var got doc
	require.NoError(t, s.ReadJSON(path, &got))
	assert.Equal(t, "stable", got.Name)
}

func TestErrorTaxonomySentinels(t *testing.T) {
	assert.False(t, errors.Is(ErrNotFound, ErrConflict))
	assert.False(t, errors.Is(ErrLockTimeout, ErrNotFound))
}
