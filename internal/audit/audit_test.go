package audit

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/store"
)

func testLogger(t *testing.T) (*Logger, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		DataRoot:       t.TempDir(),
		SessionSecret:  "test",
		Env:            "test",
		LockRetries:    20,
		LockBackoff:    2 * time.Millisecond,
		LockMaxBackoff: 10 * time.Millisecond,
		LockStaleAfter: 5 * time.Second,
	}
	return NewLogger(store.New(cfg), cfg), cfg
}

func TestRecordLineFormat(t *testing.T) {
	logger, cfg := testLogger(t)
	require.NoError(t, logger.Record("root", ActionCreateMovie, "iron-legacy", map[string]interface{}{
		"title": "Iron Legacy",
	}))

	data, err := os.ReadFile(cfg.AuditLogPath())
	require.NoError(t, err)
	line := strings.TrimRight(string(data), "\n")

	parts := strings.Split(line, " | ")
	require.Len(t, parts, 5)
	_, err = time.Parse(time.RFC3339, parts[0])
	require.NoError(t, err, "first field must be an RFC3339 timestamp")
	assert.Equal(t, "root", parts[1])
	assert.Equal(t, string(ActionCreateMovie), parts[2])
	assert.Equal(t, "iron-legacy", parts[3])

	var details map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(parts[4]), &details))
	assert.Equal(t, "Iron Legacy", details["title"])
}

func TestRecordAppendsInOrder(t *testing.T) {
	logger, cfg := testLogger(t)
	require.NoError(t, logger.Record("root", ActionLogin, "root", nil))
	require.NoError(t, logger.Record("root", ActionDeleteSeries, "solstice-chronicles", nil))
	require.NoError(t, logger.Record("root", ActionLogout, "root", nil))

	data, err := os.ReadFile(cfg.AuditLogPath())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], string(ActionLogin))
	assert.Contains(t, lines[1], string(ActionDeleteSeries))
	assert.Contains(t, lines[2], string(ActionLogout))
}

func TestRecordNilDetails(t *testing.T) {
	logger, cfg := testLogger(t)
	require.NoError(t, logger.Record("root", ActionLogout, "root", nil))

	data, err := os.ReadFile(cfg.AuditLogPath())
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimRight(string(data), "\n"), "{}"))
}

func TestTail(t *testing.T) {
	logger, _ := testLogger(t)

	empty, err := logger.Tail(10)
	require.NoError(t, err)
	assert.Empty(t, empty, "missing log reads as empty")

	for i := 0; i < 5; i++ {
		require.NoError(t, logger.Record("root", ActionLogin, "root", map[string]interface{}{"n": i}))
	}

	last2, err := logger.Tail(2)
	require.NoError(t, err)
	require.Len(t, last2, 2)
	assert.Contains(t, last2[0], `{"n":3}`)
	assert.Contains(t, last2[1], `{"n":4}`)

	all, err := logger.Tail(100)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}
