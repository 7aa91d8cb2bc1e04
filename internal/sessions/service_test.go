package sessions

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/store"
)

func testService(t *testing.T) (*Service, *config.Config) {
	t.Helper()
	cfg := &config.Config{
		DataRoot:       t.TempDir(),
		SessionSecret:  "test-signing-secret",
		Env:            "test",
		LockRetries:    20,
		LockBackoff:    2 * time.Millisecond,
		LockMaxBackoff: 10 * time.Millisecond,
		LockStaleAfter: 5 * time.Second,
	}
	return NewService(store.New(cfg), cfg), cfg
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := testService(t)

	sess, err := svc.Create("alice", models.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Len(t, sess.CSRFToken, 96, "48 random bytes hex encoded")
	assert.False(t, sess.ExpiresAt.Before(sess.CreatedAt))

	got, err := svc.Get(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, models.RoleAdmin, got.Role)
}

func TestGetUnknownIsNil(t *testing.T) {
	svc, _ := testService(t)
	got, err := svc.Get("no-such-session")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func seedSession(t *testing.T, svc *Service, cfg *config.Config, sess Session) {
	t.Helper()
	var file sessionFile
	require.NoError(t, svc.store.ReadJSON(cfg.SessionsPath(), &file))
	file.Sessions = append(file.Sessions, sess)
	require.NoError(t, svc.store.WriteJSON(cfg.SessionsPath(), file))
}

func TestExpiredSessionPrunedOnGet(t *testing.T) {
	svc, cfg := testService(t)
	live, err := svc.Create("alice", models.RoleUser)
	require.NoError(t, err)

	seedSession(t, svc, cfg, Session{
		ID:        "stale-id",
		Username:  "bob",
		Role:      models.RoleUser,
		CreatedAt: time.Now().Add(-2 * TTL),
		ExpiresAt: time.Now().Add(-time.Hour),
		CSRFToken: "irrelevant",
	})

	got, err := svc.Get("stale-id")
	require.NoError(t, err)
	assert.Nil(t, got, "an expired session is never returned as valid")

	// The prune must have been persisted.
	data, err := os.ReadFile(cfg.SessionsPath())
	require.NoError(t, err)
	var file sessionFile
	require.NoError(t, json.Unmarshal(data, &file))
	require.Len(t, file.Sessions, 1)
	assert.Equal(t, live.ID, file.Sessions[0].ID)
}

func TestCreatePrunesExpired(t *testing.T) {
	svc, cfg := testService(t)
	seedSession(t, svc, cfg, Session{
		ID:        "stale-id",
		Username:  "bob",
		Role:      models.RoleUser,
		CreatedAt: time.Now().Add(-2 * TTL),
		ExpiresAt: time.Now().Add(-time.Minute),
		CSRFToken: "irrelevant",
	})

	fresh, err := svc.Create("carol", models.RoleUser)
	require.NoError(t, err)

	var file sessionFile
	require.NoError(t, svc.store.ReadJSON(cfg.SessionsPath(), &file))
	require.Len(t, file.Sessions, 1)
	assert.Equal(t, fresh.ID, file.Sessions[0].ID)
}

func TestTouchExtendsButNeverShortens(t *testing.T) {
	svc, _ := testService(t)
	sess, err := svc.Create("alice", models.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.Touch(sess.ID))
	after, err := svc.Get(sess.ID)
	require.NoError(t, err)
	require.NotNil(t, after)
	assert.False(t, after.ExpiresAt.Before(sess.ExpiresAt), "touch must never shorten expiry")
}

func TestTouchExpiredIsNoop(t *testing.T) {
	svc, cfg := testService(t)
	seedSession(t, svc, cfg, Session{
		ID:        "stale-id",
		Username:  "bob",
		Role:      models.RoleUser,
		CreatedAt: time.Now().Add(-2 * TTL),
		ExpiresAt: time.Now().Add(-time.Minute),
		CSRFToken: "irrelevant",
	})

	require.NoError(t, svc.Touch("stale-id"))
	got, err := svc.Get("stale-id")
	require.NoError(t, err)
	assert.Nil(t, got, "touch must not resurrect an expired session")
}

func TestInvalidate(t *testing.T) {
	svc, _ := testService(t)
	sess, err := svc.Create("alice", models.RoleUser)
	require.NoError(t, err)

	require.NoError(t, svc.Invalidate(sess.ID))
	got, err := svc.Get(sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, svc.Invalidate(sess.ID), "invalidating twice is harmless")
}

func TestVerifyCsrf(t *testing.T) {
	svc, _ := testService(t)
	sess, err := svc.Create("alice", models.RoleUser)
	require.NoError(t, err)

	assert.True(t, svc.VerifyCsrf(sess, sess.CSRFToken))
	assert.False(t, svc.VerifyCsrf(sess, ""))
	assert.False(t, svc.VerifyCsrf(nil, sess.CSRFToken))

	// One character shorter must be a plain rejection, not a crash.
	assert.NotPanics(t, func() {
		assert.False(t, svc.VerifyCsrf(sess, sess.CSRFToken[:len(sess.CSRFToken)-1]))
	})
	assert.False(t, svc.VerifyCsrf(sess, sess.CSRFToken+"0"))
}
