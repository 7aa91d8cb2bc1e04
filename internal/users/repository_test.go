package users

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/store"
)

func testRepo(t *testing.T) (*Repository, *config.Config) {
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
	return NewRepository(store.New(cfg), cfg), cfg
}

func newAccount(t *testing.T, username string, role models.Role, password string) models.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	now := time.Now().UTC()
	return models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUpsertPartitionsByRole(t *testing.T) {
	repo, cfg := testRepo(t)
	require.NoError(t, repo.Upsert(newAccount(t, "root", models.RoleAdmin, "correct-horse-battery")))
	require.NoError(t, repo.Upsert(newAccount(t, "alice", models.RoleUser, "correct-horse-battery")))

	var adminFile, userFile userFile
	require.NoError(t, repo.store.ReadJSON(cfg.AdminDBPath(), &adminFile))
	require.NoError(t, repo.store.ReadJSON(cfg.UsersDBPath(), &userFile))
	require.Len(t, adminFile.Users, 1)
	require.Len(t, userFile.Users, 1)
	assert.Equal(t, "root", adminFile.Users[0].Username)
	assert.Equal(t, "alice", userFile.Users[0].Username)
}

func TestFindCaseInsensitive(t *testing.T) {
	repo, _ := testRepo(t)
	require.NoError(t, repo.Upsert(newAccount(t, "Alice", models.RoleUser, "correct-horse-battery")))

	got, err := repo.Find("aLiCe")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Alice", got.Username)

	missing, err := repo.Find("nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUpsertReplacesExisting(t *testing.T) {
	repo, _ := testRepo(t)
	require.NoError(t, repo.Upsert(newAccount(t, "alice", models.RoleUser, "correct-horse-battery")))

	updated := newAccount(t, "alice", models.RoleUser, "correct-horse-battery")
	updated.ForcePasswordReset = true
	require.NoError(t, repo.Upsert(updated))

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].ForcePasswordReset)
}

func TestDeleteRemovesFromBothCollections(t *testing.T) {
	repo, _ := testRepo(t)
	require.NoError(t, repo.Upsert(newAccount(t, "root", models.RoleAdmin, "correct-horse-battery")))
	require.NoError(t, repo.Upsert(newAccount(t, "alice", models.RoleUser, "correct-horse-battery")))

	require.NoError(t, repo.Delete("root"))
	require.NoError(t, repo.Delete("alice"))
	require.NoError(t, repo.Delete("alice"), "deleting an unknown user is not an error")

	all, err := repo.All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAuthenticate(t *testing.T) {
	repo, _ := testRepo(t)
	require.NoError(t, repo.Upsert(newAccount(t, "alice", models.RoleUser, "correct-horse-battery")))

	got, err := repo.Authenticate("alice", "correct-horse-battery")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repo.Authenticate("alice", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = repo.Authenticate("nobody", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthenticateRejectsInactive(t *testing.T) {
	repo, _ := testRepo(t)
	account := newAccount(t, "alice", models.RoleUser, "correct-horse-battery")
	account.Active = false
	require.NoError(t, repo.Upsert(account))

	// Correct credentials for a disabled account must still fail.
	_, err := repo.Authenticate("alice", "correct-horse-battery")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestReplaceSwapsCollection(t *testing.T) {
	repo, _ := testRepo(t)
	require.NoError(t, repo.Upsert(newAccount(t, "alice", models.RoleUser, "correct-horse-battery")))

	next := []models.User{
		newAccount(t, "bob", models.RoleUser, "correct-horse-battery"),
		newAccount(t, "carol", models.RoleUser, "correct-horse-battery"),
	}
	require.NoError(t, repo.Replace(models.RoleUser, next))

	all, err := repo.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Nil(t, mustFind(t, repo, "alice"))
	assert.NotNil(t, mustFind(t, repo, "bob"))
}

func mustFind(t *testing.T, repo *Repository, username string) *models.User {
	t.Helper()
	u, err := repo.Find(username)
	require.NoError(t, err)
	return u
}
