package users

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/streamv8/streamv8/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactive           = errors.New("account is disabled")
)

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Authenticate verifies username/password and returns the account. A
// disabled account is rejected even with correct credentials; no session
// should be created for it.
func (r *Repository) Authenticate(username, password string) (*models.User, error) {
	u, err := r.Find(username)
	if err != nil {
		return nil, err
	}
	if u == nil || !CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, ErrInactive
	}
	return u, nil
}
