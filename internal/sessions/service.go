package sessions

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"time"

	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/store"
)

// TTL is the fixed session lifetime; Touch pushes expiry out by the same
// amount.
const TTL = 7 * 24 * time.Hour

type Session struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
	CSRFToken string      `json:"csrfToken"`
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type sessionFile struct {
	Sessions []Session `json:"sessions"`
}

// Service owns the session collection. Expired entries are pruned lazily
// whenever the collection is loaded; there is no background sweep.
type Service struct {
	store *store.Store
	cfg   *config.Config
}

func NewService(st *store.Store, cfg *config.Config) *Service {
	return &Service{store: st, cfg: cfg}
}

// Create issues a new session for username with a fresh CSRF secret. Both
// the id and the secret are random hex so the cookie value stays plain
// `<hex>.<hex>`.
func (s *Service) Create(username string, role models.Role) (*Session, error) {
	id, err := randomToken(16)
	if err != nil {
		return nil, err
	}
	csrf, err := randomToken(48)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	sess := Session{
		ID:        id,
		Username:  username,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(TTL),
		CSRFToken: csrf,
	}
	err = s.store.WithLock(s.cfg.SessionsPath(), func(l *store.Lock) error {
		var file sessionFile
		if err := l.ReadJSON(&file); err != nil {
			return err
		}
		kept := file.Sessions[:0]
		for _, existing := range file.Sessions {
			if !existing.Expired(now) {
				kept = append(kept, existing)
			}
		}
		file.Sessions = append(kept, sess)
		return l.WriteJSON(file)
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// Get returns the session with the given id, or nil if it is unknown or
// expired. Expired entries found along the way are dropped and the pruned
// collection persisted.
func (s *Service) Get(id string) (*Session, error) {
	var found *Session
	now := time.Now().UTC()
	err := s.store.WithLock(s.cfg.SessionsPath(), func(l *store.Lock) error {
		var file sessionFile
		if err := l.ReadJSON(&file); err != nil {
			return err
		}
		kept := make([]Session, 0, len(file.Sessions))
		for _, sess := range file.Sessions {
			if sess.Expired(now) {
				continue
			}
			kept = append(kept, sess)
		}
		pruned := len(kept) != len(file.Sessions)
		for i := range kept {
			if kept[i].ID == id {
				copied := kept[i]
				found = &copied
				break
			}
		}
		if pruned {
			file.Sessions = kept
			return l.WriteJSON(file)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// Touch extends a currently valid session's expiry to now+TTL. Expiry is
// never shortened; touching an expired or unknown session is a no-op.
func (s *Service) Touch(id string) error {
	now := time.Now().UTC()
	return s.store.WithLock(s.cfg.SessionsPath(), func(l *store.Lock) error {
		var file sessionFile
		if err := l.ReadJSON(&file); err != nil {
			return err
		}
		changed := false
		for i := range file.Sessions {
			if file.Sessions[i].ID == id && !file.Sessions[i].Expired(now) {
				file.Sessions[i].ExpiresAt = now.Add(TTL)
				changed = true
			}
		}
		if !changed {
			return nil
		}
		return l.WriteJSON(file)
	})
}

// Invalidate removes the session unconditionally.
func (s *Service) Invalidate(id string) error {
	return s.store.WithLock(s.cfg.SessionsPath(), func(l *store.Lock) error {
		var file sessionFile
		if err := l.ReadJSON(&file); err != nil {
			return err
		}
		kept := file.Sessions[:0]
		for _, sess := range file.Sessions {
			if sess.ID != id {
				kept = append(kept, sess)
			}
		}
		file.Sessions = kept
		return l.WriteJSON(file)
	})
}

// VerifyCsrf compares the caller-supplied token against the session's
// stored secret in constant time. Length mismatch is a plain rejection,
// never a panic or an early branch.
func (s *Service) VerifyCsrf(sess *Session, token string) bool {
	if sess == nil || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(token)) == 1
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
