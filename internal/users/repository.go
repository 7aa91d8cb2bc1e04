package users

import (
	"strings"
	"time"

	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/store"
)

type userFile struct {
	Users []models.User `json:"users"`
}

// Repository persists accounts in two role-partitioned collections:
// users/admin.json and users/users.json. Username uniqueness is enforced
// case-insensitively across the combined set.
type Repository struct {
	store *store.Store
	cfg   *config.Config
}

func NewRepository(st *store.Store, cfg *config.Config) *Repository {
	return &Repository{store: st, cfg: cfg}
}

func (r *Repository) fileForRole(role models.Role) string {
	if role == models.RoleAdmin {
		return r.cfg.AdminDBPath()
	}
	return r.cfg.UsersDBPath()
}

func (r *Repository) load(path string) (userFile, error) {
	var file userFile
	err := r.store.ReadJSON(path, &file)
	return file, err
}

// All returns every account from both collections, admins first.
func (r *Repository) All() ([]models.User, error) {
	admins, err := r.load(r.cfg.AdminDBPath())
	if err != nil {
		return nil, err
	}
	regular, err := r.load(r.cfg.UsersDBPath())
	if err != nil {
		return nil, err
	}
	return append(admins.Users, regular.Users...), nil
}

// Find locates an account by username, case-insensitively.
func (r *Repository) Find(username string) (*models.User, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].Username, username) {
			u := all[i]
			return &u, nil
		}
	}
	return nil, nil
}

// Upsert inserts or replaces the account in the collection matching its
// role, bumping updatedAt.
func (r *Repository) Upsert(u models.User) error {
	if verr := u.Validate(); verr != nil {
		return verr
	}
	u.UpdatedAt = time.Now().UTC()
	path := r.fileForRole(u.Role)
	return r.store.WithLock(path, func(l *store.Lock) error {
		var file userFile
		if err := l.ReadJSON(&file); err != nil {
			return err
		}
		kept := file.Users[:0]
		for _, existing := range file.Users {
			if !strings.EqualFold(existing.Username, u.Username) {
				kept = append(kept, existing)
			}
		}
		file.Users = append(kept, u)
		return l.WriteJSON(file)
	})
}

// Delete removes the account from both collections. Unknown usernames are
// not an error.
func (r *Repository) Delete(username string) error {
	for _, path := range []string{r.cfg.AdminDBPath(), r.cfg.UsersDBPath()} {
		err := r.store.WithLock(path, func(l *store.Lock) error {
			var file userFile
			if err := l.ReadJSON(&file); err != nil {
				return err
			}
			kept := file.Users[:0]
			for _, existing := range file.Users {
				if !strings.EqualFold(existing.Username, username) {
					kept = append(kept, existing)
				}
			}
			file.Users = kept
			return l.WriteJSON(file)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Replace swaps the entire collection for a role.
func (r *Repository) Replace(role models.Role, list []models.User) error {
	return r.store.WriteJSON(r.fileForRole(role), userFile{Users: list})
}
