package history

import (
	"sort"

	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/store"
)

// Repository keeps one watch-history document per user. At most one entry
// per (contentId, type); descending lastWatched is a read-time view, not a
// storage invariant.
type Repository struct {
	store *store.Store
	cfg   *config.Config
}

func NewRepository(st *store.Store, cfg *config.Config) *Repository {
	return &Repository{store: st, cfg: cfg}
}

// Get returns the user's history newest-first. Entries that fail
// validation are rejected as a whole: a history file is small enough that
// partial corruption means the document is suspect.
func (r *Repository) Get(username string) ([]models.HistoryEntry, error) {
	entries := []models.HistoryEntry{}
	if err := r.store.ReadJSON(r.cfg.HistoryPath(username), &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		if verr := entries[i].Validate(); verr != nil {
			return nil, verr
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastWatched.After(entries[j].LastWatched)
	})
	return entries, nil
}

// Upsert replaces any entry for the same content and appends the new one.
func (r *Repository) Upsert(username string, entry models.HistoryEntry) error {
	if verr := entry.Validate(); verr != nil {
		return verr
	}
	return r.store.WithLock(r.cfg.HistoryPath(username), func(l *store.Lock) error {
		entries := []models.HistoryEntry{}
		if err := l.ReadJSON(&entries); err != nil {
			return err
		}
		kept := entries[:0]
		for _, existing := range entries {
			if existing.ContentID == entry.ContentID && existing.Type == entry.Type {
				continue
			}
			kept = append(kept, existing)
		}
		return l.WriteJSON(append(kept, entry))
	})
}

// Clear replaces the user's history with an empty list.
func (r *Repository) Clear(username string) error {
	return r.store.WriteJSON(r.cfg.HistoryPath(username), []models.HistoryEntry{})
}
