package catalog

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamv8/streamv8/internal/config"
	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/store"
)

var (
	ErrNotFound   = store.ErrNotFound
	ErrSlugExists = fmt.Errorf("%w: series slug taken", store.ErrConflict)
)

// Repository is the catalog mutation engine: movies and series one
// document per file, categories a single ordered list. Every write funnels
// through the document store's locking and atomic replace.
type Repository struct {
	store *store.Store
	cfg   *config.Config
}

func NewRepository(st *store.Store, cfg *config.Config) *Repository {
	return &Repository{store: st, cfg: cfg}
}

// SaveMovie persists a movie, generating an id when absent and preserving
// createdAt and views from any existing record with the same id.
func (r *Repository) SaveMovie(m models.Movie) (*models.Movie, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	existing, err := r.GetMovie(m.ID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		m.CreatedAt = existing.CreatedAt
		m.Views = existing.Views
	} else {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if m.Views < 0 {
			m.Views = 0
		}
	}
	m.UpdatedAt = now
	if verr := m.Validate(); verr != nil {
		return nil, verr
	}
	if err := r.store.WriteJSON(r.cfg.MoviePath(m.ID), m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) GetMovie(id string) (*models.Movie, error) {
	ok, err := r.store.Exists(r.cfg.MoviePath(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	var m models.Movie
	if err := r.store.ReadJSON(r.cfg.MoviePath(id), &m); err != nil {
		return nil, err
	}
	if verr := m.Validate(); verr != nil {
		return nil, verr
	}
	return &m, nil
}

// DeleteMovie is idempotent.
func (r *Repository) DeleteMovie(id string) error {
	return r.store.Remove(r.cfg.MoviePath(id))
}

// IncrementViews bumps a movie's view counter under its path lock.
func (r *Repository) IncrementViews(id string) error {
	path := r.cfg.MoviePath(id)
	ok, err := r.store.Exists(path)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return r.store.WithLock(path, func(l *store.Lock) error {
		var m models.Movie
		if err := l.ReadJSON(&m); err != nil {
			return err
		}
		m.Views++
		m.UpdatedAt = time.Now().UTC()
		return l.WriteJSON(m)
	})
}

// ListMovies scans the movies directory. Files that fail to decode or
// validate are skipped and counted, never fatal; a missing directory reads
// as an empty catalog.
func (r *Repository) ListMovies() ([]models.Movie, int, error) {
	var out []models.Movie
	skipped, err := r.scanDir(r.cfg.MoviesDir(), func(path string) bool {
		var m models.Movie
		if err := r.store.ReadJSON(path, &m); err != nil {
			return false
		}
		if verr := m.Validate(); verr != nil {
			return false
		}
		out = append(out, m)
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	return out, skipped, nil
}

// ListSeries scans the series directory with the same skip semantics as
// ListMovies.
func (r *Repository) ListSeries() ([]models.Series, int, error) {
	var out []models.Series
	skipped, err := r.scanDir(r.cfg.SeriesDir(), func(path string) bool {
		var s models.Series
		if err := r.store.ReadJSON(path, &s); err != nil {
			return false
		}
		if verr := s.Validate(); verr != nil {
			return false
		}
		out = append(out, s)
		return true
	})
	if err != nil {
		return nil, 0, err
	}
	return out, skipped, nil
}

func (r *Repository) scanDir(dir string, accept func(path string) bool) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	skipped := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		path := filepath.Join(dir, name)
		if !accept(path) {
			skipped++
			log.Printf("catalog: skipping unreadable document %s", path)
		}
	}
	return skipped, nil
}

func (r *Repository) GetSeries(slug string) (*models.Series, error) {
	ok, err := r.store.Exists(r.cfg.SeriesPath(slug))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	var s models.Series
	if err := r.store.ReadJSON(r.cfg.SeriesPath(slug), &s); err != nil {
		return nil, err
	}
	if verr := s.Validate(); verr != nil {
		return nil, verr
	}
	return &s, nil
}

// CreateSeries persists a brand-new series document, deriving the slug
// from the title when absent. An existing document with the same slug is a
// conflict, not an overwrite.
func (r *Repository) CreateSeries(s models.Series) (*models.Series, error) {
	if s.Slug == "" {
		s.Slug = Slugify(s.Title)
	}
	ok, err := r.store.Exists(r.cfg.SeriesPath(s.Slug))
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrSlugExists
	}
	return r.SaveSeries(s)
}

// SaveSeries persists a full series document, restoring the sorted-season
// and sorted-episode invariants before writing.
func (r *Repository) SaveSeries(s models.Series) (*models.Series, error) {
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	sortSeasons(s.Seasons)
	if verr := s.Validate(); verr != nil {
		return nil, verr
	}
	if err := r.store.WriteJSON(r.cfg.SeriesPath(s.Slug), s); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSeries is idempotent.
func (r *Repository) DeleteSeries(slug string) error {
	return r.store.Remove(r.cfg.SeriesPath(slug))
}

// ListCategories reads the single ordered category list; a missing file is
// an empty catalog.
func (r *Repository) ListCategories() ([]models.Category, error) {
	list := []models.Category{}
	if err := r.store.ReadJSON(r.cfg.CategoriesPath(), &list); err != nil {
		return nil, err
	}
	for i := range list {
		if verr := list[i].Validate(); verr != nil {
			return nil, verr
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	return list, nil
}

// SaveCategories validates every entry and persists the list re-sorted by
// order.
func (r *Repository) SaveCategories(list []models.Category) error {
	for i := range list {
		if verr := list[i].Validate(); verr != nil {
			return verr
		}
	}
	sorted := make([]models.Category, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	return r.store.WriteJSON(r.cfg.CategoriesPath(), sorted)
}

func sortSeasons(seasons []models.Season) {
	sort.Slice(seasons, func(i, j int) bool {
		return seasons[i].SeasonNumber < seasons[j].SeasonNumber
	})
	for i := range seasons {
		sortEpisodes(seasons[i].Episodes)
	}
}

func sortEpisodes(episodes []models.Episode) {
	sort.Slice(episodes, func(i, j int) bool {
		return episodes[i].EpisodeNumber < episodes[j].EpisodeNumber
	})
}
