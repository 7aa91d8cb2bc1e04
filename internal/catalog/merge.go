package catalog

import (
	"fmt"
	"time"

	"github.com/streamv8/streamv8/internal/models"
	"github.com/streamv8/streamv8/internal/store"
)

// SeriesMeta is the caller-supplied description of the series an episode
// belongs to. Seasons, when present, only seed titles and synopses for
// seasons that do not exist yet; they never overwrite stored episodes.
type SeriesMeta struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Year        int             `json:"year"`
	Genres      []string        `json:"genres"`
	PosterURL   string          `json:"posterUrl"`
	BackdropURL string          `json:"backdropUrl"`
	Featured    bool            `json:"featured"`
	Published   bool            `json:"published"`
	Seasons     []models.Season `json:"seasons"`
	Tags        []string        `json:"tags"`
}

// EpisodeUpsert carries one episode plus enough series context to build
// the full document if nothing exists yet.
type EpisodeUpsert struct {
	SeriesTitle  string         `json:"seriesTitle"`
	Slug         string         `json:"slug,omitempty"`
	Series       SeriesMeta     `json:"series"`
	SeasonNumber int            `json:"seasonNumber"`
	Episode      models.Episode `json:"episode"`
}

// UpsertSeriesEpisode merges one episode into its series aggregate. The
// three input shapes — new series, existing series with a new season, and
// existing series with the target season — all converge on one consistent
// document: seasons strictly ascending by number, episodes strictly
// ascending within each season, at most one episode per number. The whole
// read-merge-write runs under the series document's lock, so concurrent
// upserts against one series serialize.
func (r *Repository) UpsertSeriesEpisode(input EpisodeUpsert) (*models.Series, error) {
	slug := input.Slug
	if slug == "" {
		slug = Slugify(input.SeriesTitle)
	}
	if slug == "" {
		return nil, &models.ValidationError{
			Entity: "series",
			Fields: map[string]string{"seriesTitle": "cannot derive slug from empty title"},
		}
	}

	var result models.Series
	err := r.store.WithLock(r.cfg.SeriesPath(slug), func(l *store.Lock) error {
		var existing models.Series
		if err := l.ReadJSON(&existing); err != nil {
			return err
		}
		// A stored document always carries its slug; an empty one means
		// the file did not exist and this upsert creates the series.
		exists := existing.Slug != ""

		now := time.Now().UTC()
		seasons := existing.Seasons
		idx := -1
		for i := range seasons {
			if seasons[i].SeasonNumber == input.SeasonNumber {
				idx = i
				break
			}
		}
		if idx >= 0 {
			episodes := seasons[idx].Episodes[:0]
			for _, ep := range seasons[idx].Episodes {
				if ep.EpisodeNumber != input.Episode.EpisodeNumber {
					episodes = append(episodes, ep)
				}
			}
			seasons[idx].Episodes = append(episodes, input.Episode)
			sortEpisodes(seasons[idx].Episodes)
		} else {
			seasons = append(seasons, newSeason(input))
		}
		sortSeasons(seasons)

		title := input.Series.Title
		if title == "" {
			title = input.SeriesTitle
		}
		result = models.Series{
			Slug:        slug,
			Title:       title,
			Description: input.Series.Description,
			Year:        input.Series.Year,
			Genres:      input.Series.Genres,
			PosterURL:   input.Series.PosterURL,
			BackdropURL: input.Series.BackdropURL,
			Featured:    input.Series.Featured,
			Published:   input.Series.Published,
			Seasons:     seasons,
			CreatedAt:   now,
			UpdatedAt:   now,
			Tags:        input.Series.Tags,
		}
		if exists {
			result.CreatedAt = existing.CreatedAt
		}
		if result.Tags == nil {
			result.Tags = []string{}
		}
		if verr := result.Validate(); verr != nil {
			return verr
		}
		return l.WriteJSON(result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// newSeason builds the season an episode lands in when no season with that
// number exists yet, seeding title and synopsis from the caller-supplied
// metadata's matching season when present.
func newSeason(input EpisodeUpsert) models.Season {
	season := models.Season{
		SeasonNumber: input.SeasonNumber,
		Title:        fmt.Sprintf("Season %d", input.SeasonNumber),
		Synopsis:     input.Series.Description,
		Episodes:     []models.Episode{input.Episode},
	}
	for _, meta := range input.Series.Seasons {
		if meta.SeasonNumber == input.SeasonNumber {
			if meta.Title != "" {
				season.Title = meta.Title
			}
			if meta.Synopsis != "" {
				season.Synopsis = meta.Synopsis
			}
			break
		}
	}
	return season
}
