package models

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type ContentType string

const (
	ContentMovie  ContentType = "movie"
	ContentSeries ContentType = "series"
)

type Subtitle struct {
	Language string `json:"language"`
	URL      string `json:"url"`
}

type Movie struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Year          int        `json:"year"`
	Genres        []string   `json:"genres"`
	PosterURL     string     `json:"posterUrl"`
	BackdropURL   string     `json:"backdropUrl"`
	StreamURL     string     `json:"streamUrl"`
	Duration      int        `json:"duration"`
	ContentRating string     `json:"contentRating"`
	Published     bool       `json:"published"`
	Featured      bool       `json:"featured"`
	Tags          []string   `json:"tags"`
	Subtitles     []Subtitle `json:"subtitles"`
	Categories    []string   `json:"categories"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
	Views         int        `json:"views"`
}

type Episode struct {
	EpisodeNumber int        `json:"episodeNumber"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Duration      int        `json:"duration"`
	StreamURL     string     `json:"streamUrl"`
	Subtitles     []Subtitle `json:"subtitles"`
	ThumbnailURL  string     `json:"thumbnailUrl"`
	ReleasedAt    time.Time  `json:"releasedAt"`
	Published     bool       `json:"published"`
}

type Season struct {
	SeasonNumber int       `json:"seasonNumber"`
	Title        string    `json:"title"`
	Synopsis     string    `json:"synopsis"`
	Episodes     []Episode `json:"episodes"`
}

type Series struct {
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Year        int       `json:"year"`
	Genres      []string  `json:"genres"`
	PosterURL   string    `json:"posterUrl"`
	BackdropURL string    `json:"backdropUrl"`
	Featured    bool      `json:"featured"`
	Published   bool      `json:"published"`
	Seasons     []Season  `json:"seasons"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	Tags        []string  `json:"tags"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Order     int       `json:"order"`
	HeroID    string    `json:"heroId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type User struct {
	Username           string    `json:"username"`
	PasswordHash       string    `json:"passwordHash"`
	Role               Role      `json:"role"`
	Active             bool      `json:"active"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
	ForcePasswordReset bool      `json:"forcePasswordReset"`
}

type HistoryEntry struct {
	ContentID   string      `json:"contentId"`
	Type        ContentType `json:"type"`
	Progress    float64     `json:"progress"`
	LastWatched time.Time   `json:"lastWatched"`
	Season      int         `json:"season,omitempty"`
	Episode     int         `json:"episode,omitempty"`
}
