package models

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// AllowedStreamDomains is the whitelist for stream and subtitle URLs.
// Matching is exact hostname or any subdomain of an entry.
var AllowedStreamDomains = []string{
	"localhost",
	"127.0.0.1",
	"example.com",
	"cdn.example.com",
	"stream.mediacdn.local",
}

// ValidationError reports schema rejection with per-field detail.
type ValidationError struct {
	Entity string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, "; "))
}

type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, dup := f[field]; !dup {
		f[field] = msg
	}
}

func (f fieldErrors) result(entity string) *ValidationError {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Entity: entity, Fields: f}
}

func validURL(raw string) bool {
	u, err := url.Parse(raw)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func allowedStreamURL(raw string) bool {
	if !validURL(raw) {
		return false
	}
	u, _ := url.Parse(raw)
	host := u.Hostname()
	for _, domain := range AllowedStreamDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

func maxYear() int {
	return time.Now().Year() + 1
}

func (s Subtitle) validate(f fieldErrors, prefix string) {
	if len(s.Language) < 2 {
		f.add(prefix+".language", "language code required")
	}
	if !allowedStreamURL(s.URL) {
		f.add(prefix+".url", "URL domain is not allowed")
	}
}

func (m *Movie) Validate() *ValidationError {
	f := fieldErrors{}
	if m.ID == "" {
		f.add("id", "required")
	}
	if m.Title == "" {
		f.add("title", "required")
	}
	if len(m.Description) < 10 {
		f.add("description", "must be at least 10 characters")
	}
	if m.Year < 1900 || m.Year > maxYear() {
		f.add("year", fmt.Sprintf("must be between 1900 and %d", maxYear()))
	}
	if len(m.Genres) == 0 {
		f.add("genres", "at least one genre required")
	}
	for i, g := range m.Genres {
		if len(g) < 2 {
			f.add(fmt.Sprintf("genres[%d]", i), "too short")
		}
	}
	if !validURL(m.PosterURL) {
		f.add("posterUrl", "must be a valid URL")
	}
	if !validURL(m.BackdropURL) {
		f.add("backdropUrl", "must be a valid URL")
	}
	if !allowedStreamURL(m.StreamURL) {
		f.add("streamUrl", "URL domain is not allowed")
	}
	if m.Duration < 1 {
		f.add("duration", "must be positive")
	}
	if m.ContentRating == "" {
		f.add("contentRating", "required")
	}
	for i, sub := range m.Subtitles {
		sub.validate(f, fmt.Sprintf("subtitles[%d]", i))
	}
	if m.Views < 0 {
		f.add("views", "must not be negative")
	}
	if m.CreatedAt.IsZero() {
		f.add("createdAt", "required")
	}
	if m.UpdatedAt.IsZero() {
		f.add("updatedAt", "required")
	}
	return f.result("movie")
}

func (e *Episode) Validate() *ValidationError {
	f := fieldErrors{}
	e.validate(f, "")
	return f.result("episode")
}

func (e *Episode) validate(f fieldErrors, prefix string) {
	if e.EpisodeNumber < 1 {
		f.add(prefix+"episodeNumber", "must be at least 1")
	}
	if e.Title == "" {
		f.add(prefix+"title", "required")
	}
	if len(e.Description) < 10 {
		f.add(prefix+"description", "must be at least 10 characters")
	}
	if e.Duration < 1 {
		f.add(prefix+"duration", "must be positive")
	}
	if !allowedStreamURL(e.StreamURL) {
		f.add(prefix+"streamUrl", "URL domain is not allowed")
	}
	if !validURL(e.ThumbnailURL) {
		f.add(prefix+"thumbnailUrl", "must be a valid URL")
	}
	if e.ReleasedAt.IsZero() {
		f.add(prefix+"releasedAt", "required")
	}
	for i, sub := range e.Subtitles {
		sub.validate(f, fmt.Sprintf("%ssubtitles[%d]", prefix, i))
	}
}

func (s *Season) Validate() *ValidationError {
	f := fieldErrors{}
	s.validate(f, "")
	return f.result("season")
}

func (s *Season) validate(f fieldErrors, prefix string) {
	if s.SeasonNumber < 1 {
		f.add(prefix+"seasonNumber", "must be at least 1")
	}
	if s.Title == "" {
		f.add(prefix+"title", "required")
	}
	if len(s.Synopsis) < 10 {
		f.add(prefix+"synopsis", "must be at least 10 characters")
	}
	seen := map[int]bool{}
	for i, ep := range s.Episodes {
		ep.validate(f, fmt.Sprintf("%sepisodes[%d].", prefix, i))
		if seen[ep.EpisodeNumber] {
			f.add(fmt.Sprintf("%sepisodes[%d].episodeNumber", prefix, i), "duplicate episode number")
		}
		seen[ep.EpisodeNumber] = true
	}
}

func (s *Series) Validate() *ValidationError {
	f := fieldErrors{}
	if s.Slug == "" {
		f.add("slug", "required")
	}
	if s.Title == "" {
		f.add("title", "required")
	}
	if len(s.Description) < 10 {
		f.add("description", "must be at least 10 characters")
	}
	if s.Year < 1900 || s.Year > maxYear() {
		f.add("year", fmt.Sprintf("must be between 1900 and %d", maxYear()))
	}
	if len(s.Genres) == 0 {
		f.add("genres", "at least one genre required")
	}
	if !validURL(s.PosterURL) {
		f.add("posterUrl", "must be a valid URL")
	}
	if !validURL(s.BackdropURL) {
		f.add("backdropUrl", "must be a valid URL")
	}
	seen := map[int]bool{}
	for i, se := range s.Seasons {
		se.validate(f, fmt.Sprintf("seasons[%d].", i))
		if seen[se.SeasonNumber] {
			f.add(fmt.Sprintf("seasons[%d].seasonNumber", i), "duplicate season number")
		}
		seen[se.SeasonNumber] = true
	}
	if s.CreatedAt.IsZero() {
		f.add("createdAt", "required")
	}
	if s.UpdatedAt.IsZero() {
		f.add("updatedAt", "required")
	}
	return f.result("series")
}

func (c *Category) Validate() *ValidationError {
	f := fieldErrors{}
	if c.ID == "" {
		f.add("id", "required")
	}
	if len(c.Name) < 2 {
		f.add("name", "must be at least 2 characters")
	}
	if c.Slug == "" {
		f.add("slug", "required")
	}
	if c.Order < 0 {
		f.add("order", "must not be negative")
	}
	return f.result("category")
}

func (u *User) Validate() *ValidationError {
	f := fieldErrors{}
	if len(u.Username) < 3 {
		f.add("username", "must be at least 3 characters")
	}
	if len(u.PasswordHash) < 20 {
		f.add("passwordHash", "missing or malformed")
	}
	if !u.Role.Valid() {
		f.add("role", "must be admin or user")
	}
	return f.result("user")
}

func (h *HistoryEntry) Validate() *ValidationError {
	f := fieldErrors{}
	if h.ContentID == "" {
		f.add("contentId", "required")
	}
	if h.Type != ContentMovie && h.Type != ContentSeries {
		f.add("type", "must be movie or series")
	}
	if h.Progress < 0 || h.Progress > 1 {
		f.add("progress", "must be between 0 and 1")
	}
	if h.LastWatched.IsZero() {
		f.add("lastWatched", "required")
	}
	if h.Season < 0 {
		f.add("season", "must not be negative")
	}
	if h.Episode < 0 {
		f.add("episode", "must not be negative")
	}
	return f.result("history entry")
}
