package catalog

import "strings"

// Slugify derives a URL-safe identifier from a title: lowercased, runs of
// non-alphanumeric characters collapsed to single hyphens, no leading or
// trailing hyphen. Deterministic, so the same title always maps to the
// same document.
func Slugify(title string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
