package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Solstice Chronicles":        "solstice-chronicles",
		"Iron Legacy: Remastered":    "iron-legacy-remastered",
		"  Spaced   Out  ":           "spaced-out",
		"Already-Slugged":            "already-slugged",
		"100 Years of Rain!":         "100-years-of-rain",
		"Héros du Périph":            "h-ros-du-p-riph",
		"___":                        "",
		"":                           "",
		"The  Long--Night // Part 2": "the-long-night-part-2",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "Slugify(%q)", in)
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	assert.Equal(t, Slugify("Solstice Chronicles"), Slugify("Solstice Chronicles"))
}
