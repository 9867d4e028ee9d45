package naming

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Generic is the placeholder genre. Rules treat it as unusable.
const Generic = "Music"

var genericGenres = map[string]bool{
	"":        true,
	"unknown": true,
	"other":   true,
	"music":   true,
}

// canonicalGenres maps lowercase spellings to their display name. Every
// display name lowercases to a key of its own so normalization is stable.
var canonicalGenres = map[string]string{
	"hip-hop":           "Hip Hop",
	"hip hop":           "Hip Hop",
	"hiphop":            "Hip Hop",
	"rap":               "Hip Hop",
	"edm":               "Electronic",
	"electronica":       "Electronic",
	"electro":           "Electronic",
	"r&b":               "R&B",
	"rnb":               "R&B",
	"rhythm and blues":  "R&B",
	"drum and bass":     "Drum & Bass",
	"drum & bass":       "Drum & Bass",
	"dnb":               "Drum & Bass",
	"synth-pop":         "Synthpop",
	"synthpop":          "Synthpop",
	"lo-fi":             "Lo-Fi",
	"lofi":              "Lo-Fi",
	"k-pop":             "K-Pop",
	"kpop":              "K-Pop",
	"alt rock":          "Alternative Rock",
	"alt-rock":          "Alternative Rock",
	"rock and roll":     "Rock & Roll",
	"rock & roll":       "Rock & Roll",
	"rock'n'roll":       "Rock & Roll",
	"ost":               "Soundtrack",
	"score":             "Soundtrack",
	"soundtrack":        "Soundtrack",
	"singer-songwriter": "Singer-Songwriter",
	"idm":               "IDM",
}

// NormalizeGenre returns the display form of a free-text genre. Empty,
// unknown, other and very short genres become Generic.
func NormalizeGenre(genre string) string {
	key := strings.Join(strings.Fields(strings.ToLower(genre)), " ")
	if display, ok := canonicalGenres[key]; ok {
		return display
	}
	if genericGenres[key] || utf8.RuneCountInString(key) <= 2 {
		return Generic
	}
	return titleCase(key)
}

// IsGeneric reports whether a normalized value carries no information.
func IsGeneric(s string) bool {
	return s == "" || s == Generic
}

// titleCase upper-cases the first letter of every space separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
