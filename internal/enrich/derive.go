package enrich

import (
	"strings"

	"github.com/justestif/go-library-themes/internal/library"
)

var (
	electronicKeywords = []string{"electronic", "techno", "house", "ambient", "edm", "synth", "electro"}
	rockKeywords       = []string{"rock", "metal", "punk", "grunge", "alternative", "indie rock"}
	experimentalWords  = []string{"jazz", "experimental", "avant-garde", "fusion", "improvisation"}

	energeticMoods = []string{"energetic", "upbeat", "happy", "danceable", "party"}
	chillMoods     = []string{"chill", "relaxing", "mellow", "ambient", "peaceful"}
	darkMoods      = []string{"dark", "melancholy", "sad", "atmospheric", "brooding"}
)

const defaultPopularity = 0.5

// DeriveFeatures computes the intelligent_*, is_*, mood_*, discovery_score and
// era_signature fields from tags already present in raw. It performs no I/O
// and returns the same output for the same inputs.
func DeriveFeatures(raw Attributes, t library.Track) Attributes {
	out := Attributes{}

	genres := concat(
		raw.Strings("mb_genres"),
		raw.Strings("lastfm_genres"),
		raw.Strings("mb_tags"),
		raw.Strings("lastfm_tags"),
	)
	if len(genres) > 0 {
		out["intelligent_primary_genre"] = genres[0]
		out["genre_diversity"] = distinct(genres)

		text := strings.Join(genres, " ")
		out["is_electronic"] = containsAny(text, electronicKeywords)
		out["is_rock"] = containsAny(text, rockKeywords)
		out["is_experimental"] = containsAny(text, experimentalWords)
	}

	if moods := raw.Moods(); len(moods) > 0 {
		text := strings.Join(moods, " ")
		out["mood_energetic"] = moodScore(text, energeticMoods)
		out["mood_chill"] = moodScore(text, chillMoods)
		out["mood_dark"] = moodScore(text, darkMoods)
	}

	popularity, ok := raw.Popularity()
	if !ok {
		popularity = defaultPopularity
	}
	switch {
	case t.PlayCount > 5 && popularity < 0.3:
		out["is_hidden_gem"] = true
		out["discovery_score"] = 0.8
	case popularity > 0.7:
		out["is_mainstream"] = true
		out["discovery_score"] = 0.2
	default:
		out["discovery_score"] = 0.5
	}

	if year, ok := t.ReleaseYear(); ok && len(genres) > 0 {
		if sig := eraSignature(year, genres, out.Bool("is_electronic")); sig != "" {
			out["era_signature"] = sig
		}
	}

	return out
}

func eraSignature(year int, genres []string, electronic bool) string {
	anyContains := func(word string) bool {
		for _, g := range genres {
			if strings.Contains(g, word) {
				return true
			}
		}
		return false
	}

	switch {
	case year < 1980 && anyContains("rock"):
		return "classic_rock"
	case year >= 1980 && year < 1990 && electronic:
		return "early_electronic"
	case year >= 1990 && year < 2000 && anyContains("alternative"):
		return "90s_alternative"
	case year >= 2000 && year < 2010 && anyContains("indie"):
		return "2000s_indie"
	case year >= 2010:
		return "modern"
	}
	return ""
}

func moodScore(text string, vocabulary []string) float64 {
	hits := 0
	for _, m := range vocabulary {
		if strings.Contains(text, m) {
			hits++
		}
	}
	return float64(hits) / float64(len(vocabulary))
}

func distinct(items []string) int {
	seen := make(map[string]struct{}, len(items))
	for _, s := range items {
		seen[s] = struct{}{}
	}
	return len(seen)
}
