package enrich

import "strings"

var (
	genreKeywords = []string{
		"rock", "pop", "jazz", "blues", "country", "folk", "electronic", "hip hop",
		"rap", "metal", "punk", "reggae", "classical", "ambient", "techno", "house",
		"indie", "alternative", "experimental", "funk", "soul", "r&b",
	}
	moodKeywords = []string{
		"chill", "relaxing", "energetic", "upbeat", "melancholy", "happy", "sad",
		"dark", "atmospheric", "peaceful", "aggressive", "mellow", "dreamy",
	}
	styleKeywords = []string{
		"acoustic", "instrumental", "vocal", "live", "studio", "remix", "cover",
		"orchestral", "symphonic", "minimalist", "progressive", "psychedelic",
	}
)

// IsGenreTag reports whether tag names a musical genre.
func IsGenreTag(tag string) bool { return containsAny(tag, genreKeywords) }

// IsMoodTag reports whether tag names a mood or atmosphere.
func IsMoodTag(tag string) bool { return containsAny(tag, moodKeywords) }

// IsStyleTag reports whether tag names a production or performance style.
func IsStyleTag(tag string) bool { return containsAny(tag, styleKeywords) }

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// filterTags keeps at most n tags matching keep, preserving order.
func filterTags(tags []string, keep func(string) bool, n int) []string {
	out := make([]string, 0, n)
	for _, t := range tags {
		if len(out) == n {
			break
		}
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// categorize writes the standard tag breakdown for one service under prefix.
func categorize(attrs Attributes, prefix string, tags []string) {
	if len(tags) == 0 {
		return
	}
	if len(tags) > 10 {
		tags = tags[:10]
	}
	attrs[prefix+"tags"] = tags
	attrs[prefix+"genres"] = filterTags(tags, IsGenreTag, 5)
	attrs[prefix+"moods"] = filterTags(tags, IsMoodTag, 3)
	attrs[prefix+"styles"] = filterTags(tags, IsStyleTag, 3)
}
