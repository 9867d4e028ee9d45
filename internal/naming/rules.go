package naming

import (
	"fmt"
	"strings"
	"unicode"
)

// rule names a cluster or reports that it does not apply.
type rule struct {
	name  string
	apply func(c *cluster) (string, bool)
}

// enrichedRules run first, and only for clusters with enrichment data.
var enrichedRules = []rule{
	{"mood", moodRule},
	{"style", styleRule},
	{"energy", energyRule},
	{"discovery", discoveryRule},
	{"era", eraRule},
}

// localRules use library metadata alone. The last one always applies.
var localRules = []rule{
	{"artist", artistRule},
	{"plays", playsRule},
	{"era band", eraBandRule},
	{"dual genre", dualGenreRule},
	{"mix", mixRule},
	{"numbered", numberedRule},
}

const (
	moodShare      = 0.3
	styleShare     = 0.4
	energyShare    = 0.5
	artistShare    = 0.4
	hiddenGemLimit = 0.3
	eraYearShare   = 0.5
	eraMaxSpan     = 10
	essentialPlays = 20
	rarePlays      = 2
)

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func moodRule(c *cluster) (string, bool) {
	var moods []string
	tagged := 0
	for _, m := range c.members {
		ms := m.Attributes.Moods()
		if len(ms) == 0 {
			continue
		}
		tagged++
		for _, mood := range ms {
			moods = append(moods, strings.ToLower(strings.TrimSpace(mood)))
		}
	}
	if share(tagged, c.size()) < moodShare {
		return "", false
	}
	mood := titleCase(countValues(moods)[0].value)
	genre := c.genre()
	if IsGeneric(mood) || IsGeneric(genre) {
		return "", false
	}
	return mood + " " + genre, true
}

// usableStyle rejects short, numeric and non-alphabetic tags.
func usableStyle(tag string) bool {
	if len(tag) <= 2 {
		return false
	}
	letters := 0
	for _, r := range tag {
		switch {
		case unicode.IsLetter(r):
			letters++
		case r == ' ' || r == '-' || r == '&':
		default:
			return false
		}
	}
	return letters > 0
}

func styleRule(c *cluster) (string, bool) {
	var styles []string
	for _, m := range c.members {
		seen := map[string]bool{}
		for _, s := range m.Attributes.Styles() {
			s = strings.ToLower(strings.TrimSpace(s))
			if !usableStyle(s) || seen[s] {
				continue
			}
			seen[s] = true
			styles = append(styles, s)
		}
	}
	if len(styles) == 0 {
		return "", false
	}
	top := countValues(styles)[0]
	if share(top.n, c.size()) <= styleShare {
		return "", false
	}
	return titleCase(top.value), true
}

var energyLabels = map[string]string{
	"mood_energetic": "Upbeat",
	"mood_chill":     "Chill",
	"mood_dark":      "Dark",
}

// energyBucket is the strongest mood score of a track.
func energyBucket(m Member) string {
	best, bestScore := "", 0.0
	for _, key := range []string{"mood_energetic", "mood_chill", "mood_dark"} {
		if v, ok := m.Attributes.Float(key); ok && v > bestScore {
			best, bestScore = key, v
		}
	}
	return best
}

func energyRule(c *cluster) (string, bool) {
	var buckets []string
	for _, m := range c.members {
		if b := energyBucket(m); b != "" {
			buckets = append(buckets, b)
		}
	}
	if len(buckets) == 0 {
		return "", false
	}
	top := countValues(buckets)[0]
	genre := c.genre()
	if share(top.n, c.size()) <= energyShare || IsGeneric(genre) {
		return "", false
	}
	return energyLabels[top.value] + " " + genre, true
}

func discoveryRule(c *cluster) (string, bool) {
	if len(c.popularity) == 0 {
		return "", false
	}
	switch avg := mean(c.popularity); {
	case avg >= hiddenGemLimit:
		return "", false
	case avg < 0.1:
		return "Rare Finds", true
	case avg < 0.2:
		return "Deep Cuts", true
	default:
		return "Hidden Gems", true
	}
}

func eraRule(c *cluster) (string, bool) {
	lo, hi, ok := c.yearRange()
	if !ok || share(len(c.years), c.size()) < eraYearShare || hi-lo > eraMaxSpan {
		return "", false
	}

	label := c.genre()
	var styles []string
	for _, m := range c.members {
		for _, s := range m.Attributes.Styles() {
			if s = strings.ToLower(strings.TrimSpace(s)); usableStyle(s) {
				styles = append(styles, s)
			}
		}
	}
	if len(styles) > 0 {
		label = titleCase(countValues(styles)[0].value)
	}
	if IsGeneric(label) {
		return "", false
	}
	return decadeLabel(int(c.avgYear)) + " " + label, true
}

// decadeLabel renders 1994 as "90s" and 2013 as "2010s".
func decadeLabel(year int) string {
	decade := year / 10 * 10
	if decade < 2000 {
		return fmt.Sprintf("%02ds", decade%100)
	}
	return fmt.Sprintf("%ds", decade)
}

func artistRule(c *cluster) (string, bool) {
	if len(c.artists) == 0 {
		return "", false
	}
	top := c.artists[0]
	if share(top.n, c.size()) <= artistShare {
		return "", false
	}
	if genre := c.genre(); !IsGeneric(genre) {
		return top.value + " - " + genre, true
	}
	return top.value + " Collection", true
}

func playsRule(c *cluster) (string, bool) {
	genre := c.genre()
	if !c.anyPlays || IsGeneric(genre) {
		return "", false
	}
	switch {
	case c.avgPlays >= essentialPlays:
		return "Essential " + genre, true
	case c.avgPlays < rarePlays:
		return "Rare " + genre, true
	}
	return "", false
}

// eraBand labels an average release year.
func eraBand(avgYear float64) string {
	switch {
	case avgYear >= 2015:
		return "Modern"
	case avgYear >= 2010:
		return "Contemporary"
	case avgYear >= 2000:
		return "2000s"
	case avgYear >= 1990:
		return "90s"
	case avgYear >= 1980:
		return "80s"
	default:
		return "Classic"
	}
}

func eraBandRule(c *cluster) (string, bool) {
	genre := c.genre()
	if len(c.years) == 0 || IsGeneric(genre) {
		return "", false
	}
	return eraBand(c.avgYear) + " " + genre, true
}

func dualGenreRule(c *cluster) (string, bool) {
	if len(c.genres) < 2 {
		return "", false
	}
	return c.genres[0].value + " & " + c.genres[1].value, true
}

func mixRule(c *cluster) (string, bool) {
	if len(c.years) > 0 {
		return eraBand(c.avgYear) + " Mix", true
	}
	if len(c.artists) >= 3 && c.artists[0].n > 1 {
		return "Various Artists", true
	}
	return "", false
}

func numberedRule(c *cluster) (string, bool) {
	return fmt.Sprintf("Collection #%d", c.id), true
}
