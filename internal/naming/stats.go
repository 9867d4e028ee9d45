package naming

import (
	"fmt"
	"slices"

	"github.com/justestif/go-library-themes/internal/enrich"
	"github.com/justestif/go-library-themes/internal/library"
)

const unknownArtist = "Unknown Artist"

// Member is one track of a cluster with the enrichment it received, if any.
type Member struct {
	Track      library.Track
	Attributes enrich.Attributes
}

// Characteristics summarizes a cluster. It is stored with the theme.
type Characteristics struct {
	TrackCount     int      `json:"track_count"`
	YearRange      []int    `json:"year_range,omitempty"` // [first, last]
	PrimaryDecade  string   `json:"primary_decade,omitempty"`
	TopGenres      []string `json:"top_genres"`
	TopArtists     []string `json:"top_artists"`
	DominantGenre  string   `json:"dominant_genre"`
	DominantArtist string   `json:"dominant_artist,omitempty"`
	AvgDuration    float64  `json:"avg_duration"`
	AvgPlayCount   float64  `json:"avg_play_count"`
	AvgPopularity  *float64 `json:"avg_popularity,omitempty"`
}

type counted struct {
	value string
	n     int
}

// countValues tallies values and orders them by count, first seen first on ties.
func countValues(values []string) []counted {
	index := map[string]int{}
	var out []counted
	for _, v := range values {
		if i, ok := index[v]; ok {
			out[i].n++
			continue
		}
		index[v] = len(out)
		out = append(out, counted{value: v, n: 1})
	}
	slices.SortStableFunc(out, func(a, b counted) int { return b.n - a.n })
	return out
}

// cluster holds the statistics the naming rules read.
type cluster struct {
	id      int
	members []Member

	enriched   int
	genres     []counted // normalized, Generic excluded
	artists    []counted // Unknown Artist excluded
	years      []int
	avgYear    float64
	avgPlays   float64
	anyPlays   bool
	popularity []float64
}

func newCluster(id int, members []Member) *cluster {
	c := &cluster{id: id, members: members}

	var genres, artists []string
	var plays int
	for _, m := range members {
		if len(m.Attributes) > 0 {
			c.enriched++
		}
		if g := memberGenre(m); !IsGeneric(g) {
			genres = append(genres, g)
		}
		if a := m.Track.Artist; a != "" && a != unknownArtist {
			artists = append(artists, a)
		}
		if y, ok := m.Track.ReleaseYear(); ok {
			c.years = append(c.years, y)
		}
		plays += m.Track.PlayCount
		if m.Track.PlayCount > 0 {
			c.anyPlays = true
		}
		if p, ok := m.Attributes.Popularity(); ok {
			c.popularity = append(c.popularity, p)
		}
	}

	c.genres = countValues(genres)
	c.artists = countValues(artists)
	if len(members) > 0 {
		c.avgPlays = float64(plays) / float64(len(members))
	}
	if len(c.years) > 0 {
		sum := 0
		for _, y := range c.years {
			sum += y
		}
		c.avgYear = float64(sum) / float64(len(c.years))
	}
	return c
}

// memberGenre is the track's own genre, or the enriched primary genre when
// the library has none.
func memberGenre(m Member) string {
	if m.Track.HasGenre() {
		return NormalizeGenre(m.Track.Genre)
	}
	return NormalizeGenre(m.Attributes.String("intelligent_primary_genre"))
}

func (c *cluster) size() int { return len(c.members) }

// genre is the most common usable genre, or Generic.
func (c *cluster) genre() string {
	if len(c.genres) == 0 {
		return Generic
	}
	return c.genres[0].value
}

func (c *cluster) yearRange() (lo, hi int, ok bool) {
	if len(c.years) == 0 {
		return 0, 0, false
	}
	return slices.Min(c.years), slices.Max(c.years), true
}

func (c *cluster) characteristics() Characteristics {
	ch := Characteristics{
		TrackCount:    c.size(),
		DominantGenre: c.genre(),
		AvgPlayCount:  c.avgPlays,
		TopGenres:     topValues(c.genres, 3),
		TopArtists:    topValues(c.artists, 3),
	}
	if len(c.artists) > 0 {
		ch.DominantArtist = c.artists[0].value
	}
	if lo, hi, ok := c.yearRange(); ok {
		ch.YearRange = []int{lo, hi}
		decades := make([]string, len(c.years))
		for i, y := range c.years {
			decades[i] = fmt.Sprintf("%ds", y/10*10)
		}
		ch.PrimaryDecade = countValues(decades)[0].value
	}

	var total, known int
	for _, m := range c.members {
		if m.Track.Duration > 0 {
			total += m.Track.Duration
			known++
		}
	}
	if known > 0 {
		ch.AvgDuration = float64(total) / float64(known)
	}
	if len(c.popularity) > 0 {
		avg := mean(c.popularity)
		ch.AvgPopularity = &avg
	}
	return ch
}

func topValues(list []counted, n int) []string {
	out := make([]string, 0, n)
	for i := 0; i < len(list) && i < n; i++ {
		out = append(out, list[i].value)
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
