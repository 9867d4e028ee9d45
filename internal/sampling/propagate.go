package sampling

import (
	"strings"

	"github.com/justestif/go-library-themes/internal/enrich"
	"github.com/justestif/go-library-themes/internal/library"
)

// tally counts votes for one field, remembering first-seen order and the
// original (possibly list-typed) value behind each vote key.
type tally struct {
	order  []string
	counts map[string]int
	values map[string]any
}

func (t *tally) add(v any) {
	key := enrich.VoteKey(v)
	if key == "" {
		return
	}
	if t.counts == nil {
		t.counts = make(map[string]int)
		t.values = make(map[string]any)
	}
	if _, ok := t.counts[key]; !ok {
		t.order = append(t.order, key)
		t.values[key] = v
	}
	t.counts[key]++
}

// mode returns the most frequent value; ties go to the first seen.
func (t *tally) mode() (any, bool) {
	best, bestCount := "", 0
	for _, key := range t.order {
		if c := t.counts[key]; c > bestCount {
			best, bestCount = key, c
		}
	}
	if bestCount == 0 {
		return nil, false
	}
	return t.values[best], true
}

// table maps a group key to per-field vote tallies.
type table map[string]map[string]*tally

func (tb table) vote(group string, attrs enrich.Attributes) {
	if group == "" {
		return
	}
	fields, ok := tb[group]
	if !ok {
		fields = make(map[string]*tally)
		tb[group] = fields
	}
	for field, v := range attrs {
		if !enrich.IsEnrichmentKey(field) {
			continue
		}
		t, ok := fields[field]
		if !ok {
			t = &tally{}
			fields[field] = t
		}
		t.add(v)
	}
}

func (tb table) majority(group string) enrich.Attributes {
	out := enrich.Attributes{}
	for field, t := range tb[group] {
		if v, ok := t.mode(); ok {
			out[field] = v
		}
	}
	return out
}

func genreKey(t library.Track) string {
	if !t.HasGenre() {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(t.Genre))
}

// Propagate returns one attribute set per track. sample holds the indices of
// directly enriched tracks and attrs their results, position for position.
// Sampled tracks keep their own attributes. Every other track is filled from
// the majority values of its artist, then of its genre for fields the artist
// table lacks. A track whose artist and genre are both absent from the sample
// receives no attributes.
func Propagate(tracks []library.Track, sample []int, attrs []enrich.Attributes) []enrich.Attributes {
	out := make([]enrich.Attributes, len(tracks))

	byArtist := table{}
	byGenre := table{}
	for i, idx := range sample {
		if i >= len(attrs) || attrs[i] == nil {
			continue
		}
		out[idx] = attrs[i]
		byArtist.vote(tracks[idx].Artist, attrs[i])
		byGenre.vote(genreKey(tracks[idx]), attrs[i])
	}

	artistCache := make(map[string]enrich.Attributes)
	genreCache := make(map[string]enrich.Attributes)
	lookup := func(tb table, cache map[string]enrich.Attributes, key string) enrich.Attributes {
		if a, ok := cache[key]; ok {
			return a
		}
		a := tb.majority(key)
		cache[key] = a
		return a
	}

	for i, t := range tracks {
		if out[i] != nil {
			continue
		}
		filled := enrich.Attributes{}.
			WithDefaults(lookup(byArtist, artistCache, t.Artist)).
			WithDefaults(lookup(byGenre, genreCache, genreKey(t)))
		out[i] = filled
	}
	return out
}
