// Package sampling decides which tracks of a large library are enriched
// directly and spreads the results to the rest by majority vote.
package sampling

import (
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/justestif/go-library-themes/internal/library"
)

const (
	// Threshold is the library size above which only a sample is enriched.
	Threshold = 300

	minSample = 20
	maxSample = 100
)

// SampleSize returns clamp(n/15, 20, 100).
func SampleSize(n int) int {
	return min(max(n/15, minSample), maxSample)
}

// Strategist selects a representative subset of a library.
type Strategist struct {
	enabled bool
	seed    uint64
	log     *zap.Logger
}

// New creates a Strategist. When enabled is false every track is enriched.
// The seed makes sample selection reproducible.
func New(enabled bool, seed int64, log *zap.Logger) *Strategist {
	return &Strategist{enabled: enabled, seed: uint64(seed), log: log.Named("sampling")}
}

// ShouldSample reports whether a library of n tracks is sampled.
func (s *Strategist) ShouldSample(n int) bool {
	return s.enabled && n > Threshold
}

// Plan returns the indices of tracks to enrich directly, in ascending order
// of selection. sampled is false when every track is included.
func (s *Strategist) Plan(tracks []library.Track) (indices []int, sampled bool) {
	if !s.ShouldSample(len(tracks)) {
		indices = make([]int, len(tracks))
		for i := range indices {
			indices[i] = i
		}
		return indices, false
	}

	indices = s.stratified(tracks, SampleSize(len(tracks)))
	s.log.Info("sampling library",
		zap.Int("tracks", len(tracks)),
		zap.Int("sample", len(indices)),
	)
	return indices, true
}

// stratified draws up to size/artists tracks from each artist in shuffled
// artist order, then tops up uniformly from the remaining tracks.
func (s *Strategist) stratified(tracks []library.Track, size int) []int {
	rng := rand.New(rand.NewPCG(s.seed, s.seed^0x9e3779b97f4a7c15))

	var order []string
	groups := make(map[string][]int)
	for i, t := range tracks {
		if _, ok := groups[t.Artist]; !ok {
			order = append(order, t.Artist)
		}
		groups[t.Artist] = append(groups[t.Artist], i)
	}

	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	quota := max(1, size/len(order))

	selected := make([]int, 0, size)
	taken := make([]bool, len(tracks))
	for _, artist := range order {
		if len(selected) >= size {
			break
		}
		members := append([]int(nil), groups[artist]...)
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		for _, idx := range members[:min(quota, len(members), size-len(selected))] {
			selected = append(selected, idx)
			taken[idx] = true
		}
	}

	if len(selected) < size {
		var rest []int
		for i := range tracks {
			if !taken[i] {
				rest = append(rest, i)
			}
		}
		rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		selected = append(selected, rest[:min(len(rest), size-len(selected))]...)
	}

	return selected
}
