// Package features turns tracks into fixed-length numeric vectors for
// clustering.
package features

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/justestif/go-library-themes/internal/enrich"
	"github.com/justestif/go-library-themes/internal/library"
)

const (
	// MinTracks is the smallest collection worth clustering.
	MinTracks = 10

	baseYear     = 1950
	yearSpan     = 2024 - baseYear
	maxPlayCount = 100.0
	maxDuration  = 600.0 // seconds
	neutral      = 0.5
)

// TopGenres is the genre vocabulary encoded in every vector, in order.
var TopGenres = []string{"rock", "pop", "electronic", "classical", "jazz", "metal"}

// Dimensions is the length of every vector: year, one flag per top genre,
// play count and duration.
var Dimensions = 1 + len(TopGenres) + 2

// ErrInsufficientTracks is returned for collections below MinTracks. Callers
// treat it as "no themes", not as a failure.
var ErrInsufficientTracks = errors.New("not enough tracks for theme discovery")

// Vector is a feature vector of length Dimensions.
type Vector []float64

// Result holds one vector per input track. Degraded lists the indices whose
// vectors were replaced by the neutral default.
type Result struct {
	Vectors  []Vector
	Degraded []int
}

// Extract builds a vector per track. attrs may be nil or hold enrichment
// attributes aligned with tracks; a track without a genre of its own then
// uses the enriched primary genre. A track that cannot be encoded gets an
// all-0.5 vector and never aborts the run.
func Extract(tracks []library.Track, attrs []enrich.Attributes) (Result, error) {
	if len(tracks) < MinTracks {
		return Result{}, fmt.Errorf("%d tracks, need %d: %w", len(tracks), MinTracks, ErrInsufficientTracks)
	}

	res := Result{Vectors: make([]Vector, len(tracks))}
	for i, t := range tracks {
		genre := t.Genre
		if !t.HasGenre() && i < len(attrs) {
			genre = attrs[i].String("intelligent_primary_genre")
		}

		v, err := vector(t, genre)
		if err != nil {
			v = Neutral()
			res.Degraded = append(res.Degraded, i)
		}
		res.Vectors[i] = v
	}
	return res, nil
}

// Neutral returns the default vector used for tracks that fail extraction.
func Neutral() Vector {
	v := make(Vector, Dimensions)
	for i := range v {
		v[i] = neutral
	}
	return v
}

func vector(t library.Track, genre string) (Vector, error) {
	if t.PlayCount < 0 {
		return nil, fmt.Errorf("negative play count %d", t.PlayCount)
	}
	if t.Duration < 0 {
		return nil, fmt.Errorf("negative duration %d", t.Duration)
	}

	v := make(Vector, 0, Dimensions)

	year := neutral
	if y, ok := t.ReleaseYear(); ok {
		year = float64(y-baseYear) / yearSpan
	}
	v = append(v, year)

	genre = strings.ToLower(genre)
	for _, g := range TopGenres {
		if strings.Contains(genre, g) {
			v = append(v, 1)
		} else {
			v = append(v, 0)
		}
	}

	v = append(v, math.Min(float64(t.PlayCount)/maxPlayCount, 1))

	duration := neutral
	if t.Duration > 0 {
		duration = math.Min(float64(t.Duration)/maxDuration, 1)
	}
	v = append(v, duration)

	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, errors.New("non-finite feature")
		}
	}
	return v, nil
}
