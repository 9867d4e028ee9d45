// Package themes runs theme discovery over a music library and keeps the
// latest result in a file cache.
package themes

import (
	"github.com/justestif/go-library-themes/internal/enrich"
	"github.com/justestif/go-library-themes/internal/library"
	"github.com/justestif/go-library-themes/internal/naming"
)

// EnrichedTrack is a library track with the enrichment it received.
type EnrichedTrack struct {
	library.Track
	Enrichment enrich.Attributes `json:"enrichment,omitempty"`
}

// Theme is a named group of similar tracks.
type Theme struct {
	ID              string                 `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Tracks          []EnrichedTrack        `json:"tracks"`
	TrackCount      int                    `json:"track_count"`
	Characteristics naming.Characteristics `json:"characteristics"`
	CreatedAt       int64                  `json:"created_at"` // unix seconds
}

// Result is the outcome of one discovery run. Notice explains an empty
// result; Degraded lists what went wrong without stopping the run.
type Result struct {
	Themes   []Theme  `json:"themes"`
	Notice   string   `json:"notice,omitempty"`
	Degraded []string `json:"degraded,omitempty"`
}
