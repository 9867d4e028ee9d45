// Package library defines the track records consumed by theme discovery and
// the sources that produce them.
package library

import (
	"strconv"
	"strings"
	"time"
)

// Track is one song as read from the media server.
// Zero values mean "unknown" for Year and Duration.
type Track struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Artist     string     `json:"artist"`
	Album      string     `json:"album"`
	Genre      string     `json:"genre"`
	Year       int        `json:"year,omitempty"`
	Duration   int        `json:"duration,omitempty"` // seconds
	PlayCount  int        `json:"playCount"`
	LastPlayed *time.Time `json:"lastPlayed,omitempty"`
	Created    string     `json:"created,omitempty"` // server timestamp, used as a year fallback
}

// ReleaseYear returns the track year, falling back to the leading four
// digits of the created timestamp.
func (t Track) ReleaseYear() (int, bool) {
	if t.Year > 0 {
		return t.Year, true
	}
	if len(t.Created) >= 4 {
		if y, err := strconv.Atoi(t.Created[:4]); err == nil && y > 0 {
			return y, true
		}
	}
	return 0, false
}

// HasGenre reports whether the track carries a usable genre string.
func (t Track) HasGenre() bool {
	g := strings.TrimSpace(strings.ToLower(t.Genre))
	return g != "" && g != "unknown"
}
