// Package lastfm provides Last.fm API integration for fetching track tags
// and listening statistics.
package lastfm

import (
	"errors"
	"os"
	"time"
)

// ErrMissingAPIKey is returned when no API key is configured.
var ErrMissingAPIKey = errors.New("missing LASTFM_API_KEY")

// Config holds Last.fm API configuration.
type Config struct {
	APIKey  string
	Timeout time.Duration
}

// LoadConfig builds a Config from an explicit key, falling back to the
// LASTFM_API_KEY environment variable.
// Returns ErrMissingAPIKey if neither is set.
func LoadConfig(apiKey string, timeout time.Duration) (*Config, error) {
	if apiKey == "" {
		apiKey = os.Getenv("LASTFM_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	return &Config{APIKey: apiKey, Timeout: timeout}, nil
}
