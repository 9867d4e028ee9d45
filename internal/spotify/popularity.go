package spotify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"
)

// ErrNoMatch is returned when a search finds no track.
var ErrNoMatch = errors.New("no matching track")

// Popularity returns the popularity of the best match for artist and title,
// scaled from Spotify's 0-100 range to 0-1.
func (c *Client) Popularity(ctx context.Context, artist, title string) (float64, error) {
	result, err := c.api.Search(ctx, searchQuery(artist, title), spotify.SearchTypeTrack, spotify.Limit(1))
	if err != nil {
		return 0, wrap("searching track", err)
	}
	if result.Tracks == nil || len(result.Tracks.Tracks) == 0 {
		return 0, fmt.Errorf("%s - %s: %w", artist, title, ErrNoMatch)
	}
	return normalizePopularity(result.Tracks.Tracks[0]), nil
}

func searchQuery(artist, title string) string {
	clean := func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
	}
	return fmt.Sprintf(`track:"%s" artist:"%s"`, clean(title), clean(artist))
}

func normalizePopularity(t spotify.FullTrack) float64 {
	p := float64(t.Popularity) / 100
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
