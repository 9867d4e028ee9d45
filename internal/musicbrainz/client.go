// Package musicbrainz searches MusicBrainz recordings for community tags and
// release metadata.
package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	baseURL        = "https://musicbrainz.org/ws/2/"
	defaultTimeout = 8 * time.Second
)

// ErrNotFound is returned when a search yields no recording.
var ErrNotFound = errors.New("recording not found")

// Tag is a folksonomy tag with its vote count.
type Tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Recording is the best match for an artist/title search.
type Recording struct {
	ID            string
	Title         string
	Score         int
	Tags          []Tag
	ReleaseType   string
	ArtistCountry string
}

type searchResponse struct {
	Recordings []struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Score    int    `json:"score"`
		Tags     []Tag  `json:"tags"`
		Releases []struct {
			ReleaseGroup struct {
				PrimaryType string `json:"primary-type"`
			} `json:"release-group"`
		} `json:"releases"`
		ArtistCredit []struct {
			Name   string `json:"name"`
			Artist struct {
				Name string `json:"name"`
				Area struct {
					Name string `json:"name"`
				} `json:"area"`
			} `json:"artist"`
		} `json:"artist-credit"`
	} `json:"recordings"`
}

// Client queries the MusicBrainz web service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a client. MusicBrainz asks for a contact address in the
// User-Agent; an empty email falls back to a local placeholder.
func NewClient(contactEmail string, timeout time.Duration) *Client {
	if contactEmail == "" {
		contactEmail = "admin@localhost"
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  fmt.Sprintf("LibraryThemes/1.0 ( %s )", contactEmail),
	}
}

var (
	parenthetical = regexp.MustCompile(`\([^)]*\)`)
	bracketed     = regexp.MustCompile(`\[[^\]]*\]`)
)

// CleanTerm strips "(feat. X)" and "[Remix]" style segments from a search term.
func CleanTerm(term string) string {
	term = parenthetical.ReplaceAllString(term, "")
	term = bracketed.ReplaceAllString(term, "")
	return strings.TrimSpace(term)
}

// SearchRecording returns the top recording for artist and title.
func (c *Client) SearchRecording(ctx context.Context, artist, title string) (*Recording, error) {
	artist, title = CleanTerm(artist), CleanTerm(title)
	if artist == "" || title == "" {
		return nil, fmt.Errorf("searching %q by %q: %w", title, artist, ErrNotFound)
	}

	q := url.Values{
		"query": {fmt.Sprintf(`recording:"%s" AND artist:"%s"`, title, artist)},
		"fmt":   {"json"},
		"limit": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"recording?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("musicbrainz status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	if len(result.Recordings) == 0 {
		return nil, fmt.Errorf("searching %q by %q: %w", title, artist, ErrNotFound)
	}

	match := result.Recordings[0]
	rec := &Recording{
		ID:    match.ID,
		Title: match.Title,
		Score: match.Score,
		Tags:  match.Tags,
	}
	if len(match.Releases) > 0 {
		rec.ReleaseType = strings.ToLower(match.Releases[0].ReleaseGroup.PrimaryType)
	}
	if len(match.ArtistCredit) > 0 {
		rec.ArtistCountry = strings.ToLower(match.ArtistCredit[0].Artist.Area.Name)
	}
	return rec, nil
}
