package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	baseURL        = "http://ws.audioscrobbler.com/2.0/"
	userAgent      = "library-themes/1.0"
	defaultTimeout = 10 * time.Second
)

// Last.fm API error codes.
const (
	errCodeInvalidParams = 6
	errCodeInvalidAPIKey = 10
	errCodeRateLimited   = 29
)

var (
	// ErrRateLimited is returned when code 29 persists through every retry.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidAPIKey is returned when the API key is rejected.
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrNotFound is returned when Last.fm does not know the track or artist.
	ErrNotFound = errors.New("not found")
)

// Client talks to the Last.fm web service. Answers are memoized for the
// life of the client, keyed by lowercased artist and track.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	retryDelay []time.Duration

	mu         sync.RWMutex
	infos      map[string]TrackInfo
	artistTags map[string][]Tag
}

// NewClient creates a client from cfg. A zero timeout means 10s.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		retryDelay: []time.Duration{time.Second, 2 * time.Second, 4 * time.Second},
		infos:      make(map[string]TrackInfo),
		artistTags: make(map[string][]Tag),
	}
}

// GetTrackInfo returns listener and play counts plus the top tags of a track.
func (c *Client) GetTrackInfo(ctx context.Context, artist, track string) (TrackInfo, error) {
	key := cacheKey(artist, track)
	if info, ok := lookup(c, c.infos, key); ok {
		return info, nil
	}

	var resp trackInfoResponse
	err := c.call(ctx, "track.getInfo", url.Values{"artist": {artist}, "track": {track}}, &resp)
	if err != nil {
		return TrackInfo{}, fmt.Errorf("track.getInfo: %w", err)
	}
	if resp.Track.Name == "" {
		return TrackInfo{}, fmt.Errorf("track.getInfo %s - %s: %w", artist, track, ErrNotFound)
	}

	info := resp.toTrackInfo()
	store(c, c.infos, key, info)
	return info, nil
}

// GetArtistTags returns the top tags of an artist. An artist without tags
// yields an empty, non-nil slice.
func (c *Client) GetArtistTags(ctx context.Context, artist string) ([]Tag, error) {
	key := cacheKey(artist)
	if tags, ok := lookup(c, c.artistTags, key); ok {
		return tags, nil
	}

	var resp topTagsResponse
	if err := c.call(ctx, "artist.getTopTags", url.Values{"artist": {artist}}, &resp); err != nil {
		return nil, fmt.Errorf("artist.getTopTags: %w", err)
	}

	tags := nonNil(resp.TopTags.Tag)
	store(c, c.artistTags, key, tags)
	return tags, nil
}

func cacheKey(parts ...string) string {
	return strings.ToLower(strings.Join(parts, "\x00"))
}

func lookup[V any](c *Client, m map[string]V, key string) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := m[key]
	return v, ok
}

func store[V any](c *Client, m map[string]V, key string, v V) {
	c.mu.Lock()
	m[key] = v
	c.mu.Unlock()
}

// call invokes an API method and decodes the JSON answer into out.
// Rate-limit answers are retried after each delay in c.retryDelay.
func (c *Client) call(ctx context.Context, method string, args url.Values, out any) error {
	params := url.Values{
		"method":      {method},
		"autocorrect": {"1"},
		"format":      {"json"},
		"api_key":     {c.apiKey},
	}
	for k, v := range args {
		params[k] = v
	}
	reqURL := c.baseURL + "?" + params.Encode()

	var body []byte
	var err error
	for attempt := 0; ; attempt++ {
		body, err = c.get(ctx, reqURL)
		if !errors.Is(err, ErrRateLimited) || attempt == len(c.retryDelay) {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.retryDelay[attempt]):
		}
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	return nil
}

// get performs one request and maps Last.fm error payloads to sentinels.
func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	var apiErr apiError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != 0 {
		switch apiErr.Error {
		case errCodeRateLimited:
			return nil, ErrRateLimited
		case errCodeInvalidAPIKey:
			return nil, ErrInvalidAPIKey
		case errCodeInvalidParams:
			return nil, fmt.Errorf("%s: %w", apiErr.Message, ErrNotFound)
		}
		return nil, fmt.Errorf("API error %d: %s", apiErr.Error, apiErr.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
