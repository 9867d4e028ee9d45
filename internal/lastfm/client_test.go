package lastfm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		apiKey:     "test-api-key",
		httpClient: server.Client(),
		baseURL:    server.URL + "/",
		retryDelay: []time.Duration{time.Millisecond, time.Millisecond, time.Millisecond},
		infos:      make(map[string]TrackInfo),
		artistTags: make(map[string][]Tag),
	}
}

func TestGetArtistTags(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNames []string
		wantErr   error
	}{
		{
			name:      "tags in order",
			body:      `{"toptags":{"tag":[{"name":"pop"},{"name":"dance"}]}}`,
			wantNames: []string{"pop", "dance"},
		},
		{
			name:      "no tags returns empty slice",
			body:      `{"toptags":{}}`,
			wantNames: []string{},
		},
		{
			name:    "invalid API key",
			body:    `{"error":10,"message":"Invalid API key"}`,
			wantErr: ErrInvalidAPIKey,
		},
		{
			name:    "unknown artist",
			body:    `{"error":6,"message":"The artist you supplied could not be found"}`,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if got := q.Get("method"); got != "artist.getTopTags" {
					t.Errorf("method = %s, want artist.getTopTags", got)
				}
				if q.Get("api_key") != "test-api-key" || q.Get("format") != "json" {
					t.Errorf("missing common params: %s", r.URL.RawQuery)
				}
				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			tags, err := newTestClient(server).GetArtistTags(context.Background(), "Artist")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetArtistTags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if tags == nil {
				t.Fatal("GetArtistTags() returned nil slice")
			}
			if len(tags) != len(tt.wantNames) {
				t.Fatalf("GetArtistTags() got %d tags, want %d", len(tags), len(tt.wantNames))
			}
			for i, tag := range tags {
				if tag.Name != tt.wantNames[i] {
					t.Errorf("tag[%d] = %s, want %s", i, tag.Name, tt.wantNames[i])
				}
			}
		})
	}
}

func TestGetTrackInfo(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		wantListeners int
		wantPlaycount int
		wantTags      int
		wantErr       error
	}{
		{
			name: "string counters are parsed",
			body: `{"track":{"name":"Karma Police","listeners":"1520000","playcount":"12000000",
				"artist":{"name":"Radiohead"},"toptags":{"tag":[{"name":"alternative"},{"name":"90s"}]}}}`,
			wantListeners: 1520000,
			wantPlaycount: 12000000,
			wantTags:      2,
		},
		{
			name:          "malformed counters become zero",
			body:          `{"track":{"name":"Demo","listeners":"n/a","playcount":"","artist":{"name":"Nobody"}}}`,
			wantListeners: 0,
			wantPlaycount: 0,
			wantTags:      0,
		},
		{
			name:    "track not found",
			body:    `{"error":6,"message":"Track not found"}`,
			wantErr: ErrNotFound,
		},
		{
			name:    "empty track object",
			body:    `{"track":{}}`,
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.URL.Query().Get("method"); got != "track.getInfo" {
					t.Errorf("method = %s, want track.getInfo", got)
				}
				io.WriteString(w, tt.body)
			}))
			defer server.Close()

			info, err := newTestClient(server).GetTrackInfo(context.Background(), "Radiohead", "Karma Police")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetTrackInfo() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if info.Listeners != tt.wantListeners {
				t.Errorf("Listeners = %d, want %d", info.Listeners, tt.wantListeners)
			}
			if info.Playcount != tt.wantPlaycount {
				t.Errorf("Playcount = %d, want %d", info.Playcount, tt.wantPlaycount)
			}
			if len(info.Tags) != tt.wantTags {
				t.Errorf("got %d tags, want %d", len(info.Tags), tt.wantTags)
			}
		})
	}
}

func TestGetTrackInfo_Caching(t *testing.T) {
	var requestCount atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount.Add(1)
		io.WriteString(w, `{"track":{"name":"Teardrop","listeners":"900","artist":{"name":"Massive Attack"}}}`)
	}))
	defer server.Close()

	client := newTestClient(server)

	for i, artist := range []string{"Massive Attack", "massive attack"} {
		info, err := client.GetTrackInfo(context.Background(), artist, "Teardrop")
		if err != nil {
			t.Fatalf("GetTrackInfo() call %d error = %v", i, err)
		}
		if info.Listeners != 900 {
			t.Fatalf("GetTrackInfo() call %d listeners = %d, want 900", i, info.Listeners)
		}
	}

	if count := requestCount.Load(); count != 1 {
		t.Errorf("Expected 1 request, got %d", count)
	}
}

func TestCall_RateLimit(t *testing.T) {
	tests := []struct {
		name         string
		failures     int32
		wantErr      error
		wantRequests int32
	}{
		{name: "recovers after two rate limits", failures: 2, wantErr: nil, wantRequests: 3},
		{name: "gives up after retries", failures: 100, wantErr: ErrRateLimited, wantRequests: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requestCount atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if requestCount.Add(1) <= tt.failures {
					io.WriteString(w, `{"error":29,"message":"Rate limit exceeded"}`)
					return
				}
				io.WriteString(w, `{"toptags":{"tag":[{"name":"rock"}]}}`)
			}))
			defer server.Close()

			_, err := newTestClient(server).GetArtistTags(context.Background(), "Artist")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("GetArtistTags() error = %v, want %v", err, tt.wantErr)
			}
			if got := requestCount.Load(); got != tt.wantRequests {
				t.Errorf("requests = %d, want %d", got, tt.wantRequests)
			}
		})
	}
}

func TestNewClient(t *testing.T) {
	client := NewClient(&Config{APIKey: "test-key"})

	if client.apiKey != "test-key" {
		t.Errorf("NewClient() apiKey = %s, want test-key", client.apiKey)
	}
	if client.httpClient.Timeout != defaultTimeout {
		t.Errorf("NewClient() timeout = %v, want %v", client.httpClient.Timeout, defaultTimeout)
	}
	if client.baseURL != baseURL {
		t.Errorf("NewClient() baseURL = %s, want %s", client.baseURL, baseURL)
	}
	if len(client.retryDelay) != 3 {
		t.Errorf("NewClient() retry schedule has %d steps, want 3", len(client.retryDelay))
	}
}
