package themes

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/justestif/go-library-themes/internal/enrich"
	"github.com/justestif/go-library-themes/internal/library"
	"github.com/justestif/go-library-themes/internal/naming"
)

func sampleThemes() []Theme {
	return []Theme{
		{
			ID:          "theme_0",
			Name:        "Modern Rock",
			Description: "Music spanning 2015-2018. Featuring Rock. 2 tracks total.",
			Tracks: []EnrichedTrack{
				{Track: library.Track{ID: "1", Title: "A", Artist: "X", Genre: "rock", Year: 2015}},
				{
					Track:      library.Track{ID: "2", Title: "B", Artist: "Y", Genre: "rock", Year: 2018},
					Enrichment: enrich.Attributes{"lastfm_tags": []string{"indie", "rock"}, "is_rock": true},
				},
			},
			TrackCount:      2,
			Characteristics: naming.Characteristics{TrackCount: 2, YearRange: []int{2015, 2018}, TopGenres: []string{"Rock"}},
			CreatedAt:       1700000000,
		},
	}
}

func TestCache_RoundTrip(t *testing.T) {
	cache := NewCache(t.TempDir(), zaptest.NewLogger(t))

	if err := cache.Save(sampleThemes()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	entry, err := cache.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if entry == nil {
		t.Fatal("Load() returned no entry")
	}
	if entry.Version != CacheVersion {
		t.Errorf("Version = %q, want %q", entry.Version, CacheVersion)
	}
	if len(entry.Themes) != 1 {
		t.Fatalf("got %d themes, want 1", len(entry.Themes))
	}

	got := entry.Themes[0]
	if got.Name != "Modern Rock" || got.TrackCount != 2 || len(got.Tracks) != 2 {
		t.Errorf("theme = %+v", got)
	}
	if got.Tracks[1].ID != "2" || got.Tracks[1].Year != 2018 {
		t.Errorf("track = %+v", got.Tracks[1])
	}
	if tags := got.Tracks[1].Enrichment.Strings("lastfm_tags"); len(tags) != 2 || tags[0] != "indie" {
		t.Errorf("enrichment tags = %v", tags)
	}
	if !got.Tracks[1].Enrichment.Bool("is_rock") {
		t.Error("enrichment flag lost")
	}
}

func TestCache_Expiry(t *testing.T) {
	cache := NewCache(t.TempDir(), zaptest.NewLogger(t))
	saved := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return saved }
	if err := cache.Save(sampleThemes()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		after time.Duration
		hit   bool
	}{
		{name: "fresh", after: time.Hour, hit: true},
		{name: "just inside", after: CacheTTL - time.Minute, hit: true},
		{name: "stale", after: CacheTTL + time.Minute, hit: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache.now = func() time.Time { return saved.Add(tt.after) }
			entry, err := cache.Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if (entry != nil) != tt.hit {
				t.Errorf("Load() hit = %v, want %v", entry != nil, tt.hit)
			}
		})
	}
}

func TestCache_Misses(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "corrupt", content: "{not json"},
		{name: "other version", content: `{"themes":[],"created_at":9999999999,"version":"0.1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewCache(t.TempDir(), zaptest.NewLogger(t))
			if err := os.WriteFile(cache.Path(), []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			entry, err := cache.Load()
			if err != nil || entry != nil {
				t.Errorf("Load() = %v, %v, want nil, nil", entry, err)
			}
		})
	}

	cache := NewCache(filepath.Join(t.TempDir(), "missing"), zaptest.NewLogger(t))
	if entry, err := cache.Load(); err != nil || entry != nil {
		t.Errorf("Load() on missing file = %v, %v, want nil, nil", entry, err)
	}
}

func TestCache_Clear(t *testing.T) {
	cache := NewCache(t.TempDir(), zaptest.NewLogger(t))

	if err := cache.Clear(); err != nil {
		t.Errorf("Clear() on empty cache error = %v", err)
	}
	if err := cache.Save(sampleThemes()); err != nil {
		t.Fatal(err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if entry, _ := cache.Load(); entry != nil {
		t.Error("Load() after Clear() returned an entry")
	}
}
