package sampling

import (
	"fmt"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/justestif/go-library-themes/internal/library"
)

func makeLibrary(n, artists int) []library.Track {
	tracks := make([]library.Track, n)
	for i := range tracks {
		tracks[i] = library.Track{
			ID:     fmt.Sprintf("t%d", i),
			Artist: fmt.Sprintf("artist-%d", i%artists),
			Genre:  "rock",
		}
	}
	return tracks
}

func TestSampleSize(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, 20},
		{301, 20},
		{450, 30},
		{1500, 100},
		{3000, 100},
		{100000, 100},
	}
	for _, tt := range tests {
		if got := SampleSize(tt.n); got != tt.want {
			t.Errorf("SampleSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestPlan_BelowThresholdEnrichesEverything(t *testing.T) {
	s := New(true, 42, zaptest.NewLogger(t))
	indices, sampled := s.Plan(makeLibrary(300, 10))
	if sampled || len(indices) != 300 {
		t.Errorf("Plan() = %d indices, sampled %v; want all 300 unsampled", len(indices), sampled)
	}
}

func TestPlan_DisabledNeverSamples(t *testing.T) {
	s := New(false, 42, zaptest.NewLogger(t))
	if _, sampled := s.Plan(makeLibrary(5000, 10)); sampled {
		t.Error("Plan() sampled with smart sampling disabled")
	}
}

func TestPlan_StratifiedByArtist(t *testing.T) {
	tracks := makeLibrary(3000, 50)
	s := New(true, 42, zaptest.NewLogger(t))

	indices, sampled := s.Plan(tracks)
	if !sampled {
		t.Fatal("Plan() did not sample a 3000-track library")
	}
	if len(indices) != 100 {
		t.Fatalf("sample size = %d, want 100", len(indices))
	}

	perArtist := make(map[string]int)
	seen := make(map[int]bool)
	for _, idx := range indices {
		if seen[idx] {
			t.Fatalf("index %d selected twice", idx)
		}
		seen[idx] = true
		perArtist[tracks[idx].Artist]++
	}
	if len(perArtist) < 2 {
		t.Errorf("sample drawn from %d artists, want many", len(perArtist))
	}
	for artist, n := range perArtist {
		if n > 2 {
			t.Errorf("artist %s contributed %d tracks, want <= 2", artist, n)
		}
	}

	again, _ := New(true, 42, zaptest.NewLogger(t)).Plan(tracks)
	if !reflect.DeepEqual(indices, again) {
		t.Error("same seed produced a different sample")
	}
}

func TestPlan_TopsUpWhenArtistsAreFew(t *testing.T) {
	// Two artists with a quota of 13 each, but one has only 3 tracks.
	tracks := makeLibrary(400, 1)
	for i := 0; i < 3; i++ {
		tracks[i].Artist = "rare"
	}
	indices, _ := New(true, 7, zaptest.NewLogger(t)).Plan(tracks)
	if len(indices) != SampleSize(400) {
		t.Errorf("sample size = %d, want %d", len(indices), SampleSize(400))
	}
}
