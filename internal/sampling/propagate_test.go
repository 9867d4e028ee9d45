package sampling

import (
	"testing"

	"github.com/justestif/go-library-themes/internal/enrich"
	"github.com/justestif/go-library-themes/internal/library"
)

func TestPropagate(t *testing.T) {
	tracks := []library.Track{
		{ID: "0", Artist: "A", Genre: "Rock"},
		{ID: "1", Artist: "A", Genre: "Rock"},
		{ID: "2", Artist: "A", Genre: "Rock"},
		{ID: "3", Artist: "B", Genre: "Jazz"},
		{ID: "4", Artist: "A", Genre: "Rock"},  // unsampled, artist A
		{ID: "5", Artist: "C", Genre: "rock"},  // unsampled, genre only
		{ID: "6", Artist: "D", Genre: "Polka"}, // nothing known
		{ID: "7", Artist: "B", Genre: ""},      // unsampled, artist B
	}
	sample := []int{0, 1, 2, 3}
	attrs := []enrich.Attributes{
		{"mb_primary_genre": "indie", "mb_tags": []string{"indie", "rock"}, "title": "ignored"},
		{"mb_primary_genre": "garage", "mb_tags": []string{"indie", "rock"}, "is_rock": true},
		{"mb_primary_genre": "garage", "mb_tags": []any{"punk"}, "lastfm_popularity": ""},
		{"mb_primary_genre": "bebop", "mood_chill": 0.4},
	}

	out := Propagate(tracks, sample, attrs)
	if len(out) != len(tracks) {
		t.Fatalf("got %d attribute sets, want %d", len(out), len(tracks))
	}

	// Sampled tracks keep their own values.
	if out[0].String("mb_primary_genre") != "indie" {
		t.Errorf("sampled track overwritten: %v", out[0])
	}

	a := out[4]
	if a.String("mb_primary_genre") != "garage" {
		t.Errorf("artist mode = %v, want garage", a["mb_primary_genre"])
	}
	if tags := a.Strings("mb_tags"); len(tags) != 2 || tags[0] != "indie" {
		t.Errorf("list vote = %v, want original list value", a["mb_tags"])
	}
	if !a.Bool("is_rock") {
		t.Error("single vote for is_rock not propagated")
	}
	if _, ok := a["lastfm_popularity"]; ok {
		t.Error("empty vote propagated")
	}
	if _, ok := a["title"]; ok {
		t.Error("non-enrichment key propagated")
	}

	// Genre table is keyed case-insensitively.
	if out[5].String("mb_primary_genre") != "garage" {
		t.Errorf("genre fallback = %v, want garage", out[5]["mb_primary_genre"])
	}

	if len(out[6]) != 0 {
		t.Errorf("track with unknown artist and genre got %v, want none", out[6])
	}

	if out[7].String("mb_primary_genre") != "bebop" {
		t.Errorf("artist B = %v", out[7])
	}
	if c, _ := out[7].Float("mood_chill"); c != 0.4 {
		t.Errorf("mood_chill = %v", c)
	}
}

func TestPropagate_TieGoesToFirstSeen(t *testing.T) {
	tracks := []library.Track{
		{ID: "0", Artist: "A"},
		{ID: "1", Artist: "A"},
		{ID: "2", Artist: "A"},
	}
	out := Propagate(tracks, []int{0, 1}, []enrich.Attributes{
		{"era_signature": "modern"},
		{"era_signature": "classic_rock"},
	})
	if got := out[2].String("era_signature"); got != "modern" {
		t.Errorf("tie resolved to %q, want first seen", got)
	}
}

func TestPropagate_ArtistBeatsGenre(t *testing.T) {
	tracks := []library.Track{
		{ID: "0", Artist: "A", Genre: "Pop"},
		{ID: "1", Artist: "B", Genre: "Pop"},
		{ID: "2", Artist: "A", Genre: "Pop"},
	}
	// Genre "pop" sees false first, so its tie resolves to false.
	out := Propagate(tracks, []int{1, 0}, []enrich.Attributes{
		{"is_electronic": false, "mood_dark": 0.2},
		{"is_electronic": true},
	})
	if !out[2].Bool("is_electronic") {
		t.Error("artist table should win over genre table")
	}
	if d, _ := out[2].Float("mood_dark"); d != 0.2 {
		t.Error("genre table should fill fields the artist lacks")
	}

	// Propagated values are copies.
	out[2]["is_electronic"] = false
	if !out[0].Bool("is_electronic") {
		t.Error("propagated attributes alias the sampled track")
	}
}
