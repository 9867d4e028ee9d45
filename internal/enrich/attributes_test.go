package enrich

import (
	"encoding/json"
	"testing"
)

func TestAttributes_RoundTripAccessors(t *testing.T) {
	orig := Attributes{
		"mb_moods":          []string{"chill", "mellow"},
		"lastfm_popularity": 0.42,
		"lastfm_listeners":  1200,
		"is_rock":           true,
		"era_signature":     "modern",
	}

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatal(err)
	}
	var decoded Attributes
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}

	for _, a := range []Attributes{orig, decoded} {
		if got := a.Strings("mb_moods"); len(got) != 2 || got[1] != "mellow" {
			t.Errorf("Strings() = %v", got)
		}
		if got, ok := a.Float("lastfm_listeners"); !ok || got != 1200 {
			t.Errorf("Float(listeners) = %v, %v", got, ok)
		}
		if p, ok := a.Popularity(); !ok || p != 0.42 {
			t.Errorf("Popularity() = %v, %v", p, ok)
		}
		if !a.Bool("is_rock") || a.Bool("missing") {
			t.Error("Bool() mismatch")
		}
		if a.String("era_signature") != "modern" {
			t.Errorf("String() = %q", a.String("era_signature"))
		}
	}
}

func TestAttributes_PopularityFallback(t *testing.T) {
	tests := []struct {
		name   string
		attrs  Attributes
		want   float64
		wantOK bool
	}{
		{"lastfm preferred", Attributes{"lastfm_popularity": 0.2, "spotify_popularity": 0.9}, 0.2, true},
		{"spotify fallback", Attributes{"spotify_popularity": 0.9}, 0.9, true},
		{"none", Attributes{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.attrs.Popularity()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Popularity() = %v, %v, want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAttributes_WithDefaultsNeverOverwrites(t *testing.T) {
	a := Attributes{"mb_primary_genre": "jazz"}
	merged := a.WithDefaults(Attributes{"mb_primary_genre": "rock", "is_rock": true})

	if merged.String("mb_primary_genre") != "jazz" {
		t.Errorf("existing key overwritten: %v", merged["mb_primary_genre"])
	}
	if !merged.Bool("is_rock") {
		t.Error("missing key not filled")
	}
	if _, ok := a["is_rock"]; ok {
		t.Error("WithDefaults mutated the receiver")
	}
}

func TestAttributes_CloneCopiesLists(t *testing.T) {
	a := Attributes{"mb_tags": []string{"rock"}}
	c := a.Clone()
	c.Strings("mb_tags")[0] = "jazz"
	if a.Strings("mb_tags")[0] != "rock" {
		t.Error("Clone shares list storage with the original")
	}
}

func TestIsEnrichmentKey(t *testing.T) {
	tests := map[string]bool{
		"mb_tags":                   true,
		"lastfm_popularity":         true,
		"spotify_popularity":        true,
		"intelligent_primary_genre": true,
		"is_hidden_gem":             true,
		"mood_chill":                true,
		"era_signature":             true,
		"discovery_score":           true,
		"genre_diversity":           true,
		"title":                     false,
		"playCount":                 false,
	}
	for key, want := range tests {
		if got := IsEnrichmentKey(key); got != want {
			t.Errorf("IsEnrichmentKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestVoteKey(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"", ""},
		{"rock", "rock"},
		{[]string{"a", "b"}, "a|b"},
		{[]any{"a", "b"}, "a|b"},
		{[]string{}, ""},
		{true, "true"},
		{0.5, "0.5"},
	}
	for _, tt := range tests {
		if got := VoteKey(tt.in); got != tt.want {
			t.Errorf("VoteKey(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
