// Package enrich augments tracks with metadata from external services and
// derives secondary features from the fetched tags.
package enrich

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Attributes is the bag of enrichment-derived fields attached to a track.
// Values are strings, numbers, booleans or string lists. After a JSON round
// trip lists decode as []any and numbers as float64; the accessors accept both.
type Attributes map[string]any

// Prefixes identifies enrichment-derived keys. Keys outside these prefixes are
// never produced by enrichment and are never propagated.
var Prefixes = []string{
	"mb_",
	"lastfm_",
	"spotify_",
	"intelligent_",
	"is_",
	"mood_",
	"era_",
	"discovery_",
	"genre_",
}

// IsEnrichmentKey reports whether key carries one of the enrichment prefixes.
func IsEnrichmentKey(key string) bool {
	for _, p := range Prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy. List values are copied so the clone can be
// modified independently.
func (a Attributes) Clone() Attributes {
	out := make(Attributes, len(a))
	for k, v := range a {
		switch vv := v.(type) {
		case []string:
			out[k] = append([]string(nil), vv...)
		case []any:
			out[k] = append([]any(nil), vv...)
		default:
			out[k] = v
		}
	}
	return out
}

// WithDefaults returns a copy of a where keys missing from a are filled from
// defaults. Existing keys are never overwritten.
func (a Attributes) WithDefaults(defaults Attributes) Attributes {
	out := a.Clone()
	for k, v := range defaults {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// String returns the value at key if it is a string.
func (a Attributes) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Strings returns the value at key as a string list.
func (a Attributes) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Float returns the numeric value at key.
func (a Attributes) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// Bool returns the boolean at key; absent or non-boolean values are false.
func (a Attributes) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Popularity returns the best available global popularity score in [0, 1].
func (a Attributes) Popularity() (float64, bool) {
	if p, ok := a.Float("lastfm_popularity"); ok {
		return p, true
	}
	if p, ok := a.Float("spotify_popularity"); ok {
		return p, true
	}
	return 0, false
}

// Moods returns the mood tags from every service.
func (a Attributes) Moods() []string {
	return concat(a.Strings("mb_moods"), a.Strings("lastfm_moods"))
}

// Styles returns the style tags from every service.
func (a Attributes) Styles() []string {
	return concat(a.Strings("mb_styles"), a.Strings("lastfm_styles"))
}

// VoteKey renders a value as a comparable key for majority voting. Lists are
// joined with "|". Empty values return "".
func VoteKey(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return vv
	case []string:
		return strings.Join(vv, "|")
	case []any:
		parts := make([]string, len(vv))
		for i, item := range vv {
			parts[i] = fmt.Sprint(item)
		}
		return strings.Join(parts, "|")
	default:
		return fmt.Sprint(vv)
	}
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
