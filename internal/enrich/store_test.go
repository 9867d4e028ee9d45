package enrich

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func openTestStore(t *testing.T, ttl time.Duration) *Store {
	t.Helper()
	s, err := OpenStore(t.TempDir(), ttl, 100, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTestStore(t, time.Hour)

	if _, ok := s.Get("missing"); ok {
		t.Error("Get() on empty store reported a hit")
	}

	attrs := Attributes{"mb_tags": []string{"rock", "indie"}, "discovery_score": 0.5}
	if err := s.Put("t1", attrs); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, ok := s.Get("t1")
	if !ok {
		t.Fatal("Get() missed a fresh entry")
	}
	if tags := got.Strings("mb_tags"); len(tags) != 2 || tags[0] != "rock" {
		t.Errorf("mb_tags = %v", tags)
	}
	if d, _ := got.Float("discovery_score"); d != 0.5 {
		t.Errorf("discovery_score = %v", d)
	}
}

func TestStore_StaleEntriesMiss(t *testing.T) {
	s := openTestStore(t, 24*time.Hour)

	if err := s.putAt("old", Attributes{"is_rock": true}, time.Now().Add(-48*time.Hour)); err != nil {
		t.Fatalf("putAt() error = %v", err)
	}
	if _, ok := s.Get("old"); ok {
		t.Error("Get() returned an entry older than the TTL")
	}
}

func TestStore_Clear(t *testing.T) {
	s := openTestStore(t, time.Hour)
	if err := s.Put("t1", Attributes{"is_rock": true}); err != nil {
		t.Fatal(err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, ok := s.Get("t1"); ok {
		t.Error("entry survived Clear()")
	}
}

func TestEnricher_UsesStoreBeforeNetwork(t *testing.T) {
	s := openTestStore(t, time.Hour)
	if err := s.Put(testTrack.ID, Attributes{"mb_primary_genre": "stored"}); err != nil {
		t.Fatal(err)
	}

	mb := &mockMusicBrainz{}
	e := NewEnricher(zaptest.NewLogger(t), WithMusicBrainz(mb), WithStore(s))

	res := e.Enrich(t.Context(), testTrack)
	if res.Attributes.String("mb_primary_genre") != "stored" {
		t.Errorf("attributes = %v, want stored entry", res.Attributes)
	}
	if mb.calls.Load() != 0 {
		t.Error("network consulted despite a fresh stored entry")
	}
}
