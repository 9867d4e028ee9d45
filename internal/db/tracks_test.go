package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/justestif/go-library-themes/internal/library"
)

const testSchema = `
	CREATE TABLE media_file (
		id TEXT PRIMARY KEY,
		title TEXT,
		artist TEXT,
		album TEXT,
		album_artist TEXT,
		genre TEXT,
		year INTEGER,
		duration REAL,
		track_number INTEGER,
		created_at TEXT
	);
	CREATE TABLE annotation (
		item_id TEXT,
		item_type TEXT,
		play_count INTEGER,
		play_date TEXT
	);
`

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "navidrome.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, err := db.conn.Exec(testSchema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	return db
}

func TestTrackRepository_All(t *testing.T) {
	db := newTestDB(t)

	_, err := db.conn.Exec(`
		INSERT INTO media_file VALUES
			('m1', 'So What', 'Miles Davis', 'Kind of Blue', 'Miles Davis', 'Jazz', 1959, 562.4, 1, '2023-01-02 10:00:00'),
			('m2', 'Untitled', '', 'Compilation', 'Various', NULL, NULL, 200, 1, '2021-05-05 08:00:00'),
			('m3', 'Song For Later', 'Band', NULL, NULL, 'Rock', 2001, 180, 1, NULL);
		INSERT INTO annotation VALUES
			('m1', 'media_file', 12, '2024-03-01 10:00:00'),
			('m2', 'album', 99, '2024-03-01 10:00:00');
	`)
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}

	tracks, err := db.Tracks().All(context.Background())
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("got %d tracks, want 3", len(tracks))
	}

	byID := make(map[string]library.Track)
	for _, tr := range tracks {
		byID[tr.ID] = tr
	}

	m1 := byID["m1"]
	if m1.PlayCount != 12 || m1.LastPlayed == nil {
		t.Errorf("m1 PlayCount = %d, LastPlayed = %v", m1.PlayCount, m1.LastPlayed)
	}
	if m1.Duration != 562 || m1.Year != 1959 {
		t.Errorf("m1 Duration = %d, Year = %d", m1.Duration, m1.Year)
	}

	m2 := byID["m2"]
	if m2.Artist != "Various" {
		t.Errorf("m2 Artist = %q, want album artist fallback", m2.Artist)
	}
	if m2.PlayCount != 0 || m2.LastPlayed != nil {
		t.Error("annotation for another item type must not apply")
	}
	if y, ok := m2.ReleaseYear(); !ok || y != 2021 {
		t.Errorf("m2 ReleaseYear() = %d, %v, want created-date fallback 2021", y, ok)
	}

	if byID["m3"].Album != "" {
		t.Errorf("m3 Album = %q, want empty", byID["m3"].Album)
	}
}

func TestNew_UnsupportedDriver(t *testing.T) {
	_, err := New(context.Background(), "mysql", "dsn")
	if !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("New() error = %v, want ErrUnsupportedDriver", err)
	}
}

func TestSource_Unreachable(t *testing.T) {
	db, err := New(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "empty.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer db.Close()

	// No media_file table.
	_, err = NewSource(db).Tracks(context.Background())
	if !errors.Is(err, library.ErrUnreachable) {
		t.Errorf("Tracks() error = %v, want ErrUnreachable", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in string
		ok bool
	}{
		{"2024-03-01T10:00:00Z", true},
		{"2024-03-01 10:00:00", true},
		{"2024-03-01 10:00:00.123+00:00", true},
		{"yesterday", false},
	}
	for _, tt := range tests {
		if _, ok := parseTimestamp(tt.in); ok != tt.ok {
			t.Errorf("parseTimestamp(%q) ok = %v, want %v", tt.in, ok, tt.ok)
		}
	}
}
