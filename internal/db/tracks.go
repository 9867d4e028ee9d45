package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/justestif/go-library-themes/internal/library"
)

// TrackRepository reads media files joined with their play annotations.
type TrackRepository struct {
	conn *sql.DB
}

const allTracksQuery = `
	SELECT
		mf.id,
		mf.title,
		COALESCE(NULLIF(mf.artist, ''), mf.album_artist, ''),
		COALESCE(mf.album, ''),
		COALESCE(mf.genre, ''),
		COALESCE(mf.year, 0),
		COALESCE(mf.duration, 0),
		mf.created_at,
		COALESCE(an.play_count, 0),
		an.play_date
	FROM media_file mf
	LEFT JOIN annotation an ON mf.id = an.item_id AND an.item_type = 'media_file'
	ORDER BY mf.artist, mf.album, mf.track_number
`

// All returns every media file as a track.
func (r *TrackRepository) All(ctx context.Context) ([]library.Track, error) {
	rows, err := r.conn.QueryContext(ctx, allTracksQuery)
	if err != nil {
		return nil, fmt.Errorf("querying media files: %w", err)
	}
	defer rows.Close()

	var tracks []library.Track
	for rows.Next() {
		var (
			t         library.Track
			duration  float64
			created   sql.NullString
			played    sql.NullString
			playCount int64
		)
		if err := rows.Scan(
			&t.ID,
			&t.Title,
			&t.Artist,
			&t.Album,
			&t.Genre,
			&t.Year,
			&duration,
			&created,
			&playCount,
			&played,
		); err != nil {
			return nil, fmt.Errorf("scanning media file: %w", err)
		}

		t.Duration = int(duration)
		t.PlayCount = int(playCount)
		t.Created = created.String
		if played.Valid {
			if ts, ok := parseTimestamp(played.String); ok {
				t.LastPlayed = &ts
			}
		}
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating media files: %w", err)
	}

	return tracks, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp accepts the formats sqlite and postgres drivers produce.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// Source adapts a DB to library.Source.
type Source struct {
	db *DB
}

// NewSource wraps db as a library source.
func NewSource(db *DB) *Source {
	return &Source{db: db}
}

// Tracks implements library.Source.
func (s *Source) Tracks(ctx context.Context) ([]library.Track, error) {
	tracks, err := s.db.Tracks().All(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", library.ErrUnreachable, err)
	}
	return tracks, nil
}
