// Package tagscan builds a library from audio files in a local directory.
package tagscan

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"go.uber.org/zap"

	"github.com/justestif/go-library-themes/internal/library"
)

var audioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".mp4":  true,
	".ogg":  true,
	".opus": true,
	".aac":  true,
	".wav":  true,
}

// Scanner reads embedded tags from every audio file under a root directory.
type Scanner struct {
	root string
	log  *zap.Logger
}

// NewScanner creates a scanner rooted at dir.
func NewScanner(dir string, log *zap.Logger) *Scanner {
	return &Scanner{root: dir, log: log.Named("tagscan")}
}

// Tracks implements library.Source.
func (s *Scanner) Tracks(ctx context.Context) ([]library.Track, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", library.ErrUnreachable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", library.ErrUnreachable, s.root)
	}

	var tracks []library.Track
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			s.log.Warn("skipping path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || !audioExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		t, err := s.readTrack(path)
		if err != nil {
			s.log.Warn("skipping file", zap.String("path", path), zap.Error(err))
			return nil
		}
		tracks = append(tracks, t)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("directory scanned", zap.String("root", s.root), zap.Int("tracks", len(tracks)))
	return tracks, nil
}

func (s *Scanner) readTrack(path string) (library.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return library.Track{}, err
	}
	defer f.Close()

	rel, err := filepath.Rel(s.root, path)
	if err != nil {
		rel = path
	}

	t := library.Track{ID: filepath.ToSlash(rel)}
	if st, err := f.Stat(); err == nil {
		t.Created = st.ModTime().UTC().Format(time.RFC3339)
	}

	m, err := tag.ReadFrom(f)
	switch {
	case err == nil:
		t.Title = m.Title()
		t.Artist = m.Artist()
		if t.Artist == "" {
			t.Artist = m.AlbumArtist()
		}
		t.Album = m.Album()
		t.Genre = m.Genre()
		t.Year = m.Year()
	case errors.Is(err, tag.ErrNoTagsFound):
		s.log.Debug("no tags", zap.String("path", path))
	default:
		s.log.Debug("unreadable tags", zap.String("path", path), zap.Error(err))
	}

	if t.Title == "" {
		t.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if t.Artist == "" {
		t.Artist = "Unknown Artist"
	}
	if t.Album == "" {
		t.Album = "Unknown Album"
	}
	return t, nil
}
