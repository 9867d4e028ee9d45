package subsonic

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-library-themes/internal/library"
)

const artistConcurrency = 4

// Source traverses getArtists -> getArtist -> getAlbum to produce the full
// track list.
type Source struct {
	client *Client
	log    *zap.Logger
}

// NewSource creates a library source backed by client.
func NewSource(client *Client, log *zap.Logger) *Source {
	return &Source{client: client, log: log.Named("subsonic")}
}

// Tracks implements library.Source. Failing to reach the server or list
// artists is fatal; a failing artist or album is logged and skipped.
func (s *Source) Tracks(ctx context.Context) ([]library.Track, error) {
	if err := s.client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", library.ErrUnreachable, err)
	}

	refs, err := s.client.artists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: listing artists: %w", library.ErrUnreachable, err)
	}

	tree := make([]library.Artist, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(artistConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			tree[i] = s.artist(gctx, ref)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tracks := library.Flatten(tree)
	s.log.Info("library loaded", zap.Int("artists", len(refs)), zap.Int("tracks", len(tracks)))
	return tracks, nil
}

func (s *Source) artist(ctx context.Context, ref artistRef) library.Artist {
	out := library.Artist{Name: ref.Name}

	albums, err := s.client.albums(ctx, ref.ID)
	if err != nil {
		s.log.Warn("skipping artist", zap.String("artist", ref.Name), zap.Error(err))
		return out
	}

	for _, a := range albums {
		songs, err := s.client.songs(ctx, a.ID)
		if err != nil {
			s.log.Warn("skipping album", zap.String("album", a.Name), zap.Error(err))
			continue
		}
		album := library.Album{Name: a.Name, Year: a.Year}
		for _, sg := range songs {
			album.Songs = append(album.Songs, convertSong(sg))
		}
		out.Albums = append(out.Albums, album)
	}
	return out
}

func convertSong(sg song) library.Track {
	t := library.Track{
		ID:        sg.ID,
		Title:     sg.Title,
		Genre:     sg.Genre,
		Year:      sg.Year,
		Duration:  sg.Duration,
		PlayCount: sg.PlayCount,
		Created:   sg.Created,
	}
	if sg.Played != "" {
		if played, err := time.Parse(time.RFC3339, sg.Played); err == nil {
			t.LastPlayed = &played
		}
	}
	return t
}
