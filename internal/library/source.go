package library

import (
	"context"
	"errors"
)

// ErrUnreachable is wrapped by sources when the collection cannot be read at all.
var ErrUnreachable = errors.New("library source unreachable")

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// Source provides the full flattened track list for the current user.
type Source interface {
	Tracks(ctx context.Context) ([]Track, error)
}

// Artist is a node of the artists -> albums -> songs tree returned by
// browse-style APIs.
type Artist struct {
	Name   string
	Albums []Album
}

// Album groups songs and carries an album-level year.
type Album struct {
	Name  string
	Year  int
	Songs []Track
}

// Flatten turns an artist tree into a track list. Songs inherit the artist
// and album names; a known album year wins over the song year.
func Flatten(artists []Artist) []Track {
	var tracks []Track
	for _, artist := range artists {
		artistName := artist.Name
		if artistName == "" {
			artistName = unknownArtist
		}
		for _, album := range artist.Albums {
			albumName := album.Name
			if albumName == "" {
				albumName = unknownAlbum
			}
			for _, song := range album.Songs {
				t := song
				t.Artist = artistName
				t.Album = albumName
				if album.Year > 0 {
					t.Year = album.Year
				}
				tracks = append(tracks, t)
			}
		}
	}
	return tracks
}
