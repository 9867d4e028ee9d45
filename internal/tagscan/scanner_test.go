package tagscan

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/justestif/go-library-themes/internal/library"
)

// id3v1 builds a minimal file carrying an ID3v1 trailer.
func id3v1(title, artist, album, year string, genre byte) []byte {
	field := func(s string, n int) []byte {
		b := make([]byte, n)
		copy(b, s)
		return b
	}
	data := make([]byte, 64) // fake audio payload
	data = append(data, "TAG"...)
	data = append(data, field(title, 30)...)
	data = append(data, field(artist, 30)...)
	data = append(data, field(album, 30)...)
	data = append(data, field(year, 4)...)
	data = append(data, field("", 30)...)
	data = append(data, genre)
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestScanner_Tracks(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "rock", "anthem.mp3"), id3v1("Anthem", "The Band", "Loud", "2016", 17))
	writeFile(t, filepath.Join(root, "jazz", "blue.mp3"), id3v1("Blue", "Quartet", "Smoke", "1962", 8))
	writeFile(t, filepath.Join(root, "untagged", "Mystery Song.mp3"), make([]byte, 300))
	writeFile(t, filepath.Join(root, "notes.txt"), []byte("not audio"))

	tracks, err := NewScanner(root, zaptest.NewLogger(t)).Tracks(context.Background())
	if err != nil {
		t.Fatalf("Tracks() error = %v", err)
	}
	if len(tracks) != 3 {
		t.Fatalf("got %d tracks, want 3", len(tracks))
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].ID < tracks[j].ID })

	jazz := tracks[0]
	if jazz.ID != "jazz/blue.mp3" || jazz.Title != "Blue" || jazz.Artist != "Quartet" {
		t.Errorf("jazz track = %+v", jazz)
	}
	if jazz.Year != 1962 || jazz.Genre != "Jazz" {
		t.Errorf("jazz Year/Genre = %d/%q", jazz.Year, jazz.Genre)
	}

	rock := tracks[1]
	if rock.Album != "Loud" || rock.Year != 2016 || rock.Genre != "Rock" {
		t.Errorf("rock track = %+v", rock)
	}

	untagged := tracks[2]
	if untagged.Title != "Mystery Song" || untagged.Artist != "Unknown Artist" || untagged.Album != "Unknown Album" {
		t.Errorf("untagged track = %+v", untagged)
	}
	if untagged.Created == "" {
		t.Error("untagged track should carry the file modification time")
	}
}

func TestScanner_MissingDir(t *testing.T) {
	_, err := NewScanner(filepath.Join(t.TempDir(), "nope"), zaptest.NewLogger(t)).Tracks(context.Background())
	if !errors.Is(err, library.ErrUnreachable) {
		t.Errorf("Tracks() error = %v, want ErrUnreachable", err)
	}
}

func TestScanner_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp3"), id3v1("A", "B", "C", "2000", 17))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewScanner(root, zaptest.NewLogger(t)).Tracks(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Tracks() error = %v, want context.Canceled", err)
	}
}
