// Package storage persists the artist roster, the pending-submission
// queue, and the song index as pretty-printed JSON documents. Reads
// degrade to empty defaults when a document is missing or corrupt;
// write failures propagate to the caller.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/saunderground/underground/pkg/logger"
	"github.com/saunderground/underground/pkg/models"
	"github.com/saunderground/underground/pkg/utils"
)

const (
	artistsFile = "artists.json"
	pendingFile = "pending.json"
	songsFile   = "songs.json"
)

// Store reads and writes the three JSON documents under dataDir. Song
// paths are checked for existence relative to mediaDir.
type Store struct {
	dataDir  string
	mediaDir string
	log      *log.Logger
}

func New(dataDir, mediaDir string) (*Store, error) {
	if err := utils.MakeDir(dataDir); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &Store{
		dataDir:  dataDir,
		mediaDir: mediaDir,
		log:      logger.GetLogger(),
	}, nil
}

func (s *Store) ReadArtists() ([]models.Artist, error) {
	return s.readArtistDoc(artistsFile)
}

func (s *Store) WriteArtists(artists []models.Artist) error {
	if artists == nil {
		artists = []models.Artist{}
	}
	return s.writeDoc(artistsFile, artists)
}

func (s *Store) ReadPending() ([]models.Artist, error) {
	return s.readArtistDoc(pendingFile)
}

func (s *Store) WritePending(artists []models.Artist) error {
	if artists == nil {
		artists = []models.Artist{}
	}
	return s.writeDoc(pendingFile, artists)
}

// ReadSongs returns the song index with entries whose backing file is
// missing filtered out. The underlying document is not rewritten, so a
// stale entry stays in storage until the next write.
func (s *Store) ReadSongs() ([]models.Song, error) {
	var index models.SongIndex
	raw := s.readDoc(songsFile, models.SongIndex{Songs: []models.Song{}})
	if raw != nil {
		if err := json.Unmarshal(raw, &index); err != nil {
			s.log.Errorf("parsing %s, falling back to empty: %v", songsFile, err)
			index = models.SongIndex{}
		}
	}

	songs := make([]models.Song, 0, len(index.Songs))
	for _, song := range index.Songs {
		if utils.FileExists(filepath.Join(s.mediaDir, filepath.FromSlash(song.Path))) {
			songs = append(songs, song)
		} else {
			s.log.Debugf("dropping song %q: file %s missing", song.Title, song.Path)
		}
	}
	return songs, nil
}

func (s *Store) WriteSongs(songs []models.Song) error {
	if songs == nil {
		songs = []models.Song{}
	}
	return s.writeDoc(songsFile, models.SongIndex{Songs: songs})
}

func (s *Store) readArtistDoc(name string) ([]models.Artist, error) {
	artists := []models.Artist{}
	raw := s.readDoc(name, []models.Artist{})
	if raw == nil {
		return artists, nil
	}
	if err := json.Unmarshal(raw, &artists); err != nil {
		s.log.Errorf("parsing %s, falling back to empty: %v", name, err)
		return []models.Artist{}, nil
	}
	if artists == nil {
		artists = []models.Artist{}
	}
	return artists, nil
}

// readDoc returns the raw bytes of one document. A missing file is
// created with the empty default shape first; an unreadable file is
// logged and reported as nil. First-run reads never fail.
func (s *Store) readDoc(name string, empty any) []byte {
	path := filepath.Join(s.dataDir, name)

	if !utils.FileExists(path) {
		if err := s.writeDoc(name, empty); err != nil {
			s.log.Errorf("initializing %s: %v", name, err)
			return nil
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		s.log.Errorf("reading %s: %v", name, err)
		return nil
	}
	return raw
}

func (s *Store) writeDoc(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	path := filepath.Join(s.dataDir, name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	return nil
}
