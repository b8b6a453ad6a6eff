package underground

import (
	"github.com/saunderground/underground/pkg/models"
)

// Service is the application core: artist CRUD, the submission
// moderation workflow, likes, and the song index.
type Service interface {
	ListArtists() ([]models.Artist, error)
	GetArtist(id string) (*models.Artist, error)
	FindArtist(id string) (*models.Artist, error)
	FindArtistByLogin(id, email string) (*models.Artist, error)
	CreateArtist(artist models.Artist) (*models.Artist, error)
	UpdateArtist(id string, patch map[string]any) (*models.Artist, error)
	UpdateSelf(id string, patch map[string]any) (*models.Artist, error)
	DeleteArtist(id string) (*models.Artist, error)

	Submit(artist models.Artist) (*models.Artist, error)
	ListPending() ([]models.Artist, error)
	Approve(id string) (*models.Artist, error)
	Reject(id string) error

	Like(id, ip string) (int, error)

	ListSongs() ([]models.Song, error)
	AddSong(title, artist, path string) (*models.Song, error)
	DeleteSong(id string) error
}

// Storage owns the on-disk JSON documents. Every component that needs
// artist or song data goes through it; nothing else caches.
type Storage interface {
	ReadArtists() ([]models.Artist, error)
	WriteArtists(artists []models.Artist) error
	ReadPending() ([]models.Artist, error)
	WritePending(artists []models.Artist) error
	ReadSongs() ([]models.Song, error)
	WriteSongs(songs []models.Song) error
}

// Logger is the narrow logging surface the service depends on.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
