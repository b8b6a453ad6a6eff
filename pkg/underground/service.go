// Package underground implements the artist community core: the
// moderation workflow for public submissions, roster CRUD, session
// tokens, like throttling, uploads, and the song index.
package underground

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/saunderground/underground/pkg/logger"
	"github.com/saunderground/underground/pkg/models"
	"github.com/saunderground/underground/pkg/underground/storage"
	"github.com/saunderground/underground/pkg/utils"
)

// Defaults applied to public submissions.
const (
	DefaultImage     = "images/default.jpg"
	DefaultFollowers = "New Artist"
)

// communityService is the default Service implementation. All mutations
// are serialized through one mutex so concurrent requests cannot
// interleave their read-modify-write cycles against the JSON documents.
type communityService struct {
	mu      sync.Mutex
	storage Storage
	log     Logger
	likes   *likeGuard
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	stor := cfg.Storage
	if stor == nil {
		var err error
		stor, err = storage.New(cfg.DataDir, cfg.MediaDir)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
	}

	return &communityService{
		storage: stor,
		log:     cfg.Logger,
		likes:   newLikeGuard(cfg.LikeWindow, cfg.Now),
		config:  cfg,
	}, nil
}

func (s *communityService) ListArtists() ([]models.Artist, error) {
	return s.storage.ReadArtists()
}

// GetArtist looks up a live roster record.
func (s *communityService) GetArtist(id string) (*models.Artist, error) {
	artists, err := s.storage.ReadArtists()
	if err != nil {
		return nil, err
	}
	for i := range artists {
		if artists[i].ID == id {
			return &artists[i], nil
		}
	}
	return nil, ErrNotFound
}

// FindArtist looks up a record across the roster and the pending queue,
// used when naming uploads made during signup.
func (s *communityService) FindArtist(id string) (*models.Artist, error) {
	artists, err := s.storage.ReadArtists()
	if err != nil {
		return nil, err
	}
	pending, err := s.storage.ReadPending()
	if err != nil {
		return nil, err
	}
	for _, set := range [][]models.Artist{artists, pending} {
		for i := range set {
			if set[i].ID == id {
				return &set[i], nil
			}
		}
	}
	return nil, ErrNotFound
}

// FindArtistByLogin matches id and email case-insensitively against the
// live roster. Pending artists cannot log in.
func (s *communityService) FindArtistByLogin(id, email string) (*models.Artist, error) {
	artists, err := s.storage.ReadArtists()
	if err != nil {
		return nil, err
	}
	for i := range artists {
		if matchesLogin(id, email, artists[i].ID, artists[i].Email) {
			return &artists[i], nil
		}
	}
	return nil, ErrInvalidCredentials
}

// CreateArtist adds a record straight to the live roster (admin path).
// The id is synthesized from the name when absent and made unique
// against both roster and queue.
func (s *communityService) CreateArtist(artist models.Artist) (*models.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := s.takenIDs()
	if err != nil {
		return nil, err
	}
	artist.ID = uniqueID(artist.ID, artist.Name, taken)

	artists, err := s.storage.ReadArtists()
	if err != nil {
		return nil, err
	}
	artists = append(artists, artist)
	if err := s.storage.WriteArtists(artists); err != nil {
		return nil, err
	}
	s.log.Infof("created artist %s", artist.ID)
	return &artist, nil
}

// UpdateArtist shallow-merges patch over the stored record; later keys
// win and there is no per-field validation. The id is immutable.
func (s *communityService) UpdateArtist(id string, patch map[string]any) (*models.Artist, error) {
	return s.update(id, patch, "id")
}

// UpdateSelf is the artist self-service variant: moderation state and
// the like counter are off limits on top of the id.
func (s *communityService) UpdateSelf(id string, patch map[string]any) (*models.Artist, error) {
	return s.update(id, patch, "id", "status", "submitted_at", "likes")
}

func (s *communityService) update(id string, patch map[string]any, protected ...string) (*models.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artists, err := s.storage.ReadArtists()
	if err != nil {
		return nil, err
	}
	for i := range artists {
		if artists[i].ID != id {
			continue
		}
		merged, err := mergeArtist(artists[i], patch, protected)
		if err != nil {
			return nil, err
		}
		artists[i] = merged
		if err := s.storage.WriteArtists(artists); err != nil {
			return nil, err
		}
		s.log.Infof("updated artist %s", id)
		return &merged, nil
	}
	return nil, ErrNotFound
}

func (s *communityService) DeleteArtist(id string) (*models.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artists, err := s.storage.ReadArtists()
	if err != nil {
		return nil, err
	}
	for i := range artists {
		if artists[i].ID != id {
			continue
		}
		removed := artists[i]
		artists = append(artists[:i], artists[i+1:]...)
		if err := s.storage.WriteArtists(artists); err != nil {
			return nil, err
		}
		s.log.Infof("removed artist %s", id)
		return &removed, nil
	}
	return nil, ErrNotFound
}

// Submit runs the Draft->Pending transition: validate, synthesize a
// unique id, apply defaults, stamp the submission, and persist it to
// the pending queue.
func (s *communityService) Submit(artist models.Artist) (*models.Artist, error) {
	if strings.TrimSpace(artist.Name) == "" || strings.TrimSpace(artist.Email) == "" {
		return nil, ErrValidation
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	taken, err := s.takenIDs()
	if err != nil {
		return nil, err
	}
	artist.ID = uniqueID(artist.ID, artist.Name, taken)

	if artist.Image == "" {
		artist.Image = DefaultImage
	}
	if artist.Followers == "" {
		artist.Followers = DefaultFollowers
	}
	artist.Likes = 0
	artist.Status = models.StatusPending
	now := s.config.Now()
	artist.SubmittedAt = &now

	pending, err := s.storage.ReadPending()
	if err != nil {
		return nil, err
	}
	pending = append(pending, artist)
	if err := s.storage.WritePending(pending); err != nil {
		return nil, err
	}
	s.log.Infof("new submission %s (%s)", artist.ID, artist.Name)
	return &artist, nil
}

func (s *communityService) ListPending() ([]models.Artist, error) {
	return s.storage.ReadPending()
}

// Approve runs Pending->Live: the record loses its moderation fields,
// joins the roster, and leaves the queue. The two writes are not
// atomic with each other; a crash in between can leave the artist in
// both documents or neither.
func (s *communityService) Approve(id string) (*models.Artist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.storage.ReadPending()
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range pending {
		if pending[i].ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrNotFound
	}

	artist := pending[idx]
	artist.Status = ""
	artist.SubmittedAt = nil

	artists, err := s.storage.ReadArtists()
	if err != nil {
		return nil, err
	}
	artists = append(artists, artist)
	if err := s.storage.WriteArtists(artists); err != nil {
		return nil, err
	}

	pending = append(pending[:idx], pending[idx+1:]...)
	if err := s.storage.WritePending(pending); err != nil {
		return nil, err
	}
	s.log.Infof("approved %s", id)
	return &artist, nil
}

// Reject runs Pending->Discarded: the record is dropped with no trace.
func (s *communityService) Reject(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, err := s.storage.ReadPending()
	if err != nil {
		return err
	}
	for i := range pending {
		if pending[i].ID != id {
			continue
		}
		pending = append(pending[:i], pending[i+1:]...)
		if err := s.storage.WritePending(pending); err != nil {
			return err
		}
		s.log.Infof("rejected %s", id)
		return nil
	}
	return ErrNotFound
}

// Like increments the artist's counter unless ip already liked it
// within the rolling window.
func (s *communityService) Like(id, ip string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	artists, err := s.storage.ReadArtists()
	if err != nil {
		return 0, err
	}
	for i := range artists {
		if artists[i].ID != id {
			continue
		}
		if !s.likes.Allow(id, ip) {
			return artists[i].Likes, ErrTooManyLikes
		}
		artists[i].Likes++
		if err := s.storage.WriteArtists(artists); err != nil {
			return 0, err
		}
		return artists[i].Likes, nil
	}
	return 0, ErrNotFound
}

func (s *communityService) ListSongs() ([]models.Song, error) {
	return s.storage.ReadSongs()
}

func (s *communityService) AddSong(title, artist, path string) (*models.Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	song := models.Song{
		ID:     uuid.NewString(),
		Title:  title,
		Artist: artist,
		Path:   path,
	}
	songs, err := s.storage.ReadSongs()
	if err != nil {
		return nil, err
	}
	songs = append(songs, song)
	if err := s.storage.WriteSongs(songs); err != nil {
		return nil, err
	}
	s.log.Infof("song added: %s by %s", song.Title, song.Artist)
	return &song, nil
}

// DeleteSong removes the index entry and best-effort unlinks the
// backing file.
func (s *communityService) DeleteSong(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	songs, err := s.storage.ReadSongs()
	if err != nil {
		return err
	}
	for i := range songs {
		if songs[i].ID != id {
			continue
		}
		full := filepath.Join(s.config.MediaDir, filepath.FromSlash(songs[i].Path))
		if utils.FileExists(full) {
			if err := utils.DeleteFile(full); err != nil {
				s.log.Errorf("failed to delete %s: %v", full, err)
			}
		}
		songs = append(songs[:i], songs[i+1:]...)
		return s.storage.WriteSongs(songs)
	}
	return ErrNotFound
}

// takenIDs is the id set across roster and pending queue, consulted at
// creation time.
func (s *communityService) takenIDs() (map[string]bool, error) {
	artists, err := s.storage.ReadArtists()
	if err != nil {
		return nil, err
	}
	pending, err := s.storage.ReadPending()
	if err != nil {
		return nil, err
	}
	taken := make(map[string]bool, len(artists)+len(pending))
	for _, a := range artists {
		taken[a.ID] = true
	}
	for _, a := range pending {
		taken[a.ID] = true
	}
	return taken, nil
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	nonWordRe    = regexp.MustCompile(`[^a-z0-9_-]+`)
)

// slugify lowercases the name, turns whitespace runs into underscores,
// and strips everything else.
func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = whitespaceRe.ReplaceAllString(slug, "_")
	return nonWordRe.ReplaceAllString(slug, "")
}

// uniqueID returns id when given, otherwise a slug of name, then
// appends an incrementing numeric suffix until the result is unused.
func uniqueID(id, name string, taken map[string]bool) string {
	base := strings.TrimSpace(id)
	if base == "" {
		base = slugify(name)
	}
	if base == "" {
		base = "artist"
	}
	if !taken[base] {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", base, n)
		if !taken[candidate] {
			return candidate
		}
	}
}

// mergeArtist shallow-merges patch over the record via its JSON form,
// dropping protected keys first. Later keys win; unknown keys are
// discarded by the typed decode.
func mergeArtist(artist models.Artist, patch map[string]any, protected []string) (models.Artist, error) {
	raw, err := json.Marshal(artist)
	if err != nil {
		return artist, fmt.Errorf("encoding artist: %w", err)
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return artist, fmt.Errorf("decoding artist: %w", err)
	}

	skip := make(map[string]bool, len(protected))
	for _, k := range protected {
		skip[k] = true
	}
	for k, v := range patch {
		if skip[k] {
			continue
		}
		m[k] = v
	}

	merged, err := json.Marshal(m)
	if err != nil {
		return artist, fmt.Errorf("encoding merge: %w", err)
	}
	var out models.Artist
	if err := json.Unmarshal(merged, &out); err != nil {
		return artist, fmt.Errorf("invalid patch: %w", err)
	}
	out.ID = artist.ID
	return out, nil
}
