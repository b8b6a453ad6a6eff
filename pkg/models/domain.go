package models

import "time"

// StatusPending marks an artist submission awaiting moderation. Live
// roster records carry no status at all.
const StatusPending = "pending"

// Artist is a roster or pending-queue record. The same shape is used in
// both documents; pending entries additionally carry Status and
// SubmittedAt until they are approved.
type Artist struct {
	ID               string     `json:"id"`                          // unique slug, immutable after creation
	Name             string     `json:"name"`
	Email            string     `json:"email,omitempty"`
	Bio              string     `json:"bio,omitempty"`
	Spotify          string     `json:"spotify,omitempty"`
	Instagram        string     `json:"instagram,omitempty"`
	SoundCloud       string     `json:"soundcloud,omitempty"`
	Image            string     `json:"image,omitempty"`             // relative path under the media root
	Followers        string     `json:"followers,omitempty"`         // free-text label, e.g. "New Artist"
	MonthlyListeners string     `json:"monthly_listeners,omitempty"`
	Likes            int        `json:"likes"`
	Status           string     `json:"status,omitempty"`            // StatusPending while queued, empty once live
	SubmittedAt      *time.Time `json:"submitted_at,omitempty"`
}

// IsPending reports whether the record is still in the moderation queue.
func (a *Artist) IsPending() bool {
	return a.Status == StatusPending
}

// Song is one entry in the song index.
type Song struct {
	ID     string `json:"id"`     // generated UUID
	Title  string `json:"title"`
	Artist string `json:"artist"` // free text or an artist id
	Path   string `json:"path"`   // relative path under the media root
}

// SongIndex is the on-disk shape of the songs document.
type SongIndex struct {
	Songs []Song `json:"songs"`
}
