package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spear/internal/shared"
)

// TrackFields carries the descriptive metadata of a track, as reported by a download or typed by a user.
type TrackFields struct {
	Title    string
	Artist   string
	Path     string
	Duration int // Duration in seconds
}

// Track is a song known to the library.
//
// (title, artist, source URL) identify a track: two live tracks never share a source URL
// or a normalized title/artist pair.
type Track struct {
	id        string
	sequence  int
	title     string
	artist    string
	sourceURL string
	path      string
	duration  int
	addedAt   time.Time
	updatedAt time.Time
	deletedAt *time.Time
}

// NewTrack creates an unsaved track. The ID is assigned by the track store.
func NewTrack(fields TrackFields) *Track {
	now := time.Now().UTC()
	return &Track{
		title:     strings.TrimSpace(fields.Title),
		artist:    strings.TrimSpace(fields.Artist),
		path:      fields.Path,
		duration:  fields.Duration,
		addedAt:   now,
		updatedAt: now,
	}
}

func (t *Track) ID() string            { return t.id }
func (t *Track) Sequence() int         { return t.sequence }
func (t *Track) Title() string         { return t.title }
func (t *Track) Artist() string        { return t.artist }
func (t *Track) SourceURL() string     { return t.sourceURL }
func (t *Track) Path() string          { return t.path }
func (t *Track) Duration() int         { return t.duration }
func (t *Track) AddedAt() time.Time    { return t.addedAt }
func (t *Track) CreatedAt() time.Time  { return t.addedAt }
func (t *Track) UpdatedAt() time.Time  { return t.updatedAt }
func (t *Track) DeletedAt() *time.Time { return t.deletedAt }

func (t *Track) SetID(id string)            { t.id = id }
func (t *Track) SetSequence(seq int)        { t.sequence = seq }
func (t *Track) SetTitle(title string)      { t.title = strings.TrimSpace(title) }
func (t *Track) SetArtist(artist string)    { t.artist = strings.TrimSpace(artist) }
func (t *Track) SetSourceURL(u string)      { t.sourceURL = u }
func (t *Track) SetPath(path string)        { t.path = path }
func (t *Track) SetDuration(seconds int)    { t.duration = seconds }
func (t *Track) SetAddedAt(at time.Time)    { t.addedAt = at }
func (t *Track) SetUpdatedAt(at time.Time)  { t.updatedAt = at }
func (t *Track) SetDeletedAt(at *time.Time) { t.deletedAt = at }

// MatchKey is the normalized title/artist identity.
func (t *Track) MatchKey() string {
	return shared.NormalizeTrackKey(t.title, t.artist)
}

// Label renders "Artist - Title", or just the title when the artist is unknown.
func (t *Track) Label() string {
	if t.artist == "" {
		return t.title
	}
	return t.artist + " - " + t.title
}

// Validate checks required fields.
func (t *Track) Validate() error {
	if t.title == "" {
		return fmt.Errorf("%w: track title is required", shared.ErrInvalidInput)
	}
	if t.duration < 0 {
		return fmt.Errorf("%w: track duration must not be negative", shared.ErrInvalidInput)
	}
	return nil
}

// Media is what playback needs to start a track.
type Media struct {
	TrackID  string
	Path     string
	Duration int
}
