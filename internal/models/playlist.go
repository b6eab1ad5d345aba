package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/spear/internal/shared"
)

// Playlist is a named, ordered list of track references.
// SourceURL is set on playlists imported from a remote playlist.
type Playlist struct {
	id          string
	sequence    int
	name        string
	description string
	sourceURL   string
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   *time.Time
}

// NewPlaylist creates an unsaved playlist.
func NewPlaylist(name, description string) *Playlist {
	now := time.Now().UTC()
	return &Playlist{
		name:        strings.TrimSpace(name),
		description: description,
		createdAt:   now,
		updatedAt:   now,
	}
}

func (p *Playlist) ID() string            { return p.id }
func (p *Playlist) Sequence() int         { return p.sequence }
func (p *Playlist) Name() string          { return p.name }
func (p *Playlist) Description() string   { return p.description }
func (p *Playlist) SourceURL() string     { return p.sourceURL }
func (p *Playlist) CreatedAt() time.Time  { return p.createdAt }
func (p *Playlist) UpdatedAt() time.Time  { return p.updatedAt }
func (p *Playlist) DeletedAt() *time.Time { return p.deletedAt }

func (p *Playlist) SetID(id string)            { p.id = id }
func (p *Playlist) SetSequence(seq int)        { p.sequence = seq }
func (p *Playlist) SetName(name string)        { p.name = strings.TrimSpace(name) }
func (p *Playlist) SetDescription(d string)    { p.description = d }
func (p *Playlist) SetSourceURL(u string)      { p.sourceURL = u }
func (p *Playlist) SetCreatedAt(at time.Time)  { p.createdAt = at }
func (p *Playlist) SetUpdatedAt(at time.Time)  { p.updatedAt = at }
func (p *Playlist) SetDeletedAt(at *time.Time) { p.deletedAt = at }

// Validate checks required fields.
func (p *Playlist) Validate() error {
	if p.name == "" {
		return fmt.Errorf("%w: playlist name is required", shared.ErrInvalidInput)
	}
	return nil
}

// PlaylistEntry is one slot of a playlist. Positions are 0-based and contiguous.
type PlaylistEntry struct {
	ID         int64
	PlaylistID string
	TrackID    string
	Position   int
	AddedAt    time.Time
}
