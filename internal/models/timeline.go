package models

import (
	"fmt"
	"time"

	"github.com/desertthunder/spear/internal/shared"
)

// PlaybackKind names how a play ended.
type PlaybackKind string

const (
	PlaybackCompleted PlaybackKind = "completed"
	PlaybackSkipped   PlaybackKind = "skipped"
	PlaybackPartial   PlaybackKind = "partial"
)

// ParsePlaybackKind parses a stored or user-supplied outcome name.
func ParsePlaybackKind(s string) (PlaybackKind, error) {
	switch k := PlaybackKind(s); k {
	case PlaybackCompleted, PlaybackSkipped, PlaybackPartial:
		return k, nil
	}
	return "", fmt.Errorf("%w: unknown playback outcome %q", shared.ErrInvalidInput, s)
}

// PlaybackOutcome is the result of one play, as reported by the player.
//
// Elapsed is only meaningful for partial plays.
type PlaybackOutcome struct {
	Kind    PlaybackKind
	Elapsed time.Duration
}

// Validate rejects unknown kinds and negative offsets.
func (p PlaybackOutcome) Validate() error {
	if _, err := ParsePlaybackKind(string(p.Kind)); err != nil {
		return err
	}
	if p.Elapsed < 0 {
		return fmt.Errorf("%w: elapsed must not be negative", shared.ErrInvalidInput)
	}
	return nil
}

// TimelineEvent is an append-only playback record.
type TimelineEvent struct {
	ID         int64
	TrackID    string
	Outcome    PlaybackKind
	Elapsed    time.Duration
	OccurredAt time.Time
}

// TrackPlays aggregates completed plays of one track.
type TrackPlays struct {
	TrackID    string
	Plays      int
	LastPlayed time.Time
}
