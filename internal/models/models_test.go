package models

import (
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spear/internal/shared"
)

func TestTrack(t *testing.T) {
	t.Run("NewTrack trims and keys", func(t *testing.T) {
		track := NewTrack(TrackFields{Title: "  Bohemian Rhapsody ", Artist: "Queen  "})
		if track.Title() != "Bohemian Rhapsody" {
			t.Errorf("expected trimmed title, got %q", track.Title())
		}
		if got := track.MatchKey(); got != "bohemian rhapsody|queen" {
			t.Errorf("MatchKey() = %q", got)
		}
		if track.Label() != "Queen - Bohemian Rhapsody" {
			t.Errorf("Label() = %q", track.Label())
		}
		if track.AddedAt().Location() != time.UTC {
			t.Error("expected UTC timestamps")
		}
	})

	t.Run("Label without artist", func(t *testing.T) {
		track := NewTrack(TrackFields{Title: "Untitled"})
		if track.Label() != "Untitled" {
			t.Errorf("Label() = %q", track.Label())
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name    string
			fields  TrackFields
			wantErr bool
		}{
			{name: "valid", fields: TrackFields{Title: "x"}},
			{name: "blank title", fields: TrackFields{Title: "   "}, wantErr: true},
			{name: "negative duration", fields: TrackFields{Title: "x", Duration: -1}, wantErr: true},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				err := NewTrack(tt.fields).Validate()
				if tt.wantErr != (err != nil) {
					t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
				}
				if err != nil && !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
	})
}

func TestPlaylistValidate(t *testing.T) {
	if err := NewPlaylist(" ", "").Validate(); !errors.Is(err, shared.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for blank name, got %v", err)
	}
	if err := NewPlaylist("Road trip", "").Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPlaybackOutcome(t *testing.T) {
	tc := []struct {
		name    string
		outcome PlaybackOutcome
		wantErr bool
	}{
		{name: "completed", outcome: PlaybackOutcome{Kind: PlaybackCompleted}},
		{name: "partial", outcome: PlaybackOutcome{Kind: PlaybackPartial, Elapsed: 42 * time.Second}},
		{name: "unknown", outcome: PlaybackOutcome{Kind: "paused"}, wantErr: true},
		{name: "negative", outcome: PlaybackOutcome{Kind: PlaybackPartial, Elapsed: -time.Second}, wantErr: true},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.outcome.Validate(); tt.wantErr != (err != nil) {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDownloadOutcome(t *testing.T) {
	if got := Failed("boom", true); got.Kind != DownloadFailed || !got.Retryable || got.Reason != "boom" {
		t.Errorf("Failed() = %+v", got)
	}
	if got := Unsupported().Kind.String(); got != "Unsupported" {
		t.Errorf("String() = %q", got)
	}
	if got := DownloadKind(99).String(); got != "Unknown" {
		t.Errorf("String() = %q", got)
	}
}
