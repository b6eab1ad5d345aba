package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/shared"
)

func TestTimelineRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Record", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTimelineRepository(db)
		track := createTrack(t, NewTrackRepository(db), "Africa", "Toto")

		event, err := repo.Record(ctx, track.ID(), models.PlaybackOutcome{Kind: models.PlaybackPartial, Elapsed: 95 * time.Second})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if event.ID == 0 || event.TrackID != track.ID() {
			t.Errorf("unexpected event %+v", event)
		}

		events, err := repo.List(ctx)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(events) != 1 || events[0].Elapsed != 95*time.Second || events[0].Outcome != models.PlaybackPartial {
			t.Errorf("unexpected events %+v", events)
		}
	})

	t.Run("RecentFor", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTimelineRepository(db)
		tracks := NewTrackRepository(db)
		a := createTrack(t, tracks, "A", "")
		b := createTrack(t, tracks, "B", "")

		kinds := []models.PlaybackKind{models.PlaybackCompleted, models.PlaybackSkipped, models.PlaybackCompleted}
		for _, k := range kinds {
			if _, err := repo.Record(ctx, a.ID(), models.PlaybackOutcome{Kind: k}); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}
		repo.Record(ctx, b.ID(), models.PlaybackOutcome{Kind: models.PlaybackSkipped})

		recent, err := repo.RecentFor(ctx, a.ID(), 2)
		if err != nil {
			t.Fatalf("RecentFor() error = %v", err)
		}
		if len(recent) != 2 {
			t.Fatalf("expected 2 events, got %d", len(recent))
		}
		if recent[0].ID < recent[1].ID {
			t.Error("expected newest first")
		}
		for _, e := range recent {
			if e.TrackID != a.ID() {
				t.Errorf("event for wrong track %s", e.TrackID)
			}
		}

		if none, _ := repo.RecentFor(ctx, a.ID(), 0); len(none) != 0 {
			t.Errorf("n=0 should return nothing, got %d", len(none))
		}
	})

	t.Run("TopTracks", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewTimelineRepository(db)
		tracks := NewTrackRepository(db)
		a := createTrack(t, tracks, "A", "")
		b := createTrack(t, tracks, "B", "")
		c := createTrack(t, tracks, "C", "")

		plays := []struct {
			track *models.Track
			kind  models.PlaybackKind
		}{
			{a, models.PlaybackCompleted},
			{b, models.PlaybackCompleted},
			{b, models.PlaybackCompleted},
			{c, models.PlaybackSkipped},
			{c, models.PlaybackSkipped},
			{c, models.PlaybackSkipped},
		}
		for _, p := range plays {
			if _, err := repo.Record(ctx, p.track.ID(), models.PlaybackOutcome{Kind: p.kind}); err != nil {
				t.Fatalf("Record() error = %v", err)
			}
		}

		top, err := repo.TopTracks(ctx, time.Now().Add(-time.Hour), 0)
		if err != nil {
			t.Fatalf("TopTracks() error = %v", err)
		}
		if len(top) != 2 {
			t.Fatalf("expected 2 tracks with completed plays, got %d", len(top))
		}
		if top[0].TrackID != b.ID() || top[0].Plays != 2 {
			t.Errorf("expected B with 2 plays first, got %+v", top[0])
		}
		if top[0].LastPlayed.IsZero() {
			t.Error("expected last played time")
		}

		limited, _ := repo.TopTracks(ctx, time.Time{}, 1)
		if len(limited) != 1 {
			t.Errorf("expected limit 1, got %d", len(limited))
		}

		future, _ := repo.TopTracks(ctx, time.Now().Add(time.Hour), 0)
		if len(future) != 0 {
			t.Errorf("expected no plays in the future, got %d", len(future))
		}
	})
}

func TestTimelineRepositoryErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownTrack", func(t *testing.T) {
		repo := NewTimelineRepository(setupTestDB(t))
		_, err := repo.Record(ctx, "missing", models.PlaybackOutcome{Kind: models.PlaybackCompleted})
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("RecentForUnknownTrack", func(t *testing.T) {
		repo := NewTimelineRepository(setupTestDB(t))
		events, err := repo.RecentFor(ctx, "no-such-track", 5)
		if !errors.Is(err, shared.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if events != nil {
			t.Errorf("expected no events, got %v", events)
		}
	})

	t.Run("InvalidOutcome", func(t *testing.T) {
		db := setupTestDB(t)
		track := createTrack(t, NewTrackRepository(db), "A", "")
		_, err := NewTimelineRepository(db).Record(ctx, track.ID(), models.PlaybackOutcome{Kind: "paused"})
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	})
}
