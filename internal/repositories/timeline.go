package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/spear/internal/models"
)

// TimelineRepository is the append-only playback log. It has no update or delete operations.
type TimelineRepository struct {
	db *sql.DB
}

// NewTimelineRepository creates a new TimelineRepository with the given database connection
func NewTimelineRepository(db *sql.DB) *TimelineRepository {
	return &TimelineRepository{db: db}
}

// Record appends a playback event for a live track.
func (r *TimelineRepository) Record(ctx context.Context, trackID string, outcome models.PlaybackOutcome) (*models.TimelineEvent, error) {
	if err := outcome.Validate(); err != nil {
		return nil, err
	}

	event := &models.TimelineEvent{
		TrackID:    trackID,
		Outcome:    outcome.Kind,
		Elapsed:    outcome.Elapsed,
		OccurredAt: now(),
	}

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := requireTrack(ctx, tx, trackID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`INSERT INTO timeline_events (track_id, outcome, elapsed_ms, occurred_at) VALUES (?, ?, ?, ?)`,
			trackID, string(outcome.Kind), outcome.Elapsed.Milliseconds(), event.OccurredAt,
		)
		if err != nil {
			return fmt.Errorf("failed to record event: %w", err)
		}

		event.ID, err = result.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

// RecentFor returns up to n events of a live track, newest first.
func (r *TimelineRepository) RecentFor(ctx context.Context, trackID string, n int) ([]models.TimelineEvent, error) {
	if err := requireTrack(ctx, r.db, trackID); err != nil {
		return nil, err
	}
	if n <= 0 {
		return []models.TimelineEvent{}, nil
	}
	return r.query(ctx,
		`SELECT id, track_id, outcome, elapsed_ms, occurred_at FROM timeline_events
		WHERE track_id = ? ORDER BY occurred_at DESC, id DESC LIMIT ?`,
		trackID, n,
	)
}

// List returns the whole log in the order it was written.
func (r *TimelineRepository) List(ctx context.Context) ([]models.TimelineEvent, error) {
	return r.query(ctx, `SELECT id, track_id, outcome, elapsed_ms, occurred_at FROM timeline_events ORDER BY id ASC`)
}

// TopTracks ranks tracks by completed plays since the given time, most played first.
// Ties go to the track played most recently. A non-positive limit returns every track.
func (r *TimelineRepository) TopTracks(ctx context.Context, since time.Time, limit int) ([]models.TrackPlays, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT track_id, COUNT(*) AS plays, MAX(occurred_at) AS last_played FROM timeline_events
		WHERE outcome = ? AND occurred_at >= ?
		GROUP BY track_id
		ORDER BY plays DESC, last_played DESC, track_id ASC
		LIMIT ?`,
		string(models.PlaybackCompleted), since.UTC(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top tracks: %w", err)
	}
	defer rows.Close()

	top := []models.TrackPlays{}
	for rows.Next() {
		var (
			p    models.TrackPlays
			last string
		)
		if err := rows.Scan(&p.TrackID, &p.Plays, &last); err != nil {
			return nil, fmt.Errorf("failed to scan top track: %w", err)
		}
		if p.LastPlayed, err = parseTimestamp(last); err != nil {
			return nil, err
		}
		top = append(top, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return top, nil
}

func (r *TimelineRepository) query(ctx context.Context, query string, args ...any) ([]models.TimelineEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline: %w", err)
	}
	defer rows.Close()

	events := []models.TimelineEvent{}
	for rows.Next() {
		var (
			e       models.TimelineEvent
			outcome string
			elapsed int64
		)
		if err := rows.Scan(&e.ID, &e.TrackID, &outcome, &elapsed, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.Outcome = models.PlaybackKind(outcome)
		e.Elapsed = time.Duration(elapsed) * time.Millisecond
		e.OccurredAt = e.OccurredAt.UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}
