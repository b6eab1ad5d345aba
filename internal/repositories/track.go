package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/shared"
)

const trackColumns = `id, sequence, title, artist, source_url, path, duration, added_at, updated_at, deleted_at`

// TrackRepository implements models.Repository[*models.Track] and is the identity authority for tracks.
//
// A source URL maps to at most one live track. A normalized title/artist pair is unique only among
// tracks without a source URL, so distinct videos with the same title stay distinct tracks.
type TrackRepository struct {
	db *sql.DB
}

// NewTrackRepository creates a new TrackRepository with the given database connection
func NewTrackRepository(db *sql.DB) *TrackRepository {
	return &TrackRepository{db: db}
}

// Create inserts a new [models.Track] with generated ID and sequence.
//
// Returns [shared.ErrConflict] when the source URL is already taken, or when an unsourced track
// reuses the title/artist pair of another unsourced track.
func (r *TrackRepository) Create(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return withTx(context.Background(), r.db, func(tx *sql.Tx) error {
		return r.insert(context.Background(), tx, track)
	})
}

func (r *TrackRepository) insert(ctx context.Context, q querier, track *models.Track) error {
	sequence, err := nextSequence(ctx, q, "tracks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO tracks (id, sequence, title, artist, source_url, match_key, path, duration, added_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		id,
		sequence,
		track.Title(),
		track.Artist(),
		nullString(track.SourceURL()),
		track.MatchKey(),
		track.Path(),
		track.Duration(),
		track.AddedAt(),
		track.UpdatedAt(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: track %q already exists", shared.ErrConflict, track.Label())
	}
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}

	track.SetID(id)
	track.SetSequence(sequence)
	return nil
}

// Get retrieves a track by ID, excluding soft-deleted tracks
func (r *TrackRepository) Get(id string) (*models.Track, error) {
	return r.get(context.Background(), r.db, id)
}

func (r *TrackRepository) get(ctx context.Context, q querier, id string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = ? AND deleted_at IS NULL`

	track, err := scanTrack(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("track", id)
	}
	return track, err
}

// GetBySource retrieves the live track owning a canonical source URL.
func (r *TrackRepository) GetBySource(ctx context.Context, sourceURL string) (*models.Track, error) {
	track, err := r.findBy(ctx, r.db, "source_url", sourceURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("track with source", sourceURL)
	}
	return track, err
}

func (r *TrackRepository) findBy(ctx context.Context, q querier, column, value string) (*models.Track, error) {
	query := fmt.Sprintf(`SELECT %s FROM tracks WHERE %s = ? AND deleted_at IS NULL`, trackColumns, column)
	return scanTrack(q.QueryRowContext(ctx, query, value))
}

// findUnsourced finds the live track with matchKey that has no source URL yet.
func (r *TrackRepository) findUnsourced(ctx context.Context, q querier, matchKey string) (*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE match_key = ? AND source_url IS NULL AND deleted_at IS NULL`
	return scanTrack(q.QueryRowContext(ctx, query, matchKey))
}

// Update modifies an existing track in the database
func (r *TrackRepository) Update(track *models.Track) error {
	if err := track.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	at := now()

	query := `
		UPDATE tracks
		SET title = ?, artist = ?, source_url = ?, match_key = ?, path = ?, duration = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		track.Title(),
		track.Artist(),
		nullString(track.SourceURL()),
		track.MatchKey(),
		track.Path(),
		track.Duration(),
		at,
		track.ID(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: another track already has this source or title/artist", shared.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to update track: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound("track", track.ID())
	}

	track.SetUpdatedAt(at)
	return nil
}

// Delete soft-deletes a track by ID and removes it from every playlist.
func (r *TrackRepository) Delete(id string) error {
	ctx := context.Background()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE tracks SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now(), id)
		if err != nil {
			return fmt.Errorf("failed to delete track: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return notFound("track", id)
		}

		return removeFromPlaylists(ctx, tx, id)
	})
}

// removeFromPlaylists deletes every entry of trackID and renumbers the playlists it was in.
func removeFromPlaylists(ctx context.Context, q querier, trackID string) error {
	rows, err := q.QueryContext(ctx, `SELECT DISTINCT playlist_id FROM playlist_entries WHERE track_id = ?`, trackID)
	if err != nil {
		return fmt.Errorf("failed to query playlists of track: %w", err)
	}
	var playlistIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan playlist id: %w", err)
		}
		playlistIDs = append(playlistIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	if _, err := q.ExecContext(ctx, `DELETE FROM playlist_entries WHERE track_id = ?`, trackID); err != nil {
		return fmt.Errorf("failed to remove track entries: %w", err)
	}

	at := now()
	for _, playlistID := range playlistIDs {
		if err := renumber(ctx, q, playlistID); err != nil {
			return err
		}
		if err := touchPlaylist(ctx, q, playlistID, at); err != nil {
			return err
		}
	}
	return nil
}

// List retrieves all live tracks matching the given criteria in insertion order.
//
// Supported criteria: "artist" (exact, case-insensitive) and "sourced" (bool, only tracks with a source URL).
func (r *TrackRepository) List(criteria map[string]any) ([]*models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE deleted_at IS NULL`

	args := []any{}

	if artist, ok := criteria["artist"].(string); ok && artist != "" {
		query += " AND artist = ? COLLATE NOCASE"
		args = append(args, artist)
	}

	if sourced, ok := criteria["sourced"].(bool); ok && sourced {
		query += " AND source_url IS NOT NULL"
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []*models.Track
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, track)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return tracks, nil
}

// UpsertBySource resolves fields to exactly one track and reports whether it was newly created.
//
// Lookup order: live track with sourceURL, then a live track without any source URL that has the
// same normalized title/artist, then insert. A track found by source keeps its title and artist;
// only path and duration are refreshed. A track found by title/artist gains the source URL and any
// file details it lacked. A track already bound to another source is never adopted.
// The whole resolution runs in one transaction.
func (r *TrackRepository) UpsertBySource(ctx context.Context, sourceURL string, fields models.TrackFields) (*models.Track, bool, error) {
	candidate := models.NewTrack(fields)
	candidate.SetSourceURL(sourceURL)
	if err := candidate.Validate(); err != nil {
		return nil, false, fmt.Errorf("validation failed: %w", err)
	}

	var (
		track   *models.Track
		created bool
	)

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if sourceURL != "" {
			existing, err := r.findBy(ctx, tx, "source_url", sourceURL)
			switch {
			case err == nil:
				if fields.Path != "" {
					existing.SetPath(fields.Path)
				}
				if fields.Duration > 0 {
					existing.SetDuration(fields.Duration)
				}
				track = existing
				return r.refresh(ctx, tx, existing)
			case !errors.Is(err, sql.ErrNoRows):
				return err
			}
		}

		existing, err := r.findUnsourced(ctx, tx, candidate.MatchKey())
		switch {
		case err == nil:
			existing.SetSourceURL(sourceURL)
			if existing.Path() == "" {
				existing.SetPath(fields.Path)
			}
			if existing.Duration() == 0 {
				existing.SetDuration(fields.Duration)
			}
			track = existing
			return r.refresh(ctx, tx, existing)
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		if err := r.insert(ctx, tx, candidate); err != nil {
			return err
		}
		track, created = candidate, true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert track: %w", err)
	}

	return track, created, nil
}

// refresh writes the mutable file and source fields of an existing track.
func (r *TrackRepository) refresh(ctx context.Context, q querier, track *models.Track) error {
	at := now()
	_, err := q.ExecContext(ctx,
		`UPDATE tracks SET source_url = ?, path = ?, duration = ?, updated_at = ? WHERE id = ?`,
		nullString(track.SourceURL()), track.Path(), track.Duration(), at, track.ID(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: source %s belongs to another track", shared.ErrConflict, track.SourceURL())
	}
	if err != nil {
		return fmt.Errorf("failed to refresh track: %w", err)
	}
	track.SetUpdatedAt(at)
	return nil
}

// Media returns what playback needs for a track: its file path and duration.
func (r *TrackRepository) Media(ctx context.Context, id string) (*models.Media, error) {
	track, err := r.get(ctx, r.db, id)
	if err != nil {
		return nil, err
	}
	return &models.Media{TrackID: track.ID(), Path: track.Path(), Duration: track.Duration()}, nil
}

// scanTrack scans a single row into a [models.Track]
func scanTrack(row scanner) (*models.Track, error) {
	var (
		id        string
		sequence  int
		title     string
		artist    string
		sourceURL sql.NullString
		path      string
		duration  int
		addedAt   time.Time
		updatedAt time.Time
		deletedAt sql.NullTime
	)

	err := row.Scan(&id, &sequence, &title, &artist, &sourceURL, &path, &duration, &addedAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan track: %w", err)
	}

	track := models.NewTrack(models.TrackFields{Title: title, Artist: artist, Path: path, Duration: duration})
	track.SetID(id)
	track.SetSequence(sequence)
	track.SetSourceURL(sourceURL.String)
	track.SetAddedAt(addedAt.UTC())
	track.SetUpdatedAt(updatedAt.UTC())
	track.SetDeletedAt(nullTime(deletedAt))

	return track, nil
}
