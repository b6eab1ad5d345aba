package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/shared"
)

const playlistColumns = `id, sequence, name, description, source_url, created_at, updated_at, deleted_at`

// PlaylistRepository implements models.Repository[*models.Playlist] and owns playlist ordering.
//
// Entry positions in a playlist are always the contiguous range 0..k-1. Every mutation that could
// open a gap renumbers in the same transaction.
type PlaylistRepository struct {
	db *sql.DB
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create inserts a new playlist with generated ID and sequence.
//
// Returns [shared.ErrConflict] when a live playlist already has the name or source URL.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	ctx := context.Background()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		return r.insert(ctx, tx, playlist)
	})
}

func (r *PlaylistRepository) insert(ctx context.Context, q querier, playlist *models.Playlist) error {
	sequence, err := nextSequence(ctx, q, "playlists")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO playlists (id, sequence, name, description, source_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = q.ExecContext(ctx, query,
		id,
		sequence,
		playlist.Name(),
		playlist.Description(),
		nullString(playlist.SourceURL()),
		playlist.CreatedAt(),
		playlist.UpdatedAt(),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: playlist %q already exists", shared.ErrConflict, playlist.Name())
	}
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	playlist.SetID(id)
	playlist.SetSequence(sequence)
	return nil
}

// Get retrieves a playlist by ID, excluding soft-deleted playlists
func (r *PlaylistRepository) Get(id string) (*models.Playlist, error) {
	return r.get(context.Background(), r.db, id)
}

func (r *PlaylistRepository) get(ctx context.Context, q querier, id string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE id = ? AND deleted_at IS NULL`

	playlist, err := scanPlaylist(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("playlist", id)
	}
	return playlist, err
}

// GetByName retrieves a live playlist by its exact name
func (r *PlaylistRepository) GetByName(name string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE name = ? AND deleted_at IS NULL`

	playlist, err := scanPlaylist(r.db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("playlist named", name)
	}
	return playlist, err
}

// GetBySource retrieves the live playlist imported from a remote playlist URL.
func (r *PlaylistRepository) GetBySource(ctx context.Context, sourceURL string) (*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE source_url = ? AND deleted_at IS NULL`

	playlist, err := scanPlaylist(r.db.QueryRowContext(ctx, query, sourceURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("playlist with source", sourceURL)
	}
	return playlist, err
}

// Update renames or re-describes a playlist
func (r *PlaylistRepository) Update(playlist *models.Playlist) error {
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	at := now()

	query := `
		UPDATE playlists
		SET name = ?, description = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, playlist.Name(), playlist.Description(), at, playlist.ID())
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: playlist %q already exists", shared.ErrConflict, playlist.Name())
	}
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return notFound("playlist", playlist.ID())
	}

	playlist.SetUpdatedAt(at)
	return nil
}

// Delete soft-deletes a playlist and drops its entries
func (r *PlaylistRepository) Delete(id string) error {
	ctx := context.Background()
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `UPDATE playlists SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`, now(), id)
		if err != nil {
			return fmt.Errorf("failed to delete playlist: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return notFound("playlist", id)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_entries WHERE playlist_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete playlist entries: %w", err)
		}
		return nil
	})
}

// List retrieves live playlists in creation order.
//
// Supported criteria: "name" (substring, case-insensitive).
func (r *PlaylistRepository) List(criteria map[string]any) ([]*models.Playlist, error) {
	query := `SELECT ` + playlistColumns + ` FROM playlists WHERE deleted_at IS NULL`

	args := []any{}

	if name, ok := criteria["name"].(string); ok && name != "" {
		query += " AND name LIKE ?"
		args = append(args, "%"+name+"%")
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return playlists, nil
}

// UniqueName returns base if no live playlist uses it, else the first free "base (n)" for n = 1, 2, ...
func (r *PlaylistRepository) UniqueName(ctx context.Context, base string) (string, error) {
	name := base
	for n := 1; ; n++ {
		var exists bool
		err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM playlists WHERE name = ? AND deleted_at IS NULL)`, name,
		).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("failed to check playlist name: %w", err)
		}
		if !exists {
			return name, nil
		}
		name = fmt.Sprintf("%s (%d)", base, n)
	}
}

// Append adds trackID at the next free position of the playlist.
func (r *PlaylistRepository) Append(ctx context.Context, playlistID, trackID string) (*models.PlaylistEntry, error) {
	var entry *models.PlaylistEntry

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.get(ctx, tx, playlistID); err != nil {
			return err
		}
		if err := requireTrack(ctx, tx, trackID); err != nil {
			return err
		}

		var position int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM playlist_entries WHERE playlist_id = ?`, playlistID,
		).Scan(&position); err != nil {
			return fmt.Errorf("failed to count entries: %w", err)
		}

		at := now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_entries (playlist_id, track_id, position, added_at) VALUES (?, ?, ?, ?)`,
			playlistID, trackID, position, at,
		)
		if err != nil {
			return fmt.Errorf("failed to append entry: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get entry id: %w", err)
		}

		if err := touchPlaylist(ctx, tx, playlistID, at); err != nil {
			return err
		}

		entry = &models.PlaylistEntry{ID: id, PlaylistID: playlistID, TrackID: trackID, Position: position, AddedAt: at}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Remove deletes the entry at position and closes the gap.
func (r *PlaylistRepository) Remove(ctx context.Context, playlistID string, position int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.get(ctx, tx, playlistID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM playlist_entries WHERE playlist_id = ? AND position = ?`, playlistID, position,
		)
		if err != nil {
			return fmt.Errorf("failed to remove entry: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if rows == 0 {
			return notFound("playlist position", fmt.Sprintf("%s#%d", playlistID, position))
		}

		if err := renumber(ctx, tx, playlistID); err != nil {
			return err
		}
		return touchPlaylist(ctx, tx, playlistID, now())
	})
}

// RemoveTrack deletes every entry of trackID from the playlist and returns how many were removed.
func (r *PlaylistRepository) RemoveTrack(ctx context.Context, playlistID, trackID string) (int, error) {
	var removed int64

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.get(ctx, tx, playlistID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			`DELETE FROM playlist_entries WHERE playlist_id = ? AND track_id = ?`, playlistID, trackID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove track: %w", err)
		}

		if removed, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		if removed == 0 {
			return notFound("track in playlist", trackID)
		}

		if err := renumber(ctx, tx, playlistID); err != nil {
			return err
		}
		return touchPlaylist(ctx, tx, playlistID, now())
	})

	return int(removed), err
}

// Move relocates the entry at from so that it ends up at position to, shifting the entries in between.
func (r *PlaylistRepository) Move(ctx context.Context, playlistID string, from, to int) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.get(ctx, tx, playlistID); err != nil {
			return err
		}

		ids, err := entryIDs(ctx, tx, playlistID)
		if err != nil {
			return err
		}
		if from < 0 || from >= len(ids) || to < 0 || to >= len(ids) {
			return fmt.Errorf("%w: move %d -> %d outside 0..%d", shared.ErrInvalidArgument, from, to, len(ids)-1)
		}
		if from == to {
			return nil
		}

		moved := ids[from]
		ids = append(ids[:from], ids[from+1:]...)
		ids = append(ids[:to], append([]int64{moved}, ids[to:]...)...)

		if err := writePositions(ctx, tx, ids); err != nil {
			return err
		}
		return touchPlaylist(ctx, tx, playlistID, now())
	})
}

// Insert places trackID at position, shifting that entry and every later one down by one.
// A position equal to the entry count appends.
func (r *PlaylistRepository) Insert(ctx context.Context, playlistID, trackID string, position int) (*models.PlaylistEntry, error) {
	var entry *models.PlaylistEntry

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.get(ctx, tx, playlistID); err != nil {
			return err
		}
		if err := requireTrack(ctx, tx, trackID); err != nil {
			return err
		}

		ids, err := entryIDs(ctx, tx, playlistID)
		if err != nil {
			return err
		}
		if position < 0 || position > len(ids) {
			return fmt.Errorf("%w: insert at %d outside 0..%d", shared.ErrInvalidArgument, position, len(ids))
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE playlist_entries SET position = position + 1 WHERE playlist_id = ? AND position >= ?`,
			playlistID, position,
		); err != nil {
			return fmt.Errorf("failed to shift entries: %w", err)
		}

		at := now()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_entries (playlist_id, track_id, position, added_at) VALUES (?, ?, ?, ?)`,
			playlistID, trackID, position, at,
		)
		if err != nil {
			return fmt.Errorf("failed to insert entry: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get entry id: %w", err)
		}

		if err := touchPlaylist(ctx, tx, playlistID, at); err != nil {
			return err
		}

		entry = &models.PlaylistEntry{ID: id, PlaylistID: playlistID, TrackID: trackID, Position: position, AddedAt: at}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// Contains reports whether trackID has at least one entry in the playlist.
func (r *PlaylistRepository) Contains(ctx context.Context, playlistID, trackID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM playlist_entries WHERE playlist_id = ? AND track_id = ?)`, playlistID, trackID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check playlist entry: %w", err)
	}
	return exists, nil
}

// Clear removes every entry of the playlist and returns how many there were.
func (r *PlaylistRepository) Clear(ctx context.Context, playlistID string) (int, error) {
	var removed int64

	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.get(ctx, tx, playlistID); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM playlist_entries WHERE playlist_id = ?`, playlistID)
		if err != nil {
			return fmt.Errorf("failed to clear playlist: %w", err)
		}
		if removed, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to get affected rows: %w", err)
		}
		return touchPlaylist(ctx, tx, playlistID, now())
	})

	return int(removed), err
}

// Shuffle puts the playlist's entries in a random order.
func (r *PlaylistRepository) Shuffle(ctx context.Context, playlistID string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := r.get(ctx, tx, playlistID); err != nil {
			return err
		}

		ids, err := entryIDs(ctx, tx, playlistID)
		if err != nil {
			return err
		}
		rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

		if err := writePositions(ctx, tx, ids); err != nil {
			return err
		}
		return touchPlaylist(ctx, tx, playlistID, now())
	})
}

// Duplicate copies a playlist and its entries into a new playlist called name.
// An empty name picks the first free "name (n)" after the original's name.
func (r *PlaylistRepository) Duplicate(ctx context.Context, playlistID, name string) (*models.Playlist, error) {
	original, err := r.get(ctx, r.db, playlistID)
	if err != nil {
		return nil, err
	}
	if name == "" {
		if name, err = r.UniqueName(ctx, original.Name()); err != nil {
			return nil, err
		}
	}

	copied := models.NewPlaylist(name, original.Description())
	if err := copied.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	err = withTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := r.insert(ctx, tx, copied); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_entries (playlist_id, track_id, position, added_at)
			SELECT ?, track_id, position, ? FROM playlist_entries WHERE playlist_id = ? ORDER BY position ASC`,
			copied.ID(), copied.CreatedAt(), playlistID,
		)
		if err != nil {
			return fmt.Errorf("failed to copy entries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return copied, nil
}

// Entries returns the playlist's entries in position order.
func (r *PlaylistRepository) Entries(ctx context.Context, playlistID string) ([]models.PlaylistEntry, error) {
	if _, err := r.get(ctx, r.db, playlistID); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, playlist_id, track_id, position, added_at FROM playlist_entries WHERE playlist_id = ? ORDER BY position ASC`,
		playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []models.PlaylistEntry{}
	for rows.Next() {
		var e models.PlaylistEntry
		if err := rows.Scan(&e.ID, &e.PlaylistID, &e.TrackID, &e.Position, &e.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e.AddedAt = e.AddedAt.UTC()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return entries, nil
}

// requireTrack fails with [shared.ErrNotFound] unless trackID is a live track.
func requireTrack(ctx context.Context, q querier, trackID string) error {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM tracks WHERE id = ? AND deleted_at IS NULL)`, trackID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check track: %w", err)
	}
	if !exists {
		return notFound("track", trackID)
	}
	return nil
}

func entryIDs(ctx context.Context, q querier, playlistID string) ([]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id FROM playlist_entries WHERE playlist_id = ? ORDER BY position ASC, id ASC`, playlistID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan entry id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// renumber rewrites positions to 0..k-1 keeping the current relative order.
func renumber(ctx context.Context, q querier, playlistID string) error {
	ids, err := entryIDs(ctx, q, playlistID)
	if err != nil {
		return err
	}
	return writePositions(ctx, q, ids)
}

func writePositions(ctx context.Context, q querier, ids []int64) error {
	for position, id := range ids {
		if _, err := q.ExecContext(ctx, `UPDATE playlist_entries SET position = ? WHERE id = ?`, position, id); err != nil {
			return fmt.Errorf("failed to renumber entry %d: %w", id, err)
		}
	}
	return nil
}

func touchPlaylist(ctx context.Context, q querier, playlistID string, at time.Time) error {
	if _, err := q.ExecContext(ctx, `UPDATE playlists SET updated_at = ? WHERE id = ?`, at, playlistID); err != nil {
		return fmt.Errorf("failed to touch playlist: %w", err)
	}
	return nil
}

// scanPlaylist scans a single row into a [models.Playlist]
func scanPlaylist(row scanner) (*models.Playlist, error) {
	var (
		id          string
		sequence    int
		name        string
		description string
		sourceURL   sql.NullString
		createdAt   time.Time
		updatedAt   time.Time
		deletedAt   sql.NullTime
	)

	err := row.Scan(&id, &sequence, &name, &description, &sourceURL, &createdAt, &updatedAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}

	playlist := models.NewPlaylist(name, description)
	playlist.SetID(id)
	playlist.SetSequence(sequence)
	playlist.SetSourceURL(sourceURL.String)
	playlist.SetCreatedAt(createdAt.UTC())
	playlist.SetUpdatedAt(updatedAt.UTC())
	playlist.SetDeletedAt(nullTime(deletedAt))

	return playlist, nil
}
