// Package repositories implements SQLite persistence for the library.
//
// Each repository takes an explicitly passed [sql.DB]; there is no package-level connection.
// Every mutating operation runs in a single transaction so an interrupted process leaves the
// previous or the next state, never a half-applied one.
//
// Key Implementations:
//   - [TrackRepository] : song metadata, identity and dedup authority; the only place track IDs are minted
//   - [PlaylistRepository] : playlists and their gap-free ordered entries
//   - [TimelineRepository] : append-only playback log and listen aggregates
//
// Tracks and playlists support soft deletes via deleted_at timestamps and exclude deleted records from queries by default.
// Sequence numbers provide stable insertion ordering independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
//
// Errors wrap [shared.ErrNotFound] for unknown IDs and [shared.ErrConflict] when a direct insert or update
// would break a uniqueness rule.
package repositories
