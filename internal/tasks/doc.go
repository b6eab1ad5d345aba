// Package tasks orchestrates library synchronization with real-time progress reporting.
//
// # Core Operations
//
// [SyncEngine] exposes two operations:
//
//  1. [SyncEngine.Sync] : resolve one input to a track and apply the requested updates
//     - a YouTube URL is fetched, unless a live track already owns it and its file exists
//     - free text is ranked against the library; a single confident match proceeds
//     - the resolved track is appended to a playlist and/or recorded in the timeline
//
//  2. [SyncEngine.SyncPlaylist] : import a remote playlist
//     - lists the playlist, creates a local playlist under a free name
//     - runs Sync for every entry, appending to the new playlist
//
// # States
//
// A sync moves through Resolving, Fetching and Persisting and ends in Done, Failed or
// NeedsToolUpdate. Stopping in Resolving is not a failure: the caller is expected to pick
// one of [Result.Candidates] and call Sync again with [Request.TrackID] set.
//
// Only NeedsToolUpdate is returned as an error, wrapping [shared.ErrToolOutdated], so it can
// reach the process boundary unchanged. Everything else is data on the [Result].
//
// A track that was upserted stays in the library even if a later playlist or timeline write
// fails; the result then carries a [PartialFailure] naming the failed sub-update.
//
// # Progress Reporting
//
// Operations accept an optional channel for progress updates. Updates use select with default
// to prevent blocking.
package tasks
