// Package models defines the library entities shared by the matcher, the stores and the sync engine.
//
// The package contains two categories of types:
//
// 1. Persistent Entities: database-backed models with full lifecycle management
//   - [Track] : song metadata, the only entity allowed to mint track IDs is the track store
//   - [Playlist] : named, ordered collection of track references
//
// 2. Records and transient values
//   - [PlaylistEntry] : one position in a playlist, referencing a track by ID
//   - [TimelineEvent] : an append-only playback record
//   - [DownloadOutcome] : the closed set of results of a download attempt
//   - [PlaybackOutcome] : how a play ended, recorded into the timeline
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
