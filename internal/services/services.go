package services

import (
	"context"

	"github.com/desertthunder/spear/internal/models"
)

// Downloader fetches media from a supported source.
type Downloader interface {
	// Fetch downloads the audio of a single video URL into the library directory.
	Fetch(ctx context.Context, url string) models.DownloadOutcome

	// FetchPlaylist lists a remote playlist without downloading anything.
	// On success the outcome kind is [models.DownloadFetched].
	FetchPlaylist(ctx context.Context, url string) (*RemotePlaylist, models.DownloadOutcome)
}

// RemotePlaylist is a playlist as listed by the source site.
type RemotePlaylist struct {
	ID      string
	Title   string
	URL     string
	Entries []RemoteEntry
}

// RemoteEntry is one video of a [RemotePlaylist].
type RemoteEntry struct {
	VideoID string
	Title   string
	URL     string // canonical watch URL
}
