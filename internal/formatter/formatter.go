// package formatter exports library data to CSV snapshots and renders playlists as Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/shared"
)

// TimestampLayout is appended to snapshot filenames: tracks_20250102_150405.csv
const TimestampLayout = "20060102_150405"

// PlaylistExport is a playlist with its tracks in playlist order.
type PlaylistExport struct {
	Playlist *models.Playlist
	Tracks   []*models.Track
}

// LibrarySnapshot holds the full contents of every table.
type LibrarySnapshot struct {
	Tracks    []*models.Track
	Playlists []*models.Playlist
	Entries   []models.PlaylistEntry
	Events    []models.TimelineEvent
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// TracksCSV converts tracks to CSV with columns: id, sequence, title, artist, source_url, path, duration, added_at
func TracksCSV(tracks []*models.Track) ([]byte, error) {
	headers := []string{"id", "sequence", "title", "artist", "source_url", "path", "duration", "added_at"}
	rows := make([][]string, 0, len(tracks))
	for _, t := range tracks {
		rows = append(rows, []string{
			t.ID(),
			strconv.Itoa(t.Sequence()),
			t.Title(),
			t.Artist(),
			t.SourceURL(),
			t.Path(),
			strconv.Itoa(t.Duration()),
			formatTime(t.AddedAt()),
		})
	}
	return writeCSV(headers, rows)
}

// PlaylistsCSV converts playlists to CSV with columns: id, sequence, name, description, created_at, updated_at
func PlaylistsCSV(playlists []*models.Playlist) ([]byte, error) {
	headers := []string{"id", "sequence", "name", "description", "created_at", "updated_at"}
	rows := make([][]string, 0, len(playlists))
	for _, p := range playlists {
		rows = append(rows, []string{
			p.ID(),
			strconv.Itoa(p.Sequence()),
			p.Name(),
			p.Description(),
			formatTime(p.CreatedAt()),
			formatTime(p.UpdatedAt()),
		})
	}
	return writeCSV(headers, rows)
}

// EntriesCSV converts playlist entries to CSV with columns: id, playlist_id, track_id, position, added_at
func EntriesCSV(entries []models.PlaylistEntry) ([]byte, error) {
	headers := []string{"id", "playlist_id", "track_id", "position", "added_at"}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.PlaylistID,
			e.TrackID,
			strconv.Itoa(e.Position),
			formatTime(e.AddedAt),
		})
	}
	return writeCSV(headers, rows)
}

// TimelineCSV converts timeline events to CSV with columns: id, track_id, outcome, elapsed_ms, occurred_at
func TimelineCSV(events []models.TimelineEvent) ([]byte, error) {
	headers := []string{"id", "track_id", "outcome", "elapsed_ms", "occurred_at"}
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.TrackID,
			string(e.Outcome),
			strconv.FormatInt(e.Elapsed.Milliseconds(), 10),
			formatTime(e.OccurredAt),
		})
	}
	return writeCSV(headers, rows)
}

// CSVExportResult contains the paths of files created by WriteCSVExport, keyed by table name
type CSVExportResult struct {
	Directory string
	Files     map[string]string
}

// WriteCSVExport writes one CSV file per table into dir.
//
// Files are named {table}_{timestamp}.csv using at, so repeated exports never overwrite each other.
func WriteCSVExport(snapshot LibrarySnapshot, dir string, at time.Time) (*CSVExportResult, error) {
	if dir == "" {
		dir = "exports"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}

	tables := []struct {
		name   string
		render func() ([]byte, error)
	}{
		{"tracks", func() ([]byte, error) { return TracksCSV(snapshot.Tracks) }},
		{"playlists", func() ([]byte, error) { return PlaylistsCSV(snapshot.Playlists) }},
		{"playlist_entries", func() ([]byte, error) { return EntriesCSV(snapshot.Entries) }},
		{"timeline_events", func() ([]byte, error) { return TimelineCSV(snapshot.Events) }},
	}

	stamp := at.UTC().Format(TimestampLayout)
	result := &CSVExportResult{Directory: dir, Files: make(map[string]string, len(tables))}
	for _, table := range tables {
		data, err := table.render()
		if err != nil {
			return nil, fmt.Errorf("failed to generate %s CSV: %w", table.name, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", table.name, stamp))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write CSV file: %w", err)
		}
		result.Files[table.name] = path
	}
	return result, nil
}

// ExportToMarkdown renders a playlist as a numbered Markdown list
func ExportToMarkdown(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Playlist.Name()))
	if export.Playlist.Description() != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", export.Playlist.Description()))
	}
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n\n", len(export.Tracks)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, track.Label(), shared.FormatDuration(track.Duration())))
	}

	return buf.Bytes(), nil
}

// ExportToText renders a playlist as plain text
func ExportToText(export *PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name()))
	if export.Playlist.Description() != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", export.Playlist.Description()))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, track.Label()))
	}

	return buf.Bytes(), nil
}

type jsonTrack struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Artist    string `json:"artist,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
	Path      string `json:"path,omitempty"`
	Duration  int    `json:"duration"`
}

type jsonPlaylist struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	CreatedAt   string      `json:"created_at"`
	Tracks      []jsonTrack `json:"tracks"`
}

// ExportToJSON renders a playlist and its tracks as indented JSON
func ExportToJSON(export *PlaylistExport) ([]byte, error) {
	out := jsonPlaylist{
		ID:          export.Playlist.ID(),
		Name:        export.Playlist.Name(),
		Description: export.Playlist.Description(),
		CreatedAt:   formatTime(export.Playlist.CreatedAt()),
		Tracks:      make([]jsonTrack, 0, len(export.Tracks)),
	}
	for _, t := range export.Tracks {
		out.Tracks = append(out.Tracks, jsonTrack{
			ID:        t.ID(),
			Title:     t.Title(),
			Artist:    t.Artist(),
			SourceURL: t.SourceURL(),
			Path:      t.Path(),
			Duration:  t.Duration(),
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal playlist: %w", err)
	}
	return data, nil
}

// Render dispatches on format: markdown (md), txt (text) or json
func Render(export *PlaylistExport, format string) ([]byte, error) {
	switch format {
	case "markdown", "md":
		return ExportToMarkdown(export)
	case "txt", "text", "":
		return ExportToText(export)
	case "json":
		return ExportToJSON(export)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}
