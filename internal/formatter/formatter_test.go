package formatter

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/shared"
	th "github.com/desertthunder/spear/internal/testing"
)

func fixtureExport() *PlaylistExport {
	playlist := models.NewPlaylist("Test Playlist", "A test playlist")
	playlist.SetID("pl1")

	one := models.NewTrack(models.TrackFields{Title: "Song One", Artist: "Artist One", Duration: 180})
	one.SetID("track1")
	one.SetSequence(1)
	one.SetSourceURL("https://www.youtube.com/watch?v=aaaaaaaaaaa")
	one.SetPath("/music/song-one.ogg")

	two := models.NewTrack(models.TrackFields{Title: "Song, Two", Duration: 240})
	two.SetID("track2")
	two.SetSequence(2)

	return &PlaylistExport{Playlist: playlist, Tracks: []*models.Track{one, two}}
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v\n%s", err, data)
	}
	return records
}

func TestExporters(t *testing.T) {
	export := fixtureExport()

	t.Run("TracksCSV", func(t *testing.T) {
		data, err := TracksCSV(export.Tracks)
		if err != nil {
			t.Fatalf("TracksCSV failed: %v", err)
		}

		records := parseCSV(t, data)
		if len(records) != 3 {
			t.Fatalf("expected header and 2 rows, got %d", len(records))
		}
		if got := strings.Join(records[0], ","); got != "id,sequence,title,artist,source_url,path,duration,added_at" {
			t.Errorf("CSV headers = %s", got)
		}
		if records[1][0] != "track1" || records[1][4] != "https://www.youtube.com/watch?v=aaaaaaaaaaa" {
			t.Errorf("unexpected first row: %v", records[1])
		}
		if records[2][2] != "Song, Two" {
			t.Errorf("comma in title not preserved: %v", records[2])
		}
		if records[1][6] != "180" {
			t.Errorf("duration = %s, want 180", records[1][6])
		}
	})

	t.Run("TimelineCSV", func(t *testing.T) {
		at := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
		events := []models.TimelineEvent{
			{ID: 1, TrackID: "track1", Outcome: models.PlaybackCompleted, OccurredAt: at},
			{ID: 2, TrackID: "track1", Outcome: models.PlaybackPartial, Elapsed: 95 * time.Second, OccurredAt: at},
		}

		data, err := TimelineCSV(events)
		if err != nil {
			t.Fatalf("TimelineCSV failed: %v", err)
		}

		records := parseCSV(t, data)
		if records[2][2] != "partial" || records[2][3] != "95000" {
			t.Errorf("unexpected row: %v", records[2])
		}
		if records[1][4] != "2025-01-02T15:04:05Z" {
			t.Errorf("occurred_at = %s", records[1][4])
		}
	})

	t.Run("EntriesCSV", func(t *testing.T) {
		entries := []models.PlaylistEntry{{ID: 7, PlaylistID: "pl1", TrackID: "track2", Position: 0}}

		data, err := EntriesCSV(entries)
		if err != nil {
			t.Fatalf("EntriesCSV failed: %v", err)
		}

		records := parseCSV(t, data)
		if got := strings.Join(records[1], ","); got != "7,pl1,track2,0," {
			t.Errorf("row = %s", got)
		}
	})

	t.Run("PlaylistsCSV with no rows", func(t *testing.T) {
		data, err := PlaylistsCSV(nil)
		if err != nil {
			t.Fatalf("PlaylistsCSV failed: %v", err)
		}
		if records := parseCSV(t, data); len(records) != 1 {
			t.Errorf("expected only the header, got %d records", len(records))
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(export)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Test Playlist",
			"**Description**: A test playlist",
			"**Tracks**: 2",
			"## Tracks",
			"1. Artist One - Song One [3:00]",
			"2. Song, Two [4:00]",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got: %s", want, output)
			}
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(export)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlist: Test Playlist") {
			t.Errorf("Text missing playlist name")
		}
		if !strings.Contains(output, "Tracks: 2") {
			t.Errorf("Text missing track count")
		}
		if !strings.Contains(output, "1. Artist One - Song One") {
			t.Errorf("Text missing track1")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(export)
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded struct {
			Name   string `json:"name"`
			Tracks []struct {
				ID     string `json:"id"`
				Artist string `json:"artist"`
			} `json:"tracks"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Name != "Test Playlist" || len(decoded.Tracks) != 2 {
			t.Errorf("decoded = %+v", decoded)
		}
		if strings.Contains(string(data), `"artist": ""`) {
			t.Error("empty artist should be omitted")
		}
	})

	t.Run("Render", func(t *testing.T) {
		tests := []struct {
			format string
			want   string
		}{
			{"md", "# Test Playlist"},
			{"markdown", "# Test Playlist"},
			{"txt", "Playlist: Test Playlist"},
			{"", "Playlist: Test Playlist"},
			{"json", `"name": "Test Playlist"`},
		}
		for _, tt := range tests {
			data, err := Render(export, tt.format)
			if err != nil {
				t.Fatalf("Render(%q) failed: %v", tt.format, err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("Render(%q) missing %q", tt.format, tt.want)
			}
		}

		if _, err := Render(export, "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("Render(xml) error = %v, want ErrInvalidArgument", err)
		}
	})
}

func TestWriteCSVExport(t *testing.T) {
	export := fixtureExport()
	at := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	snapshot := LibrarySnapshot{
		Tracks:    export.Tracks,
		Playlists: []*models.Playlist{export.Playlist},
		Entries: []models.PlaylistEntry{
			{ID: 1, PlaylistID: "pl1", TrackID: "track1", Position: 0},
			{ID: 2, PlaylistID: "pl1", TrackID: "track2", Position: 1},
		},
	}

	t.Run("WithCustomDirectory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "exports")

		result, err := WriteCSVExport(snapshot, dir, at)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}

		th.AssertDirExists(t, dir)
		if len(result.Files) != 4 {
			t.Fatalf("expected 4 files, got %d", len(result.Files))
		}
		for _, table := range []string{"tracks", "playlists", "playlist_entries", "timeline_events"} {
			want := filepath.Join(dir, table+"_20250102_150405.csv")
			if result.Files[table] != want {
				t.Errorf("%s file = %s, want %s", table, result.Files[table], want)
			}
			th.AssertFileExists(t, want)
		}

		content := th.MustReadFile(t, result.Files["playlist_entries"])
		if !strings.Contains(content, "pl1,track2,1") {
			t.Errorf("entries export missing row, got: %s", content)
		}
	})

	t.Run("WithDefaultDirectory", func(t *testing.T) {
		tmpDir := t.TempDir()
		origDir := th.MustGetwd(t)
		defer th.MustChdir(t, origDir)
		th.MustChdir(t, tmpDir)

		result, err := WriteCSVExport(LibrarySnapshot{}, "", at)
		if err != nil {
			t.Fatalf("WriteCSVExport failed: %v", err)
		}
		if result.Directory != "exports" {
			t.Errorf("Directory = %s, want exports", result.Directory)
		}
		th.AssertFileExists(t, filepath.Join(tmpDir, "exports", "timeline_events_20250102_150405.csv"))
	})
}
