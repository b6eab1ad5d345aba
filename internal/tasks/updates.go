package tasks

import (
	"fmt"

	"github.com/desertthunder/spear/internal/models"
	"github.com/desertthunder/spear/internal/services"
)

// ProgressUpdate represents a progress event during a sync.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	PhaseResolve Phase = iota
	PhaseFetch
	PhasePersist
	PhaseImport
)

func (p Phase) String() string {
	switch p {
	case PhaseResolve:
		return "resolve"
	case PhaseFetch:
		return "fetch"
	case PhasePersist:
		return "persist"
	case PhaseImport:
		return "import"
	default:
		return ""
	}
}

func resolvingUpdate(input string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseResolve,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving %q...", input),
	}
}

func candidatesUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseResolve,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("%d candidate(s) found", count),
	}
}

func fetchingUpdate(url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetch,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %s...", url),
	}
}

func alreadyPresentUpdate(track *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseFetch,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Already in library: %s", track.Label()),
		Data:    track,
	}
}

func persistingUpdate(step, total int, what string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhasePersist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, what),
	}
}

func importListedUpdate(remote *services.RemotePlaylist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseImport,
		Step:    0,
		Total:   len(remote.Entries),
		Message: fmt.Sprintf("Found playlist: %s (%d tracks)", remote.Title, len(remote.Entries)),
		Data:    remote,
	}
}

func importEntryUpdate(step, total int, entry services.RemoteEntry) ProgressUpdate {
	title := entry.Title
	if title == "" {
		title = entry.URL
	}
	return ProgressUpdate{
		Phase:   PhaseImport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
	}
}

func importEntryDoneUpdate(step, total int, res *Result) ProgressUpdate {
	mark := "✓"
	if res.State != StateDone {
		mark = "✗"
	}
	return ProgressUpdate{
		Phase:   PhaseImport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s", step, total, mark, res.Summary()),
		Data:    res,
	}
}
