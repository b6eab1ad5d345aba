package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/spear/internal/matcher"
	"github.com/desertthunder/spear/internal/shared"
)

var _ list.Item = candidateItem{}

// candidateItem wraps [matcher.Candidate] to implement [list.Item].
type candidateItem struct {
	candidate matcher.Candidate
}

func (i candidateItem) FilterValue() string { return i.candidate.Track.Label() }
func (i candidateItem) Title() string       { return i.candidate.Track.Title() }
func (i candidateItem) Description() string {
	track := i.candidate.Track
	desc := fmt.Sprintf("%3.0f%% • %s", i.candidate.Score*100, shared.FormatDuration(track.Duration()))
	if track.Artist() != "" {
		desc = fmt.Sprintf("%s • %s", desc, track.Artist())
	}
	return desc
}
