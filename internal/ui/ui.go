package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/spear/internal/matcher"
	"github.com/desertthunder/spear/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PickView ViewState = iota
	SyncView
	ResultView
)

// Syncer runs a sync request; implemented by [tasks.SyncEngine].
type Syncer interface {
	Sync(ctx context.Context, req tasks.Request, progress chan<- tasks.ProgressUpdate) (*tasks.Result, error)
}

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	engine       Syncer
	request      tasks.Request
	width        int
	height       int
	candidates   list.Model
	chosen       *matcher.Candidate
	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.Result
	err          error
	help         help.Model
	keys         keyMap
}

// NewModel creates a picker over candidates. Choosing one re-runs req with the chosen track ID.
func NewModel(ctx context.Context, engine Syncer, req tasks.Request, candidates []matcher.Candidate) *Model {
	items := make([]list.Item, len(candidates))
	for i, c := range candidates {
		items[i] = candidateItem{candidate: c}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("Matches for %q", req.Input)

	return &Model{
		ctx:        ctx,
		view:       PickView,
		engine:     engine,
		request:    req,
		candidates: l,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Chosen returns the selected candidate, or nil if the user cancelled.
func (m *Model) Chosen() *matcher.Candidate { return m.chosen }

// Result returns the sync result for the chosen track and the error Sync returned.
func (m *Model) Result() (*tasks.Result, error) { return m.result, m.err }

// View state accessor
func (m *Model) State() ViewState { return m.view }

// Init implements [tea.Model].
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.candidates.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PickView:
			return m.handlePickKeys(msg)
		case ResultView:
			if key.Matches(msg, m.keys.quit, m.keys.back, m.keys.enter) {
				return m, tea.Quit
			}
		}
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			m.progress = msg.data.(tasks.ProgressUpdate)
			return m, m.waitForProgress()
		case MsgSyncComplete:
			done := msg.data.(syncComplete)
			m.result = done.result
			m.err = done.err
			m.progressChan = nil
			m.view = ResultView
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.candidates, cmd = m.candidates.Update(msg)
	return m, cmd
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PickView:
		return fmt.Sprintf("%s\n\n%s", m.candidates.View(), m.help.View(m.keys))
	case SyncView:
		return m.renderSync()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.candidates.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.candidates, cmd = m.candidates.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		item, ok := m.candidates.SelectedItem().(candidateItem)
		if !ok {
			return m, nil
		}
		m.chosen = &item.candidate
		m.view = SyncView
		return m, m.startSync()
	}

	var cmd tea.Cmd
	m.candidates, cmd = m.candidates.Update(msg)
	return m, cmd
}

func (m *Model) startSync() tea.Cmd {
	req := m.request
	req.TrackID = m.chosen.Track.ID()
	m.progressChan = make(chan tasks.ProgressUpdate, 16)
	m.done = make(chan Msg, 1)

	go func(progress chan tasks.ProgressUpdate, done chan<- Msg) {
		result, err := m.engine.Sync(m.ctx, req, progress)
		close(progress)
		done <- syncCompleteMsg(result, err)
	}(m.progressChan, m.done)

	return m.waitForProgress()
}

// waitForProgress relays one progress update, or the completion once the channel is closed.
func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) renderSync() string {
	title := styles.title.Render(fmt.Sprintf("Syncing %s", m.chosen.Track.Label()))
	return fmt.Sprintf("%s\n\n%s %s", title, m.progress.Phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress q to quit", m.err))
	}
	if m.result == nil {
		return styles.err.Render("No result available\n\nPress q to quit")
	}
	if m.result.State != tasks.StateDone {
		return styles.warn.Render(fmt.Sprintf("%s: %s\n\nPress q to quit", m.result.State, m.result.Reason()))
	}
	return styles.ok.Render(fmt.Sprintf("✓ %s\n\nPress q to quit", m.result.Summary()))
}
