package ui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/sortify/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ProgressView ViewState = iota
	ConfirmView
	ResultView
)

// maxLogLines is how many progress messages stay on screen.
const maxLogLines = 12

// SessionFunc runs one organize session against the given reporter and prompter.
type SessionFunc func(ctx context.Context, reporter tasks.Reporter, prompter tasks.Prompter) (*tasks.SessionResult, error)

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	cancel   context.CancelFunc
	run      SessionFunc
	view     ViewState
	events   chan tea.Msg
	answers  chan bool
	finished chan struct{}
	started  atomic.Bool
	outcome  sessionOutcome
	width    int
	height   int
	progress tasks.ProgressUpdate
	lines    []string
	question string
	result   *tasks.SessionResult
	err      error
	results  list.Model
	help     help.Model
	keys     keyMap
}

// NewModel creates a TUI model that runs run in the background once started.
func NewModel(ctx context.Context, run SessionFunc) *Model {
	ctx, cancel := context.WithCancel(ctx)
	return &Model{
		ctx:      ctx,
		cancel:   cancel,
		run:      run,
		view:     ProgressView,
		events:   make(chan tea.Msg),
		answers:  make(chan bool, 1),
		finished: make(chan struct{}),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts the session and begins listening for its events.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.startSession(), m.waitForEvent())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == ResultView {
			m.results.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.cancel()
			return m, tea.Quit
		}
		switch m.view {
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}
		return m, nil

	case Msg:
		switch msg.kind {
		case MsgProgressUpdate:
			update := msg.data.(tasks.ProgressUpdate)
			m.progress = update
			m.appendLine(update.Message)
			return m, m.waitForEvent()

		case MsgConfirmRequest:
			m.question = msg.data.(string)
			m.view = ConfirmView
			return m, m.waitForEvent()

		case MsgSessionDone:
			outcome := msg.data.(sessionOutcome)
			m.result = outcome.result
			m.err = outcome.err
			m.question = ""
			m.view = ResultView
			m.results = list.New(assignmentItems(outcome.result), list.NewDefaultDelegate(), 0, 0)
			m.results.Title = "Genre Assignments"
			m.results.SetFilteringEnabled(false)
			m.results.SetShowHelp(false)
			m.results.SetSize(m.width-4, m.height-8)
			return m, nil
		}
	}

	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case ConfirmView:
		return m.renderConfirm()
	case ResultView:
		return m.renderResult()
	default:
		return m.renderProgress()
	}
}

// Result returns the session outcome once the session has ended.
func (m *Model) Result() (*tasks.SessionResult, error) {
	return m.result, m.err
}

// Confirm implements [tasks.Prompter] by handing the question to the UI and waiting for a key press.
func (m *Model) Confirm(ctx context.Context, question string) (bool, error) {
	if !m.emit(confirmRequestMsg(question)) {
		return false, m.ctx.Err()
	}

	select {
	case answer := <-m.answers:
		return answer, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-m.ctx.Done():
		return false, m.ctx.Err()
	}
}

// Report implements [tasks.Reporter].
func (m *Model) Report(update tasks.ProgressUpdate) {
	m.emit(progressUpdateMsg(update))
}

// emit delivers msg to the UI loop unless the UI has quit.
func (m *Model) emit(msg tea.Msg) bool {
	select {
	case m.events <- msg:
		return true
	case <-m.ctx.Done():
		return false
	}
}

func (m *Model) startSession() tea.Cmd {
	return func() tea.Msg {
		m.started.Store(true)
		result, err := m.run(m.ctx, m, m)
		m.outcome = sessionOutcome{result, err}
		close(m.finished)
		m.emit(sessionDoneMsg(result, err))
		return nil
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		m.answer(true)
	case key.Matches(msg, m.keys.no):
		m.answer(false)
	}
	return m, nil
}

func (m *Model) answer(yes bool) {
	m.answers <- yes
	m.question = ""
	m.view = ProgressView
}

func (m *Model) appendLine(line string) {
	if line == "" {
		return
	}
	m.lines = append(m.lines, line)
	if len(m.lines) > maxLogLines {
		m.lines = m.lines[len(m.lines)-maxLogLines:]
	}
}

func (m *Model) renderProgress() string {
	title := styles.Title("sortify")
	var phase string
	switch m.progress.Phase {
	case tasks.Fetching:
		phase = "Fetching saved tracks..."
	case tasks.Classifying:
		phase = fmt.Sprintf("Classifying (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Filing:
		phase = fmt.Sprintf("Filing (%d/%d)", m.progress.Step, m.progress.Total)
	default:
		phase = "Processing..."
	}
	if m.progress.Batch > 0 {
		phase = fmt.Sprintf("Batch %d • %s", m.progress.Batch, phase)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.quit})
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, phase, strings.Join(m.lines, "\n"), helpView)
}

func (m *Model) renderConfirm() string {
	title := styles.Title("sortify")
	helpView := m.help.ShortHelpView(m.keys.confirmHelp())
	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", title, strings.Join(m.lines, "\n"), styles.OK(m.question), helpView)
}

func (m *Model) renderResult() string {
	var header string
	switch {
	case m.err != nil:
		header = styles.Err(fmt.Sprintf("Session stopped: %v", m.err))
	case m.result != nil:
		header = styles.OK(fmt.Sprintf("✓ Organized %d tracks in %d batches", m.result.Tracks, m.result.Batches))
	default:
		header = styles.Warn("No result available")
	}

	var created string
	if m.result != nil && len(m.result.Created) > 0 {
		names := make([]string, len(m.result.Created))
		for i, p := range m.result.Created {
			names[i] = p.Name
		}
		created = "\n" + styles.Help("Created playlists: "+strings.Join(names, ", "))
	}

	helpView := m.help.ShortHelpView(m.keys.resultHelp())
	return fmt.Sprintf("%s%s\n\n%s\n\n%s", header, created, m.results.View(), helpView)
}

// RunSession runs run inside a full-screen bubbletea program and returns its outcome after the UI exits.
//
// Quitting the UI cancels the session; whatever it completed is still returned.
func RunSession(ctx context.Context, run SessionFunc, opts ...tea.ProgramOption) (*tasks.SessionResult, error) {
	m := NewModel(ctx, run)
	defer m.cancel()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, uiErr := tea.NewProgram(m, opts...).Run()

	m.cancel()
	if !m.started.Load() {
		if uiErr != nil {
			return nil, fmt.Errorf("terminal UI failed: %w", uiErr)
		}
		return nil, fmt.Errorf("session interrupted: %w", context.Canceled)
	}

	<-m.finished
	return m.outcome.result, m.outcome.err
}
