package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/Slouths/TimeTracker-sub001/internal/idle"
	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
	"github.com/Slouths/TimeTracker-sub001/internal/timer"
)

// DefaultCommitTimeout bounds a single save attempt.
const DefaultCommitTimeout = 10 * time.Second

type mode int

const (
	modeTracking mode = iota
	modeNotes
	modeIdle
	modeCommitFailed
	modeDone
	modeCancelled
)

// TimerOptions describes a started session and how its entry is saved.
type TimerOptions struct {
	Session       *timer.Session
	Detector      *idle.Detector
	Committer     timer.Committer
	ClientName    string
	ProjectName   string
	Currency      string
	Rate          decimal.Decimal
	Increment     int
	CommitTimeout time.Duration
}

// TimerResult is what the timer screen ended with.
type TimerResult struct {
	EntryID   string
	Draft     timer.Draft
	Committed bool
	Cancelled bool
	Discarded bool
	// LastErr is the last save failure, set when a draft was discarded.
	LastErr error
}

// TimerModel hosts a running timer.Session.
type TimerModel struct {
	width  int
	height int

	opts   TimerOptions
	events <-chan idle.Event
	keys   keyMap
	help   help.Model
	notes  textinput.Model

	mode    mode
	lastErr error
	result  TimerResult

	// resumeNotes is set when the idle dialog interrupted notes editing.
	resumeNotes bool
}

// timerTickMsg is sent every second to refresh the clock
type timerTickMsg struct{}

// idleMsg carries an idle transition from the detector loop.
type idleMsg struct {
	event idle.Event
}

// idleClosedMsg means the detector stopped and closed its channel.
type idleClosedMsg struct{}

// NewTimerModel creates the timer screen for a session that is already
// started.
func NewTimerModel(opts TimerOptions) TimerModel {
	if opts.CommitTimeout <= 0 {
		opts.CommitTimeout = DefaultCommitTimeout
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}

	notes := textinput.New()
	notes.Placeholder = "What are you working on?"
	notes.CharLimit = 500
	notes.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain))
	notes.SetValue(opts.Session.Notes())

	h := help.New()
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText))
	h.Styles.ShortSeparator = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText))

	m := TimerModel{
		opts:  opts,
		keys:  defaultKeyMap(),
		help:  h,
		notes: notes,
	}
	if opts.Detector != nil {
		m.events = opts.Detector.Subscribe(1)
	}
	return m
}

func (m TimerModel) Init() tea.Cmd {
	return tea.Batch(tick(), m.waitForIdle())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return timerTickMsg{}
	})
}

func (m TimerModel) waitForIdle() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return idleClosedMsg{}
		}
		return idleMsg{event: event}
	}
}

// Result returns how the screen ended.
func (m TimerModel) Result() TimerResult {
	return m.result
}

func (m TimerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case timerTickMsg:
		switch m.opts.Session.State() {
		case timer.StateRunning, timer.StatePaused:
			return m, tick()
		}
		return m, nil

	case idleMsg:
		// Activity since the event was queued has already cleared it.
		if m.opts.Detector != nil && !m.opts.Detector.IsIdle() {
			return m, m.waitForIdle()
		}
		if m.opts.Session.OnIdleDetected(msg.event.IdleFor) && m.mode != modeIdle {
			if m.mode == modeNotes {
				m.notes.Blur()
				m.resumeNotes = true
			}
			m.mode = modeIdle
		}
		return m, m.waitForIdle()

	case idleClosedMsg:
		m.events = nil
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeTracking:
			return m.updateTracking(msg)
		case modeNotes:
			return m.updateNotes(msg)
		case modeIdle:
			return m.updateIdle(msg)
		case modeCommitFailed:
			return m.updateCommitFailed(msg)
		}
	}
	return m, nil
}

func (m TimerModel) updateTracking(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	session := m.opts.Session
	session.RecordActivity()

	switch {
	case key.Matches(msg, m.keys.Cancel):
		if err := session.Cancel(); err != nil {
			m.lastErr = err
			return m, nil
		}
		m.mode = modeCancelled
		m.result.Cancelled = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Pause):
		var err error
		if session.State() == timer.StatePaused {
			err = session.Resume()
		} else {
			err = session.Pause()
		}
		m.lastErr = err
		return m, nil

	case key.Matches(msg, m.keys.Notes):
		m.mode = modeNotes
		m.notes.SetValue(session.Notes())
		m.notes.CursorEnd()
		return m, m.notes.Focus()

	case key.Matches(msg, m.keys.Stop):
		if _, err := session.Stop(m.opts.Increment, m.opts.Rate); err != nil {
			m.lastErr = err
			return m, nil
		}
		return m.commit()
	}
	return m, nil
}

func (m TimerModel) updateNotes(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.opts.Session.RecordActivity()

	switch {
	case key.Matches(msg, m.keys.Save):
		m.lastErr = m.opts.Session.SetNotes(strings.TrimSpace(m.notes.Value()))
		m.notes.Blur()
		m.mode = modeTracking
		return m, nil
	case key.Matches(msg, m.keys.Abort):
		m.notes.Blur()
		m.mode = modeTracking
		return m, nil
	}

	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	return m, cmd
}

// updateIdle resolves the idle dialog. The idle window runs from the last
// activity up to this key press, so it is read before activity is recorded.
func (m TimerModel) updateIdle(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	session := m.opts.Session
	idleTime, _ := session.IdlePending()
	if m.opts.Detector != nil {
		idleTime = m.opts.Detector.SinceLastActivity()
	}

	var decision timer.Decision
	switch {
	case key.Matches(msg, m.keys.KeepAll):
		decision = timer.KeepAllTime
	case key.Matches(msg, m.keys.RemoveIdle):
		decision = timer.RemoveIdleTime
	case key.Matches(msg, m.keys.StopIdle):
		decision = timer.StopAndRemoveIdleTime
	case key.Matches(msg, m.keys.Cancel):
		if err := session.Cancel(); err != nil {
			m.lastErr = err
			return m, nil
		}
		m.mode = modeCancelled
		m.result.Cancelled = true
		return m, tea.Quit
	default:
		return m, nil
	}

	if m.resumeNotes && decision == timer.StopAndRemoveIdleTime {
		if err := session.SetNotes(strings.TrimSpace(m.notes.Value())); err != nil {
			m.lastErr = err
			return m, nil
		}
	}

	draft, err := session.Resolve(decision, idleTime, m.opts.Increment, m.opts.Rate)
	if err != nil {
		m.lastErr = err
		return m, nil
	}
	m.lastErr = nil
	if draft != nil {
		m.resumeNotes = false
		return m.commit()
	}
	if m.resumeNotes {
		m.resumeNotes = false
		m.mode = modeNotes
		return m, m.notes.Focus()
	}
	m.mode = modeTracking
	return m, nil
}

func (m TimerModel) updateCommitFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Retry) && m.canRetry():
		return m.commit()
	case key.Matches(msg, m.keys.Discard):
		draft, _ := m.opts.Session.Draft()
		if err := m.opts.Session.Discard(); err != nil {
			m.lastErr = err
			return m, nil
		}
		m.result.Draft = draft
		m.result.Discarded = true
		m.result.LastErr = m.lastErr
		m.mode = modeCancelled
		return m, tea.Quit
	}
	return m, nil
}

// commit saves the stopped session's draft. It runs inside Update so the
// session is only ever touched from the program loop.
func (m TimerModel) commit() (tea.Model, tea.Cmd) {
	draft, _ := m.opts.Session.Draft()

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.CommitTimeout)
	defer cancel()

	id, err := m.opts.Session.Commit(ctx, m.opts.Committer)
	if err != nil {
		m.lastErr = err
		m.mode = modeCommitFailed
		return m, nil
	}

	m.lastErr = nil
	m.mode = modeDone
	m.result = TimerResult{EntryID: id, Draft: draft, Committed: true}
	return m, tea.Quit
}

func (m TimerModel) canRetry() bool {
	var perr *timer.PersistError
	if errors.As(m.lastErr, &perr) {
		return perr.Retryable()
	}
	return true
}

func (m TimerModel) View() string {
	width := m.width
	if width == 0 {
		width = 80
	}

	var sections []string
	sections = append(sections, m.renderHeader(width))

	switch m.mode {
	case modeIdle:
		sections = append(sections, m.renderIdleDialog(width))
	case modeCommitFailed:
		sections = append(sections, m.renderCommitFailed(width))
	default:
		sections = append(sections, m.renderClock(width))
	}

	if m.mode == modeNotes {
		sections = append(sections, center(width).Render(m.notes.View()))
	} else if notes := m.opts.Session.Notes(); notes != "" {
		sections = append(sections, center(width).
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Italic(true).
			Render(notes))
	}

	if m.lastErr != nil && m.mode != modeCommitFailed {
		sections = append(sections, center(width).
			Foreground(lipgloss.Color(ColorError)).
			Render(m.lastErr.Error()))
	}

	content := strings.Join(sections, "\n\n")
	helpBar := center(width).Render(m.help.View(m.activeBindings()))

	if m.height == 0 {
		return content + "\n\n" + helpBar
	}
	body := lipgloss.NewStyle().
		Width(width).
		Height(m.height-2).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, body, helpBar)
}

func center(width int) lipgloss.Style {
	return lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
}

func (m TimerModel) renderHeader(width int) string {
	label := "TRACKING"
	color := ColorAccentBright
	switch {
	case m.mode == modeIdle:
		label, color = "IDLE", ColorWarning
	case m.mode == modeCommitFailed:
		label, color = "NOT SAVED", ColorError
	case m.mode == modeDone:
		label, color = "SAVED", ColorSuccess
	case m.opts.Session.State() == timer.StatePaused:
		label, color = "PAUSED", ColorWarning
	}

	header := center(width).
		Foreground(lipgloss.Color(color)).
		Bold(true).
		Render("⏱  " + label)

	target := m.opts.ClientName
	if m.opts.ProjectName != "" {
		target += " / " + m.opts.ProjectName
	}
	client := center(width).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Bold(true).
		Render(target)

	return header + "\n" + client
}

func (m TimerModel) renderClock(width int) string {
	session := m.opts.Session
	color := ColorAccentBright
	if session.State() == timer.StatePaused {
		color = ColorWarning
	}

	var lines []string
	for _, line := range strings.Split(renderBigClock(session.Elapsed(), color), "\n") {
		lines = append(lines, center(width).Render(line))
	}

	minutes := timecalc.RoundDuration(int(session.Elapsed()/time.Minute), m.opts.Increment)
	amount := timecalc.RoundCurrency(timecalc.ComputeAmount(minutes, m.opts.Rate))
	info := fmt.Sprintf("Started %s · %s %s/h · billable %s = %s %s",
		session.StartedAt().Format("15:04"),
		m.opts.Rate.StringFixed(2), m.opts.Currency,
		timecalc.FormatMinutes(minutes),
		amount.StringFixed(2), m.opts.Currency)
	lines = append(lines, "", center(width).
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Render(info))

	return strings.Join(lines, "\n")
}

func (m TimerModel) renderIdleDialog(width int) string {
	idleFor, _ := m.opts.Session.IdlePending()
	if m.opts.Detector != nil {
		idleFor = m.opts.Detector.SinceLastActivity()
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorWarning)).
		Padding(1, 3).
		Align(lipgloss.Center)

	text := fmt.Sprintf("You have been idle for %s.\n\nTracked so far: %s\n\nWhat should happen to the idle time?",
		timecalc.FormatDuration(idleFor),
		timecalc.FormatDuration(m.opts.Session.Elapsed()))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box.Render(text))
}

func (m TimerModel) renderCommitFailed(width int) string {
	draft, _ := m.opts.Session.Draft()

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorError)).
		Padding(1, 3).
		Align(lipgloss.Center)

	reason := "The entry could not be saved."
	var perr *timer.PersistError
	if errors.As(m.lastErr, &perr) {
		switch perr.Kind {
		case timer.PersistUnauthorized:
			reason = "You are not allowed to save time for this client."
		case timer.PersistRejected:
			reason = "The client or project no longer exists."
		}
	}
	text := fmt.Sprintf("%s\n%s\n\n%s · %s %s",
		reason,
		lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Render(m.lastErr.Error()),
		timecalc.FormatMinutes(draft.DurationMinutes),
		draft.Amount.StringFixed(2), m.opts.Currency)
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, box.Render(text))
}

func (m TimerModel) activeBindings() bindings {
	switch m.mode {
	case modeNotes:
		return bindings{m.keys.Save, m.keys.Abort}
	case modeIdle:
		return bindings{m.keys.KeepAll, m.keys.RemoveIdle, m.keys.StopIdle}
	case modeCommitFailed:
		if m.canRetry() {
			return bindings{m.keys.Retry, m.keys.Discard}
		}
		return bindings{m.keys.Discard}
	}
	return bindings{m.keys.Pause, m.keys.Notes, m.keys.Stop, m.keys.Cancel}
}

// RunTimerTUI runs the timer screen until the entry is saved, discarded or
// the session is cancelled.
func RunTimerTUI(opts TimerOptions) (TimerResult, error) {
	p := tea.NewProgram(NewTimerModel(opts), tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return TimerResult{}, err
	}
	return finalModel.(TimerModel).Result(), nil
}
