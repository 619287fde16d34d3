package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Slouths/TimeTracker-sub001/internal/clock"
	"github.com/Slouths/TimeTracker-sub001/internal/idle"
	"github.com/Slouths/TimeTracker-sub001/internal/timer"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeCommitter struct {
	errs   []error
	drafts []timer.Draft
}

func (c *fakeCommitter) Commit(_ context.Context, draft timer.Draft) (string, error) {
	c.drafts = append(c.drafts, draft)
	if len(c.errs) > 0 {
		err := c.errs[0]
		c.errs = c.errs[1:]
		return "", err
	}
	return "entry-1", nil
}

type fixture struct {
	clock     *clock.Fake
	detector  *idle.Detector
	session   *timer.Session
	committer *fakeCommitter
	model     TimerModel
}

func newFixture(t *testing.T, errs ...error) *fixture {
	t.Helper()
	fake := clock.NewFake(t0)
	// The background loop never fires within a test; idle is raised by hand.
	detector := idle.New(5*time.Minute, idle.WithClock(fake), idle.WithCheckInterval(time.Hour))
	session := timer.NewSession(timer.WithClock(fake), timer.WithDetector(detector))
	require.NoError(t, session.Start("client-1", ""))
	t.Cleanup(detector.Stop)

	committer := &fakeCommitter{errs: errs}
	model := NewTimerModel(TimerOptions{
		Session:    session,
		Detector:   detector,
		Committer:  committer,
		ClientName: "Acme",
		Rate:       decimal.NewFromInt(60),
		Increment:  15,
	})
	return &fixture{clock: fake, detector: detector, session: session, committer: committer, model: model}
}

func (f *fixture) press(t *testing.T, keys string) tea.Cmd {
	t.Helper()
	var msg tea.KeyMsg
	switch keys {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	}
	return f.send(t, msg)
}

func (f *fixture) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := f.model.Update(msg)
	model, ok := next.(TimerModel)
	require.True(t, ok)
	f.model = model
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestStopCommitsAndQuits(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(50 * time.Minute)

	cmd := f.press(t, "s")
	assert.True(t, isQuit(cmd))

	result := f.model.Result()
	assert.True(t, result.Committed)
	assert.Equal(t, "entry-1", result.EntryID)
	assert.Equal(t, 60, result.Draft.DurationMinutes)
	assert.True(t, decimal.NewFromInt(60).Equal(result.Draft.Amount))
	assert.Equal(t, timer.StateIdle, f.session.State())
	require.Len(t, f.committer.drafts, 1)
}

func TestPauseToggle(t *testing.T) {
	f := newFixture(t)

	f.press(t, "p")
	assert.Equal(t, timer.StatePaused, f.session.State())
	assert.Contains(t, f.model.View(), "PAUSED")

	f.clock.Advance(10 * time.Minute)
	f.press(t, " ")
	assert.Equal(t, timer.StateRunning, f.session.State())
	assert.Equal(t, 10*time.Minute, f.session.AccumulatedPause())
}

func TestNotesEditing(t *testing.T) {
	f := newFixture(t)

	f.press(t, "n")
	assert.Equal(t, modeNotes, f.model.mode)
	f.press(t, "design review")
	f.press(t, "enter")

	assert.Equal(t, modeTracking, f.model.mode)
	assert.Equal(t, "design review", f.session.Notes())

	f.press(t, "n")
	f.press(t, "ignored")
	f.press(t, "esc")
	assert.Equal(t, "design review", f.session.Notes())
}

func TestCancelDiscardsSession(t *testing.T) {
	f := newFixture(t)

	cmd := f.press(t, "x")
	assert.True(t, isQuit(cmd))
	assert.True(t, f.model.Result().Cancelled)
	assert.Equal(t, timer.StateIdle, f.session.State())
	assert.Empty(t, f.committer.drafts)
}

func raiseIdle(t *testing.T, f *fixture, after time.Duration) {
	t.Helper()
	f.clock.Advance(after)
	require.True(t, f.detector.Check())
	f.send(t, idleMsg{event: idle.Event{IdleFor: after}})
	require.Equal(t, modeIdle, f.model.mode)
}

func TestIdleRemoveIdleTime(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(20 * time.Minute)
	f.press(t, "p")
	f.press(t, "p")

	raiseIdle(t, f, 6*time.Minute)
	assert.Contains(t, f.model.View(), "IDLE")

	// The user returns two minutes after the dialog appeared.
	f.clock.Advance(2 * time.Minute)
	f.press(t, "r")

	assert.Equal(t, modeTracking, f.model.mode)
	_, pending := f.session.IdlePending()
	assert.False(t, pending)
	assert.Equal(t, 20*time.Minute, f.session.Elapsed())
	assert.False(t, f.detector.IsIdle())
}

func TestIdleKeepAllTime(t *testing.T) {
	f := newFixture(t)
	raiseIdle(t, f, 6*time.Minute)

	// Unrelated keys neither resolve the dialog nor count as activity.
	f.press(t, "p")
	assert.Equal(t, modeIdle, f.model.mode)
	assert.Equal(t, 6*time.Minute, f.detector.SinceLastActivity())

	f.press(t, "k")
	assert.Equal(t, modeTracking, f.model.mode)
	assert.Equal(t, 6*time.Minute, f.session.Elapsed())
}

func TestIdleStopRemovingIdleCommits(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(30 * time.Minute)
	f.press(t, "n")
	f.press(t, "esc")

	raiseIdle(t, f, 10*time.Minute)
	cmd := f.press(t, "s")

	assert.True(t, isQuit(cmd))
	result := f.model.Result()
	require.True(t, result.Committed)
	assert.Equal(t, 30, result.Draft.RawMinutes)
	assert.Equal(t, 30, result.Draft.DurationMinutes)
}

func TestIdleIgnoredWhilePaused(t *testing.T) {
	f := newFixture(t)
	f.press(t, "p")

	f.clock.Advance(6 * time.Minute)
	require.True(t, f.detector.Check())
	f.send(t, idleMsg{event: idle.Event{IdleFor: 6 * time.Minute}})
	assert.Equal(t, modeTracking, f.model.mode)
}

func TestQueuedIdleEventClearedByActivity(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(6 * time.Minute)
	require.True(t, f.detector.Check())

	// A key press lands before the queued event is delivered.
	f.press(t, "z")
	require.False(t, f.detector.IsIdle())

	cmd := f.send(t, idleMsg{event: idle.Event{IdleFor: 6 * time.Minute}})
	assert.NotNil(t, cmd, "keeps listening for idle events")
	assert.Equal(t, modeTracking, f.model.mode)
	_, pending := f.session.IdlePending()
	assert.False(t, pending)
	assert.Equal(t, 6*time.Minute, f.session.Elapsed())
}

func TestIdleWhileEditingNotesKeepsDraftText(t *testing.T) {
	f := newFixture(t)
	f.press(t, "n")
	f.press(t, "half written")

	raiseIdle(t, f, 6*time.Minute)
	assert.Empty(t, f.session.Notes())

	f.press(t, "k")
	require.Equal(t, modeNotes, f.model.mode)
	assert.True(t, f.model.notes.Focused())
	assert.Equal(t, "half written", f.model.notes.Value())

	f.press(t, " note")
	f.press(t, "enter")
	assert.Equal(t, modeTracking, f.model.mode)
	assert.Equal(t, "half written note", f.session.Notes())
}

func TestStopFromIdleWhileEditingNotesSavesText(t *testing.T) {
	f := newFixture(t)
	f.clock.Advance(20 * time.Minute)
	f.press(t, "n")
	f.press(t, "wireframes")

	raiseIdle(t, f, 6*time.Minute)
	cmd := f.press(t, "s")

	assert.True(t, isQuit(cmd))
	require.Len(t, f.committer.drafts, 1)
	assert.Equal(t, "wireframes", f.committer.drafts[0].Notes)
	assert.Contains(t, f.model.View(), "SAVED")
}

func TestCommitFailureRetry(t *testing.T) {
	transient := timer.NewPersistError(timer.PersistTransient, errors.New("database is locked"))
	f := newFixture(t, transient)
	f.clock.Advance(14 * time.Minute)

	cmd := f.press(t, "s")
	assert.Nil(t, cmd)
	assert.Equal(t, modeCommitFailed, f.model.mode)
	assert.Equal(t, timer.StateStopped, f.session.State())
	assert.Contains(t, f.model.View(), "database is locked")

	cmd = f.press(t, "r")
	assert.True(t, isQuit(cmd))
	require.Len(t, f.committer.drafts, 2)
	assert.Equal(t, f.committer.drafts[0], f.committer.drafts[1])
	assert.True(t, f.model.Result().Committed)
}

func TestUnauthorizedCommitCannotRetry(t *testing.T) {
	denied := timer.NewPersistError(timer.PersistUnauthorized, errors.New("client belongs to another owner"))
	f := newFixture(t, denied)
	f.clock.Advance(14 * time.Minute)

	f.press(t, "s")
	require.Equal(t, modeCommitFailed, f.model.mode)
	assert.Contains(t, f.model.View(), "not allowed")

	f.press(t, "r")
	assert.Len(t, f.committer.drafts, 1)
	assert.Equal(t, modeCommitFailed, f.model.mode)

	cmd := f.press(t, "d")
	assert.True(t, isQuit(cmd))
	result := f.model.Result()
	assert.True(t, result.Discarded)
	assert.ErrorIs(t, result.LastErr, timer.ErrUnauthorized)
	assert.Equal(t, 15, result.Draft.DurationMinutes)
	assert.Equal(t, timer.StateIdle, f.session.State())
}

func TestMissingClientCommitCannotRetry(t *testing.T) {
	rejected := timer.NewPersistError(timer.PersistRejected, errors.New("client c-1: record not found"))
	f := newFixture(t, rejected)
	f.clock.Advance(14 * time.Minute)

	f.press(t, "s")
	require.Equal(t, modeCommitFailed, f.model.mode)
	assert.Contains(t, f.model.View(), "no longer exists")
	assert.Equal(t, bindings{f.model.keys.Discard}, f.model.activeBindings())

	f.press(t, "r")
	assert.Len(t, f.committer.drafts, 1)
	assert.Equal(t, modeCommitFailed, f.model.mode)
}

func TestTickStopsAfterSessionEnds(t *testing.T) {
	f := newFixture(t)
	assert.NotNil(t, f.send(t, timerTickMsg{}))

	f.press(t, "x")
	assert.Nil(t, f.send(t, timerTickMsg{}))
}

func TestClockText(t *testing.T) {
	assert.Equal(t, "00:00", clockText(-time.Second))
	assert.Equal(t, "05:07", clockText(5*time.Minute+7*time.Second))
	assert.Equal(t, "01:02:03", clockText(time.Hour+2*time.Minute+3*time.Second))
}
