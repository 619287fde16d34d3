package timer

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/shopspring/decimal"

	"github.com/Slouths/TimeTracker-sub001/internal/clock"
	"github.com/Slouths/TimeTracker-sub001/internal/idle"
	"github.com/Slouths/TimeTracker-sub001/internal/timecalc"
)

// State represents the lifecycle stage of a Session.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Decision is the user's answer to the idle dialog.
type Decision int

const (
	KeepAllTime Decision = iota
	RemoveIdleTime
	StopAndRemoveIdleTime
)

func (d Decision) String() string {
	switch d {
	case KeepAllTime:
		return "keep"
	case RemoveIdleTime:
		return "remove"
	case StopAndRemoveIdleTime:
		return "stop"
	}
	return "unknown"
}

// Option configures a Session.
type Option func(*Session)

func WithClock(c clock.Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithDetector attaches an idle detector. The session feeds it activity,
// runs its check loop while a run is in progress and acknowledges it when
// an idle decision is resolved.
func WithDetector(d *idle.Detector) Option {
	return func(s *Session) {
		s.detector = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session is one tracked run of work for a client. It is not safe for
// concurrent use: hosts must funnel every call through a single goroutine.
type Session struct {
	clock    clock.Clock
	detector *idle.Detector
	logger   *log.Logger

	state            State
	clientRef        string
	projectRef       string
	startedAt        time.Time
	pausedAt         time.Time
	accumulatedPause time.Duration
	notes            string

	idlePending bool
	idleFor     time.Duration

	draft *Draft
}

// NewSession returns a Session in StateIdle.
func NewSession(opts ...Option) *Session {
	s := &Session{
		clock:  clock.Real(),
		logger: log.New(io.Discard),
		state:  StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) State() State                    { return s.state }
func (s *Session) ClientRef() string               { return s.clientRef }
func (s *Session) ProjectRef() string              { return s.projectRef }
func (s *Session) StartedAt() time.Time            { return s.startedAt }
func (s *Session) AccumulatedPause() time.Duration { return s.accumulatedPause }
func (s *Session) Notes() string                   { return s.notes }

// PausedAt returns the start of the open pause, if the session is paused.
func (s *Session) PausedAt() (time.Time, bool) {
	return s.pausedAt, s.state == StatePaused
}

// IdlePending reports whether an idle decision is waiting for the host, and
// the inactivity reported when it was raised.
func (s *Session) IdlePending() (time.Duration, bool) {
	return s.idleFor, s.idlePending
}

// Draft returns the retained draft of a stopped session.
func (s *Session) Draft() (Draft, bool) {
	if s.draft == nil {
		return Draft{}, false
	}
	return *s.draft, true
}

// Elapsed returns active time so far, excluding completed and open pauses.
func (s *Session) Elapsed() time.Duration {
	switch s.state {
	case StateRunning, StatePaused:
	case StateStopped:
		if s.draft != nil {
			return time.Duration(s.draft.RawMinutes) * time.Minute
		}
		return 0
	default:
		return 0
	}

	now := s.clock.Now()
	paused := s.accumulatedPause
	if s.state == StatePaused {
		paused += nonNegative(now.Sub(s.pausedAt))
	}
	return nonNegative(now.Sub(s.startedAt) - paused)
}

// Start begins tracking for clientRef. projectRef may be empty.
func (s *Session) Start(clientRef, projectRef string) error {
	if s.state != StateIdle {
		return &InvalidStateError{Op: "start", State: s.state}
	}
	clientRef = strings.TrimSpace(clientRef)
	if clientRef == "" {
		return &ValidationError{Field: "client", Reason: "is required"}
	}

	s.clientRef = clientRef
	s.projectRef = strings.TrimSpace(projectRef)
	s.startedAt = s.clock.Now()
	s.pausedAt = time.Time{}
	s.accumulatedPause = 0
	s.idlePending = false
	s.idleFor = 0
	s.state = StateRunning

	if s.detector != nil {
		s.detector.RecordActivity()
		s.detector.Start()
	}
	s.logger.Debug("session started", "client", s.clientRef, "project", s.projectRef, "at", s.startedAt)
	return nil
}

func (s *Session) Pause() error {
	if s.state != StateRunning {
		return &InvalidStateError{Op: "pause", State: s.state}
	}
	s.pausedAt = s.clock.Now()
	s.state = StatePaused
	s.logger.Debug("session paused", "at", s.pausedAt)
	return nil
}

func (s *Session) Resume() error {
	if s.state != StatePaused {
		return &InvalidStateError{Op: "resume", State: s.state}
	}
	s.foldPause()
	s.state = StateRunning
	if s.detector != nil {
		s.detector.RecordActivity()
	}
	s.logger.Debug("session resumed", "paused_total", s.accumulatedPause)
	return nil
}

func (s *Session) foldPause() {
	s.accumulatedPause += nonNegative(s.clock.Now().Sub(s.pausedAt))
	s.pausedAt = time.Time{}
}

// RecordActivity forwards a user interaction signal to the idle detector.
func (s *Session) RecordActivity() {
	if s.detector != nil {
		s.detector.RecordActivity()
	}
}

// OnIdleDetected surfaces an idle decision to the host. It only takes
// effect while running and returns whether a decision is now pending.
// The session keeps running until the host resolves it.
func (s *Session) OnIdleDetected(idleFor time.Duration) bool {
	if s.state != StateRunning {
		return false
	}
	if s.idlePending {
		return true
	}
	s.idlePending = true
	s.idleFor = nonNegative(idleFor)
	s.logger.Info("idle detected", "idle_for", s.idleFor)
	return true
}

// ResolveKeepAll closes a pending idle decision without touching the
// accumulators. With nothing pending it does nothing.
func (s *Session) ResolveKeepAll() error {
	if !s.idlePending {
		return nil
	}
	s.clearIdle()
	s.logger.Debug("idle resolved", "decision", KeepAllTime)
	return nil
}

// ResolveRemoveIdle drops idleTime from the active total as if the session
// had been paused for it. The amount is clamped to the active time so far.
func (s *Session) ResolveRemoveIdle(idleTime time.Duration) error {
	if !s.idlePending {
		return &InvalidStateError{Op: "remove idle time", State: s.state}
	}
	removed := idleTime
	if active := s.Elapsed(); removed > active {
		removed = active
	}
	s.accumulatedPause += nonNegative(removed)
	s.clearIdle()
	s.logger.Debug("idle resolved", "decision", RemoveIdleTime, "removed", removed)
	return nil
}

// ResolveStopRemovingIdle removes idleTime and stops the session.
func (s *Session) ResolveStopRemovingIdle(idleTime time.Duration, increment int, rate decimal.Decimal) (Draft, error) {
	if err := validateStop(increment, rate); err != nil {
		return Draft{}, err
	}
	if err := s.ResolveRemoveIdle(idleTime); err != nil {
		return Draft{}, err
	}
	return s.Stop(increment, rate)
}

// Resolve dispatches an idle dialog decision. A draft is returned only for
// StopAndRemoveIdleTime.
func (s *Session) Resolve(decision Decision, idleTime time.Duration, increment int, rate decimal.Decimal) (*Draft, error) {
	switch decision {
	case KeepAllTime:
		return nil, s.ResolveKeepAll()
	case RemoveIdleTime:
		return nil, s.ResolveRemoveIdle(idleTime)
	case StopAndRemoveIdleTime:
		draft, err := s.ResolveStopRemovingIdle(idleTime, increment, rate)
		if err != nil {
			return nil, err
		}
		return &draft, nil
	}
	return nil, &ValidationError{Field: "decision", Reason: "is unknown"}
}

func (s *Session) clearIdle() {
	s.idlePending = false
	s.idleFor = 0
	if s.detector != nil {
		s.detector.ResetIdle()
	}
}

// Stop finalizes the session into a Draft, rounding the active minutes up to
// increment and pricing them at rate. A paused session is resumed first.
func (s *Session) Stop(increment int, rate decimal.Decimal) (Draft, error) {
	if s.state != StateRunning && s.state != StatePaused {
		return Draft{}, &InvalidStateError{Op: "stop", State: s.state}
	}
	if err := validateStop(increment, rate); err != nil {
		return Draft{}, err
	}
	if s.state == StatePaused {
		s.foldPause()
	}

	now := s.clock.Now()
	raw := timecalc.ElapsedMinutes(s.startedAt, now, s.accumulatedPause)
	minutes := timecalc.RoundDuration(raw, increment)

	draft := Draft{
		ClientRef:         s.clientRef,
		ProjectRef:        s.projectRef,
		StartTime:         s.startedAt,
		EndTime:           now,
		RawMinutes:        raw,
		DurationMinutes:   minutes,
		RoundingIncrement: increment,
		HourlyRate:        rate,
		Amount:            timecalc.RoundCurrency(timecalc.ComputeAmount(minutes, rate)),
		Notes:             s.notes,
	}
	s.draft = &draft
	s.state = StateStopped
	s.idlePending = false
	s.idleFor = 0
	s.stopDetector()

	s.logger.Info("session stopped",
		"client", draft.ClientRef,
		"minutes", draft.DurationMinutes,
		"raw_minutes", draft.RawMinutes,
		"amount", draft.Amount.StringFixed(2))
	return draft, nil
}

func validateStop(increment int, rate decimal.Decimal) error {
	if !timecalc.ValidIncrement(increment) {
		return &ValidationError{Field: "rounding increment", Reason: "must be one of 0, 5, 10, 15, 30"}
	}
	if rate.IsNegative() {
		return &ValidationError{Field: "hourly rate", Reason: "must not be negative"}
	}
	return nil
}

// SetNotes replaces the session notes. Notes freeze once stopped.
func (s *Session) SetNotes(text string) error {
	if s.state == StateStopped {
		return &InvalidStateError{Op: "edit notes", State: s.state}
	}
	s.notes = text
	return nil
}

// Cancel discards the session without producing a draft.
func (s *Session) Cancel() error {
	if s.state == StateStopped {
		return &InvalidStateError{Op: "cancel", State: s.state}
	}
	s.logger.Debug("session cancelled", "client", s.clientRef)
	s.reset()
	return nil
}

// Commit persists the retained draft through c. On failure the session stays
// stopped with the same draft so the host can retry; the core never retries
// on its own. On success the session returns to idle.
func (s *Session) Commit(ctx context.Context, c Committer) (string, error) {
	if s.state != StateStopped || s.draft == nil {
		return "", &InvalidStateError{Op: "commit", State: s.state}
	}

	id, err := c.Commit(ctx, *s.draft)
	if err != nil {
		perr := asPersistError(err)
		s.logger.Warn("commit failed", "kind", perr.Kind, "err", perr.Err)
		return "", perr
	}

	s.logger.Info("time entry committed", "id", id, "client", s.draft.ClientRef)
	s.reset()
	return id, nil
}

// Discard drops the retained draft of a stopped session.
func (s *Session) Discard() error {
	if s.state != StateStopped {
		return &InvalidStateError{Op: "discard", State: s.state}
	}
	s.logger.Debug("draft discarded", "client", s.clientRef)
	s.reset()
	return nil
}

func (s *Session) reset() {
	s.stopDetector()
	s.state = StateIdle
	s.clientRef = ""
	s.projectRef = ""
	s.startedAt = time.Time{}
	s.pausedAt = time.Time{}
	s.accumulatedPause = 0
	s.notes = ""
	s.idlePending = false
	s.idleFor = 0
	s.draft = nil
}

func (s *Session) stopDetector() {
	if s.detector != nil {
		s.detector.Stop()
	}
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
