package idle

import (
	"sync"
	"time"

	"github.com/Slouths/TimeTracker-sub001/internal/clock"
)

const (
	// DefaultThreshold is the inactivity window after which a user counts as idle.
	DefaultThreshold = 5 * time.Minute
	// DefaultCheckInterval is the cadence of the periodic idle check.
	DefaultCheckInterval = time.Second
)

// Event is published once per inactivity period, on the transition into idle.
type Event struct {
	At             time.Time
	LastActivityAt time.Time
	IdleFor        time.Duration
}

// Option configures a Detector.
type Option func(*Detector)

// WithClock overrides the time source.
func WithClock(c clock.Clock) Option {
	return func(d *Detector) {
		d.clock = c
	}
}

// WithCheckInterval sets how often the background loop calls Check.
func WithCheckInterval(interval time.Duration) Option {
	return func(d *Detector) {
		if interval > 0 {
			d.checkInterval = interval
		}
	}
}

// Detector watches activity signals and raises an idle transition after
// threshold of inactivity. Activity is fed by the host; the check runs on a
// ticker started with Start.
type Detector struct {
	mu             sync.Mutex
	clock          clock.Clock
	threshold      time.Duration
	checkInterval  time.Duration
	lastActivityAt time.Time
	idle           bool
	events         []chan Event
	stopCh         chan struct{}
	doneCh         chan struct{}
	running        bool
}

// New creates a Detector. A non-positive threshold falls back to DefaultThreshold.
func New(threshold time.Duration, opts ...Option) *Detector {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	d := &Detector{
		clock:         clock.Real(),
		threshold:     threshold,
		checkInterval: DefaultCheckInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.lastActivityAt = d.clock.Now()
	return d
}

// Threshold returns the configured inactivity threshold.
func (d *Detector) Threshold() time.Duration {
	return d.threshold
}

// RecordActivity marks user interaction at the current time and clears the
// idle flag.
func (d *Detector) RecordActivity() {
	d.mu.Lock()
	d.lastActivityAt = d.clock.Now()
	d.idle = false
	d.mu.Unlock()
}

// ResetIdle acknowledges the current idle period. The inactivity window
// restarts from now.
func (d *Detector) ResetIdle() {
	d.RecordActivity()
}

// Check evaluates inactivity once. It returns true only when this call
// moved the detector into idle; repeated calls while idle return false.
func (d *Detector) Check() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.idle {
		return false
	}
	now := d.clock.Now()
	since := now.Sub(d.lastActivityAt)
	if since < d.threshold {
		return false
	}

	d.idle = true
	d.emitLocked(Event{
		At:             now,
		LastActivityAt: d.lastActivityAt,
		IdleFor:        since,
	})
	return true
}

// IsIdle reports whether an idle transition has been raised and not yet
// cleared by activity.
func (d *Detector) IsIdle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idle
}

// SinceLastActivity returns the time since the last activity signal, never negative.
func (d *Detector) SinceLastActivity() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	since := d.clock.Now().Sub(d.lastActivityAt)
	if since < 0 {
		return 0
	}
	return since
}

func (d *Detector) LastActivityAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastActivityAt
}

// Subscribe registers a new observer channel. Slow observers miss events
// instead of blocking the check loop.
func (d *Detector) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	d.mu.Lock()
	d.events = append(d.events, ch)
	d.mu.Unlock()
	return ch
}

// Start launches the periodic check loop.
func (d *Detector) Start() {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	stopCh, doneCh := d.stopCh, d.doneCh
	d.mu.Unlock()

	go d.run(stopCh, doneCh)
}

// Stop terminates the check loop, waits for it to exit and closes observers.
func (d *Detector) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	close(d.stopCh)
	d.running = false
	doneCh := d.doneCh
	d.mu.Unlock()

	<-doneCh

	d.mu.Lock()
	events := d.events
	d.events = nil
	d.mu.Unlock()
	for _, ch := range events {
		close(ch)
	}
}

func (d *Detector) run(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(d.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			d.Check()
		}
	}
}

func (d *Detector) emitLocked(event Event) {
	for _, ch := range d.events {
		select {
		case ch <- event:
		default:
		}
	}
}
