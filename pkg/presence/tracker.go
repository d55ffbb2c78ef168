// Package presence converts a noisy per-frame face observation stream into
// stable enter/leave transitions using dwell-time debouncing, independently
// per connected client.
package presence

import (
	"sync"
	"time"
)

// Event is a debounced presence transition.
type Event int

const (
	// None means no transition occurred on this observation.
	None Event = iota
	// Entered means the client's presence settled to true.
	Entered
	// Left means the client's presence settled to false.
	Left
)

func (e Event) String() string {
	switch e {
	case Entered:
		return "entered"
	case Left:
		return "left"
	default:
		return "none"
	}
}

// Guard reports speech state that defers a leave transition. A farewell must
// never be announced over the kiosk's own voice or on detector flicker right
// after a reply.
type Guard interface {
	// Speaking reports whether an outbound utterance is in flight.
	Speaking(clientID string) bool
	// SinceLastReply reports the time since the client's last reply ended.
	SinceLastReply(clientID string) time.Duration
}

// Config holds debounce timing parameters. Enter and leave delays are
// independent: a premature greeting interrupts, a late farewell is merely
// awkward.
type Config struct {
	EnterDelay      time.Duration
	LeaveDelay      time.Duration
	PostSpeechGrace time.Duration
}

// DefaultConfig returns the kiosk debounce defaults.
func DefaultConfig() Config {
	return Config{
		EnterDelay:      2 * time.Second,
		LeaveDelay:      5 * time.Second,
		PostSpeechGrace: 1500 * time.Millisecond,
	}
}

// debounceState tracks one client's raw observation run.
type debounceState struct {
	lastRaw bool
	since   time.Time
	present bool
}

// Tracker debounces raw presence observations per client. A transition fires
// only after the raw observation has held steady for its configured dwell
// time; a raw flip resets the window, so continuous flicker never reaches
// steady state.
type Tracker struct {
	cfg   Config
	guard Guard

	mu      sync.Mutex
	clients map[string]*debounceState

	now func() time.Time
}

// NewTracker creates a tracker. guard may be nil, in which case leave
// transitions are never deferred.
func NewTracker(cfg Config, guard Guard) *Tracker {
	return &Tracker{
		cfg:     cfg,
		guard:   guard,
		clients: make(map[string]*debounceState),
		now:     time.Now,
	}
}

// Update records one raw observation for a client and returns the debounced
// transition, if any. Unknown client ids start a fresh debounce run.
func (t *Tracker) Update(clientID string, raw bool) Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()

	st, ok := t.clients[clientID]
	if !ok {
		st = &debounceState{lastRaw: raw, since: now}
		t.clients[clientID] = st
		return None
	}

	if raw != st.lastRaw {
		// Raw flip: restart the dwell window, emit nothing yet.
		st.lastRaw = raw
		st.since = now
		return None
	}

	dwell := now.Sub(st.since)

	if raw && !st.present && dwell >= t.cfg.EnterDelay {
		st.present = true
		return Entered
	}

	if !raw && st.present && dwell >= t.cfg.LeaveDelay {
		if t.leaveDeferred(clientID) {
			// Re-evaluated on the next observation; never dropped.
			return None
		}
		st.present = false
		return Left
	}

	return None
}

// leaveDeferred reports whether the speech guard blocks a leave right now.
func (t *Tracker) leaveDeferred(clientID string) bool {
	if t.guard == nil {
		return false
	}
	if t.guard.Speaking(clientID) {
		return true
	}
	return t.guard.SinceLastReply(clientID) < t.cfg.PostSpeechGrace
}

// Present returns the client's debounced presence state.
func (t *Tracker) Present(clientID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.clients[clientID]
	return ok && st.present
}

// Remove purges a client's debounce state on disconnect.
func (t *Tracker) Remove(clientID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.clients, clientID)
}
