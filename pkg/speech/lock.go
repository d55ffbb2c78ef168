// Package speech implements the per-client speech lock: at most one outbound
// utterance may be in flight for a client at any time. The lock is released
// by the client's explicit end-of-speech signal or by a watchdog timer,
// whichever fires first; both releases are idempotent.
package speech

import (
	"math"
	"strings"
	"sync"
	"time"
)

// Events holds the callbacks fired on lock transitions. Callbacks are invoked
// outside the lock's internal mutex and must not block.
type Events struct {
	// OnSpeakingChanged fires when a client's speaking flag flips.
	OnSpeakingChanged func(clientID string, speaking bool)

	// OnReply fires with the reply text when a speak slot is acquired.
	OnReply func(clientID string, text string)
}

// clientState tracks one client's in-flight utterance.
type clientState struct {
	speaking  bool
	expected  time.Duration
	watchdog  *time.Timer
	lastReply time.Time
}

// Lock is the per-client speech mutual exclusion. The remote client performs
// actual audio playback and may fail to report completion; the watchdog is the
// liveness guarantee that the lock is never held forever.
type Lock struct {
	pad time.Duration
	ev  Events

	mu      sync.Mutex
	clients map[string]*clientState

	now func() time.Time
}

// NewLock creates a speech lock. pad is added to the caller's expected speech
// duration when scheduling the watchdog release.
func NewLock(pad time.Duration, ev Events) *Lock {
	return &Lock{
		pad:     pad,
		ev:      ev,
		clients: make(map[string]*clientState),
		now:     time.Now,
	}
}

// TrySpeak atomically checks-and-sets the client's speaking flag. On success
// it fires the speaking-changed and reply events and schedules a watchdog
// release at expected+pad. Returns false if an utterance is already in
// flight; the caller must drop the reply, not queue it.
func (l *Lock) TrySpeak(clientID, text string, expected time.Duration) bool {
	l.mu.Lock()
	st, ok := l.clients[clientID]
	if !ok {
		st = &clientState{}
		l.clients[clientID] = st
	}
	if st.speaking {
		l.mu.Unlock()
		return false
	}
	st.speaking = true
	st.expected = expected
	st.watchdog = time.AfterFunc(expected+l.pad, func() {
		l.release(clientID)
	})
	l.mu.Unlock()

	if l.ev.OnSpeakingChanged != nil {
		l.ev.OnSpeakingChanged(clientID, true)
	}
	if l.ev.OnReply != nil {
		l.ev.OnReply(clientID, text)
	}
	return true
}

// EndSpeak releases the lock in response to the client's explicit
// end-of-speech signal, preempting the watchdog. Releasing an already-clear
// lock is a no-op.
func (l *Lock) EndSpeak(clientID string) {
	l.release(clientID)
}

// MarkStarted re-arms the watchdog when the client reports that playback
// actually began. The original deadline was scheduled when the reply was
// sent; re-basing it on playback start keeps slow-starting clients from
// being cut off mid-utterance. A no-op when no utterance is in flight.
func (l *Lock) MarkStarted(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.clients[clientID]
	if !ok || !st.speaking {
		return
	}
	if st.watchdog != nil {
		st.watchdog.Stop()
	}
	st.watchdog = time.AfterFunc(st.expected+l.pad, func() {
		l.release(clientID)
	})
}

// release clears the speaking flag, stamps the reply time, and cancels any
// pending watchdog. Called from both EndSpeak and the watchdog itself.
func (l *Lock) release(clientID string) {
	l.mu.Lock()
	st, ok := l.clients[clientID]
	if !ok || !st.speaking {
		l.mu.Unlock()
		return
	}
	st.speaking = false
	st.lastReply = l.now()
	if st.watchdog != nil {
		st.watchdog.Stop()
		st.watchdog = nil
	}
	l.mu.Unlock()

	if l.ev.OnSpeakingChanged != nil {
		l.ev.OnSpeakingChanged(clientID, false)
	}
}

// Speaking reports whether the client has an utterance in flight.
func (l *Lock) Speaking(clientID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.clients[clientID]
	return ok && st.speaking
}

// AnySpeaking reports whether any connected client has an utterance in
// flight. The avatar scheduler samples this each tick.
func (l *Lock) AnySpeaking() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, st := range l.clients {
		if st.speaking {
			return true
		}
	}
	return false
}

// SinceLastReply reports the time since the client's last reply ended.
// Returns a very large duration for clients that never received a reply.
func (l *Lock) SinceLastReply(clientID string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.clients[clientID]
	if !ok || st.lastReply.IsZero() {
		return time.Duration(math.MaxInt64)
	}
	return l.now().Sub(st.lastReply)
}

// Remove purges a client's state on disconnect, stopping any pending
// watchdog without firing events.
func (l *Lock) Remove(clientID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	st, ok := l.clients[clientID]
	if !ok {
		return
	}
	if st.watchdog != nil {
		st.watchdog.Stop()
	}
	delete(l.clients, clientID)
}

// Speech pacing bounds for EstimateDuration.
const (
	minSpeechDuration = 2 * time.Second
	maxSpeechDuration = 12 * time.Second
	perWordDuration   = 400 * time.Millisecond
	baseDuration      = 1500 * time.Millisecond
)

// EstimateDuration approximates how long the remote client's TTS will take to
// read text aloud. The watchdog uses this as its release deadline, so it errs
// long rather than cutting playback off.
func EstimateDuration(text string) time.Duration {
	words := len(strings.Fields(text))
	d := baseDuration + time.Duration(words)*perWordDuration
	if d < minSpeechDuration {
		d = minSpeechDuration
	}
	if d > maxSpeechDuration {
		d = maxSpeechDuration
	}
	return d
}
