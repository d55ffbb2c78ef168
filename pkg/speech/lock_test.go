package speech

import (
	"strings"
	"sync"
	"testing"
	"time"
)

// recorder captures lock events safely across goroutines.
type recorder struct {
	mu      sync.Mutex
	changes []bool
	replies []string
}

func (r *recorder) events() Events {
	return Events{
		OnSpeakingChanged: func(_ string, speaking bool) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.changes = append(r.changes, speaking)
		},
		OnReply: func(_, text string) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.replies = append(r.replies, text)
		},
	}
}

func (r *recorder) snapshot() ([]bool, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.changes...), append([]string(nil), r.replies...)
}

func TestTrySpeakMutualExclusion(t *testing.T) {
	rec := &recorder{}
	l := NewLock(time.Minute, rec.events())

	if !l.TrySpeak("c1", "first", time.Minute) {
		t.Fatal("first TrySpeak should acquire the slot")
	}
	if l.TrySpeak("c1", "second", time.Minute) {
		t.Fatal("second TrySpeak must fail while speaking")
	}
	if !l.Speaking("c1") {
		t.Fatal("client should be speaking")
	}

	// Another client is unaffected.
	if !l.TrySpeak("c2", "other", time.Minute) {
		t.Fatal("independent client should acquire its own slot")
	}

	_, replies := rec.snapshot()
	if len(replies) != 2 || replies[0] != "first" || replies[1] != "other" {
		t.Fatalf("unexpected replies: %v", replies)
	}
}

func TestEndSpeakReleases(t *testing.T) {
	rec := &recorder{}
	l := NewLock(time.Minute, rec.events())

	l.TrySpeak("c1", "hello", time.Minute)
	l.EndSpeak("c1")

	if l.Speaking("c1") {
		t.Fatal("EndSpeak should clear the speaking flag")
	}
	if since := l.SinceLastReply("c1"); since > time.Second {
		t.Fatalf("SinceLastReply should be small right after release, got %v", since)
	}

	changes, _ := rec.snapshot()
	want := []bool{true, false}
	if len(changes) != len(want) || changes[0] != want[0] || changes[1] != want[1] {
		t.Fatalf("unexpected speaking transitions: %v", changes)
	}
}

func TestEndSpeakIdempotent(t *testing.T) {
	rec := &recorder{}
	l := NewLock(time.Minute, rec.events())

	l.TrySpeak("c1", "hello", time.Minute)
	l.EndSpeak("c1")
	l.EndSpeak("c1")
	l.EndSpeak("unknown")

	changes, _ := rec.snapshot()
	if len(changes) != 2 {
		t.Fatalf("repeated EndSpeak must not refire events, got %v", changes)
	}
}

func TestWatchdogReleases(t *testing.T) {
	rec := &recorder{}
	l := NewLock(10*time.Millisecond, rec.events())

	l.TrySpeak("c1", "hello", 10*time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for l.Speaking("c1") {
		if time.Now().After(deadline) {
			t.Fatal("watchdog never released the lock")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// A new utterance can acquire the slot again.
	if !l.TrySpeak("c1", "next", time.Minute) {
		t.Fatal("slot should be free after watchdog release")
	}
}

func TestEndSpeakPreemptsWatchdog(t *testing.T) {
	rec := &recorder{}
	l := NewLock(20*time.Millisecond, rec.events())

	l.TrySpeak("c1", "hello", 20*time.Millisecond)
	l.EndSpeak("c1")

	// Wait past the watchdog deadline; it must not fire a second release.
	time.Sleep(100 * time.Millisecond)

	changes, _ := rec.snapshot()
	if len(changes) != 2 {
		t.Fatalf("watchdog fired after explicit release: %v", changes)
	}
}

func TestMarkStartedRearmsWatchdog(t *testing.T) {
	rec := &recorder{}
	l := NewLock(200*time.Millisecond, rec.events())

	l.TrySpeak("c1", "hello", 200*time.Millisecond)

	// Report playback start well before the original 400ms deadline; the
	// re-armed watchdog must keep the lock held past it.
	time.Sleep(150 * time.Millisecond)
	l.MarkStarted("c1")
	time.Sleep(300 * time.Millisecond)
	if !l.Speaking("c1") {
		t.Fatal("re-armed watchdog released too early")
	}

	deadline := time.Now().Add(time.Second)
	for l.Speaking("c1") {
		if time.Now().After(deadline) {
			t.Fatal("re-armed watchdog never released the lock")
		}
		time.Sleep(5 * time.Millisecond)
	}

	changes, _ := rec.snapshot()
	// One acquisition, one release; the re-arm itself fires nothing.
	if len(changes) != 2 {
		t.Fatalf("unexpected speaking transitions: %v", changes)
	}
}

func TestMarkStartedWithoutUtteranceIsNoop(t *testing.T) {
	rec := &recorder{}
	l := NewLock(10*time.Millisecond, rec.events())

	l.MarkStarted("ghost")
	l.TrySpeak("c1", "hello", time.Minute)
	l.EndSpeak("c1")
	l.MarkStarted("c1")

	time.Sleep(60 * time.Millisecond)
	if l.Speaking("c1") {
		t.Fatal("MarkStarted after release must not resurrect the lock")
	}
	changes, _ := rec.snapshot()
	if len(changes) != 2 {
		t.Fatalf("unexpected speaking transitions: %v", changes)
	}
}

func TestSinceLastReplyNeverSpoken(t *testing.T) {
	l := NewLock(time.Minute, Events{})
	if since := l.SinceLastReply("ghost"); since < 24*time.Hour {
		t.Fatalf("unknown client should report a huge duration, got %v", since)
	}
}

func TestRemoveStopsWatchdogSilently(t *testing.T) {
	rec := &recorder{}
	l := NewLock(10*time.Millisecond, rec.events())

	l.TrySpeak("c1", "hello", 10*time.Millisecond)
	l.Remove("c1")

	time.Sleep(60 * time.Millisecond)

	changes, _ := rec.snapshot()
	// Only the acquisition event; no release after removal.
	if len(changes) != 1 || changes[0] != true {
		t.Fatalf("remove must not fire release events, got %v", changes)
	}
}

func TestEstimateDuration(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Duration
	}{
		{"empty clamps to minimum", "", 2 * time.Second},
		{"one word clamps to minimum", "hi", 2 * time.Second},
		{"five words", "one two three four five", 3500 * time.Millisecond},
		{"long text clamps to maximum", strings.Repeat("word ", 100), 12 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateDuration(tt.text); got != tt.want {
				t.Errorf("EstimateDuration(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
