package avatar

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"
)

func testLibrary() *Library {
	idle := [][]byte{[]byte("i0"), []byte("i1"), []byte("i2")}
	talking := [][]byte{[]byte("t0"), []byte("t1")}
	return NewLibrary(idle, talking)
}

func TestSelectFrame(t *testing.T) {
	lib := testLibrary()

	tests := []struct {
		name    string
		talking bool
		idleIdx int
		talkIdx int
		want    string
	}{
		{"idle start", false, 0, 0, "i0"},
		{"idle wraps", false, 5, 0, "i2"},
		{"talking start", true, 0, 0, "t0"},
		{"talking wraps", true, 0, 3, "t1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectFrame(lib, tt.talking, tt.idleIdx, tt.talkIdx)
			if string(got) != tt.want {
				t.Errorf("selectFrame = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAdvanceKeepsLoopPositions(t *testing.T) {
	lib := testLibrary()
	s := NewScheduler(lib, time.Millisecond, func() bool { return false }, nil)

	if got := s.advance(false); string(got) != "i0" {
		t.Fatalf("first idle frame = %q", got)
	}
	if got := s.advance(false); string(got) != "i1" {
		t.Fatalf("second idle frame = %q", got)
	}

	// Switching to talking does not disturb the idle position.
	if got := s.advance(true); string(got) != "t0" {
		t.Fatalf("first talking frame = %q", got)
	}
	if got := s.advance(false); string(got) != "i2" {
		t.Fatalf("idle loop should resume where it left off, got %q", got)
	}
}

func TestCurrentFrameTracksEmission(t *testing.T) {
	lib := testLibrary()
	s := NewScheduler(lib, time.Millisecond, func() bool { return false }, nil)

	if got := s.CurrentFrame(); string(got) != "i0" {
		t.Fatalf("initial current frame = %q", got)
	}
	s.advance(false)
	s.advance(false)
	if got := s.CurrentFrame(); string(got) != "i1" {
		t.Fatalf("current frame after two ticks = %q", got)
	}
}

func TestRunEmitsAndStops(t *testing.T) {
	lib := testLibrary()

	var mu sync.Mutex
	var frames [][]byte
	s := NewScheduler(lib, time.Millisecond, func() bool { return false }, func(f []byte) {
		mu.Lock()
		frames = append(frames, f)
		mu.Unlock()
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := len(frames)
		mu.Unlock()
		if n >= 3 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("scheduler never emitted frames")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on context cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if !bytes.Equal(frames[0], []byte("i0")) {
		t.Fatalf("first emitted frame = %q", frames[0])
	}
}

func TestNewLibraryFallsBackToIdle(t *testing.T) {
	lib := NewLibrary([][]byte{[]byte("i0")}, nil)
	if len(lib.Talking()) != 1 || string(lib.Talking()[0]) != "i0" {
		t.Fatal("missing talking loop should reuse the idle loop")
	}
}
