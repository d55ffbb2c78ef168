package avatar

import (
	"context"
	"sync"
	"time"
)

const defaultFramePeriod = 33 * time.Millisecond

// Scheduler advances through the avatar frame loops at a fixed rate,
// switching between the idle and talking loops based on whether any client
// is being spoken to. Each tick hands the current frame to the broadcast
// callback without blocking on it.
type Scheduler struct {
	lib      *Library
	period   time.Duration
	speaking func() bool
	onFrame  func(jpeg []byte)

	mu      sync.Mutex
	idleIdx int
	talkIdx int
	current []byte
}

// NewScheduler creates a frame scheduler. speaking reports whether the
// talking loop should play; onFrame receives every emitted frame.
func NewScheduler(lib *Library, period time.Duration, speaking func() bool, onFrame func([]byte)) *Scheduler {
	if period <= 0 {
		period = defaultFramePeriod
	}
	s := &Scheduler{
		lib:      lib,
		period:   period,
		speaking: speaking,
		onFrame:  onFrame,
	}
	if frames := lib.Idle(); len(frames) > 0 {
		s.current = frames[0]
	}
	return s
}

// Run emits frames until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame := s.advance(s.speaking())
			if frame != nil && s.onFrame != nil {
				s.onFrame(frame)
			}
		}
	}
}

// CurrentFrame returns the most recently emitted frame, for clients that
// request an immediate frame on connect.
func (s *Scheduler) CurrentFrame() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// advance steps the active loop and returns the new frame. The inactive
// loop's position is preserved so resuming it doesn't jump.
func (s *Scheduler) advance(talking bool) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := selectFrame(s.lib, talking, s.idleIdx, s.talkIdx)
	if talking {
		if n := len(s.lib.Talking()); n > 0 {
			s.talkIdx = (s.talkIdx + 1) % n
		}
	} else {
		if n := len(s.lib.Idle()); n > 0 {
			s.idleIdx = (s.idleIdx + 1) % n
		}
	}
	if frame != nil {
		s.current = frame
	}
	return frame
}

// selectFrame picks the frame for the given state and loop positions.
func selectFrame(lib *Library, talking bool, idleIdx, talkIdx int) []byte {
	loop := lib.Idle()
	idx := idleIdx
	if talking {
		loop = lib.Talking()
		idx = talkIdx
	}
	if len(loop) == 0 {
		return nil
	}
	return loop[idx%len(loop)]
}
