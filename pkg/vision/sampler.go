package vision

import "sync"

// Sampler implements the frame-skip policy: only 1 in Every incoming frames
// is classified at all, and the rotation fallback runs on every RotationEvery-th
// classified frame. This trades presence-detection latency for CPU budget.
type Sampler struct {
	every         int
	rotationEvery int

	mu         sync.Mutex
	frames     int
	classified int
}

// NewSampler creates a sampler. every and rotationEvery values below 1 are
// treated as 1 (classify every frame / allow rotation on every classification).
func NewSampler(every, rotationEvery int) *Sampler {
	if every < 1 {
		every = 1
	}
	if rotationEvery < 1 {
		rotationEvery = 1
	}
	return &Sampler{every: every, rotationEvery: rotationEvery}
}

// Next records one incoming frame and reports whether it should be classified
// and, if so, whether the rotation fallback is allowed for it.
func (s *Sampler) Next() (classify, allowRotation bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	if s.frames%s.every != 0 {
		return false, false
	}

	s.classified++
	return true, s.classified%s.rotationEvery == 0
}
