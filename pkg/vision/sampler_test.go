package vision

import "testing"

func TestSamplerFrameSkip(t *testing.T) {
	s := NewSampler(5, 4)

	classified := 0
	for i := 1; i <= 100; i++ {
		classify, _ := s.Next()
		if classify {
			classified++
		}
	}
	if classified != 20 {
		t.Fatalf("expected 20 of 100 frames classified, got %d", classified)
	}
}

func TestSamplerRotationCadence(t *testing.T) {
	s := NewSampler(1, 4)

	rotations := 0
	for i := 1; i <= 12; i++ {
		classify, allowRotation := s.Next()
		if !classify {
			t.Fatalf("every=1 must classify every frame, frame %d skipped", i)
		}
		if allowRotation {
			rotations++
			if i%4 != 0 {
				t.Fatalf("rotation allowed on frame %d, want multiples of 4", i)
			}
		}
	}
	if rotations != 3 {
		t.Fatalf("expected 3 rotation frames in 12, got %d", rotations)
	}
}

func TestSamplerClampsBadValues(t *testing.T) {
	s := NewSampler(0, -1)

	classify, allowRotation := s.Next()
	if !classify || !allowRotation {
		t.Fatal("values below 1 should clamp to classify-every-frame with rotation")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MinAreaFrac != 0.04 {
		t.Fatalf("unexpected MinAreaFrac %v", cfg.MinAreaFrac)
	}
	if cfg.ScaleFactor != 1.1 || cfg.MinNeighbors != 5 {
		t.Fatalf("unexpected detection params: %+v", cfg)
	}
	if cfg.MaxWidth != 224 {
		t.Fatalf("unexpected MaxWidth %d", cfg.MaxWidth)
	}
}

func TestNewRejectsMissingCascades(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FrontalCascadePath = "testdata/missing.xml"
	cfg.ProfileCascadePath = "testdata/also-missing.xml"
	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for missing cascade files")
	}
}
