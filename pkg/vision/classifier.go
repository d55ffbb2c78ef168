// Package vision decides whether a camera frame shows a person standing close
// enough to the kiosk to engage with it.
package vision

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// Config holds classifier tuning parameters.
type Config struct {
	FrontalCascadePath string  // Haar cascade for frontal faces
	ProfileCascadePath string  // Haar cascade for profile faces
	ScaleFactor        float64 // Detection scale step (default 1.1)
	MinNeighbors       int     // Detection neighbor threshold (default 5)
	MinAreaFrac        float64 // Minimum face bbox area as a fraction of frame area
	MaxWidth           int     // Frames wider than this are downscaled before detection
}

// DefaultConfig returns production defaults for the kiosk camera.
func DefaultConfig() Config {
	return Config{
		FrontalCascadePath: "models/haarcascade_frontalface_default.xml",
		ProfileCascadePath: "models/haarcascade_profileface.xml",
		ScaleFactor:        1.1,
		MinNeighbors:       5,
		MinAreaFrac:        0.04,
		MaxWidth:           224,
	}
}

// Classifier detects whether a sufficiently large face is visible in a frame.
// It runs two cascades tuned for frontal and profile orientations and accepts
// a detection only if its bounding box covers MinAreaFrac of the frame, which
// rejects distant or spurious detections.
type Classifier struct {
	frontal gocv.CascadeClassifier
	profile gocv.CascadeClassifier
	config  Config
	mu      sync.Mutex // Protects inference
}

// New creates a classifier from the configured cascade files.
func New(cfg Config) (*Classifier, error) {
	for _, path := range []string{cfg.FrontalCascadePath, cfg.ProfileCascadePath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("cascade file not found: %s", path)
		}
	}

	frontal := gocv.NewCascadeClassifier()
	if !frontal.Load(cfg.FrontalCascadePath) {
		frontal.Close()
		return nil, fmt.Errorf("failed to load cascade: %s", cfg.FrontalCascadePath)
	}

	profile := gocv.NewCascadeClassifier()
	if !profile.Load(cfg.ProfileCascadePath) {
		frontal.Close()
		profile.Close()
		return nil, fmt.Errorf("failed to load cascade: %s", cfg.ProfileCascadePath)
	}

	return &Classifier{
		frontal: frontal,
		profile: profile,
		config:  cfg,
	}, nil
}

// Classify reports whether a sufficiently large face is visible in the JPEG
// frame. When allowRotation is set and the upright pass finds nothing, the
// frame is rotated 90 degrees and checked once more; callers should enable
// this only on a periodic subset of frames to bound CPU cost.
//
// A malformed or undecodable frame classifies as "no face", never an error.
func (c *Classifier) Classify(jpeg []byte, allowRotation bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadGrayScale)
	if err != nil {
		return false
	}
	defer img.Close()

	if img.Empty() {
		return false
	}

	// Defensive downscale: presence only needs coarse detection
	if img.Cols() > c.config.MaxWidth {
		height := img.Rows() * c.config.MaxWidth / img.Cols()
		scaled := gocv.NewMat()
		gocv.Resize(img, &scaled, image.Pt(c.config.MaxWidth, height), 0, 0, gocv.InterpolationArea)
		img.Close()
		img = scaled
	}

	if c.detect(img) {
		return true
	}

	if allowRotation {
		rotated := gocv.NewMat()
		defer rotated.Close()
		gocv.Rotate(img, &rotated, gocv.Rotate90Clockwise)
		return c.detect(rotated)
	}

	return false
}

// detect runs both cascades and applies the minimum-area filter.
func (c *Classifier) detect(img gocv.Mat) bool {
	frameArea := float64(img.Cols() * img.Rows())
	if frameArea == 0 {
		return false
	}

	for _, cascade := range []*gocv.CascadeClassifier{&c.frontal, &c.profile} {
		rects := cascade.DetectMultiScaleWithParams(
			img,
			c.config.ScaleFactor,
			c.config.MinNeighbors,
			0,              // Flags (unused by modern cascades)
			image.Pt(0, 0), // Minimum size; the area filter below does the real work
			image.Pt(0, 0), // No maximum size
		)
		for _, r := range rects {
			area := float64(r.Dx() * r.Dy())
			if area/frameArea >= c.config.MinAreaFrac {
				return true
			}
		}
	}

	return false
}

// Close releases the cascade resources.
func (c *Classifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frontal.Close()
	c.profile.Close()
	return nil
}
