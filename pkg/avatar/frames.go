// Package avatar serves the kiosk's animated face: pre-decoded JPEG frame
// loops for idle and talking states, streamed to clients at a fixed rate.
package avatar

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"gocv.io/x/gocv"

	"github.com/rashidlabs/go-kiosk/internal/log"
)

const (
	frameWidth  = 1280
	frameHeight = 720
)

// LibraryConfig points at the avatar media on disk. Any missing file falls
// back to the next option rather than failing startup; the kiosk always has
// a face, even a plain one.
type LibraryConfig struct {
	IdleVideoPath    string
	TalkingVideoPath string
	FallbackImage    string // Static frame used when a video is missing
}

// DefaultLibraryConfig returns the standard media layout.
func DefaultLibraryConfig() LibraryConfig {
	return LibraryConfig{
		IdleVideoPath:    "media/avatar_idle.mp4",
		TalkingVideoPath: "media/avatar_talking.mp4",
		FallbackImage:    "media/avatar.png",
	}
}

// Library holds the decoded frame loops. Frames are JPEG-encoded once at load
// time; serving a frame is a slice read.
type Library struct {
	idle    [][]byte
	talking [][]byte
}

// LoadLibrary decodes the avatar videos into JPEG frame loops. When a video
// cannot be opened, the loop degrades to a single static frame from the
// fallback image, or a solid placeholder when even that is missing.
func LoadLibrary(cfg LibraryConfig) (*Library, error) {
	fallback, err := loadFallbackFrame(cfg.FallbackImage)
	if err != nil {
		return nil, err
	}

	lib := &Library{}

	lib.idle, err = decodeFrames(cfg.IdleVideoPath)
	if err != nil {
		log.Warn("idle avatar video unavailable, using static frame", "path", cfg.IdleVideoPath, log.Err(err))
		lib.idle = [][]byte{fallback}
	}

	lib.talking, err = decodeFrames(cfg.TalkingVideoPath)
	if err != nil {
		log.Warn("talking avatar video unavailable, using idle loop", "path", cfg.TalkingVideoPath, log.Err(err))
		lib.talking = lib.idle
	}

	log.Info("avatar library loaded", "idle_frames", len(lib.idle), "talking_frames", len(lib.talking))
	return lib, nil
}

// NewLibrary builds a library from pre-encoded frames, for tests.
func NewLibrary(idle, talking [][]byte) *Library {
	if len(talking) == 0 {
		talking = idle
	}
	return &Library{idle: idle, talking: talking}
}

// Idle returns the idle frame loop.
func (l *Library) Idle() [][]byte { return l.idle }

// Talking returns the talking frame loop.
func (l *Library) Talking() [][]byte { return l.talking }

// decodeFrames reads every frame of a video file, resizes to the canvas
// size, and JPEG-encodes it.
func decodeFrames(path string) ([][]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	defer vc.Close()

	frame := gocv.NewMat()
	defer frame.Close()
	resized := gocv.NewMat()
	defer resized.Close()

	var frames [][]byte
	for vc.Read(&frame) {
		if frame.Empty() {
			continue
		}
		gocv.Resize(frame, &resized, image.Pt(frameWidth, frameHeight), 0, 0, gocv.InterpolationArea)
		buf, err := gocv.IMEncode(".jpg", resized)
		if err != nil {
			return nil, fmt.Errorf("encode frame from %s: %w", path, err)
		}
		jpeg := make([]byte, len(buf.GetBytes()))
		copy(jpeg, buf.GetBytes())
		buf.Close()
		frames = append(frames, jpeg)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames decoded from %s", path)
	}
	return frames, nil
}

// loadFallbackFrame loads the static fallback image, or renders a solid
// placeholder when the image is missing too.
func loadFallbackFrame(path string) ([]byte, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			img := gocv.IMRead(path, gocv.IMReadColor)
			if !img.Empty() {
				defer img.Close()
				resized := gocv.NewMat()
				defer resized.Close()
				gocv.Resize(img, &resized, image.Pt(frameWidth, frameHeight), 0, 0, gocv.InterpolationArea)
				buf, err := gocv.IMEncode(".jpg", resized)
				if err != nil {
					return nil, fmt.Errorf("encode fallback frame: %w", err)
				}
				defer buf.Close()
				jpeg := make([]byte, len(buf.GetBytes()))
				copy(jpeg, buf.GetBytes())
				return jpeg, nil
			}
		}
	}

	placeholder := gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(40, 36, 32, 0), frameHeight, frameWidth, gocv.MatTypeCV8UC3)
	defer placeholder.Close()
	gocv.PutText(&placeholder, "RASHID", image.Pt(frameWidth/2-120, frameHeight/2),
		gocv.FontHersheySimplex, 2.0, color.RGBA{R: 230, G: 230, B: 230}, 3)
	buf, err := gocv.IMEncode(".jpg", placeholder)
	if err != nil {
		return nil, fmt.Errorf("encode placeholder frame: %w", err)
	}
	defer buf.Close()
	jpeg := make([]byte, len(buf.GetBytes()))
	copy(jpeg, buf.GetBytes())
	return jpeg, nil
}
