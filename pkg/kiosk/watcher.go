package kiosk

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/rashidlabs/go-kiosk/internal/log"
)

// watcherPeriod paces server-side camera sampling. The classifier's frame
// sampler is bypassed here since the watcher already reads far below camera
// frame rate.
const watcherPeriod = 200 * time.Millisecond

// runWatcher polls a server-attached camera and feeds its observations into
// every connected client's presence debouncer. Used for deployments where
// the camera is on the kiosk box rather than behind the browser.
func (a *App) runWatcher(ctx context.Context) {
	if a.classifier == nil {
		log.Warn("camera watcher requested but no classifier available")
		return
	}

	cam, err := gocv.OpenVideoCapture(a.cfg.CameraIndex)
	if err != nil {
		log.Error("failed to open camera", "index", a.cfg.CameraIndex, log.Err(err))
		return
	}
	defer cam.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	sampler := a.sampler("local-camera")
	defer a.dropSampler("local-camera")

	ticker := time.NewTicker(watcherPeriod)
	defer ticker.Stop()

	log.Info("camera watcher started", "index", a.cfg.CameraIndex)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !cam.Read(&frame) || frame.Empty() {
				continue
			}
			buf, err := gocv.IMEncode(".jpg", frame)
			if err != nil {
				continue
			}
			_, allowRotation := sampler.Next()
			raw := a.classifier.Classify(buf.GetBytes(), allowRotation)
			buf.Close()

			// One physical camera serves every connected client's episode.
			for _, id := range a.hub.ClientIDs() {
				a.applyPresence(id, a.tracker.Update(id, raw))
			}
		}
	}
}
