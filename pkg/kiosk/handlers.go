package kiosk

import (
	"context"
	"encoding/base64"

	"github.com/rashidlabs/go-kiosk/internal/log"
	"github.com/rashidlabs/go-kiosk/pkg/presence"
	"github.com/rashidlabs/go-kiosk/pkg/protocol"
)

// handleConnect acknowledges the new client and primes it with the current
// avatar frame so the face appears before the first scheduler tick arrives.
func (a *App) handleConnect(clientID string) {
	a.hub.SendEvent(clientID, protocol.EventConnectionAck, protocol.AckData{
		ClientID: clientID,
		Status:   "connected",
	})
	a.sendCurrentFrame(clientID)
}

// handleDisconnect purges every per-client component so a reconnecting
// visitor starts a fresh episode.
func (a *App) handleDisconnect(clientID string) {
	a.sessions.Remove(clientID)
	a.tracker.Remove(clientID)
	a.lock.Remove(clientID)
	a.dropSampler(clientID)
}

// handleEvent dispatches one inbound JSON event from a client.
func (a *App) handleEvent(clientID string, env *protocol.Envelope) {
	switch env.Event {
	case protocol.EventUtterance:
		var data protocol.UtteranceData
		if err := env.ParseData(&data); err != nil {
			log.Debug("malformed utterance payload", "client_id", clientID, log.Err(err))
			return
		}
		// Generation does network I/O; never block the hub dispatch path.
		go a.dialogue.HandleUtterance(context.Background(), clientID, data.Text)

	case protocol.EventSpeechStarted:
		// Playback began on the client; re-base the watchdog deadline so a
		// slow TTS start is not cut off by a timer armed at send time.
		a.lock.MarkStarted(clientID)

	case protocol.EventSpeechEnded:
		a.lock.EndSpeak(clientID)

	case protocol.EventRequestFrame:
		a.sendCurrentFrame(clientID)

	case protocol.EventFrame:
		var data protocol.FrameData
		if err := env.ParseData(&data); err != nil {
			log.Debug("malformed frame payload", "client_id", clientID, log.Err(err))
			return
		}
		jpeg, err := base64.StdEncoding.DecodeString(data.Data)
		if err != nil {
			log.Debug("undecodable frame payload", "client_id", clientID, log.Err(err))
			return
		}
		a.handleFrame(clientID, jpeg)

	default:
		log.Debug("ignoring unknown event", "client_id", clientID, "event", env.Event)
	}
}

// handleFrame runs one camera frame through the sampling policy, classifier
// and presence debouncer. Also the hub's binary message handler.
func (a *App) handleFrame(clientID string, jpeg []byte) {
	if a.classifier == nil {
		return
	}

	classify, allowRotation := a.sampler(clientID).Next()
	if !classify {
		return
	}

	raw := a.classifier.Classify(jpeg, allowRotation)
	a.applyPresence(clientID, a.tracker.Update(clientID, raw))
}

// applyPresence announces a debounced presence transition and triggers the
// matching dialogue action.
func (a *App) applyPresence(clientID string, ev presence.Event) {
	switch ev {
	case presence.Entered:
		log.Info("visitor entered", "client_id", clientID)
		a.hub.SendEvent(clientID, protocol.EventPresenceChanged, protocol.PresenceData{Present: true})
		a.dialogue.Greet(clientID)

	case presence.Left:
		log.Info("visitor left", "client_id", clientID)
		a.hub.SendEvent(clientID, protocol.EventPresenceChanged, protocol.PresenceData{Present: false})
		a.dialogue.Farewell(clientID)
	}
}

func (a *App) sendCurrentFrame(clientID string) {
	frame := a.scheduler.CurrentFrame()
	if frame == nil {
		return
	}
	a.hub.SendEvent(clientID, protocol.EventVideoFrame, protocol.VideoFrameData{
		Frame: base64.StdEncoding.EncodeToString(frame),
	})
}
