// Package protocol defines the websocket event names and payloads exchanged
// between the kiosk server and its browser clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event identifies the type of a websocket event.
type Event string

const (
	// Client → Server events
	EventFrame         Event = "frame"                 // Camera frame (binary payload or base64 JSON)
	EventUtterance     Event = "utterance"             // Recognized or typed user text
	EventSpeechStarted Event = "speech-started"        // Client-side TTS playback began
	EventSpeechEnded   Event = "speech-ended"          // Client-side TTS playback finished
	EventRequestFrame  Event = "request-current-frame" // On-demand avatar frame fetch

	// Server → Client events
	EventConnectionAck   Event = "connection-ack"
	EventPresenceChanged Event = "presence-changed"
	EventSpeakingChanged Event = "speaking-changed"
	EventReplyText       Event = "reply-text"
	EventReplyAudioCue   Event = "reply-audio-cue"
	EventVideoFrame      Event = "video-frame"
)

// Envelope is the base wrapper for all JSON websocket events.
type Envelope struct {
	Event     Event           `json:"event"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope creates an envelope with the current timestamp.
func NewEnvelope(event Event, data any) (*Envelope, error) {
	var raw json.RawMessage
	if data != nil {
		var err error
		raw, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal event data: %w", err)
		}
	}

	return &Envelope{
		Event:     event,
		Timestamp: time.Now().UnixMilli(),
		Data:      raw,
	}, nil
}

// ParseData unmarshals the envelope data into the provided struct.
func (e *Envelope) ParseData(v any) error {
	if e.Data == nil {
		return nil
	}
	return json.Unmarshal(e.Data, v)
}

// Bytes returns the JSON-encoded envelope.
func (e *Envelope) Bytes() ([]byte, error) {
	return json.Marshal(e)
}

// ParseEnvelope parses a JSON envelope from bytes.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse envelope: %w", err)
	}
	if env.Event == "" {
		return nil, fmt.Errorf("envelope has no event name")
	}
	return &env, nil
}

// =============================================================================
// Client → Server payloads
// =============================================================================

// UtteranceData carries user text from speech recognition or the keyboard.
type UtteranceData struct {
	Text string `json:"text"`
}

// FrameData carries a camera frame when the client cannot send binary messages.
type FrameData struct {
	Data string `json:"data"` // base64-encoded JPEG
}

// =============================================================================
// Server → Client payloads
// =============================================================================

// AckData confirms a new connection and assigns the client its id.
type AckData struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
}

// PresenceData reports the debounced presence state.
type PresenceData struct {
	Present bool `json:"present"`
}

// SpeakingData reports whether the kiosk is currently speaking to this client.
type SpeakingData struct {
	Speaking bool `json:"speaking"`
}

// ReplyData carries reply text. Sent twice per reply: once as reply-text for
// display and once as reply-audio-cue so the client can drive TTS separately.
type ReplyData struct {
	Text string `json:"text"`
}

// VideoFrameData carries one encoded avatar frame.
type VideoFrameData struct {
	Frame string `json:"frame"` // base64-encoded JPEG
}
