package protocol

import (
	"testing"
)

func TestEnvelopeRoundtrip(t *testing.T) {
	env, err := NewEnvelope(EventUtterance, UtteranceData{Text: "كم عدد أعضاء الفريق؟"})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	if env.Timestamp == 0 {
		t.Fatal("envelope should carry a timestamp")
	}

	raw, err := env.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	parsed, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	if parsed.Event != EventUtterance {
		t.Fatalf("expected event %q, got %q", EventUtterance, parsed.Event)
	}

	var data UtteranceData
	if err := parsed.ParseData(&data); err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if data.Text != "كم عدد أعضاء الفريق؟" {
		t.Fatalf("utterance text lost in roundtrip: %q", data.Text)
	}
}

func TestEnvelopeWithoutData(t *testing.T) {
	env, err := NewEnvelope(EventSpeechEnded, nil)
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	raw, err := env.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	parsed, err := ParseEnvelope(raw)
	if err != nil {
		t.Fatalf("ParseEnvelope: %v", err)
	}
	// ParseData on an empty payload is a no-op, not an error.
	var data SpeakingData
	if err := parsed.ParseData(&data); err != nil {
		t.Fatalf("ParseData on empty payload: %v", err)
	}
}

func TestParseEnvelopeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "hello"},
		{"missing event", `{"ts": 123}`},
		{"empty object", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseEnvelope([]byte(tt.raw)); err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
		})
	}
}
