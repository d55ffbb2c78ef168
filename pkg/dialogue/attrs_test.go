package dialogue

import (
	"strings"
	"testing"
)

func TestParseAttrs(t *testing.T) {
	output := `sector: التقنية المالية
stage: فكرة
need: تمويل أولي
team_size: 3
color: blue
note without separator`

	attrs := parseAttrs(output)
	if attrs["sector"] != "التقنية المالية" {
		t.Fatalf("sector not parsed: %v", attrs)
	}
	if attrs["team_size"] != "3" {
		t.Fatalf("team_size not parsed: %v", attrs)
	}
	if _, ok := attrs["color"]; ok {
		t.Fatal("unknown keys must be ignored")
	}
	if len(attrs) != 4 {
		t.Fatalf("expected 4 attrs, got %v", attrs)
	}
}

func TestParseAttrsSkipsPlaceholders(t *testing.T) {
	attrs := parseAttrs("sector: ...\nstage:\nneed: تمويل")
	if _, ok := attrs["sector"]; ok {
		t.Fatal("placeholder values must be ignored")
	}
	if _, ok := attrs["stage"]; ok {
		t.Fatal("empty values must be ignored")
	}
	if attrs["need"] != "تمويل" {
		t.Fatalf("need not parsed: %v", attrs)
	}
}

func TestMissingRequired(t *testing.T) {
	missing := missingRequired(map[string]string{"sector": "صحة"})
	if len(missing) != 2 {
		t.Fatalf("expected 2 missing labels, got %v", missing)
	}
	if missing[0] != slotLabels["stage"] || missing[1] != slotLabels["need"] {
		t.Fatalf("unexpected order: %v", missing)
	}

	full := map[string]string{"sector": "a", "stage": "b", "need": "c"}
	if got := missingRequired(full); len(got) != 0 {
		t.Fatalf("expected nothing missing, got %v", got)
	}
}

func TestMergePendingAnswerFillsFirstEmptySlot(t *testing.T) {
	slots := map[string]string{"sector": "صحة"}
	mergePendingAnswer(slots, "مرحلة الفكرة")
	if slots["stage"] != "مرحلة الفكرة" {
		t.Fatalf("answer should fill stage, got %v", slots)
	}

	mergePendingAnswer(slots, "تمويل")
	if slots["need"] != "تمويل" {
		t.Fatalf("answer should fill need, got %v", slots)
	}

	// All required slots filled: the answer enriches need.
	mergePendingAnswer(slots, "وإرشاد")
	if slots["need"] != "تمويل وإرشاد" {
		t.Fatalf("answer should enrich need, got %v", slots)
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  Hello   World  ", "hello world"},
		{"ما هي  القواعد؟", "ما هي القواعد؟"},
		{"\t\n", ""},
	}
	for _, tt := range tests {
		if got := normalizeText(tt.in); got != tt.want {
			t.Errorf("normalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestContextualQuery(t *testing.T) {
	slots := map[string]string{"sector": "صحة", "need": "تمويل"}
	q := contextualQuery("فكرتي", slots, []string{"أول سؤال", "ثاني سؤال"})

	if !strings.HasPrefix(q, "فكرتي") {
		t.Fatalf("query must start with the utterance: %q", q)
	}
	if !strings.Contains(q, "صحة") || !strings.Contains(q, "تمويل") {
		t.Fatalf("query must include slot values: %q", q)
	}
	if !strings.Contains(q, "|| context: أول سؤال | ثاني سؤال") {
		t.Fatalf("query must append prior turns: %q", q)
	}
}

func TestContextualQueryCapsContext(t *testing.T) {
	q := contextualQuery("س", nil, []string{"a", "b", "c"})
	if strings.Contains(q, "a") {
		t.Fatalf("only the last two prior turns belong in context: %q", q)
	}
	if !strings.Contains(q, "b | c") {
		t.Fatalf("expected last two turns: %q", q)
	}
}

func TestContextualQueryNoContext(t *testing.T) {
	q := contextualQuery("سؤال", nil, nil)
	if strings.Contains(q, "context:") {
		t.Fatalf("no context marker without prior turns: %q", q)
	}
}

func TestSlotsText(t *testing.T) {
	out := slotsText(map[string]string{"need": "تمويل", "sector": "صحة"})
	// Stable alphabetical order regardless of map iteration.
	needIdx := strings.Index(out, "need")
	sectorIdx := strings.Index(out, "sector")
	if needIdx == -1 || sectorIdx == -1 || needIdx > sectorIdx {
		t.Fatalf("expected sorted key lines, got %q", out)
	}

	if slotsText(nil) == "" {
		t.Fatal("empty slots need a placeholder, not an empty string")
	}
}
