package dialogue

import (
	"sort"
	"strings"
)

// Slot keys the attribute extraction prompt asks for. sector, stage and need
// are required before a recommendation is attempted.
var (
	knownSlots    = []string{"sector", "stage", "need", "team_size", "city"}
	requiredSlots = []string{"sector", "stage", "need"}

	slotLabels = map[string]string{
		"sector": "القطاع",
		"stage":  "المرحلة",
		"need":   "نوع الدعم المطلوب",
	}
)

// normalizeText collapses whitespace and lowercases for dedupe comparison.
func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// parseAttrs extracts "key: value" lines for known slot keys from the
// model's attribute output. Unknown lines and empty values are ignored.
func parseAttrs(output string) map[string]string {
	attrs := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		key, val, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		if val == "" || val == "..." {
			continue
		}
		for _, known := range knownSlots {
			if key == known {
				attrs[key] = val
				break
			}
		}
	}
	return attrs
}

// missingRequired returns the Arabic labels of required slots not yet filled,
// in a stable order.
func missingRequired(slots map[string]string) []string {
	var missing []string
	for _, k := range requiredSlots {
		if slots[k] == "" {
			missing = append(missing, slotLabels[k])
		}
	}
	return missing
}

// mergePendingAnswer folds a free-form answer to a clarifying question into
// the slots. The answer fills whichever required slot is still empty; when
// all are filled it enriches the need slot.
func mergePendingAnswer(slots map[string]string, answer string) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return
	}
	for _, k := range requiredSlots {
		if slots[k] == "" {
			slots[k] = answer
			return
		}
	}
	slots["need"] = slots["need"] + " " + answer
}

// slotsText renders the collected slots as key: value lines in stable order.
func slotsText(slots map[string]string) string {
	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(slots[k])
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "(لا توجد سمات بعد)"
	}
	return b.String()
}

// contextualQuery builds the retrieval query from the current utterance, the
// filled slots, and up to the last two prior user turns.
func contextualQuery(text string, slots map[string]string, recent []string) string {
	parts := []string{text}
	for _, k := range knownSlots {
		if v := slots[k]; v != "" {
			parts = append(parts, v)
		}
	}
	q := strings.Join(parts, " ")
	if len(recent) > 0 {
		if len(recent) > 2 {
			recent = recent[len(recent)-2:]
		}
		q += " || context: " + strings.Join(recent, " | ")
	}
	return q
}
