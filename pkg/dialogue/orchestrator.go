// Package dialogue orchestrates the kiosk's conversation flow: it takes
// recognized utterances, routes them through retrieval and generation, and
// hands replies to the speech gate. Only replies that win the gate are spoken
// and recorded.
package dialogue

import (
	"context"
	"strings"
	"time"

	"github.com/rashidlabs/go-kiosk/internal/log"
	"github.com/rashidlabs/go-kiosk/pkg/llm"
	"github.com/rashidlabs/go-kiosk/pkg/rag"
	"github.com/rashidlabs/go-kiosk/pkg/session"
	"github.com/rashidlabs/go-kiosk/pkg/speech"
)

// Canned Arabic replies. The greeting and farewell are fixed by product copy;
// the rest are fallbacks when generation or retrieval cannot produce a
// grounded answer.
const (
	GreetingText   = " حَيَّاكَ اللَّه! أَنَا رَاشِد، كيف اقدر اخدمك؟"
	FarewellText   = "تَشَرَّفْتُ بِخِدْمَتِكَ، مَعَ السَّلَامَة!"
	apologyText    = "صارت مشكلة بسيطة في المساعد. جرّبي إعادة السؤال."
	rulesMissText  = "لم أجد نصًا صريحًا يجيب عن سؤالك في اللوائح. اسأل المرشدين المتواجدين."
	moreDetailText = "أعطني نبذة مختصرة عن فكرتك (القطاع، المرحلة، نوع الدعم المطلوب) لأرشّح لك مبادرة مناسبة."
	clarifyPrefix  = "عطني سطر واحد يوضح: "
)

// Generator produces a text reply for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever searches the local knowledge base.
type Retriever interface {
	SearchPrograms(query string, k int) []rag.ProgramHit
	SearchRules(query string, k int) []rag.RuleHit
}

// Speaker gates reply delivery. TrySpeak returns false when the client is
// already being spoken to, in which case the reply is dropped.
type Speaker interface {
	TrySpeak(clientID, text string, expected time.Duration) bool
	Speaking(clientID string) bool
}

// Config holds dialogue tuning knobs.
type Config struct {
	DedupeWindow     time.Duration // Identical utterances inside this window are dropped
	GreetCooldown    time.Duration
	FarewellCooldown time.Duration
	TopK             int // Retrieval depth
	ContextTurns     int // Prior user turns appended to the retrieval query
}

// DefaultConfig returns production dialogue settings.
func DefaultConfig() Config {
	return Config{
		DedupeWindow:     2 * time.Second,
		GreetCooldown:    10 * time.Second,
		FarewellCooldown: 10 * time.Second,
		TopK:             3,
		ContextTurns:     2,
	}
}

// Orchestrator runs the utterance handling flow for all clients.
type Orchestrator struct {
	cfg      Config
	sessions *session.Store
	gen      Generator
	ret      Retriever
	spk      Speaker

	now func() time.Time
}

// New creates a dialogue orchestrator.
func New(cfg Config, sessions *session.Store, gen Generator, ret Retriever, spk Speaker) *Orchestrator {
	if cfg.TopK <= 0 {
		cfg.TopK = 3
	}
	return &Orchestrator{
		cfg:      cfg,
		sessions: sessions,
		gen:      gen,
		ret:      ret,
		spk:      spk,
		now:      time.Now,
	}
}

// HandleUtterance processes one recognized utterance. Duplicates, empty text,
// and utterances arriving while the client is being spoken to are dropped
// without a reply. Meant to run on its own goroutine per utterance; session
// state is read and written under the store lock while network calls happen
// outside it.
func (o *Orchestrator) HandleUtterance(ctx context.Context, clientID, text string) {
	norm := normalizeText(text)
	if norm == "" {
		return
	}

	if o.spk.Speaking(clientID) {
		log.Debug("utterance dropped while speaking", "client_id", clientID)
		return
	}

	var (
		duplicate bool
		pending   string
		slots     map[string]string
		recent    []string
	)
	o.sessions.With(clientID, func(s *session.Session) {
		if s.LastUserText == norm && o.now().Sub(s.LastUserAt) < o.cfg.DedupeWindow {
			duplicate = true
			return
		}
		s.LastUserText = norm
		s.LastUserAt = o.now()
		s.Append(session.RoleUser, text)

		pending = s.PendingQuestion
		slots = copySlots(s.Slots)
		recent = s.RecentUserTexts(o.cfg.ContextTurns)
	})
	if duplicate {
		log.Debug("duplicate utterance dropped", "client_id", clientID)
		return
	}

	if pending != "" {
		o.answerPending(ctx, clientID, text, slots, recent)
		return
	}

	intent, err := o.gen.Generate(ctx, llm.IntentPrompt(text))
	if err != nil {
		log.Error("intent classification failed", "client_id", clientID, log.Err(err))
		o.say(clientID, apologyText)
		return
	}

	if llm.IsRulesIntent(intent) {
		o.answerRules(ctx, clientID, text)
		return
	}
	o.recommendProgram(ctx, clientID, text, slots, recent)
}

// Greet speaks the greeting once per presence episode, rate limited by the
// greet cooldown.
func (o *Orchestrator) Greet(clientID string) {
	var ok bool
	o.sessions.With(clientID, func(s *session.Session) {
		if s.Greeted && o.now().Sub(s.LastGreetAt) < o.cfg.GreetCooldown {
			return
		}
		s.Greeted = true
		s.LastGreetAt = o.now()
		ok = true
	})
	if ok {
		o.say(clientID, GreetingText)
	}
}

// Farewell speaks the farewell and resets the greeting episode so the next
// arrival is greeted again. Rate limited by the farewell cooldown.
func (o *Orchestrator) Farewell(clientID string) {
	var ok bool
	o.sessions.With(clientID, func(s *session.Session) {
		if o.now().Sub(s.LastFarewellAt) < o.cfg.FarewellCooldown {
			return
		}
		s.LastFarewellAt = o.now()
		s.Greeted = false
		s.PendingQuestion = ""
		ok = true
	})
	if ok {
		o.say(clientID, FarewellText)
	}
}

// answerPending treats the utterance as the answer to the outstanding
// clarifying question, merges it into the slots, and retries the
// recommendation. The prior user turns still feed the retrieval query: the
// answer alone is usually too thin to retrieve on.
func (o *Orchestrator) answerPending(ctx context.Context, clientID, text string, slots map[string]string, recent []string) {
	mergePendingAnswer(slots, text)
	o.sessions.With(clientID, func(s *session.Session) {
		s.PendingQuestion = ""
		for k, v := range slots {
			s.Slots[k] = v
		}
	})
	o.recommendProgram(ctx, clientID, text, slots, recent)
}

func (o *Orchestrator) answerRules(ctx context.Context, clientID, text string) {
	hits := o.ret.SearchRules(text, o.cfg.TopK)
	if len(hits) == 0 {
		o.say(clientID, rulesMissText)
		return
	}

	var b strings.Builder
	for _, h := range hits {
		b.WriteString("- ")
		b.WriteString(h.Rule.Title)
		b.WriteString(": ")
		b.WriteString(h.Rule.Content)
		b.WriteString("\n")
	}

	reply, err := o.gen.Generate(ctx, llm.RulesPrompt(text, b.String()))
	if err != nil {
		log.Error("rules answer failed", "client_id", clientID, log.Err(err))
		o.say(clientID, apologyText)
		return
	}
	o.say(clientID, reply)
}

func (o *Orchestrator) recommendProgram(ctx context.Context, clientID, text string, slots map[string]string, recent []string) {
	attrsOut, err := o.gen.Generate(ctx, llm.AttrsPrompt(text))
	if err != nil {
		log.Error("attribute extraction failed", "client_id", clientID, log.Err(err))
		o.say(clientID, apologyText)
		return
	}
	for k, v := range parseAttrs(attrsOut) {
		if _, have := slots[k]; !have {
			slots[k] = v
		}
	}
	o.sessions.With(clientID, func(s *session.Session) {
		for k, v := range slots {
			s.Slots[k] = v
		}
	})

	if missing := missingRequired(slots); len(missing) > 0 {
		question := clarifyPrefix + strings.Join(missing, "، ") + "؟"
		o.sessions.With(clientID, func(s *session.Session) {
			s.PendingQuestion = question
		})
		o.say(clientID, question)
		return
	}

	hits := o.ret.SearchPrograms(contextualQuery(text, slots, recent), o.cfg.TopK)
	if len(hits) == 0 {
		o.say(clientID, moreDetailText)
		return
	}

	top := hits[0]
	reply, err := o.gen.Generate(ctx, llm.ProgramPrompt(text, slotsText(slots), programBrief(top.Program), top.Score))
	if err != nil {
		log.Error("recommendation failed", "client_id", clientID, log.Err(err))
		o.say(clientID, apologyText)
		return
	}
	o.say(clientID, reply)
}

// say offers the reply to the speech gate and records it in the transcript
// only when the gate accepts it. A losing reply leaves no trace.
func (o *Orchestrator) say(clientID, text string) {
	expected := speech.EstimateDuration(text)
	if !o.spk.TrySpeak(clientID, text, expected) {
		log.Debug("reply dropped, client already speaking", "client_id", clientID)
		return
	}
	o.sessions.With(clientID, func(s *session.Session) {
		s.Append(session.RoleAssistant, text)
	})
}

func copySlots(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// maxBriefDescription bounds the description passed to the recommendation
// prompt; the full corpus record can run to pages.
const maxBriefDescription = 300

func programBrief(p rag.Program) string {
	var b strings.Builder
	b.WriteString(p.PageTitle)
	if p.Description != "" {
		b.WriteString("\n")
		b.WriteString(truncateRunes(p.Description, maxBriefDescription))
	}
	if p.URL != "" {
		b.WriteString("\n")
		b.WriteString(p.URL)
	}
	return b.String()
}

// truncateRunes cuts s to at most n runes, never splitting a character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
