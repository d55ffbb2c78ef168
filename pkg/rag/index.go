package rag

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Index holds the searchable corpora. Building the searchable text once at
// load time keeps per-query work to the fuzzy match itself; results are
// deterministic for identical inputs.
type Index struct {
	programs     []Program
	rules        []Rule
	programTexts []string
	ruleTexts    []string
}

// Load reads both corpora from JSON files and builds the index. A missing or
// malformed corpus file is fatal: the kiosk must not start with an empty
// knowledge base and silently fabricate answers.
func Load(programsPath, rulesPath string) (*Index, error) {
	var programs []Program
	if err := loadJSON(programsPath, &programs); err != nil {
		return nil, fmt.Errorf("load programs corpus: %w", err)
	}

	var rules []Rule
	if err := loadJSON(rulesPath, &rules); err != nil {
		return nil, fmt.Errorf("load rules corpus: %w", err)
	}

	return NewIndex(programs, rules), nil
}

// NewIndex builds an index over in-memory corpora.
func NewIndex(programs []Program, rules []Rule) *Index {
	ix := &Index{
		programs:     programs,
		rules:        rules,
		programTexts: make([]string, len(programs)),
		ruleTexts:    make([]string, len(rules)),
	}

	for i, p := range programs {
		parts := []string{p.PageTitle, p.Description}
		parts = append(parts, p.Sidebar["الفئة المستفيدة"]...)
		for _, tab := range p.Tabs {
			parts = append(parts, tab...)
		}
		ix.programTexts[i] = strings.ToLower(strings.Join(parts, " "))
	}

	for i, r := range rules {
		ix.ruleTexts[i] = strings.ToLower(r.Title + " " + r.Content)
	}

	return ix
}

// SearchPrograms returns up to k programs ranked by fuzzy match score.
// May return an empty slice; never errors.
func (ix *Index) SearchPrograms(query string, k int) []ProgramHit {
	matches := search(query, ix.programTexts, k)
	hits := make([]ProgramHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, ProgramHit{Score: m.Score, Program: ix.programs[m.Index]})
	}
	return hits
}

// SearchRules returns up to k rules ranked by fuzzy match score.
// May return an empty slice; never errors.
func (ix *Index) SearchRules(query string, k int) []RuleHit {
	matches := search(query, ix.ruleTexts, k)
	hits := make([]RuleHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, RuleHit{Score: m.Score, Rule: ix.rules[m.Index]})
	}
	return hits
}

// ProgramCount returns the number of indexed programs.
func (ix *Index) ProgramCount() int { return len(ix.programs) }

// RuleCount returns the number of indexed rules.
func (ix *Index) RuleCount() int { return len(ix.rules) }

// match pairs a record index with its accumulated score.
type match struct {
	Index int
	Score int
}

// search scores each record by accumulating fuzzy match scores over the
// query's tokens, so multi-clause queries (utterance plus appended context)
// still rank records that match any clause. Ties break on record order,
// keeping results deterministic for identical inputs.
func search(query string, texts []string, k int) []match {
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 || len(texts) == 0 {
		return nil
	}

	scores := make(map[int]int)
	for _, tok := range tokens {
		if tok == "||" || tok == "context:" {
			continue
		}
		for _, m := range fuzzy.Find(tok, texts) {
			scores[m.Index] += m.Score
		}
	}

	matches := make([]match, 0, len(scores))
	for idx, score := range scores {
		matches = append(matches, match{Index: idx, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Index < matches[j].Index
	})

	if k > 0 && len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
