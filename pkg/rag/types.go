// Package rag provides fuzzy retrieval over the kiosk's local knowledge base:
// enablement program records and event rule passages loaded from JSON files.
package rag

// Program is one enablement program record from the programs corpus.
type Program struct {
	PageTitle   string              `json:"page_title"`
	URL         string              `json:"url"`
	Description string              `json:"description"`
	Sidebar     map[string][]string `json:"sidebar"`
	Tabs        map[string][]string `json:"tabs"`
}

// Rule is one rule passage from the rules corpus.
type Rule struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ProgramHit is a scored program match. Higher scores rank first.
type ProgramHit struct {
	Score   int
	Program Program
}

// RuleHit is a scored rule match. Higher scores rank first.
type RuleHit struct {
	Score int
	Rule  Rule
}
