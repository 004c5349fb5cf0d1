// Package keywords turns headline text into ranked candidate terms
package keywords

import (
	"sort"
	"strings"
	"sync"
)

// TermCount is a term and how often it occurred in one text
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// Extractor ranks the alphabetic, non stop terms of a text
// it holds no mutable state and is safe for concurrent use
type Extractor struct {
	stops *StopSet
}

// NewExtractor builds an extractor over stops, nil means DefaultStopSet
func NewExtractor(stops *StopSet) *Extractor {
	if stops == nil {
		stops = DefaultStopSet()
	}
	return &Extractor{stops: stops}
}

// Default returns the shared extractor over the default stop set
var Default = sync.OnceValue(func() *Extractor { return NewExtractor(nil) })

// StopSet returns the set the extractor filters with
func (e *Extractor) StopSet() *StopSet { return e.stops }

// Extract returns up to topN distinct terms, most frequent first
// ties keep first occurrence order
func (e *Extractor) Extract(text string, topN int) []string {
	counts := e.Counts(text, topN)
	out := make([]string, len(counts))
	for i, c := range counts {
		out[i] = c.Term
	}
	return out
}

// Counts is Extract with the per text frequency of each term
func (e *Extractor) Counts(text string, topN int) []TermCount {
	if topN <= 0 || text == "" {
		return []TermCount{}
	}

	freq := make(map[string]int)
	var order []string
	for _, tok := range Tokenize(text) {
		if !isAlpha(tok) || e.stops.Contains(tok) {
			continue
		}
		if _, seen := freq[tok]; !seen {
			order = append(order, tok)
		}
		freq[tok]++
	}

	out := make([]TermCount, len(order))
	for i, t := range order {
		out[i] = TermCount{Term: t, Count: freq[t]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })

	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// IsTerm reports whether term is something the default extractor can emit:
// lower case, purely alphabetic and outside DefaultStopSet
func IsTerm(term string) bool {
	return isAlpha(term) && strings.ToLower(term) == term && !DefaultStopSet().Contains(term)
}

// Tally counts terms across many per item extractions, first seen order on ties
// a collection batch uses it to produce one count per term
func Tally(batches ...[]string) []TermCount {
	freq := make(map[string]int)
	var order []string
	for _, terms := range batches {
		for _, t := range terms {
			if _, seen := freq[t]; !seen {
				order = append(order, t)
			}
			freq[t]++
		}
	}
	out := make([]TermCount, len(order))
	for i, t := range order {
		out[i] = TermCount{Term: t, Count: freq[t]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
