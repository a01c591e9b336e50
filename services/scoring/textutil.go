// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scoring

import (
	"regexp"
	"strings"
)

// Package-level compiled regexes for text extraction (compiled once).
var (
	// sentenceEndRegex splits on sentence-final punctuation followed by
	// whitespace. Go's regexp has no lookbehind, so the punctuation is
	// captured and re-attached by splitSentences.
	sentenceEndRegex = regexp.MustCompile(`([.!?])\s+`)

	// numberPatterns are applied in order and their matches unioned.
	// The ordering matters only for readability; the result is a set.
	numberPatterns = []*regexp.Regexp{
		// Dollar amounts with optional magnitude suffix: "$2.5 million", "$25,000"
		regexp.MustCompile(`\$[\d,]+(?:\.\d+)?(?:\s*(?:million|billion|M|B|K))?`),
		// Large numbers with comma grouping: "1,250,000"
		regexp.MustCompile(`\d{1,3}(?:,\d{3})+(?:\.\d+)?`),
		// Percentages: "12.5 %", "80%"
		regexp.MustCompile(`\d+\.?\d*\s*%`),
		// Bare numbers: "42", "3.14"
		regexp.MustCompile(`\d+\.?\d*`),
	}

	// policyNumberRegex matches policy/reference numbers: "CPP-48291", "WC 10427".
	policyNumberRegex = regexp.MustCompile(`[A-Z]{2,4}[-\s]?\d{4,}`)

	// slashDateRegex matches numeric dates: "3/15/2024".
	slashDateRegex = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)

	// longDateRegex matches long-form dates: "January 15, 2024".
	longDateRegex = regexp.MustCompile(`(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}`)

	// capitalizedPhraseRegex matches capitalized multi-word phrases, the
	// heuristic stand-in for company and person names. 1-4 trailing words
	// keeps "Acme Insurance Group" but drops single capitalized words,
	// which are overwhelmingly sentence starts.
	capitalizedPhraseRegex = regexp.MustCompile(`[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,4}`)

	// tokenRegex extracts lowercase alphanumeric runs for tokenize.
	tokenRegex = regexp.MustCompile(`[a-z0-9]+`)
)

// stopwords is the fixed stopword set for tokenize. Kept package-level to
// avoid reallocating per call.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "was": {}, "were": {},
	"be": {}, "been": {}, "being": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "shall": {}, "can": {}, "need": {},
	"to": {}, "of": {}, "in": {}, "for": {}, "on": {}, "with": {}, "at": {},
	"by": {}, "from": {}, "as": {}, "into": {}, "through": {}, "during": {},
	"before": {}, "after": {}, "above": {}, "below": {}, "between": {},
	"out": {}, "off": {}, "over": {}, "under": {}, "again": {}, "further": {},
	"then": {}, "once": {}, "and": {}, "but": {}, "or": {}, "nor": {},
	"not": {}, "so": {}, "yet": {}, "both": {}, "either": {}, "neither": {},
	"each": {}, "every": {}, "all": {}, "any": {}, "few": {}, "more": {},
	"most": {}, "other": {}, "some": {}, "such": {}, "no": {}, "only": {},
	"own": {}, "same": {}, "than": {}, "too": {}, "very": {}, "just": {},
	"because": {}, "if": {}, "when": {}, "where": {}, "how": {}, "what": {},
	"which": {}, "who": {}, "whom": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "it": {}, "its": {},
}

// splitSentences splits answer text into individual sentences/claims.
//
// Fragments of 3 words or fewer are discarded. This filters greetings and
// stray fragments ("Hello!", "Sure.") at the cost of missing very short
// claims; the trade-off is deliberate and fixture-encoded.
func splitSentences(text string) []string {
	parts := sentenceEndRegex.Split(text, -1)
	marks := sentenceEndRegex.FindAllStringSubmatch(text, -1)

	sentences := make([]string, 0, len(parts))
	for i, part := range parts {
		s := strings.TrimSpace(part)
		if s == "" {
			continue
		}
		// Re-attach the sentence-final punctuation consumed by the split.
		if i < len(marks) {
			s += marks[i][1]
		}
		if len(strings.Fields(s)) > 3 {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// extractNumbers extracts all numerical values from text, deduplicated.
//
// Four regex families are applied: currency (with optional million/billion/
// M/B/K suffix), comma-grouped large numbers, percentages, and bare numbers.
// Overlapping matches from different families are all kept; the matcher is
// intentionally greedy rather than precise.
func extractNumbers(text string) []string {
	seen := make(map[string]struct{})
	var numbers []string
	for _, pattern := range numberPatterns {
		for _, m := range pattern.FindAllString(text, -1) {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			numbers = append(numbers, m)
		}
	}
	return numbers
}

// extractEntities extracts likely named entities using pattern heuristics.
//
// Catches policy/reference numbers, dates in both slash and long form, and
// capitalized multi-word phrases. This is a heuristic detector, not a
// linguistic parser; its false negatives and positives are encoded in the
// test fixtures and must be preserved.
func extractEntities(text string) []string {
	seen := make(map[string]struct{})
	var entities []string
	add := func(matches []string) {
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			entities = append(entities, m)
		}
	}

	add(policyNumberRegex.FindAllString(text, -1))
	add(slashDateRegex.FindAllString(text, -1))
	add(longDateRegex.FindAllString(text, -1))
	add(capitalizedPhraseRegex.FindAllString(text, -1))

	return entities
}

// tokenize lowercases text, extracts alphanumeric runs, and drops stopwords
// and single-character tokens.
func tokenize(text string) []string {
	words := tokenRegex.FindAllString(strings.ToLower(text), -1)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) <= 1 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// buildSourceText concatenates chunk texts once so the numeric and entity
// factors share a single pass over the corpus.
func buildSourceText(chunks []SourceChunk) string {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return strings.Join(texts, " ")
}
