package services

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

// ErrNoRelevantContent signals that no passage scored above zero for the
// query. Callers decide how to phrase that to the user.
var ErrNoRelevantContent = errors.New("no relevant content found")

// DocumentRetriever selects the passages of a corpus most relevant to a
// query by keyword overlap. The contract is best-effort lexical relevance,
// not semantic correctness; ties keep the original document order.
type DocumentRetriever struct {
	maxPassages int
	maxChars    int // length budget for the returned context
	chunkSize   int // split oversized paragraphs into chunks of this size
}

// NewDocumentRetriever creates a retriever with default limits
func NewDocumentRetriever() *DocumentRetriever {
	return &DocumentRetriever{
		maxPassages: 3,
		maxChars:    2000,
		chunkSize:   800,
	}
}

var (
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
	wordRe           = regexp.MustCompile(`[a-z0-9']+`)
)

// Common English words excluded from keyword matching
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "can": {}, "had": {}, "has": {}, "have": {},
	"was": {}, "were": {}, "what": {}, "when": {}, "where": {}, "which": {},
	"who": {}, "why": {}, "how": {}, "with": {}, "this": {}, "that": {},
	"from": {}, "they": {}, "will": {}, "would": {}, "there": {},
	"their": {}, "about": {}, "into": {}, "does": {}, "tell": {},
	"please": {}, "your": {}, "our": {}, "out": {}, "any": {},
}

// Retrieve returns the highest-scoring passages for the query, joined by
// blank lines, up to the length budget. Returns ErrNoRelevantContent when
// the top score is zero or the corpus is empty.
func (r *DocumentRetriever) Retrieve(query, corpus string) (string, error) {
	passages := r.splitPassages(corpus)
	keywords := queryKeywords(query)
	if len(passages) == 0 || len(keywords) == 0 {
		return "", ErrNoRelevantContent
	}

	type scored struct {
		index int
		score int
		text  string
	}

	candidates := make([]scored, 0, len(passages))
	for i, passage := range passages {
		lower := strings.ToLower(passage)
		score := 0
		for _, kw := range keywords {
			score += strings.Count(lower, kw)
		}
		if score > 0 {
			candidates = append(candidates, scored{index: i, score: score, text: passage})
		}
	}
	if len(candidates) == 0 {
		return "", ErrNoRelevantContent
	}

	// Highest score first; ties keep original document order
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score > candidates[b].score
	})
	if len(candidates) > r.maxPassages {
		candidates = candidates[:r.maxPassages]
	}

	var builder strings.Builder
	for _, c := range candidates {
		if builder.Len() > 0 {
			if builder.Len()+len(c.text)+2 > r.maxChars {
				break
			}
			builder.WriteString("\n\n")
		}
		text := c.text
		if len(text) > r.maxChars {
			text = text[:r.maxChars]
		}
		builder.WriteString(text)
	}
	return builder.String(), nil
}

// splitPassages splits the corpus on blank lines and chunks any oversized
// paragraph at word boundaries
func (r *DocumentRetriever) splitPassages(corpus string) []string {
	var passages []string
	for _, paragraph := range paragraphSplitRe.Split(corpus, -1) {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		for len(paragraph) > r.chunkSize {
			cut := strings.LastIndex(paragraph[:r.chunkSize], " ")
			if cut <= 0 {
				cut = r.chunkSize
			}
			passages = append(passages, strings.TrimSpace(paragraph[:cut]))
			paragraph = strings.TrimSpace(paragraph[cut:])
		}
		if paragraph != "" {
			passages = append(passages, paragraph)
		}
	}
	return passages
}

// queryKeywords lower-cases the query and drops stop words and short tokens
func queryKeywords(query string) []string {
	var keywords []string
	for _, word := range wordRe.FindAllString(strings.ToLower(query), -1) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		keywords = append(keywords, word)
	}
	return keywords
}
