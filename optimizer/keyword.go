package optimizer

import (
	"context"
	"sort"
	"strings"

	"github.com/scaledown-ai/scaledown-go/errdefs"
)

// DefaultTopK is the number of units retrieved when not configured.
const DefaultTopK = 6

// Score weights for relevance signals.
const (
	scoreExactPhrase = 50 // Unit contains the query verbatim
	scoreHeaderWord  = 10 // Per-word overlap between query and unit header
	scoreBodyWord    = 2  // Per-word overlap between query and unit body
	scoreDeclBonus   = 5  // Declarations outrank loose prose
)

// approxBytesPerToken is the rough cut used to honor a token budget without
// a tokenizer round trip; exact pricing happens in the optimizer step.
const approxBytesPerToken = 4

// KeywordRetriever ranks extracted units by multi-signal keyword relevance:
// exact-phrase hits, header and body word overlap, and a declaration bonus.
// It runs fully locally.
type KeywordRetriever struct {
	topK int
}

// NewKeywordRetriever creates a keyword retriever keeping topK units
// (DefaultTopK when 0).
func NewKeywordRetriever(topK int) *KeywordRetriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &KeywordRetriever{topK: topK}
}

// Retrieve selects the topK highest-scoring units. It fails with an
// errdefs.ErrNotFound when nothing in the content matches the query, so the
// optimizer's fallback policy can decide what to do.
func (r *KeywordRetriever) Retrieve(_ context.Context, content, query string, budget int) (*Retrieval, error) {
	units := splitUnits(content)
	if len(units) == 0 {
		return nil, errdefs.Validationf("no retrievable units in content")
	}

	queryLower := strings.ToLower(query)
	queryWords := strings.Fields(queryLower)

	type scored struct {
		unit  unit
		score int
		pos   int
	}
	ranked := make([]scored, 0, len(units))
	for i, u := range units {
		s := scoreUnit(u, queryLower, queryWords)
		if s > 0 {
			ranked = append(ranked, scored{unit: u, score: s, pos: i})
		}
	}
	if len(ranked) == 0 {
		return nil, errdefs.NotFoundf("no units relevant to query %q", query)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > r.topK {
		ranked = ranked[:r.topK]
	}
	// Emit in source order so the selected context still reads top to bottom.
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].pos < ranked[j].pos })

	byteBudget := 0
	if budget > 0 {
		byteBudget = budget * approxBytesPerToken
	}

	var parts []string
	var headers []string
	used := 0
	for _, s := range ranked {
		if byteBudget > 0 && used+len(s.unit.body) > byteBudget && len(parts) > 0 {
			break
		}
		parts = append(parts, s.unit.body)
		headers = append(headers, s.unit.header)
		used += len(s.unit.body)
	}

	return &Retrieval{
		Content: strings.Join(parts, "\n\n"),
		Units:   headers,
		Mode:    "keyword",
	}, nil
}

func scoreUnit(u unit, queryLower string, queryWords []string) int {
	headerLower := strings.ToLower(u.header)
	bodyLower := strings.ToLower(u.body)

	score := 0
	if queryLower != "" && strings.Contains(bodyLower, queryLower) {
		score += scoreExactPhrase
	}
	for _, w := range queryWords {
		if strings.Contains(headerLower, w) {
			score += scoreHeaderWord
		} else if strings.Contains(bodyLower, w) {
			score += scoreBodyWord
		}
	}
	if score > 0 && u.isDecl {
		score += scoreDeclBonus
	}
	return score
}
