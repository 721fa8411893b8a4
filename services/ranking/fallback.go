package ranking

import (
	"sort"
	"strings"
	"unicode"

	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/catalog"
)

// FallbackRank orders catalog entries by token overlap between the query and
// each service's capability tags. Pure and deterministic: identical
// (query, catalog) input always yields the identical ordered list. Ties break
// on catalog registration order.
func FallbackRank(query string, entries []catalog.Entry) []models.Candidate {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return nil
	}

	type scored struct {
		candidate models.Candidate
		order     int
	}

	var kept []scored
	for i, entry := range entries {
		overlap := 0
		tagTokens := make(map[string]struct{})
		for _, tag := range entry.CapabilityTags {
			for token := range tokenize(tag) {
				tagTokens[token] = struct{}{}
			}
		}
		for token := range queryTokens {
			if _, ok := tagTokens[token]; ok {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}

		kept = append(kept, scored{
			candidate: models.Candidate{
				ServiceName: entry.Name,
				Confidence:  float64(overlap) / float64(len(queryTokens)),
				Rationale:   "keyword overlap with capability tags",
			},
			order: i,
		})
	}

	sort.SliceStable(kept, func(a, b int) bool {
		if kept[a].candidate.Confidence != kept[b].candidate.Confidence {
			return kept[a].candidate.Confidence > kept[b].candidate.Confidence
		}
		return kept[a].order < kept[b].order
	})

	if len(kept) > maxCandidates {
		kept = kept[:maxCandidates]
	}

	candidates := make([]models.Candidate, 0, len(kept))
	for _, s := range kept {
		candidates = append(candidates, s.candidate)
	}
	return candidates
}

// tokenize lowercases and splits on non-alphanumeric runes, deduplicating
func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tokens[f] = struct{}{}
	}
	return tokens
}
