// Package assess implements the quality gate: a deterministic, total scoring
// of downstream response payloads. Rejections are outcomes, not errors; they
// drive the cascade forward.
package assess

import (
	"github.com/upb/cascade-control-plane/models"
)

// metadataKeys are field names that carry no answer content on their own
var metadataKeys = map[string]struct{}{
	"timestamp": {},
	"status":    {},
	"message":   {},
	"success":   {},
	"error":     {},
}

// resultListKeys are field names recognized as carrying the actual result set
var resultListKeys = []string{"results", "data", "items", "entries", "records", "matches"}

// Assessment is the quality verdict for one response
type Assessment struct {
	// Score is in [0,1]; higher means richer content
	Score float64

	// Reject is RejectNone when the response passed the gate
	Reject models.RejectReason
}

// Accepted reports whether the response passed the quality gate
func (a Assessment) Accepted() bool {
	return a.Reject == models.RejectNone
}

// Assessor scores response payloads against a configured minimum.
// It holds no mutable state; Assess is idempotent for a fixed input.
type Assessor struct {
	minScore float64
}

// NewAssessor creates an assessor with the given acceptance threshold
func NewAssessor(minScore float64) *Assessor {
	return &Assessor{minScore: minScore}
}

// MinScore returns the configured acceptance threshold
func (a *Assessor) MinScore() float64 {
	return a.minScore
}

// Assess evaluates a payload in fixed order, first match wins:
// absent/unparseable, empty object, empty result list, metadata-only,
// then a field-count score checked against the minimum.
func (a *Assessor) Assess(payload *models.Payload) Assessment {
	if payload == nil || !payload.Parsed() {
		return Assessment{Score: 0, Reject: models.RejectNoData}
	}

	if payload.IsEmptyObject() {
		return Assessment{Score: 0, Reject: models.RejectEmptyData}
	}

	if hasOnlyEmptyResults(payload) {
		return Assessment{Score: 0, Reject: models.RejectEmptyResults}
	}

	if payload.HasOnlyKeysFrom(metadataKeys) {
		return Assessment{Score: 0, Reject: models.RejectOnlyMetadata}
	}

	score := scoreFieldCount(payload.FieldCount())
	if score < a.minScore {
		return Assessment{Score: score, Reject: models.RejectQualityTooLow}
	}

	return Assessment{Score: score}
}

// hasOnlyEmptyResults reports whether a recognized result-list field is
// present and empty, with no recognized field holding a non-empty list
func hasOnlyEmptyResults(payload *models.Payload) bool {
	sawEmpty := false
	for _, key := range resultListKeys {
		empty, present := payload.EmptyListField(key)
		if !present {
			continue
		}
		if empty {
			sawEmpty = true
		} else {
			return false
		}
	}
	return sawEmpty
}

// scoreFieldCount maps the top-level field count to a quality score
func scoreFieldCount(count int) float64 {
	switch {
	case count == 0:
		return 0.0
	case count <= 2:
		return 0.3
	case count <= 9:
		return 0.7
	default:
		return 1.0
	}
}
