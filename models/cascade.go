package models

import (
	"time"

	"github.com/google/uuid"
)

// Transport identifies how a downstream service is invoked
type Transport string

const (
	// TransportHTTP is the request/response transport (plain HTTP POST)
	TransportHTTP Transport = "http"

	// TransportJSONRPC is the remote-procedure transport (JSON-RPC 2.0 over HTTP)
	TransportJSONRPC Transport = "jsonrpc"
)

// Valid reports whether the transport is one of the known variants
func (t Transport) Valid() bool {
	return t == TransportHTTP || t == TransportJSONRPC
}

// RejectReason explains why an attempt did not produce an accepted response
type RejectReason string

const (
	// RejectNone means the attempt was accepted
	RejectNone RejectReason = ""

	// Quality rejections (transport succeeded, response failed the quality gate)

	// RejectNoData means the response was absent or unparseable
	RejectNoData RejectReason = "no_data"

	// RejectEmptyData means the response parsed to an empty object
	RejectEmptyData RejectReason = "empty_data"

	// RejectEmptyResults means a result-list field was present but empty
	RejectEmptyResults RejectReason = "empty_results"

	// RejectOnlyMetadata means every field came from the known metadata set
	RejectOnlyMetadata RejectReason = "only_metadata"

	// RejectQualityTooLow means the score fell below the configured minimum
	RejectQualityTooLow RejectReason = "quality_too_low"

	// Transport rejections (the call itself failed)

	// RejectTimeout means the attempt exceeded its deadline
	RejectTimeout RejectReason = "timeout"

	// RejectUnreachable means the service could not be reached
	RejectUnreachable RejectReason = "unreachable"

	// RejectProtocolError means the service answered outside its protocol contract
	RejectProtocolError RejectReason = "protocol_error"
)

// StopReason explains why a cascade terminated
type StopReason string

const (
	// StopFoundGoodResponse means an attempt passed the quality gate
	StopFoundGoodResponse StopReason = "found_good_response"

	// StopExhaustedCandidates means every tried candidate failed the gate
	StopExhaustedCandidates StopReason = "exhausted_candidates"
)

// Candidate is a proposed routing target produced by the ranker.
// Rank is assigned by the dispatcher at dispatch time; candidates are
// immutable for the duration of one dispatch.
type Candidate struct {
	ServiceName string  `json:"service_name"`
	Confidence  float64 `json:"confidence"`
	Rationale   string  `json:"rationale,omitempty"`
	Rank        int     `json:"rank,omitempty"`
}

// EnvelopeRequest is the canonical, transport-agnostic request representation
type EnvelopeRequest struct {
	TenantID string            `json:"tenant_id"`
	UserID   string            `json:"user_id"`
	Query    string            `json:"query"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Envelope pairs one attempt's canonical request with the normalized
// response. Constructed once per attempt, never mutated, only replaced.
type Envelope struct {
	Request       EnvelopeRequest `json:"request"`
	Response      *Payload        `json:"response,omitempty"`
	TransportUsed Transport       `json:"transport_used"`
	Latency       time.Duration   `json:"latency"`
}

// Attempt records one candidate invocation inside a cascade.
// Success is transport-level and distinct from quality acceptance:
// a transport success with a failing quality gate is still Success=true.
type Attempt struct {
	Rank         int           `json:"rank"`
	ServiceName  string        `json:"service_name"`
	Success      bool          `json:"success"`
	QualityScore *float64      `json:"quality_score,omitempty"`
	RejectReason RejectReason  `json:"reject_reason,omitempty"`
	Latency      time.Duration `json:"latency"`
}

// Accepted reports whether this attempt passed the quality gate
func (a Attempt) Accepted() bool {
	return a.Success && a.RejectReason == RejectNone
}

// CascadeResult is the complete outcome of one dispatch: the ordered attempt
// trail plus the accepted attempt, if any. Callers always receive one, even
// when every candidate failed.
type CascadeResult struct {
	DispatchID        uuid.UUID     `json:"dispatch_id"`
	SuccessfulAttempt *Attempt      `json:"successful_attempt,omitempty"`
	AllAttempts       []Attempt     `json:"all_attempts"`
	StopReason        StopReason    `json:"stop_reason"`
	TotalAttempts     int           `json:"total_attempts"`
	TotalElapsed      time.Duration `json:"total_elapsed"`
	Response          *Payload      `json:"response,omitempty"`
}

// SuccessfulRank returns the rank of the accepted attempt, or false when the
// cascade exhausted its candidates
func (r *CascadeResult) SuccessfulRank() (int, bool) {
	if r.SuccessfulAttempt == nil {
		return 0, false
	}
	return r.SuccessfulAttempt.Rank, true
}

// AttemptsBeforeSuccess counts the attempts that failed ahead of the accepted
// one. Returns TotalAttempts when nothing was accepted.
func (r *CascadeResult) AttemptsBeforeSuccess() int {
	if rank, ok := r.SuccessfulRank(); ok {
		return rank - 1
	}
	return r.TotalAttempts
}

// FirstRankSuccess reports whether the top-ranked candidate was accepted
func (r *CascadeResult) FirstRankSuccess() bool {
	rank, ok := r.SuccessfulRank()
	return ok && rank == 1
}

// FallbackDepth returns how many fallback candidates were consulted beyond
// rank 1
func (r *CascadeResult) FallbackDepth() int {
	if r.TotalAttempts == 0 {
		return 0
	}
	return r.TotalAttempts - 1
}
