package handlers

import (
	"github.com/upb/cascade-control-plane/models"
)

// AttemptResponse is the wire rendering of one cascade attempt
type AttemptResponse struct {
	Rank         int      `json:"rank"`
	ServiceName  string   `json:"service_name"`
	Success      bool     `json:"success"`
	QualityScore *float64 `json:"quality_score,omitempty"`
	RejectReason string   `json:"reject_reason,omitempty"`
	LatencyMs    int64    `json:"latency_ms"`
}

// CascadeResultResponse is the wire rendering of a completed cascade.
// Both front doors return exactly this shape, so callers cannot tell which
// door served them.
type CascadeResultResponse struct {
	DispatchID        string            `json:"dispatch_id"`
	SuccessfulAttempt *AttemptResponse  `json:"successful_attempt,omitempty"`
	AllAttempts       []AttemptResponse `json:"all_attempts"`
	StopReason        string            `json:"stop_reason"`
	TotalAttempts     int               `json:"total_attempts"`
	TotalElapsedMs    int64             `json:"total_elapsed_ms"`
	Response          *models.Payload   `json:"response,omitempty"`
}

// encodeAttempt converts an attempt to its wire form
func encodeAttempt(a models.Attempt) AttemptResponse {
	return AttemptResponse{
		Rank:         a.Rank,
		ServiceName:  a.ServiceName,
		Success:      a.Success,
		QualityScore: a.QualityScore,
		RejectReason: string(a.RejectReason),
		LatencyMs:    a.Latency.Milliseconds(),
	}
}

// encodeCascadeResult converts a cascade result to its wire form
func encodeCascadeResult(result *models.CascadeResult) CascadeResultResponse {
	resp := CascadeResultResponse{
		DispatchID:     result.DispatchID.String(),
		AllAttempts:    make([]AttemptResponse, 0, len(result.AllAttempts)),
		StopReason:     string(result.StopReason),
		TotalAttempts:  result.TotalAttempts,
		TotalElapsedMs: result.TotalElapsed.Milliseconds(),
		Response:       result.Response,
	}

	for _, attempt := range result.AllAttempts {
		resp.AllAttempts = append(resp.AllAttempts, encodeAttempt(attempt))
	}

	if result.SuccessfulAttempt != nil {
		encoded := encodeAttempt(*result.SuccessfulAttempt)
		resp.SuccessfulAttempt = &encoded
	}

	return resp
}
