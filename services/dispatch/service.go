// Package dispatch implements the cascading fallback dispatcher: it obtains
// ranked candidates for a query, tries them in order over their advertised
// transports, gates each response on quality, and returns the full attempt
// trail. One dispatch is one sequential flow; many dispatches run
// concurrently across the process.
package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services"
	"github.com/upb/cascade-control-plane/services/assess"
	"github.com/upb/cascade-control-plane/services/catalog"
	"github.com/upb/cascade-control-plane/services/envelope"
	"github.com/upb/cascade-control-plane/services/transport"
	"go.uber.org/zap"
)

// Config holds the dispatch policy knobs
type Config struct {
	// MaxFallbackAttempts caps how many candidates one cascade tries
	MaxFallbackAttempts int

	// MinQualityScore is the acceptance threshold for the quality gate
	MinQualityScore float64

	// StopOnFirstSuccess stops the cascade at the first accepted attempt;
	// when false the cascade records every candidate but the first accepted
	// attempt in rank order is still the successful one
	StopOnFirstSuccess bool

	// AttemptTimeout bounds each candidate invocation
	AttemptTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		MaxFallbackAttempts: 5,
		MinQualityScore:     0.5,
		StopOnFirstSuccess:  true,
		AttemptTimeout:      3 * time.Second,
	}
}

// Validate rejects configurations the dispatcher cannot run with.
// Configuration errors are fatal at startup only.
func (c Config) Validate() error {
	if c.MaxFallbackAttempts <= 0 {
		return services.ErrInvalidDispatchConfig.WithDetail("max_fallback_attempts", c.MaxFallbackAttempts)
	}
	if c.MinQualityScore < 0 || c.MinQualityScore > 1 {
		return services.ErrInvalidDispatchConfig.WithDetail("min_quality_score", c.MinQualityScore)
	}
	if c.AttemptTimeout <= 0 {
		return services.ErrInvalidDispatchConfig.WithDetail("attempt_timeout", c.AttemptTimeout.String())
	}
	return nil
}

// Ranker produces the ordered candidate list for a query
type Ranker interface {
	Rank(ctx context.Context, query string, snapshot catalog.Snapshot) []models.Candidate
}

// Invoker performs one bounded downstream call
type Invoker interface {
	Invoke(ctx context.Context, entry catalog.Entry, req models.EnvelopeRequest) (*transport.Result, error)
}

// Service drives the cascade. It holds no per-dispatch state; everything a
// dispatch touches lives on its stack.
type Service struct {
	config     Config
	ranker     Ranker
	invoker    Invoker
	normalizer *envelope.Normalizer
	assessor   *assess.Assessor
	logger     *zap.Logger
}

// NewService creates a dispatcher, validating the policy configuration
func NewService(config Config, ranker Ranker, invoker Invoker, normalizer *envelope.Normalizer, assessor *assess.Assessor, logger *zap.Logger) (*Service, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Service{
		config:     config,
		ranker:     ranker,
		invoker:    invoker,
		normalizer: normalizer,
		assessor:   assessor,
		logger:     logger,
	}, nil
}

// Dispatch runs one complete cascade for a canonical query against a frozen
// catalog snapshot. It always returns a CascadeResult, never an error: total
// failure is an exhausted_candidates result, and a caller deadline expiring
// mid-cascade truncates the trail at the attempts already completed.
func (s *Service) Dispatch(ctx context.Context, req models.EnvelopeRequest, snapshot catalog.Snapshot) *models.CascadeResult {
	dispatchID := uuid.New()
	startTime := time.Now()

	s.logger.Info("starting dispatch",
		zap.String("dispatch_id", dispatchID.String()),
		zap.String("tenant_id", req.TenantID),
		zap.Int("catalog_size", snapshot.Len()))

	candidates := s.ranker.Rank(ctx, req.Query, snapshot)

	result := &models.CascadeResult{
		DispatchID:  dispatchID,
		AllAttempts: make([]models.Attempt, 0, len(candidates)),
		StopReason:  models.StopExhaustedCandidates,
	}

	for i, candidate := range candidates {
		rank := i + 1
		if rank > s.config.MaxFallbackAttempts {
			break
		}
		if ctx.Err() != nil {
			// Caller deadline expired; summarize what completed.
			break
		}

		candidate.Rank = rank
		attempt, payload := s.attemptCandidate(ctx, dispatchID, candidate, req, snapshot)
		result.AllAttempts = append(result.AllAttempts, attempt)

		s.logger.Debug("attempt recorded",
			zap.String("dispatch_id", dispatchID.String()),
			zap.Int("rank", rank),
			zap.String("service", attempt.ServiceName),
			zap.Bool("success", attempt.Success),
			zap.String("reject_reason", string(attempt.RejectReason)),
			zap.Duration("latency", attempt.Latency))

		if attempt.Accepted() && result.SuccessfulAttempt == nil {
			accepted := attempt
			result.SuccessfulAttempt = &accepted
			result.Response = payload
			result.StopReason = models.StopFoundGoodResponse
			if s.config.StopOnFirstSuccess {
				break
			}
		}
	}

	result.TotalAttempts = len(result.AllAttempts)
	result.TotalElapsed = time.Since(startTime)

	s.logger.Info("dispatch completed",
		zap.String("dispatch_id", dispatchID.String()),
		zap.String("stop_reason", string(result.StopReason)),
		zap.Int("total_attempts", result.TotalAttempts),
		zap.Duration("total_elapsed", result.TotalElapsed))

	return result
}

// attemptCandidate performs one bounded invocation plus quality assessment.
// A panic anywhere inside the invocation is contained here so the attempts
// already recorded survive; the candidate is written off as unreachable.
func (s *Service) attemptCandidate(ctx context.Context, dispatchID uuid.UUID, candidate models.Candidate, req models.EnvelopeRequest, snapshot catalog.Snapshot) (attempt models.Attempt, payload *models.Payload) {
	attempt = models.Attempt{
		Rank:        candidate.Rank,
		ServiceName: candidate.ServiceName,
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("attempt panicked",
				zap.String("dispatch_id", dispatchID.String()),
				zap.String("service", candidate.ServiceName),
				zap.Any("panic", r))
			attempt.Success = false
			attempt.QualityScore = nil
			attempt.RejectReason = models.RejectUnreachable
			payload = nil
		}
	}()

	entry, ok := snapshot.Lookup(candidate.ServiceName)
	if !ok {
		// Ranker named a service the snapshot no longer holds; record and
		// continue rather than aborting the cascade.
		attempt.RejectReason = models.RejectUnreachable
		return attempt, nil
	}

	attemptCtx, cancel := context.WithTimeout(ctx, s.config.AttemptTimeout)
	defer cancel()

	startTime := time.Now()
	invokeResult, err := s.invoker.Invoke(attemptCtx, entry, req)
	attempt.Latency = time.Since(startTime)

	if err != nil {
		attempt.RejectReason = transport.ClassOf(err).RejectReason()
		return attempt, nil
	}

	env := s.normalizer.NewEnvelope(req, entry.Transport, invokeResult)
	attempt.Success = true

	assessment := s.assessor.Assess(env.Response)
	score := assessment.Score
	attempt.QualityScore = &score
	attempt.RejectReason = assessment.Reject

	return attempt, env.Response
}
