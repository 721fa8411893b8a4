// Package ranking produces the ordered candidate list for a query. The
// primary path delegates to an external ranking provider; any provider
// failure falls through to a deterministic keyword-overlap ranking so the
// dispatch itself never fails on ranking.
package ranking

import (
	"context"
	"sort"
	"time"

	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services/catalog"
	"go.uber.org/zap"
)

const (
	// maxCandidates caps how many candidates one dispatch considers
	maxCandidates = 10

	// minProviderConfidence filters out low-confidence provider suggestions
	minProviderConfidence = 0.3
)

// Config holds configuration for the ranking service
type Config struct {
	// ProviderTimeout bounds one provider call
	ProviderTimeout time.Duration
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{ProviderTimeout: 2 * time.Second}
}

// Service ranks catalog entries for a query
type Service struct {
	provider Provider
	config   Config
	logger   *zap.Logger
}

// NewService creates a ranking service. Provider may be nil, in which case
// every ranking uses the fallback path.
func NewService(provider Provider, config Config, logger *zap.Logger) *Service {
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = DefaultConfig().ProviderTimeout
	}
	return &Service{
		provider: provider,
		config:   config,
		logger:   logger,
	}
}

// Rank returns the ordered candidate list for a query, length 0..10.
// Candidates naming services absent from the snapshot are dropped so the
// dispatcher never chases a ghost entry.
func (s *Service) Rank(ctx context.Context, query string, snapshot catalog.Snapshot) []models.Candidate {
	entries := snapshot.ListAll()
	if len(entries) == 0 {
		return nil
	}

	if s.provider != nil {
		if candidates := s.rankWithProvider(ctx, query, entries, snapshot); len(candidates) > 0 {
			return candidates
		}
	}

	candidates := FallbackRank(query, entries)
	s.logger.Debug("used fallback ranking",
		zap.String("query", query),
		zap.Int("candidates", len(candidates)))
	return candidates
}

// rankWithProvider runs the primary path; any error or empty result returns
// nil to signal fallback
func (s *Service) rankWithProvider(ctx context.Context, query string, entries []catalog.Entry, snapshot catalog.Snapshot) []models.Candidate {
	providerCtx, cancel := context.WithTimeout(ctx, s.config.ProviderTimeout)
	defer cancel()

	ranked, err := s.provider.Rank(providerCtx, query, entries)
	if err != nil {
		s.logger.Warn("ranking provider failed, falling back", zap.Error(err))
		return nil
	}

	kept := make([]models.Candidate, 0, len(ranked))
	for _, c := range ranked {
		if c.Confidence <= minProviderConfidence {
			continue
		}
		if _, ok := snapshot.Lookup(c.ServiceName); !ok {
			s.logger.Warn("ranking provider named unknown service, dropping",
				zap.String("service", c.ServiceName))
			continue
		}
		kept = append(kept, c)
	}

	sort.SliceStable(kept, func(a, b int) bool {
		return kept[a].Confidence > kept[b].Confidence
	})

	if len(kept) > maxCandidates {
		kept = kept[:maxCandidates]
	}
	return kept
}
