package ranking

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services"
	"github.com/upb/cascade-control-plane/services/catalog"
)

// Provider produces the non-deterministic external ranking signal. How
// confidence is computed is the provider's business; the core only needs an
// ordered candidate list. Provider failure is always non-fatal.
type Provider interface {
	Rank(ctx context.Context, query string, entries []catalog.Entry) ([]models.Candidate, error)
}

// HTTPProvider calls a remote ranking endpoint
type HTTPProvider struct {
	endpoint string
	client   *http.Client
}

// NewHTTPProvider creates a ranking provider client for the given endpoint
func NewHTTPProvider(endpoint string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// rankRequest is the wire request sent to the ranking endpoint
type rankRequest struct {
	Query    string        `json:"query"`
	Services []rankService `json:"services"`
}

// rankService is the catalog summary the provider ranks against
type rankService struct {
	Name           string   `json:"name"`
	CapabilityTags []string `json:"capability_tags"`
}

// rankResponse is the wire response from the ranking endpoint
type rankResponse struct {
	Candidates []rankCandidate `json:"candidates"`
}

// rankCandidate is one ranked service in the provider's answer
type rankCandidate struct {
	ServiceName string  `json:"service_name"`
	Confidence  float64 `json:"confidence"`
	Rationale   string  `json:"rationale"`
}

// Rank asks the remote provider to order the catalog entries for a query
func (p *HTTPProvider) Rank(ctx context.Context, query string, entries []catalog.Entry) ([]models.Candidate, error) {
	wireReq := rankRequest{Query: query, Services: make([]rankService, 0, len(entries))}
	for _, entry := range entries {
		wireReq.Services = append(wireReq.Services, rankService{
			Name:           entry.Name,
			CapabilityTags: entry.CapabilityTags,
		})
	}

	reqBody, err := json.Marshal(wireReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ranking request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ranking request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, services.WrapExternal("ranking request failed", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, services.WrapExternal("failed to read ranking response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, services.WrapExternal(fmt.Sprintf("ranking provider returned %s", httpResp.Status), nil)
	}

	var wireResp rankResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, services.WrapExternal("failed to unmarshal ranking response", err)
	}

	candidates := make([]models.Candidate, 0, len(wireResp.Candidates))
	for _, c := range wireResp.Candidates {
		candidates = append(candidates, models.Candidate{
			ServiceName: c.ServiceName,
			Confidence:  c.Confidence,
			Rationale:   c.Rationale,
		})
	}
	return candidates, nil
}
