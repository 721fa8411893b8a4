// Package envelope converts transport-specific request and response shapes
// into the one canonical representation the rest of the pipeline consumes,
// so no later stage ever branches on transport.
package envelope

import (
	"encoding/json"
	"fmt"

	"github.com/upb/cascade-control-plane/models"
	"github.com/upb/cascade-control-plane/services"
	"github.com/upb/cascade-control-plane/services/transport"
	"github.com/upb/cascade-control-plane/utils"
)

// Normalizer is stateless; both front doors and the dispatcher share one
type Normalizer struct{}

// NewNormalizer creates a normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// wireRequest is the on-the-wire request shape, identical for both front
// doors (the RPC door carries it as the params member)
type wireRequest struct {
	TenantID string            `json:"tenant_id" validate:"required"`
	UserID   string            `json:"user_id"`
	Query    string            `json:"query" validate:"required"`
	Metadata map[string]string `json:"metadata"`
}

// ToEnvelopeRequest decodes a raw front-door body into the canonical request
func (n *Normalizer) ToEnvelopeRequest(tag models.Transport, raw []byte) (models.EnvelopeRequest, error) {
	if !tag.Valid() {
		return models.EnvelopeRequest{}, services.ErrUnknownTransport.WithDetail("transport", string(tag))
	}

	var wire wireRequest
	if err := json.Unmarshal(raw, &wire); err != nil {
		return models.EnvelopeRequest{}, services.WrapError(services.ErrorTypeValidation,
			fmt.Sprintf("malformed %s request", tag), err)
	}

	if err := utils.ValidateStruct(&wire); err != nil {
		if wire.Query == "" {
			return models.EnvelopeRequest{}, services.ErrEmptyQuery
		}
		return models.EnvelopeRequest{}, services.NewDomainError(services.ErrorTypeValidation, "invalid request", err).
			WithDetail("fields", utils.GetValidationFields(err))
	}

	return models.EnvelopeRequest{
		TenantID: wire.TenantID,
		UserID:   wire.UserID,
		Query:    wire.Query,
		Metadata: wire.Metadata,
	}, nil
}

// FromTransportResult normalizes a raw invocation result into a payload.
// Total: a body that fails to parse becomes the explicit unparseable marker
// so the quality gate rejects it with no_data instead of anything raising.
func (n *Normalizer) FromTransportResult(result *transport.Result) *models.Payload {
	if result == nil || len(result.Body) == 0 {
		return models.UnparseablePayload(nil)
	}
	return models.ParsePayload(result.Body)
}

// NewEnvelope assembles the immutable per-attempt envelope
func (n *Normalizer) NewEnvelope(req models.EnvelopeRequest, tag models.Transport, result *transport.Result) models.Envelope {
	env := models.Envelope{
		Request:       req,
		TransportUsed: tag,
	}
	if result != nil {
		env.Response = n.FromTransportResult(result)
		env.Latency = result.Latency
	}
	return env
}
