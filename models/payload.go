package models

import (
	"bytes"
	"encoding/json"
)

// Payload is the structured-value view of a downstream response body.
// Responses are loosely shaped, so the quality gate inspects them through
// explicit predicates instead of ad hoc type switches. A Payload is either
// parsed (an ordered set of top-level fields) or marked unparseable.
type Payload struct {
	fields map[string]json.RawMessage
	raw    []byte
	parsed bool
}

// ParsePayload builds a Payload from a raw response body. Unparseable bodies
// (including non-object JSON) yield the explicit unparseable marker rather
// than an error, so the assessor can uniformly reject them.
func ParsePayload(raw []byte) *Payload {
	p := &Payload{raw: raw}
	if len(raw) == 0 {
		return p
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return p
	}
	// A top-level null unmarshals into a nil map; it is not an object.
	if fields == nil {
		return p
	}

	p.fields = fields
	p.parsed = true
	return p
}

// UnparseablePayload returns the explicit marker for a body that could not be
// interpreted
func UnparseablePayload(raw []byte) *Payload {
	return &Payload{raw: raw}
}

// Parsed reports whether the body was interpreted as a JSON object
func (p *Payload) Parsed() bool {
	return p != nil && p.parsed
}

// IsEmptyObject reports whether the payload parsed to an object with no fields
func (p *Payload) IsEmptyObject() bool {
	return p.Parsed() && len(p.fields) == 0
}

// FieldCount returns the number of top-level fields, or 0 when unparseable
func (p *Payload) FieldCount() int {
	if !p.Parsed() {
		return 0
	}
	return len(p.fields)
}

// HasOnlyKeysFrom reports whether every top-level field name is drawn from
// the given set. An empty or unparseable payload returns false.
func (p *Payload) HasOnlyKeysFrom(set map[string]struct{}) bool {
	if !p.Parsed() || len(p.fields) == 0 {
		return false
	}
	for key := range p.fields {
		if _, ok := set[key]; !ok {
			return false
		}
	}
	return true
}

// Field returns the raw value of a top-level field
func (p *Payload) Field(key string) (json.RawMessage, bool) {
	if !p.Parsed() {
		return nil, false
	}
	v, ok := p.fields[key]
	return v, ok
}

// EmptyListField reports whether the named field is present, list-valued and
// empty. A present non-list field reports (false, true).
func (p *Payload) EmptyListField(key string) (empty bool, present bool) {
	v, ok := p.Field(key)
	if !ok {
		return false, false
	}

	trimmed := bytes.TrimSpace(v)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return false, true
	}

	var list []json.RawMessage
	if err := json.Unmarshal(trimmed, &list); err != nil {
		return false, true
	}
	return len(list) == 0, true
}

// Raw returns the original response body
func (p *Payload) Raw() []byte {
	if p == nil {
		return nil
	}
	return p.raw
}

// MarshalJSON renders the parsed fields, or null for an unparseable payload
func (p *Payload) MarshalJSON() ([]byte, error) {
	if !p.Parsed() {
		return []byte("null"), nil
	}
	return json.Marshal(p.fields)
}
