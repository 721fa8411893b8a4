package catalog

import (
	"github.com/upb/cascade-control-plane/models"
)

// Entry describes one downstream service registered in the catalog
type Entry struct {
	// Name uniquely identifies the service
	Name string `json:"name"`

	// Endpoint is the URL the service is invoked at
	Endpoint string `json:"endpoint"`

	// Transport is the wire protocol the service advertises
	Transport models.Transport `json:"transport"`

	// CapabilityTags describe what the service can answer; the fallback
	// ranker scores query overlap against them
	CapabilityTags []string `json:"capability_tags"`
}

// Catalog is the read-only view dispatches consume. The catalog itself is
// externally owned; the core never mutates it.
type Catalog interface {
	// Lookup returns the entry for a service name
	Lookup(name string) (Entry, bool)

	// ListAll returns every entry in registration order
	ListAll() []Entry
}
