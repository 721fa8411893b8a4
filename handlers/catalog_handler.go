package handlers

import (
	"net/http"

	"github.com/upb/cascade-control-plane/services/catalog"
	"github.com/upb/cascade-control-plane/utils"
	"go.uber.org/zap"
)

// ServiceResponse is the wire rendering of one catalog entry
type ServiceResponse struct {
	Name           string   `json:"name"`
	Endpoint       string   `json:"endpoint"`
	Transport      string   `json:"transport"`
	CapabilityTags []string `json:"capability_tags"`
}

// ServiceListResponse wraps the catalog listing
type ServiceListResponse struct {
	Services []ServiceResponse `json:"services"`
	Count    int               `json:"count"`
}

// CatalogHandler serves read-only views of the service catalog
type CatalogHandler struct {
	catalog SnapshotProvider
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogProvider SnapshotProvider, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: catalogProvider,
		logger:  logger,
	}
}

// HandleListServices handles GET /v1/services.
// Entries come back in registration order, the same order the fallback
// ranker uses to break ties.
func (h *CatalogHandler) HandleListServices(w http.ResponseWriter, r *http.Request) {
	snapshot := h.catalog.Snapshot()
	entries := snapshot.ListAll()

	response := ServiceListResponse{
		Services: make([]ServiceResponse, 0, len(entries)),
		Count:    len(entries),
	}
	for _, entry := range entries {
		response.Services = append(response.Services, encodeServiceEntry(entry))
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write service list response", zap.Error(err))
	}
}

func encodeServiceEntry(entry catalog.Entry) ServiceResponse {
	tags := entry.CapabilityTags
	if tags == nil {
		tags = []string{}
	}
	return ServiceResponse{
		Name:           entry.Name,
		Endpoint:       entry.Endpoint,
		Transport:      string(entry.Transport),
		CapabilityTags: tags,
	}
}
