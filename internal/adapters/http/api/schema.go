package api

import (
	"net/http"

	"github.com/okian/motionrisk/internal/domain/model"
)

// SchemaProvider exposes the form catalogue.
type SchemaProvider interface {
	Schema() model.Schema
}

// SchemaHandler handles schema requests.
type SchemaHandler struct {
	provider SchemaProvider
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(provider SchemaProvider) *SchemaHandler {
	return &SchemaHandler{provider: provider}
}

// HandleGetSchema handles GET /schema requests.
func (h *SchemaHandler) HandleGetSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.provider.Schema())
}
