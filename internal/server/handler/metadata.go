package handler

import (
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/veledger/internal/metadata"
)

// MetadataHandler serves the token URI endpoint and the resolver swap.
type MetadataHandler struct {
	facade *metadata.Facade
	logger *slog.Logger
}

// NewMetadataHandler creates a MetadataHandler.
func NewMetadataHandler(facade *metadata.Facade, logger *slog.Logger) *MetadataHandler {
	return &MetadataHandler{facade: facade, logger: logger}
}

// TokenURI returns the resolver-composed URI for a position.
// GET /api/positions/{id}/uri
func (h *MetadataHandler) TokenURI(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	uri, err := h.facade.TokenURI(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": id, "uri": uri})
}

type setResolverRequest struct {
	URITemplate string `json:"uri_template"`
}

// SetResolver swaps the resolver collaborator. Admin only.
// PUT /api/metadata/resolver
func (h *MetadataHandler) SetResolver(w http.ResponseWriter, r *http.Request) {
	var req setResolverRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URITemplate == "" {
		writeError(w, http.StatusBadRequest, "uri_template required")
		return
	}

	h.facade.SetResolver(metadata.NewTemplateResolver(req.URITemplate))
	h.logger.InfoContext(r.Context(), "handler: metadata resolver swapped",
		slog.String("template", req.URITemplate),
	)

	writeJSON(w, http.StatusOK, map[string]string{"resolver": req.URITemplate})
}
