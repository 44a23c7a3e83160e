package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// AuditArchiver archives old audit entries to object storage.
type AuditArchiver interface {
	ArchiveAudit(ctx context.Context, before time.Time) (int64, error)
}

// AdminHandler serves operational endpoints.
type AdminHandler struct {
	archiver AuditArchiver
	logger   *slog.Logger
}

// NewAdminHandler creates an AdminHandler; archiver may be nil when object
// storage is disabled.
func NewAdminHandler(archiver AuditArchiver, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{archiver: archiver, logger: logger}
}

type archiveRequest struct {
	Before string `json:"before"` // RFC 3339; empty means now
}

// Archive uploads audit entries older than the cutoff to object storage.
// POST /api/admin/archive
func (h *AdminHandler) Archive(w http.ResponseWriter, r *http.Request) {
	if h.archiver == nil {
		writeError(w, http.StatusServiceUnavailable, "object storage not configured")
		return
	}

	var req archiveRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	before := time.Now().UTC()
	if req.Before != "" {
		t, err := time.Parse(time.RFC3339, req.Before)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid before timestamp")
			return
		}
		before = t
	}

	count, err := h.archiver.ArchiveAudit(r.Context(), before)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: audit archive failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "archive failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"archived": count})
}
