package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// PositionService defines the operations the position handler requires.
type PositionService interface {
	Lock(ctx context.Context, caller, account common.Address, amount *uint256.Int, duration uint64, beneficiary common.Address, useExternalCustody bool) (domain.Position, error)
	Unlock(ctx context.Context, caller common.Address, id uint64, beneficiary common.Address) error
	ExtendLock(ctx context.Context, caller common.Address, id uint64, newDuration uint64) (domain.Position, error)
	Specs(ctx context.Context, id uint64) (domain.Position, error)
}

// PositionHandler serves the lock/unlock/extend/specs endpoints.
type PositionHandler struct {
	positions PositionService
	logger    *slog.Logger
}

// NewPositionHandler creates a PositionHandler.
func NewPositionHandler(positions PositionService, logger *slog.Logger) *PositionHandler {
	return &PositionHandler{positions: positions, logger: logger}
}

type lockRequest struct {
	Account         string `json:"account"`
	Amount          string `json:"amount"` // decimal string
	Duration        uint64 `json:"duration"`
	Beneficiary     string `json:"beneficiary"`
	ExternalCustody bool   `json:"external_custody"`
}

type positionResponse struct {
	ID              uint64 `json:"id"`
	Amount          string `json:"amount"`
	Duration        uint64 `json:"duration"`
	LockedUntil     uint64 `json:"locked_until"`
	ExternalCustody bool   `json:"external_custody"`
	Owner           string `json:"owner"`
}

func toPositionResponse(p domain.Position) positionResponse {
	return positionResponse{
		ID:              p.ID,
		Amount:          p.Amount.Dec(),
		Duration:        p.Duration,
		LockedUntil:     p.LockedUntil,
		ExternalCustody: p.Custody == domain.CustodyExternalToken,
		Owner:           p.Owner.Hex(),
	}
}

// Lock creates a new position.
// POST /api/positions
func (h *PositionHandler) Lock(w http.ResponseWriter, r *http.Request) {
	var req lockRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, ok := parseAddress(req.Account)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid account address")
		return
	}
	beneficiary := account
	if req.Beneficiary != "" {
		if beneficiary, ok = parseAddress(req.Beneficiary); !ok {
			writeError(w, http.StatusBadRequest, "invalid beneficiary address")
			return
		}
	}
	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	// The HTTP edge acts on behalf of the authenticated account, so the
	// caller and the debited account coincide here.
	pos, err := h.positions.Lock(r.Context(), account, account, amount, req.Duration, beneficiary, req.ExternalCustody)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: lock failed",
			slog.String("account", req.Account),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPositionResponse(pos))
}

type unlockRequest struct {
	Caller      string `json:"caller"`
	Beneficiary string `json:"beneficiary"`
}

// Unlock destroys a matured position.
// DELETE /api/positions/{id}
func (h *PositionHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	var req unlockRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	caller, ok := parseAddress(req.Caller)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid caller address")
		return
	}
	beneficiary := caller
	if req.Beneficiary != "" {
		if beneficiary, ok = parseAddress(req.Beneficiary); !ok {
			writeError(w, http.StatusBadRequest, "invalid beneficiary address")
			return
		}
	}

	if err := h.positions.Unlock(r.Context(), caller, id, beneficiary); err != nil {
		h.logger.ErrorContext(r.Context(), "handler: unlock failed",
			slog.Uint64("position_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"unlocked": id})
}

type extendRequest struct {
	Caller      string `json:"caller"`
	NewDuration uint64 `json:"new_duration"`
}

// Extend rewrites a position's duration tier.
// PUT /api/positions/{id}/duration
func (h *PositionHandler) Extend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	var req extendRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	caller, ok := parseAddress(req.Caller)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid caller address")
		return
	}

	pos, err := h.positions.ExtendLock(r.Context(), caller, id, req.NewDuration)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: extend failed",
			slog.Uint64("position_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPositionResponse(pos))
}

// GetSpecs returns the decoded fields of a position.
// GET /api/positions/{id}
func (h *PositionHandler) GetSpecs(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid position id")
		return
	}

	pos, err := h.positions.Specs(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPositionResponse(pos))
}
