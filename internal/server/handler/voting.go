package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// VotingService defines the read the voting handler requires.
type VotingService interface {
	VotingPower(ctx context.Context, account common.Address) (*uint256.Int, error)
}

// VotingHandler serves the voting power read endpoint.
type VotingHandler struct {
	voting VotingService
	logger *slog.Logger
}

// NewVotingHandler creates a VotingHandler.
func NewVotingHandler(voting VotingService, logger *slog.Logger) *VotingHandler {
	return &VotingHandler{voting: voting, logger: logger}
}

// VotingPower returns the aggregate time-decayed weight for an account.
// GET /api/voting-power?account=0x...
func (h *VotingHandler) VotingPower(w http.ResponseWriter, r *http.Request) {
	account, ok := parseAddress(r.URL.Query().Get("account"))
	if !ok {
		writeError(w, http.StatusBadRequest, "account query parameter required")
		return
	}

	power, err := h.voting.VotingPower(r.Context(), account)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: voting power failed",
			slog.String("account", account.Hex()),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"account":      account.Hex(),
		"voting_power": power.Dec(),
	})
}
