// Package custody routes value movement between the ledger and its two
// transfer backends: the external fungible-token path and the internal
// unclaimed-balance ledger.
package custody

import "github.com/alanyoungcy/veledger/internal/domain"

// Router selects a custody backend by kind. It never inspects backend state
// beyond what the backend interface exposes.
type Router struct {
	external domain.CustodyBackend
	internal domain.CustodyBackend
}

// NewRouter creates a Router over the two backends.
func NewRouter(external, internal domain.CustodyBackend) *Router {
	return &Router{external: external, internal: internal}
}

// Backend returns the backend for the given custody kind.
func (r *Router) Backend(kind domain.CustodyKind) domain.CustodyBackend {
	if kind == domain.CustodyExternalToken {
		return r.external
	}
	return r.internal
}
