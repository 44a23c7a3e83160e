// Package metadata exposes position records as human-readable URIs by
// delegating to a pluggable resolver. The facade performs no rendering of its
// own.
package metadata

import (
	"context"
	"sync"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// SpecSource supplies decoded position fields. The position ledger satisfies
// this.
type SpecSource interface {
	Specs(id uint64) (domain.Position, error)
}

// Facade decodes a position and forwards its fields to the configured
// resolver. With no resolver set, TokenURI fails with ErrResolverUnset.
type Facade struct {
	mu       sync.RWMutex
	specs    SpecSource
	resolver domain.MetadataResolver
}

// NewFacade creates a Facade over the given spec source, with no resolver.
func NewFacade(specs SpecSource) *Facade {
	return &Facade{specs: specs}
}

// SetResolver swaps the resolver collaborator.
func (f *Facade) SetResolver(r domain.MetadataResolver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolver = r
}

// TokenURI returns the resolver-composed URI for a position.
func (f *Facade) TokenURI(ctx context.Context, id uint64) (string, error) {
	f.mu.RLock()
	resolver := f.resolver
	f.mu.RUnlock()

	if resolver == nil {
		return "", domain.ErrResolverUnset
	}

	pos, err := f.specs.Specs(id)
	if err != nil {
		return "", err
	}
	return resolver.Describe(ctx, pos.ID, pos.Amount, pos.Duration, pos.LockedUntil)
}
