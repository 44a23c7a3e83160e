package custody

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// TestRouterSelectsByKind checks each custody kind maps to its own backend.
func TestRouterSelectsByKind(t *testing.T) {
	external := NewBalanceLedger()
	internal := NewBalanceLedger()
	r := NewRouter(external, internal)

	assert.Same(t, external, r.Backend(domain.CustodyExternalToken))
	assert.Same(t, internal, r.Backend(domain.CustodyInternalLedger))
}
