package metadata

import (
	"context"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// TemplateResolver renders a URI from a template string. The placeholders
// {id}, {amount}, {duration}, and {locked_until} are replaced with the
// position's decoded field values.
type TemplateResolver struct {
	template string
}

// NewTemplateResolver creates a resolver for the given URI template.
func NewTemplateResolver(template string) *TemplateResolver {
	return &TemplateResolver{template: template}
}

// Describe substitutes the position fields into the template.
func (r *TemplateResolver) Describe(_ context.Context, id uint64, amount *uint256.Int, duration, lockedUntil uint64) (string, error) {
	replacer := strings.NewReplacer(
		"{id}", strconv.FormatUint(id, 10),
		"{amount}", amount.Dec(),
		"{duration}", strconv.FormatUint(duration, 10),
		"{locked_until}", strconv.FormatUint(lockedUntil, 10),
	)
	return replacer.Replace(r.template), nil
}
