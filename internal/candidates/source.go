// Package candidates supplies the pool of dining options for an area. The
// core consumes a Source as a synchronous snapshot call; a source failure is
// fatal to the run, the core neither retries nor caches on its behalf.
package candidates

import (
	"context"

	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

// Query describes the area and filters for a candidate fetch.
type Query struct {
	// Center is the planning area centroid.
	Center types.Coordinate

	// RadiusMeters bounds the search around the centroid.
	RadiusMeters int

	// Cuisines optionally restricts results to matching cuisine tags.
	Cuisines []string

	// Price optionally restricts results to one price tier. Sources
	// without price data ignore it.
	Price plan.PriceTier

	// Limit caps the number of returned candidates. Zero means the
	// source default.
	Limit int
}

// Source is the external collaborator contract for candidate data.
type Source interface {
	// Fetch returns a snapshot of dining candidates matching the query.
	// Every returned candidate carries a valid coordinate inside or near
	// the queried area.
	Fetch(ctx context.Context, q Query) ([]plan.Candidate, error)
}

// NewSourceError wraps a candidate fetch failure with the fatal run code.
func NewSourceError(message string, cause error) *types.GrazerError {
	return types.WrapError(types.CANDIDATE_SOURCE_FAILED, message, cause)
}
