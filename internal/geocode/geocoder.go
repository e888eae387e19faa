// Package geocode resolves free-text location strings to coordinates. The
// resolver wraps an external geocoding backend with a process-lifetime cache,
// bounded retry for transient failures, and per-item failure isolation: one
// location failing never fails the batch.
package geocode

import (
	"context"

	"github.com/grazerhq/grazer/internal/types"
)

// Geocoder is the narrow contract to the external geocoding capability.
// Implementations return the best-match coordinate for a free-text query, or
// a typed failure: GEOCODE_NOT_FOUND when nothing matches, GEOCODE_AMBIGUOUS
// when there is no confident top result, GEOCODE_SERVICE_FAILED (retryable)
// for transport and service errors.
type Geocoder interface {
	// Geocode resolves one query. The area hint biases the search towards
	// the planning area; implementations may append it to queries that do
	// not already name the area.
	Geocode(ctx context.Context, query, areaHint string) (types.Coordinate, error)
}

// NewNotFoundError creates the typed failure for a query with no match.
func NewNotFoundError(query string) *types.GrazerError {
	return types.NewError(types.GEOCODE_NOT_FOUND, "no match for location: "+query)
}

// NewAmbiguousError creates the typed failure for a query whose top results
// cannot be told apart. Ambiguity is not retryable; asking again will not
// make the answer clearer.
func NewAmbiguousError(query string) *types.GrazerError {
	return types.NewError(types.GEOCODE_AMBIGUOUS, "no confident top match for location: "+query)
}

// NewServiceError creates the retryable typed failure for transport-level
// and service-level geocoding errors.
func NewServiceError(query string, cause error) *types.GrazerError {
	return types.WrapRetryableError(types.GEOCODE_SERVICE_FAILED, "geocode request failed for: "+query, cause)
}
