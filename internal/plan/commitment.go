package plan

import (
	"fmt"

	"github.com/grazerhq/grazer/internal/types"
)

// ResolutionStatus tracks the geocoding lifecycle of a commitment's location.
type ResolutionStatus string

const (
	// ResolutionPending means the location text has not been geocoded yet.
	ResolutionPending ResolutionStatus = "pending"

	// ResolutionResolved means geocoding succeeded and Coordinate is set.
	ResolutionResolved ResolutionStatus = "resolved"

	// ResolutionUnresolved means geocoding failed or was never applicable.
	// Unresolved commitments keep their time window for temporal reasoning
	// but are excluded from all distance computation.
	ResolutionUnresolved ResolutionStatus = "unresolved"
)

// IsValid checks if the status is a known value.
func (s ResolutionStatus) IsValid() bool {
	switch s {
	case ResolutionPending, ResolutionResolved, ResolutionUnresolved:
		return true
	default:
		return false
	}
}

// Commitment is a fixed, time-bound calendar obligation. It is created by the
// calendar extractor and mutated exactly once, by the geocoding resolver,
// which sets the final status and (for resolved commitments) the coordinate.
type Commitment struct {
	ID          types.CommitmentID `json:"id"`
	Window      types.TimeWindow   `json:"window"`
	Description string             `json:"description"`

	// RawLocation is the free-text location phrase extracted from the
	// calendar line. Empty when the line carried no location; such
	// commitments go straight to unresolved and skip geocoding.
	RawLocation string `json:"raw_location,omitempty"`

	// Coordinate is set only when Status is ResolutionResolved.
	Coordinate *types.Coordinate `json:"coordinate,omitempty"`

	Status ResolutionStatus `json:"status"`
}

// NewCommitment creates a pending commitment with a fresh identifier.
// Commitments without a raw location are created unresolved directly since
// there is nothing to geocode.
func NewCommitment(window types.TimeWindow, description, rawLocation string) Commitment {
	status := ResolutionPending
	if rawLocation == "" {
		status = ResolutionUnresolved
	}
	return Commitment{
		ID:          types.NewCommitmentID(),
		Window:      window,
		Description: description,
		RawLocation: rawLocation,
		Status:      status,
	}
}

// Resolve transitions the commitment to resolved with the given coordinate.
// Returns an error if the commitment is not pending; resolution happens once.
func (c *Commitment) Resolve(coord types.Coordinate) error {
	if c.Status != ResolutionPending {
		return fmt.Errorf("commitment %s is %s, cannot resolve", c.ID, c.Status)
	}
	if err := coord.Validate(); err != nil {
		return fmt.Errorf("commitment %s: %w", c.ID, err)
	}
	c.Coordinate = &coord
	c.Status = ResolutionResolved
	return nil
}

// MarkUnresolved transitions the commitment to unresolved. The coordinate is
// cleared so the resolved-implies-coordinate invariant holds in both
// directions.
func (c *Commitment) MarkUnresolved() {
	c.Coordinate = nil
	c.Status = ResolutionUnresolved
}

// IsResolved reports whether the commitment carries a usable coordinate.
func (c *Commitment) IsResolved() bool {
	return c.Status == ResolutionResolved && c.Coordinate != nil
}

// Validate checks the commitment's internal invariants.
func (c *Commitment) Validate() error {
	if c.ID.IsZero() {
		return fmt.Errorf("commitment missing identifier")
	}
	if err := c.Window.Validate(); err != nil {
		return fmt.Errorf("commitment %s: %w", c.ID, err)
	}
	if !c.Status.IsValid() {
		return fmt.Errorf("commitment %s: invalid status %q", c.ID, c.Status)
	}
	if c.Status == ResolutionResolved && c.Coordinate == nil {
		return fmt.Errorf("commitment %s: resolved without coordinate", c.ID)
	}
	if c.Status != ResolutionResolved && c.Coordinate != nil {
		return fmt.Errorf("commitment %s: %s status with coordinate", c.ID, c.Status)
	}
	return nil
}
