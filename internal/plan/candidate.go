package plan

import (
	"fmt"

	"github.com/grazerhq/grazer/internal/types"
)

// PriceTier is a coarse cost bracket for a dining candidate.
type PriceTier string

const (
	PriceUnknown  PriceTier = ""
	PriceBudget   PriceTier = "budget"
	PriceModerate PriceTier = "moderate"
	PriceUpscale  PriceTier = "upscale"
)

// Candidate is one dining option supplied by the candidate source. Candidates
// are immutable within a run; the selection stage references them by ID.
type Candidate struct {
	ID         types.CandidateID `json:"id"`
	Name       string            `json:"name"`
	Coordinate types.Coordinate  `json:"coordinate"`

	// Category is the venue type tag from the source, e.g. "pub", "cafe",
	// "restaurant".
	Category string `json:"category"`

	// Score is the source's relevance/quality score, higher is better.
	// Sources without a rating signal leave it zero.
	Score float64 `json:"score"`

	Price PriceTier `json:"price,omitempty"`
}

// Validate checks that the candidate is usable for spatial reasoning.
func (c *Candidate) Validate() error {
	if c.ID.IsZero() {
		return fmt.Errorf("candidate missing identifier")
	}
	if c.Name == "" {
		return fmt.Errorf("candidate %s missing name", c.ID)
	}
	if err := c.Coordinate.Validate(); err != nil {
		return fmt.Errorf("candidate %s: %w", c.ID, err)
	}
	return nil
}
