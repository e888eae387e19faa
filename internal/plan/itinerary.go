package plan

import (
	"fmt"

	"github.com/grazerhq/grazer/internal/types"
)

// StopKind distinguishes fixed commitments from placed meals in the schedule.
type StopKind string

const (
	StopCommitment StopKind = "commitment"
	StopMeal       StopKind = "meal"
)

// ItineraryStop is one ordered entry in the final schedule. Stops of kind
// commitment reference their source Commitment; meal stops reference the
// selected Candidate and carry the meal role.
type ItineraryStop struct {
	Kind   StopKind         `json:"kind"`
	Window types.TimeWindow `json:"window"`
	Name   string           `json:"name"`

	// Coordinate is nil only for stops derived from unresolved commitments,
	// which are placed by time window as markers without a position.
	Coordinate *types.Coordinate `json:"coordinate,omitempty"`

	// CommitmentID is set for commitment stops.
	CommitmentID types.CommitmentID `json:"commitment_id,omitempty"`

	// CandidateID and Role are set for meal stops.
	CandidateID types.CandidateID `json:"candidate_id,omitempty"`
	Role        MealRole          `json:"role,omitempty"`
}

// Itinerary is the finished, strictly time-ordered schedule. It is the stable
// artifact the presentation adapter consumes; only the itinerary builder
// constructs it.
type Itinerary struct {
	Stops []ItineraryStop `json:"stops"`
}

// Validate checks the itinerary invariants: stops sorted ascending by start
// time, and no two spatially-resolved stops overlapping in time. The overlap
// check compares each resolved stop against the last resolved stop before it,
// not merely the adjacent one: coordinate-less markers may sort between two
// resolved stops and must not mask a conflict between them. With stops sorted
// by start, any overlap among resolved stops implies an overlap with the last
// resolved predecessor, so one tracked index suffices.
func (it *Itinerary) Validate() error {
	lastResolved := -1
	for i, stop := range it.Stops {
		if err := stop.Window.Validate(); err != nil {
			return fmt.Errorf("stop %d: %w", i, err)
		}
		if i > 0 && stop.Window.Start < it.Stops[i-1].Window.Start {
			return fmt.Errorf("stop %d (%s) starts before stop %d (%s)",
				i, stop.Window, i-1, it.Stops[i-1].Window)
		}
		if stop.Coordinate == nil {
			continue
		}
		if lastResolved >= 0 && stop.Window.Overlaps(it.Stops[lastResolved].Window) {
			return fmt.Errorf("stops %d and %d overlap: %s vs %s",
				lastResolved, i, it.Stops[lastResolved].Window, stop.Window)
		}
		lastResolved = i
	}
	return nil
}

// Meals returns the meal stops in schedule order.
func (it *Itinerary) Meals() []ItineraryStop {
	var meals []ItineraryStop
	for _, stop := range it.Stops {
		if stop.Kind == StopMeal {
			meals = append(meals, stop)
		}
	}
	return meals
}
