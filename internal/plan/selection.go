package plan

import (
	"fmt"

	"github.com/grazerhq/grazer/internal/types"
)

// MealRole names the meal slot a selected candidate fills.
type MealRole string

const (
	MealBreakfast MealRole = "breakfast"
	MealLunch     MealRole = "lunch"
	MealDinner    MealRole = "dinner"
)

// MealRoleOrder is the fixed placement precedence of meal roles. The
// itinerary builder assigns gaps to roles in this order, so earlier roles
// get first pick of feasible gaps.
var MealRoleOrder = []MealRole{MealBreakfast, MealLunch, MealDinner}

// IsValid checks if the role is a known meal role.
func (r MealRole) IsValid() bool {
	switch r {
	case MealBreakfast, MealLunch, MealDinner:
		return true
	default:
		return false
	}
}

// Precedence returns the placement rank of the role, lower first.
// Unknown roles sort last.
func (r MealRole) Precedence() int {
	for i, role := range MealRoleOrder {
		if role == r {
			return i
		}
	}
	return len(MealRoleOrder)
}

// Selection is one chosen candidate with its assigned meal role. Selections
// are produced once by the selection stage and immutable thereafter. Each
// selection must reference a candidate present in the planning context, and
// no two selections may reference the same candidate.
type Selection struct {
	CandidateID types.CandidateID `json:"candidate_id"`
	Role        MealRole          `json:"role"`

	// Rank is the selection stage's preference order within a role,
	// 1 being the strongest choice.
	Rank int `json:"rank"`
}

// Validate checks the selection's internal invariants. Referential checks
// against the candidate pool belong to the selection stage validator.
func (s Selection) Validate() error {
	if s.CandidateID.IsZero() {
		return fmt.Errorf("selection missing candidate reference")
	}
	if !s.Role.IsValid() {
		return fmt.Errorf("selection has invalid role %q", s.Role)
	}
	if s.Rank < 1 {
		return fmt.Errorf("selection rank must be >= 1, got %d", s.Rank)
	}
	return nil
}
