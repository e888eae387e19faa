package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

// GapMiss records why one open gap could not host a meal: how much time the
// gap offered versus what the meal needed including travel.
type GapMiss struct {
	Window    types.TimeWindow `json:"window"`
	Available time.Duration    `json:"available"`
	Required  time.Duration    `json:"required"`
}

// Shortfall is how much time the gap was missing.
func (m GapMiss) Shortfall() time.Duration {
	if m.Required <= m.Available {
		return 0
	}
	return m.Required - m.Available
}

// InfeasibleError reports that a meal role could not be placed in any open
// gap. It carries the nearest-miss diagnostics so the failure is explainable:
// the builder never silently drops a meal or resizes windows to force a fit.
type InfeasibleError struct {
	Role   plan.MealRole
	Misses []GapMiss
}

// Error implements the error interface.
func (e *InfeasibleError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] no feasible gap for %s", types.ITINERARY_INFEASIBLE, e.Role)
	if len(e.Misses) == 0 {
		sb.WriteString(" (day has no open gaps)")
		return sb.String()
	}
	sb.WriteString("; nearest misses:")
	for _, m := range e.Misses {
		fmt.Fprintf(&sb, " %s available %s of %s,", m.Window, m.Available, m.Required)
	}
	return strings.TrimRight(sb.String(), ",")
}

// Is lets errors.Is match against the ITINERARY_INFEASIBLE code.
func (e *InfeasibleError) Is(target error) bool {
	return types.IsCode(target, types.ITINERARY_INFEASIBLE)
}

// Unwrap exposes the underlying typed error so code-based checks work.
func (e *InfeasibleError) Unwrap() error {
	return types.NewError(types.ITINERARY_INFEASIBLE, "no feasible gap for "+string(e.Role))
}

// ConflictError reports two resolved commitments double-booked over
// overlapping time windows. The clash is in the calendar input, not in any
// placement decision, so it is named explicitly rather than surfacing as a
// generic invariant violation.
type ConflictError struct {
	First  plan.Commitment
	Second plan.Commitment
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("[%s] commitments %q (%s) and %q (%s) overlap",
		types.COMMITMENT_CONFLICT,
		e.First.Description, e.First.Window,
		e.Second.Description, e.Second.Window)
}

// Is lets errors.Is match against the COMMITMENT_CONFLICT code.
func (e *ConflictError) Is(target error) bool {
	return types.IsCode(target, types.COMMITMENT_CONFLICT)
}

// Unwrap exposes the underlying typed error so code-based checks work.
func (e *ConflictError) Unwrap() error {
	return types.NewError(types.COMMITMENT_CONFLICT,
		fmt.Sprintf("commitments %q and %q overlap", e.First.Description, e.Second.Description))
}
