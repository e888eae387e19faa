// Package schedule builds the final itinerary: it merges fixed commitments
// and selected meals into one ordered, time- and distance-feasible day plan.
//
// Placement is a greedy nearest-feasible-gap heuristic, deliberately not a
// global optimum: gaps are few on a real day, and every placement decision
// traces to a single gap comparison, which keeps the schedule explainable.
package schedule

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

// Config tunes the itinerary builder. All thresholds live here rather than
// in code; feasibility is judged only against these values.
type Config struct {
	// DayStart and DayEnd bound the planning day.
	DayStart types.ClockTime `mapstructure:"day_start" yaml:"day_start"`
	DayEnd   types.ClockTime `mapstructure:"day_end" yaml:"day_end"`

	// MealDuration is the time reserved for each placed meal.
	MealDuration time.Duration `mapstructure:"meal_duration" yaml:"meal_duration"`

	// TravelSpeedKmh converts straight-line distance to travel time.
	TravelSpeedKmh float64 `mapstructure:"travel_speed_kmh" yaml:"travel_speed_kmh" validate:"gt=0"`
}

// DefaultConfig returns the builder defaults: a 08:00-22:00 day, 90 minute
// meals, walking speed.
func DefaultConfig() Config {
	return Config{
		DayStart:       8 * 60,
		DayEnd:         22 * 60,
		MealDuration:   90 * time.Minute,
		TravelSpeedKmh: 4.5,
	}
}

// Builder assembles itineraries from a planning context's commitments and
// selections.
type Builder struct {
	cfg    Config
	logger *slog.Logger
}

// NewBuilder creates a builder. Zero-valued config fields fall back to
// defaults.
func NewBuilder(cfg Config, logger *slog.Logger) *Builder {
	def := DefaultConfig()
	if cfg.DayEnd == 0 {
		cfg.DayStart = def.DayStart
		cfg.DayEnd = def.DayEnd
	}
	if cfg.MealDuration <= 0 {
		cfg.MealDuration = def.MealDuration
	}
	if cfg.TravelSpeedKmh <= 0 {
		cfg.TravelSpeedKmh = def.TravelSpeedKmh
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{cfg: cfg, logger: logger}
}

// placement is one candidate meal position under evaluation.
type placement struct {
	gap    gap
	window types.TimeWindow
	detour float64
}

// Build produces the ordered itinerary, or an InfeasibleError when some
// requested meal role fits no open gap. Resolved commitments keep their time
// windows untouched; unresolved ones are placed by window as markers without
// coordinates.
func (b *Builder) Build(pctx *plan.Context) (*plan.Itinerary, error) {
	day := types.TimeWindow{Start: b.cfg.DayStart, End: b.cfg.DayEnd}
	if err := day.Validate(); err != nil {
		return nil, types.WrapError(types.ITINERARY_INVALID, "invalid day bounds", err)
	}

	commitments := pctx.Commitments()
	if first, second, ok := findConflict(commitments); ok {
		return nil, &ConflictError{First: first, Second: second}
	}

	anchors := make([]anchor, 0, len(commitments))
	for _, c := range commitments {
		anchors = append(anchors, anchor{window: c.Window, coord: c.Coordinate})
	}

	mealStops, err := b.placeMeals(pctx, day, anchors)
	if err != nil {
		return nil, err
	}

	stops := make([]plan.ItineraryStop, 0, len(commitments)+len(mealStops))
	for _, c := range commitments {
		stops = append(stops, plan.ItineraryStop{
			Kind:         plan.StopCommitment,
			Window:       c.Window,
			Name:         c.Description,
			Coordinate:   c.Coordinate,
			CommitmentID: c.ID,
		})
	}
	stops = append(stops, mealStops...)

	sort.SliceStable(stops, func(i, j int) bool {
		if stops[i].Window.Start != stops[j].Window.Start {
			return stops[i].Window.Start < stops[j].Window.Start
		}
		return stops[i].Window.End < stops[j].Window.End
	})

	it := &plan.Itinerary{Stops: stops}
	if err := it.Validate(); err != nil {
		return nil, types.WrapError(types.ITINERARY_INVALID, "built itinerary violates invariants", err)
	}
	return it, nil
}

// findConflict looks for two resolved commitments with overlapping windows.
// Unresolved commitments are exempt: they reserve time as coordinate-less
// markers and are allowed to coincide with anything.
func findConflict(commitments []plan.Commitment) (plan.Commitment, plan.Commitment, bool) {
	resolved := make([]plan.Commitment, 0, len(commitments))
	for _, c := range commitments {
		if c.IsResolved() {
			resolved = append(resolved, c)
		}
	}
	sort.SliceStable(resolved, func(i, j int) bool {
		return resolved[i].Window.Start < resolved[j].Window.Start
	})
	for i := 1; i < len(resolved); i++ {
		if resolved[i].Window.Overlaps(resolved[i-1].Window) {
			return resolved[i-1], resolved[i], true
		}
	}
	return plan.Commitment{}, plan.Commitment{}, false
}

// placeMeals assigns each requested meal role to its best feasible gap, in
// fixed role precedence so earlier meals get first pick. Within a role the
// selections are tried in rank order; the first ranked candidate with a
// feasible gap wins. Placed meals become anchors for later roles.
func (b *Builder) placeMeals(pctx *plan.Context, day types.TimeWindow, anchors []anchor) ([]plan.ItineraryStop, error) {
	byRole := make(map[plan.MealRole][]plan.Selection)
	for _, sel := range pctx.Selections() {
		byRole[sel.Role] = append(byRole[sel.Role], sel)
	}
	for role := range byRole {
		sels := byRole[role]
		sort.SliceStable(sels, func(i, j int) bool { return sels[i].Rank < sels[j].Rank })
	}

	var stops []plan.ItineraryStop
	for _, role := range plan.MealRoleOrder {
		sels, ok := byRole[role]
		if !ok {
			continue
		}

		gaps := computeGaps(day, anchors)
		placed := false
		var misses []GapMiss

		for _, sel := range sels {
			cand, found := pctx.Candidate(sel.CandidateID)
			if !found {
				return nil, types.NewError(types.ITINERARY_INVALID,
					fmt.Sprintf("selection for %s references unknown candidate %s", role, sel.CandidateID))
			}

			best, candMisses := b.bestPlacement(gaps, cand.Coordinate)
			if len(misses) == 0 {
				// Diagnostics report the top-ranked candidate's view of the day.
				misses = candMisses
			}
			if best == nil {
				continue
			}

			b.logger.Debug("placed meal",
				slog.String("role", string(role)),
				slog.String("candidate", cand.Name),
				slog.String("window", best.window.String()),
				slog.Float64("detour_meters", best.detour))

			coord := cand.Coordinate
			stops = append(stops, plan.ItineraryStop{
				Kind:        plan.StopMeal,
				Window:      best.window,
				Name:        cand.Name,
				Coordinate:  &coord,
				CandidateID: cand.ID,
				Role:        role,
			})
			anchors = append(anchors, anchor{window: best.window, coord: &coord})
			placed = true
			break
		}

		if !placed {
			return nil, &InfeasibleError{Role: role, Misses: misses}
		}
	}
	return stops, nil
}

// bestPlacement evaluates every gap for a candidate position and returns the
// feasible placement with minimal detour cost, ties broken by earliest gap
// start. Returns the near-miss diagnostics when nothing fits.
func (b *Builder) bestPlacement(gaps []gap, at types.Coordinate) (*placement, []GapMiss) {
	var best *placement
	var misses []GapMiss

	for _, g := range gaps {
		travelIn := b.travelTime(g.prev, &at)
		travelOut := b.travelTime(&at, g.next)
		required := travelIn + b.cfg.MealDuration + travelOut

		if g.window.Duration() < required {
			misses = append(misses, GapMiss{
				Window:    g.window,
				Available: g.window.Duration(),
				Required:  required,
			})
			continue
		}

		start := g.window.Start.Add(travelIn)
		p := placement{
			gap:    g,
			window: types.TimeWindow{Start: start, End: start.Add(b.cfg.MealDuration)},
			detour: b.detourCost(g, at),
		}
		if best == nil || p.detour < best.detour ||
			(p.detour == best.detour && p.gap.window.Start < best.gap.window.Start) {
			cp := p
			best = &cp
		}
	}
	return best, misses
}

// travelTime estimates travel between two points at the configured speed,
// rounded up to whole minutes. A missing endpoint (day edge, unresolved
// neighbor) costs nothing.
func (b *Builder) travelTime(from, to *types.Coordinate) time.Duration {
	if from == nil || to == nil {
		return 0
	}
	meters := from.DistanceTo(*to)
	minutes := meters / (b.cfg.TravelSpeedKmh * 1000 / 60)
	return time.Duration(math.Ceil(minutes)) * time.Minute
}

// detourCost is the extra distance of visiting the meal versus traveling
// directly between the gap's bounding stops. Gaps missing a bound contribute
// only the legs that exist.
func (b *Builder) detourCost(g gap, at types.Coordinate) float64 {
	switch {
	case g.prev != nil && g.next != nil:
		return g.prev.DistanceTo(at) + at.DistanceTo(*g.next) - g.prev.DistanceTo(*g.next)
	case g.prev != nil:
		return g.prev.DistanceTo(at)
	case g.next != nil:
		return at.DistanceTo(*g.next)
	default:
		return 0
	}
}
