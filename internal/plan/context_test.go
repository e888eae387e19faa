package plan

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grazerhq/grazer/internal/types"
)

func window(t *testing.T, start, end string) types.TimeWindow {
	t.Helper()
	s, err := types.ParseClockTime(start)
	require.NoError(t, err)
	e, err := types.ParseClockTime(end)
	require.NoError(t, err)
	return types.TimeWindow{Start: s, End: e}
}

func TestContext_SectionsSetOnce(t *testing.T) {
	ctx := NewContext()

	require.NoError(t, ctx.SetCommitments([]Commitment{
		NewCommitment(window(t, "12:00", "13:00"), "Lunch meeting", "The Eagle"),
	}))
	assert.Error(t, ctx.SetCommitments(nil), "second commitments write must fail")

	require.NoError(t, ctx.SetCandidates([]Candidate{
		{ID: types.NewCandidateID(), Name: "Fitzbillies", Coordinate: types.Coordinate{Latitude: 52.2, Longitude: 0.118}},
	}))
	assert.Error(t, ctx.SetCandidates(nil))

	require.NoError(t, ctx.SetSelections([]Selection{}, "no meals requested"))
	assert.Error(t, ctx.SetSelections(nil, ""))

	require.NoError(t, ctx.SetItinerary(&Itinerary{}))
	assert.Error(t, ctx.SetItinerary(&Itinerary{}))
}

func TestContext_ResolveCommitmentByID(t *testing.T) {
	ctx := NewContext()
	first := NewCommitment(window(t, "09:00", "10:00"), "Standup at King's College", "King's College")
	second := NewCommitment(window(t, "14:00", "15:00"), "Dentist at Cambridge Dental", "Cambridge Dental")
	require.NoError(t, ctx.SetCommitments([]Commitment{first, second}))

	coord := types.Coordinate{Latitude: 52.2042, Longitude: 0.1166}
	require.NoError(t, ctx.ResolveCommitment(second.ID, coord))
	require.NoError(t, ctx.MarkCommitmentUnresolved(first.ID))

	got := ctx.Commitments()
	assert.Equal(t, ResolutionUnresolved, got[0].Status)
	assert.Nil(t, got[0].Coordinate)
	assert.Equal(t, ResolutionResolved, got[1].Status)
	require.NotNil(t, got[1].Coordinate)
	assert.Equal(t, coord, *got[1].Coordinate)
}

func TestContext_ResolveUnknownCommitment(t *testing.T) {
	ctx := NewContext()
	require.NoError(t, ctx.SetCommitments(nil))
	err := ctx.ResolveCommitment(types.NewCommitmentID(), types.Coordinate{Latitude: 52, Longitude: 0})
	assert.Error(t, err)
}

func TestContext_ErrorLogAppendOnly(t *testing.T) {
	ctx := NewContext()
	ctx.LogError(StageExtract, types.CALENDAR_PARSE_FAILED, "line 3: bad shape")
	ctx.LogError(StageResolve, types.GEOCODE_NOT_FOUND, "no match: Atlantis")

	entries := ctx.Errors()
	require.Len(t, entries, 2)
	assert.Equal(t, StageExtract, entries[0].Stage)
	assert.Equal(t, types.GEOCODE_NOT_FOUND, entries[1].Code)

	// Returned slice is a copy; mutating it does not touch the log.
	entries[0].Message = "tampered"
	assert.Equal(t, "line 3: bad shape", ctx.Errors()[0].Message)
}

func TestContext_ConcurrentErrorLogging(t *testing.T) {
	ctx := NewContext()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx.LogError(StageResolve, types.GEOCODE_SERVICE_FAILED, "transient")
		}()
	}
	wg.Wait()
	assert.Len(t, ctx.Errors(), 50)
}

func TestCommitment_ResolveInvariants(t *testing.T) {
	c := NewCommitment(window(t, "10:00", "11:00"), "Coffee at Hot Numbers", "Hot Numbers")
	assert.Equal(t, ResolutionPending, c.Status)

	coord := types.Coordinate{Latitude: 52.1985, Longitude: 0.1322}
	require.NoError(t, c.Resolve(coord))
	assert.True(t, c.IsResolved())
	assert.NoError(t, c.Validate())

	// Resolution happens once.
	assert.Error(t, c.Resolve(coord))
}

func TestCommitment_NoLocationIsUnresolved(t *testing.T) {
	c := NewCommitment(window(t, "07:30", "08:15"), "Morning Run", "")
	assert.Equal(t, ResolutionUnresolved, c.Status)
	assert.NoError(t, c.Validate())
}

func TestItinerary_ValidateOrderingAndOverlap(t *testing.T) {
	coord := types.Coordinate{Latitude: 52.2, Longitude: 0.12}

	sorted := &Itinerary{Stops: []ItineraryStop{
		{Kind: StopMeal, Window: window(t, "09:00", "10:00"), Coordinate: &coord, Name: "Breakfast"},
		{Kind: StopCommitment, Window: window(t, "12:00", "13:00"), Coordinate: &coord, Name: "Meeting"},
	}}
	assert.NoError(t, sorted.Validate())

	unsorted := &Itinerary{Stops: []ItineraryStop{
		{Kind: StopCommitment, Window: window(t, "12:00", "13:00"), Coordinate: &coord},
		{Kind: StopMeal, Window: window(t, "09:00", "10:00"), Coordinate: &coord},
	}}
	assert.Error(t, unsorted.Validate())

	overlapping := &Itinerary{Stops: []ItineraryStop{
		{Kind: StopCommitment, Window: window(t, "12:00", "13:00"), Coordinate: &coord},
		{Kind: StopMeal, Window: window(t, "12:30", "13:30"), Coordinate: &coord},
	}}
	assert.Error(t, overlapping.Validate())
}

func TestMealRole_Precedence(t *testing.T) {
	assert.Less(t, MealBreakfast.Precedence(), MealLunch.Precedence())
	assert.Less(t, MealLunch.Precedence(), MealDinner.Precedence())
	assert.Equal(t, len(MealRoleOrder), MealRole("brunch").Precedence())
}
