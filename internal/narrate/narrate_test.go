package narrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/llm/providers"
	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

func testLLMConfig() llm.Config {
	cfg := llm.DefaultConfig()
	cfg.Provider = llm.ProviderMock
	cfg.Model = "mock-model"
	cfg.Retry = llm.RetryConfig{MaxAttempts: 1}
	return cfg
}

func contextWithItinerary(t *testing.T) *plan.Context {
	t.Helper()
	pctx := plan.NewContext()
	coord := types.Coordinate{Latitude: 52.2053, Longitude: 0.1218}
	it := &plan.Itinerary{Stops: []plan.ItineraryStop{
		{
			Kind:       plan.StopMeal,
			Window:     types.TimeWindow{Start: 9 * 60, End: 10*60 + 30},
			Name:       "Fitzbillies",
			Role:       plan.MealBreakfast,
			Coordinate: &coord,
		},
		{
			Kind:         plan.StopCommitment,
			Window:       types.TimeWindow{Start: 12 * 60, End: 13 * 60},
			Name:         "Team meeting",
			Coordinate:   &coord,
			CommitmentID: types.NewCommitmentID(),
		},
	}}
	require.NoError(t, pctx.SetItinerary(it))
	return pctx
}

const narrationJSON = `{
	"greeting": "Good morning!",
	"day_overview": "Breakfast first, then your meeting.",
	"restaurant_highlights": ["Fitzbillies is famous for its Chelsea buns."],
	"route_guidance": "Everything is a short walk apart.",
	"closing_remarks": "Enjoy your day."
}`

func TestNarratorRun(t *testing.T) {
	pctx := contextWithItinerary(t)
	mock := providers.NewMockProvider([]string{"```json\n" + narrationJSON + "\n```"})

	n := NewNarrator(mock, testLLMConfig(), nil)
	require.NoError(t, n.Run(context.Background(), pctx))

	narrative := pctx.Narrative()
	assert.Contains(t, narrative, "Good morning!")
	assert.Contains(t, narrative, "## Your Day")
	assert.Contains(t, narrative, "Chelsea buns")
	assert.Contains(t, narrative, "Enjoy your day.")

	calls := mock.GetCalls()
	require.Len(t, calls, 1)
	prompt := calls[0].Request.Messages[1].Content
	assert.Contains(t, prompt, "Fitzbillies")
	assert.Contains(t, prompt, "Team meeting")
}

func TestNarratorRun_NoItinerary(t *testing.T) {
	n := NewNarrator(providers.NewMockProvider(nil), testLLMConfig(), nil)
	err := n.Run(context.Background(), plan.NewContext())
	require.Error(t, err)
}

func TestNarratorRun_BadResponseLeavesNarrativeEmpty(t *testing.T) {
	pctx := contextWithItinerary(t)
	mock := providers.NewMockProvider([]string{"I refuse to answer in JSON."})

	n := NewNarrator(mock, testLLMConfig(), nil)
	err := n.Run(context.Background(), pctx)
	require.Error(t, err)
	assert.Empty(t, pctx.Narrative())
}

func TestCompanionOutputFormat(t *testing.T) {
	out := CompanionOutput{
		Greeting:             "Hello!",
		DayOverview:          "A full day.",
		RestaurantHighlights: []string{"The Eagle pours a good pint."},
		RouteGuidance:        "Walk everywhere.",
		ClosingRemarks:       "Cheers.",
	}

	text := out.Format()
	assert.Contains(t, text, "Hello!")
	assert.Contains(t, text, "## Where You're Eating")
	assert.Contains(t, text, "- The Eagle pours a good pint.")
	assert.True(t, len(text) > 0 && text[len(text)-1] == '\n')

	empty := CompanionOutput{}.Format()
	assert.Equal(t, "\n", empty)
}

func TestRenderItinerary(t *testing.T) {
	pctx := contextWithItinerary(t)
	require.NoError(t, pctx.SetArea(plan.ResolvedArea{
		Descriptor: "Cambridge, England",
		Centroid:   types.Coordinate{Latitude: 52.2053, Longitude: 0.1218},
	}))

	out := RenderItinerary(pctx)
	assert.Contains(t, out, "Cambridge, England")
	assert.Contains(t, out, "Fitzbillies")
	assert.Contains(t, out, "Team meeting")
}

func TestRenderItinerary_Empty(t *testing.T) {
	out := RenderItinerary(plan.NewContext())
	assert.Contains(t, out, "no itinerary")
}

func TestRenderErrors(t *testing.T) {
	pctx := plan.NewContext()
	assert.Empty(t, RenderErrors(pctx))

	pctx.LogError(plan.StageResolve, types.GEOCODE_NOT_FOUND, "no match for Atlantis")
	out := RenderErrors(pctx)
	assert.Contains(t, out, "1 issue(s)")
	assert.Contains(t, out, "Atlantis")
}
