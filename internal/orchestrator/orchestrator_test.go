package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grazerhq/grazer/internal/candidates"
	"github.com/grazerhq/grazer/internal/config"
	"github.com/grazerhq/grazer/internal/geocode"
	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/llm/providers"
	"github.com/grazerhq/grazer/internal/narrate"
	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/schedule"
	"github.com/grazerhq/grazer/internal/selection"
	"github.com/grazerhq/grazer/internal/types"
)

var (
	centreCoord = types.Coordinate{Latitude: 52.2053, Longitude: 0.1218}
	eagleCoord  = types.Coordinate{Latitude: 52.2034, Longitude: 0.1181}
)

// fakeGeocoder resolves against a fixed table. Unknown queries fail with a
// not-found error; a non-nil err fails every call; block waits for context
// cancellation before returning.
type fakeGeocoder struct {
	coords map[string]types.Coordinate
	err    error
	block  bool
}

func (f *fakeGeocoder) Geocode(ctx context.Context, query, areaHint string) (types.Coordinate, error) {
	if f.block {
		<-ctx.Done()
		return types.Coordinate{}, ctx.Err()
	}
	if f.err != nil {
		return types.Coordinate{}, f.err
	}
	if coord, ok := f.coords[geocode.Normalize(query)]; ok {
		return coord, nil
	}
	return types.Coordinate{}, types.NewError(types.GEOCODE_NOT_FOUND,
		fmt.Sprintf("no result for %q", query))
}

func testCandidates() []plan.Candidate {
	return []plan.Candidate{
		{ID: types.NewCandidateID(), Name: "Fitzbillies", Coordinate: centreCoord, Category: "cafe", Score: 4.6, Price: plan.PriceModerate},
		{ID: types.NewCandidateID(), Name: "The Eagle", Coordinate: eagleCoord, Category: "pub", Score: 4.4, Price: plan.PriceModerate},
		{ID: types.NewCandidateID(), Name: "Midsummer House", Coordinate: centreCoord, Category: "restaurant", Score: 4.8, Price: plan.PriceUpscale},
	}
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Area.Descriptor = "Cambridge, England"
	cfg.LLM.Provider = llm.ProviderMock
	cfg.LLM.Model = "mock-model"
	cfg.LLM.Retry = llm.RetryConfig{
		MaxAttempts:    1,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}
	cfg.Selection.Roles = []plan.MealRole{plan.MealBreakfast, plan.MealDinner}
	return cfg
}

// selectionResponse builds a valid model reply picking the given candidates
// for breakfast and dinner.
func selectionResponse(breakfast, dinner plan.Candidate) string {
	return fmt.Sprintf("```json\n"+
		`{"selections":[`+
		`{"candidate_id":%q,"role":"breakfast","rank":1},`+
		`{"candidate_id":%q,"role":"dinner","rank":1}`+
		`],"reasoning":"classic picks"}`+"\n```", breakfast.ID, dinner.ID)
}

const narrationResponse = "```json\n" +
	`{"greeting":"Morning!","day_overview":"A compact day in the centre.",` +
	`"restaurant_highlights":["Fitzbillies for chelsea buns"],` +
	`"route_guidance":"Everything is walkable.","closing_remarks":"Enjoy."}` + "\n```"

func newTestOrchestrator(t *testing.T, cfg *config.Config, geocoder geocode.Geocoder,
	source candidates.Source, responses []string) (*Orchestrator, *providers.MockProvider) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider := providers.NewMockProvider(responses)
	resolver := geocode.NewResolver(geocoder, geocode.ResolverConfig{
		MaxRetries:   0,
		RetryBackoff: time.Millisecond,
		Concurrency:  2,
	}, cfg.Area.Descriptor, logger)
	selector := selection.NewStage(provider, cfg.LLM, cfg.Selection, logger)
	builder := schedule.NewBuilder(cfg.Schedule, logger)
	narrator := narrate.NewNarrator(provider, cfg.LLM, logger)
	return New(cfg, resolver, source, selector, builder, narrator, logger), provider
}

func TestRun_FullPipeline(t *testing.T) {
	cfg := testConfig()
	cands := testCandidates()
	geocoder := &fakeGeocoder{coords: map[string]types.Coordinate{
		geocode.Normalize("Cambridge, England"):    centreCoord,
		geocode.Normalize("Cambridge City Centre"): centreCoord,
	}}
	o, provider := newTestOrchestrator(t, cfg, geocoder, candidates.NewStaticSource(cands),
		[]string{selectionResponse(cands[0], cands[2]), narrationResponse})

	calendarText := "12:00 - 13:00 Team meeting at Cambridge City Centre\n"
	result, err := o.Run(context.Background(), calendarText)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, StatusCompleted, result.Status)
	assert.Greater(t, result.Duration, time.Duration(0))

	pctx := result.Context
	require.NotNil(t, pctx)
	require.NotNil(t, pctx.Area())
	assert.Equal(t, "Cambridge, England", pctx.Area().Descriptor)

	require.Len(t, pctx.Commitments(), 1)
	assert.Equal(t, plan.ResolutionResolved, pctx.Commitments()[0].Status)

	require.Len(t, pctx.Selections(), 2)

	it := pctx.Itinerary()
	require.NotNil(t, it)
	// One fixed commitment plus breakfast and dinner.
	require.Len(t, it.Stops, 3)
	var meals, fixed int
	for _, stop := range it.Stops {
		switch stop.Kind {
		case plan.StopMeal:
			meals++
		case plan.StopCommitment:
			fixed++
		}
	}
	assert.Equal(t, 2, meals)
	assert.Equal(t, 1, fixed)

	assert.Contains(t, pctx.Narrative(), "Morning!")
	assert.Empty(t, pctx.Errors())

	// Selection then narration, one completion each.
	assert.Len(t, provider.GetCalls(), 2)
}

func TestRun_EmptyCandidateSourceFails(t *testing.T) {
	cfg := testConfig()
	geocoder := &fakeGeocoder{coords: map[string]types.Coordinate{
		geocode.Normalize("Cambridge, England"): centreCoord,
	}}
	o, provider := newTestOrchestrator(t, cfg, geocoder,
		candidates.NewStaticSource(nil), nil)

	result, err := o.Run(context.Background(), "")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CANDIDATE_SOURCE_EMPTY))

	require.NotNil(t, result)
	assert.Equal(t, StatusFailed, result.Status)
	assert.NotNil(t, result.Context)
	assert.Empty(t, provider.GetCalls())
}

func TestRun_AreaGeocodeFailureIsFatal(t *testing.T) {
	cfg := testConfig()
	geocoder := &fakeGeocoder{err: types.NewError(types.GEOCODE_NOT_FOUND, "unknown place")}
	o, _ := newTestOrchestrator(t, cfg, geocoder,
		candidates.NewStaticSource(testCandidates()), nil)

	result, err := o.Run(context.Background(), "")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.RUN_FAILED))
	assert.Contains(t, err.Error(), "Cambridge, England")
	assert.Equal(t, StatusFailed, result.Status)
	assert.Nil(t, result.Context.Area())
}

func TestRun_ParseErrorsDoNotAbortTheRun(t *testing.T) {
	cfg := testConfig()
	cands := testCandidates()
	geocoder := &fakeGeocoder{coords: map[string]types.Coordinate{
		geocode.Normalize("Cambridge, England"): centreCoord,
	}}
	o, _ := newTestOrchestrator(t, cfg, geocoder, candidates.NewStaticSource(cands),
		[]string{selectionResponse(cands[0], cands[1]), narrationResponse})

	calendarText := "not a calendar line\n12:00 - 11:00 backwards meeting\n"
	result, err := o.Run(context.Background(), calendarText)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)

	errs := result.Context.Errors()
	require.NotEmpty(t, errs)
	for _, entry := range errs {
		assert.Equal(t, plan.StageExtract, entry.Stage)
		assert.Equal(t, types.CALENDAR_PARSE_FAILED, entry.Code)
	}
}

func TestRun_UnresolvedCommitmentLocationIsNotFatal(t *testing.T) {
	cfg := testConfig()
	cands := testCandidates()
	// Area resolves, the commitment's location does not.
	geocoder := &fakeGeocoder{coords: map[string]types.Coordinate{
		geocode.Normalize("Cambridge, England"): centreCoord,
	}}
	o, _ := newTestOrchestrator(t, cfg, geocoder, candidates.NewStaticSource(cands),
		[]string{selectionResponse(cands[0], cands[1]), narrationResponse})

	result, err := o.Run(context.Background(), "12:00 - 13:00 Workshop at Nowhere Grange\n")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)

	require.Len(t, result.Context.Commitments(), 1)
	assert.Equal(t, plan.ResolutionUnresolved, result.Context.Commitments()[0].Status)

	var logged bool
	for _, entry := range result.Context.Errors() {
		if entry.Stage == plan.StageResolve {
			logged = true
		}
	}
	assert.True(t, logged)
}

func TestRun_NarrationFailureIsNotFatal(t *testing.T) {
	cfg := testConfig()
	cands := testCandidates()
	geocoder := &fakeGeocoder{coords: map[string]types.Coordinate{
		geocode.Normalize("Cambridge, England"): centreCoord,
	}}
	o, provider := newTestOrchestrator(t, cfg, geocoder, candidates.NewStaticSource(cands),
		[]string{selectionResponse(cands[0], cands[1]), "total nonsense, no json here"})

	result, err := o.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, result.Status)
	assert.NotNil(t, result.Context.Itinerary())
	assert.Empty(t, result.Context.Narrative())

	var logged bool
	for _, entry := range result.Context.Errors() {
		if entry.Stage == plan.StageNarrate {
			logged = true
		}
	}
	assert.True(t, logged)
	assert.Len(t, provider.GetCalls(), 2)
}

func TestRun_SelectionFailureIsFatal(t *testing.T) {
	cfg := testConfig()
	cands := testCandidates()
	geocoder := &fakeGeocoder{coords: map[string]types.Coordinate{
		geocode.Normalize("Cambridge, England"): centreCoord,
	}}
	// Both attempts return unparseable output.
	o, _ := newTestOrchestrator(t, cfg, geocoder, candidates.NewStaticSource(cands),
		[]string{"garbage", "garbage"})

	result, err := o.Run(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, StatusFailed, result.Status)
	assert.True(t, types.IsCode(err, types.SELECTION_FAILED))
	assert.Nil(t, result.Context.Itinerary())
}

func TestRun_TimeoutYieldsTimeoutStatus(t *testing.T) {
	cfg := testConfig()
	cfg.Run.Timeout = 10 * time.Millisecond
	geocoder := &fakeGeocoder{block: true}
	o, _ := newTestOrchestrator(t, cfg, geocoder,
		candidates.NewStaticSource(testCandidates()), nil)

	result, err := o.Run(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, StatusTimeout, result.Status)
	assert.True(t, types.IsCode(err, types.RUN_TIMEOUT))
	assert.NotNil(t, result.Context)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = llm.ProviderMock
	cfg.LLM.Model = ""
	cfg.LLM.CachePath = ""

	o, cleanup, err := NewFromConfig(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	require.NotNil(t, o)
	require.NotNil(t, cleanup)
	assert.NoError(t, cleanup())
}

func TestNewFromConfig_NilConfig(t *testing.T) {
	_, _, err := NewFromConfig(nil, nil)
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CONFIG_VALIDATION_FAILED))
}
