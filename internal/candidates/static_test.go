package candidates

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

func staticFixture() []plan.Candidate {
	return []plan.Candidate{
		{ID: types.NewCandidateID(), Name: "Fitzbillies", Category: "cafe", Price: plan.PriceModerate},
		{ID: types.NewCandidateID(), Name: "The Eagle", Category: "pub", Price: plan.PriceModerate},
		{ID: types.NewCandidateID(), Name: "Midsummer House", Category: "restaurant", Price: plan.PriceUpscale},
	}
}

func TestStaticSource_FetchAll(t *testing.T) {
	src := NewStaticSource(staticFixture())
	got, err := src.Fetch(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestStaticSource_CuisineFilterMatchesCategory(t *testing.T) {
	src := NewStaticSource(staticFixture())
	got, err := src.Fetch(context.Background(), Query{Cuisines: []string{"Pub", " cafe "}})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Fitzbillies", got[0].Name)
	assert.Equal(t, "The Eagle", got[1].Name)
}

func TestStaticSource_PriceFilter(t *testing.T) {
	src := NewStaticSource(staticFixture())
	got, err := src.Fetch(context.Background(), Query{Price: plan.PriceUpscale})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Midsummer House", got[0].Name)
}

func TestStaticSource_Limit(t *testing.T) {
	src := NewStaticSource(staticFixture())
	got, err := src.Fetch(context.Background(), Query{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStaticSource_Failing(t *testing.T) {
	src := NewFailingSource(errors.New("fixtures unavailable"))
	_, err := src.Fetch(context.Background(), Query{})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CANDIDATE_SOURCE_FAILED))
}
