package candidates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grazerhq/grazer/internal/types"
)

var cambridgeCentre = types.Coordinate{Latitude: 52.2053, Longitude: 0.1218}

const overpassFixture = `{
	"elements": [
		{"id": 1, "lat": 52.2034, "lon": 0.1181, "tags": {"name": "The Eagle", "amenity": "pub", "cuisine": "british", "opening_hours": "11:00-23:00"}},
		{"id": 2, "lat": 52.2015, "lon": 0.1182, "tags": {"name": "Fitzbillies", "amenity": "cafe", "cuisine": "coffee_shop;british"}},
		{"id": 3, "lat": 52.2060, "lon": 0.1190, "tags": {"amenity": "restaurant"}},
		{"id": 4, "center": {"lat": 52.2040, "lon": 0.1200}, "tags": {"name": "The Mill", "amenity": "pub"}},
		{"id": 5, "lat": 52.2070, "lon": 0.1210, "tags": {"name": "Noodle Bar", "amenity": "restaurant", "cuisine": "chinese"}}
	]
}`

func newOverpassTestSource(t *testing.T, body string, status int) *OverpassSource {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.Form.Get("data"), "amenity")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewOverpassSource(OverpassConfig{BaseURL: srv.URL})
}

func TestOverpassSource_Fetch(t *testing.T) {
	src := newOverpassTestSource(t, overpassFixture, http.StatusOK)

	got, err := src.Fetch(context.Background(), Query{Center: cambridgeCentre, RadiusMeters: 2000})
	require.NoError(t, err)
	require.Len(t, got, 4, "unnamed venues dropped")

	byName := map[string]bool{}
	for _, c := range got {
		assert.NoError(t, c.Validate())
		byName[c.Name] = true
	}
	assert.True(t, byName["The Eagle"])
	assert.True(t, byName["The Mill"], "way elements use their center position")
	assert.False(t, byName[""])
}

func TestOverpassSource_WayCenterCoordinate(t *testing.T) {
	src := newOverpassTestSource(t, overpassFixture, http.StatusOK)

	got, err := src.Fetch(context.Background(), Query{Center: cambridgeCentre})
	require.NoError(t, err)
	for _, c := range got {
		if c.Name == "The Mill" {
			assert.Equal(t, 52.2040, c.Coordinate.Latitude)
			assert.Equal(t, 0.1200, c.Coordinate.Longitude)
		}
	}
}

func TestOverpassSource_CuisineFilter(t *testing.T) {
	src := newOverpassTestSource(t, overpassFixture, http.StatusOK)

	got, err := src.Fetch(context.Background(), Query{Center: cambridgeCentre, Cuisines: []string{"chinese"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Noodle Bar", got[0].Name)
}

func TestOverpassSource_Limit(t *testing.T) {
	src := newOverpassTestSource(t, overpassFixture, http.StatusOK)

	got, err := src.Fetch(context.Background(), Query{Center: cambridgeCentre, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestOverpassSource_ServerErrorIsFatal(t *testing.T) {
	src := newOverpassTestSource(t, "gateway timeout", http.StatusGatewayTimeout)

	_, err := src.Fetch(context.Background(), Query{Center: cambridgeCentre})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CANDIDATE_SOURCE_FAILED))
}

func TestOverpassSource_InvalidCentroidRejected(t *testing.T) {
	src := NewOverpassSource(OverpassConfig{BaseURL: "http://localhost:0"})
	_, err := src.Fetch(context.Background(), Query{Center: types.Coordinate{Latitude: 99, Longitude: 0}})
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.CANDIDATE_SOURCE_FAILED))
}

func TestCompletenessScore(t *testing.T) {
	assert.Equal(t, 1.0, completenessScore(map[string]string{"name": "X"}))
	assert.Equal(t, 1.5, completenessScore(map[string]string{"cuisine": "thai", "website": "https://x"}))
}
