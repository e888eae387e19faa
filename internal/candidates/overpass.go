package candidates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

const (
	defaultOverpassBaseURL = "https://overpass-api.de/api/interpreter"
	defaultRadiusMeters    = 2000
	defaultLimit           = 1000
)

// foodAmenities are the OSM amenity values treated as dining candidates.
var foodAmenities = []string{
	"restaurant", "pub", "bar", "cafe", "fast_food", "bistro", "food_court",
}

// OverpassConfig configures the Overpass API candidate source.
type OverpassConfig struct {
	BaseURL string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// DefaultOverpassConfig returns production defaults for the public Overpass
// instance.
func DefaultOverpassConfig() OverpassConfig {
	return OverpassConfig{
		BaseURL: defaultOverpassBaseURL,
		Timeout: 30 * time.Second,
	}
}

// OverpassSource fetches dining candidates from an Overpass API endpoint,
// querying food amenities within a radius of the area centroid.
type OverpassSource struct {
	cfg    OverpassConfig
	client *http.Client
}

// NewOverpassSource creates an Overpass-backed candidate source.
func NewOverpassSource(cfg OverpassConfig) *OverpassSource {
	def := DefaultOverpassConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &OverpassSource{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// overpassResponse is the relevant slice of an Overpass JSON reply.
type overpassResponse struct {
	Elements []overpassElement `json:"elements"`
}

type overpassElement struct {
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *overpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

type overpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Fetch queries food amenities around the center and maps named venues to
// candidates. Unnamed venues are dropped; a venue nobody can ask for by name
// is useless in an itinerary.
func (s *OverpassSource) Fetch(ctx context.Context, q Query) ([]plan.Candidate, error) {
	if err := q.Center.Validate(); err != nil {
		return nil, NewSourceError("invalid area centroid", err)
	}
	radius := q.RadiusMeters
	if radius <= 0 {
		radius = defaultRadiusMeters
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	query := buildOverpassQuery(q.Center, radius, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL,
		strings.NewReader(url.Values{"data": {query}}.Encode()))
	if err != nil {
		return nil, NewSourceError("build overpass request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, NewSourceError("overpass request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewSourceError(
			fmt.Sprintf("overpass status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var parsed overpassResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, NewSourceError("decode overpass response", err)
	}

	candidates := make([]plan.Candidate, 0, len(parsed.Elements))
	for _, el := range parsed.Elements {
		cand, ok := elementToCandidate(el)
		if !ok {
			continue
		}
		if !matchesCuisines(cand, el.Tags, q.Cuisines) {
			continue
		}
		candidates = append(candidates, cand)
		if len(candidates) >= limit {
			break
		}
	}
	return candidates, nil
}

// buildOverpassQuery renders the Overpass QL for food amenity nodes and ways
// around a point.
func buildOverpassQuery(center types.Coordinate, radius, limit int) string {
	amenities := strings.Join(foodAmenities, "|")
	around := fmt.Sprintf("around:%d,%.6f,%.6f", radius, center.Latitude, center.Longitude)
	return fmt.Sprintf(`[out:json][timeout:25];
(
  node["amenity"~"^(%s)$"](%s);
  way["amenity"~"^(%s)$"](%s);
);
out center %d;`, amenities, around, amenities, around, limit)
}

// elementToCandidate maps one Overpass element to a candidate. Ways carry
// their position in the center field.
func elementToCandidate(el overpassElement) (plan.Candidate, bool) {
	name := el.Tags["name"]
	if name == "" {
		return plan.Candidate{}, false
	}

	lat, lon := el.Lat, el.Lon
	if el.Center != nil {
		lat, lon = el.Center.Lat, el.Center.Lon
	}
	coord := types.Coordinate{Latitude: lat, Longitude: lon}
	if coord.IsZero() || coord.Validate() != nil {
		return plan.Candidate{}, false
	}

	return plan.Candidate{
		ID:         types.NewCandidateID(),
		Name:       name,
		Coordinate: coord,
		Category:   el.Tags["amenity"],
		Score:      completenessScore(el.Tags),
	}, true
}

// completenessScore is a weak quality prior: OSM has no ratings, but venues
// with richer tagging tend to be real, open, and findable.
func completenessScore(tags map[string]string) float64 {
	score := 1.0
	for _, key := range []string{"cuisine", "opening_hours", "website", "phone"} {
		if tags[key] != "" {
			score += 0.25
		}
	}
	return score
}

// matchesCuisines applies the optional cuisine filter against the OSM
// cuisine tag, which is a semicolon-separated list.
func matchesCuisines(cand plan.Candidate, tags map[string]string, cuisines []string) bool {
	if len(cuisines) == 0 {
		return true
	}
	venueCuisines := strings.Split(strings.ToLower(tags["cuisine"]), ";")
	for _, want := range cuisines {
		for _, have := range venueCuisines {
			if strings.TrimSpace(have) == strings.ToLower(want) {
				return true
			}
		}
	}
	return false
}
