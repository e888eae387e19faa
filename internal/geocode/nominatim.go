package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/grazerhq/grazer/internal/types"
)

const (
	defaultNominatimBaseURL = "https://nominatim.openstreetmap.org"
	defaultUserAgent        = "grazer (github.com/grazerhq/grazer)"

	// maxResults is how many ranked matches we ask the service for; enough
	// to judge ambiguity without paging.
	maxResults = 5
)

// NominatimConfig configures the Nominatim-compatible geocoding backend.
type NominatimConfig struct {
	BaseURL   string        `mapstructure:"base_url" yaml:"base_url"`
	UserAgent string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`

	// AmbiguityEpsilon is the importance-score margin below which the top
	// two matches are considered indistinguishable and the query ambiguous.
	AmbiguityEpsilon float64 `mapstructure:"ambiguity_epsilon" yaml:"ambiguity_epsilon"`
}

// DefaultNominatimConfig returns production defaults for the public
// Nominatim instance.
func DefaultNominatimConfig() NominatimConfig {
	return NominatimConfig{
		BaseURL:          defaultNominatimBaseURL,
		UserAgent:        defaultUserAgent,
		Timeout:          10 * time.Second,
		AmbiguityEpsilon: 0.02,
	}
}

// NominatimClient is a Geocoder over the Nominatim HTTP search API.
type NominatimClient struct {
	cfg    NominatimConfig
	client *http.Client
}

// NewNominatimClient creates a Nominatim-backed geocoder. Zero-valued config
// fields fall back to defaults.
func NewNominatimClient(cfg NominatimConfig) *NominatimClient {
	def := DefaultNominatimConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.AmbiguityEpsilon <= 0 {
		cfg.AmbiguityEpsilon = def.AmbiguityEpsilon
	}
	return &NominatimClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// nominatimResult is one ranked match from the search API. Latitude and
// longitude arrive as strings.
type nominatimResult struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}

// Geocode resolves a free-text query against the search API. Queries that do
// not already mention the area hint get it appended, matching how the
// planner's users write calendar entries ("The Eagle" rather than "The
// Eagle, Cambridge, England").
func (c *NominatimClient) Geocode(ctx context.Context, query, areaHint string) (types.Coordinate, error) {
	q := query
	if areaHint != "" && !containsFold(query, primaryAreaName(areaHint)) {
		q = query + ", " + areaHint
	}

	endpoint := fmt.Sprintf("%s/search?%s", strings.TrimRight(c.cfg.BaseURL, "/"), url.Values{
		"q":      {q},
		"format": {"jsonv2"},
		"limit":  {strconv.Itoa(maxResults)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return types.Coordinate{}, NewServiceError(query, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return types.Coordinate{}, NewServiceError(query, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.Coordinate{}, NewServiceError(query,
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return types.Coordinate{}, NewServiceError(query, fmt.Errorf("decode response: %w", err))
	}

	return c.classify(query, results)
}

// classify turns the ranked match list into a coordinate or a typed failure.
// An empty list is not-found; a top pair whose importance scores are within
// the configured epsilon is ambiguous.
func (c *NominatimClient) classify(query string, results []nominatimResult) (types.Coordinate, error) {
	if len(results) == 0 {
		return types.Coordinate{}, NewNotFoundError(query)
	}

	if len(results) > 1 && results[0].Importance-results[1].Importance < c.cfg.AmbiguityEpsilon {
		return types.Coordinate{}, NewAmbiguousError(query)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return types.Coordinate{}, NewServiceError(query, fmt.Errorf("invalid latitude %q", results[0].Lat))
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return types.Coordinate{}, NewServiceError(query, fmt.Errorf("invalid longitude %q", results[0].Lon))
	}

	coord := types.Coordinate{Latitude: lat, Longitude: lon}
	if err := coord.Validate(); err != nil {
		return types.Coordinate{}, NewServiceError(query, err)
	}
	return coord, nil
}

// primaryAreaName returns the leading segment of an area descriptor:
// "Cambridge, England" -> "Cambridge".
func primaryAreaName(area string) string {
	if idx := strings.Index(area, ","); idx > 0 {
		return strings.TrimSpace(area[:idx])
	}
	return strings.TrimSpace(area)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
