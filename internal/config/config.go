// Package config loads, interpolates, and validates the planner's YAML
// configuration.
package config

import (
	"time"

	"github.com/grazerhq/grazer/internal/candidates"
	"github.com/grazerhq/grazer/internal/geocode"
	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/schedule"
	"github.com/grazerhq/grazer/internal/selection"
)

// Config is the root configuration for a planning run.
type Config struct {
	Run        RunConfig                 `mapstructure:"run" yaml:"run"`
	Logging    LoggingConfig             `mapstructure:"logging" yaml:"logging"`
	Area       AreaConfig                `mapstructure:"area" yaml:"area" validate:"required"`
	Geocode    GeocodeConfig             `mapstructure:"geocode" yaml:"geocode"`
	Candidates candidates.OverpassConfig `mapstructure:"candidates" yaml:"candidates"`
	LLM        llm.Config                `mapstructure:"llm" yaml:"llm"`
	Selection  selection.Config          `mapstructure:"selection" yaml:"selection"`
	Schedule   schedule.Config           `mapstructure:"schedule" yaml:"schedule"`
}

// RunConfig holds run-level settings.
type RunConfig struct {
	// Timeout bounds the whole pipeline. Zero disables the timeout.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"min=0"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// AreaConfig describes the planning area and candidate filters.
type AreaConfig struct {
	// Descriptor is the free-text area the run is planned in, geocoded
	// once at the start of the run for the candidate radius query.
	Descriptor string `mapstructure:"descriptor" yaml:"descriptor" validate:"required"`

	// RadiusMeters bounds the candidate search around the area centroid.
	RadiusMeters int `mapstructure:"radius_meters" yaml:"radius_meters" validate:"min=100,max=100000"`

	// Cuisines optionally restricts candidates to matching cuisine tags.
	Cuisines []string `mapstructure:"cuisines" yaml:"cuisines"`

	// Price optionally restricts candidates to one price tier.
	Price string `mapstructure:"price" yaml:"price" validate:"omitempty,oneof=budget moderate upscale"`

	// CandidateLimit caps how many candidates are fetched.
	CandidateLimit int `mapstructure:"candidate_limit" yaml:"candidate_limit" validate:"min=0"`
}

// GeocodeConfig groups the geocoding backend and resolver settings.
type GeocodeConfig struct {
	Nominatim geocode.NominatimConfig `mapstructure:"nominatim" yaml:"nominatim"`
	Resolver  geocode.ResolverConfig  `mapstructure:"resolver" yaml:"resolver"`
}
