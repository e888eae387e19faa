package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/grazerhq/grazer/internal/candidates"
	"github.com/grazerhq/grazer/internal/geocode"
	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/schedule"
	"github.com/grazerhq/grazer/internal/selection"
)

// DefaultConfig returns the full default configuration: a Cambridge day
// plan over the public Nominatim and Overpass instances.
func DefaultConfig() *Config {
	llmCfg := llm.DefaultConfig()
	llmCfg.CachePath = filepath.Join(DefaultHomeDir(), "cache", "completions.db")

	return &Config{
		Run: RunConfig{
			Timeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Area: AreaConfig{
			Descriptor:     "Cambridge, England",
			RadiusMeters:   3000,
			CandidateLimit: 25,
		},
		Geocode: GeocodeConfig{
			Nominatim: geocode.DefaultNominatimConfig(),
			Resolver:  geocode.DefaultResolverConfig(),
		},
		Candidates: candidates.DefaultOverpassConfig(),
		LLM:        llmCfg,
		Selection:  selection.DefaultConfig(),
		Schedule:   schedule.DefaultConfig(),
	}
}

// DefaultHomeDir returns the planner's home directory, ~/.grazer, falling
// back to the temp directory when the user home cannot be determined.
func DefaultHomeDir() string {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".grazer")
	}
	return filepath.Join(userHome, ".grazer")
}

// DefaultConfigPath returns the default config file path for a given home
// directory.
func DefaultConfigPath(homeDir string) string {
	return filepath.Join(homeDir, "config.yaml")
}
