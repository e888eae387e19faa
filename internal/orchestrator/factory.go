package orchestrator

import (
	"log/slog"

	"github.com/grazerhq/grazer/internal/candidates"
	"github.com/grazerhq/grazer/internal/config"
	"github.com/grazerhq/grazer/internal/geocode"
	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/llm/providers"
	"github.com/grazerhq/grazer/internal/narrate"
	"github.com/grazerhq/grazer/internal/schedule"
	"github.com/grazerhq/grazer/internal/selection"
	"github.com/grazerhq/grazer/internal/types"
)

// NewFromConfig builds a production orchestrator from configuration. The
// returned cleanup func closes resources the orchestrator owns, currently
// the completion cache; callers must invoke it after the run.
func NewFromConfig(cfg *config.Config, logger *slog.Logger) (*Orchestrator, func() error, error) {
	if cfg == nil {
		return nil, nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "configuration is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := providers.NewProvider(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() error { return nil }
	if cfg.LLM.CachePath != "" {
		cache, err := llm.OpenCache(cfg.LLM.CachePath, logger)
		if err != nil {
			// The cache is an optimization; a broken cache file should
			// not prevent planning.
			logger.Warn("completion cache unavailable, continuing without it",
				slog.String("path", cfg.LLM.CachePath),
				slog.String("error", err.Error()))
		} else {
			provider = llm.NewCachingProvider(provider, cache, logger)
			cleanup = cache.Close
		}
	}

	geocoder := geocode.NewNominatimClient(cfg.Geocode.Nominatim)
	resolver := geocode.NewResolver(geocoder, cfg.Geocode.Resolver, cfg.Area.Descriptor, logger)
	source := candidates.NewOverpassSource(cfg.Candidates)
	selector := selection.NewStage(provider, cfg.LLM, cfg.Selection, logger)
	builder := schedule.NewBuilder(cfg.Schedule, logger)
	narrator := narrate.NewNarrator(provider, cfg.LLM, logger)

	return New(cfg, resolver, source, selector, builder, narrator, logger), cleanup, nil
}
