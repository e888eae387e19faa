package geocode

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

// ResolverConfig tunes the caching resolver.
type ResolverConfig struct {
	// MaxRetries is how many times a transient failure is retried after the
	// first attempt. Not-found and ambiguous outcomes are never retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`

	// RetryBackoff is the delay before the first retry; each subsequent
	// retry doubles it.
	RetryBackoff time.Duration `mapstructure:"retry_backoff" yaml:"retry_backoff"`

	// Concurrency bounds how many locations resolve in parallel.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" validate:"min=1,max=32"`
}

// DefaultResolverConfig returns the resolver defaults.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		MaxRetries:   2,
		RetryBackoff: 500 * time.Millisecond,
		Concurrency:  4,
	}
}

// entry is one cache slot. The slot is inserted before the external call and
// the done channel closed once the outcome is known, so concurrent
// resolutions of the same key collapse onto a single call: the first caller
// performs it, everyone else waits on done.
type entry struct {
	done  chan struct{}
	coord types.Coordinate
	err   error
}

// Resolver resolves location strings through a Geocoder with a
// process-lifetime cache keyed by normalized location text. Failed outcomes
// are cached too; within one run a location is asked of the backend at most
// once per terminal outcome.
type Resolver struct {
	geocoder Geocoder
	cfg      ResolverConfig
	areaHint string
	logger   *slog.Logger

	mu    sync.Mutex
	cache map[string]*entry
}

// NewResolver creates a resolver over the given backend. The area hint is
// forwarded to every geocode call to bias matches toward the planning area.
func NewResolver(geocoder Geocoder, cfg ResolverConfig, areaHint string, logger *slog.Logger) *Resolver {
	def := DefaultResolverConfig()
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = def.Concurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		geocoder: geocoder,
		cfg:      cfg,
		areaHint: areaHint,
		logger:   logger,
		cache:    make(map[string]*entry),
	}
}

// Normalize canonicalizes a location string for cache keying:
// case-insensitive with runs of whitespace collapsed to single spaces.
func Normalize(location string) string {
	return strings.ToLower(strings.Join(strings.Fields(location), " "))
}

// Resolve resolves one location string, serving repeats from cache.
func (r *Resolver) Resolve(ctx context.Context, location string) (types.Coordinate, error) {
	key := Normalize(location)
	if key == "" {
		return types.Coordinate{}, types.NewError(types.GEOCODE_EMPTY_LOCATION, "empty location string")
	}

	r.mu.Lock()
	if e, ok := r.cache[key]; ok {
		r.mu.Unlock()
		select {
		case <-e.done:
			return e.coord, e.err
		case <-ctx.Done():
			return types.Coordinate{}, ctx.Err()
		}
	}

	e := &entry{done: make(chan struct{})}
	r.cache[key] = e
	r.mu.Unlock()

	e.coord, e.err = r.resolveWithRetry(ctx, key)
	close(e.done)
	return e.coord, e.err
}

// resolveWithRetry calls the backend, retrying transient failures a bounded
// number of times with doubling backoff. Non-transient outcomes return
// immediately.
func (r *Resolver) resolveWithRetry(ctx context.Context, query string) (types.Coordinate, error) {
	backoff := r.cfg.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			r.logger.Debug("retrying geocode",
				slog.String("query", query),
				slog.Int("attempt", attempt),
				slog.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return types.Coordinate{}, ctx.Err()
			}
			backoff *= 2
		}

		coord, err := r.geocoder.Geocode(ctx, query, r.areaHint)
		if err == nil {
			return coord, nil
		}
		lastErr = err

		if !types.IsRetryable(err) || ctx.Err() != nil {
			return types.Coordinate{}, err
		}
	}

	return types.Coordinate{}, lastErr
}

// ResolveArea geocodes the planning area descriptor itself. The run cannot
// proceed without an area centroid, so failure here is returned to the
// caller rather than recovered.
func (r *Resolver) ResolveArea(ctx context.Context, descriptor string) (plan.ResolvedArea, error) {
	centroid, err := r.Resolve(ctx, descriptor)
	if err != nil {
		return plan.ResolvedArea{}, err
	}
	return plan.ResolvedArea{Descriptor: descriptor, Centroid: centroid}, nil
}

// ResolveCommitments resolves every pending commitment in the context
// concurrently, attributing each outcome back to its commitment by
// identifier. Failures mark the commitment unresolved and are appended to
// the context's error log; they never fail the batch. The call returns only
// after every in-flight resolution has completed or the context is done.
func (r *Resolver) ResolveCommitments(ctx context.Context, pctx *plan.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)

	for _, c := range pctx.Commitments() {
		if c.Status != plan.ResolutionPending {
			continue
		}
		commitment := c
		g.Go(func() error {
			coord, err := r.Resolve(gctx, commitment.RawLocation)
			if err != nil {
				if markErr := pctx.MarkCommitmentUnresolved(commitment.ID); markErr != nil {
					return markErr
				}
				pctx.LogError(plan.StageResolve, geocodeErrorCode(err), err.Error())
				r.logger.Warn("commitment location unresolved",
					slog.String("commitment_id", commitment.ID.String()),
					slog.String("location", commitment.RawLocation),
					slog.String("error", err.Error()))
				return nil
			}
			return pctx.ResolveCommitment(commitment.ID, coord)
		})
	}

	return g.Wait()
}

// geocodeErrorCode extracts the error code for the context error log.
func geocodeErrorCode(err error) types.ErrorCode {
	var grazerErr *types.GrazerError
	if errors.As(err, &grazerErr) {
		return grazerErr.Code
	}
	return types.GEOCODE_SERVICE_FAILED
}
