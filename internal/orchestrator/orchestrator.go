// Package orchestrator drives the planning pipeline: extract, resolve,
// fetch, select, build, narrate. One context per run, one stage at a time;
// each stage joins its internal concurrency before the next begins.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/grazerhq/grazer/internal/calendar"
	"github.com/grazerhq/grazer/internal/candidates"
	"github.com/grazerhq/grazer/internal/config"
	"github.com/grazerhq/grazer/internal/geocode"
	"github.com/grazerhq/grazer/internal/narrate"
	"github.com/grazerhq/grazer/internal/observability"
	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/schedule"
	"github.com/grazerhq/grazer/internal/selection"
	"github.com/grazerhq/grazer/internal/types"
)

// Status represents the final status of a planning run.
type Status string

const (
	// StatusCompleted indicates the run produced a full itinerary.
	StatusCompleted Status = "completed"

	// StatusFailed indicates the run aborted on a structural failure.
	StatusFailed Status = "failed"

	// StatusTimeout indicates the run-level timeout expired.
	StatusTimeout Status = "timeout"
)

// String returns the string representation of Status.
func (s Status) String() string {
	return string(s)
}

// Result is the outcome of a planning run. Context is always populated, even
// on failure, so partial state and the error log remain inspectable.
type Result struct {
	Status   Status
	Context  *plan.Context
	Err      error
	Duration time.Duration
}

// Orchestrator wires the pipeline stages together.
type Orchestrator struct {
	cfg      *config.Config
	resolver *geocode.Resolver
	source   candidates.Source
	selector *selection.Stage
	builder  *schedule.Builder
	narrator *narrate.Narrator
	logger   *slog.Logger
}

// New creates an orchestrator from pre-built stage components. Production
// wiring lives in NewFromConfig; tests inject fakes here.
func New(cfg *config.Config, resolver *geocode.Resolver, source candidates.Source,
	selector *selection.Stage, builder *schedule.Builder, narrator *narrate.Narrator,
	logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		resolver: resolver,
		source:   source,
		selector: selector,
		builder:  builder,
		narrator: narrator,
		logger:   logger,
	}
}

// Run executes the full pipeline over the calendar text and returns the
// result. The returned error mirrors Result.Err for convenience.
func (o *Orchestrator) Run(ctx context.Context, calendarText string) (*Result, error) {
	start := time.Now()
	pctx := plan.NewContext()

	if o.cfg.Run.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Run.Timeout)
		defer cancel()
	}

	ctx, span := observability.StartStage(ctx, "run")
	defer span.End()

	logger := observability.RunLogger(o.logger, pctx.RunID, span)
	logger.Info("planning run started", slog.String("area", o.cfg.Area.Descriptor))

	// Stage 1: extract commitments. Best-effort, never fatal.
	_, extractSpan := observability.StartStage(ctx, "extract")
	commitments, parseErrs := calendar.Extract(calendarText)
	for _, pe := range parseErrs {
		pctx.LogError(plan.StageExtract, types.CALENDAR_PARSE_FAILED, pe.Error())
	}
	if err := pctx.SetCommitments(commitments); err != nil {
		extractSpan.End()
		return o.fail(pctx, start, types.WrapError(types.RUN_FAILED, "failed to record commitments", err))
	}
	extractSpan.End()
	logger.Info("commitments extracted",
		slog.Int("commitments", len(commitments)),
		slog.Int("parse_errors", len(parseErrs)))

	// Stage 2: geocode the area, then the commitments. Per-commitment
	// failures are recorded and the run continues; an unresolvable area is
	// fatal because the candidate query needs its centroid.
	resolveCtx, resolveSpan := observability.StartStage(ctx, "resolve")
	area, err := o.resolver.ResolveArea(resolveCtx, o.cfg.Area.Descriptor)
	if err != nil {
		resolveSpan.End()
		return o.fail(pctx, start, types.WrapError(types.RUN_FAILED,
			fmt.Sprintf("failed to geocode planning area %q", o.cfg.Area.Descriptor), err))
	}
	if err := pctx.SetArea(area); err != nil {
		resolveSpan.End()
		return o.fail(pctx, start, types.WrapError(types.RUN_FAILED, "failed to record area", err))
	}
	if err := o.resolver.ResolveCommitments(resolveCtx, pctx); err != nil {
		resolveSpan.End()
		return o.fail(pctx, start, err)
	}
	resolveSpan.End()

	// Stage 3: fetch candidates. Fatal on failure, fatal when empty.
	fetchCtx, fetchSpan := observability.StartStage(ctx, "candidates")
	cands, err := o.source.Fetch(fetchCtx, candidates.Query{
		Center:       area.Centroid,
		RadiusMeters: o.cfg.Area.RadiusMeters,
		Cuisines:     o.cfg.Area.Cuisines,
		Price:        plan.PriceTier(o.cfg.Area.Price),
		Limit:        o.cfg.Area.CandidateLimit,
	})
	fetchSpan.End()
	if err != nil {
		return o.fail(pctx, start, err)
	}
	if len(cands) == 0 {
		return o.fail(pctx, start, types.NewError(types.CANDIDATE_SOURCE_EMPTY,
			fmt.Sprintf("no dining candidates found within %dm of %s", o.cfg.Area.RadiusMeters, o.cfg.Area.Descriptor)))
	}
	if err := pctx.SetCandidates(cands); err != nil {
		return o.fail(pctx, start, types.WrapError(types.RUN_FAILED, "failed to record candidates", err))
	}
	logger.Info("candidates fetched", slog.Int("count", len(cands)))

	// Stage 4: meal selection via the LLM.
	selectCtx, selectSpan := observability.StartStage(ctx, "select")
	err = o.selector.Run(selectCtx, pctx)
	selectSpan.End()
	if err != nil {
		return o.fail(pctx, start, err)
	}

	// Stage 5: build the itinerary.
	_, buildSpan := observability.StartStage(ctx, "build")
	itinerary, err := o.builder.Build(pctx)
	buildSpan.End()
	if err != nil {
		pctx.LogError(plan.StageBuild, errCode(err), err.Error())
		return o.fail(pctx, start, err)
	}
	if err := pctx.SetItinerary(itinerary); err != nil {
		return o.fail(pctx, start, types.WrapError(types.RUN_FAILED, "failed to record itinerary", err))
	}

	// Stage 6: narrate. Never fatal; the itinerary is the artifact.
	narrateCtx, narrateSpan := observability.StartStage(ctx, "narrate")
	if err := o.narrator.Run(narrateCtx, pctx); err != nil {
		pctx.LogError(plan.StageNarrate, errCode(err), err.Error())
		logger.Warn("narration failed", slog.String("error", err.Error()))
	}
	narrateSpan.End()

	logger.Info("planning run completed",
		slog.Int("stops", len(itinerary.Stops)),
		slog.Duration("duration", time.Since(start)))

	return &Result{
		Status:   StatusCompleted,
		Context:  pctx,
		Duration: time.Since(start),
	}, nil
}

// fail terminates the run, mapping deadline expiry to the timeout status.
// The partial context travels with the result for diagnostics.
func (o *Orchestrator) fail(pctx *plan.Context, start time.Time, err error) (*Result, error) {
	status := StatusFailed
	if errors.Is(err, context.DeadlineExceeded) {
		status = StatusTimeout
		err = types.WrapError(types.RUN_TIMEOUT, "planning run timed out", err)
	}

	o.logger.Error("planning run aborted",
		slog.String("run_id", pctx.RunID.String()),
		slog.String("status", status.String()),
		slog.String("error", err.Error()))

	return &Result{
		Status:   status,
		Context:  pctx,
		Err:      err,
		Duration: time.Since(start),
	}, err
}

// errCode extracts the typed code from an error, defaulting to RUN_FAILED.
func errCode(err error) types.ErrorCode {
	var gerr *types.GrazerError
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	var infeasible *schedule.InfeasibleError
	if errors.As(err, &infeasible) {
		return types.ITINERARY_INFEASIBLE
	}
	return types.RUN_FAILED
}
