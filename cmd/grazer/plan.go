package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/grazerhq/grazer/internal/config"
	"github.com/grazerhq/grazer/internal/narrate"
	"github.com/grazerhq/grazer/internal/observability"
	"github.com/grazerhq/grazer/internal/orchestrator"
	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/pkg/version"
)

var (
	planArea    string
	planNoCache bool
	planTrace   bool
)

var planCmd = &cobra.Command{
	Use:   "plan <calendar-file>",
	Short: "Plan a day of meals around a calendar",
	Long: `Plan reads a plain-text calendar, one commitment per line in
"HH:MM - HH:MM description" form, and produces a dining itinerary
for the configured planning area. Pass "-" to read the calendar
from stdin.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planArea, "area", "", "Planning area descriptor (overrides config)")
	planCmd.Flags().BoolVar(&planNoCache, "no-cache", false, "Bypass the completion cache")
	planCmd.Flags().BoolVar(&planTrace, "trace", false, "Emit stage traces to stderr")
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	flags, err := ParseGlobalFlags(cmd)
	if err != nil {
		return err
	}

	loader := config.NewLoader(config.NewValidator())
	cfg, err := loader.LoadWithDefaults(resolveConfigPath())
	if err != nil {
		return err
	}

	if planArea != "" {
		cfg.Area.Descriptor = planArea
	}
	if planNoCache {
		cfg.LLM.CachePath = ""
	}
	if flags.IsVerbose() {
		cfg.Logging.Level = "debug"
	}
	if flags.IsQuiet() {
		cfg.Logging.Level = "error"
	}

	logger := observability.NewLogger(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)

	shutdown, err := observability.InitTracing(ctx, "grazer", version.Version, planTrace, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = shutdown(ctx) }()

	calendarText, err := readCalendar(cmd, args[0])
	if err != nil {
		return err
	}

	o, cleanup, err := orchestrator.NewFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = cleanup() }()

	result, runErr := o.Run(ctx, calendarText)

	if flags.GetOutputFormat() == FormatJSON {
		if err := writePlanJSON(cmd.OutOrStdout(), result); err != nil {
			return err
		}
		return runErr
	}

	writePlanText(cmd, result)
	return runErr
}

// readCalendar loads the calendar text from a file, or stdin for "-".
func readCalendar(cmd *cobra.Command, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading calendar from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading calendar file: %w", err)
	}
	return string(data), nil
}

// planOutput is the JSON shape of a planning run for --output json.
type planOutput struct {
	Status    string             `json:"status"`
	RunID     string             `json:"run_id"`
	Duration  string             `json:"duration"`
	Area      *plan.ResolvedArea `json:"area,omitempty"`
	Itinerary *plan.Itinerary    `json:"itinerary,omitempty"`
	Reasoning string             `json:"reasoning,omitempty"`
	Narrative string             `json:"narrative,omitempty"`
	Errors    []plan.LogEntry    `json:"errors,omitempty"`
	Error     string             `json:"error,omitempty"`
}

func writePlanJSON(w io.Writer, result *orchestrator.Result) error {
	pctx := result.Context
	out := planOutput{
		Status:    result.Status.String(),
		RunID:     pctx.RunID.String(),
		Duration:  result.Duration.Round(time.Millisecond).String(),
		Area:      pctx.Area(),
		Itinerary: pctx.Itinerary(),
		Reasoning: pctx.SelectionReasoning(),
		Narrative: pctx.Narrative(),
		Errors:    pctx.Errors(),
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writePlanText(cmd *cobra.Command, result *orchestrator.Result) {
	pctx := result.Context

	if pctx.Itinerary() != nil {
		cmd.Println(narrate.RenderItinerary(pctx))
		if narrative := pctx.Narrative(); narrative != "" {
			cmd.Println(narrative)
		}
	}

	if len(pctx.Errors()) > 0 {
		warn := color.New(color.FgYellow)
		warn.Fprintln(cmd.ErrOrStderr(), narrate.RenderErrors(pctx))
	}

	if result.Err != nil {
		fail := color.New(color.FgRed, color.Bold)
		fail.Fprintf(cmd.ErrOrStderr(), "Planning %s: %v\n", result.Status, result.Err)
	}
}
