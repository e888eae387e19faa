// Package narrate turns a finished itinerary into user-facing output: an
// LLM-written companion narrative plus a styled terminal rendering of the
// schedule. Narration reads the context, it never modifies the itinerary.
package narrate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

// CompanionOutput is the structured narrative the model returns.
type CompanionOutput struct {
	Greeting             string   `json:"greeting"`
	DayOverview          string   `json:"day_overview"`
	RestaurantHighlights []string `json:"restaurant_highlights"`
	RouteGuidance        string   `json:"route_guidance"`
	ClosingRemarks       string   `json:"closing_remarks"`
}

// Format renders the narrative as markdown.
func (o CompanionOutput) Format() string {
	var sb strings.Builder

	if o.Greeting != "" {
		sb.WriteString(o.Greeting)
		sb.WriteString("\n\n")
	}

	if o.DayOverview != "" {
		sb.WriteString("## Your Day\n\n")
		sb.WriteString(o.DayOverview)
		sb.WriteString("\n\n")
	}

	if len(o.RestaurantHighlights) > 0 {
		sb.WriteString("## Where You're Eating\n\n")
		for _, h := range o.RestaurantHighlights {
			fmt.Fprintf(&sb, "- %s\n", h)
		}
		sb.WriteString("\n")
	}

	if o.RouteGuidance != "" {
		sb.WriteString("## Getting Around\n\n")
		sb.WriteString(o.RouteGuidance)
		sb.WriteString("\n\n")
	}

	if o.ClosingRemarks != "" {
		sb.WriteString(o.ClosingRemarks)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n") + "\n"
}

const narratorPrompt = `You are a friendly local dining companion. Given a finished one-day
itinerary, write a short narrative for the user.

Respond with ONLY a JSON object of this exact shape:

{
  "greeting": "<one warm sentence>",
  "day_overview": "<two or three sentences walking through the day in order>",
  "restaurant_highlights": ["<one sentence per meal stop>"],
  "route_guidance": "<practical walking guidance between stops>",
  "closing_remarks": "<one short sentence>"
}`

// Narrator produces the companion narrative via an LLM provider.
type Narrator struct {
	provider llm.Provider
	llmCfg   llm.Config
	logger   *slog.Logger
}

// NewNarrator creates a narrator.
func NewNarrator(provider llm.Provider, llmCfg llm.Config, logger *slog.Logger) *Narrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Narrator{provider: provider, llmCfg: llmCfg, logger: logger}
}

// Run narrates the context's itinerary and stores the formatted result on
// the context. The caller decides whether a narration failure is fatal; for
// the pipeline it is not.
func (n *Narrator) Run(ctx context.Context, pctx *plan.Context) error {
	it := pctx.Itinerary()
	if it == nil || len(it.Stops) == 0 {
		return types.NewError(types.RUN_FAILED, "no itinerary to narrate")
	}

	messages := []llm.Message{
		llm.NewSystemMessage(narratorPrompt),
		llm.NewUserMessage(describeItinerary(pctx, it)),
	}

	resp, err := llm.CompleteWithRetry(ctx, n.provider, n.llmCfg.NewRequest(messages), n.llmCfg.Retry, n.logger)
	if err != nil {
		return types.WrapError(types.RUN_FAILED, "narration completion failed", err)
	}

	output, err := llm.ExtractJSONAs[CompanionOutput](resp.Message.Content)
	if err != nil {
		return types.WrapError(llm.ErrResponseParseFailed, "narration response was not valid JSON", err)
	}

	pctx.SetNarrative(output.Format())
	return nil
}

// describeItinerary serializes the itinerary for the narration prompt.
func describeItinerary(pctx *plan.Context, it *plan.Itinerary) string {
	var sb strings.Builder

	if area := pctx.Area(); area != nil {
		fmt.Fprintf(&sb, "Area: %s\n", area.Descriptor)
	}
	if reasoning := pctx.SelectionReasoning(); reasoning != "" {
		fmt.Fprintf(&sb, "Why these restaurants: %s\n", reasoning)
	}

	sb.WriteString("\nItinerary:\n")
	for _, stop := range it.Stops {
		switch stop.Kind {
		case plan.StopMeal:
			fmt.Fprintf(&sb, "  %s %s at %s\n", stop.Window, stop.Role, stop.Name)
		default:
			fmt.Fprintf(&sb, "  %s %s\n", stop.Window, stop.Name)
		}
	}

	return sb.String()
}
