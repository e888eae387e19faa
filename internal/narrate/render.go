package narrate

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grazerhq/grazer/internal/plan"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7B801"))
	timeStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	mealStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	commitmentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	unresolvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")).Italic(true)
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
)

// RenderItinerary renders the itinerary as a styled terminal table. It is
// the always-printed artifact; the narrative is appended separately when
// narration succeeded.
func RenderItinerary(pctx *plan.Context) string {
	var sb strings.Builder

	title := "Your day"
	if area := pctx.Area(); area != nil {
		title = "Your day in " + area.Descriptor
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	it := pctx.Itinerary()
	if it == nil || len(it.Stops) == 0 {
		sb.WriteString(unresolvedStyle.Render("(no itinerary)"))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, stop := range it.Stops {
		sb.WriteString("  ")
		sb.WriteString(timeStyle.Render(stop.Window.String()))
		sb.WriteString("  ")

		switch {
		case stop.Kind == plan.StopMeal:
			sb.WriteString(mealStyle.Render(fmt.Sprintf("%s at %s", stop.Role, stop.Name)))
		case stop.Coordinate == nil:
			sb.WriteString(unresolvedStyle.Render(stop.Name + " (location unknown)"))
		default:
			sb.WriteString(commitmentStyle.Render(stop.Name))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// RenderErrors renders the context's error log, one line per entry. Returns
// an empty string when the log is empty.
func RenderErrors(pctx *plan.Context) string {
	entries := pctx.Errors()
	if len(entries) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("%d issue(s) during planning:", len(entries))))
	sb.WriteString("\n")
	for _, e := range entries {
		sb.WriteString(errorStyle.Render(fmt.Sprintf("  [%s] %s: %s", e.Stage, e.Code, e.Message)))
		sb.WriteString("\n")
	}
	return sb.String()
}
