package selection

import (
	"fmt"
	"strings"

	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/plan"
)

const systemPrompt = `You are a dining planner. Given a day's fixed commitments and a list of
restaurant candidates, choose where the user should eat each requested meal.

Respond with ONLY a JSON object of this exact shape:

{
  "selections": [
    {"candidate_id": "<id from the candidate list>", "role": "breakfast|lunch|dinner", "rank": 1}
  ],
  "reasoning": "<one short paragraph explaining the choices>"
}

Rules:
- candidate_id must be copied exactly from the candidate list.
- Never select the same candidate twice.
- rank orders alternatives within a role, 1 is the preferred choice.
- Prefer candidates close to the commitments surrounding each meal.`

// buildMessages serializes the context slice the model needs: commitments
// for schedule awareness, the candidate roster, requested roles, and the
// user's free-text guidance.
func (s *Stage) buildMessages(pctx *plan.Context) []llm.Message {
	var sb strings.Builder

	if area := pctx.Area(); area != nil {
		fmt.Fprintf(&sb, "Planning area: %s\n\n", area.Descriptor)
	}

	sb.WriteString("Today's commitments:\n")
	commitments := pctx.Commitments()
	if len(commitments) == 0 {
		sb.WriteString("  (none)\n")
	}
	for _, c := range commitments {
		status := "location unresolved"
		if c.IsResolved() {
			status = fmt.Sprintf("at %.5f,%.5f", c.Coordinate.Latitude, c.Coordinate.Longitude)
		}
		fmt.Fprintf(&sb, "  %s %s (%s)\n", c.Window, c.Description, status)
	}

	sb.WriteString("\nCandidates:\n")
	for _, cand := range pctx.Candidates() {
		fmt.Fprintf(&sb, "  id=%s name=%q category=%s score=%.2f", cand.ID, cand.Name, cand.Category, cand.Score)
		if cand.Price != "" {
			fmt.Fprintf(&sb, " price=%s", cand.Price)
		}
		sb.WriteByte('\n')
	}

	roleNames := make([]string, 0, len(s.cfg.Roles))
	for _, role := range s.cfg.Roles {
		roleNames = append(roleNames, string(role))
	}
	fmt.Fprintf(&sb, "\nRequested meals: %s (up to %d ranked alternatives per meal)\n",
		strings.Join(roleNames, ", "), s.cfg.ChoicesPerRole)

	if s.cfg.Preferences != "" {
		fmt.Fprintf(&sb, "\nUser preferences: %s\n", s.cfg.Preferences)
	}
	if s.cfg.Constraints != "" {
		fmt.Fprintf(&sb, "User constraints: %s\n", s.cfg.Constraints)
	}

	return []llm.Message{
		llm.NewSystemMessage(systemPrompt),
		llm.NewUserMessage(sb.String()),
	}
}
