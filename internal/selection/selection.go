// Package selection drives the meal choice stage: it hands the planning
// context to the configured LLM, validates the structured response, and folds
// the accepted selections back into the context.
package selection

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/grazerhq/grazer/internal/llm"
	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

var validate = validator.New()

// Config tunes the selection stage.
type Config struct {
	// Roles are the meal roles the stage asks the model to fill.
	Roles []plan.MealRole `mapstructure:"roles" yaml:"roles"`

	// ChoicesPerRole is how many ranked alternatives the model should return
	// per role. Extra alternatives give the itinerary builder fallbacks when
	// the top choice fits no gap.
	ChoicesPerRole int `mapstructure:"choices_per_role" yaml:"choices_per_role" validate:"min=1"`

	// Preferences and Constraints are free-text user guidance forwarded to
	// the model verbatim.
	Preferences string `mapstructure:"preferences" yaml:"preferences"`
	Constraints string `mapstructure:"constraints" yaml:"constraints"`
}

// DefaultConfig requests all three meal roles with two ranked alternatives.
func DefaultConfig() Config {
	return Config{
		Roles:          []plan.MealRole{plan.MealBreakfast, plan.MealLunch, plan.MealDinner},
		ChoicesPerRole: 2,
	}
}

// Stage runs meal selection against an LLM provider.
type Stage struct {
	provider llm.Provider
	llmCfg   llm.Config
	cfg      Config
	logger   *slog.Logger
}

// NewStage creates the selection stage.
func NewStage(provider llm.Provider, llmCfg llm.Config, cfg Config, logger *slog.Logger) *Stage {
	if cfg.ChoicesPerRole < 1 {
		cfg.ChoicesPerRole = 1
	}
	if len(cfg.Roles) == 0 {
		cfg.Roles = DefaultConfig().Roles
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{provider: provider, llmCfg: llmCfg, cfg: cfg, logger: logger}
}

// pick is one model-chosen candidate in the structured response.
type pick struct {
	CandidateID string `json:"candidate_id" validate:"required"`
	Role        string `json:"role" validate:"required,oneof=breakfast lunch dinner"`
	Rank        int    `json:"rank" validate:"min=1"`
}

// response is the structured selection payload the model must return.
type response struct {
	Selections []pick `json:"selections" validate:"required,min=1,dive"`
	Reasoning  string `json:"reasoning"`
}

// Run asks the model for meal selections and writes the validated result to
// the context. A response that fails validation is retried once with the
// original input; a second failure is fatal to the run.
func (s *Stage) Run(ctx context.Context, pctx *plan.Context) error {
	if len(pctx.Candidates()) == 0 {
		return types.NewError(types.SELECTION_FAILED, "no candidates available for selection")
	}

	messages := s.buildMessages(pctx)
	req := s.llmCfg.NewRequest(messages)

	var lastErr error
	for attempt := 1; attempt <= 2; attempt++ {
		resp, err := llm.CompleteWithRetry(ctx, s.provider, req, s.llmCfg.Retry, s.logger)
		if err != nil {
			return types.WrapError(types.SELECTION_FAILED, "selection completion failed", err)
		}

		selections, reasoning, err := s.parseAndValidate(pctx, resp.Message.Content)
		if err == nil {
			s.logger.Info("selection accepted",
				slog.Int("selections", len(selections)),
				slog.Int("attempt", attempt))
			return pctx.SetSelections(selections, reasoning)
		}

		lastErr = err
		s.logger.Warn("selection response rejected",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		// The retry re-issues the identical request; a memoizing provider
		// would just replay the rejected response, so evict it first.
		if inv, ok := s.provider.(llm.Invalidator); ok {
			if err := inv.InvalidateCompletion(ctx, req); err != nil {
				s.logger.Warn("failed to evict rejected completion",
					slog.String("error", err.Error()))
			}
		}
	}

	return types.WrapError(types.SELECTION_FAILED, "selection response failed validation twice", lastErr)
}

// parseAndValidate extracts the JSON payload and enforces the selection
// schema: structural validity, referential integrity against the context's
// candidates, no duplicate candidates, per-role bounds, unique ranks.
func (s *Stage) parseAndValidate(pctx *plan.Context, content string) ([]plan.Selection, string, error) {
	resp, err := llm.ExtractJSONAs[response](content)
	if err != nil {
		return nil, "", types.WrapError(types.SELECTION_VALIDATION_FAILED, "selection response is not valid JSON", err)
	}

	if err := validate.Struct(resp); err != nil {
		return nil, "", types.WrapError(types.SELECTION_VALIDATION_FAILED, "selection response failed schema validation", err)
	}

	allowedRoles := make(map[plan.MealRole]bool, len(s.cfg.Roles))
	for _, role := range s.cfg.Roles {
		allowedRoles[role] = true
	}

	seenCandidates := make(map[types.CandidateID]bool)
	seenRanks := make(map[plan.MealRole]map[int]bool)
	perRole := make(map[plan.MealRole]int)

	selections := make([]plan.Selection, 0, len(resp.Selections))
	for i, p := range resp.Selections {
		id, err := types.ParseID(p.CandidateID)
		if err != nil {
			return nil, "", types.WrapError(types.SELECTION_VALIDATION_FAILED,
				fmt.Sprintf("selection %d has an invalid candidate id", i), err)
		}

		if _, found := pctx.Candidate(id); !found {
			return nil, "", types.NewError(types.SELECTION_VALIDATION_FAILED,
				fmt.Sprintf("selection %d references unknown candidate %s", i, p.CandidateID))
		}

		if seenCandidates[id] {
			return nil, "", types.NewError(types.SELECTION_VALIDATION_FAILED,
				fmt.Sprintf("candidate %s selected more than once", p.CandidateID))
		}
		seenCandidates[id] = true

		role := plan.MealRole(p.Role)
		if !allowedRoles[role] {
			return nil, "", types.NewError(types.SELECTION_VALIDATION_FAILED,
				fmt.Sprintf("role %s was not requested", p.Role))
		}

		perRole[role]++
		if perRole[role] > s.cfg.ChoicesPerRole {
			return nil, "", types.NewError(types.SELECTION_VALIDATION_FAILED,
				fmt.Sprintf("too many selections for %s: limit is %d", role, s.cfg.ChoicesPerRole))
		}

		if seenRanks[role] == nil {
			seenRanks[role] = make(map[int]bool)
		}
		if seenRanks[role][p.Rank] {
			return nil, "", types.NewError(types.SELECTION_VALIDATION_FAILED,
				fmt.Sprintf("duplicate rank %d for role %s", p.Rank, role))
		}
		seenRanks[role][p.Rank] = true

		selections = append(selections, plan.Selection{
			CandidateID: id,
			Role:        role,
			Rank:        p.Rank,
		})
	}

	return selections, resp.Reasoning, nil
}
