package candidates

import (
	"context"
	"strings"

	"github.com/grazerhq/grazer/internal/plan"
)

// StaticSource serves a fixed candidate list. Used for offline runs against
// fixture data and throughout the test suite.
type StaticSource struct {
	candidates []plan.Candidate
	err        error
}

// NewStaticSource creates a source serving the given candidates.
func NewStaticSource(candidates []plan.Candidate) *StaticSource {
	return &StaticSource{candidates: candidates}
}

// NewFailingSource creates a source that always fails with the given error.
func NewFailingSource(err error) *StaticSource {
	return &StaticSource{err: err}
}

// Fetch returns the configured snapshot, honoring price and cuisine filters
// and the limit. Static candidates carry no cuisine tags, so the cuisine
// filter matches against the category.
func (s *StaticSource) Fetch(ctx context.Context, q Query) ([]plan.Candidate, error) {
	if s.err != nil {
		return nil, NewSourceError("static source failure", s.err)
	}

	out := make([]plan.Candidate, 0, len(s.candidates))
	for _, c := range s.candidates {
		if q.Price != plan.PriceUnknown && c.Price != plan.PriceUnknown && c.Price != q.Price {
			continue
		}
		if len(q.Cuisines) > 0 && !matchesCategory(c, q.Cuisines) {
			continue
		}
		out = append(out, c)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out, nil
}

func matchesCategory(c plan.Candidate, cuisines []string) bool {
	for _, want := range cuisines {
		if strings.EqualFold(strings.TrimSpace(want), c.Category) {
			return true
		}
	}
	return false
}
