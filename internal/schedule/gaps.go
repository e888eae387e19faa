package schedule

import (
	"sort"

	"github.com/grazerhq/grazer/internal/types"
)

// anchor is one occupied interval on the day timeline: a fixed commitment or
// an already-placed meal. The coordinate is nil for unresolved commitments,
// which reserve their window but contribute nothing spatially.
type anchor struct {
	window types.TimeWindow
	coord  *types.Coordinate
}

// gap is one open interval between anchors (or between a day bound and an
// anchor) that could host a meal. The bounding coordinates are those of the
// nearest spatially-resolved anchors; nil at day edges and next to
// unresolved anchors.
type gap struct {
	window types.TimeWindow
	prev   *types.Coordinate
	next   *types.Coordinate
}

// computeGaps finds the open intervals of the planning day around the given
// anchors. Overlapping and back-to-back anchor windows are merged before gap
// extraction; for each merged block the bounding coordinate facing a gap is
// the coordinate of the anchor actually adjacent to that edge.
func computeGaps(day types.TimeWindow, anchors []anchor) []gap {
	if len(anchors) == 0 {
		return []gap{{window: day}}
	}

	sorted := make([]anchor, len(anchors))
	copy(sorted, anchors)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].window.Start != sorted[j].window.Start {
			return sorted[i].window.Start < sorted[j].window.Start
		}
		return sorted[i].window.End < sorted[j].window.End
	})

	// Merge into busy blocks, remembering the first and last anchor of
	// each block for gap-edge coordinates.
	type block struct {
		window      types.TimeWindow
		first, last anchor
	}
	var blocks []block
	for _, a := range sorted {
		if len(blocks) > 0 && a.window.Start <= blocks[len(blocks)-1].window.End {
			b := &blocks[len(blocks)-1]
			if a.window.End > b.window.End {
				b.window.End = a.window.End
				b.last = a
			}
			continue
		}
		blocks = append(blocks, block{window: a.window, first: a, last: a})
	}

	var gaps []gap
	cursor := day.Start
	var prevCoord *types.Coordinate

	for _, b := range blocks {
		if b.window.Start > cursor {
			gaps = append(gaps, gap{
				window: types.TimeWindow{Start: cursor, End: minClock(b.window.Start, day.End)},
				prev:   prevCoord,
				next:   b.first.coord,
			})
		}
		if b.window.End > cursor {
			cursor = b.window.End
		}
		prevCoord = b.last.coord
		if cursor >= day.End {
			break
		}
	}

	if cursor < day.End {
		gaps = append(gaps, gap{
			window: types.TimeWindow{Start: cursor, End: day.End},
			prev:   prevCoord,
		})
	}

	// Drop degenerate gaps that fall outside the day entirely.
	out := gaps[:0]
	for _, g := range gaps {
		if g.window.Start < g.window.End {
			out = append(out, g)
		}
	}
	return out
}

func minClock(a, b types.ClockTime) types.ClockTime {
	if a < b {
		return a
	}
	return b
}
