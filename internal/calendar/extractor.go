// Package calendar extracts timed, located commitments from free-text
// calendar documents. Parsing is best-effort: malformed lines are reported
// per-line and never abort extraction.
package calendar

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/grazerhq/grazer/internal/plan"
	"github.com/grazerhq/grazer/internal/types"
)

// entryPattern matches a calendar line: zero-padded 24-hour start and end
// times separated by a dash, then the event description.
var entryPattern = regexp.MustCompile(`^(\d{2}:\d{2})\s*-\s*(\d{2}:\d{2})\s+(\S.*)$`)

// prepositionPattern matches a locative preposition. The location is
// everything after the last such preposition on the line.
var prepositionPattern = regexp.MustCompile(`\b(?:at|in)\s+`)

// skipTerms are generic activities whose descriptions are not treated as
// locations unless an explicit preposition phrase is present.
var skipTerms = []string{
	"breakfast", "lunch", "dinner", "coffee break", "meeting", "call", "run",
	"phone call", "zoom", "online", "virtual",
}

// venueTerms mark descriptions that name a venue directly, without any
// preposition ("Fitzbillies Bakery 10am pickup").
var venueTerms = []string{
	"pub", "restaurant", "café", "cafe", "bar", "hotel", "office", "center", "centre",
}

// ParseError describes one calendar line that did not match the expected
// shape. The line is skipped; extraction continues.
type ParseError struct {
	Line   int
	Text   string
	Reason string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("[%s] line %d: %s: %q", types.CALENDAR_PARSE_FAILED, e.Line, e.Reason, e.Text)
}

// Extract parses raw calendar text into commitments, in order of appearance.
// Blank lines and markdown headers are ignored. Lines that do not match the
// expected shape are returned as ParseErrors alongside the successfully
// extracted commitments. Empty input yields no commitments and no errors.
func Extract(text string) ([]plan.Commitment, []*ParseError) {
	var commitments []plan.Commitment
	var errs []*ParseError

	for i, line := range strings.Split(text, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		m := entryPattern.FindStringSubmatch(trimmed)
		if m == nil {
			errs = append(errs, &ParseError{Line: lineNo, Text: trimmed, Reason: "line does not match HH:MM - HH:MM shape"})
			continue
		}

		start, err := types.ParseClockTime(m[1])
		if err != nil {
			errs = append(errs, &ParseError{Line: lineNo, Text: trimmed, Reason: err.Error()})
			continue
		}
		end, err := types.ParseClockTime(m[2])
		if err != nil {
			errs = append(errs, &ParseError{Line: lineNo, Text: trimmed, Reason: err.Error()})
			continue
		}

		window := types.TimeWindow{Start: start, End: end}
		if err := window.Validate(); err != nil {
			errs = append(errs, &ParseError{Line: lineNo, Text: trimmed, Reason: err.Error()})
			continue
		}

		description := strings.TrimSpace(m[3])
		commitments = append(commitments, plan.NewCommitment(window, description, ExtractLocation(description)))
	}

	return commitments, errs
}

// ExtractLocation pulls the location phrase out of an event description.
// Returns the empty string when the description carries no usable location;
// such commitments skip geocoding entirely.
//
// Recognized forms, in priority order:
//  1. a trailing "at <place>" or "in <place>" phrase (last preposition wins)
//  2. an "Event @ Venue" form
//  3. a description that names a venue directly (contains a venue term)
//
// Generic activities ("Morning Run", "Zoom call") yield no location unless
// form 1 applies.
func ExtractLocation(description string) string {
	if matches := prepositionPattern.FindAllStringIndex(description, -1); matches != nil {
		last := matches[len(matches)-1]
		if place := strings.TrimSpace(description[last[1]:]); place != "" {
			return place
		}
	}

	if idx := strings.LastIndex(description, "@"); idx >= 0 && idx < len(description)-1 {
		if venue := strings.TrimSpace(description[idx+1:]); venue != "" {
			return venue
		}
	}

	lower := strings.ToLower(description)
	for _, term := range skipTerms {
		if strings.Contains(lower, term) {
			return ""
		}
	}
	for _, term := range venueTerms {
		if strings.Contains(lower, term) {
			return strings.TrimSpace(description)
		}
	}

	return ""
}

// RenderLine formats a commitment back into the calendar line shape. Used by
// round-trip tests and diagnostic output.
func RenderLine(c plan.Commitment) string {
	return fmt.Sprintf("%s - %s    %s", c.Window.Start, c.Window.End, c.Description)
}
