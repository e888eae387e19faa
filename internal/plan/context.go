package plan

import (
	"fmt"
	"sync"
	"time"

	"github.com/grazerhq/grazer/internal/types"
)

// Stage names the pipeline stage that produced a log entry.
type Stage string

const (
	StageExtract    Stage = "extract"
	StageResolve    Stage = "resolve"
	StageCandidates Stage = "candidates"
	StageSelect     Stage = "select"
	StageBuild      Stage = "build"
	StageNarrate    Stage = "narrate"
)

// LogEntry is one recovered or terminal failure recorded during a run. The
// error log is append-only and never cleared; it survives aborts so a failed
// run can still be diagnosed.
type LogEntry struct {
	Stage   Stage           `json:"stage"`
	Code    types.ErrorCode `json:"code"`
	Message string          `json:"message"`
	At      time.Time       `json:"at"`
}

// ResolvedArea is the geocoded planning area: the descriptor from config and
// the centroid used for candidate radius queries.
type ResolvedArea struct {
	Descriptor string           `json:"descriptor"`
	Centroid   types.Coordinate `json:"centroid"`
}

// Context is the shared planning state threaded through every pipeline
// stage. It is created once per run and owned by the orchestrator; each stage
// writes exactly one section through the corresponding setter and reads
// whatever earlier sections it needs. Sections are set-once; a second write
// to the same section is a programming error and is rejected.
//
// The error log and commitment resolution are safe for concurrent use so the
// resolver's internal fan-out can record outcomes directly.
type Context struct {
	RunID     types.RunID `json:"run_id"`
	StartedAt time.Time   `json:"started_at"`

	mu sync.Mutex

	commitments    []Commitment
	commitmentsSet bool

	area *ResolvedArea

	candidates    []Candidate
	candidatesSet bool

	selections    []Selection
	reasoning     string
	selectionsSet bool

	itinerary *Itinerary

	narrative string

	errors []LogEntry
}

// NewContext creates an empty planning context for a fresh run.
func NewContext() *Context {
	return &Context{
		RunID:     types.NewRunID(),
		StartedAt: time.Now().UTC(),
	}
}

// SetCommitments stores the extractor's output. Extractor section, set once.
func (c *Context) SetCommitments(commitments []Commitment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.commitmentsSet {
		return fmt.Errorf("commitments section already written")
	}
	c.commitments = commitments
	c.commitmentsSet = true
	return nil
}

// Commitments returns a copy of the commitment list.
func (c *Context) Commitments() []Commitment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Commitment, len(c.commitments))
	copy(out, c.commitments)
	return out
}

// ResolveCommitment records a successful geocode outcome for the commitment
// with the given ID. Resolver section; attribution is by identifier so the
// resolver's completion order does not matter.
func (c *Context) ResolveCommitment(id types.CommitmentID, coord types.Coordinate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.commitments {
		if c.commitments[i].ID == id {
			return c.commitments[i].Resolve(coord)
		}
	}
	return fmt.Errorf("commitment %s not found", id)
}

// MarkCommitmentUnresolved records a geocode failure for the commitment with
// the given ID. Resolver section.
func (c *Context) MarkCommitmentUnresolved(id types.CommitmentID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.commitments {
		if c.commitments[i].ID == id {
			c.commitments[i].MarkUnresolved()
			return nil
		}
	}
	return fmt.Errorf("commitment %s not found", id)
}

// SetArea stores the geocoded planning area. Resolver section, set once.
func (c *Context) SetArea(area ResolvedArea) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.area != nil {
		return fmt.Errorf("area section already written")
	}
	c.area = &area
	return nil
}

// Area returns the resolved planning area, or nil before resolution.
func (c *Context) Area() *ResolvedArea {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.area
}

// SetCandidates stores the candidate source snapshot. Candidate section,
// set once.
func (c *Context) SetCandidates(candidates []Candidate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.candidatesSet {
		return fmt.Errorf("candidates section already written")
	}
	c.candidates = candidates
	c.candidatesSet = true
	return nil
}

// Candidates returns a copy of the candidate list.
func (c *Context) Candidates() []Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Candidate, len(c.candidates))
	copy(out, c.candidates)
	return out
}

// Candidate looks up a candidate by ID.
func (c *Context) Candidate(id types.CandidateID) (Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cand := range c.candidates {
		if cand.ID == id {
			return cand, true
		}
	}
	return Candidate{}, false
}

// SetSelections stores the validated selection stage output and its
// reasoning. Selection section, set once.
func (c *Context) SetSelections(selections []Selection, reasoning string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selectionsSet {
		return fmt.Errorf("selections section already written")
	}
	c.selections = selections
	c.reasoning = reasoning
	c.selectionsSet = true
	return nil
}

// Selections returns a copy of the selection list.
func (c *Context) Selections() []Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Selection, len(c.selections))
	copy(out, c.selections)
	return out
}

// SelectionReasoning returns the selection stage's explanation text.
func (c *Context) SelectionReasoning() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reasoning
}

// SetItinerary stores the finished schedule. Builder section, set once.
func (c *Context) SetItinerary(it *Itinerary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.itinerary != nil {
		return fmt.Errorf("itinerary section already written")
	}
	c.itinerary = it
	return nil
}

// Itinerary returns the finished schedule, or nil before it is built.
func (c *Context) Itinerary() *Itinerary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.itinerary
}

// SetNarrative stores the presentation adapter's output. Narration section.
func (c *Context) SetNarrative(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.narrative = text
}

// Narrative returns the narration text, empty if narration did not run.
func (c *Context) Narrative() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.narrative
}

// LogError appends a failure to the run's error log.
func (c *Context) LogError(stage Stage, code types.ErrorCode, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, LogEntry{
		Stage:   stage,
		Code:    code,
		Message: message,
		At:      time.Now().UTC(),
	})
}

// Errors returns a copy of the error log.
func (c *Context) Errors() []LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LogEntry, len(c.errors))
	copy(out, c.errors)
	return out
}
