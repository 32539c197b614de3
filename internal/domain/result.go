package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Stage names a pipeline stage.
type Stage string

const (
	StageAggregate Stage = "aggregate"
	StageSplit     Stage = "split"
	StageRasterize Stage = "rasterize"
	StageStyle     Stage = "style"
)

// Status is the outcome of one unit of work.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// UnitResult records what happened to one input file, month column,
// month grid or legend.
type UnitResult struct {
	Stage  Stage
	Unit   string
	Status Status
	Err    error
	Output string
}

// Succeeded records a unit that produced output.
func Succeeded(stage Stage, unit, output string) UnitResult {
	return UnitResult{Stage: stage, Unit: unit, Status: StatusSucceeded, Output: output}
}

// Unsuccessful records a unit that produced nothing. Input errors are
// skips; anything else is a failure.
func Unsuccessful(stage Stage, unit string, err error) UnitResult {
	status := StatusFailed
	if IsInputError(err) {
		status = StatusSkipped
	}
	return UnitResult{Stage: stage, Unit: unit, Status: status, Err: err}
}

// Summary collects unit results for one run.
type Summary struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Results    []UnitResult
	Err        error
}

// NewSummary starts a run summary with a fresh run ID.
func NewSummary() *Summary {
	return &Summary{RunID: uuid.NewString(), StartedAt: Now()}
}

// Add appends unit results.
func (s *Summary) Add(results ...UnitResult) {
	s.Results = append(s.Results, results...)
}

// Finish stamps the end of the run and records a run-level error.
func (s *Summary) Finish(err error) {
	s.FinishedAt = Now()
	s.Err = err
}

// Count returns how many units of a stage ended with status.
func (s *Summary) Count(stage Stage, status Status) int {
	n := 0
	for _, r := range s.Results {
		if r.Stage == stage && r.Status == status {
			n++
		}
	}
	return n
}

// Outputs returns the output paths of a stage's successful units.
func (s *Summary) Outputs(stage Stage) []string {
	var out []string
	for _, r := range s.Results {
		if r.Stage == stage && r.Status == StatusSucceeded && r.Output != "" {
			out = append(out, r.Output)
		}
	}
	return out
}

// Aborted reports whether the run stopped because its input directory is missing.
func (s *Summary) Aborted() bool {
	return errors.Is(s.Err, ErrNoInputDir)
}
