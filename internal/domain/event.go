package domain

import "time"

// RasterArtifact is one file produced for a month.
type RasterArtifact struct {
	Kind string `json:"kind"` // "grid", "prj" or "legend"
	Path string `json:"path"`
}

// RasterEvent announces a finished month grid to downstream consumers.
type RasterEvent struct {
	ID          string           `json:"id"`
	RunID       string           `json:"run_id"`
	Month       string           `json:"month"`
	Strategy    string           `json:"strategy"`
	CellSize    float64          `json:"cell_size"`
	Cols        int              `json:"cols"`
	Rows        int              `json:"rows"`
	LowerLeft   Coordinate       `json:"lower_left"`
	Stats       GridStats        `json:"stats"`
	Artifacts   []RasterArtifact `json:"artifacts"`
	ProcessedAt time.Time        `json:"processed_at"`
}

// NewRasterEvent describes a grid written for month by the named strategy.
func NewRasterEvent(runID string, month YearMonth, strategy string, g Grid, artifacts ...RasterArtifact) RasterEvent {
	return RasterEvent{
		ID:          runID + ":" + month.Stem(),
		RunID:       runID,
		Month:       month.String(),
		Strategy:    strategy,
		CellSize:    g.CellSize,
		Cols:        g.Cols,
		Rows:        g.Rows,
		LowerLeft:   g.LowerLeft(),
		Stats:       g.Stats(),
		Artifacts:   artifacts,
		ProcessedAt: Now(),
	}
}

// Artifact returns the path of the first artifact of kind, if any.
func (e RasterEvent) Artifact(kind string) (string, bool) {
	for _, a := range e.Artifacts {
		if a.Kind == kind {
			return a.Path, true
		}
	}
	return "", false
}
