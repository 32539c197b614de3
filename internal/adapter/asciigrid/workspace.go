package asciigrid

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
)

// Workspace stages grids in a private temporary directory and moves each
// finished grid into the output directory. One workspace brackets a whole
// rasterize batch; Close must run on every exit path.
type Workspace struct {
	outDir string
	tmpDir string
	wkt    string
}

// Output lists the files written for one grid.
type Output struct {
	Grid string
	Prj  string
}

// NewWorkspace creates outDir if needed and a staging directory inside it.
// An empty wkt means WGS84.
func NewWorkspace(outDir, wkt string) (*Workspace, error) {
	if wkt == "" {
		wkt = WGS84
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.MkdirTemp(outDir, ".raster-*")
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Workspace{outDir: outDir, tmpDir: tmp, wkt: wkt}, nil
}

// Dir returns the staging directory.
func (w *Workspace) Dir() string { return w.tmpDir }

// Write encodes g as <stem>.asc with a <stem>.prj sidecar, replacing any
// existing output for the same stem.
func (w *Workspace) Write(stem string, g domain.Grid) (Output, error) {
	if w.tmpDir == "" {
		return Output{}, errors.New("workspace closed")
	}
	stagedGrid := filepath.Join(w.tmpDir, stem+Extension)
	stagedPrj := filepath.Join(w.tmpDir, stem+".prj")

	f, err := os.Create(stagedGrid)
	if err != nil {
		return Output{}, fmt.Errorf("stage grid: %w", err)
	}
	if err := Encode(f, g); err != nil {
		f.Close()
		return Output{}, fmt.Errorf("encode %s: %w", stem, err)
	}
	if err := f.Close(); err != nil {
		return Output{}, fmt.Errorf("stage grid: %w", err)
	}
	if err := os.WriteFile(stagedPrj, []byte(w.wkt+"\n"), 0o644); err != nil {
		return Output{}, fmt.Errorf("stage prj: %w", err)
	}

	out := Output{
		Grid: filepath.Join(w.outDir, stem+Extension),
		Prj:  filepath.Join(w.outDir, stem+".prj"),
	}
	for _, mv := range [][2]string{{stagedGrid, out.Grid}, {stagedPrj, out.Prj}} {
		if err := replace(mv[0], mv[1]); err != nil {
			return Output{}, err
		}
	}
	return out, nil
}

func replace(from, to string) error {
	if err := os.Remove(to); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove existing %s: %w", to, err)
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("move %s: %w", to, err)
	}
	return nil
}

// Close removes the staging directory. It is safe to call more than once.
func (w *Workspace) Close() error {
	if w.tmpDir == "" {
		return nil
	}
	err := os.RemoveAll(w.tmpDir)
	w.tmpDir = ""
	return err
}
