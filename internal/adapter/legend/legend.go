// Package legend persists raster style descriptors as JSON.
package legend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
)

// Extension is the legend file extension.
const Extension = ".legend.json"

// Path returns the legend path for a raster stem in dir.
func Path(dir, stem string) string {
	return filepath.Join(dir, stem+Extension)
}

// Write saves lg as indented JSON, replacing any existing file.
func Write(path string, lg domain.Legend) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(lg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal legend: %w", err)
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

// Read loads a legend file.
func Read(path string) (domain.Legend, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Legend{}, err
	}
	var lg domain.Legend
	if err := json.Unmarshal(data, &lg); err != nil {
		return domain.Legend{}, fmt.Errorf("decode legend %s: %w", path, err)
	}
	return lg, nil
}
