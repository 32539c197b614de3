package legend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "legends")
	path := Path(dir, "rain_2020_01")
	assert.Equal(t, filepath.Join(dir, "rain_2020_01.legend.json"), path)

	lg := domain.Legend{
		Raster: "rain_2020_01.asc",
		Method: domain.ClassManual,
		Ramp:   domain.DefaultRampName,
		NoData: domain.NoDataValue,
		Min:    0,
		Max:    80,
		Classes: []domain.Class{
			{UpperBound: -99.9, Color: "#FFFFD4", Label: "<= -99.90"},
			{UpperBound: 80, Color: "#993404", Label: "<= 80.00"},
		},
	}
	require.NoError(t, Write(path, lg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method": "manual"`)
	assert.Contains(t, string(data), `"upper_bound": -99.9`)

	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, lg, back)
}

func TestRead_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.legend.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := Read(path)
	require.Error(t, err)
}
