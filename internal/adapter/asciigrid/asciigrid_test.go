package asciigrid

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioGrid(t *testing.T) domain.Grid {
	t.Helper()
	ps := domain.PointSet{
		Month: domain.YearMonth{Year: 2020, Month: time.January},
		Points: []domain.Point{
			{Coordinate: domain.Coordinate{Lon: 121.0, Lat: 24.0}, Value: domain.Observed(310)},
			{Coordinate: domain.Coordinate{Lon: 121.5, Lat: 24.5}},
		},
	}
	g, err := domain.FeatureToRaster{CellSize: 0.25}.Rasterize(context.Background(), ps)
	require.NoError(t, err)
	return g
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, scenarioGrid(t)))

	want := strings.Join([]string{
		"ncols 3",
		"nrows 3",
		"xllcorner 121",
		"yllcorner 23.75",
		"cellsize 0.25",
		"NODATA_value -9999",
		"-9999 -9999 -9999",
		"-9999 -9999 -9999",
		"310 -9999 -9999",
	}, "\n") + "\n"
	assert.Equal(t, want, buf.String())
}

func TestEncode_Deterministic(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Encode(&a, scenarioGrid(t)))
	require.NoError(t, Encode(&b, scenarioGrid(t)))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestDecode_RoundTrip(t *testing.T) {
	g := scenarioGrid(t)
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, g))

	back, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Cols, back.Cols)
	assert.Equal(t, g.Rows, back.Rows)
	assert.Equal(t, g.Cells, back.Cells)
	assert.True(t, back.HasNoData)
	assert.InDelta(t, g.Origin.Lon, back.Origin.Lon, 1e-9)
	assert.InDelta(t, g.Origin.Lat, back.Origin.Lat, 1e-9)
}

func TestDecode_CenterRegistration(t *testing.T) {
	in := "NCOLS 2\nNROWS 1\nXLLCENTER 0.5\nYLLCENTER 0.5\nCELLSIZE 1\n1 2\n"
	g, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinate{Lon: 0, Lat: 1}, g.Origin)
	assert.Equal(t, []float64{1, 2}, g.Cells)
	assert.False(t, g.HasNoData)
	assert.InDelta(t, domain.NoDataValue, g.NoData, 0)
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"short body":     "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n",
		"missing header": "ncols 2\nnrows 1\n1 2\n",
		"bad cell":       "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nabc\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(in))
			require.Error(t, err)
		})
	}
}

func TestWorkspace(t *testing.T) {
	out := filepath.Join(t.TempDir(), "rasters")
	ws, err := NewWorkspace(out, "")
	require.NoError(t, err)
	staging := ws.Dir()
	assert.DirExists(t, staging)

	// A stale file from an earlier run is replaced.
	require.NoError(t, os.WriteFile(filepath.Join(out, "rain_2020_01.asc"), []byte("stale"), 0o600))

	res, err := ws.Write("rain_2020_01", scenarioGrid(t))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "rain_2020_01.asc"), res.Grid)

	g, err := Read(res.Grid)
	require.NoError(t, err)
	assert.Equal(t, 3, g.Cols)

	prj, err := os.ReadFile(res.Prj)
	require.NoError(t, err)
	assert.Equal(t, WGS84+"\n", string(prj))

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())
	assert.NoDirExists(t, staging)

	_, err = ws.Write("rain_2020_02", scenarioGrid(t))
	require.Error(t, err)
}

func TestWorkspace_CustomReference(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir(), `GEOGCS["custom"]`)
	require.NoError(t, err)
	defer ws.Close()

	res, err := ws.Write("rain_2021_06", scenarioGrid(t))
	require.NoError(t, err)
	prj, err := os.ReadFile(res.Prj)
	require.NoError(t, err)
	assert.Equal(t, "GEOGCS[\"custom\"]\n", string(prj))
}
