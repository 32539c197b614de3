// Package asciigrid reads and writes ESRI ASCII grids (.asc) with a .prj
// sidecar holding the spatial reference.
package asciigrid

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/rain-grid-etl/internal/domain"
)

// WGS84 is the ESRI well-known text for EPSG:4326.
const WGS84 = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137.0,298.257223563]],PRIMEM["Greenwich",0.0],UNIT["Degree",0.0174532925199433]]`

// Extension is the grid file extension.
const Extension = ".asc"

// Encode writes g as an ASCII grid. Output depends only on the grid, so
// equal grids encode to identical bytes.
func Encode(w io.Writer, g domain.Grid) error {
	bw := bufio.NewWriter(w)
	ll := g.LowerLeft()
	fmt.Fprintf(bw, "ncols %d\n", g.Cols)
	fmt.Fprintf(bw, "nrows %d\n", g.Rows)
	fmt.Fprintf(bw, "xllcorner %s\n", format(ll.Lon))
	fmt.Fprintf(bw, "yllcorner %s\n", format(ll.Lat))
	fmt.Fprintf(bw, "cellsize %s\n", format(g.CellSize))
	fmt.Fprintf(bw, "NODATA_value %s\n", format(g.NoData))

	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(format(g.At(row, col)))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Decode parses an ASCII grid. Both corner and center registration are
// accepted; the grid origin is always the top-left corner.
func Decode(r io.Reader) (domain.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	header := make(map[string]float64)
	var g domain.Grid
	g.NoData = domain.NoDataValue
	var values []float64

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if values == nil && len(fields) == 2 && isKey(fields[0]) {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return domain.Grid{}, fmt.Errorf("header %s: %w", fields[0], err)
			}
			header[strings.ToLower(fields[0])] = v
			continue
		}
		if values == nil {
			if err := applyHeader(&g, header); err != nil {
				return domain.Grid{}, err
			}
			values = make([]float64, 0, g.Cols*g.Rows)
		}
		for _, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return domain.Grid{}, fmt.Errorf("cell %d: %w", len(values), err)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return domain.Grid{}, fmt.Errorf("read grid: %w", err)
	}
	if values == nil {
		if err := applyHeader(&g, header); err != nil {
			return domain.Grid{}, err
		}
	}
	if len(values) != g.Cols*g.Rows {
		return domain.Grid{}, fmt.Errorf("expected %d cells, got %d", g.Cols*g.Rows, len(values))
	}
	g.Cells = values
	for _, v := range values {
		if v == g.NoData {
			g.HasNoData = true
			break
		}
	}
	return g, nil
}

func isKey(s string) bool {
	switch strings.ToLower(s) {
	case "ncols", "nrows", "xllcorner", "yllcorner", "xllcenter", "yllcenter", "cellsize", "nodata_value":
		return true
	}
	return false
}

func applyHeader(g *domain.Grid, h map[string]float64) error {
	for _, k := range []string{"ncols", "nrows", "cellsize"} {
		if _, ok := h[k]; !ok {
			return fmt.Errorf("missing header %s", k)
		}
	}
	g.Cols, g.Rows, g.CellSize = int(h["ncols"]), int(h["nrows"]), h["cellsize"]
	if g.Cols <= 0 || g.Rows <= 0 || g.CellSize <= 0 {
		return fmt.Errorf("invalid grid header %dx%d cellsize %v", g.Cols, g.Rows, g.CellSize)
	}
	if v, ok := h["nodata_value"]; ok {
		g.NoData = v
	}

	x, xok := h["xllcorner"]
	y, yok := h["yllcorner"]
	if cx, ok := h["xllcenter"]; ok && !xok {
		x, xok = cx-g.CellSize/2, true
	}
	if cy, ok := h["yllcenter"]; ok && !yok {
		y, yok = cy-g.CellSize/2, true
	}
	if !xok || !yok {
		return fmt.Errorf("missing lower-left header")
	}
	g.Origin = domain.Coordinate{Lon: x, Lat: y + float64(g.Rows)*g.CellSize}
	return nil
}

// Read loads a grid file.
func Read(path string) (domain.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()
	g, err := Decode(f)
	if err != nil {
		return domain.Grid{}, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}
