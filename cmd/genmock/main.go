// Command genmock writes synthetic daily rainfall tables in the bureau
// layout, one file per year, for local runs and fixtures. Output is
// reproducible for a given seed.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data \
//	  -stations 40 -from 2019 -to 2020 \
//	  -missing 0.05 -unlocated 2 -seed 7
package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/couchcryptid/rain-grid-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/rain-grid-etl/internal/domain"
	"github.com/shopspring/decimal"
)

// Bounding box of the synthetic network, roughly northern Taiwan.
const (
	minLon = 120.9
	maxLon = 122.0
	minLat = 24.4
	maxLat = 25.3
)

type options struct {
	out       string
	stations  int
	from, to  int
	missing   float64
	unlocated int
	seed      uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var o options
	flag.StringVar(&o.out, "out", "data", "output directory for daily CSV files")
	flag.IntVar(&o.stations, "stations", 40, "number of stations")
	flag.IntVar(&o.from, "from", 2020, "first year")
	flag.IntVar(&o.to, "to", 2020, "last year")
	flag.Float64Var(&o.missing, "missing", 0.05, "probability that a daily reading is missing")
	flag.IntVar(&o.unlocated, "unlocated", 0, "number of stations written without coordinates")
	flag.Uint64Var(&o.seed, "seed", 1, "random seed")
	flag.Parse()

	if o.stations < 1 || o.to < o.from || o.missing < 0 || o.missing > 1 {
		flag.Usage()
		return fmt.Errorf("invalid flags")
	}

	rng := rand.New(rand.NewPCG(o.seed, o.seed^0x9e3779b97f4a7c15))
	stations := makeStations(rng, o.stations, o.unlocated)

	for year := o.from; year <= o.to; year++ {
		t := makeYear(rng, year, stations, o.missing)
		path := filepath.Join(o.out, fmt.Sprintf("rain_daily_%d.csv", year))
		if err := csvfile.WriteDaily(path, t, domain.DefaultSentinel); err != nil {
			return fmt.Errorf("write %d: %w", year, err)
		}
		log.Printf("%d: %d stations x %d days -> %s", year, len(t.Stations), len(t.Days), path)
	}
	return nil
}

func makeStations(rng *rand.Rand, n, unlocated int) []domain.Station {
	out := make([]domain.Station, n)
	for i := range out {
		out[i] = domain.Station{
			ID:    fmt.Sprintf("S%03d", i+1),
			Named: true,
			Coordinate: domain.Coordinate{
				Lon: round(minLon+rng.Float64()*(maxLon-minLon), 4),
				Lat: round(minLat+rng.Float64()*(maxLat-minLat), 4),
			},
			Located: i >= unlocated,
		}
	}
	return out
}

// makeYear draws a wet-day chance per month (wetter in summer) and an
// exponential amount per wet day, in tenths of a millimetre.
func makeYear(rng *rand.Rand, year int, stations []domain.Station, missing float64) domain.DailyTable {
	t := domain.DailyTable{Stations: stations}
	for d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
		t.Days = append(t.Days, d)
	}

	t.Values = make([][]decimal.NullDecimal, len(stations))
	for i := range stations {
		row := make([]decimal.NullDecimal, len(t.Days))
		for k, d := range t.Days {
			if rng.Float64() < missing {
				continue
			}
			amount := 0.0
			if rng.Float64() < wetChance(d.Month()) {
				amount = round(rng.ExpFloat64()*12, 1)
			}
			row[k] = decimal.NullDecimal{Decimal: decimal.NewFromFloat(amount), Valid: true}
		}
		t.Values[i] = row
	}
	return t
}

func wetChance(m time.Month) float64 {
	// Peaks in June, lowest in December.
	return 0.35 + 0.25*math.Cos(2*math.Pi*float64(m-6)/12)
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
