package domain

import (
	"context"
	"log/slog"
)

// LocatorResult is a place resolved by name.
type LocatorResult struct {
	Coordinate       Coordinate
	FormattedAddress string
	Confidence       float64 // 0.0–1.0 provider confidence score
	Found            bool
}

// Locator resolves station names to coordinates.
type Locator interface {
	Locate(ctx context.Context, name string) (LocatorResult, error)
}

// LocateStations fills in coordinates for named stations that have none.
// Lookup failures are logged and leave the station unlocated, so Aggregate
// reports it as an exclusion. Tables are updated in place; the number of
// stations resolved is returned.
func LocateStations(ctx context.Context, tables []DailyTable, locator Locator, logger *slog.Logger) int {
	if locator == nil {
		return 0
	}

	resolved := 0
	for ti := range tables {
		for si := range tables[ti].Stations {
			st := &tables[ti].Stations[si]
			if st.Located || !st.Named {
				continue
			}
			result, err := locator.Locate(ctx, st.ID)
			if err != nil {
				logger.Warn("station lookup failed",
					"source", tables[ti].Source,
					"station", st.ID,
					"error", err,
				)
				continue
			}
			if !result.Found {
				logger.Debug("station not found", "station", st.ID)
				continue
			}
			st.Coordinate = result.Coordinate
			st.Located = true
			resolved++
			logger.Info("station located by name",
				"station", st.ID,
				"lon", result.Coordinate.Lon,
				"lat", result.Coordinate.Lat,
				"address", result.FormattedAddress,
			)
		}
	}
	return resolved
}
