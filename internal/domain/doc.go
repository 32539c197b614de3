// Package domain models daily station rainfall observations and the monthly
// grids derived from them.
//
// # Data Source
//
// Daily tables are station-by-day exports from a national weather bureau
// (one CSV per year and county). Each row is a station; each day is a column.
//
// # Daily Table Conventions
//
// Header:
//
//	"站名, LON, LAT, 20200101, 20200102, ..."
//	Header cells may carry stray whitespace (" 站名", " LON") and the first
//	cell may start with a UTF-8 byte order mark. Both are trimmed.
//	Day columns are labelled YYYYMMDD. Any other column that is not a
//	station name or coordinate column is ignored.
//
// Station identity:
//
//	The station name column ("站名", "Station", "STATION", "Name" or "NAME")
//	when present, otherwise the 0-based row position ("0", "1", ...).
//	Coordinates come from the first file that gives the station a position
//	and are not overridden by later files.
//
// Missing values:
//
//	-99.9 is the bureau sentinel for "no observation". Empty and
//	non-numeric cells are treated the same way. Inside this package a
//	missing value is a [Reading] with Valid == false; the sentinel only
//	exists at the CSV boundary (see [Sentinel]).
//
// # Monthly Aggregation
//
// Daily values are summed per station and calendar month over observed
// days only. A station-month without a single observed day is missing.
// Months are labelled by their last day ("2020-01-31"). Every month between
// a file's first and last day gets a column, even if no day of it is
// present.
//
// The legacy pipeline also reported a defined sum of exactly 0 as missing.
// That behaviour is available through [AggregateOptions].ZeroAsMissing.
//
// # Month Files and Grids
//
// Each month becomes a point file "rain_YYYY_MM.csv" (LON, LAT, RAINFALL)
// and then a grid "rain_YYYY_MM.asc". Grids cover the bounding box of all
// station locations, so every month of a run shares one extent. Cell size
// defaults to 0.0083 decimal degrees (about 1 km). Coordinates are WGS 84
// longitude/latitude and are never reprojected.
//
// Two grid strategies exist:
//
//	feature: each cell takes the value of the station inside it
//	         (last station in input order wins); other cells are no-data.
//	idw:     inverse distance weighting, power 2, all stations by default.
package domain
