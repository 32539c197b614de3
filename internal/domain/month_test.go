package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonthLabel(t *testing.T) {
	tests := []struct {
		label string
		want  YearMonth
	}{
		{"2020-01-31", YearMonth{2020, time.January}},
		{"rain-2020-01", YearMonth{2020, time.January}},
		{" 2021-12-31 ", YearMonth{2021, time.December}},
		{"2020-02-29 00:00:00", YearMonth{2020, time.February}},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := ParseMonthLabel(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseMonthLabel_Invalid(t *testing.T) {
	for _, label := range []string{"notadate", "2020-13", "LON", ""} {
		t.Run(label, func(t *testing.T) {
			_, err := ParseMonthLabel(label)
			var dateErr *UnparseableDateError
			require.ErrorAs(t, err, &dateErr)
			assert.True(t, IsInputError(err))
		})
	}
}

func TestParseDayLabel(t *testing.T) {
	d, err := ParseDayLabel("20200131")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.January, 31, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDayLabel("20200231")
	var dateErr *UnparseableDateError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "20200231", dateErr.Label)

	assert.False(t, IsDayLabel("2020-01-01"))
	assert.False(t, IsDayLabel("LON"))
}

func TestYearMonth(t *testing.T) {
	m := YearMonth{2020, time.February}
	assert.Equal(t, "2020-02-29", m.Label())
	assert.Equal(t, "rain_2020_02", m.Stem())
	assert.Equal(t, "2020-02", m.String())
	assert.Equal(t, YearMonth{2020, time.March}, m.Next())
	assert.Equal(t, YearMonth{2021, time.January}, YearMonth{2020, time.December}.Next())
	assert.True(t, m.Before(YearMonth{2020, time.March}))
	assert.False(t, m.Before(YearMonth{2019, time.December}))
}

func TestParseStem(t *testing.T) {
	m, err := ParseStem("rain_2020_07")
	require.NoError(t, err)
	assert.Equal(t, YearMonth{2020, time.July}, m)

	_, err = ParseStem("rain_2020_7")
	require.Error(t, err)
	_, err = ParseStem("rain_2020_00")
	require.Error(t, err)
}
