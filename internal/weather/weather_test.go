package weather

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceDayThenHour(t *testing.T) {
	series := Series{
		{Date: "01.01.2024", Time: "13:00", WindSpeed: 1},
		{Date: "02.01.2024", Time: "13:00", WindSpeed: 2},
		{Date: "02.01.2024", Time: "14:00", WindSpeed: 3},
		{Date: "02.01.2024", Time: "15:00", WindSpeed: 4},
	}

	t.Run("day then hour equals conjunctive filter", func(t *testing.T) {
		day := series.SliceDay("02.01.2024")
		require.Len(t, day.Series, 3)

		got := day.SliceHour("14:00")
		require.Len(t, got, 1)
		assert.Equal(t, 3.0, got[0].WindSpeed)

		// The composed slice must match filtering on both keys at once.
		var want Series
		for _, o := range series {
			if o.Date == "02.01.2024" && o.Time == "14:00" {
				want = append(want, o)
			}
		}
		assert.Equal(t, want, got)
	})

	t.Run("missing day yields empty series", func(t *testing.T) {
		day := series.SliceDay("03.01.2024")
		assert.Empty(t, day.Series)
		assert.Empty(t, day.SliceHour("14:00"))
	})

	t.Run("missing hour yields empty series", func(t *testing.T) {
		day := series.SliceDay("02.01.2024")
		assert.Empty(t, day.SliceHour("23:00"))
	})

	t.Run("slicing preserves record shape", func(t *testing.T) {
		day := series.SliceDay("01.01.2024")
		require.Len(t, day.Series, 1)
		assert.Equal(t, series[0], day.Series[0])
	})
}

func TestStabilityClass(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		hour  string
		want  int
	}{
		{"calm day", 1.5, "12:00", 1},
		{"light day", 2.5, "12:00", 2},
		{"moderate day", 4.0, "12:00", 2},
		{"fresh day", 5.5, "12:00", 3},
		{"strong day", 8.0, "12:00", 3},
		{"calm night", 1.0, "23:00", 5},
		{"light night", 2.5, "02:00", 5},
		{"moderate night", 4.0, "04:00", 6},
		{"strong night", 7.0, "22:00", 6},
		{"edge of night 06", 1.0, "06:00", 5},
		{"edge of day 07", 1.0, "07:00", 1},
		{"edge of night 21", 1.0, "21:00", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stabilityClass(tt.speed, tt.hour))
		})
	}
}

func TestParsePlain(t *testing.T) {
	input := "date,time,wind_speed,direction,temperature\n" +
		"02.01.2024,14:00,3.2,180,21.5\n" +
		"02.01.2024,13:00,1.1,90,20.0\n" +
		"02.01.2024,,,,\n"

	s, err := ParsePlain(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, s, 2)
	// Sorted chronologically, incomplete row dropped.
	assert.Equal(t, "13:00", s[0].Time)
	assert.Equal(t, 1, s[0].StabilityClass)
	assert.Equal(t, "14:00", s[1].Time)
	assert.Equal(t, 2, s[1].StabilityClass)
	assert.Equal(t, 180, s[1].WindDir)
	assert.Equal(t, 21.5, s[1].Temperature)
}

func TestParsePlainMissingColumn(t *testing.T) {
	_, err := ParsePlain(strings.NewReader("date,time\n01.01.2024,00:00\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wind_speed")
}

func TestParseLegacy(t *testing.T) {
	input := "Estación: 46250-VALENCIA\n" +
		"Exportado: 05.01.2024\n" +
		"\n" +
		"FECHA\tHORA\tDirec.\tVeloc.\tTemp.\n" +
		"\t\tgrados\tm/s\tºC\n" +
		"02/01/2024\t14\t180\t3,2\t21,5\n" +
		"02/01/2024\t13\t90\t1,1\t20,0\n" +
		"02/01/2024\t\t\t\t\n"

	s, err := ParseLegacy(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, s, 2)
	assert.Equal(t, "02.01.2024", s[0].Date)
	assert.Equal(t, "13:00", s[0].Time)
	assert.Equal(t, 1.1, s[0].WindSpeed)
	assert.Equal(t, 90, s[0].WindDir)
	assert.Equal(t, 20.0, s[0].Temperature)
	assert.Equal(t, 1, s[0].StabilityClass)
	assert.Equal(t, "14:00", s[1].Time)
	assert.Equal(t, 3.2, s[1].WindSpeed)
}

func TestWriteMet(t *testing.T) {
	var sb strings.Builder
	s := Series{
		{Date: "02.01.2024", Time: "13:00", WindSpeed: 1.14, WindDir: 90, StabilityClass: 2},
		{Date: "02.01.2024", Time: "14:00", WindSpeed: 3.2, WindDir: 180, StabilityClass: 3},
	}
	require.NoError(t, WriteMet(&sb, s))
	assert.Equal(t,
		"02.01.2024,13:00,1.1,90,2\n02.01.2024,14:00,3.2,180,3\n",
		sb.String())
}

func TestWriteCSV(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, WriteCSV(&sb, DefaultSeries()))
	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "date,time,wind_speed,direction,temperature,stability_class", lines[0])
	assert.Equal(t, "01.01.2021,00:00,0.0,0,0.0,5", lines[1])
}
