// Package weather normalizes raw meteorological station exports into the
// hourly series GRAL consumes, derives Pasquill stability classes, and slices
// the series by calendar day and hour.
package weather

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Date and hour layouts used across the weather files and the CLI.
const (
	DateLayout = "02.01.2006"
	HourLayout = "15:04"
)

// Observation is one hourly weather record. Date and Time keep the string
// forms the simulator files use (dd.mm.yyyy and hh:mm).
type Observation struct {
	Date           string
	Time           string
	WindSpeed      float64 // m/s
	WindDir        int     // degrees
	Temperature    float64 // Celsius; informational, not exported to .met
	StabilityClass int     // Pasquill, 1 very unstable .. 7 very stable
}

// Series is a weather time series ordered by (date, time).
type Series []Observation

// DaySeries is a Series restricted to a single calendar day. Hour slicing is
// only defined on a DaySeries: hours are not globally unique keys.
type DaySeries struct {
	Date string
	Series
}

// SliceDay filters the series down to one calendar day (dd.mm.yyyy). A date
// with no records yields an empty DaySeries, not an error.
func (s Series) SliceDay(date string) DaySeries {
	out := DaySeries{Date: date}
	for _, o := range s {
		if o.Date == date {
			out.Series = append(out.Series, o)
		}
	}
	return out
}

// SliceHour filters a day's records down to one hour (hh:mm). An hour with
// no records yields an empty series.
func (d DaySeries) SliceHour(hour string) Series {
	var out Series
	for _, o := range d.Series {
		if o.Time == hour {
			out = append(out, o)
		}
	}
	return out
}

// sortByTime orders a series chronologically. Records whose date or time do
// not parse sort first, keeping them visible at the top of the output.
func sortByTime(s Series) {
	key := func(o Observation) time.Time {
		t, err := time.Parse(DateLayout+" "+HourLayout, o.Date+" "+o.Time)
		if err != nil {
			return time.Time{}
		}
		return t
	}
	sort.SliceStable(s, func(i, j int) bool { return key(s[i]).Before(key(s[j])) })
}

// nightHour reports whether an hh:mm string falls in the 21:00-06:00 window
// used for the stability classification.
func nightHour(hhmm string) bool {
	h, _, ok := strings.Cut(hhmm, ":")
	if !ok {
		return false
	}
	n, err := strconv.Atoi(h)
	if err != nil {
		return false
	}
	return n >= 21 || n <= 6
}

// stabilityClass assigns a Pasquill stability class from wind speed and time
// of day. Daytime mixing gives unstable classes, calm nights stable ones.
func stabilityClass(windSpeed float64, hhmm string) int {
	if nightHour(hhmm) {
		if windSpeed < 3 {
			return 5
		}
		return 6
	}
	switch {
	case windSpeed < 2:
		return 1
	case windSpeed < 5:
		return 2
	default:
		return 3
	}
}

// classify fills in the stability class for every record.
func classify(s Series) {
	for i := range s {
		s[i].StabilityClass = stabilityClass(s[i].WindSpeed, s[i].Time)
	}
}

// DefaultSeries returns the placeholder series used when no weather input is
// available: a single calm neutral-night record.
func DefaultSeries() Series {
	return Series{{Date: "01.01.2021", Time: "00:00", WindSpeed: 0, WindDir: 0, StabilityClass: 5}}
}
