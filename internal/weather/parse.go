package weather

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ReadFile parses a weather input file. Plain .csv files use the normalized
// column set; anything else is treated as a legacy station export
// (tab-separated, ISO-8859-1, decimal commas, Spanish headers).
func ReadFile(path string) (Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open weather file: %w", err)
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return ParsePlain(f)
	}
	return ParseLegacy(f)
}

// ParsePlain reads the normalized CSV form: a header with at least
// date, time, wind_speed and direction columns, one record per row.
func ParsePlain(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse weather csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("weather csv has no data rows")
	}

	col := headerIndex(rows[0])
	for _, name := range []string{"date", "time", "wind_speed", "direction"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("weather csv: missing required column %s", name)
		}
	}

	var out Series
	for _, rec := range rows[1:] {
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		speed, errS := strconv.ParseFloat(get("wind_speed"), 64)
		dir, errD := strconv.ParseFloat(get("direction"), 64)
		if get("date") == "" || get("time") == "" || errS != nil || errD != nil {
			continue // incomplete row, dropped like upstream dropna
		}
		o := Observation{
			Date:      get("date"),
			Time:      get("time"),
			WindSpeed: speed,
			WindDir:   int(dir),
		}
		if v, err := strconv.ParseFloat(get("temperature"), 64); err == nil {
			o.Temperature = v
		}
		out = append(out, o)
	}

	sortByTime(out)
	classify(out)
	return out, nil
}

// Legacy station exports: three preamble lines, a tab-separated header, a
// units line, then data. Decimal commas throughout, ISO-8859-1 encoded.
const legacyPreambleLines = 3

// ParseLegacy reads the legacy station export format.
func ParseLegacy(r io.Reader) (Series, error) {
	sc := bufio.NewScanner(transform.NewReader(r, charmap.ISO8859_1.NewDecoder()))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read legacy weather file: %w", err)
	}
	if len(lines) <= legacyPreambleLines+1 {
		return nil, fmt.Errorf("legacy weather file too short")
	}

	header := strings.Split(lines[legacyPreambleLines], "\t")
	col := headerIndex(header)
	for _, name := range []string{"fecha", "hora", "veloc.", "direc."} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("legacy weather file: missing required column %s", name)
		}
	}

	var out Series
	// The line after the header carries units and is skipped.
	for _, line := range lines[legacyPreambleLines+2:] {
		rec := strings.Split(line, "\t")
		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		speed, errS := strconv.ParseFloat(decimalComma(get("veloc.")), 64)
		dir, errD := strconv.ParseFloat(get("direc."), 64)
		hour, errH := strconv.Atoi(get("hora"))
		date := strings.ReplaceAll(get("fecha"), "/", ".")
		if date == "" || errS != nil || errD != nil || errH != nil {
			continue
		}
		o := Observation{
			Date:      date,
			Time:      fmt.Sprintf("%02d:00", hour),
			WindSpeed: speed,
			WindDir:   int(dir),
		}
		if v, err := strconv.ParseFloat(decimalComma(get("temp.")), 64); err == nil {
			o.Temperature = v
		}
		out = append(out, o)
	}

	sortByTime(out)
	classify(out)
	return out, nil
}

func headerIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		col[strings.ToLower(h)] = i
	}
	return col
}

func decimalComma(v string) string {
	return strings.ReplaceAll(v, ",", ".")
}
