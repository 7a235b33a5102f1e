package emissions

import (
	"encoding/csv"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pollutantColRe matches SUMO's normalized edge-emission columns,
// e.g. "edge_NOx_normed" -> pollutant "NOx".
var pollutantColRe = regexp.MustCompile(`^edge_(.+)_normed$`)

// EdgeRow is one row of the SUMO edge-emissions CSV: one edge at one
// interval, with a value per pollutant column.
type EdgeRow struct {
	EdgeID   string
	Timestep string
	Values   map[string]float64
}

// ReadEdgeEmissions parses a semicolon-separated SUMO edge-emissions CSV.
// The edge_id column is required; every edge_<pollutant>_normed column
// becomes a pollutant. The interval_begin column, when present, labels the
// timestep; otherwise the row index does.
func ReadEdgeEmissions(path string) ([]EdgeRow, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open emissions file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse emissions file %s: %w", path, err)
	}
	if len(rows) < 1 {
		return nil, nil, fmt.Errorf("emissions file %s is empty", path)
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	edgeCol, ok := col["edge_id"]
	if !ok {
		return nil, nil, fmt.Errorf("emissions file %s: missing required column edge_id", path)
	}
	timeCol, hasTime := col["interval_begin"]

	pollutants := make([]string, 0, 2)
	pollutantCols := make(map[string]int)
	for name, i := range col {
		if m := pollutantColRe.FindStringSubmatch(name); m != nil {
			pollutants = append(pollutants, m[1])
			pollutantCols[m[1]] = i
		}
	}
	if len(pollutants) == 0 {
		return nil, nil, fmt.Errorf("emissions file %s: no edge_*_normed pollutant columns", path)
	}
	sort.Strings(pollutants)

	out := make([]EdgeRow, 0, len(rows)-1)
	for n, rec := range rows[1:] {
		if len(rec) <= edgeCol {
			continue
		}
		row := EdgeRow{
			EdgeID:   strings.TrimSpace(rec[edgeCol]),
			Timestep: strconv.Itoa(n),
			Values:   make(map[string]float64, len(pollutants)),
		}
		if hasTime && len(rec) > timeCol {
			row.Timestep = strings.TrimSpace(rec[timeCol])
		}
		for _, p := range pollutants {
			i := pollutantCols[p]
			if len(rec) <= i {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil {
				continue // unreported value, e.g. empty cell
			}
			row.Values[p] = v
		}
		out = append(out, row)
	}
	return out, pollutants, nil
}

// MapToSegments converts edge rows into per-segment emission records using
// the edge -> osmid mapping from the SUMO network. Edges without a mapping
// are skipped; an edge split from several OSM ways contributes its value to
// each of them.
func MapToSegments(rows []EdgeRow, origIDs map[string][]string) []Record {
	var out []Record
	for _, row := range rows {
		ids := origIDs[row.EdgeID]
		if len(ids) == 0 {
			continue
		}
		pollutants := make([]string, 0, len(row.Values))
		for p := range row.Values {
			pollutants = append(pollutants, p)
		}
		sort.Strings(pollutants)
		for _, id := range ids {
			for _, p := range pollutants {
				out = append(out, Record{
					SegmentID: id,
					Pollutant: p,
					Timestep:  row.Timestep,
					Value:     row.Values[p],
				})
			}
		}
	}
	return out
}
