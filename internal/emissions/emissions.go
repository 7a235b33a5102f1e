// Package emissions ingests per-edge emission output from a SUMO traffic
// simulation and joins it to OSM road geometry on the shared osmid. The join
// is a strict inner equi-join: segments without emissions and emission rows
// without a matching segment are dropped silently, which mirrors the upstream
// exclusion-join behavior and is not an error.
package emissions

import (
	"fmt"
	"sort"

	"github.com/cityflows/gral-prep/internal/osmdata"
)

// Record is one emission value for one road segment, pollutant, and
// simulation timestep.
type Record struct {
	SegmentID string
	Pollutant string
	Timestep  string
	Value     float64
}

// JoinedFeature pairs an emission record with the road segment it belongs to.
// The segment is referenced, never copied.
type JoinedFeature struct {
	Segment   *osmdata.RoadSegment
	Pollutant string
	Timestep  string
	Value     float64
}

// JoinError reports malformed join input. An empty join result is valid and
// never produces a JoinError.
type JoinError struct {
	Reason string
}

func (e *JoinError) Error() string {
	return fmt.Sprintf("emissions join: %s", e.Reason)
}

// Join merges emission records with road segments on the segment identifier.
// One output row per (segment, pollutant, timestep) tuple; no aggregation
// across time. Neither input is mutated. The output ordering is deterministic
// regardless of input record order.
func Join(records []Record, segments []osmdata.RoadSegment) ([]JoinedFeature, error) {
	byID := make(map[string]*osmdata.RoadSegment, len(segments))
	for i := range segments {
		if segments[i].OSMID == "" {
			return nil, &JoinError{Reason: "road segment with empty osmid"}
		}
		byID[segments[i].OSMID] = &segments[i]
	}

	out := make([]JoinedFeature, 0, len(records))
	for _, r := range records {
		if r.SegmentID == "" {
			return nil, &JoinError{Reason: "emission record with empty segment identifier"}
		}
		if r.Pollutant == "" {
			return nil, &JoinError{Reason: "emission record with empty pollutant"}
		}
		seg, ok := byID[r.SegmentID]
		if !ok {
			continue
		}
		out = append(out, JoinedFeature{
			Segment:   seg,
			Pollutant: r.Pollutant,
			Timestep:  r.Timestep,
			Value:     r.Value,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Segment.OSMID != b.Segment.OSMID {
			return a.Segment.OSMID < b.Segment.OSMID
		}
		if a.Pollutant != b.Pollutant {
			return a.Pollutant < b.Pollutant
		}
		return a.Timestep < b.Timestep
	})
	return out, nil
}

// SegmentEmissions is a road segment with its pollutant totals summed over
// all timesteps, the shape the shapefile export wants.
type SegmentEmissions struct {
	Segment *osmdata.RoadSegment
	Totals  map[string]float64
}

// AggregateBySegment sums joined features per (segment, pollutant), returning
// one row per segment sorted by osmid.
func AggregateBySegment(features []JoinedFeature) []SegmentEmissions {
	bySeg := make(map[string]*SegmentEmissions)
	for _, f := range features {
		agg, ok := bySeg[f.Segment.OSMID]
		if !ok {
			agg = &SegmentEmissions{Segment: f.Segment, Totals: make(map[string]float64)}
			bySeg[f.Segment.OSMID] = agg
		}
		agg.Totals[f.Pollutant] += f.Value
	}

	out := make([]SegmentEmissions, 0, len(bySeg))
	for _, agg := range bySeg {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Segment.OSMID < out[j].Segment.OSMID })
	return out
}

// DropNonMotorized removes joined features on highway classes that carry no
// traffic emissions (cycleways and footways slip through the extract because
// SUMO pedestrian simulation reuses them).
func DropNonMotorized(features []JoinedFeature) []JoinedFeature {
	out := make([]JoinedFeature, 0, len(features))
	for _, f := range features {
		switch f.Segment.Class {
		case "cycleway", "footway":
			continue
		}
		out = append(out, f)
	}
	return out
}
