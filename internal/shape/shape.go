// Package shape writes the inspection shapefiles that accompany the simulator
// inputs: the clipped road network with its summed emissions and the clipped
// building footprints. Attribute names stay within the 10-character DBF limit.
package shape

import (
	"log/slog"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"

	"github.com/cityflows/gral-prep/internal/artifact"
	"github.com/cityflows/gral-prep/internal/emissions"
	"github.com/cityflows/gral-prep/internal/osmdata"
)

// The archetype structs embed concrete geometry types; the shapefile encoder
// derives the shape type from them and rejects interface fields.
type roadRecord struct {
	geom.LineString
	OSMID    string
	Class    string
	Lanes    int
	Width    float64
	Emission float64
}

type buildingRecord struct {
	geom.Polygon
	OSMID  string
	Class  string
	Levels int
	Height float64
}

// WriteRoads writes the road network to a shapefile at path, reprojecting
// each polyline through t. Each record carries the segment's summed emission
// for pollutant, zero when the segment has no matched emission rows.
func WriteRoads(path string, roads []osmdata.RoadSegment, sources []emissions.SegmentEmissions, pollutant string, t proj.Transformer, logger *slog.Logger) error {
	totals := make(map[string]float64, len(sources))
	for _, s := range sources {
		totals[s.Segment.OSMID] = s.Totals[pollutant]
	}

	e, err := shp.NewEncoder(path, roadRecord{})
	if err != nil {
		return &artifact.FileWriteError{Path: path, Err: err}
	}
	defer e.Close()

	for _, r := range roads {
		g, err := r.Geom.Transform(t)
		if err != nil {
			return &artifact.FileWriteError{Path: path, Err: err}
		}
		rec := roadRecord{
			LineString: g.(geom.LineString),
			OSMID:      r.OSMID,
			Class:    r.Class,
			Lanes:    r.Lanes,
			Width:    r.Width,
			Emission: totals[r.OSMID],
		}
		if err := e.Encode(rec); err != nil {
			return &artifact.FileWriteError{Path: path, Err: err}
		}
	}
	logger.Info("road shapefile written", "path", path, "features", len(roads), "pollutant", pollutant)
	return nil
}

// WriteBuildings writes the building footprints to a shapefile at path,
// reprojecting each polygon through t.
func WriteBuildings(path string, buildings []osmdata.Building, t proj.Transformer, logger *slog.Logger) error {
	e, err := shp.NewEncoder(path, buildingRecord{})
	if err != nil {
		return &artifact.FileWriteError{Path: path, Err: err}
	}
	defer e.Close()

	for _, b := range buildings {
		g, err := b.Geom.Transform(t)
		if err != nil {
			return &artifact.FileWriteError{Path: path, Err: err}
		}
		rec := buildingRecord{
			Polygon: g.(geom.Polygon),
			OSMID:   b.OSMID,
			Class:  b.Class,
			Levels: b.Levels,
			Height: b.Height,
		}
		if err := e.Encode(rec); err != nil {
			return &artifact.FileWriteError{Path: path, Err: err}
		}
	}
	logger.Info("building shapefile written", "path", path, "features", len(buildings))
	return nil
}
