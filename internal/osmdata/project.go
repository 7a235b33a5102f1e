package osmdata

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// ProjectRoads returns a copy of roads with every vertex run through t. Input
// geometry is left untouched.
func ProjectRoads(roads []RoadSegment, t proj.Transformer) ([]RoadSegment, error) {
	out := make([]RoadSegment, len(roads))
	for i, r := range roads {
		g, err := r.Geom.Transform(t)
		if err != nil {
			return nil, fmt.Errorf("project road %s: %w", r.OSMID, err)
		}
		out[i] = r
		out[i].Geom = g.(geom.LineString)
	}
	return out, nil
}

// ProjectBuildings returns a copy of buildings with every vertex run through
// t. Input geometry is left untouched.
func ProjectBuildings(buildings []Building, t proj.Transformer) ([]Building, error) {
	out := make([]Building, len(buildings))
	for i, b := range buildings {
		g, err := b.Geom.Transform(t)
		if err != nil {
			return nil, fmt.Errorf("project building %s: %w", b.OSMID, err)
		}
		out[i] = b
		out[i].Geom = g.(geom.Polygon)
	}
	return out, nil
}
