package pipeline

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"

	"github.com/cityflows/gral-prep/internal/osmdata"
)

// networkLengthKm sums the great-circle length of every road polyline. The
// geometry is still geographic at this point, so planar lengths would be
// meaningless.
func networkLengthKm(roads []osmdata.RoadSegment) float64 {
	var meters float64
	for _, r := range roads {
		ls := make(orb.LineString, len(r.Geom))
		for i, p := range r.Geom {
			ls[i] = orb.Point{p.X, p.Y}
		}
		meters += orbgeo.Length(ls)
	}
	return meters / 1000
}
