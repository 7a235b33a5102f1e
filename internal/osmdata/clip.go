package osmdata

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"

	"github.com/cityflows/gral-prep/internal/geo"
)

// clipLine and clipRing carry a feature's geometry into the rtree together
// with its index in the input slice, so hits map back to whole features.
type clipLine struct {
	geom.LineString
	index int
}

type clipRing struct {
	geom.Polygon
	index int
}

// ClipRoads returns the road segments whose bounds intersect the geographic
// bounding box. Input order does not matter; output is sorted by osmid.
func ClipRoads(roads []RoadSegment, box geo.BoundingBox) []RoadSegment {
	tree := rtree.NewTree(25, 50)
	for i := range roads {
		tree.Insert(&clipLine{LineString: roads[i].Geom, index: i})
	}
	hits := tree.SearchIntersect(box.Bounds())
	out := make([]RoadSegment, 0, len(hits))
	for _, h := range hits {
		out = append(out, roads[h.(*clipLine).index])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OSMID < out[j].OSMID })
	return out
}

// ClipBuildings returns the buildings whose bounds intersect the geographic
// bounding box, sorted by osmid.
func ClipBuildings(buildings []Building, box geo.BoundingBox) []Building {
	tree := rtree.NewTree(25, 50)
	for i := range buildings {
		tree.Insert(&clipRing{Polygon: buildings[i].Geom, index: i})
	}
	hits := tree.SearchIntersect(box.Bounds())
	out := make([]Building, 0, len(hits))
	for _, h := range hits {
		out = append(out, buildings[h.(*clipRing).index])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OSMID < out[j].OSMID })
	return out
}
