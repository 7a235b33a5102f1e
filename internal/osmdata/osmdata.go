// Package osmdata extracts road segments and building footprints from a local
// OpenStreetMap XML extract. Geometry is resolved from way node references and
// kept in EPSG:4326; downstream consumers reproject as needed.
//
// The osmid carried on every feature is the stable join key shared with the
// traffic simulation output: SUMO networks imported from OSM keep the way id
// as the edge origId.
package osmdata

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/paulmach/osm"
)

// RoadSegment is one OSM highway way: a polyline with its static attributes.
type RoadSegment struct {
	OSMID       string
	Class       string // OSM highway class, e.g. "residential"
	Lanes       int    // 0 when the extract carries no lane count
	Width       float64
	SourceGroup string
	Geom        geom.LineString
}

// Building is one OSM building footprint.
type Building struct {
	OSMID  string
	Class  string // OSM building class, e.g. "apartments"
	Levels int    // 0 when the extract carries no level count
	Height float64
	Geom   geom.Polygon
}

// EmissionSourceGroup labels every road segment exported to the simulator.
const EmissionSourceGroup = "highway"

// Extract holds the features parsed from one OSM file.
type Extract struct {
	Roads     []RoadSegment
	Buildings []Building
}

// ReadExtract parses an OSM XML extract from disk.
func ReadExtract(path string) (*Extract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read osm extract: %w", err)
	}
	var o osm.OSM
	if err := xml.Unmarshal(data, &o); err != nil {
		return nil, fmt.Errorf("parse osm extract %s: %w", path, err)
	}
	return buildExtract(&o), nil
}

func buildExtract(o *osm.OSM) *Extract {
	nodes := make(map[osm.NodeID]geom.Point, len(o.Nodes))
	for _, n := range o.Nodes {
		nodes[n.ID] = geom.Point{X: n.Lon, Y: n.Lat}
	}

	ex := &Extract{}
	for _, w := range o.Ways {
		line := wayLine(w, nodes)
		if class := w.Tags.Find("highway"); class != "" {
			if len(line) < 2 {
				continue
			}
			ex.Roads = append(ex.Roads, RoadSegment{
				OSMID:       strconv.FormatInt(int64(w.ID), 10),
				Class:       class,
				Lanes:       parseCount(w.Tags.Find("lanes")),
				SourceGroup: EmissionSourceGroup,
				Geom:        line,
			})
			continue
		}
		if class := w.Tags.Find("building"); class != "" {
			ring := closeRing(line)
			if len(ring) < 4 {
				continue
			}
			ex.Buildings = append(ex.Buildings, Building{
				OSMID:  strconv.FormatInt(int64(w.ID), 10),
				Class:  class,
				Levels: parseCount(w.Tags.Find("building:levels")),
				Geom:   geom.Polygon{ring},
			})
		}
	}

	sort.Slice(ex.Roads, func(i, j int) bool { return ex.Roads[i].OSMID < ex.Roads[j].OSMID })
	sort.Slice(ex.Buildings, func(i, j int) bool { return ex.Buildings[i].OSMID < ex.Buildings[j].OSMID })
	return ex
}

func wayLine(w *osm.Way, nodes map[osm.NodeID]geom.Point) geom.LineString {
	line := make(geom.LineString, 0, len(w.Nodes))
	for _, wn := range w.Nodes {
		p, ok := nodes[wn.ID]
		if !ok {
			// Ways may reference nodes clipped out of the extract.
			continue
		}
		line = append(line, p)
	}
	return line
}

func closeRing(line geom.LineString) []geom.Point {
	if len(line) < 3 {
		return nil
	}
	ring := []geom.Point(line)
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// parseCount reads an integer OSM tag value. Multi-value tags like "2;3" and
// anything non-numeric count as unset; the backfill step fills them in later.
func parseCount(v string) int {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, ";,") {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
