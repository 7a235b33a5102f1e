// Package geo converts coordinates between EPSG reference systems and
// resolves geographic bounding boxes into projected ones for the GRAL model
// domain. EPSG codes are resolved through a proj4 registry; transforms come
// from github.com/ctessum/geom/proj.
package geo

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Convert reprojects a single coordinate pair from one EPSG reference system
// to another. It is pure and stateless; the transform is rebuilt on every
// call. Returns a *ProjectionError if either code is unknown or the transform
// is undefined for the pair.
func Convert(x, y float64, fromEPSG, toEPSG int) (float64, float64, error) {
	t, err := NewTransform(fromEPSG, toEPSG)
	if err != nil {
		return 0, 0, err
	}
	x2, y2, err := t(x, y)
	if err != nil {
		return 0, 0, &ProjectionError{FromEPSG: fromEPSG, ToEPSG: toEPSG, Reason: err.Error()}
	}
	return x2, y2, nil
}

// BoundingBox is a north/south/east/west extent whose four scalars all belong
// to the reference system named by EPSG.
type BoundingBox struct {
	North float64
	South float64
	East  float64
	West  float64
	EPSG  int
}

// Validate checks the corner ordering invariant: north > south, east > west,
// all values finite.
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.North, b.South, b.East, b.West} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidBoundingBoxError{Axis: "north/south", High: b.North, Low: b.South}
		}
	}
	if b.North <= b.South {
		return &InvalidBoundingBoxError{Axis: "north/south", High: b.North, Low: b.South}
	}
	if b.East <= b.West {
		return &InvalidBoundingBoxError{Axis: "east/west", High: b.East, Low: b.West}
	}
	return nil
}

// MeanLatitude returns the arithmetic mean of the north and south edges. Only
// meaningful for geographic boxes; GRAL's drift physics expects true latitude,
// so callers must compute this before resolving to a projected system.
func (b BoundingBox) MeanLatitude() float64 {
	return (b.North + b.South) / 2
}

// Bounds returns the box as a geom.Bounds for spatial-index queries.
func (b BoundingBox) Bounds() *geom.Bounds {
	return &geom.Bounds{
		Min: geom.Point{X: b.West, Y: b.South},
		Max: geom.Point{X: b.East, Y: b.North},
	}
}

// Resolve reprojects a bounding box into the target reference system. The
// transform is applied to the (west, north) and (east, south) corners
// independently, never to the four scalars in isolation: projection is
// non-linear and corner-wise transformation is the only way to keep a valid
// rectangle. If reprojection inverts the corner ordering the result is a
// *InvalidBoundingBoxError, never silently swapped values.
func Resolve(b BoundingBox, toEPSG int) (BoundingBox, error) {
	if err := b.Validate(); err != nil {
		return BoundingBox{}, err
	}
	t, err := NewTransform(b.EPSG, toEPSG)
	if err != nil {
		return BoundingBox{}, err
	}
	return resolveWith(b, toEPSG, t)
}

func resolveWith(b BoundingBox, toEPSG int, t proj.Transformer) (BoundingBox, error) {
	west, north, err := t(b.West, b.North)
	if err != nil {
		return BoundingBox{}, &ProjectionError{FromEPSG: b.EPSG, ToEPSG: toEPSG, Reason: err.Error()}
	}
	east, south, err := t(b.East, b.South)
	if err != nil {
		return BoundingBox{}, &ProjectionError{FromEPSG: b.EPSG, ToEPSG: toEPSG, Reason: err.Error()}
	}
	out := BoundingBox{North: north, South: south, East: east, West: west, EPSG: toEPSG}
	if err := out.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return out, nil
}
