package geo

import "fmt"

// ProjectionError reports an unsupported EPSG code or an undefined transform
// between two reference systems.
type ProjectionError struct {
	FromEPSG int
	ToEPSG   int
	Reason   string
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("projection EPSG:%d -> EPSG:%d: %s", e.FromEPSG, e.ToEPSG, e.Reason)
}

// InvalidBoundingBoxError reports a bounding box whose corner ordering is
// violated, either on input or after reprojection. The resolver never swaps
// values to repair ordering; it fails instead.
type InvalidBoundingBoxError struct {
	Axis string // "north/south" or "east/west"
	High float64
	Low  float64
}

func (e *InvalidBoundingBoxError) Error() string {
	return fmt.Sprintf("invalid bounding box: %s ordering violated (%v <= %v)", e.Axis, e.High, e.Low)
}
