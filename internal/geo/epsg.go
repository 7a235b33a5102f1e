package geo

import (
	"fmt"

	"github.com/ctessum/geom/proj"
)

// epsgDefs maps EPSG codes to proj4 definitions for the reference systems the
// pipeline supports directly. UTM zones are derived in proj4For instead of
// being listed one by one.
var epsgDefs = map[int]string{
	// WGS 84 geographic coordinates.
	4326: "+proj=longlat +datum=WGS84 +no_defs",
	// Web mercator, the default target for GRAL domains prepared from web maps.
	3857: "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs",
}

// proj4For resolves an EPSG code to a proj4 definition. UTM zones are written
// in their transverse-mercator form, which is equivalent and avoids relying on
// a separate utm projection implementation.
func proj4For(code int) (string, bool) {
	if def, ok := epsgDefs[code]; ok {
		return def, true
	}
	switch {
	case code >= 32601 && code <= 32660: // WGS 84 / UTM north
		return utmProj4(code-32600, "+datum=WGS84", false), true
	case code >= 32701 && code <= 32760: // WGS 84 / UTM south
		return utmProj4(code-32700, "+datum=WGS84", true), true
	case code >= 25828 && code <= 25838: // ETRS89 / UTM (Europe)
		return utmProj4(code-25800, "+ellps=GRS80 +towgs84=0,0,0,0,0,0,0", false), true
	}
	return "", false
}

func utmProj4(zone int, datum string, south bool) string {
	lon0 := zone*6 - 183
	y0 := 0
	if south {
		y0 = 10000000
	}
	return fmt.Sprintf("+proj=tmerc +lat_0=0 +lon_0=%d +k=0.9996 +x_0=500000 +y_0=%d %s +units=m +no_defs",
		lon0, y0, datum)
}

// srFor parses the spatial reference for an EPSG code.
func srFor(code int) (*proj.SR, error) {
	def, ok := proj4For(code)
	if !ok {
		return nil, &ProjectionError{FromEPSG: code, ToEPSG: code, Reason: "unknown EPSG code"}
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, &ProjectionError{FromEPSG: code, ToEPSG: code, Reason: err.Error()}
	}
	return sr, nil
}

// NewTransform builds a coordinate transform between two EPSG codes.
func NewTransform(fromEPSG, toEPSG int) (proj.Transformer, error) {
	src, err := srFor(fromEPSG)
	if err != nil {
		return nil, err
	}
	dst, err := srFor(toEPSG)
	if err != nil {
		return nil, err
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, &ProjectionError{FromEPSG: fromEPSG, ToEPSG: toEPSG, Reason: err.Error()}
	}
	if t == nil {
		// Equal spatial references yield no transform; conversion is the identity.
		return func(x, y float64) (float64, float64, error) { return x, y, nil }, nil
	}
	return t, nil
}
