package gral

import (
	"fmt"
	"strconv"
	"strings"
)

// Layers is the ascending list of horizontal slice altitudes in meters. The
// slice count GRAL wants in several files is derived from the list itself, so
// the two can never drift apart.
type Layers []float64

// ParseLayers reads a comma-separated altitude list, e.g. "3,6,9,12,15".
func ParseLayers(s string) (Layers, error) {
	parts := strings.Split(s, ",")
	out := make(Layers, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid layer altitude %q", p)
		}
		out = append(out, v)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of horizontal slices.
func (l Layers) Count() int { return len(l) }

// Validate checks the list is non-empty, positive, and strictly ascending.
func (l Layers) Validate() error {
	if len(l) == 0 {
		return fmt.Errorf("layer list is empty")
	}
	prev := 0.0
	for _, v := range l {
		if v <= prev {
			return fmt.Errorf("layer altitudes must be positive and strictly ascending, got %v", []float64(l))
		}
		prev = v
	}
	return nil
}

// CSV renders the list the way in.dat wants it: comma separated with a
// trailing comma.
func (l Layers) CSV() string {
	var sb strings.Builder
	for _, v := range l {
		sb.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
		sb.WriteString(",")
	}
	return sb.String()
}
