package osmdata

import "math/rand"

// Physical constants used by the GRAL exports: one traffic lane and one
// building level are both taken as 3 m.
const (
	metersPerLane  = 3.0
	metersPerLevel = 3.0
	minHeight      = 3.0
)

// BackfillLanes replaces missing lane counts with a draw from the lane-count
// distribution observed on the segments that do carry one. Segments keep
// their original count when present. When no segment has a known count, one
// lane is assumed.
func BackfillLanes(roads []RoadSegment, rng *rand.Rand) {
	known := make([]int, 0, len(roads))
	for _, r := range roads {
		if r.Lanes > 0 {
			known = append(known, r.Lanes)
		}
	}
	for i := range roads {
		if roads[i].Lanes > 0 {
			continue
		}
		roads[i].Lanes = weightedChoice(known, rng, 1)
	}
}

// ApplyWidths derives each segment's width from its lane count.
func ApplyWidths(roads []RoadSegment) {
	for i := range roads {
		roads[i].Width = float64(roads[i].Lanes) * metersPerLane
	}
}

// BackfillLevels replaces missing building level counts with a draw from the
// observed level distribution, then mirrors BackfillLanes' fallback of 1.
func BackfillLevels(buildings []Building, rng *rand.Rand) {
	known := make([]int, 0, len(buildings))
	for _, b := range buildings {
		if b.Levels > 0 {
			known = append(known, b.Levels)
		}
	}
	for i := range buildings {
		if buildings[i].Levels > 0 {
			continue
		}
		buildings[i].Levels = weightedChoice(known, rng, 1)
	}
}

// ApplyHeights converts level counts to heights in meters, flooring at the
// single-storey height so no exported building is flat.
func ApplyHeights(buildings []Building) {
	for i := range buildings {
		h := float64(buildings[i].Levels) * metersPerLevel
		if h < minHeight {
			h = minHeight
		}
		buildings[i].Height = h
	}
}

// weightedChoice draws a value from known with probability proportional to
// the value itself; the lane counts double as the upstream probability vector.
func weightedChoice(known []int, rng *rand.Rand, fallback int) int {
	if len(known) == 0 {
		return fallback
	}
	total := 0
	for _, v := range known {
		total += v
	}
	draw := rng.Intn(total)
	for _, v := range known {
		draw -= v
		if draw < 0 {
			return v
		}
	}
	return known[len(known)-1]
}
