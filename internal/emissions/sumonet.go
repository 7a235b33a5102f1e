package emissions

import (
	"encoding/xml"
	"fmt"
	"os"
	"strings"
)

// SUMO plain-XML network, reduced to the parts needed for the edge -> osmid
// mapping. Networks imported from OSM carry the source way id as an origId
// param, on the edge or on its lanes depending on the netconvert version.
type sumoNet struct {
	Edges []sumoEdge `xml:"edge"`
}

type sumoEdge struct {
	ID       string      `xml:"id,attr"`
	Function string      `xml:"function,attr"`
	Params   []sumoParam `xml:"param"`
	Lanes    []sumoLane  `xml:"lane"`
}

type sumoLane struct {
	Params []sumoParam `xml:"param"`
}

type sumoParam struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// ReadEdgeOrigIDs parses a SUMO network file and returns the mapping from
// edge id to the OSM way ids the edge was built from. Internal junction
// edges and edges without an origId are absent from the result.
func ReadEdgeOrigIDs(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read network file: %w", err)
	}
	var net sumoNet
	if err := xml.Unmarshal(data, &net); err != nil {
		return nil, fmt.Errorf("parse network file %s: %w", path, err)
	}

	out := make(map[string][]string)
	for _, e := range net.Edges {
		if e.Function == "internal" {
			continue
		}
		ids := origIDs(e)
		if len(ids) > 0 {
			out[e.ID] = ids
		}
	}
	return out, nil
}

func origIDs(e sumoEdge) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(params []sumoParam) {
		for _, p := range params {
			if p.Key != "origId" {
				continue
			}
			// A merged edge lists several way ids separated by spaces.
			for _, id := range strings.Fields(p.Value) {
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	add(e.Params)
	for _, l := range e.Lanes {
		add(l.Params)
	}
	return ids
}
