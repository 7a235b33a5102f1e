package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// A small extract around Valencia: one road and one building inside the test
// box, one road far outside it.
const osmFixture = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="39.480" lon="-0.380"/>
  <node id="2" lat="39.481" lon="-0.379"/>
  <node id="3" lat="39.482" lon="-0.378"/>
  <node id="4" lat="39.900" lon="-0.100"/>
  <node id="5" lat="39.901" lon="-0.099"/>
  <node id="10" lat="39.4805" lon="-0.3805"/>
  <node id="11" lat="39.4805" lon="-0.3795"/>
  <node id="12" lat="39.4815" lon="-0.3795"/>
  <node id="13" lat="39.4815" lon="-0.3805"/>
  <way id="100">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="lanes" v="2"/>
  </way>
  <way id="101">
    <nd ref="4"/>
    <nd ref="5"/>
    <tag k="highway" v="primary"/>
  </way>
  <way id="200">
    <nd ref="10"/>
    <nd ref="11"/>
    <nd ref="12"/>
    <nd ref="13"/>
    <nd ref="10"/>
    <tag k="building" v="apartments"/>
    <tag k="building:levels" v="3"/>
  </way>
</osm>`

const emissionsFixture = "edge_id;interval_begin;edge_NOx_normed\n" +
	"E1;0;1.5\n" +
	"E2;0;9.9\n"

// E1 maps to way 100 inside the box; E2 maps to nothing and gets dropped.
const netFixture = `<?xml version="1.0" encoding="UTF-8"?>
<net version="1.9">
  <edge id="E1" from="n1" to="n2">
    <param key="origId" value="100"/>
    <lane id="E1_0" index="0" speed="13.89" length="120.0"/>
  </edge>
  <edge id="E2" from="n2" to="n3">
    <lane id="E2_0" index="0" speed="13.89" length="80.0"/>
  </edge>
</net>`

const weatherFixture = "date,time,wind_speed,direction,temperature\n" +
	"02.01.2024,13:00,1.1,90,20.0\n" +
	"02.01.2024,14:00,3.2,180,21.5\n"
