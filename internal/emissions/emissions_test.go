package emissions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityflows/gral-prep/internal/osmdata"
)

func segs(ids ...string) []osmdata.RoadSegment {
	out := make([]osmdata.RoadSegment, len(ids))
	for i, id := range ids {
		out[i] = osmdata.RoadSegment{OSMID: id, Class: "residential"}
	}
	return out
}

func TestJoin(t *testing.T) {
	t.Run("strict inner join", func(t *testing.T) {
		records := []Record{
			{SegmentID: "1", Pollutant: "NOx", Timestep: "0", Value: 1.0},
			{SegmentID: "2", Pollutant: "NOx", Timestep: "0", Value: 2.0},
			{SegmentID: "3", Pollutant: "NOx", Timestep: "0", Value: 3.0},
		}
		segments := segs("2", "3", "4")

		out, err := Join(records, segments)
		require.NoError(t, err)

		var ids []string
		for _, f := range out {
			ids = append(ids, f.Segment.OSMID)
		}
		assert.Equal(t, []string{"2", "3"}, ids)
	})

	t.Run("one row per segment pollutant timestep", func(t *testing.T) {
		records := []Record{
			{SegmentID: "1", Pollutant: "NOx", Timestep: "0", Value: 1.0},
			{SegmentID: "1", Pollutant: "NOx", Timestep: "3600", Value: 2.0},
			{SegmentID: "1", Pollutant: "PMx", Timestep: "0", Value: 0.5},
		}
		out, err := Join(records, segs("1"))
		require.NoError(t, err)
		require.Len(t, out, 3)
		// No aggregation across time.
		assert.Equal(t, "0", out[0].Timestep)
		assert.Equal(t, "3600", out[1].Timestep)
		assert.Equal(t, "PMx", out[2].Pollutant)
	})

	t.Run("insensitive to input ordering", func(t *testing.T) {
		a := []Record{
			{SegmentID: "2", Pollutant: "NOx", Timestep: "0", Value: 2.0},
			{SegmentID: "1", Pollutant: "PMx", Timestep: "0", Value: 1.0},
			{SegmentID: "1", Pollutant: "NOx", Timestep: "0", Value: 1.0},
		}
		b := []Record{a[2], a[0], a[1]}

		out1, err := Join(a, segs("1", "2"))
		require.NoError(t, err)
		out2, err := Join(b, segs("2", "1"))
		require.NoError(t, err)

		require.Equal(t, len(out1), len(out2))
		for i := range out1 {
			assert.Equal(t, out1[i].Segment.OSMID, out2[i].Segment.OSMID)
			assert.Equal(t, out1[i].Pollutant, out2[i].Pollutant)
			assert.Equal(t, out1[i].Value, out2[i].Value)
		}
	})

	t.Run("does not mutate inputs", func(t *testing.T) {
		records := []Record{{SegmentID: "1", Pollutant: "NOx", Timestep: "0", Value: 1.0}}
		segments := segs("1", "2")
		wantRecords := append([]Record(nil), records...)
		wantSegments := append([]osmdata.RoadSegment(nil), segments...)

		_, err := Join(records, segments)
		require.NoError(t, err)
		assert.Equal(t, wantRecords, records)
		assert.Equal(t, wantSegments, segments)
	})

	t.Run("empty intersection is valid", func(t *testing.T) {
		out, err := Join([]Record{{SegmentID: "9", Pollutant: "NOx"}}, segs("1"))
		require.NoError(t, err)
		assert.Empty(t, out)
	})

	t.Run("malformed record", func(t *testing.T) {
		_, err := Join([]Record{{SegmentID: "", Pollutant: "NOx"}}, segs("1"))
		var jerr *JoinError
		require.ErrorAs(t, err, &jerr)

		_, err = Join([]Record{{SegmentID: "1", Pollutant: ""}}, segs("1"))
		require.ErrorAs(t, err, &jerr)
	})

	t.Run("malformed segment", func(t *testing.T) {
		_, err := Join(nil, []osmdata.RoadSegment{{OSMID: ""}})
		var jerr *JoinError
		require.ErrorAs(t, err, &jerr)
	})
}

func TestAggregateBySegment(t *testing.T) {
	segments := segs("1")
	features := []JoinedFeature{
		{Segment: &segments[0], Pollutant: "NOx", Timestep: "0", Value: 1.5},
		{Segment: &segments[0], Pollutant: "NOx", Timestep: "3600", Value: 0.5},
		{Segment: &segments[0], Pollutant: "PMx", Timestep: "0", Value: 0.25},
	}
	out := AggregateBySegment(features)
	require.Len(t, out, 1)
	assert.Equal(t, 2.0, out[0].Totals["NOx"])
	assert.Equal(t, 0.25, out[0].Totals["PMx"])
}

func TestDropNonMotorized(t *testing.T) {
	segments := []osmdata.RoadSegment{
		{OSMID: "1", Class: "residential"},
		{OSMID: "2", Class: "cycleway"},
		{OSMID: "3", Class: "footway"},
	}
	features := []JoinedFeature{
		{Segment: &segments[0], Pollutant: "NOx"},
		{Segment: &segments[1], Pollutant: "NOx"},
		{Segment: &segments[2], Pollutant: "NOx"},
	}
	out := DropNonMotorized(features)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].Segment.OSMID)
}
