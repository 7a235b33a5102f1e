package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityflows/gral-prep/internal/config"
	"github.com/cityflows/gral-prep/internal/observability"
	"github.com/cityflows/gral-prep/internal/osmdata"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		OSMFile:      writeFixture(t, dir, "extract.osm", osmFixture),
		EmissionsCSV: writeFixture(t, dir, "emissions.csv", emissionsFixture),
		SUMONet:      writeFixture(t, dir, "net.xml", netFixture),
		WeatherFile:  writeFixture(t, dir, "weather.csv", weatherFixture),
		OutputDir:    filepath.Join(dir, "out"),
		North:        39.49, South: 39.47, East: -0.37, West: -0.39,
		TargetEPSG:         3857,
		Process:            config.ProcessAll,
		Pollutant:          "NOx",
		Layers:             "3,6,9",
		ParticlesPerSecond: 100,
		DispersionSeconds:  3600,
		MaxCores:           2,
		Seed:               1,
	}
}

func newTestPipeline(cfg *config.Config) *Pipeline {
	return New(cfg, testLogger(), observability.NewMetricsForTesting(), clockwork.NewFakeClock())
}

func TestRunAll(t *testing.T) {
	cfg := testConfig(t)
	p := newTestPipeline(cfg)

	require.NoError(t, p.Run(context.Background()))

	for _, name := range []string{
		"weather.met", "weather.csv",
		"meteogpt.all", "gral.geb", "in.dat",
		"Pollutant.txt", "Percent.txt", "Max_Proc.txt",
		"buildings.dat", "line.dat",
		"emissions_timeseries.txt", "Vegetation.dat",
		"roads.shp", "buildings.shp",
	} {
		assert.FileExists(t, filepath.Join(cfg.OutputDir, name), name)
	}

	// Way 100 sits inside the box and carries the mapped emission value.
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "line.dat"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "100,")
	assert.Contains(t, string(data), "1.500000")

	// in.dat latitude is the mean of the geographic north/south edges.
	data, err = os.ReadFile(filepath.Join(cfg.OutputDir, "in.dat"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "39.48 \t ! Latitude")
}

func TestRunWeatherOnly(t *testing.T) {
	cfg := testConfig(t)
	cfg.Process = config.ProcessWeather
	cfg.OSMFile = ""
	p := newTestPipeline(cfg)

	require.NoError(t, p.Run(context.Background()))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "weather.met"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "gral.geb"))
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "roads.shp"))
}

func TestRunWeatherOnlyNeedsNoBox(t *testing.T) {
	cfg := testConfig(t)
	cfg.Process = config.ProcessWeather
	cfg.North, cfg.South, cfg.East, cfg.West = 0, 0, 0, 0
	p := newTestPipeline(cfg)

	require.NoError(t, p.Run(context.Background()))
	assert.FileExists(t, filepath.Join(cfg.OutputDir, "weather.met"))
}

func TestRunWeatherSliceFallsBackToDefault(t *testing.T) {
	cfg := testConfig(t)
	cfg.Process = config.ProcessWeather
	cfg.Day = "31.12.1999"
	p := newTestPipeline(cfg)

	require.NoError(t, p.Run(context.Background()))
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "weather.met"))
	require.NoError(t, err)
	assert.Equal(t, "01.01.2021,00:00,0.0,0,5\n", string(data))
}

func TestRunInvalidBox(t *testing.T) {
	cfg := testConfig(t)
	cfg.North, cfg.South = cfg.South, cfg.North
	p := newTestPipeline(cfg)
	require.Error(t, p.Run(context.Background()))
}

func TestRunUnknownEPSG(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetEPSG = 99999
	p := newTestPipeline(cfg)
	require.Error(t, p.Run(context.Background()))
}

func TestRunBadLayersAborts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Process = config.ProcessGRAL
	cfg.Layers = "9,6,3"
	p := newTestPipeline(cfg)
	require.Error(t, p.Run(context.Background()))
	// The sequencer never started, so no simulator files exist.
	assert.NoFileExists(t, filepath.Join(cfg.OutputDir, "gral.geb"))
}

func TestCheckReadiness(t *testing.T) {
	cfg := testConfig(t)
	cfg.Process = config.ProcessWeather
	p := newTestPipeline(cfg)

	require.Error(t, p.CheckReadiness(context.Background()))
	require.NoError(t, p.Run(context.Background()))
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestNetworkLengthKm(t *testing.T) {
	// One degree of latitude is roughly 111 km.
	roads := []osmdata.RoadSegment{{
		Geom: geom.LineString{{X: 0, Y: 0}, {X: 0, Y: 1}},
	}}
	assert.InDelta(t, 111.0, networkLengthKm(roads), 1.0)
}
