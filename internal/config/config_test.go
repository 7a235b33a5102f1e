package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every run needs a box; most need an OSM file too.
var baseArgs = []string{
	"-osm", "extract.osm",
	"-weather", "weather.csv",
	"-north", "39.52", "-south", "39.40",
	"-east", "-0.30", "-west", "-0.45",
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(baseArgs)
	require.NoError(t, err)

	assert.Equal(t, "out", cfg.OutputDir)
	assert.Equal(t, 3857, cfg.TargetEPSG)
	assert.Equal(t, ProcessAll, cfg.Process)
	assert.Equal(t, "NOx", cfg.Pollutant)
	assert.Equal(t, "3,6,9,12,15", cfg.Layers)
	assert.Equal(t, 100, cfg.ParticlesPerSecond)
	assert.Equal(t, 3600, cfg.DispersionSeconds)
	assert.Equal(t, 4, cfg.MaxCores)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, int64(1), cfg.Seed)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("GRALPREP_POLLUTANT", "PMx")
	t.Setenv("GRALPREP_TARGET_EPSG", "25830")

	cfg, err := Load(append([]string{"-pollutant", "NO2"}, baseArgs...))
	require.NoError(t, err)

	assert.Equal(t, "NO2", cfg.Pollutant, "flag beats environment")
	assert.Equal(t, 25830, cfg.TargetEPSG, "environment beats default")
}

func TestLoad_UnknownProcess(t *testing.T) {
	_, err := Load(append([]string{"-process", "everything"}, baseArgs...))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown process")
}

func TestLoad_InvertedBox(t *testing.T) {
	_, err := Load([]string{
		"-osm", "extract.osm", "-weather", "w.csv",
		"-north", "39.40", "-south", "39.52",
		"-east", "-0.30", "-west", "-0.45",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "north")
}

func TestLoad_HourWithoutDay(t *testing.T) {
	_, err := Load(append([]string{"-hour", "14:00"}, baseArgs...))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-day")
}

func TestLoad_MissingInputsPerProcess(t *testing.T) {
	box := []string{
		"-north", "39.52", "-south", "39.40",
		"-east", "-0.30", "-west", "-0.45",
	}

	t.Run("buildings needs osm", func(t *testing.T) {
		_, err := Load(append([]string{"-process", "buildings"}, box...))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "-osm")
	})

	t.Run("weather needs weather file", func(t *testing.T) {
		_, err := Load(append([]string{"-process", "weather"}, box...))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "-weather")
	})

	t.Run("weather does not need osm", func(t *testing.T) {
		args := append([]string{"-process", "weather", "-weather", "w.csv"}, box...)
		cfg, err := Load(args)
		require.NoError(t, err)
		assert.Equal(t, ProcessWeather, cfg.Process)
	})
}

func TestLoad_WeatherNeedsNoBox(t *testing.T) {
	cfg, err := Load([]string{"-process", "weather", "-weather", "w.csv"})
	require.NoError(t, err)
	assert.Equal(t, ProcessWeather, cfg.Process)
}

func TestLoad_SimulatorScalarsMustBePositive(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"negative particles", []string{"-particles", "-5"}, "-particles"},
		{"zero dispersion time", []string{"-dispersion-time", "0"}, "-dispersion-time"},
		{"zero cores", []string{"-max-cores", "0"}, "-max-cores"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(append(tt.args, baseArgs...))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_ScalarsUncheckedOutsideSimulatorProcesses(t *testing.T) {
	// A buildings-only run never writes in.dat or Max_Proc.txt, so the
	// simulator scalars are not validated.
	args := append([]string{"-process", "buildings", "-particles", "0"}, baseArgs...)
	cfg, err := Load(args)
	require.NoError(t, err)
	assert.Equal(t, ProcessBuildings, cfg.Process)
}
