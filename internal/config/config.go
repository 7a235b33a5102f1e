// Package config assembles the run configuration from command-line flags with
// environment-variable defaults. Flags win over the environment; the
// environment wins over built-in defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Process names one selectable pipeline slice.
type Process string

const (
	ProcessAll       Process = "all"
	ProcessBuildings Process = "buildings"
	ProcessWeather   Process = "weather"
	ProcessHighway   Process = "highway"
	ProcessGRAL      Process = "gral"
)

// Config holds all run settings.
type Config struct {
	// Inputs.
	OSMFile      string
	EmissionsCSV string
	SUMONet      string
	WeatherFile  string

	// Output.
	OutputDir string

	// Geographic bounding box, EPSG:4326.
	North float64
	South float64
	East  float64
	West  float64
	// Projected system the simulator domain uses.
	TargetEPSG int

	Process Process

	// Simulator settings.
	Pollutant          string
	Layers             string
	ParticlesPerSecond int
	DispersionSeconds  int
	MaxCores           int

	// Weather slicing; empty means the full series.
	Day  string
	Hour string

	// Observability.
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	// Seed for the lane/level backfill draw; fixed seeds give reproducible runs.
	Seed int64
}

// Load parses args (without the program name) into a Config, using
// environment variables as flag defaults.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	fs := flag.NewFlagSet("gralprep", flag.ContinueOnError)

	fs.StringVar(&cfg.OSMFile, "osm", envOrDefault("GRALPREP_OSM_FILE", ""), "OSM XML extract")
	fs.StringVar(&cfg.EmissionsCSV, "emissions", envOrDefault("GRALPREP_EMISSIONS_CSV", ""), "per-edge emissions CSV from the traffic simulation")
	fs.StringVar(&cfg.SUMONet, "net", envOrDefault("GRALPREP_SUMO_NET", ""), "SUMO network file carrying edge origId mappings")
	fs.StringVar(&cfg.WeatherFile, "weather", envOrDefault("GRALPREP_WEATHER_FILE", ""), "weather observations, plain CSV or legacy station export")
	fs.StringVar(&cfg.OutputDir, "out", envOrDefault("GRALPREP_OUTPUT_DIR", "out"), "output directory")

	fs.Float64Var(&cfg.North, "north", envFloat("GRALPREP_NORTH", 0), "north edge of the domain, degrees latitude")
	fs.Float64Var(&cfg.South, "south", envFloat("GRALPREP_SOUTH", 0), "south edge of the domain, degrees latitude")
	fs.Float64Var(&cfg.East, "east", envFloat("GRALPREP_EAST", 0), "east edge of the domain, degrees longitude")
	fs.Float64Var(&cfg.West, "west", envFloat("GRALPREP_WEST", 0), "west edge of the domain, degrees longitude")
	fs.IntVar(&cfg.TargetEPSG, "epsg", envInt("GRALPREP_TARGET_EPSG", 3857), "EPSG code of the projected simulator domain")

	process := fs.String("process", envOrDefault("GRALPREP_PROCESS", string(ProcessAll)), "pipeline slice: all, buildings, weather, highway, gral")

	fs.StringVar(&cfg.Pollutant, "pollutant", envOrDefault("GRALPREP_POLLUTANT", "NOx"), "pollutant the simulator run targets")
	fs.StringVar(&cfg.Layers, "layers", envOrDefault("GRALPREP_LAYERS", "3,6,9,12,15"), "horizontal slice altitudes in meters, ascending")
	fs.IntVar(&cfg.ParticlesPerSecond, "particles", envInt("GRALPREP_PARTICLES", 100), "released particles per second")
	fs.IntVar(&cfg.DispersionSeconds, "dispersion-time", envInt("GRALPREP_DISPERSION_TIME", 3600), "dispersion time in seconds")
	fs.IntVar(&cfg.MaxCores, "max-cores", envInt("GRALPREP_MAX_CORES", 4), "cores the simulator may use")

	fs.StringVar(&cfg.Day, "day", envOrDefault("GRALPREP_DAY", ""), "restrict weather to one day, dd.mm.yyyy")
	fs.StringVar(&cfg.Hour, "hour", envOrDefault("GRALPREP_HOUR", ""), "restrict weather to one hour, hh:mm (needs -day)")

	fs.StringVar(&cfg.HTTPAddr, "http-addr", envOrDefault("HTTP_ADDR", ":8080"), "metrics listen address, empty to disable")
	fs.StringVar(&cfg.LogLevel, "log-level", envOrDefault("LOG_LEVEL", "info"), "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", envOrDefault("LOG_FORMAT", "json"), "log format: json or text")

	fs.Int64Var(&cfg.Seed, "seed", int64(envInt("GRALPREP_SEED", 1)), "seed for attribute backfill draws")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Process = Process(*process)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that every run needs regardless of the
// selected process.
func (c *Config) Validate() error {
	switch c.Process {
	case ProcessAll, ProcessBuildings, ProcessWeather, ProcessHighway, ProcessGRAL:
	default:
		return fmt.Errorf("unknown process %q", c.Process)
	}
	if c.OutputDir == "" {
		return errors.New("output directory is required")
	}
	if c.needsBox() {
		if c.North <= c.South {
			return fmt.Errorf("north (%v) must be greater than south (%v)", c.North, c.South)
		}
		if c.East <= c.West {
			return fmt.Errorf("east (%v) must be greater than west (%v)", c.East, c.West)
		}
	}
	if c.needsSimulator() {
		if c.ParticlesPerSecond <= 0 {
			return fmt.Errorf("-particles must be positive, got %d", c.ParticlesPerSecond)
		}
		if c.DispersionSeconds <= 0 {
			return fmt.Errorf("-dispersion-time must be positive, got %d", c.DispersionSeconds)
		}
		if c.MaxCores <= 0 {
			return fmt.Errorf("-max-cores must be positive, got %d", c.MaxCores)
		}
	}
	if c.Hour != "" && c.Day == "" {
		return errors.New("-hour needs -day")
	}
	if c.needsOSM() && c.OSMFile == "" {
		return fmt.Errorf("process %s needs -osm", c.Process)
	}
	if c.needsWeather() && c.WeatherFile == "" {
		return fmt.Errorf("process %s needs -weather", c.Process)
	}
	return nil
}

// needsBox reports whether the process consumes the bounding box. Weather
// slicing is purely temporal.
func (c *Config) needsBox() bool {
	return c.Process != ProcessWeather
}

func (c *Config) needsSimulator() bool {
	return c.Process == ProcessAll || c.Process == ProcessGRAL
}

func (c *Config) needsOSM() bool {
	return c.Process == ProcessAll || c.Process == ProcessBuildings ||
		c.Process == ProcessHighway || c.Process == ProcessGRAL
}

func (c *Config) needsWeather() bool {
	return c.Process == ProcessAll || c.Process == ProcessWeather ||
		c.Process == ProcessGRAL
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if s := os.Getenv(key); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return def
}
