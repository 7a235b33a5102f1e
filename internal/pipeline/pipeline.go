// Package pipeline orchestrates one preparation run: extract features from
// the OSM snapshot, join the traffic emissions, slice the weather series, and
// write the simulator input files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/ctessum/geom/proj"
	"github.com/jonboulle/clockwork"

	"github.com/cityflows/gral-prep/internal/config"
	"github.com/cityflows/gral-prep/internal/emissions"
	"github.com/cityflows/gral-prep/internal/geo"
	"github.com/cityflows/gral-prep/internal/gral"
	"github.com/cityflows/gral-prep/internal/observability"
	"github.com/cityflows/gral-prep/internal/osmdata"
	"github.com/cityflows/gral-prep/internal/shape"
	"github.com/cityflows/gral-prep/internal/weather"
)

// Pipeline runs the preparation stages selected by the configuration.
type Pipeline struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock
	started atomic.Bool
}

// New creates a Pipeline. The configuration is treated as immutable for the
// lifetime of the run.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	return &Pipeline{cfg: cfg, logger: logger, metrics: metrics, clock: clock}
}

// CheckReadiness returns nil once the run has started.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.started.Load() {
		return errors.New("pipeline run has not started yet")
	}
	return nil
}

// Run executes the selected stages. Shapefile writes are permissive: a
// failure is logged and the run continues. The simulator file sequence is
// fail-fast: its first failure aborts the run.
func (p *Pipeline) Run(ctx context.Context) error {
	p.started.Store(true)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	cfg := p.cfg
	p.logger.Info("pipeline started", "process", cfg.Process, "out", cfg.OutputDir)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	box := geo.BoundingBox{
		North: cfg.North, South: cfg.South,
		East: cfg.East, West: cfg.West,
		EPSG: 4326,
	}
	var (
		domain   geo.BoundingBox
		toTarget proj.Transformer
		err      error
	)
	// Weather slicing is purely temporal; every other process consumes the box.
	if cfg.Process != config.ProcessWeather {
		if err := box.Validate(); err != nil {
			return err
		}
		domain, err = geo.Resolve(box, cfg.TargetEPSG)
		if err != nil {
			return err
		}
		toTarget, err = geo.NewTransform(4326, cfg.TargetEPSG)
		if err != nil {
			return err
		}
	}

	var ex *extracted
	if needsOSM(cfg.Process) {
		ex, err = p.extract(ctx, box)
		if err != nil {
			return err
		}
	}

	if needsWeather(cfg.Process) {
		if _, err := p.prepareWeather(ctx); err != nil {
			return err
		}
	}

	var sources []emissions.SegmentEmissions
	if cfg.Process == config.ProcessAll || cfg.Process == config.ProcessHighway || cfg.Process == config.ProcessGRAL {
		sources, err = p.joinEmissions(ctx, ex.roads)
		if err != nil {
			return err
		}
	}

	switch cfg.Process {
	case config.ProcessBuildings:
		p.writeBuildingShapefile(ex.buildings, toTarget)
	case config.ProcessHighway:
		p.writeRoadShapefile(ex.roads, sources, toTarget)
	case config.ProcessWeather:
		// Weather artifacts were written by prepareWeather.
	case config.ProcessGRAL:
		if err := p.runSequencer(ctx, domain, box, ex, sources, toTarget); err != nil {
			return err
		}
	case config.ProcessAll:
		p.writeBuildingShapefile(ex.buildings, toTarget)
		p.writeRoadShapefile(ex.roads, sources, toTarget)
		if err := p.runSequencer(ctx, domain, box, ex, sources, toTarget); err != nil {
			return err
		}
	}

	p.logger.Info("pipeline finished", "process", cfg.Process)
	return nil
}

type extracted struct {
	roads     []osmdata.RoadSegment
	buildings []osmdata.Building
}

// extract reads the OSM snapshot, clips it to the geographic box, and
// backfills the attributes the simulator needs.
func (p *Pipeline) extract(ctx context.Context, box geo.BoundingBox) (*extracted, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := p.clock.Now()

	e, err := osmdata.ReadExtract(p.cfg.OSMFile)
	if err != nil {
		return nil, err
	}
	p.metrics.FeaturesExtracted.WithLabelValues("road").Add(float64(len(e.Roads)))
	p.metrics.FeaturesExtracted.WithLabelValues("building").Add(float64(len(e.Buildings)))

	roads := osmdata.ClipRoads(e.Roads, box)
	buildings := osmdata.ClipBuildings(e.Buildings, box)
	p.metrics.FeaturesClipped.WithLabelValues("road").Add(float64(len(roads)))
	p.metrics.FeaturesClipped.WithLabelValues("building").Add(float64(len(buildings)))

	rng := rand.New(rand.NewSource(p.cfg.Seed))
	osmdata.BackfillLanes(roads, rng)
	osmdata.ApplyWidths(roads)
	osmdata.BackfillLevels(buildings, rng)
	osmdata.ApplyHeights(buildings)

	p.metrics.StageDuration.WithLabelValues("extract").Observe(p.clock.Since(start).Seconds())
	p.logger.Info("osm extract clipped",
		"roads", len(roads), "buildings", len(buildings),
		"network_km", networkLengthKm(roads))
	return &extracted{roads: roads, buildings: buildings}, nil
}

// prepareWeather reads the observation file, applies the day/hour slice, and
// writes the .met and inspection CSV artifacts. An empty slice falls back to
// a single calm default record so the simulator always has meteorology.
func (p *Pipeline) prepareWeather(ctx context.Context) (weather.Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := p.clock.Now()

	series, err := weather.ReadFile(p.cfg.WeatherFile)
	if err != nil {
		return nil, err
	}
	if p.cfg.Day != "" {
		day := series.SliceDay(p.cfg.Day)
		if p.cfg.Hour != "" {
			series = day.SliceHour(p.cfg.Hour)
		} else {
			series = day.Series
		}
	}
	if len(series) == 0 {
		p.logger.Warn("no weather records after slicing, using default series",
			"day", p.cfg.Day, "hour", p.cfg.Hour)
		series = weather.DefaultSeries()
	}
	p.metrics.WeatherRecords.Add(float64(len(series)))

	metPath := p.outPath("weather.met")
	if err := weather.WriteMetFile(metPath, series); err != nil {
		return nil, err
	}
	if err := weather.WriteCSVFile(p.outPath("weather.csv"), series); err != nil {
		return nil, err
	}
	p.metrics.FilesWritten.WithLabelValues("weather").Add(2)
	p.metrics.StageDuration.WithLabelValues("weather").Observe(p.clock.Since(start).Seconds())
	p.logger.Info("weather series written", "records", len(series), "met", metPath)
	return series, nil
}

// joinEmissions maps the per-edge simulation output back to OSM ways and
// joins it with the clipped road network.
func (p *Pipeline) joinEmissions(ctx context.Context, roads []osmdata.RoadSegment) ([]emissions.SegmentEmissions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.cfg.EmissionsCSV == "" {
		p.logger.Info("no emissions file configured, road network carries zero emissions")
		return nil, nil
	}
	start := p.clock.Now()

	rows, pollutants, err := emissions.ReadEdgeEmissions(p.cfg.EmissionsCSV)
	if err != nil {
		return nil, err
	}

	origIDs := map[string][]string{}
	if p.cfg.SUMONet != "" {
		origIDs, err = emissions.ReadEdgeOrigIDs(p.cfg.SUMONet)
		if err != nil {
			return nil, err
		}
	}

	records := emissions.MapToSegments(rows, origIDs)
	p.metrics.EmissionRows.Add(float64(len(records)))

	joined, err := emissions.Join(records, roads)
	if err != nil {
		return nil, err
	}
	p.metrics.JoinedFeatures.Add(float64(len(joined)))
	p.metrics.DroppedRows.Add(float64(len(records) - len(joined)))

	sources := emissions.AggregateBySegment(emissions.DropNonMotorized(joined))
	p.metrics.StageDuration.WithLabelValues("join").Observe(p.clock.Since(start).Seconds())
	p.logger.Info("emissions joined",
		"rows", len(records), "matched", len(joined),
		"sources", len(sources), "pollutants", pollutants)
	return sources, nil
}

func (p *Pipeline) writeRoadShapefile(roads []osmdata.RoadSegment, sources []emissions.SegmentEmissions, t proj.Transformer) {
	path := p.outPath("roads.shp")
	if err := shape.WriteRoads(path, roads, sources, p.cfg.Pollutant, t, p.logger); err != nil {
		p.logger.Error("road shapefile write failed, continuing", "error", err)
		return
	}
	p.metrics.FilesWritten.WithLabelValues("shapefile").Inc()
}

func (p *Pipeline) writeBuildingShapefile(buildings []osmdata.Building, t proj.Transformer) {
	path := p.outPath("buildings.shp")
	if err := shape.WriteBuildings(path, buildings, t, p.logger); err != nil {
		p.logger.Error("building shapefile write failed, continuing", "error", err)
		return
	}
	p.metrics.FilesWritten.WithLabelValues("shapefile").Inc()
}

// runSequencer projects the clipped geometry into the simulator domain and
// drives the ordered simulator file generation.
func (p *Pipeline) runSequencer(ctx context.Context, domain, box geo.BoundingBox, ex *extracted, sources []emissions.SegmentEmissions, toTarget proj.Transformer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	roads, err := osmdata.ProjectRoads(ex.roads, toTarget)
	if err != nil {
		return err
	}
	buildings, err := osmdata.ProjectBuildings(ex.buildings, toTarget)
	if err != nil {
		return err
	}
	projSources, err := projectSources(sources, roads)
	if err != nil {
		return err
	}

	layers, err := gral.ParseLayers(p.cfg.Layers)
	if err != nil {
		return err
	}

	gen := gral.NewGenerator(p.cfg.OutputDir, p.outPath("weather.met"), p.logger)
	seq := gral.NewSequencer(gen, p.clock, p.logger)
	results, err := seq.Run(gral.Inputs{
		Domain:   domain,
		MaxCores: p.cfg.MaxCores,
		InDat: gral.InDatParams{
			ParticlesPerSecond: p.cfg.ParticlesPerSecond,
			DispersionSeconds:  p.cfg.DispersionSeconds,
			Latitude:           box.MeanLatitude(),
			Pollutant:          p.cfg.Pollutant,
			Layers:             layers,
		},
		Buildings: buildings,
		Sources:   projSources,
	})
	for _, r := range results {
		if r.Err == nil {
			p.metrics.FilesWritten.WithLabelValues(r.Name).Add(float64(len(r.Files)))
			p.metrics.StageDuration.WithLabelValues(r.Name).Observe(r.Duration.Seconds())
		}
	}
	return err
}

// projectSources rebinds aggregated emissions to the projected road slice so
// the line source coordinates land in the simulator domain system.
func projectSources(sources []emissions.SegmentEmissions, projected []osmdata.RoadSegment) ([]emissions.SegmentEmissions, error) {
	byID := make(map[string]*osmdata.RoadSegment, len(projected))
	for i := range projected {
		byID[projected[i].OSMID] = &projected[i]
	}
	out := make([]emissions.SegmentEmissions, 0, len(sources))
	for _, s := range sources {
		seg, ok := byID[s.Segment.OSMID]
		if !ok {
			return nil, fmt.Errorf("emission source %s missing from projected network", s.Segment.OSMID)
		}
		out = append(out, emissions.SegmentEmissions{Segment: seg, Totals: s.Totals})
	}
	return out, nil
}

func (p *Pipeline) outPath(name string) string {
	return filepath.Join(p.cfg.OutputDir, name)
}

func needsOSM(proc config.Process) bool {
	return proc != config.ProcessWeather
}

func needsWeather(proc config.Process) bool {
	return proc == config.ProcessAll || proc == config.ProcessWeather || proc == config.ProcessGRAL
}
