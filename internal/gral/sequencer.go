package gral

import (
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cityflows/gral-prep/internal/emissions"
	"github.com/cityflows/gral-prep/internal/geo"
	"github.com/cityflows/gral-prep/internal/osmdata"
)

// StageResult records the outcome of one file-generation stage.
type StageResult struct {
	Name     string
	Files    []string
	Duration time.Duration
	Err      error
}

// Inputs carries everything the full GRAL file set needs.
type Inputs struct {
	Domain    geo.BoundingBox
	InDat     InDatParams
	MaxCores  int
	Buildings []osmdata.Building
	Sources   []emissions.SegmentEmissions
}

// Sequencer runs the file-generation stages in the order GRAL needs them
// prepared. The meteorology catalog comes first because the domain files
// reference the weather numbering; control files precede geometry so a broken
// configuration aborts before the large writes.
type Sequencer struct {
	gen    *Generator
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewSequencer returns a Sequencer driving gen.
func NewSequencer(gen *Generator, clock clockwork.Clock, logger *slog.Logger) *Sequencer {
	return &Sequencer{gen: gen, clock: clock, logger: logger}
}

type stage struct {
	name string
	run  func() ([]string, error)
}

// Run executes every stage in order and stops at the first failure. Results
// for completed stages, the failed stage included, are always returned;
// partially written files stay on disk for inspection.
func (s *Sequencer) Run(in Inputs) ([]StageResult, error) {
	one := func(f func() (string, error)) func() ([]string, error) {
		return func() ([]string, error) {
			p, err := f()
			if err != nil {
				return nil, err
			}
			return []string{p}, nil
		}
	}

	stages := []stage{
		{"meteogpt", one(s.gen.WriteMeteogpt)},
		{"greb", one(func() (string, error) { return s.gen.WriteGREB(in.Domain, in.InDat.Layers) })},
		{"indat", one(func() (string, error) { return s.gen.WriteInDat(in.InDat) })},
		{"required", func() ([]string, error) {
			pol, err := s.gen.WritePollutant(in.InDat.Pollutant)
			if err != nil {
				return nil, err
			}
			pct, err := s.gen.WritePercent()
			if err != nil {
				return []string{pol}, err
			}
			proc, err := s.gen.WriteMaxProc(in.MaxCores)
			if err != nil {
				return []string{pol, pct}, err
			}
			return []string{pol, pct, proc}, nil
		}},
		{"buildings", one(func() (string, error) { return s.gen.WriteBuildings(in.Buildings) })},
		{"line-emissions", one(func() (string, error) { return s.gen.WriteLineEmissions(in.Sources, in.InDat.Pollutant) })},
		{"optional", s.gen.WriteOptional},
	}

	var results []StageResult
	for _, st := range stages {
		start := s.clock.Now()
		files, err := st.run()
		res := StageResult{Name: st.name, Files: files, Duration: s.clock.Since(start), Err: err}
		results = append(results, res)
		if err != nil {
			s.logger.Error("gral stage failed", "stage", st.name, "error", err)
			return results, err
		}
		s.logger.Debug("gral stage complete", "stage", st.name, "files", len(files), "duration", res.Duration)
	}
	return results, nil
}
