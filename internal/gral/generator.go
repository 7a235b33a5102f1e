// Package gral generates the input file set of the GRAL dispersion model.
// Formats follow the simulator's documented contract; the comment trailer on
// each control line is part of that contract and is reproduced verbatim.
package gral

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cityflows/gral-prep/internal/artifact"
	"github.com/cityflows/gral-prep/internal/emissions"
	"github.com/cityflows/gral-prep/internal/geo"
	"github.com/cityflows/gral-prep/internal/osmdata"
)

// Cell size of the cartesian wind field grid in meters, both axes.
const cellSize = 10

// Generator writes GRAL input files into a single directory.
type Generator struct {
	dir     string
	metPath string
	logger  *slog.Logger
}

// NewGenerator returns a Generator writing into dir, reading wind statistics
// from the .met file at metPath.
func NewGenerator(dir, metPath string, logger *slog.Logger) *Generator {
	return &Generator{dir: dir, metPath: metPath, logger: logger}
}

func (g *Generator) path(name string) string { return filepath.Join(g.dir, name) }

// WriteGREB writes gral.geb: grid cell sizes, cell counts derived from the
// projected domain extent, the horizontal slice count, and the domain borders
// in meters. The bounding box must already be resolved to the projected
// system; borders are truncated to whole meters.
func (g *Generator) WriteGREB(domain geo.BoundingBox, layers Layers) (string, error) {
	path := g.path("gral.geb")

	east, west := int(domain.East), int(domain.West)
	north, south := int(domain.North), int(domain.South)
	nx := int(math.Abs(float64(east-west))) / cellSize
	ny := int(math.Abs(float64(north-south))) / cellSize

	err := artifact.WriteFile(path, func(w io.Writer) error {
		lines := []string{
			fmt.Sprintf("%d              !cell-size for cartesian wind field in GRAL in x-direction", cellSize),
			fmt.Sprintf("%d              !cell-size for cartesian wind field in GRAL in y-direction", cellSize),
			"2,1.01              !cell-size for cartesian wind field in GRAL in z-direction, streching factor for increasing cells heights with height",
			fmt.Sprintf("%d              !number of cells for counting grid in GRAL in x-direction", nx),
			fmt.Sprintf("%d              !number of cells for counting grid in GRAL in y-direction", ny),
			fmt.Sprintf("%d              !Number of horizontal slices", layers.Count()),
			"1,              !Source groups to be computed seperated by a comma",
			fmt.Sprintf("%d               !West border of GRAL model domain [m]", west),
			fmt.Sprintf("%d               !East border of GRAL model domain [m]", east),
			fmt.Sprintf("%d               !South border of GRAL model domain [m]", south),
			fmt.Sprintf("%d              !North border of GRAL model domain [m]", north),
		}
		for _, l := range lines {
			if _, err := fmt.Fprintln(w, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	g.logger.Info("greb file created", "path", path, "cells_x", nx, "cells_y", ny)
	return path, nil
}

// InDatParams are the scalars the in.dat control file needs.
type InDatParams struct {
	ParticlesPerSecond int
	DispersionSeconds  int
	// Latitude is the arithmetic mean of the geographic north/south domain
	// edges: GRAL's drift physics expects true latitude, not projected
	// coordinates.
	Latitude  float64
	Pollutant string
	Layers    Layers
}

// WriteInDat writes the in.dat control file.
func (g *Generator) WriteInDat(p InDatParams) (string, error) {
	path := g.path("in.dat")

	err := artifact.WriteFile(path, func(w io.Writer) error {
		lines := []string{
			fmt.Sprintf("%d \t ! Number of released particles per second", p.ParticlesPerSecond),
			fmt.Sprintf("%d \t ! Dispersion time", p.DispersionSeconds),
			"1 \t ! Steady state GRAL mode = 1, Transient GRAL mode = 0",
			"4 \t ! Meteorology input: inputzr.dat = 0, meteo.all = 1, elimaeki.prn = 2, SONIC.dat = 3, meteopgt.all = 4",
			"0 \t ! Receptor points: Yes = 1, No = 0",
			"0.2 \t ! Surface roughness in [m]",
			fmt.Sprintf("%.2f \t ! Latitude", p.Latitude),
			"N \t ! Meandering Effect Off = J, On = N",
			fmt.Sprintf("%s \t ! Pollutant: not used since version 19.01, new: Pollutant.txt", p.Pollutant),
			fmt.Sprintf("%s \t ! Horizontal slices [m] seperated by a comma (number of slices need to be defined in GRAL.geb!)", p.Layers.CSV()),
			"2 \t ! Vertical grid spacing in [m]",
			"1 \t ! Start the calculation with this weather number",
			"2,15 \t ! How to take buildings into account? 1 = simple mass conservation, 2 = mass conservation with Poisson equation + advection, Factor for the prognostic sub domain size",
			"0 \t ! Stream output for Soundplan 1 = activated, -2 = write buildings height",
			"compressed V02 \t ! Write strong compressed output files",
			"WaitForKeyStroke \t ! Wait for keystroke when exiting GRAL",
			"ASCiiResults 0 \t ! Additional ASCii result files Yes = 1, No = 0",
			"0\t ! Adaptive surface roughness - max value [m]. Default: 0 = no adaptive surface roughness",
			"0\t ! Radius surrounding sources, in which the wind field is to be calculated prognostically; 0 = off, valid values: 50 - 10000 m",
			"1 \t ! Use GRAL Online Functions = true",
		}
		for _, l := range lines {
			if _, err := fmt.Fprintln(w, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	g.logger.Info("in.dat file created", "path", path, "latitude", p.Latitude)
	return path, nil
}

// WriteMeteogpt converts the .met wind records into meteogpt.all, the
// classified dispersion-situation catalog: one line per record with the wind
// direction collapsed to an 18-degree sector.
func (g *Generator) WriteMeteogpt() (string, error) {
	path := g.path("meteogpt.all")

	f, err := os.Open(g.metPath)
	if err != nil {
		return "", &artifact.FileWriteError{Path: path, Err: err}
	}
	defer f.Close()

	type metRow struct {
		speed     float64
		sector    float64
		stability int
	}
	var rows []metRow

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Split(strings.TrimSpace(sc.Text()), ",")
		if len(fields) < 5 {
			continue
		}
		// date and time lead each record; the rest is speed, direction, class.
		speed, errS := strconv.ParseFloat(fields[2], 64)
		dir, errD := strconv.ParseFloat(fields[3], 64)
		stab, errC := strconv.Atoi(fields[4])
		if errS != nil || errD != nil || errC != nil {
			continue
		}
		rows = append(rows, metRow{
			speed:     math.Round(speed*10) / 10,
			sector:    math.Round(dir/10*2) / 2,
			stability: stab,
		})
	}
	if err := sc.Err(); err != nil {
		return "", &artifact.FileWriteError{Path: path, Err: err}
	}

	err = artifact.WriteFile(path, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, "10,0,10,    !Are dispersion situations classified =0 or not =1"); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, "Wind direction sector,Wind speed class,stability class, frequency"); err != nil {
			return err
		}
		for _, r := range rows {
			_, err := fmt.Fprintf(w, "%s,%s,%d,1000\n",
				strconv.FormatFloat(r.sector, 'f', -1, 64),
				strconv.FormatFloat(r.speed, 'f', -1, 64),
				r.stability)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	g.logger.Info("meteogpt.all file created", "path", path, "situations", len(rows))
	return path, nil
}

// WritePollutant writes Pollutant.txt, the per-pollutant deposition settings.
func (g *Generator) WritePollutant(pollutant string) (string, error) {
	path := g.path("Pollutant.txt")
	err := artifact.WriteFile(path, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%s\n0\t ! Wet deposition cW setting\n0\t ! Wet deposition alphaW setting\n0\t ! Decay rate for all source groups\n", pollutant)
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// WritePercent writes Percent.txt, the evaluation percentile.
func (g *Generator) WritePercent() (string, error) {
	path := g.path("Percent.txt")
	err := artifact.WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "80")
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// WriteMaxProc writes Max_Proc.txt, the core count GRAL may use.
func (g *Generator) WriteMaxProc(cores int) (string, error) {
	path := g.path("Max_Proc.txt")
	err := artifact.WriteFile(path, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "%d\n", cores)
		return err
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// WriteBuildings writes buildings.dat: one line per footprint vertex with the
// building height. Geometry must already be in the projected domain system.
func (g *Generator) WriteBuildings(buildings []osmdata.Building) (string, error) {
	path := g.path("buildings.dat")
	err := artifact.WriteFile(path, func(w io.Writer) error {
		for _, b := range buildings {
			for _, ring := range b.Geom {
				for _, p := range ring {
					if _, err := fmt.Fprintf(w, "%.2f,%.2f,0,%.1f\n", p.X, p.Y, b.Height); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	g.logger.Info("buildings file created", "path", path, "buildings", len(buildings))
	return path, nil
}

// WriteLineEmissions writes line.dat, the line emission sources: one row per
// road segment sub-line carrying the segment's summed emission for the chosen
// pollutant. Geometry must already be in the projected domain system.
func (g *Generator) WriteLineEmissions(sources []emissions.SegmentEmissions, pollutant string) (string, error) {
	path := g.path("line.dat")
	err := artifact.WriteFile(path, func(w io.Writer) error {
		if _, err := fmt.Fprintln(w, "Generated: gral-prep"); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "Line sources: %d\n", len(sources)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "StrName,Section,Sourcegroup,x1,y1,z1,x2,y2,z2,width,%s[kg/(km*h)]\n", pollutant); err != nil {
			return err
		}
		for _, s := range sources {
			value := s.Totals[pollutant]
			for i := 0; i+1 < len(s.Segment.Geom); i++ {
				a, b := s.Segment.Geom[i], s.Segment.Geom[i+1]
				_, err := fmt.Fprintf(w, "%s,%d,1,%.2f,%.2f,0,%.2f,%.2f,0,%.1f,%.6f\n",
					s.Segment.OSMID, i, a.X, a.Y, b.X, b.Y, s.Segment.Width, value)
				if err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	g.logger.Info("line emissions file created", "path", path, "sources", len(sources), "pollutant", pollutant)
	return path, nil
}

// WriteOptional writes the optional auxiliary files: a flat hourly emission
// modulation and an empty vegetation file.
func (g *Generator) WriteOptional() ([]string, error) {
	tsPath := g.path("emissions_timeseries.txt")
	err := artifact.WriteFile(tsPath, func(w io.Writer) error {
		for i := 0; i < 24; i++ {
			if _, err := fmt.Fprintln(w, "1"); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	vegPath := g.path("Vegetation.dat")
	if err := artifact.WriteFile(vegPath, func(io.Writer) error { return nil }); err != nil {
		return nil, err
	}
	return []string{tsPath, vegPath}, nil
}
