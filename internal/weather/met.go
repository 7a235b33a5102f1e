package weather

import (
	"fmt"
	"io"
	"os"
)

// WriteMet writes a series in GRAL .met form: headerless CSV rows of
// date, time, wind speed, wind direction, stability class.
func WriteMet(w io.Writer, s Series) error {
	for _, o := range s {
		_, err := fmt.Fprintf(w, "%s,%s,%.1f,%d,%d\n",
			o.Date, o.Time, o.WindSpeed, o.WindDir, o.StabilityClass)
		if err != nil {
			return fmt.Errorf("write met record: %w", err)
		}
	}
	return nil
}

// WriteMetFile writes the series to path in .met form.
func WriteMetFile(path string, s Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create met file: %w", err)
	}
	if err := WriteMet(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV writes the series with a header, the inspection-friendly form
// kept next to the .met output.
func WriteCSV(w io.Writer, s Series) error {
	if _, err := fmt.Fprintln(w, "date,time,wind_speed,direction,temperature,stability_class"); err != nil {
		return fmt.Errorf("write weather header: %w", err)
	}
	for _, o := range s {
		_, err := fmt.Fprintf(w, "%s,%s,%.1f,%d,%.1f,%d\n",
			o.Date, o.Time, o.WindSpeed, o.WindDir, o.Temperature, o.StabilityClass)
		if err != nil {
			return fmt.Errorf("write weather record: %w", err)
		}
	}
	return nil
}

// WriteCSVFile writes the series to path in CSV form.
func WriteCSVFile(path string, s Series) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create weather csv: %w", err)
	}
	if err := WriteCSV(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
