package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fieldmark-robotics/avoid.sim/internal/policy"
)

// ErrNoTelemetry is returned when a telemetry CSV cannot be found at
// chart-rendering time. Callers report "no data to plot" and move on.
var ErrNoTelemetry = errors.New("no telemetry data")

// Header lists the CSV columns in write order.
var Header = []string{"t", "x", "y", "theta", "dmin", "state", "reason", "v", "omega", "nearest_ox", "nearest_oy"}

// CSVWriter writes step records as CSV rows, flushing after every row
// so an interrupted run keeps everything written so far.
type CSVWriter struct {
	w *csv.Writer
}

// NewCSVWriter creates a writer and emits the header row.
func NewCSVWriter(w io.Writer) (*CSVWriter, error) {
	cw := &CSVWriter{w: csv.NewWriter(w)}
	if err := cw.w.Write(Header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	cw.w.Flush()
	return cw, cw.w.Error()
}

// Record writes one step row and flushes it.
func (c *CSVWriter) Record(r StepRecord) error {
	row := []string{
		fmt.Sprintf("%.6f", r.T),
		fmt.Sprintf("%.6f", r.X),
		fmt.Sprintf("%.6f", r.Y),
		fmt.Sprintf("%.6f", r.Theta),
		fmt.Sprintf("%.6f", r.NearestDist),
		string(r.State),
		string(r.Reason),
		fmt.Sprintf("%.6f", r.V),
		fmt.Sprintf("%.6f", r.Omega),
		fmt.Sprintf("%.6f", r.NearestX),
		fmt.Sprintf("%.6f", r.NearestY),
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("write csv row: %w", err)
	}
	c.w.Flush()
	return c.w.Error()
}

// ReadRecords loads a telemetry CSV back into step records, typically
// for summary-chart rendering after a run. A missing file yields
// ErrNoTelemetry.
func ReadRecords(path string) ([]StepRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoTelemetry, path)
		}
		return nil, fmt.Errorf("open telemetry csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read telemetry csv: %w", err)
	}
	if len(rows) <= 1 {
		return nil, fmt.Errorf("%w: %s holds no rows", ErrNoTelemetry, path)
	}

	records := make([]StepRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) != len(Header) {
			return nil, fmt.Errorf("row %d: got %d columns, want %d", i+2, len(row), len(Header))
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (StepRecord, error) {
	var rec StepRecord
	floats := []struct {
		dst *float64
		idx int
	}{
		{&rec.T, 0}, {&rec.X, 1}, {&rec.Y, 2}, {&rec.Theta, 3},
		{&rec.NearestDist, 4}, {&rec.V, 7}, {&rec.Omega, 8},
		{&rec.NearestX, 9}, {&rec.NearestY, 10},
	}
	for _, f := range floats {
		v, err := strconv.ParseFloat(row[f.idx], 64)
		if err != nil {
			return rec, fmt.Errorf("column %s: %w", Header[f.idx], err)
		}
		*f.dst = v
	}
	rec.State = policy.State(row[5])
	rec.Reason = policy.Reason(row[6])
	return rec, nil
}
