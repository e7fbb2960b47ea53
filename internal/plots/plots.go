// Package plots renders post-run summary charts from logged telemetry.
package plots

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/fieldmark-robotics/avoid.sim/internal/perception"
	"github.com/fieldmark-robotics/avoid.sim/internal/telemetry"
)

// Chart output filenames, written under the output directory.
const (
	DistanceChartFile = "distance_vs_time.png"
	ControlsChartFile = "controls_vs_time.png"
	TrajectoryFile    = "trajectory.png"
)

var (
	distanceColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	velocityColor = color.RGBA{R: 44, G: 160, B: 44, A: 255}
	omegaColor    = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	ruleColor     = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	obstacleColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// Options control chart annotations.
type Options struct {
	StopDistance float64 // drawn as a rule on the distance chart
	GoDistance   float64 // drawn as a rule on the distance chart
	Obstacles    []perception.Obstacle
}

// RenderSummary writes the distance-vs-time, controls-vs-time, and
// trajectory charts for a run into outDir. The records come from the
// telemetry CSV so an interrupted run still gets charts for whatever
// was logged.
func RenderSummary(records []telemetry.StepRecord, outDir string, opts Options) error {
	if len(records) == 0 {
		return telemetry.ErrNoTelemetry
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}

	if err := renderDistanceChart(records, filepath.Join(outDir, DistanceChartFile), opts); err != nil {
		return fmt.Errorf("distance chart: %w", err)
	}
	if err := renderControlsChart(records, filepath.Join(outDir, ControlsChartFile)); err != nil {
		return fmt.Errorf("controls chart: %w", err)
	}
	if err := renderTrajectory(records, filepath.Join(outDir, TrajectoryFile), opts); err != nil {
		return fmt.Errorf("trajectory chart: %w", err)
	}
	return nil
}

func renderDistanceChart(records []telemetry.StepRecord, path string, opts Options) error {
	p := plot.New()
	p.Title.Text = "Nearest obstacle distance vs time"
	p.X.Label.Text = "t (s)"
	p.Y.Label.Text = "dmin (m)"

	pts := make(plotter.XYs, len(records))
	for i, r := range records {
		pts[i] = plotter.XY{X: r.T, Y: r.NearestDist}
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Color = distanceColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("dmin", line)

	// Threshold rules make the hysteresis band visible.
	tMin, tMax := records[0].T, records[len(records)-1].T
	for _, rule := range []struct {
		label string
		y     float64
	}{
		{"stop", opts.StopDistance},
		{"go", opts.GoDistance},
	} {
		if rule.y <= 0 {
			continue
		}
		ruleLine, err := plotter.NewLine(plotter.XYs{{X: tMin, Y: rule.y}, {X: tMax, Y: rule.y}})
		if err != nil {
			return err
		}
		ruleLine.Color = ruleColor
		ruleLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
		p.Add(ruleLine)
		p.Legend.Add(rule.label, ruleLine)
	}

	p.Legend.Top = true
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func renderControlsChart(records []telemetry.StepRecord, path string) error {
	p := plot.New()
	p.Title.Text = "Control commands vs time"
	p.X.Label.Text = "t (s)"

	vPts := make(plotter.XYs, len(records))
	wPts := make(plotter.XYs, len(records))
	for i, r := range records {
		vPts[i] = plotter.XY{X: r.T, Y: r.V}
		wPts[i] = plotter.XY{X: r.T, Y: r.Omega}
	}

	vLine, err := plotter.NewLine(vPts)
	if err != nil {
		return err
	}
	vLine.Color = velocityColor
	vLine.Width = vg.Points(1)
	p.Add(vLine)
	p.Legend.Add("v (m/s)", vLine)

	wLine, err := plotter.NewLine(wPts)
	if err != nil {
		return err
	}
	wLine.Color = omegaColor
	wLine.Width = vg.Points(1)
	p.Add(wLine)
	p.Legend.Add("omega (rad/s)", wLine)

	p.Legend.Top = true
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func renderTrajectory(records []telemetry.StepRecord, path string, opts Options) error {
	p := plot.New()
	p.Title.Text = "Trajectory"
	p.X.Label.Text = "x (m)"
	p.Y.Label.Text = "y (m)"

	trail := make(plotter.XYs, len(records))
	for i, r := range records {
		trail[i] = plotter.XY{X: r.X, Y: r.Y}
	}
	trailLine, err := plotter.NewLine(trail)
	if err != nil {
		return err
	}
	trailLine.Color = distanceColor
	trailLine.Width = vg.Points(1)
	p.Add(trailLine)
	p.Legend.Add("trail", trailLine)

	if len(opts.Obstacles) > 0 {
		obsPts := make(plotter.XYs, len(opts.Obstacles))
		for i, o := range opts.Obstacles {
			obsPts[i] = plotter.XY{X: o.X, Y: o.Y}
		}
		scatter, err := plotter.NewScatter(obsPts)
		if err != nil {
			return err
		}
		scatter.Color = obstacleColor
		scatter.Radius = vg.Points(4)
		p.Add(scatter)
		p.Legend.Add("obstacles", scatter)
	}

	p.Legend.Top = true
	return p.Save(6*vg.Inch, 6*vg.Inch, path)
}

// Summary aggregates run telemetry for end-of-run logging.
type Summary struct {
	Steps        int
	Duration     float64
	MinDistance  float64
	MeanDistance float64
	StdDistance  float64
	MeanSpeed    float64
}

// Summarise computes aggregate statistics over the recorded steps.
func Summarise(records []telemetry.StepRecord) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	dists := make([]float64, len(records))
	speeds := make([]float64, len(records))
	minDist := records[0].NearestDist
	for i, r := range records {
		dists[i] = r.NearestDist
		speeds[i] = r.V
		if r.NearestDist < minDist {
			minDist = r.NearestDist
		}
	}

	return Summary{
		Steps:        len(records),
		Duration:     records[len(records)-1].T,
		MinDistance:  minDist,
		MeanDistance: stat.Mean(dists, nil),
		StdDistance:  stat.StdDev(dists, nil),
		MeanSpeed:    stat.Mean(speeds, nil),
	}
}
