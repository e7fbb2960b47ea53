// Command quicksim is the quick prototype loop: a single scene, a noisy
// synthetic range reading, CSV telemetry, and summary charts at the
// end. No database, no live monitor. A fast way to eyeball the reflex
// behaviour under sensor noise.
//
// Noise applies to the reported distance only; the obstacle position
// used for bearing selection stays exact.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fieldmark-robotics/avoid.sim/internal/perception"
	"github.com/fieldmark-robotics/avoid.sim/internal/plots"
	"github.com/fieldmark-robotics/avoid.sim/internal/policy"
	"github.com/fieldmark-robotics/avoid.sim/internal/runner"
	"github.com/fieldmark-robotics/avoid.sim/internal/telemetry"
)

var (
	outDir = flag.String("out", "out", "Output directory for telemetry and charts")
	steps  = flag.Int("steps", 10000, "Step cap")
	noise  = flag.Float64("noise", 0.03, "Sensor noise amplitude (m)")
	seed   = flag.Int64("seed", 1, "Noise RNG seed")
)

func main() {
	flag.Parse()

	scene := perception.NewScene([]perception.Obstacle{{X: 1.0, Y: 0.0}, {X: 1.2, Y: 0.35}})
	sensor := perception.NewRangeSensor(scene, *noise, *seed)
	thresholds := policy.Thresholds{
		StopDistance: 0.30,
		GoDistance:   0.55,
		ForwardSpeed: 0.25,
		TurnRate:     1.8,
	}

	if err := os.MkdirAll(*outDir, 0755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}
	csvPath := filepath.Join(*outDir, "telemetry.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		log.Fatalf("create %s: %v", csvPath, err)
	}
	defer csvFile.Close()
	csvWriter, err := telemetry.NewCSVWriter(csvFile)
	if err != nil {
		log.Fatalf("telemetry csv: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := runner.New(runner.Config{
		Dt:         0.05,
		MaxSteps:   *steps,
		Thresholds: thresholds,
	}, sensor, csvWriter)

	completed, runErr := r.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Fatalf("run failed after %d steps: %v", completed, runErr)
	}
	log.Printf("ran %d steps", completed)

	records, err := telemetry.ReadRecords(csvPath)
	if err != nil {
		if errors.Is(err, telemetry.ErrNoTelemetry) {
			log.Printf("no data to plot (%v)", err)
			return
		}
		log.Fatalf("read telemetry: %v", err)
	}
	if err := plots.RenderSummary(records, *outDir, plots.Options{
		StopDistance: thresholds.StopDistance,
		GoDistance:   thresholds.GoDistance,
		Obstacles:    scene.Obstacles(),
	}); err != nil {
		log.Fatalf("render charts: %v", err)
	}
	log.Printf("saved telemetry and charts under %s", *outDir)
}
