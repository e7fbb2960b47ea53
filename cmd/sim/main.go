// Command sim runs the obstacle-avoidance simulator: it drives the
// reflex loop over the configured scene, logs telemetry to CSV (and
// optionally sqlite), serves a live web monitor, and renders summary
// charts when the run ends, including after an interrupt.
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
	"time"

	"github.com/fieldmark-robotics/avoid.sim/internal/config"
	"github.com/fieldmark-robotics/avoid.sim/internal/monitor"
	"github.com/fieldmark-robotics/avoid.sim/internal/perception"
	"github.com/fieldmark-robotics/avoid.sim/internal/plots"
	"github.com/fieldmark-robotics/avoid.sim/internal/policy"
	"github.com/fieldmark-robotics/avoid.sim/internal/runner"
	"github.com/fieldmark-robotics/avoid.sim/internal/telemetry"
	"github.com/fieldmark-robotics/avoid.sim/internal/version"
)

var (
	configPath    = flag.String("config", config.DefaultConfigPath, "Path to tuning JSON")
	outDir        = flag.String("out", "out", "Output directory for telemetry and charts")
	dbPath        = flag.String("db", "", "sqlite telemetry database (empty disables)")
	migrationsDir = flag.String("migrations", "migrations", "Migrations directory for the sqlite sink")
	listen        = flag.String("listen", "", "Live monitor listen address, e.g. :8080 (empty disables)")
	steps         = flag.Int("steps", 0, "Override max steps (0 = from config)")
	noPace        = flag.Bool("no-pace", false, "Run as fast as possible instead of pacing to wall clock")
)

func main() {
	flag.Parse()

	log.Printf("sim %s (%s, built %s)", version.Version, version.GitSHA, version.BuildTime)

	cfg, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		log.Fatalf("load config %q: %v", *configPath, err)
	}

	obstacles := make([]perception.Obstacle, 0, len(cfg.GetObstacles()))
	for _, o := range cfg.GetObstacles() {
		obstacles = append(obstacles, perception.Obstacle{X: o.X, Y: o.Y})
	}
	scene := perception.NewScene(obstacles)
	sensor := perception.NewRangeSensor(scene, cfg.GetNoiseAmplitude(), cfg.GetNoiseSeed())

	thresholds := policy.Thresholds{
		StopDistance: cfg.GetStopDistance(),
		GoDistance:   cfg.GetGoDistance(),
		ForwardSpeed: cfg.GetForwardSpeed(),
		TurnRate:     cfg.GetTurnRate(),
	}

	maxSteps := cfg.GetMaxSteps()
	if *steps > 0 {
		maxSteps = *steps
	}
	pace := cfg.GetPaceWallClock() && !*noPace

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

	recorders := []telemetry.Recorder{csvWriter}

	var store *telemetry.Store
	var buffered *telemetry.BufferedRecorder
	var runID string
	if *dbPath != "" {
		store, err = telemetry.NewStore(*dbPath)
		if err != nil {
			log.Fatalf("open telemetry db: %v", err)
		}
		defer store.Close()
		if err := store.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("migrate telemetry db: %v", err)
		}
		runID, err = store.BeginRun(telemetry.RunParams{
			Dt:             cfg.GetDt(),
			ForwardSpeed:   thresholds.ForwardSpeed,
			TurnRate:       thresholds.TurnRate,
			StopDistance:   thresholds.StopDistance,
			GoDistance:     thresholds.GoDistance,
			NoiseAmplitude: cfg.GetNoiseAmplitude(),
		})
		if err != nil {
			log.Fatalf("begin run: %v", err)
		}
		log.Printf("recording run %s to %s", runID, *dbPath)
		buffered = telemetry.NewBufferedRecorder(store, runID, 0)
		recorders = append(recorders, buffered)
	}

	var web *monitor.WebServer
	if *listen != "" {
		web = monitor.NewWebServer(scene, cfg.GetRobotRadius(), cfg.GetObstacleRadius())
		web.Start(*listen)
		recorders = append(recorders, web)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := runner.New(runner.Config{
		Dt:         cfg.GetDt(),
		MaxSteps:   maxSteps,
		Pace:       pace,
		Thresholds: thresholds,
	}, sensor, recorders...)

	log.Printf("starting run: dt=%.3fs steps=%d stop=%.2fm go=%.2fm", cfg.GetDt(), maxSteps, thresholds.StopDistance, thresholds.GoDistance)
	completed, runErr := r.Run(ctx)
	interrupted := errors.Is(runErr, context.Canceled)
	switch {
	case runErr == nil:
		log.Printf("run complete: %d steps", completed)
	case interrupted:
		log.Printf("interrupted after %d steps; generating charts from logged telemetry", completed)
	default:
		log.Fatalf("run failed after %d steps: %v", completed, runErr)
	}

	if buffered != nil {
		if err := buffered.Flush(); err != nil {
			log.Printf("flush telemetry db: %v", err)
		}
		if err := store.FinishRun(runID, completed, interrupted); err != nil {
			log.Printf("finish run: %v", err)
		}
	}
	if web != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := web.Shutdown(shutdownCtx); err != nil {
			log.Printf("monitor shutdown: %v", err)
		}
	}

	records, err := telemetry.ReadRecords(csvPath)
	if err != nil {
		if errors.Is(err, telemetry.ErrNoTelemetry) {
			log.Printf("no data to plot (%v)", err)
			return
		}
		log.Fatalf("read telemetry: %v", err)
	}

	summary := plots.Summarise(records)
	log.Printf("summary: %d steps over %.1fs, min dmin=%.3fm, mean dmin=%.3f±%.3fm, mean v=%.3fm/s",
		summary.Steps, summary.Duration, summary.MinDistance, summary.MeanDistance, summary.StdDistance, summary.MeanSpeed)

	if err := plots.RenderSummary(records, *outDir, plots.Options{
		StopDistance: thresholds.StopDistance,
		GoDistance:   thresholds.GoDistance,
		Obstacles:    scene.Obstacles(),
	}); err != nil {
		log.Fatalf("render charts: %v", err)
	}
	log.Printf("saved telemetry: %s", csvPath)
	log.Printf("saved charts: %s, %s, %s",
		filepath.Join(*outDir, plots.DistanceChartFile),
		filepath.Join(*outDir, plots.ControlsChartFile),
		filepath.Join(*outDir, plots.TrajectoryFile))
}
