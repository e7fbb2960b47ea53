// Package runner drives the simulation: sense, decide, integrate,
// record, once per step, up to a safety cap or until cancelled.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldmark-robotics/avoid.sim/internal/perception"
	"github.com/fieldmark-robotics/avoid.sim/internal/policy"
	"github.com/fieldmark-robotics/avoid.sim/internal/robot"
	"github.com/fieldmark-robotics/avoid.sim/internal/telemetry"
	"github.com/fieldmark-robotics/avoid.sim/internal/timeutil"
)

// Config bundles the run-loop parameters.
type Config struct {
	Dt         float64           // sim timestep (s), > 0
	MaxSteps   int               // safety cap; the loop always terminates
	Pace       bool              // sleep to keep sim time loosely tied to wall clock
	Start      robot.Pose        // initial pose
	Thresholds policy.Thresholds // reflex tuning
	Clock      timeutil.Clock    // pacing clock; nil means the real clock
}

// Runner owns all mutable run state: the pose and the decision state
// live here and nowhere else, passed by value through the per-step
// functions.
type Runner struct {
	cfg       Config
	sensor    *perception.RangeSensor
	recorders []telemetry.Recorder

	pose  robot.Pose
	state policy.State
}

// New creates a runner over the given sensor. Recorders receive every
// step record synchronously, in order.
func New(cfg Config, sensor *perception.RangeSensor, recorders ...telemetry.Recorder) *Runner {
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Runner{
		cfg:       cfg,
		sensor:    sensor,
		recorders: recorders,
		pose:      cfg.Start,
		state:     policy.StateForward,
	}
}

// Pose returns the robot's current pose.
func (r *Runner) Pose() robot.Pose { return r.pose }

// State returns the current decision state.
func (r *Runner) State() policy.State { return r.state }

// Run executes steps until the cap is reached or ctx is cancelled.
// It returns the number of steps completed. On cancellation the error
// is ctx.Err(); records already handed to recorders stay recorded, so
// an interrupted run keeps its telemetry.
func (r *Runner) Run(ctx context.Context) (int, error) {
	wallStart := r.cfg.Clock.Now()
	simTime := 0.0

	for step := 0; step < r.cfg.MaxSteps; step++ {
		select {
		case <-ctx.Done():
			return step, ctx.Err()
		default:
		}

		nearest, dmin := r.sensor.Read(r.pose)
		turnRate := r.cfg.Thresholds.TurnDirection(r.pose, nearest)

		state, cmd, reason := r.cfg.Thresholds.Decide(r.state, dmin, turnRate)
		r.state = state
		r.pose = robot.Step(r.pose, cmd, r.cfg.Dt)
		simTime += r.cfg.Dt

		rec := telemetry.StepRecord{
			T:           simTime,
			X:           r.pose.X,
			Y:           r.pose.Y,
			Theta:       r.pose.Theta,
			NearestDist: dmin,
			State:       state,
			Reason:      reason,
			V:           cmd.V,
			Omega:       cmd.Omega,
			NearestX:    nearest.X,
			NearestY:    nearest.Y,
		}
		for _, recorder := range r.recorders {
			if err := recorder.Record(rec); err != nil {
				return step, fmt.Errorf("record step %d: %w", step, err)
			}
		}

		// Cosmetic pacing: prevents the sim from racing ahead of wall
		// clock on fast machines. Not part of the step contract.
		if r.cfg.Pace {
			target := wallStart.Add(time.Duration(simTime * float64(time.Second)))
			if wait := r.cfg.Clock.Until(target); wait > 0 {
				select {
				case <-ctx.Done():
					return step + 1, ctx.Err()
				case <-r.cfg.Clock.After(wait):
				}
			}
		}
	}

	return r.cfg.MaxSteps, nil
}
