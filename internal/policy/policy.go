// Package policy implements the obstacle-avoidance reflex: a two-state
// machine with a hysteresis band mapping nearest-obstacle distance to a
// velocity command.
//
// The hysteresis (StopDistance < GoDistance) is the load-bearing idea:
// once the robot starts turning it keeps turning until the distance
// strictly exceeds GoDistance, which prevents chatter at a single
// threshold boundary.
package policy

import (
	"fmt"

	"github.com/fieldmark-robotics/avoid.sim/internal/perception"
	"github.com/fieldmark-robotics/avoid.sim/internal/robot"
)

// State is the reflex controller's decision state.
type State string

const (
	StateForward State = "FORWARD" // driving straight at ForwardSpeed
	StateTurn    State = "TURN"    // rotating in place away from the obstacle
)

// Reason labels why a decision was taken; recorded in telemetry.
type Reason string

const (
	ReasonClear    Reason = "clear"     // forward, nothing within StopDistance
	ReasonTooClose Reason = "too_close" // forward -> turn transition
	ReasonTurning  Reason = "turning"   // still inside the hysteresis band
	ReasonCleared  Reason = "cleared"   // turn -> forward transition
)

// Thresholds bundles the reflex tuning for one run.
// StopDistance < GoDistance must hold (validated at config load).
type Thresholds struct {
	StopDistance float64 // start turning when nearer than this (m)
	GoDistance   float64 // resume forward only when farther than this (m)
	ForwardSpeed float64 // linear speed while driving (m/s)
	TurnRate     float64 // angular rate magnitude while turning (rad/s)
}

// Decide advances the state machine by one step given the current state,
// the nearest-obstacle distance, and the signed turn rate for this step.
// It is purely a function of its inputs; the only memory across steps is
// the state label itself.
//
// Panics on an unrecognized state: that is caller misuse, not a runtime
// condition.
func (th Thresholds) Decide(s State, dmin, turnRate float64) (State, robot.Command, Reason) {
	switch s {
	case StateForward:
		if dmin < th.StopDistance {
			return StateTurn, robot.Command{Omega: turnRate}, ReasonTooClose
		}
		return StateForward, robot.Command{V: th.ForwardSpeed}, ReasonClear
	case StateTurn:
		if dmin > th.GoDistance {
			return StateForward, robot.Command{V: th.ForwardSpeed}, ReasonCleared
		}
		return StateTurn, robot.Command{Omega: turnRate}, ReasonTurning
	default:
		panic(fmt.Sprintf("policy: unknown state %q", s))
	}
}

// TurnDirection returns the signed turn rate steering away from the
// obstacle: obstacle on the left (positive relative bearing) turns
// right (negative rate), and vice versa. Bang-bang with fixed
// magnitude, re-evaluated every step.
func (th Thresholds) TurnDirection(p robot.Pose, o perception.Obstacle) float64 {
	if perception.Bearing(p, o) > 0 {
		return -th.TurnRate
	}
	return th.TurnRate
}
