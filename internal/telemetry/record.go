// Package telemetry records per-step simulation output. Two sinks are
// provided: an append-only CSV log (the canonical flat format) and a
// sqlite store for post-hoc queries. Records are append-only and never
// mutated after creation.
package telemetry

import "github.com/fieldmark-robotics/avoid.sim/internal/policy"

// StepRecord is a snapshot of one simulation step: the sensed input,
// the decision taken, the commanded velocities, and the resulting pose.
type StepRecord struct {
	T           float64       // simulated time (s)
	X           float64       // pose after this step (m)
	Y           float64       // pose after this step (m)
	Theta       float64       // heading after this step (rad, unwrapped)
	NearestDist float64       // sensed nearest-obstacle distance (m)
	State       policy.State  // state after the decision
	Reason      policy.Reason // why the decision was taken
	V           float64       // commanded linear speed (m/s)
	Omega       float64       // commanded angular rate (rad/s)
	NearestX    float64       // nearest obstacle position (m)
	NearestY    float64       // nearest obstacle position (m)
}

// Recorder consumes step records. The run loop hands every record to
// each attached recorder synchronously, in order.
type Recorder interface {
	Record(StepRecord) error
}
