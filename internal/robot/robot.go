// Package robot models the simulated vehicle: its pose in the plane and
// the forward Euler integration of the unicycle kinematic model.
//
// All distances are in metres, angles in radians, and time in seconds.
package robot

import "math"

// Pose is the robot's position and heading in the world frame.
// Theta is measured from +x and is not normalised; callers that reason
// about relative bearings must wrap it explicitly.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

// Command is a velocity command for a single timestep: linear speed V
// (m/s) and angular rate Omega (rad/s).
type Command struct {
	V     float64
	Omega float64
}

// Step advances a pose by one timestep of the unicycle model using
// forward Euler integration. It is a pure function; the caller owns the
// assignment back into its state.
func Step(p Pose, c Command, dt float64) Pose {
	return Pose{
		X:     p.X + c.V*math.Cos(p.Theta)*dt,
		Y:     p.Y + c.V*math.Sin(p.Theta)*dt,
		Theta: p.Theta + c.Omega*dt,
	}
}
