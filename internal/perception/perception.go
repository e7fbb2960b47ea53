// Package perception computes nearest-obstacle observations for the
// simulated robot. The "sensor" is synthetic: a Euclidean range to a
// fixed set of point obstacles, optionally perturbed with bounded
// uniform noise to emulate measurement error.
package perception

import (
	"math"
	"math/rand"

	"github.com/fieldmark-robotics/avoid.sim/internal/robot"
	"github.com/fieldmark-robotics/avoid.sim/internal/units"
)

// Obstacle is an immutable point obstacle in the world frame.
type Obstacle struct {
	X float64
	Y float64
}

// Scene is a fixed, read-only obstacle set for the lifetime of a run.
// A Scene must contain at least one obstacle; perception over an empty
// scene is a caller error.
type Scene struct {
	obstacles []Obstacle
}

// NewScene copies the given obstacles into an immutable scene.
// Panics on an empty set: the decision policy is undefined without a
// nearest obstacle, and no run can recover from it.
func NewScene(obstacles []Obstacle) *Scene {
	if len(obstacles) == 0 {
		panic("perception: scene requires at least one obstacle")
	}
	copied := make([]Obstacle, len(obstacles))
	copy(copied, obstacles)
	return &Scene{obstacles: copied}
}

// Obstacles returns a copy of the obstacle set, for rendering.
func (s *Scene) Obstacles() []Obstacle {
	out := make([]Obstacle, len(s.obstacles))
	copy(out, s.obstacles)
	return out
}

// Nearest returns the obstacle closest to the pose and its Euclidean
// distance. Ties break on the first minimal element in scene order.
func (s *Scene) Nearest(p robot.Pose) (Obstacle, float64) {
	best := s.obstacles[0]
	bestDist := distanceTo(p, best)
	for _, o := range s.obstacles[1:] {
		if d := distanceTo(p, o); d < bestDist {
			best = o
			bestDist = d
		}
	}
	return best, bestDist
}

// Bearing returns the relative bearing from the pose's heading to the
// obstacle, wrapped to (-pi, pi]. Positive means the obstacle is on the
// robot's left.
func Bearing(p robot.Pose, o Obstacle) float64 {
	world := math.Atan2(o.Y-p.Y, o.X-p.X)
	return units.WrapPi(world - p.Theta)
}

func distanceTo(p robot.Pose, o Obstacle) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// RangeSensor reads nearest-obstacle ranges from a scene, optionally
// adding uniform noise in [-Amplitude, +Amplitude] to the reported
// distance. The returned obstacle position is never perturbed; noise
// applies to the range scalar only.
type RangeSensor struct {
	scene     *Scene
	amplitude float64
	rng       *rand.Rand
}

// NewRangeSensor creates a sensor over the scene. amplitude <= 0
// disables noise. seed fixes the noise sequence for reproducible runs.
func NewRangeSensor(scene *Scene, amplitude float64, seed int64) *RangeSensor {
	return &RangeSensor{
		scene:     scene,
		amplitude: amplitude,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Read returns the nearest obstacle and the (possibly noisy) distance
// to it. A noisy reading is clamped at zero; range cannot be negative.
func (rs *RangeSensor) Read(p robot.Pose) (Obstacle, float64) {
	o, d := rs.scene.Nearest(p)
	if rs.amplitude > 0 {
		d += (2*rs.rng.Float64() - 1) * rs.amplitude
		if d < 0 {
			d = 0
		}
	}
	return o, d
}
