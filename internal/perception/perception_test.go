package perception

import (
	"math"
	"testing"

	"github.com/fieldmark-robotics/avoid.sim/internal/robot"
)

func TestNearestPicksClosest(t *testing.T) {
	scene := NewScene([]Obstacle{{X: 1.0, Y: 0.0}, {X: 1.2, Y: 0.35}})

	o, d := scene.Nearest(robot.Pose{})
	if o.X != 1.0 || o.Y != 0.0 {
		t.Errorf("nearest = %+v, want (1.0, 0.0)", o)
	}
	if math.Abs(d-1.0) > 1e-12 {
		t.Errorf("distance = %v, want 1.0", d)
	}

	// Move past the first obstacle; the second becomes nearest.
	o, _ = scene.Nearest(robot.Pose{X: 1.3, Y: 0.4})
	if o.X != 1.2 || o.Y != 0.35 {
		t.Errorf("nearest = %+v, want (1.2, 0.35)", o)
	}
}

func TestNearestTieBreaksOnSceneOrder(t *testing.T) {
	// Two obstacles equidistant from the origin; the first wins.
	scene := NewScene([]Obstacle{{X: 0, Y: 1}, {X: 1, Y: 0}})
	o, _ := scene.Nearest(robot.Pose{})
	if o.X != 0 || o.Y != 1 {
		t.Errorf("tie-break returned %+v, want first element (0, 1)", o)
	}
}

func TestNewSceneEmptyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty obstacle set")
		}
	}()
	NewScene(nil)
}

func TestNewSceneCopiesInput(t *testing.T) {
	src := []Obstacle{{X: 1, Y: 2}}
	scene := NewScene(src)
	src[0].X = 99

	o, _ := scene.Nearest(robot.Pose{})
	if o.X != 1 {
		t.Errorf("scene aliased caller slice: nearest = %+v", o)
	}
}

func TestBearing(t *testing.T) {
	cases := []struct {
		name string
		pose robot.Pose
		obs  Obstacle
		want float64
	}{
		{"dead ahead", robot.Pose{}, Obstacle{X: 1, Y: 0}, 0},
		{"hard left", robot.Pose{}, Obstacle{X: 0, Y: 1}, math.Pi / 2},
		{"hard right", robot.Pose{}, Obstacle{X: 0, Y: -1}, -math.Pi / 2},
		{"behind", robot.Pose{}, Obstacle{X: -1, Y: 0}, math.Pi},
		{"heading offsets bearing", robot.Pose{Theta: math.Pi / 2}, Obstacle{X: 0, Y: 1}, 0},
		{"unwrapped heading still wraps", robot.Pose{Theta: 2 * math.Pi}, Obstacle{X: 1, Y: 0}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Bearing(tc.pose, tc.obs)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("Bearing = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestRangeSensorNoiseBounded(t *testing.T) {
	scene := NewScene([]Obstacle{{X: 1.0, Y: 0.0}})
	const amplitude = 0.05
	sensor := NewRangeSensor(scene, amplitude, 42)

	for i := 0; i < 1000; i++ {
		o, d := sensor.Read(robot.Pose{})
		if o.X != 1.0 || o.Y != 0.0 {
			t.Fatalf("noise must not perturb obstacle position, got %+v", o)
		}
		if math.Abs(d-1.0) > amplitude+1e-12 {
			t.Fatalf("reading %v outside 1.0 ± %v", d, amplitude)
		}
	}
}

func TestRangeSensorZeroAmplitudeIsExact(t *testing.T) {
	scene := NewScene([]Obstacle{{X: 3, Y: 4}})
	sensor := NewRangeSensor(scene, 0, 1)

	_, d := sensor.Read(robot.Pose{})
	if d != 5 {
		t.Errorf("distance = %v, want exactly 5", d)
	}
}

func TestRangeSensorClampsAtZero(t *testing.T) {
	scene := NewScene([]Obstacle{{X: 0.001, Y: 0}})
	sensor := NewRangeSensor(scene, 0.5, 7)

	for i := 0; i < 200; i++ {
		if _, d := sensor.Read(robot.Pose{}); d < 0 {
			t.Fatalf("negative range %v", d)
		}
	}
}
