package robot

import (
	"math"
	"testing"
)

func TestStepStraightLineIsExact(t *testing.T) {
	// With omega = 0 forward Euler is exact: displacement over n steps
	// of dt must equal v*n*dt regardless of heading.
	const (
		v     = 0.25
		dt    = 0.05
		steps = 400
	)

	for _, theta := range []float64{0, math.Pi / 6, -math.Pi / 2, 2.8} {
		p := Pose{Theta: theta}
		start := p
		for i := 0; i < steps; i++ {
			p = Step(p, Command{V: v}, dt)
		}

		got := math.Hypot(p.X-start.X, p.Y-start.Y)
		want := v * steps * dt
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("theta=%v: displacement = %v, want %v", theta, got, want)
		}
		if p.Theta != theta {
			t.Errorf("theta=%v: heading changed to %v with zero omega", theta, p.Theta)
		}
	}
}

func TestStepPureRotationHoldsPosition(t *testing.T) {
	p := Pose{X: 1, Y: -2, Theta: 0.3}
	next := Step(p, Command{Omega: 1.8}, 0.05)

	if next.X != p.X || next.Y != p.Y {
		t.Errorf("position moved under zero linear speed: %+v -> %+v", p, next)
	}
	if got, want := next.Theta, 0.3+1.8*0.05; math.Abs(got-want) > 1e-12 {
		t.Errorf("theta = %v, want %v", got, want)
	}
}

func TestStepHeadingUnbounded(t *testing.T) {
	// The integrator does not wrap theta; a long spin accumulates past pi.
	p := Pose{}
	for i := 0; i < 200; i++ {
		p = Step(p, Command{Omega: 1.8}, 0.05)
	}
	if p.Theta <= math.Pi {
		t.Errorf("theta = %v, expected unwrapped growth beyond pi", p.Theta)
	}
}

func TestStepDoesNotMutateInput(t *testing.T) {
	p := Pose{X: 0.5, Y: 0.5, Theta: 1}
	_ = Step(p, Command{V: 1, Omega: 1}, 0.1)
	if p.X != 0.5 || p.Y != 0.5 || p.Theta != 1 {
		t.Errorf("input pose mutated: %+v", p)
	}
}
