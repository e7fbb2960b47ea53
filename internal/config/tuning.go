// Package config loads and validates simulator tuning parameters.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Obstacle is a world-frame point in the tuning JSON.
type Obstacle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TuningConfig represents the root configuration for a simulation run.
// All fields are optional pointers; the Get* methods supply fallback
// defaults so partial configs are safe.
type TuningConfig struct {
	// Timing
	Dt            *float64 `json:"dt,omitempty"`              // sim timestep (s)
	MaxSteps      *int     `json:"max_steps,omitempty"`       // safety cap
	PaceWallClock *bool    `json:"pace_wall_clock,omitempty"` // sleep to match wall time

	// Reflex thresholds
	ForwardSpeed *float64 `json:"forward_speed,omitempty"` // m/s
	TurnRate     *float64 `json:"turn_rate,omitempty"`     // rad/s
	StopDistance *float64 `json:"stop_distance,omitempty"` // m
	GoDistance   *float64 `json:"go_distance,omitempty"`   // m

	// Sensor
	NoiseAmplitude *float64 `json:"noise_amplitude,omitempty"` // m; 0 disables
	NoiseSeed      *int64   `json:"noise_seed,omitempty"`

	// Scene
	Obstacles []Obstacle `json:"obstacles,omitempty"`

	// Rendering only
	RobotRadius    *float64 `json:"robot_radius,omitempty"`    // m
	ObstacleRadius *float64 `json:"obstacle_radius,omitempty"` // m
}

// EmptyTuningConfig returns a TuningConfig with all fields unset.
// Use LoadTuningConfig to load actual values from a file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields
// omitted from the JSON retain their defaults via the Get* methods.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching upward from the current directory.
// Panics if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/<pkg>/
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are consistent.
func (c *TuningConfig) Validate() error {
	if c.Dt != nil && *c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", *c.Dt)
	}
	if c.MaxSteps != nil && *c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", *c.MaxSteps)
	}
	if c.ForwardSpeed != nil && *c.ForwardSpeed < 0 {
		return fmt.Errorf("forward_speed must be non-negative, got %f", *c.ForwardSpeed)
	}
	if c.TurnRate != nil && *c.TurnRate <= 0 {
		return fmt.Errorf("turn_rate must be positive, got %f", *c.TurnRate)
	}
	if c.NoiseAmplitude != nil && *c.NoiseAmplitude < 0 {
		return fmt.Errorf("noise_amplitude must be non-negative, got %f", *c.NoiseAmplitude)
	}

	// The hysteresis band must be a real band. Checking the effective
	// values catches a config that overrides only one threshold.
	if stop, goDist := c.GetStopDistance(), c.GetGoDistance(); stop >= goDist {
		return fmt.Errorf("stop_distance (%f) must be less than go_distance (%f)", stop, goDist)
	}

	return nil
}

// Defaults match the reference scenario.
const (
	defaultDt             = 0.05
	defaultMaxSteps       = 10000
	defaultForwardSpeed   = 0.25
	defaultTurnRate       = 1.8
	defaultStopDistance   = 0.30
	defaultGoDistance     = 0.55
	defaultRobotRadius    = 0.06
	defaultObstacleRadius = 0.07
)

// GetDt returns the simulation timestep in seconds.
func (c *TuningConfig) GetDt() float64 {
	if c.Dt == nil {
		return defaultDt
	}
	return *c.Dt
}

// GetMaxSteps returns the safety cap on simulation steps.
func (c *TuningConfig) GetMaxSteps() int {
	if c.MaxSteps == nil {
		return defaultMaxSteps
	}
	return *c.MaxSteps
}

// GetPaceWallClock reports whether the run loop sleeps to keep
// simulated time loosely tied to wall-clock time.
func (c *TuningConfig) GetPaceWallClock() bool {
	if c.PaceWallClock == nil {
		return true
	}
	return *c.PaceWallClock
}

// GetForwardSpeed returns the commanded linear speed in m/s.
func (c *TuningConfig) GetForwardSpeed() float64 {
	if c.ForwardSpeed == nil {
		return defaultForwardSpeed
	}
	return *c.ForwardSpeed
}

// GetTurnRate returns the turn rate magnitude in rad/s.
func (c *TuningConfig) GetTurnRate() float64 {
	if c.TurnRate == nil {
		return defaultTurnRate
	}
	return *c.TurnRate
}

// GetStopDistance returns the distance below which the robot starts
// turning, in metres.
func (c *TuningConfig) GetStopDistance() float64 {
	if c.StopDistance == nil {
		return defaultStopDistance
	}
	return *c.StopDistance
}

// GetGoDistance returns the distance the robot must clear before
// resuming forward motion, in metres.
func (c *TuningConfig) GetGoDistance() float64 {
	if c.GoDistance == nil {
		return defaultGoDistance
	}
	return *c.GoDistance
}

// GetNoiseAmplitude returns the sensor noise bound in metres (0 = off).
func (c *TuningConfig) GetNoiseAmplitude() float64 {
	if c.NoiseAmplitude == nil {
		return 0
	}
	return *c.NoiseAmplitude
}

// GetNoiseSeed returns the RNG seed for sensor noise.
func (c *TuningConfig) GetNoiseSeed() int64 {
	if c.NoiseSeed == nil {
		return 1
	}
	return *c.NoiseSeed
}

// GetObstacles returns the scene's obstacle list, falling back to the
// reference two-obstacle scenario.
func (c *TuningConfig) GetObstacles() []Obstacle {
	if len(c.Obstacles) == 0 {
		return []Obstacle{{X: 1.0, Y: 0.0}, {X: 1.2, Y: 0.35}}
	}
	return c.Obstacles
}

// GetRobotRadius returns the robot's drawn radius in metres.
func (c *TuningConfig) GetRobotRadius() float64 {
	if c.RobotRadius == nil {
		return defaultRobotRadius
	}
	return *c.RobotRadius
}

// GetObstacleRadius returns the obstacles' drawn radius in metres.
func (c *TuningConfig) GetObstacleRadius() float64 {
	if c.ObstacleRadius == nil {
		return defaultObstacleRadius
	}
	return *c.ObstacleRadius
}
