package components

import "github.com/pthm-cable/selfdrive/config"

// Body is the car's rectangle, centered on its pose.
type Body struct {
	Width  float64
	Height float64
}

// Motion holds the longitudinal and steering constants of a car.
type Motion struct {
	Acceleration float64
	MaxSpeed     float64 // reverse is capped at half of this
	Friction     float64
	SteeringStep float64 // radians per tick
}

// BodyFromConfig returns the configured car body.
func BodyFromConfig(cfg config.CarConfig) Body {
	return Body{Width: cfg.Width, Height: cfg.Height}
}

// MotionFromConfig returns the configured motion model with the given top speed.
func MotionFromConfig(cfg config.CarConfig, maxSpeed float64) Motion {
	return Motion{
		Acceleration: cfg.Acceleration,
		MaxSpeed:     maxSpeed,
		Friction:     cfg.Friction,
		SteeringStep: cfg.SteeringStep,
	}
}
