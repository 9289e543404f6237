package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Default values.
const (
	DefaultPWMFrequency     = 20000
	DefaultMinDutyCycle     = 0.05
	DefaultMaxDutyCycle     = 0.95
	DefaultTargetEfficiency = 0.95
	DefaultSamplingRate     = 100 // ms
	DefaultMaxTemperature   = 85
	DefaultMaxCurrent       = 10.0
	DefaultMaxVoltage       = 24.0
	DefaultFailsafeTrip     = 5000 // ms
)

// Validation errors.
var (
	ErrDutyCycleBounds  = errors.New("duty cycle bounds must satisfy 0 <= min < max <= 1")
	ErrSamplingRate     = errors.New("sampling rate must be positive")
	ErrPWMFrequency     = errors.New("pwm frequency must be positive")
	ErrTargetEfficiency = errors.New("target efficiency must be in (0, 1]")
	ErrFailsafeTrip     = errors.New("failsafe trip delay must be positive")
	ErrSafetyLimits     = errors.New("safety limits must be finite")
)

// SafetyLimits are the upper bounds evaluated by the safety policy.
type SafetyLimits struct {
	MaxTemperature float64 `json:"max_temperature" yaml:"max_temperature"`
	MaxCurrent     float64 `json:"max_current" yaml:"max_current"`
	MaxVoltage     float64 `json:"max_voltage" yaml:"max_voltage"`
}

// Failsafe configures the sustained-violation failsafe.
type Failsafe struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// TripAfter is how long, in milliseconds, violations must persist
	// before the failsafe engages.
	TripAfter int `json:"trip_after" yaml:"trip_after"`
}

// Configuration is the controller configuration.
type Configuration struct {
	PWMFrequency     float64      `json:"pwm_frequency" yaml:"pwm_frequency"`
	MaxDutyCycle     float64      `json:"max_duty_cycle" yaml:"max_duty_cycle"`
	MinDutyCycle     float64      `json:"min_duty_cycle" yaml:"min_duty_cycle"`
	TargetEfficiency float64      `json:"target_efficiency" yaml:"target_efficiency"`
	SamplingRate     int          `json:"sampling_rate" yaml:"sampling_rate"`
	SafetyLimits     SafetyLimits `json:"safety_limits" yaml:"safety_limits"`
	Failsafe         Failsafe     `json:"failsafe" yaml:"failsafe"`
}

// Range is a closed interval.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Default returns the default configuration.
func Default() Configuration {
	return Configuration{
		PWMFrequency:     DefaultPWMFrequency,
		MaxDutyCycle:     DefaultMaxDutyCycle,
		MinDutyCycle:     DefaultMinDutyCycle,
		TargetEfficiency: DefaultTargetEfficiency,
		SamplingRate:     DefaultSamplingRate,
		SafetyLimits: SafetyLimits{
			MaxTemperature: DefaultMaxTemperature,
			MaxCurrent:     DefaultMaxCurrent,
			MaxVoltage:     DefaultMaxVoltage,
		},
		Failsafe: Failsafe{
			Enabled:   true,
			TripAfter: DefaultFailsafeTrip,
		},
	}
}

// DutyCycleBounds returns the caller-settable duty cycle range.
func (c Configuration) DutyCycleBounds() Range {
	return Range{Min: c.MinDutyCycle, Max: c.MaxDutyCycle}
}

// SamplingInterval returns the wait between monitoring samples.
func (c Configuration) SamplingInterval() time.Duration {
	return time.Duration(c.SamplingRate) * time.Millisecond
}

// FailsafeDelay returns how long violations must persist before the
// failsafe engages.
func (c Configuration) FailsafeDelay() time.Duration {
	return time.Duration(c.Failsafe.TripAfter) * time.Millisecond
}

// Validate checks the configuration invariants.
func (c Configuration) Validate() error {
	lo, hi := c.MinDutyCycle, c.MaxDutyCycle
	if math.IsNaN(lo) || math.IsNaN(hi) || lo < 0 || hi > 1 || lo >= hi {
		return fmt.Errorf("%w: got min=%g max=%g", ErrDutyCycleBounds, lo, hi)
	}
	if c.SamplingRate <= 0 {
		return fmt.Errorf("%w: got %d", ErrSamplingRate, c.SamplingRate)
	}
	if !(c.PWMFrequency > 0) {
		return fmt.Errorf("%w: got %g", ErrPWMFrequency, c.PWMFrequency)
	}
	if !(c.TargetEfficiency > 0 && c.TargetEfficiency <= 1) {
		return fmt.Errorf("%w: got %g", ErrTargetEfficiency, c.TargetEfficiency)
	}
	for _, lim := range []struct {
		key string
		v   float64
	}{
		{"max_temperature", c.SafetyLimits.MaxTemperature},
		{"max_current", c.SafetyLimits.MaxCurrent},
		{"max_voltage", c.SafetyLimits.MaxVoltage},
	} {
		if math.IsNaN(lim.v) || math.IsInf(lim.v, 0) {
			return fmt.Errorf("%w: %s=%g", ErrSafetyLimits, lim.key, lim.v)
		}
	}
	if c.Failsafe.Enabled && c.Failsafe.TripAfter <= 0 {
		return fmt.Errorf("%w: got %d", ErrFailsafeTrip, c.Failsafe.TripAfter)
	}
	return nil
}
