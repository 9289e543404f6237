// Package safety evaluates parameter snapshots against configured limits.
package safety

import (
	"fmt"
	"math"
	"strconv"

	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/params"
)

// Report is the result of one evaluation. It is derived purely from its
// inputs and never cached.
type Report struct {
	Safe       bool                `json:"safe"`
	Violations []string            `json:"violations"`
	Limits     config.SafetyLimits `json:"limits"`
}

// limit binds a parameter to one upper bound of config.SafetyLimits.
type limit struct {
	label     string
	parameter string
	unit      string
	bound     func(config.SafetyLimits) float64
}

// limits is evaluated in declaration order so reports are deterministic.
var limits = []limit{
	{"temperature", params.Temperature, "°C", func(l config.SafetyLimits) float64 { return l.MaxTemperature }},
	{"current", params.Current, "A", func(l config.SafetyLimits) float64 { return l.MaxCurrent }},
	{"voltage", params.Voltage, "V", func(l config.SafetyLimits) float64 { return l.MaxVoltage }},
}

// Evaluate checks every limit-bearing parameter present in snap. A value
// strictly greater than its bound is a violation. A NaN or infinite
// reading or bound cannot be compared and is reported as a violation too.
func Evaluate(snap params.Snapshot, l config.SafetyLimits) Report {
	violations := []string{}
	for _, lim := range limits {
		v, ok := snap[lim.parameter]
		if !ok {
			continue
		}
		b := lim.bound(l)
		switch {
		case !finite(b):
			violations = append(violations, fmt.Sprintf("Invalid %s limit: %s%s",
				lim.label, format(b), lim.unit))
		case !finite(v):
			violations = append(violations, fmt.Sprintf("Invalid %s reading: %s%s",
				lim.label, format(v), lim.unit))
		case v > b:
			violations = append(violations, fmt.Sprintf("High %s: %s%s exceeds limit %s%s",
				lim.label, format(v), lim.unit, format(b), lim.unit))
		}
	}
	return Report{
		Safe:       len(violations) == 0,
		Violations: violations,
		Limits:     l,
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
