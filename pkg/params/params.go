// Package params holds the named device parameters of a session.
package params

import (
	"maps"
	"slices"
)

// Parameter names.
const (
	Inductance  = "L_mH"
	Capacitance = "C_uF"
	ESR         = "ESR_mOhm"
	DutyCycle   = "duty_cycle"
	Efficiency  = "efficiency"
	Temperature = "temperature"
	Current     = "current_A"
	Voltage     = "voltage_V"
)

// names lists every parameter in display order.
var names = []string{Inductance, Capacitance, ESR, DutyCycle, Efficiency, Temperature, Current, Voltage}

// Names returns all parameter names in display order.
func Names() []string {
	return slices.Clone(names)
}

// Known reports whether name is a parameter.
func Known(name string) bool {
	return slices.Contains(names, name)
}

// Snapshot is a complete set of parameter values at one instant.
type Snapshot map[string]float64

// Defaults returns the values every store is seeded with.
func Defaults() Snapshot {
	return Snapshot{
		Inductance:  0,
		Capacitance: 0,
		ESR:         0,
		DutyCycle:   0.5,
		Efficiency:  0,
		Temperature: 25,
		Current:     0,
		Voltage:     0,
	}
}

// Clone returns an independent copy.
func (s Snapshot) Clone() Snapshot {
	return maps.Clone(s)
}

// Equal reports whether both snapshots hold the same values.
func (s Snapshot) Equal(o Snapshot) bool {
	return maps.Equal(s, o)
}

// Missing returns the parameter names absent from s, in display order.
func (s Snapshot) Missing() []string {
	var missing []string
	for _, n := range names {
		if _, ok := s[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}
