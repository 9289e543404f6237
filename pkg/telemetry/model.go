package telemetry

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/params"
)

// Control law constants.
const (
	// ProportionalGain scales the efficiency error into a duty-cycle step.
	ProportionalGain = 0.05

	// MinAdjustment is the smallest duty-cycle change that is applied.
	MinAdjustment = 0.001

	// lossFloor below which the converter is treated as lossless.
	lossFloor = 0.0001
)

// Plant describes the simulated power stage.
type Plant struct {
	InductanceMH  float64
	CapacitanceUF float64
	ESRMilliOhm   float64
	Ambient       float64 // °C
	ThermalGain   float64 // °C per unit of loss
	BusVoltage    float64 // V
	LoadCurrent   float64 // A at full duty
	Noise         float64 // relative measurement noise
}

// DefaultPlant is a small buck stage.
var DefaultPlant = Plant{
	InductanceMH:  1.0,
	CapacitanceUF: 10.0,
	ESRMilliOhm:   5.0,
	Ambient:       25,
	ThermalGain:   400,
	BusVoltage:    12,
	LoadCurrent:   8,
	Noise:         0.01,
}

// CalculateEfficiency estimates converter efficiency from inductance (mH),
// ESR (Ω) and duty cycle. The result is clamped to [0, 1].
func CalculateEfficiency(inductance, esr, duty float64) float64 {
	switching := 0.01 * inductance * duty * duty
	conduction := esr * duty * duty
	total := switching + conduction
	if total < lossFloor {
		return 1
	}
	return math.Max(0, math.Min(1, 1-total))
}

// AdjustDutyCycle applies one proportional control step towards target.
// The result is clamped to bounds. It reports false, and returns duty
// unchanged, when the step is smaller than MinAdjustment.
func AdjustDutyCycle(duty, efficiency, target float64, bounds config.Range) (float64, bool) {
	next := duty + (target-efficiency)*ProportionalGain
	next = math.Max(bounds.Min, math.Min(bounds.Max, next))
	if math.Abs(next-duty) > MinAdjustment {
		return next, true
	}
	return duty, false
}

// Model simulates a converter under closed-loop duty-cycle control. Each
// sample measures the plant, computes efficiency at the current duty
// cycle, then adjusts the duty cycle for the next sample.
type Model struct {
	mu     sync.Mutex
	rng    *rand.Rand
	plant  Plant
	bounds config.Range
	target float64
	duty   float64
}

// NewModel creates a Model starting at the neutral duty cycle of 0.5.
func NewModel(plant Plant, cfg config.Configuration, seed uint64) *Model {
	return &Model{
		rng:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		plant:  plant,
		bounds: cfg.DutyCycleBounds(),
		target: cfg.TargetEfficiency,
		duty:   0.5,
	}
}

// DutyCycle returns the duty cycle that will be reported next.
func (m *Model) DutyCycle() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duty
}

// NextSample implements Source.
func (m *Model) NextSample(ctx context.Context) (params.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l := m.noisy(m.plant.InductanceMH)
	c := m.noisy(m.plant.CapacitanceUF)
	esr := m.noisy(m.plant.ESRMilliOhm)

	duty := m.duty
	eff := CalculateEfficiency(l, esr/1000, duty)

	snap := params.Snapshot{
		params.Inductance:  round(l, 3),
		params.Capacitance: round(c, 2),
		params.ESR:         round(esr, 2),
		params.DutyCycle:   round(duty, 4),
		params.Efficiency:  round(eff, 4),
		params.Temperature: round(m.plant.Ambient+m.plant.ThermalGain*(1-eff), 1),
		params.Current:     round(m.plant.LoadCurrent*duty, 2),
		params.Voltage:     round(m.noisy(m.plant.BusVoltage), 2),
	}

	m.duty, _ = AdjustDutyCycle(duty, eff, m.target, m.bounds)
	return snap, nil
}

func (m *Model) noisy(v float64) float64 {
	if m.plant.Noise == 0 {
		return v
	}
	return v * (1 + m.plant.Noise*(2*m.rng.Float64()-1))
}
