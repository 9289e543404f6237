package telemetry

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/adaptivepwm/pwm-go/pkg/params"
)

// Band is a nominal value with an asymmetric excursion range.
type Band struct {
	Nominal float64
	Below   float64
	Above   float64

	// Decimals is the rounding precision of generated values.
	Decimals int
}

// DefaultBands are the excursions of a healthy converter.
var DefaultBands = map[string]Band{
	params.Inductance:  {Nominal: 1.0, Below: 0.1, Above: 0.1, Decimals: 3},
	params.Capacitance: {Nominal: 10.0, Below: 1.0, Above: 1.0, Decimals: 2},
	params.ESR:         {Nominal: 5.0, Below: 0.5, Above: 0.5, Decimals: 2},
	params.DutyCycle:   {Nominal: 0.5, Below: 0.1, Above: 0.1, Decimals: 3},
	params.Efficiency:  {Nominal: 0.95, Below: 0.02, Above: 0.01, Decimals: 4},
	params.Temperature: {Nominal: 25.0, Below: 2.0, Above: 5.0, Decimals: 1},
	params.Current:     {Nominal: 5.0, Below: 0.5, Above: 0.5, Decimals: 2},
	params.Voltage:     {Nominal: 12.0, Below: 0.5, Above: 0.5, Decimals: 2},
}

// Simulator draws each parameter uniformly from its band.
type Simulator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	bands map[string]Band
}

// NewSimulator creates a Simulator with DefaultBands. Equal seeds produce
// equal sequences.
func NewSimulator(seed uint64) *Simulator {
	return NewSimulatorWithBands(seed, DefaultBands)
}

// NewSimulatorWithBands creates a Simulator with custom bands. Parameters
// without a band keep their default value.
func NewSimulatorWithBands(seed uint64, bands map[string]Band) *Simulator {
	cp := make(map[string]Band, len(bands))
	for k, v := range bands {
		cp[k] = v
	}
	return &Simulator{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		bands: cp,
	}
}

// NextSample implements Source.
func (s *Simulator) NextSample(ctx context.Context) (params.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := params.Defaults()
	for _, name := range params.Names() {
		b, ok := s.bands[name]
		if !ok {
			continue
		}
		v := b.Nominal - b.Below + s.rng.Float64()*(b.Below+b.Above)
		snap[name] = round(v, b.Decimals)
	}
	return snap, nil
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
