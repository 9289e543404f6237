package safety

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adaptivepwm/pwm-go/pkg/config"
	"github.com/adaptivepwm/pwm-go/pkg/params"
)

func TestEvaluateTemperature(t *testing.T) {
	limits := config.Default().SafetyLimits
	require.Equal(t, 85.0, limits.MaxTemperature)

	hot := params.Defaults()
	hot[params.Temperature] = 90

	r := Evaluate(hot, limits)
	assert.False(t, r.Safe)
	require.Len(t, r.Violations, 1)
	assert.Contains(t, r.Violations[0], "90")
	assert.Contains(t, r.Violations[0], "85")
	assert.Equal(t, limits, r.Limits)

	ok := params.Defaults()
	ok[params.Temperature] = 80

	r = Evaluate(ok, limits)
	assert.True(t, r.Safe)
	assert.Empty(t, r.Violations)
}

func TestEvaluateBoundIsStrict(t *testing.T) {
	limits := config.Default().SafetyLimits
	snap := params.Defaults()
	snap[params.Temperature] = limits.MaxTemperature
	snap[params.Current] = limits.MaxCurrent
	snap[params.Voltage] = limits.MaxVoltage

	assert.True(t, Evaluate(snap, limits).Safe)
}

func TestEvaluateDeclarationOrder(t *testing.T) {
	limits := config.Default().SafetyLimits
	snap := params.Defaults()
	snap[params.Voltage] = 30
	snap[params.Current] = 12.5
	snap[params.Temperature] = 100

	r := Evaluate(snap, limits)
	require.Len(t, r.Violations, 3)
	assert.Equal(t, "High temperature: 100°C exceeds limit 85°C", r.Violations[0])
	assert.Equal(t, "High current: 12.5A exceeds limit 10A", r.Violations[1])
	assert.Equal(t, "High voltage: 30V exceeds limit 24V", r.Violations[2])
}

func TestEvaluateDeterministic(t *testing.T) {
	limits := config.Default().SafetyLimits
	snap := params.Defaults()
	snap[params.Temperature] = 91.25
	snap[params.Voltage] = 25

	a, err := json.Marshal(Evaluate(snap, limits))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		b, err := json.Marshal(Evaluate(snap, limits))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestEvaluateSkipsAbsentParameters(t *testing.T) {
	r := Evaluate(params.Snapshot{params.Temperature: 20}, config.Default().SafetyLimits)
	assert.True(t, r.Safe)
	assert.NotNil(t, r.Violations)
}

func TestEvaluateDoesNotMutateInput(t *testing.T) {
	snap := params.Defaults()
	snap[params.Temperature] = 99
	before := snap.Clone()

	Evaluate(snap, config.Default().SafetyLimits)
	assert.True(t, before.Equal(snap))
}

func TestEvaluateNonFinite(t *testing.T) {
	defaults := config.Default().SafetyLimits

	tests := []struct {
		name   string
		value  float64
		limits func(config.SafetyLimits) config.SafetyLimits
		want   string
	}{
		{"NaNReading", math.NaN(), nil, "Invalid temperature reading: NaN°C"},
		{"PosInfReading", math.Inf(1), nil, "Invalid temperature reading: +Inf°C"},
		{"NegInfReading", math.Inf(-1), nil, "Invalid temperature reading: -Inf°C"},
		{"NaNLimit", 1000, func(l config.SafetyLimits) config.SafetyLimits {
			l.MaxTemperature = math.NaN()
			return l
		}, "Invalid temperature limit: NaN°C"},
		{"InfLimit", 20, func(l config.SafetyLimits) config.SafetyLimits {
			l.MaxTemperature = math.Inf(1)
			return l
		}, "Invalid temperature limit: +Inf°C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limits := defaults
			if tt.limits != nil {
				limits = tt.limits(limits)
			}
			snap := params.Defaults()
			snap[params.Temperature] = tt.value

			r := Evaluate(snap, limits)
			assert.False(t, r.Safe)
			require.Len(t, r.Violations, 1)
			assert.Equal(t, tt.want, r.Violations[0])
		})
	}
}
