package config

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.05, cfg.MinDutyCycle)
	assert.Equal(t, 0.95, cfg.MaxDutyCycle)
	assert.Equal(t, 20000.0, cfg.PWMFrequency)
	assert.Equal(t, 0.95, cfg.TargetEfficiency)
	assert.Equal(t, 100*time.Millisecond, cfg.SamplingInterval())
	assert.Equal(t, SafetyLimits{MaxTemperature: 85, MaxCurrent: 10, MaxVoltage: 24}, cfg.SafetyLimits)
	assert.True(t, cfg.Failsafe.Enabled)
	assert.Equal(t, 5*time.Second, cfg.FailsafeDelay())
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Configuration)
		wantErr error
	}{
		{"MinEqualsMax", func(c *Configuration) { c.MinDutyCycle, c.MaxDutyCycle = 0.5, 0.5 }, ErrDutyCycleBounds},
		{"MinAboveMax", func(c *Configuration) { c.MinDutyCycle, c.MaxDutyCycle = 0.9, 0.1 }, ErrDutyCycleBounds},
		{"MaxAboveOne", func(c *Configuration) { c.MaxDutyCycle = 1.2 }, ErrDutyCycleBounds},
		{"MinNegative", func(c *Configuration) { c.MinDutyCycle = -0.1 }, ErrDutyCycleBounds},
		{"FullRange", func(c *Configuration) { c.MinDutyCycle, c.MaxDutyCycle = 0, 1 }, nil},
		{"ZeroSampling", func(c *Configuration) { c.SamplingRate = 0 }, ErrSamplingRate},
		{"ZeroFrequency", func(c *Configuration) { c.PWMFrequency = 0 }, ErrPWMFrequency},
		{"EfficiencyAboveOne", func(c *Configuration) { c.TargetEfficiency = 1.5 }, ErrTargetEfficiency},
		{"FailsafeNoDelay", func(c *Configuration) { c.Failsafe.TripAfter = 0 }, ErrFailsafeTrip},
		{"FailsafeDisabledNoDelay", func(c *Configuration) { c.Failsafe = Failsafe{} }, nil},
		{"TemperatureLimitNaN", func(c *Configuration) { c.SafetyLimits.MaxTemperature = math.NaN() }, ErrSafetyLimits},
		{"CurrentLimitInf", func(c *Configuration) { c.SafetyLimits.MaxCurrent = math.Inf(1) }, ErrSafetyLimits},
		{"VoltageLimitNegInf", func(c *Configuration) { c.SafetyLimits.MaxVoltage = math.Inf(-1) }, ErrSafetyLimits},
		{"ZeroCurrentLimit", func(c *Configuration) { c.SafetyLimits.MaxCurrent = 0 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeOverlayJSON(t *testing.T) {
	data := []byte(`{
		// operator override
		"max_duty_cycle": 0.9,
		"safety_limits": {"max_temperature": 70},
	}`)

	cfg, err := Decode(data, FormatJSON)
	require.NoError(t, err)

	assert.Equal(t, 0.9, cfg.MaxDutyCycle)
	assert.Equal(t, 0.05, cfg.MinDutyCycle, "absent field keeps default")
	assert.Equal(t, 70.0, cfg.SafetyLimits.MaxTemperature)
	assert.Equal(t, 10.0, cfg.SafetyLimits.MaxCurrent, "absent nested field keeps default")
	assert.Equal(t, 24.0, cfg.SafetyLimits.MaxVoltage)
	assert.Equal(t, DefaultSamplingRate, cfg.SamplingRate)
}

func TestDecodeOverlayYAML(t *testing.T) {
	data := []byte("sampling_rate: 250\nsafety_limits:\n  max_current: 12.5\nfailsafe:\n  enabled: false\n")

	cfg, err := Decode(data, FormatYAML)
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.SamplingRate)
	assert.Equal(t, 12.5, cfg.SafetyLimits.MaxCurrent)
	assert.Equal(t, 85.0, cfg.SafetyLimits.MaxTemperature)
	assert.False(t, cfg.Failsafe.Enabled)
	assert.Equal(t, DefaultFailsafeTrip, cfg.Failsafe.TripAfter)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"Malformed", `{"max_duty_cycle": `, FormatJSON},
		{"WrongType", `{"sampling_rate": "fast"}`, FormatJSON},
		{"InvertedBounds", `{"min_duty_cycle": 0.8, "max_duty_cycle": 0.2}`, FormatJSON},
		{"BadYAML", "safety_limits: [1, 2", FormatYAML},
		{"NaNLimit", "safety_limits:\n  max_temperature: .nan\n", FormatYAML},
		{"InfLimit", "safety_limits:\n  max_voltage: .inf\n", FormatYAML},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode([]byte(tt.data), tt.format)
			assert.Error(t, err)
			assert.Equal(t, Default(), cfg, "rejected input returns the base")
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.MaxDutyCycle = 0.8
	cfg.SafetyLimits.MaxVoltage = 48

	for _, format := range []Format{FormatJSON, FormatYAML} {
		t.Run(format.String(), func(t *testing.T) {
			data, err := Encode(cfg, format)
			require.NoError(t, err)

			got, err := Decode(data, format)
			require.NoError(t, err)
			assert.Equal(t, cfg, got)
		})
	}
}

func TestEncodeJSONKeys(t *testing.T) {
	data, err := Encode(Default(), FormatJSON)
	require.NoError(t, err)
	for _, key := range []string{`"pwm_frequency"`, `"min_duty_cycle"`, `"max_duty_cycle"`, `"safety_limits"`, `"max_temperature"`} {
		assert.Contains(t, string(data), key)
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("config.json"))
	assert.Equal(t, FormatJSON, FormatFromPath("config"))
	assert.Equal(t, FormatYAML, FormatFromPath("/etc/adaptivepwm/config.YAML"))
	assert.Equal(t, FormatYAML, FormatFromPath("pwm.yml"))
}

func TestLoadErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &LoadError{Path: "config.json", Err: cause}

	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "config.json")
}

func TestRangeContains(t *testing.T) {
	r := Default().DutyCycleBounds()
	assert.True(t, r.Contains(0.05))
	assert.True(t, r.Contains(0.95))
	assert.True(t, r.Contains(0.5))
	assert.False(t, r.Contains(0.04))
	assert.False(t, r.Contains(1.2))
}
