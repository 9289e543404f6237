// Package config defines the controller configuration record.
//
// Every field has a default. Configuration files are decoded as overlays:
// fields present in the file replace the default, absent fields (including
// absent fields of nested objects such as safety_limits) keep it.
//
// # File Formats
//
// JSON files may contain comments and trailing commas. YAML files use the
// same keys:
//
//	pwm_frequency: 20000
//	min_duty_cycle: 0.05
//	max_duty_cycle: 0.95
//	target_efficiency: 0.95
//	sampling_rate: 100        # milliseconds between samples
//	safety_limits:
//	  max_temperature: 85
//	  max_current: 10.0
//	  max_voltage: 24.0
//	failsafe:
//	  enabled: true
//	  trip_after: 5000        # milliseconds of continuous violation
package config
