package log

import "time"

// Event is one entry of the session event log.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the session (UUID). Empty for
	// authentication failures, which never produce a session.
	SessionID string `cbor:"2,keyasint,omitempty"`

	// Category classifies the event type.
	Category Category `cbor:"3,keyasint"`

	// Subject is the authenticated subject name.
	Subject string `cbor:"4,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Auth        *AuthEvent        `cbor:"10,keyasint,omitempty"`
	Parameter   *ParameterEvent   `cbor:"11,keyasint,omitempty"`
	Sample      *SampleEvent      `cbor:"12,keyasint,omitempty"`
	Safety      *SafetyEvent      `cbor:"13,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"14,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"15,keyasint,omitempty"`
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryAuth indicates an authentication attempt.
	CategoryAuth Category = 0
	// CategoryParameter indicates a caller parameter write.
	CategoryParameter Category = 1
	// CategorySample indicates a committed monitoring sample.
	CategorySample Category = 2
	// CategorySafety indicates a safety evaluation.
	CategorySafety Category = 3
	// CategoryState indicates a state change.
	CategoryState Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryAuth:
		return "AUTH"
	case CategoryParameter:
		return "PARAMETER"
	case CategorySample:
		return "SAMPLE"
	case CategorySafety:
		return "SAFETY"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory returns the category with the given name.
func ParseCategory(s string) (Category, bool) {
	for c := CategoryAuth; c <= CategoryError; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}

// AuthEvent captures the outcome of an authentication attempt.
type AuthEvent struct {
	// Success is true when an identity was established.
	Success bool `cbor:"1,keyasint"`

	// Organization of the authenticated subject.
	Organization string `cbor:"2,keyasint,omitempty"`

	// Reason is the failure kind (MISSING_MATERIAL, INVALID_CHAIN).
	Reason string `cbor:"3,keyasint,omitempty"`

	// Missing lists the absent credential locators.
	Missing []string `cbor:"4,keyasint,omitempty"`
}

// ParameterEvent captures a caller-issued parameter write.
type ParameterEvent struct {
	Name  string  `cbor:"1,keyasint"`
	Value float64 `cbor:"2,keyasint"`

	// Accepted is false when the write was rejected.
	Accepted bool `cbor:"3,keyasint"`

	// Reason explains a rejection.
	Reason string `cbor:"4,keyasint,omitempty"`
}

// SampleEvent captures a snapshot committed by the monitoring loop.
type SampleEvent struct {
	// Iteration is the 1-based step number within the current run.
	Iteration uint64 `cbor:"1,keyasint"`

	// Values is the committed snapshot.
	Values map[string]float64 `cbor:"2,keyasint"`

	// Forced is true when the failsafe overrode the duty cycle.
	Forced bool `cbor:"3,keyasint,omitempty"`
}

// SafetyEvent captures a safety report.
type SafetyEvent struct {
	Safe       bool     `cbor:"1,keyasint"`
	Violations []string `cbor:"2,keyasint,omitempty"`

	// Iteration of the monitoring step, 0 for on-demand checks.
	Iteration uint64 `cbor:"3,keyasint,omitempty"`
}

// StateChangeEvent captures session, monitor and failsafe transitions.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntitySession indicates a session lifecycle change.
	StateEntitySession StateEntity = 0
	// StateEntityMonitor indicates a monitoring loop state change.
	StateEntityMonitor StateEntity = 1
	// StateEntityFailsafe indicates a failsafe state change.
	StateEntityFailsafe StateEntity = 2
	// StateEntityConfig indicates a configuration save.
	StateEntityConfig StateEntity = 3
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityMonitor:
		return "MONITOR"
	case StateEntityFailsafe:
		return "FAILSAFE"
	case StateEntityConfig:
		return "CONFIG"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
