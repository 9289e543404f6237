// Package monitor implements the monitoring loop of a session.
//
// A Loop repeatedly pulls a snapshot from a telemetry source, commits it to
// the session's parameter store and evaluates the safety policy on the
// committed values. Each step is surfaced to an observer as a Step.
//
// # States
//
//	IDLE ──Start──▶ RUNNING ──Stop / iterations done / source exhausted──▶ IDLE
//
// The loop is restartable. Start while running is a no-op. Stop is
// cooperative: it cancels the loop's context and waits until the stepper
// goroutine has returned, which takes at most one sampling interval plus
// the duration of an in-flight sample. A step cancelled before its commit
// commits nothing.
//
// # Failsafe
//
// When a failsafe timer is attached, every safety report is fed into it.
// While the timer reports failsafe mode, committed snapshots carry the
// configured minimum duty cycle instead of the sampled value.
package monitor
