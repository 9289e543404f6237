// Package failsafe implements the sustained-violation failsafe of a session.
//
// A single unsafe safety report is not enough to take the power stage out of
// adaptive control: sensor noise regularly produces short excursions. The
// failsafe timer tracks how long the safety policy has been reporting
// violations without interruption and enters failsafe mode when that period
// exceeds the configured trip delay.
//
// # Timer Behavior
//
//   - Starts on the first unsafe report
//   - Stops on the next safe report
//   - Triggers failsafe mode on expiry
//
// # Failsafe Mode
//
// While in failsafe mode the monitoring loop drives the duty cycle to the
// configured minimum. Failsafe mode exits on the first safe report.
package failsafe
