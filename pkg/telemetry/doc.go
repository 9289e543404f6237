// Package telemetry provides the parameter feeds consumed by the
// monitoring loop.
//
// A Source produces one complete params.Snapshot per call. Three sources
// are included:
//
//   - Simulator: bounded random excursions around nominal operating values,
//     seedable for reproducible runs.
//   - Model: a small plant model driven by the converter's proportional
//     duty-cycle control law.
//   - Sequence: replays a fixed list of snapshots.
//
// Real sensor feeds implement Source directly.
package telemetry
