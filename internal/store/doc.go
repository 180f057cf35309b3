// Package store provides SQLite-backed durable storage for session logs.
//
// The store holds one participants row per session plus long-format trial
// tables:
//   - phase1_trials: one row per face slot per primary trial
//   - phase2_trials: one row per face slot per generalization trial
//   - phase3_trials: one row per rating sub-trial
//   - interactions: one row per primary-phase feedback event
//
// Schedules are written in a single transaction by WriteSession; interaction
// events and final scores arrive later via WriteInteraction and
// UpdateSummary. ExportCSV flattens the log into CSV files for analysis.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
