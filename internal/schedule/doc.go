// Package schedule is the stimulus scheduling core of the exposure
// experiment: it partitions the face pool into color groups, attaches hidden
// reward classes, builds the block-randomized primary schedule with exact
// per-face exposure counts, draws per-interaction outcomes, and derives the
// generalization and rating trial sets.
//
// Everything here is pure, synchronous computation over an injected
// randomness source. Schedules are materialized eagerly and are immutable
// once returned. Configuration errors are detected before any randomness is
// consumed; the package never returns a schedule that violates its stated
// invariants.
package schedule
