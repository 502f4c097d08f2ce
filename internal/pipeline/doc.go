// Package pipeline executes loan decision pipelines.
//
// A run has two phases:
//   - Steps: configured steps execute in ascending order against the
//     application. Each result is logged and kept under its step type for
//     rule lookups; a later step of the same type replaces the earlier
//     result but both logs are kept.
//   - Terminal rules: rules are evaluated in ascending order by the
//     condition package. The first rule that holds decides the final
//     status; with no match the run ends in NEEDS_REVIEW.
//
// Evaluate is the pure form: it reads nothing and writes nothing. Executor
// wraps it with loading, status update and run persistence through the
// store ports, plus tracing and metrics.
package pipeline
