// Package pipeline runs the whole build-time pass for one module:
//
//	list .kt files → parse + scan (parallel) → resolve routes → validate
//	→ write module registry → load dependency registries → merge
//	→ validate merged → generate → write source
//
// Scanning is the only parallel stage. Every later stage starts once all
// files are scanned, and any error diagnostic stops the run before the
// generated source is written. Outputs are rewritten only when their content
// changes, so unchanged runs leave timestamps alone.
//
// Each stage runs in an OpenTelemetry span and, when a Metrics is attached,
// records its duration.
package pipeline
