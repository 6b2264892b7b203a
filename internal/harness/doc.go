// Package harness runs YAML conformance scenarios against the registry.
//
// A scenario names some accounts, submits a sequence of add_wavefunction
// calls through the real runtime engine, checks each call's outcome, and
// then asserts on the final store: record and event counts, id equality
// and distinctness across steps, and stored content.
//
// Every scenario runs on a fresh in-memory SQLite database with
// sequential call ids ("call-1", "call-2", ...) and a fresh logical clock,
// so the same scenario always produces a byte-identical trace. Traces
// serialize to canonical JSON for golden file comparison:
//
//	go test ./internal/harness -update
//
// regenerates testdata/golden.
package harness
