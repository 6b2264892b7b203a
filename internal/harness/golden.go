package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/registry"
)

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string
	Hashing      ir.Hasher
	MaxBytes     uint32
	Trace        []TraceStep
}

// NewSnapshot builds the snapshot of result for scenario.
func NewSnapshot(scenario *Scenario, result *Result) TraceSnapshot {
	hasher, _ := ir.ParseHasher(scenario.Hashing)
	maxBytes := registry.DefaultMaxBytes
	if scenario.MaxBytes != nil {
		maxBytes = *scenario.MaxBytes
	}
	return TraceSnapshot{
		ScenarioName: scenario.Name,
		Hashing:      hasher,
		MaxBytes:     maxBytes,
		Trace:        result.Trace,
	}
}

// CanonicalObject returns the snapshot in canonical form.
func (s TraceSnapshot) CanonicalObject() ir.Object {
	steps := make(ir.Array, len(s.Trace))
	for i, ts := range s.Trace {
		events := make(ir.Array, len(ts.Events))
		for j, ev := range ts.Events {
			events[j] = ev.CanonicalObject()
		}

		step := ir.Object{
			"step":    ir.Int(ts.Step),
			"call":    ir.String(ts.Call),
			"call_id": ir.String(ts.CallID),
			"seq":     ir.Int(ts.Seq),
			"origin":  ir.String(ts.Origin),
			"size":    ir.Int(ts.Size),
			"outcome": ir.String(ts.Outcome),
			"events":  events,
		}
		if ts.Outcome == OutcomeOK {
			step["record_id"] = ir.String(ts.RecordID.String())
		} else {
			step["error"] = ir.String(ts.Error)
		}
		steps[i] = step
	}

	return ir.Object{
		"scenario_name": ir.String(s.ScenarioName),
		"hashing":       ir.String(s.Hashing.String()),
		"max_bytes":     ir.Int(s.MaxBytes),
		"trace":         steps,
	}
}

// Marshal returns the snapshot's canonical JSON.
func (s TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.CanonicalObject())
}

// RunWithGolden executes a scenario and compares the trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, NewSnapshot(scenario, result)); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares a snapshot against its golden file.
func AssertGolden(t *testing.T, snapshot TraceSnapshot) error {
	t.Helper()

	traceJSON, err := snapshot.Marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, snapshot.ScenarioName, traceJSON)

	return nil
}
