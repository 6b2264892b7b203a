package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/store"
)

// AssertionContext provides store access for state assertions.
type AssertionContext struct {
	Store store.Backend
	Ctx   context.Context
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceStep
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, s := range e.Trace {
		if s.Outcome == OutcomeOK {
			fmt.Fprintf(&buf, "  [%d] %s origin=%s size=%d -> %s\n", s.Step, s.Call, s.Origin, s.Size, s.RecordID)
		} else {
			fmt.Fprintf(&buf, "  [%d] %s origin=%s size=%d -> %s\n", s.Step, s.Call, s.Origin, s.Size, s.Error)
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion and returns failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertRecordCount:
		return assertRecordCount(result, a, actx)
	case AssertEventCount:
		return assertEventCount(result, a, actx)
	case AssertIDsEqual:
		return assertIDsEqual(result, a)
	case AssertIDsDistinct:
		return assertIDsDistinct(result, a)
	case AssertRecordMatches:
		return assertRecordMatches(result, a, actx)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRecordCount(result *Result, a Assertion, actx *AssertionContext) error {
	n, err := actx.Store.Count(actx.Ctx)
	if err != nil {
		return fmt.Errorf("count records: %w", err)
	}
	if n != *a.Count {
		return &AssertionError{
			Type:     AssertRecordCount,
			Expected: fmt.Sprintf("%d records", *a.Count),
			Actual:   fmt.Sprintf("%d records", n),
			Trace:    result.Trace,
		}
	}
	return nil
}

func assertEventCount(result *Result, a Assertion, actx *AssertionContext) error {
	events, err := actx.Store.ReadEvents(actx.Ctx, 0)
	if err != nil {
		return fmt.Errorf("read events: %w", err)
	}
	if len(events) != *a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d events", *a.Count),
			Actual:   fmt.Sprintf("%d events", len(events)),
			Trace:    result.Trace,
		}
	}
	return nil
}

// stepID returns the record id a step produced, failing if it did not commit.
func stepID(result *Result, step int) (ir.RecordID, error) {
	if step >= len(result.Trace) {
		return ir.RecordID{}, fmt.Errorf("step %d did not run", step)
	}
	ts := result.Trace[step]
	if ts.Outcome != OutcomeOK {
		return ir.RecordID{}, fmt.Errorf("step %d failed with %s and has no record id", step, ts.Error)
	}
	return ts.RecordID, nil
}

func assertIDsEqual(result *Result, a Assertion) error {
	first, err := stepID(result, a.Steps[0])
	if err != nil {
		return err
	}
	for _, s := range a.Steps[1:] {
		id, err := stepID(result, s)
		if err != nil {
			return err
		}
		if id != first {
			return &AssertionError{
				Type:     AssertIDsEqual,
				Expected: fmt.Sprintf("step %d id %s", s, first),
				Actual:   id.String(),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

func assertIDsDistinct(result *Result, a Assertion) error {
	seen := make(map[ir.RecordID]int, len(a.Steps))
	for _, s := range a.Steps {
		id, err := stepID(result, s)
		if err != nil {
			return err
		}
		if prev, ok := seen[id]; ok {
			return &AssertionError{
				Type:     AssertIDsDistinct,
				Expected: fmt.Sprintf("steps %d and %d to have distinct ids", prev, s),
				Actual:   fmt.Sprintf("both %s", id),
				Trace:    result.Trace,
			}
		}
		seen[id] = s
	}
	return nil
}

func assertRecordMatches(result *Result, a Assertion, actx *AssertionContext) error {
	id, err := stepID(result, *a.Step)
	if err != nil {
		return err
	}
	ts := result.Trace[*a.Step]

	if a.ID != "" {
		want, err := ir.ParseRecordID(a.ID)
		if err != nil {
			return err
		}
		if id != want {
			return &AssertionError{
				Type:     AssertRecordMatches,
				Expected: fmt.Sprintf("id %s", want),
				Actual:   fmt.Sprintf("id %s", id),
				Trace:    result.Trace,
			}
		}
	}

	rec, err := actx.Store.Get(actx.Ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return &AssertionError{
			Type:     AssertRecordMatches,
			Expected: fmt.Sprintf("record stored at %s", id),
			Actual:   "no record",
			Trace:    result.Trace,
		}
	}
	if err != nil {
		return fmt.Errorf("get record: %w", err)
	}

	want := ir.WaveFunction{Function: ts.function, Author: ts.author}
	if !rec.Equal(want) {
		return &AssertionError{
			Type:     AssertRecordMatches,
			Expected: fmt.Sprintf("author %s, %d-byte function", want.Author, len(want.Function)),
			Actual:   fmt.Sprintf("author %s, %d-byte function", rec.Author, len(rec.Function)),
			Trace:    result.Trace,
		}
	}
	return nil
}
