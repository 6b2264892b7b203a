package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/registry"
	"github.com/roach88/wavefn/internal/runtime"
	"github.com/roach88/wavefn/internal/store"
	"github.com/roach88/wavefn/internal/testutil"
)

// Harness holds the per-scenario execution state.
type Harness struct {
	store    *store.Store
	engine   *runtime.Engine
	accounts map[string]ir.AccountID
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// A returned error means the scenario could not run at all; failed
// expectations and assertions are reported in the Result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	hasher, err := ir.ParseHasher(scenario.Hashing)
	if err != nil {
		return nil, err
	}
	maxBytes := registry.DefaultMaxBytes
	if scenario.MaxBytes != nil {
		maxBytes = *scenario.MaxBytes
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{
		store: st,
		engine: runtime.New(st,
			runtime.WithMaxBytes(maxBytes),
			runtime.WithHasher(hasher),
			runtime.WithCallIDs(testutil.NewSequentialCallIDs("call")),
			runtime.WithLogger(logger),
		),
		accounts: make(map[string]ir.AccountID, len(scenario.Accounts)),
		logger:   logger,
	}
	for name, hex := range scenario.Accounts {
		a, err := ir.ParseAccountID(hex)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", name, err)
		}
		h.accounts[name] = a
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}

// executeStep submits one call and records its outcome.
func (h *Harness) executeStep(ctx context.Context, i int, step Step, result *Result) error {
	function, err := step.Payload.Bytes()
	if err != nil {
		return fmt.Errorf("payload: %w", err)
	}

	origin := runtime.None()
	originName := "none"
	var author ir.AccountID
	if step.Origin != "" {
		author = h.accounts[step.Origin]
		origin = runtime.Signed(author)
		originName = step.Origin
	}

	receipt := h.engine.Execute(ctx, runtime.Call{
		Name:     step.callName(),
		Origin:   origin,
		Function: function,
	})

	ts := TraceStep{
		Step:     i,
		Call:     step.callName(),
		CallID:   receipt.CallID,
		Seq:      receipt.Seq,
		Origin:   originName,
		Size:     len(function),
		Outcome:  OutcomeOK,
		RecordID: receipt.RecordID,
		Events:   receipt.Events,
		author:   author,
		function: function,
	}
	if ts.Events == nil {
		ts.Events = []ir.Event{}
	}
	if receipt.Err != nil {
		ts.Outcome = OutcomeError
		ts.Error = runtime.ErrorCode(receipt.Err)
		if ts.Error == runtime.CodeInternal {
			return receipt.Err
		}
	}
	result.Trace = append(result.Trace, ts)

	h.logger.Debug("step executed",
		"step", i,
		"call_id", ts.CallID,
		"outcome", ts.Outcome,
		"error", ts.Error,
	)

	checkExpect(i, step.Expect, ts, result)
	return nil
}

// checkExpect compares a step's outcome with its expectation.
func checkExpect(i int, expect *Expect, ts TraceStep, result *Result) {
	if expect == nil {
		return
	}
	switch {
	case expect.OK && ts.Outcome != OutcomeOK:
		result.AddError(fmt.Sprintf("steps[%d]: expected ok, got error %s", i, ts.Error))
	case expect.Error != "" && ts.Outcome == OutcomeOK:
		result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got ok", i, expect.Error))
	case expect.Error != "" && ts.Error != expect.Error:
		result.AddError(fmt.Sprintf("steps[%d]: expected error %s, got %s", i, expect.Error, ts.Error))
	}
}
