package harness

import "github.com/roach88/wavefn/internal/ir"

// Outcome values recorded in the trace.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// TraceStep is the observed outcome of one scenario step.
type TraceStep struct {
	Step     int         `json:"step"`
	Call     string      `json:"call"`
	CallID   string      `json:"call_id"`
	Seq      int64       `json:"seq"`
	Origin   string      `json:"origin"` // account name, or "none"
	Size     int         `json:"size"`
	Outcome  string      `json:"outcome"`
	Error    string      `json:"error,omitempty"` // error code
	RecordID ir.RecordID `json:"record_id"`
	Events   []ir.Event  `json:"events"`

	// author and function are kept for record_matches.
	author   ir.AccountID
	function []byte
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace has one entry per step, in order.
	Trace []TraceStep `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceStep{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
