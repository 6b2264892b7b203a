package runtime

import "github.com/roach88/wavefn/internal/ir"

// CallAddWaveFunction is the registry's only dispatchable call.
const CallAddWaveFunction = "add_wavefunction"

// AddWaveFunctionWeight is the fixed weight declared for add_wavefunction.
// It is a nominal constant, not derived from payload size.
const AddWaveFunctionWeight uint64 = 10_000

// Pays says whether the caller is charged for a call.
type Pays int

const (
	// PaysYes charges the caller.
	PaysYes Pays = iota
	// PaysNo waives the charge.
	PaysNo
)

// String returns "yes" or "no".
func (p Pays) String() string {
	if p == PaysNo {
		return "no"
	}
	return "yes"
}

// CallInfo is the dispatch metadata a host reads before executing a call.
type CallInfo struct {
	Weight uint64
	Pays   Pays
}

// Call is one externally submitted operation.
type Call struct {
	// ID correlates the call with its events. Assigned by the engine if empty.
	ID string

	// Name selects the operation; only CallAddWaveFunction is known.
	Name string

	// Origin is the submitting identity.
	Origin Origin

	// Function is the add_wavefunction payload.
	Function []byte
}

// NewAddWaveFunction builds an add_wavefunction call.
func NewAddWaveFunction(origin Origin, function []byte) Call {
	return Call{Name: CallAddWaveFunction, Origin: origin, Function: function}
}

// Info returns the dispatch metadata for c.
// Unknown calls return a DispatchError.
func (c Call) Info() (CallInfo, error) {
	switch c.Name {
	case CallAddWaveFunction:
		return CallInfo{Weight: AddWaveFunctionWeight, Pays: PaysNo}, nil
	default:
		return CallInfo{}, NewUnknownCallError(c.ID, c.Name)
	}
}

// Receipt is the outcome of executing a Call.
type Receipt struct {
	// CallID is the call's correlation id.
	CallID string

	// Seq is the logical clock value stamped on the call.
	Seq int64

	// RecordID is the stored record's id. Zero when Err is set.
	RecordID ir.RecordID

	// Events are the committed events, in journal order. Empty when Err is set.
	Events []ir.Event

	// Err is the rejection or failure, nil on success.
	Err error
}

// OK reports whether the call committed.
func (r Receipt) OK() bool {
	return r.Err == nil
}
