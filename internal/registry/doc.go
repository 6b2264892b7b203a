// Package registry implements the wave-function registry: a content-addressed,
// write-only map from RecordID to WaveFunction.
//
// The registry owns exactly one operation, Submit. It validates the payload
// size, clones the payload and author into a candidate record, derives the
// record id from the candidate's full content, inserts the record (replacing
// any equal record already stored at that id), and deposits a
// WaveFunctionAdded notification.
//
// # Atomicity
//
// Validation is pure and runs before any mutation, so a rejected call never
// touches the record map or the event sink. Insert always precedes Deposit:
// a consumer that observes the notification may assume the record exists.
// If Insert or Deposit fails, the error is returned and the caller's
// transaction is expected to roll back every write of the call.
//
// # Authentication
//
// Submit receives an already-verified author. Rejecting unsigned calls with
// ErrUnauthenticated is the dispatch layer's job (see internal/runtime); the
// error kind lives here because it is part of this component's taxonomy.
package registry
