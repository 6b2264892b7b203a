// Package runtime hosts the wave-function registry.
//
// The registry itself is a pure state transition over an injected record
// map. This package supplies everything around it:
//
// Origins:
// A Call carries an Origin, either Signed(account) or None. The dispatch
// wrapper resolves it with EnsureSigned before the registry runs, so an
// unsigned call fails with UNAUTHENTICATED and touches nothing.
//
// Transaction envelope:
// Each call runs in one store transaction. The registry writes its record
// through the transaction and deposits its notification into a journal sink
// that appends to the same transaction. Commit makes both visible at once;
// any error rolls both back.
//
// Single writer:
// Execute serializes calls under one lock. Enqueue + Run add a
// FIFO loop: calls are applied strictly in enqueue order by one goroutine,
// and each caller receives its Receipt on a reply channel.
//
// Publication:
// Committed events go to the configured Publisher after Commit returns,
// never before, so any subscriber that sees an event can read its record.
//
// Logical clock:
// Every executed call is stamped with a strictly increasing seq from Clock.
// Wall-clock time is never used for ordering.
package runtime
