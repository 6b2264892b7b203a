// Package store provides durable storage for the wave-function registry.
//
// The store holds two collections:
//   - Records: the registry map, RecordID -> WaveFunction (overwrite on conflict)
//   - Events: the append-only journal of WaveFunctionAdded notifications
//
// Two backends implement the same Backend/Tx contract:
//   - Store: SQLite, via mattn/go-sqlite3 ("sqlite3") or modernc.org/sqlite ("sqlite")
//   - MemStore: in-memory, for tests and ephemeral runs
//
// # Transactions
//
// Every registry call runs inside one Tx. Record writes and journal appends
// made through the Tx become visible together on Commit, and Rollback
// discards all of them. Only one Tx is open at a time per backend, matching
// the host engine's single-writer model.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single connection: SQLite supports one writer; reads issued on the
//     Backend while a Tx is open wait for it to finish
//
// # Deterministic Reads
//
// Journal reads are ordered by seq ASC. Record iteration is ordered by
// id ASC so verification output is stable across runs.
package store
