// Package ir provides the foundational types for the wave-function registry.
//
// This package contains type definitions, canonical encoding, and identity
// derivation only. All other internal packages import ir; ir imports nothing
// internal.
//
// Key design constraints:
//   - Record identity is content-addressed: RecordID = H(domain || 0x00 || canonical JSON)
//   - Canonical JSON follows RFC 8785 (sorted keys, NFC strings, no HTML escaping)
//   - Account and record identifiers are fixed-width 32-byte values
//   - No floats in canonical values
//   - Logical sequence numbers only, never wall-clock timestamps
package ir
