// Package testutil holds deterministic fixtures shared by tests and the
// scenario harness.
package testutil

import (
	"bytes"

	"github.com/roach88/wavefn/internal/ir"
)

// Fixture accounts. Every byte of AccountA is 0xaa, of AccountB 0xbb.
var (
	AccountA = ir.AccountID(bytes.Repeat([]byte{0xaa}, ir.IDSize))
	AccountB = ir.AccountID(bytes.Repeat([]byte{0xbb}, ir.IDSize))
)

// Zeros returns an n-byte all-zero payload.
func Zeros(n int) []byte {
	return make([]byte, n)
}

// MustAccount parses a hex account id or panics.
func MustAccount(s string) ir.AccountID {
	a, err := ir.ParseAccountID(s)
	if err != nil {
		panic(err)
	}
	return a
}
