package runtime

import (
	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/registry"
)

// Origin is the verified identity a call was submitted under.
// The zero value is an unsigned origin.
type Origin struct {
	account ir.AccountID
	signed  bool
}

// Signed returns the origin of a call signed by account.
func Signed(account ir.AccountID) Origin {
	return Origin{account: account, signed: true}
}

// None returns the unsigned origin.
func None() Origin {
	return Origin{}
}

// IsSigned reports whether o carries an account.
func (o Origin) IsSigned() bool {
	return o.signed
}

// String returns the account in text form, or "none".
func (o Origin) String() string {
	if !o.signed {
		return "none"
	}
	return o.account.String()
}

// EnsureSigned returns the signing account, or registry.ErrUnauthenticated.
func EnsureSigned(o Origin) (ir.AccountID, error) {
	if !o.signed {
		return ir.AccountID{}, registry.ErrUnauthenticated
	}
	return o.account, nil
}
