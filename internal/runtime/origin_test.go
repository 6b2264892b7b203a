package runtime

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/registry"
)

var (
	accountA = ir.AccountID(bytes.Repeat([]byte{0xaa}, ir.IDSize))
	accountB = ir.AccountID(bytes.Repeat([]byte{0xbb}, ir.IDSize))
)

func TestEnsureSigned(t *testing.T) {
	got, err := EnsureSigned(Signed(accountA))
	require.NoError(t, err)
	assert.Equal(t, accountA, got)

	_, err = EnsureSigned(None())
	assert.True(t, registry.IsUnauthenticated(err))

	_, err = EnsureSigned(Origin{})
	assert.True(t, registry.IsUnauthenticated(err), "zero origin is unsigned")
}

func TestOrigin_String(t *testing.T) {
	assert.Equal(t, "none", None().String())
	assert.Equal(t, accountB.String(), Signed(accountB).String())
	assert.True(t, Signed(ir.AccountID{}).IsSigned(), "the zero account can still sign")
}

func TestCall_Info(t *testing.T) {
	info, err := NewAddWaveFunction(None(), nil).Info()
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000), info.Weight)
	assert.Equal(t, PaysNo, info.Pays)
	assert.Equal(t, "no", info.Pays.String())

	_, err = Call{ID: "c1", Name: "remove_wavefunction"}.Info()
	assert.True(t, IsUnknownCall(err))
	assert.Contains(t, err.Error(), "call=c1")
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"unauthenticated", registry.ErrUnauthenticated, "UNAUTHENTICATED"},
		{"too large", registry.NewPayloadTooLargeError(2000, 1024), "PAYLOAD_TOO_LARGE"},
		{"unknown call", NewUnknownCallError("", "x"), "UNKNOWN_CALL"},
		{"cancelled", fmt.Errorf("begin: %w", context.Canceled), CodeCancelled},
		{"other", assert.AnError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}
