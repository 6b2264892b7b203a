package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/testutil"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("UNAUTHENTICATED", "origin is not signed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "UNAUTHENTICATED", resp.Error.Code)
	assert.Equal(t, "origin is not signed", resp.Error.Message)
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]any{"size": 1025, "max": 1024}
	err := formatter.Error("PAYLOAD_TOO_LARGE", "payload exceeds max_bytes", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("All ids match")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "All ids match")
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("UNAUTHENTICATED", "origin is not signed", nil)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [UNAUTHENTICATED]")
	assert.Contains(t, buf.String(), "origin is not signed")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"call_id": "call-1"}
	err := formatter.Error("UNAUTHENTICATED", "origin is not signed", details)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [UNAUTHENTICATED]")
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			formatter.VerboseLog("Opening %s", "wavefn.db")

			if tt.wantLog {
				assert.Contains(t, buf.String(), "Opening wavefn.db")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestCLIResponse_JSON(t *testing.T) {
	resp := CLIResponse{
		Status: "ok",
		Data:   map[string]int{"count": 42},
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded CLIResponse
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "ok", decoded.Status)
}

func TestCLIError_JSON(t *testing.T) {
	cliErr := CLIError{
		Code:    "VERIFY_MISMATCH",
		Message: "1 problem(s) found",
		Details: []string{"record hashes elsewhere"},
	}

	data, err := json.Marshal(cliErr)
	require.NoError(t, err)

	var decoded CLIError
	err = json.Unmarshal(data, &decoded)
	require.NoError(t, err)
	assert.Equal(t, "VERIFY_MISMATCH", decoded.Code)
	assert.Equal(t, "1 problem(s) found", decoded.Message)
}

func TestOutputFormatter_Field(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	formatter.Field("size", 5)
	assert.Equal(t, "  size: 5\n", buf.String())
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("diagnostic")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "diagnostic")
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad path")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitFailure, "rejected"))))

	wrapped := WrapExitError(ExitCommandError, "failed to open database", errors.New("disk I/O error"))
	assert.Equal(t, "failed to open database: disk I/O error", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "disk I/O error")
}

func TestEventView(t *testing.T) {
	ev := ir.NewWaveFunctionAddedEvent("call-1", ir.WaveFunctionAdded{
		Function: []byte("hello"),
		Author:   testutil.AccountA,
		ID:       ir.MustRecordID(ir.DefaultHasher, ir.WaveFunction{Function: []byte("hello"), Author: testutil.AccountA}),
	})
	ev.Seq = 7

	view := newEventView(ev)
	assert.Equal(t, int64(7), view.Seq)
	assert.Equal(t, helloAliceID, view.ID)
	assert.Equal(t, "0x68656c6c6f", view.Function)
	assert.Equal(t, 5, view.Size)
	assert.Equal(t, "7 WaveFunctionAdded "+helloAliceID+" call=call-1 author="+alice+" size=5", eventLine(view))
}
