package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/wavefn/internal/ir"
)

// payloadFlags selects a wave-function payload source.
type payloadFlags struct {
	File string
	Data string
	Hex  string
}

func (p *payloadFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.File, "file", "", "read payload from file (- for stdin)")
	cmd.Flags().StringVar(&p.Data, "data", "", "payload as literal text")
	cmd.Flags().StringVar(&p.Hex, "hex", "", "payload as hex bytes (0x optional)")
	cmd.MarkFlagsMutuallyExclusive("file", "data", "hex")
	cmd.MarkFlagsOneRequired("file", "data", "hex")
}

// read returns the payload bytes. stdin is used for --file -.
func (p *payloadFlags) read(stdin io.Reader) ([]byte, error) {
	switch {
	case p.File == "-":
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return b, nil
	case p.File != "":
		b, err := os.ReadFile(p.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read payload file: %w", err)
		}
		return b, nil
	case p.Hex != "":
		b, err := ir.DecodeHex(p.Hex)
		if err != nil {
			return nil, fmt.Errorf("invalid --hex: %w", err)
		}
		return b, nil
	default:
		return []byte(p.Data), nil
	}
}
