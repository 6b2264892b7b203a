package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/wavefn/internal/eventbus"
	"github.com/roach88/wavefn/internal/ir"
	"github.com/roach88/wavefn/internal/runtime"
)

// maxLineBytes bounds one input line: a hex payload plus framing.
const maxLineBytes = 16 << 20

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	// CallIDs allows overriding the call id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	CallIDs runtime.CallIDGenerator
}

// callLine is one newline-delimited JSON call read by run.
type callLine struct {
	Call     string `json:"call,omitempty"`
	Author   string `json:"author,omitempty"`
	Function string `json:"function"`
}

// rejectionLine reports a call that did not commit.
type rejectionLine struct {
	Type    string `json:"type"`
	Line    int    `json:"line"`
	CallID  string `json:"call_id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// eventLineJSON reports a committed event.
type eventLineJSON struct {
	Type string `json:"type"`
	eventView
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the engine and stream calls from stdin",
		Long: `Start the single-writer engine and read newline-delimited JSON calls
from stdin:

  {"author":"0xaa…aa","function":"0x68656c6c6f"}

Omitting author submits an unsigned call. Committed events are printed from the
event bus as they are published; rejected calls are reported with their error
code. The engine drains queued calls and exits at end of input, or stops on
SIGINT/SIGTERM.

Example:
  wavefn run --db ./wavefn.db < calls.ndjson`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	sess, err := openSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			sess.logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Parent context cancelled (e.g., from test)
		}
	}()

	bus := eventbus.New(sess.logger)
	defer bus.Close()

	engineOpts := []runtime.Option{runtime.WithBus(bus)}
	if opts.CallIDs != nil {
		engineOpts = append(engineOpts, runtime.WithCallIDs(opts.CallIDs))
	}
	eng := sess.newEngine(engineOpts...)

	out := &lockedWriter{w: cmd.OutOrStdout()}
	jsonOut := opts.Format == "json"

	subCtx, unsubscribe := context.WithCancel(context.Background())
	events, _ := bus.Subscribe(subCtx)
	printed := make(chan struct{})
	go func() {
		defer close(printed)
		for ev := range events {
			out.event(newEventView(ev), jsonOut)
		}
	}()

	runErr := make(chan error, 1)
	go func() {
		runErr <- eng.Run(ctx)
	}()

	sess.logger.Info("engine started", "driver", sess.cfg.Database.Driver, "max_bytes", eng.MaxBytes(), "hasher", eng.Hasher())

	// The feeder may block on stdin, so a signal must not wait for it.
	fed := make(chan feedResult, 1)
	go func() {
		stats, err := feedCalls(ctx, eng, cmd.InOrStdin(), out, jsonOut)
		fed <- feedResult{stats: stats, err: err}
	}()

	var res feedResult
	select {
	case res = <-fed:
	case <-ctx.Done():
	}

	eng.Stop()
	err = <-runErr

	// Run has returned, so every event is already published.
	unsubscribe()
	<-printed

	sess.logger.Info("engine stopped", "committed", res.stats.committed, "rejected", res.stats.rejected)

	if res.err != nil {
		return WrapExitError(ExitCommandError, "failed to read calls", res.err)
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}
	return nil
}

type feedStats struct {
	committed int
	rejected  int
}

type feedResult struct {
	stats feedStats
	err   error
}

// feedCalls enqueues one call per input line and waits for each receipt, so
// calls commit in input order.
func feedCalls(ctx context.Context, eng *runtime.Engine, in io.Reader, out *lockedWriter, jsonOut bool) (feedStats, error) {
	var stats feedStats

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		call, err := parseCallLine(text)
		if err != nil {
			stats.rejected++
			out.rejection(rejectionLine{Type: "rejected", Line: line, Code: "INVALID_INPUT", Message: err.Error()}, jsonOut)
			continue
		}

		reply, ok := eng.Enqueue(call)
		if !ok {
			return stats, nil
		}

		var receipt runtime.Receipt
		select {
		case receipt = <-reply:
		case <-ctx.Done():
			return stats, nil
		}

		if receipt.OK() {
			stats.committed++
			continue
		}
		stats.rejected++
		out.rejection(rejectionLine{
			Type:    "rejected",
			Line:    line,
			CallID:  receipt.CallID,
			Code:    runtime.ErrorCode(receipt.Err),
			Message: receipt.Err.Error(),
		}, jsonOut)
	}

	return stats, scanner.Err()
}

// parseCallLine decodes one input line into a Call.
func parseCallLine(text string) (runtime.Call, error) {
	var cl callLine
	dec := json.NewDecoder(strings.NewReader(text))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cl); err != nil {
		return runtime.Call{}, fmt.Errorf("invalid JSON: %w", err)
	}

	function, err := ir.DecodeHex(cl.Function)
	if err != nil {
		return runtime.Call{}, fmt.Errorf("function: %w", err)
	}

	origin := runtime.None()
	if cl.Author != "" {
		author, err := ir.ParseAccountID(cl.Author)
		if err != nil {
			return runtime.Call{}, fmt.Errorf("author: %w", err)
		}
		origin = runtime.Signed(author)
	}

	call := runtime.NewAddWaveFunction(origin, function)
	if cl.Call != "" {
		call.Name = cl.Call
	}
	return call, nil
}

// lockedWriter serializes output from the event printer and the call feeder.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) event(ev eventView, jsonOut bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if jsonOut {
		_ = json.NewEncoder(l.w).Encode(eventLineJSON{Type: "event", eventView: ev})
		return
	}
	fmt.Fprintf(l.w, "%s %s\n", passMark(), eventLine(ev))
}

func (l *lockedWriter) rejection(r rejectionLine, jsonOut bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if jsonOut {
		_ = json.NewEncoder(l.w).Encode(r)
		return
	}
	fmt.Fprintf(l.w, "%s line %d: %s: %s\n", failMark(), r.Line, r.Code, r.Message)
}
