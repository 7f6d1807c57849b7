package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/viewbridge/internal/harness"
	"github.com/roach88/viewbridge/internal/wire"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	Output string
}

// EncodeOutput is the JSON payload of the encode command.
type EncodeOutput struct {
	Output  string `json:"output"`
	Records int    `json:"records"`
	Bytes   int64  `json:"bytes"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <scenario.yaml>",
		Short: "Encode a scenario's patches and events as a wire stream",
		Long: `Encode the update, subview, remove and event steps of a scenario as
length-prefixed wire records, in step order. Confirm, register and
unregister steps have no wire form and are skipped.

Examples:
  viewbridge encode scenarios/drag.yaml -o drag.bin`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output stream path (required)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runEncode(opts *EncodeOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}
	records, err := harness.Records(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to convert scenario", err)
	}

	f, err := os.Create(opts.Output)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create output", err)
	}
	defer f.Close()

	w := wire.NewWriter(f)
	for i, rec := range records {
		if err := writeRecord(w, rec); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to encode record %d", i), err)
		}
		out.VerboseLog("record %d: %s", i, describeRecord(rec))
	}
	if err := w.Flush(); err != nil {
		return WrapExitError(ExitCommandError, "failed to write output", err)
	}
	info, err := f.Stat()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to stat output", err)
	}

	return out.Success(EncodeOutput{Output: opts.Output, Records: w.Count(), Bytes: info.Size()},
		func(tw io.Writer) {
			fmt.Fprintf(tw, "Encoded %d records (%d bytes) to %s\n", w.Count(), info.Size(), opts.Output)
		})
}

func writeRecord(w *wire.Writer, rec wire.Record) error {
	if rec.Kind == wire.KindPatch {
		return w.WritePatch(rec.Patch)
	}
	return w.WriteEvent(rec.Event)
}
