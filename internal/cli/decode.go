package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/wire"
)

// DecodedRecord is one record of a decoded stream.
type DecodedRecord struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// DecodeFailure locates a record that did not decode.
type DecodeFailure struct {
	Index   int    `json:"index"`
	Offset  int64  `json:"offset"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DecodeOutput is the JSON payload of the decode command.
type DecodeOutput struct {
	Records  []DecodedRecord `json:"records"`
	Failures []DecodeFailure `json:"failures"`
	Bytes    int64           `json:"bytes"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <stream.bin>",
		Short: "Decode a wire stream and report bad records",
		Long: `Decode a length-prefixed wire stream record by record.

A record that fails to decode is reported with its index, byte offset and
error code, and decoding continues with the next record. A truncated frame
ends the stream.

Exit codes:
  0 - Every record decoded
  1 - One or more records failed to decode
  2 - Command error (unreadable file)

Examples:
  viewbridge decode drag.bin
  viewbridge decode drag.bin --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runDecode(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts, cmd)

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open stream", err)
	}
	defer f.Close()

	result, err := decodeStream(f)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read stream", err)
	}

	text := func(w io.Writer) { writeDecodeText(w, result) }
	if len(result.Failures) > 0 {
		msg := fmt.Sprintf("%d records failed to decode", len(result.Failures))
		if err := out.Failure(CodeDecodeFail, msg, result, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return out.Success(result, text)
}

// decodeStream reads every record of r. Per-record decode errors are
// collected; only I/O errors abort.
func decodeStream(r io.Reader) (DecodeOutput, error) {
	result := DecodeOutput{Records: []DecodedRecord{}, Failures: []DecodeFailure{}}
	rd := wire.NewReader(r)
	for index := 0; ; index++ {
		rec, err := rd.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var de *wire.DecodeError
		if errors.As(err, &de) {
			result.Failures = append(result.Failures, DecodeFailure{
				Index:   de.Index,
				Offset:  de.Offset,
				Code:    string(ir.CodeOf(de.Err)),
				Message: de.Err.Error(),
			})
			continue
		}
		if err != nil {
			return result, err
		}
		result.Records = append(result.Records, DecodedRecord{
			Index:  index,
			Kind:   rec.Kind.String(),
			Detail: describeRecord(rec),
		})
	}
	result.Bytes = rd.Offset()
	return result, nil
}

// describeRecord renders a record on one line.
func describeRecord(rec wire.Record) string {
	if rec.Kind == wire.KindPatch {
		return describePatch(rec.Patch)
	}
	ev := rec.Event
	s := fmt.Sprintf("event %s", ev.Route())
	if info, ok := ir.PhaseOf(ev.Payload); ok {
		s += " " + info.Name
	}
	return s
}

func describePatch(p ir.Patch) string {
	switch p := p.(type) {
	case ir.Update:
		return fmt.Sprintf("update %s %s", p.View, p.Props.Kind())
	case ir.Subview:
		return fmt.Sprintf("subview %s <- %s", p.Parent, p.Child)
	case ir.Remove:
		return fmt.Sprintf("remove %s", p.View)
	default:
		return fmt.Sprintf("patch %T", p)
	}
}

func writeDecodeText(w io.Writer, result DecodeOutput) {
	for _, r := range result.Records {
		fmt.Fprintf(w, "[%d] %s\n", r.Index, r.Detail)
	}
	for _, f := range result.Failures {
		fmt.Fprintf(w, "✗ record %d at offset %d: %s\n", f.Index, f.Offset, f.Message)
	}
	fmt.Fprintf(w, "%d records decoded, %d failed, %d bytes\n", len(result.Records), len(result.Failures), result.Bytes)
}
