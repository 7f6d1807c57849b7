package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/viewbridge/internal/engine"
	"github.com/roach88/viewbridge/internal/ir"
	"github.com/roach88/viewbridge/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	View     string // optional - print this view's patch history
}

// ReplayNode is one view of the rebuilt tree.
type ReplayNode struct {
	View     string   `json:"view"`
	Kind     string   `json:"kind"`
	Parent   string   `json:"parent,omitempty"`
	Children []string `json:"children"`
}

// HistoryEntry is one journaled patch touching a view.
type HistoryEntry struct {
	Seq   int64  `json:"seq"`
	Patch string `json:"patch"`
	Error string `json:"error,omitempty"`
}

// ReplayOutput holds the replay result.
type ReplayOutput struct {
	Patches         int            `json:"patches"`
	FailedPatches   int            `json:"failed_patches"`
	Events          int            `json:"events"`
	DroppedEvents   int            `json:"dropped_events"`
	PhaseViolations int            `json:"phase_violations"`
	Tree            []ReplayNode   `json:"tree"`
	Divergences     []string       `json:"divergences"`
	History         []HistoryEntry `json:"history,omitempty"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild the tree from a journal and verify it",
		Long: `Rebuild the view tree by re-applying every journaled patch and id
release in seq order, then print the tree and journal statistics.

Each replayed patch is checked against the error code recorded when it was
first applied; any difference is reported as a divergence.

Exit codes:
  0 - Replay reproduced the journal
  1 - One or more patches diverged
  2 - Command error (journal not found, etc.)

Examples:
  viewbridge replay --db ./bridge.db
  viewbridge replay --db ./bridge.db --view 6f1c...
  viewbridge replay --db ./bridge.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.View, "view", "", "print the patch history of one view")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var view ir.ViewID
	if opts.View != "" {
		var err error
		if view, err = ir.ParseViewID(opts.View); err != nil {
			return WrapExitError(ExitCommandError, "invalid --view", err)
		}
	}

	if _, err := os.Stat(opts.Database); err != nil {
		return WrapExitError(ExitCommandError, "journal not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	defer st.Close()

	res, err := engine.Replay(ctx, st, engine.WithLogger(out.Logger(slog.LevelWarn)))
	if err != nil {
		return WrapExitError(ExitCommandError, "replay failed", err)
	}
	stats, err := st.ReadStats(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read journal stats", err)
	}

	result := ReplayOutput{
		Patches:         stats.Patches,
		FailedPatches:   stats.FailedPatches,
		Events:          stats.Events,
		DroppedEvents:   stats.DroppedEvents,
		PhaseViolations: stats.PhaseViolations,
		Tree:            replayTree(res.Bridge.Tree().Snapshot()),
		Divergences:     make([]string, 0, len(res.Divergences)),
	}
	for _, d := range res.Divergences {
		result.Divergences = append(result.Divergences, d.String())
	}

	if opts.View != "" {
		recs, err := st.ReadPatchesForView(ctx, view)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read view history", err)
		}
		result.History = make([]HistoryEntry, 0, len(recs))
		for _, r := range recs {
			result.History = append(result.History, HistoryEntry{
				Seq:   r.Seq,
				Patch: describePatch(r.Patch),
				Error: string(r.ErrorCode),
			})
		}
	}
	out.VerboseLog("replayed %d patches, %d views", stats.Patches, len(result.Tree))

	text := func(w io.Writer) { writeReplayText(w, result, opts.View != "") }
	if len(result.Divergences) > 0 {
		msg := fmt.Sprintf("replay diverged at %d patches", len(result.Divergences))
		if err := out.Failure(CodeDiverged, msg, result, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, msg)
	}
	return out.Success(result, text)
}

func replayTree(nodes []ir.Node) []ReplayNode {
	tree := make([]ReplayNode, 0, len(nodes))
	for _, n := range nodes {
		rn := ReplayNode{
			View:     n.ID.String(),
			Kind:     n.Kind.String(),
			Children: make([]string, 0, len(n.Children)),
		}
		if !n.IsRoot() {
			rn.Parent = n.Parent.String()
		}
		for _, c := range n.Children {
			rn.Children = append(rn.Children, c.String())
		}
		tree = append(tree, rn)
	}
	return tree
}

func writeReplayText(w io.Writer, result ReplayOutput, history bool) {
	fmt.Fprintf(w, "Journal: %d patches (%d failed), %d events (%d dropped, %d phase violations)\n",
		result.Patches, result.FailedPatches, result.Events, result.DroppedEvents, result.PhaseViolations)

	fmt.Fprintln(w, "Tree:")
	if len(result.Tree) == 0 {
		fmt.Fprintln(w, "  (empty)")
	}
	depth := make(map[string]int, len(result.Tree))
	for _, n := range result.Tree {
		d := 0
		if n.Parent != "" {
			d = depth[n.Parent] + 1
		}
		depth[n.View] = d
		fmt.Fprintf(w, "  %s%s (%s)\n", strings.Repeat("  ", d), n.View, n.Kind)
	}

	if history {
		fmt.Fprintln(w, "History:")
		for _, h := range result.History {
			if h.Error != "" {
				fmt.Fprintf(w, "  @%d %s -> %s\n", h.Seq, h.Patch, h.Error)
			} else {
				fmt.Fprintf(w, "  @%d %s\n", h.Seq, h.Patch)
			}
		}
	}

	for _, d := range result.Divergences {
		fmt.Fprintf(w, "✗ %s\n", d)
	}
}
