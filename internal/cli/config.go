package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/viewbridge/internal/config"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config [file.cue]",
		Short: "Validate a config file and print the effective configuration",
		Long: `Validate a CUE config file against the built-in schema and print the
effective configuration, defaults filled in. Without a file the defaults
are printed.

Exit codes:
  0 - Config is valid
  2 - Config is invalid or unreadable

Examples:
  viewbridge config
  viewbridge config bridge.cue --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runConfig(rootOpts, path, cmd)
		},
	}
	return cmd
}

func runConfig(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts, cmd)

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return WrapExitError(ExitCommandError, "invalid config", err)
		}
		out.VerboseLog("loaded %s", path)
	}

	return out.Success(cfg, func(w io.Writer) {
		fmt.Fprintf(w, "policy:       %s\n", cfg.Policy)
		fmt.Fprintf(w, "log_level:    %s\n", cfg.LogLevel)
		fmt.Fprintf(w, "journal:      %s\n", orNone(cfg.Journal))
		fmt.Fprintf(w, "metrics_addr: %s\n", orNone(cfg.MetricsAddr))
	})
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
