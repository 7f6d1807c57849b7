package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/roach88/viewbridge/internal/config"
	"github.com/roach88/viewbridge/internal/engine"
	"github.com/roach88/viewbridge/internal/harness"
	"github.com/roach88/viewbridge/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Config      string
	Journal     string
	MetricsAddr string
}

// RunOutput is the JSON payload of the run command.
type RunOutput struct {
	Scenario string `json:"scenario"`
	*harness.Result
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a scenario against a fresh bridge",
		Long: `Run a scenario against a fresh bridge and print its trace and final tree.

Settings come from the CUE config file, if given; --journal and
--metrics-addr override it. With a journal every patch, event and id
release is recorded for replay. With a metrics address the Prometheus
endpoint stays up after the scenario until interrupted.

Exit codes:
  0 - Scenario passed
  1 - An expectation or assertion failed
  2 - Command error (unreadable scenario, bad config, etc.)

Examples:
  viewbridge run scenarios/remove_own_view.yaml
  viewbridge run --journal bridge.db scenarios/drag.yaml
  viewbridge run --config bridge.cue --metrics-addr :9090 scenarios/drag.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Config, "config", "", "path to a CUE config file")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "path to a SQLite journal to record into")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	return cmd
}

func runScenario(opts *RunOptions, path string, cmd *cobra.Command) error {
	out := formatter(opts.RootOptions, cmd)

	cfg := config.Default()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Load(opts.Config); err != nil {
			return WrapExitError(ExitCommandError, "failed to load config", err)
		}
	}
	if opts.Journal != "" {
		cfg.Journal = opts.Journal
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}
	logger := out.Logger(cfg.Level())

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	engineOpts := append(cfg.Options(), engine.WithLogger(logger))

	if cfg.Journal != "" {
		st, err := openEmptyJournal(ctx, cfg.Journal)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing journal", "error", closeErr)
			}
		}()
		engineOpts = append(engineOpts, engine.WithJournal(st))
	}

	reg := prometheus.NewRegistry()
	engineOpts = append(engineOpts, engine.WithMetrics(engine.NewMetrics(reg)))

	var srv *http.Server
	if cfg.MetricsAddr != "" {
		var addr string
		srv, addr, err = serveMetrics(cfg.MetricsAddr, reg, logger)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start metrics endpoint", err)
		}
		logger.Info("metrics endpoint listening", "addr", addr)
	}

	logger.Info("running scenario", "name", scenario.Name, "steps", len(scenario.Steps), "policy", cfg.Policy)
	result, err := harness.Run(scenario, engineOpts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if srv != nil {
		out.VerboseLog("Scenario complete. Serving metrics; press Ctrl-C to stop.")
		waitForSignal(ctx)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics endpoint shutdown", "error", err)
		}
	}

	data := RunOutput{Scenario: scenario.Name, Result: result}
	text := func(w io.Writer) { writeRunText(w, scenario.Name, result) }
	if !result.Pass {
		if err := out.Failure(CodeScenarioFail, fmt.Sprintf("scenario %s failed", scenario.Name), data, text); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %s failed", scenario.Name))
	}
	return out.Success(data, text)
}

// openEmptyJournal opens a journal and refuses one that already has
// records: a fresh bridge would reuse their seqs.
func openEmptyJournal(ctx context.Context, path string) (*store.Store, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open journal", err)
	}
	last, err := st.LastSeq(ctx)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
	}
	if last > 0 {
		st.Close()
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("journal %s already holds records up to seq %d", path, last))
	}
	return st, nil
}

// serveMetrics starts the Prometheus endpoint on addr. The listener is
// bound before returning so address errors surface immediately.
func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics endpoint failed", "error", err)
		}
	}()
	return srv, ln.Addr().String(), nil
}

// waitForSignal blocks until ctx is done or the process is interrupted.
func waitForSignal(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		slog.Info("received signal, shutting down", "signal", sig)
	case <-ctx.Done():
	}
}

func writeRunText(w io.Writer, name string, result *harness.Result) {
	status := "PASS"
	if !result.Pass {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s %s (%d delivered, %d dropped)\n", status, name, result.Delivered, result.Dropped)

	for _, e := range result.Trace {
		fmt.Fprintf(w, "  %s\n", formatEntry(e))
	}

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

	for _, e := range result.Errors {
		fmt.Fprintf(w, "  ✗ %s\n", e)
	}
}

func formatEntry(e harness.TraceEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s %s", e.Step, e.Op, e.View)
	if e.Child != "" {
		fmt.Fprintf(&b, " <- %s", e.Child)
	}
	if e.Category != "" {
		fmt.Fprintf(&b, "/%s", e.Category)
	}
	if e.Phase != "" {
		fmt.Fprintf(&b, " %s", e.Phase)
	}
	fmt.Fprintf(&b, " -> %s", e.Result)
	if e.Violation != "" {
		fmt.Fprintf(&b, " (%s)", e.Violation)
	}
	if e.Seq != 0 {
		fmt.Fprintf(&b, " @%d", e.Seq)
	}
	return b.String()
}
