// Package config loads the deployment configuration of a bridge from a CUE
// file validated against an embedded schema.
package config

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/viewbridge/internal/engine"
)

//go:embed schema.cue
var schemaSrc string

// Config is the decoded, validated configuration.
type Config struct {
	Policy      string `json:"policy"`
	Journal     string `json:"journal"`
	LogLevel    string `json:"log_level"`
	MetricsAddr string `json:"metrics_addr"`
}

// Error is a configuration error with its CUE position when one is known.
type Error struct {
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return e.Message
}

// Load reads and validates the CUE file at path.
func Load(path string) (Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, src)
}

// Default returns the schema defaults.
func Default() Config {
	cfg, err := Parse("default.cue", nil)
	if err != nil {
		// The embedded schema is fixed; failing here is a build defect.
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return cfg
}

// Parse validates src, named filename in error positions, against the
// schema and decodes it. Fields not in the schema are rejected.
func Parse(filename string, src []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, wrap(err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return Config{}, wrap(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, wrap(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return Config{}, wrap(err)
	}
	return cfg, nil
}

// wrap converts a CUE error into an *Error carrying the first position.
func wrap(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Message: err.Error()}
	}
	first := errs[0]
	return &Error{Message: first.Error(), Pos: first.Position()}
}

// PhasePolicy returns the configured policy.
func (c Config) PhasePolicy() engine.PhasePolicy {
	p, err := engine.ParsePhasePolicy(c.Policy)
	if err != nil {
		return engine.PermissiveForward
	}
	return p
}

// Level returns the configured log level.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options maps the configuration onto engine options. The journal and the
// metrics endpoint need resources and are wired by the caller.
func (c Config) Options() []engine.Option {
	return []engine.Option{
		engine.WithPhasePolicy(c.PhasePolicy()),
	}
}
