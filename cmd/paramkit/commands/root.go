// Package commands implements the paramkit command line.
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-paramkit"
	"github.com/goliatone/go-paramkit/pkg/extract"
	"github.com/goliatone/go-paramkit/pkg/normalize"
	"github.com/goliatone/go-paramkit/pkg/preview"
	"github.com/goliatone/go-paramkit/pkg/renderers/tui"
	"github.com/goliatone/go-paramkit/pkg/script"
	"github.com/goliatone/go-paramkit/pkg/session"
)

// Option customises the command tree, mostly for tests.
type Option func(*app)

// WithPromptDriver replaces the survey prompts used by tune.
func WithPromptDriver(driver tui.PromptDriver) Option {
	return func(a *app) {
		a.driver = driver
	}
}

// WithLogger skips logger construction from --verbose.
func WithLogger(logger *zap.Logger) Option {
	return func(a *app) {
		if logger != nil {
			a.logger = logger
			a.injectedLogger = true
		}
	}
}

type app struct {
	configPath string
	verbose    bool

	cfg            Config
	logger         *zap.Logger
	injectedLogger bool
	driver         tui.PromptDriver
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// NewRootCommand returns the paramkit root command with every subcommand
// attached.
func NewRootCommand(options ...Option) *cobra.Command {
	a := &app{cfg: defaultConfig(), logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(a)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "paramkit",
		Short: "paramkit extracts and tunes generative script parameters",
		Long: `paramkit reads a generative geometry script, extracts the parameters it
declares, classifies it as printable or animated, and lets you tune, render
and validate parameter values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			if a.injectedLogger {
				return nil
			}
			config := zap.NewProductionConfig()
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(
		newExtractCmd(a),
		newClassifyCmd(a),
		newTuneCmd(a),
		newPanelCmd(a),
		newValidateCmd(a),
	)
	return rootCmd
}

func (a *app) loader() script.Loader {
	options := []script.LoaderOption{script.WithMaxBytes(a.cfg.MaxBytes)}
	if a.cfg.HTTP.Enabled {
		options = append(options, script.WithHTTPFallback(a.cfg.HTTP.Timeout))
	}
	return paramkit.NewLoader(options...)
}

func (a *app) extractor() *extract.Extractor {
	labeler := normalize.KeyLabeler
	if a.cfg.Labels == labelsHuman {
		labeler = normalize.HumanLabeler
	}
	return extract.New(
		extract.WithLogger(a.logger),
		extract.WithNormalizer(normalize.New(normalize.WithLabeler(labeler), normalize.WithLogger(a.logger))),
	)
}

func (a *app) newSession() *session.Session {
	storeOptions := []preview.Option{preview.WithLogger(a.logger)}
	if a.cfg.Debounce > 0 {
		storeOptions = append(storeOptions, preview.WithDebounce(a.cfg.Debounce))
	}
	return session.New(
		session.WithLoader(a.loader()),
		session.WithExtractor(a.extractor()),
		session.WithStore(preview.New(storeOptions...)),
		session.WithLogger(a.logger),
	)
}

// load resolves a CLI location and loads it into sess.
func (a *app) load(ctx context.Context, sess *session.Session, location string) (session.State, error) {
	src, err := script.ParseSource(location)
	if err != nil {
		return session.State{}, err
	}
	return sess.Load(ctx, src)
}

func (a *app) format(flag string) string {
	if format := strings.TrimSpace(flag); format != "" {
		return format
	}
	return a.cfg.Output
}

// encode serialises value as JSON or YAML.
func encode(format string, value any) ([]byte, error) {
	switch format {
	case "json":
		out, err := json.MarshalIndent(value, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "yaml":
		return yaml.Marshal(value)
	default:
		return nil, fmt.Errorf("unsupported output format %q (want json or yaml)", format)
	}
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if strings.TrimSpace(path) == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "written to %s\n", path)
	return nil
}
