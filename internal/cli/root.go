package cli

import (
	"log/slog"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/stateforward/go-command"
	"github.com/stateforward/go-command/internal/config"
	"github.com/stateforward/go-command/internal/logging"
	"github.com/stateforward/go-command/pkg/telemetry"
)

type options struct {
	configPath string
	logLevel   string
	logFormat  string
	trace      bool

	config config.Config
	logger *slog.Logger
}

// NewRootCmd creates the root cobra command for commandctl.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "commandctl",
		Short: "Run and inspect command-based robot programs",
		Long:  "commandctl drives a command scheduler at a fixed tick rate and renders command trees.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load(cmd)
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "commandctl.yaml", "YAML config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().BoolVar(&opts.trace, "trace", false, "Emit OpenTelemetry spans for scheduler steps")

	root.AddCommand(
		newDemoCmd(opts),
		newDiagramCmd(opts),
	)
	return root
}

// load merges the config file with any flags set on the command line.
func (opts *options) load(cmd *cobra.Command) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	if flags.Changed("trace") {
		cfg.Trace = opts.trace
	}
	opts.config = cfg
	opts.logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

func (opts *options) scheduler(cmd *cobra.Command) *command.Scheduler {
	cfg := command.Config{Name: "commandctl", Logger: opts.logger}
	if opts.config.Trace {
		cfg.Trace = telemetry.NewTrace(otel.Tracer("github.com/stateforward/go-command/commandctl"))
	}
	return command.New(cmd.Context(), cfg)
}
