package main

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"vidgend/internal/config"
)

// options carries everything a subcommand needs after flag and config resolution.
type options struct {
	configPath string
	cfg        config.Config
	log        zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "vidgend",
		Short:         "Queued text-to-video generation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to config file (.yaml|.json|.toml)")
	pf.Bool("debug", false, "Debug verbosity and technical details in error messages (DEBUG_MODE)")
	pf.String("log-level", "", "Log level: debug|info|warn|error (LOG_LEVEL)")
	pf.String("log-format", "", "Log format: json|console (LOG_FORMAT)")
	pf.String("output-dir", "", "Directory for delivered videos (OUTPUT_DIR)")
	pf.String("temp-dir", "", "Staging directory for intermediates (TEMP_DIR)")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(".env", ".env.local"); err != nil {
			return err
		}
		cfg, err := config.Resolve(opts.configPath)
		if err != nil {
			return err
		}
		applyFlags(cmd, &cfg)
		cfg.Normalize()
		opts.cfg = cfg
		opts.log = newLogger(cfg, cmd.ErrOrStderr())
		return nil
	}

	serve := newServeCmd(opts)
	root.AddCommand(serve, newCleanupCmd(opts), newProbeCmd(opts))
	// bare `vidgend` serves
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())
	return root
}

// applyFlags overlays explicitly set flags; they win over file and environment.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	if fs.Changed("debug") {
		cfg.Debug, _ = fs.GetBool("debug")
	}
	str := func(name string, dst *string) {
		if fs.Changed(name) {
			*dst, _ = fs.GetString(name)
		}
	}
	num := func(name string, dst *int) {
		if fs.Changed(name) {
			*dst, _ = fs.GetInt(name)
		}
	}
	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	str("output-dir", &cfg.OutputDir)
	str("temp-dir", &cfg.TempDir)
	str("addr", &cfg.Addr)
	str("accelerator", &cfg.Accelerator)
	num("workers", &cfg.Workers)
	num("max-queue-size", &cfg.MaxQueueSize)
	num("max-files", &cfg.MaxFiles)
	num("max-age-days", &cfg.MaxFileAgeDays)
	if fs.Changed("cors-origins") {
		v, _ := fs.GetString("cors-origins")
		cfg.CORSOrigins = splitCSV(v)
		cfg.CORSEnabled = true
	}
}

// newLogger builds the process logger. Debug mode forces debug level.
func newLogger(cfg config.Config, w io.Writer) zerolog.Logger {
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		lvl = zerolog.InfoLevel
	}
	if cfg.Debug {
		lvl = zerolog.DebugLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "vidgend").Logger()
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
