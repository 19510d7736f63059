package commands

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/events"
	ferrors "git.home.luguber.info/inful/sitebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/metrics"
	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "SITEBUILDER_LOG_LEVEL"

// Global carries state shared by every command.
type Global struct {
	Logger *slog.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build BuildCmd `cmd:"" help:"Build the site from a content directory"`
	Init  InitCmd  `cmd:"" help:"Write an example configuration file"`
	Watch WatchCmd `cmd:"" help:"Build, then rebuild whenever sources change"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	if g.Stdout == nil {
		g.Stdout = os.Stdout
	}
	if g.Stderr == nil {
		g.Stderr = os.Stderr
	}
	g.Logger = slog.New(slog.NewTextHandler(g.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(g.Logger)
	return nil
}

// parseLogLevel returns debug for --verbose, otherwise the level named by
// SITEBUILDER_LOG_LEVEL, defaulting to info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv(LogLevelEnv))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SiteFlags are shared by the commands that build a site.
type SiteFlags struct {
	Src string `arg:"" help:"Content directory" type:"path"`
	Dst string `arg:"" help:"Output directory" type:"path"`

	Layouts  string `help:"Layouts directory (default <src>/_layouts)" type:"path"`
	Config   string `short:"c" help:"Configuration file (default <src>/sitebuilder.yaml)" type:"path"`
	Workers  int    `help:"Parallel workers (default: number of CPUs)"`
	Drafts   bool   `help:"Include documents marked draft"`
	StateDir string `name:"state-dir" help:"Directory for the build cache, report and metrics" type:"path"`
}

// LoadConfig reads the configuration and applies flag overrides. An explicit
// --config must exist; the default file is optional.
func (f *SiteFlags) LoadConfig() (*config.Config, error) {
	path := f.Config
	if path == "" {
		candidate := filepath.Join(f.Src, config.DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}

	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	cfg.Build.ContentDir = f.Src
	cfg.Build.OutputDir = f.Dst
	if f.Layouts != "" {
		cfg.Build.LayoutsDir = f.Layouts
	}
	if f.Workers > 0 {
		cfg.Build.Workers = f.Workers
	}
	if f.Drafts {
		cfg.Build.Drafts = true
	}
	if f.StateDir != "" {
		cfg.Build.StateDir = f.StateDir
	}
	cfg.ResolvePaths()
	return cfg, nil
}

// newService wires metrics and event publishing into a build service. The
// returned function releases the publisher.
func newService(cfg *config.Config, logger *slog.Logger) (*site.Service, func()) {
	opts := []site.Option{site.WithLogger(logger)}
	if cfg.Build.StateDir != "" {
		opts = append(opts, site.WithRecorder(metrics.NewPrometheusRecorder(prom.NewRegistry())))
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Events.NATSURL != "" {
		p, err := events.NewNATSPublisher(cfg.Events.NATSURL, cfg.Events.Subject, logger)
		if err != nil {
			logger.Warn("Build events disabled", logfields.Error(err))
		} else {
			publisher = p
		}
	}
	opts = append(opts, site.WithPublisher(publisher))

	closeFn := func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", logfields.Error(err))
		}
	}
	return site.NewService(cfg, opts...), closeFn
}

// printReport writes the summary to stdout and one line per failed document
// to stderr.
func printReport(g *Global, report *site.BuildReport) {
	if report == nil {
		return
	}
	_, _ = io.WriteString(g.Stdout, report.Summary()+"\n")
	for _, line := range report.FailureLines() {
		_, _ = io.WriteString(g.Stderr, line+"\n")
	}
}

// Exit maps err to a process exit code, printing it to stderr.
func Exit(g *Global, verbose bool, err error) int {
	return ferrors.NewCLIErrorAdapter(verbose, g.Logger).WithOutput(g.Stderr).Handle(err)
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
