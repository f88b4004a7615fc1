package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/config"
	"pdf-compressor-go/internal/engine"
	"pdf-compressor-go/internal/logger"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// errFailures makes the process exit non-zero after a run with failed files.
var errFailures = errors.New("one or more files failed to compress")

// cliContext carries the persistent flags and the process streams.
type cliContext struct {
	configFile string
	verbose    bool
	quiet      bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cli := &cliContext{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := newCompressCommand(cli)
	rootCmd.Version = version
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&cli.configFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&cli.verbose, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&cli.quiet, "quiet", false, "suppress non-error output")

	rootCmd.AddCommand(newResizeCommand(cli))
	rootCmd.AddCommand(newServeCommand(cli))
	rootCmd.AddCommand(newCheckCommand(cli))
	rootCmd.AddCommand(newQualitiesCommand(cli))
	rootCmd.AddCommand(newInteractiveCommand(cli))

	return rootCmd
}

// load reads the configuration and builds the logger.
func (c *cliContext) load() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig(c.configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, c.setupLogger(cfg), nil
}

// setupLogger configures and returns a logger.
func (c *cliContext) setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      logger.Level(cfg.Logging.Level, c.verbose, c.quiet),
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    cfg.Logging.Console && !c.quiet,
		Stream:     c.stderr,
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		fmt.Fprintf(c.stderr, "Warning: file logging disabled: %v\n", err)
		log = logrus.New()
		log.SetOutput(c.stderr)
		log.SetLevel(logrus.InfoLevel)
	}
	return log
}

// newCompressor resolves the engine once and binds it to a compressor.
func (c *cliContext) newCompressor(ctx context.Context, cfg *config.Config, log *logrus.Logger) *compressor.DefaultCompressor {
	handle := engine.Resolve(ctx, engine.DefaultCandidates(cfg.Engine.Command))
	if handle.Resolved {
		log.WithField("version", handle.Version).Debugf("Using Ghostscript command %s", handle.Command)
	} else {
		log.Warnf("Ghostscript not found (tried %s); jobs will fail until it is installed", handle.Command)
	}
	return compressor.NewDefaultCompressor(handle, cfg.CompressorOptions(), log)
}

// printf writes command output unless --quiet is set.
func (c *cliContext) printf(format string, args ...any) {
	if c.quiet {
		return
	}
	fmt.Fprintf(c.stdout, format, args...)
}

// dirExists returns true if the given path exists and is a directory.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
