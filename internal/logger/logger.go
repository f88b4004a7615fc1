package logger

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LoggerConfig defines the configuration for the logger.
type LoggerConfig struct {
	Level      string    // Log level (e.g., "info", "debug", "error")
	FilePath   string    // Path to the log file; appended to, rotated by size
	MaxSize    int       // Maximum size in megabytes before log rotation
	MaxBackups int       // Maximum number of old log files to retain
	MaxAge     int       // Maximum number of days to retain old log files
	Compress   bool      // Whether to compress rotated log files
	Console    bool      // Whether to also log to the console
	Stream     io.Writer // Console destination, stderr when nil
}

// NewLogger returns a new logrus.Logger configured according to the provided LoggerConfig.
// Entries are JSON lines; the file sink survives restarts and rotates by size.
func NewLogger(config LoggerConfig) (*logrus.Logger, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
			logrus.FieldKeyFunc:  "function",
		},
	})

	var writers []io.Writer
	if config.FilePath != "" {
		sink, err := fileSink(config)
		if err != nil {
			return nil, err
		}
		writers = append(writers, sink)
	}
	if config.Console || config.FilePath == "" {
		stream := config.Stream
		if stream == nil {
			// stdout belongs to command output and HTTP payloads
			stream = os.Stderr
		}
		writers = append(writers, stream)
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, nil
}

// fileSink opens the size-rotated log file, creating its directory.
func fileSink(config LoggerConfig) (io.Writer, error) {
	if err := os.MkdirAll(filepath.Dir(config.FilePath), 0o755); err != nil {
		return nil, err
	}
	return &lumberjack.Logger{
		Filename:   config.FilePath,
		MaxSize:    config.MaxSize,
		MaxBackups: config.MaxBackups,
		MaxAge:     config.MaxAge,
		Compress:   config.Compress,
	}, nil
}

// Level picks the effective level name: quiet wins over verbose, and both
// win over the configured level.
func Level(configured string, verbose, quiet bool) string {
	switch {
	case quiet:
		return "error"
	case verbose:
		return "debug"
	default:
		return configured
	}
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
