package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"webhookrelay/internal/config"
)

// New creates the process logger from the logging configuration.
// The returned closer flushes the rotating file, if one is used.
func New(cfg config.LoggingConfig) (zerolog.Logger, io.Closer) {
	zerolog.TimeFieldFormat = time.RFC3339

	writer, closer := newWriter(cfg)
	if cfg.Format == "console" {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339, NoColor: closer != nil}
	}

	logger := zerolog.New(writer).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("service", "webhook-relay").
		Logger()

	if closer == nil {
		closer = nopCloser{}
	}
	return logger, closer
}

// ParseLevel maps a config level to zerolog, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func newWriter(cfg config.LoggingConfig) (io.Writer, io.Closer) {
	switch cfg.Output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}

	fileLogger := &lumberjack.Logger{
		Filename:   cfg.Output,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   true,
	}
	return fileLogger, fileLogger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
