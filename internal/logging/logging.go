package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/yokie-karaoke/yokie-server/internal/config"
)

const timeFormat = "2006-01-02 15:04:05"

// Apply sets the global log level and output writers (console + optional rotating file).
// File logging is enabled only when cfg.File is set.
func Apply(cfg config.LogConfig) {
	SetLevel(cfg.Level)
	log.Logger = New(os.Stdout, cfg)
}

// New builds a logger writing to console and, when configured, to a rotating file
func New(console io.Writer, cfg config.LogConfig) zerolog.Logger {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}

	if cfg.File == "" {
		return zerolog.New(consoleOutput).With().Timestamp().Logger()
	}

	if err := ensureLogDir(cfg.File); err != nil {
		logger := zerolog.New(consoleOutput).With().Timestamp().Logger()
		logger.Error().Err(err).Str("path", cfg.File).Msg("Failed to prepare log directory; logging to console only")
		return logger
	}

	fileWriter := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    positiveOr(cfg.MaxSizeMB, config.DefaultLogMaxSizeMB),
		MaxBackups: max(cfg.MaxBackups, 0),
		MaxAge:     max(cfg.MaxAgeDays, 0),
		Compress:   cfg.Compress,
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	multi := zerolog.MultiLevelWriter(consoleOutput, fileConsole)
	return zerolog.New(multi).With().Timestamp().Logger()
}

// SetLevel sets the global log level. Unknown levels fall back to info.
func SetLevel(level string) {
	zerolog.SetGlobalLevel(ParseLevel(level))
}

// ParseLevel maps a level name to a zerolog level
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func positiveOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
