package logger

import (
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options defines parameters for logger creation.
type Options struct {
	Env          string
	ConsoleLevel string // Level for console output (default: info)
	FileLevel    string // Level for file output (default: debug)
	File         string
	App          string
}

// sensitiveKeys are always masked, whatever their value.
var sensitiveKeys = []string{"authorization", "cookie", "password", "token", "secret"}

var closers sync.Map

// New creates configured slog.Logger instance. The console always gets a
// tint handler; a JSON file handler rotated by lumberjack is added when
// File is set.
func New(o Options) *slog.Logger {
	consoleLvl := levelFromString(o.ConsoleLevel, slog.LevelInfo)
	fileLvl := levelFromString(o.FileLevel, slog.LevelDebug)

	timeFormat := time.RFC3339
	if o.Env == "dev" {
		timeFormat = time.Kitchen
	}
	console := NewRedactingHandler(tint.NewHandler(os.Stdout, &tint.Options{
		Level:       consoleLvl,
		TimeFormat:  timeFormat,
		ReplaceAttr: colorFailures,
	}), sensitiveKeys)

	var h slog.Handler = console
	var closer func() error
	if o.File != "" {
		w := &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    5,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		file := NewRedactingHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: fileLvl}), sensitiveKeys)
		h = NewMultiHandler(console, file)
		closer = w.Close
	}

	l := slog.New(h).With(
		slog.String("app", o.App),
		slog.String("env", o.Env),
	)
	if closer != nil {
		closers.Store(l, closer)
	}
	return l
}

// Close releases the log file of a logger built by New, if it has one.
func Close(logger *slog.Logger) error {
	if c, ok := closers.LoadAndDelete(logger); ok {
		return c.(func() error)()
	}
	return nil
}

func levelFromString(s string, def slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return def
	}
}
