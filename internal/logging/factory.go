package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the logger backend and its output.
type Options struct {
	// Level is one of debug, info, warn, error.
	Level string
	// Format is text or json (slog), or zap.
	Format string
	// File enables size-based rotation into the given path instead of the
	// fallback writer.
	File      string
	MaxSizeMB int
	// LevelVar, when set, receives Level and stays live: changing it later
	// changes what the returned logger emits.
	LevelVar *slog.LevelVar
}

// New builds a Logger for opts. Output goes to fallback unless opts.File is
// set. The returned closer releases the rotating file, if any.
func New(opts Options, fallback io.Writer) (Logger, io.Closer, error) {
	w := fallback
	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		size := opts.MaxSizeMB
		if size <= 0 {
			size = 10
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    size,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		w = lj
		closer = lj
	}

	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	var leveler slog.Leveler = level
	if opts.LevelVar != nil {
		opts.LevelVar.Set(level)
		leveler = opts.LevelVar
	}

	switch strings.ToLower(opts.Format) {
	case "", "text":
		h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: leveler})
		return NewSlogLogger(slog.New(h)), closer, nil
	case "json":
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: leveler})
		return NewSlogLogger(slog.New(h)), closer, nil
	case "zap":
		enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		enabled := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
			return l >= zapLevel(leveler.Level())
		})
		core := zapcore.NewCore(enc, zapcore.AddSync(w), enabled)
		return NewZapLogger(zap.New(core)), closer, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
}

// ParseLevel maps debug, info, warn and error to slog levels. Empty is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

func zapLevel(l slog.Level) zapcore.Level {
	switch {
	case l <= slog.LevelDebug:
		return zapcore.DebugLevel
	case l <= slog.LevelInfo:
		return zapcore.InfoLevel
	case l <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
