package logger

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the level, encoding and destination of a logger.
type Options struct {
	Level      string // DEBUG, INFO, WARN, ERROR
	Format     string // json, text
	OutputPath string // stdout or a file path
}

// New builds a zap logger. The returned io.Closer releases the log file when
// OutputPath names one; it is a no-op for stdout.
func New(opts Options) (*zap.Logger, io.Closer, error) {
	ws, closer, err := buildWriteSyncer(opts.OutputPath)
	if err != nil {
		return nil, nil, err
	}

	core := zapcore.NewCore(buildEncoder(opts.Format), ws, zap.NewAtomicLevelAt(ParseLevel(opts.Level)))
	log := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return log, closer, nil
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func buildEncoder(format string) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if strings.EqualFold(format, "json") {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func buildWriteSyncer(path string) (zapcore.WriteSyncer, io.Closer, error) {
	if path == "" || strings.EqualFold(path, "stdout") {
		return zapcore.AddSync(os.Stdout), nopCloser{}, nil
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return zapcore.AddSync(file), file, nil
}

func ParseLevel(level string) zapcore.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zapcore.DebugLevel
	case "WARN":
		return zapcore.WarnLevel
	case "ERROR":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
