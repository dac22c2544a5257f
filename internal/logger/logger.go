package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging interface used across the application
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	WithFields(keysAndValues ...interface{}) Logger
}

// Config holds logger settings
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// Option configures a logger
type Option func(*Config)

// WithLevel sets the minimum log level (debug, info, warn, error)
func WithLevel(level string) Option {
	return func(c *Config) { c.Level = level }
}

// WithFormat sets the output encoding (text or json)
func WithFormat(format string) Option {
	return func(c *Config) { c.Format = format }
}

// WithOutput redirects log output, stderr by default
func WithOutput(w io.Writer) Option {
	return func(c *Config) { c.Output = w }
}

// New creates a logger writing to stderr at info level unless told otherwise
func New(opts ...Option) (Logger, error) {
	config := &Config{Level: "info", Format: "text", Output: os.Stderr}
	for _, opt := range opts {
		opt(config)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	encoder, err := newEncoder(config.Format)
	if err != nil {
		return nil, err
	}
	return newLoggerWithCore(zapcore.NewCore(encoder, zapcore.AddSync(config.Output), level)), nil
}

// NewNop returns a logger that discards everything
func NewNop() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar()}
}

func newEncoder(format string) (zapcore.Encoder, error) {
	encoding := zap.NewProductionEncoderConfig()
	encoding.TimeKey = "time"
	encoding.EncodeTime = zapcore.ISO8601TimeEncoder

	switch format {
	case "json":
		return zapcore.NewJSONEncoder(encoding), nil
	case "text":
		encoding.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewConsoleEncoder(encoding), nil
	default:
		return nil, fmt.Errorf("invalid format: %s", format)
	}
}

func newLoggerWithCore(core zapcore.Core) Logger {
	return &zapLogger{sugar: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *zapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *zapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// WithFields returns a child logger that always carries the given fields
func (l *zapLogger) WithFields(keysAndValues ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(keysAndValues...)}
}
