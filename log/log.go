// Package log provides the structured, leveled logging API used by the
// finality detector and its supporting packages.
package log

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// mainLoggerName is the name of the global logger returned by GetLogger.
const mainLoggerName = "finality"

// logWriter is where loggers built by NewWithLevel write. Loggers from
// logtest do not use it; they write through the test's own tb.Log.
var logWriter io.Writer = os.Stdout

// Logger is the logging API exposed to callers.
type Logger interface {
	Info(msg string, args ...any)
	Debug(msg string, args ...any)
	Warning(msg string, args ...any)
	Error(msg string, args ...any)
	Panic(msg string, args ...any)
	With() FieldLogger
	WithFields(fields ...LoggableField) Log
	WithName(name string) Log
	WithContext(ctx context.Context) Log
}

// Log wraps a zap logger and implements Logger.
type Log struct {
	logger *zap.Logger
	name   string
}

var appLog = NewWithLevel(mainLoggerName, zap.NewAtomicLevelAt(zapcore.InfoLevel))

// GetLogger returns the package-global logger.
func GetLogger() Log {
	return appLog
}

// SetupGlobal overwrites the package-global logger.
func SetupGlobal(logger Log) {
	appLog = logger
}

// NewNop returns a logger that discards everything; useful as a default
// when a caller does not care about detector diagnostics.
func NewNop() Log {
	return NewFromZap(zap.NewNop())
}

// NewWithLevel builds a console-encoded logger at a fixed level.
func NewWithLevel(name string, level zap.AtomicLevel) Log {
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(logWriter),
		level,
	)
	return NewFromZap(zap.New(core).Named(name))
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(l *zap.Logger) Log {
	return Log{logger: l, name: l.Name()}
}

// Info logs at info level.
func (l Log) Info(msg string, args ...any) { l.logger.Sugar().Infof(msg, args...) }

// Debug logs at debug level.
func (l Log) Debug(msg string, args ...any) { l.logger.Sugar().Debugf(msg, args...) }

// Warning logs at warn level.
func (l Log) Warning(msg string, args ...any) { l.logger.Sugar().Warnf(msg, args...) }

// Error logs at error level.
func (l Log) Error(msg string, args ...any) { l.logger.Sugar().Errorf(msg, args...) }

// Panic logs at panic level and then panics.
func (l Log) Panic(msg string, args ...any) { l.logger.Sugar().Panicf(msg, args...) }

// With returns a FieldLogger that fields can be chained onto before a call
// to Info/Debug/Warning/Error.
func (l Log) With() FieldLogger {
	return FieldLogger{logger: l.logger}
}

// WithFields returns a copy of l with the given fields bound to every
// subsequent call through the returned Log's With() chain.
func (l Log) WithFields(fields ...LoggableField) Log {
	zfs := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		zfs = append(zfs, f.Field().zf)
	}
	return Log{logger: l.logger.With(zfs...), name: l.name}
}

// WithName returns a copy of l scoped under an additional name component.
func (l Log) WithName(name string) Log {
	return Log{logger: l.logger.Named(name), name: name}
}

// WithContext is a no-op hook preserved for API parity with request-scoped
// loggers that attach trace identifiers; the detector has no request
// context of its own.
func (l Log) WithContext(_ context.Context) Log {
	return l
}

// FieldLogger accumulates fields before emitting a single log line.
type FieldLogger struct {
	logger *zap.Logger
	fields []zap.Field
}

// WithFields appends structured fields to the chain.
func (f FieldLogger) WithFields(fields ...LoggableField) FieldLogger {
	for _, lf := range fields {
		f.fields = append(f.fields, lf.Field().zf)
	}
	return f
}

// Info emits the accumulated fields at info level.
func (f FieldLogger) Info(msg string, fields ...LoggableField) {
	f.logger.Info(msg, f.collect(fields)...)
}

// Debug emits the accumulated fields at debug level.
func (f FieldLogger) Debug(msg string, fields ...LoggableField) {
	f.logger.Debug(msg, f.collect(fields)...)
}

// Warning emits the accumulated fields at warn level.
func (f FieldLogger) Warning(msg string, fields ...LoggableField) {
	f.logger.Warn(msg, f.collect(fields)...)
}

// Error emits the accumulated fields at error level.
func (f FieldLogger) Error(msg string, fields ...LoggableField) {
	f.logger.Error(msg, f.collect(fields)...)
}

func (f FieldLogger) collect(extra []LoggableField) []zap.Field {
	out := append([]zap.Field{}, f.fields...)
	for _, lf := range extra {
		out = append(out, lf.Field().zf)
	}
	return out
}
