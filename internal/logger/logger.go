package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Fields carries structured context attached to a single log entry.
type Fields map[string]interface{}

// Logger is a module-scoped structured logger. Every entry carries the
// module name plus whatever context fields the call site supplies.
type Logger struct {
	module string
	root   *zap.SugaredLogger
	sugar  *zap.SugaredLogger
}

// New creates the root logger for the given module at the given level.
// Unknown level strings fall back to info.
func New(module, level string) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	root := z.Sugar()
	return &Logger{
		module: module,
		root:   root,
		sugar:  root.With("module", module),
	}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop(module string) *Logger {
	root := zap.NewNop().Sugar()
	return &Logger{module: module, root: root, sugar: root}
}

// WithModule returns a child logger scoped to a different module name.
func (l *Logger) WithModule(module string) *Logger {
	return &Logger{
		module: module,
		root:   l.root,
		sugar:  l.root.With("module", module),
	}
}

// Module returns the module name this logger is scoped to.
func (l *Logger) Module() string {
	return l.module
}

// Debug logs a debug message with optional context fields.
func (l *Logger) Debug(msg string, fields ...Fields) {
	l.sugar.Debugw(msg, flatten(fields)...)
}

// Info logs an info message with optional context fields.
func (l *Logger) Info(msg string, fields ...Fields) {
	l.sugar.Infow(msg, flatten(fields)...)
}

// Warn logs a warning message with optional context fields.
func (l *Logger) Warn(msg string, fields ...Fields) {
	l.sugar.Warnw(msg, flatten(fields)...)
}

// Error logs an error message with optional context fields.
func (l *Logger) Error(msg string, fields ...Fields) {
	l.sugar.Errorw(msg, flatten(fields)...)
}

// Sync flushes buffered entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.sugar.Sync()
}

func flatten(fields []Fields) []interface{} {
	if len(fields) == 0 {
		return nil
	}
	var kv []interface{}
	for _, f := range fields {
		for k, v := range f {
			kv = append(kv, k, v)
		}
	}
	return kv
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
