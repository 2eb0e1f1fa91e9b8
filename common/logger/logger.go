package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger provides a leveled logging facade for the pipeline, backed by zap.
// Packages log through the package-level functions; the binary decides the sink.

// LogLevel represents log severity levels
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	mu    sync.RWMutex
	sugar *zap.SugaredLogger
	atom  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

func init() {
	sugar = newLogger(false).Sugar()
}

func newLogger(development bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = atom
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Init replaces the underlying logger. MCP stdio mode requires stderr output, which both configs use.
func Init(level string, development bool) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	SetLevel(lvl)
	l := newLogger(development)
	mu.Lock()
	sugar = l.Sugar()
	mu.Unlock()
	return nil
}

// UseNop silences all logging (tests).
func UseNop() {
	mu.Lock()
	sugar = zap.NewNop().Sugar()
	mu.Unlock()
}

// Use installs an arbitrary zap logger, e.g. an observer core in tests.
func Use(l *zap.Logger) {
	mu.Lock()
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
	mu.Unlock()
}

// Sync flushes buffered entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = sugar.Sync()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// ParseLevel maps "debug", "info", "warn" and "error" to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	var zl zapcore.Level
	if s == "" {
		return LevelInfo, nil
	}
	if err := zl.UnmarshalText([]byte(s)); err != nil {
		return LevelInfo, err
	}
	switch {
	case zl <= zapcore.DebugLevel:
		return LevelDebug, nil
	case zl == zapcore.InfoLevel:
		return LevelInfo, nil
	case zl == zapcore.WarnLevel:
		return LevelWarn, nil
	default:
		return LevelError, nil
	}
}

// SetLevel sets the minimum log level
func SetLevel(level LogLevel) {
	switch level {
	case LevelDebug:
		atom.SetLevel(zapcore.DebugLevel)
	case LevelInfo:
		atom.SetLevel(zapcore.InfoLevel)
	case LevelWarn:
		atom.SetLevel(zapcore.WarnLevel)
	default:
		atom.SetLevel(zapcore.ErrorLevel)
	}
}

// Debugf logs a debug message
func Debugf(format string, args ...interface{}) {
	current().Debugf(format, args...)
}

// Infof logs an info message
func Infof(format string, args ...interface{}) {
	current().Infof(format, args...)
}

// Warnf logs a warning message
func Warnf(format string, args ...interface{}) {
	current().Warnf(format, args...)
}

// Errorf logs an error message
func Errorf(format string, args ...interface{}) {
	current().Errorf(format, args...)
}

// ContextLogger attaches fixed fields to every entry.
type ContextLogger struct {
	fields []interface{}
}

// WithContext creates a new logger with context
func WithContext(context map[string]interface{}) *ContextLogger {
	fields := make([]interface{}, 0, len(context)*2)
	for k, v := range context {
		fields = append(fields, k, v)
	}
	return &ContextLogger{fields: fields}
}

func (c *ContextLogger) Debugf(format string, args ...interface{}) {
	current().With(c.fields...).Debugf(format, args...)
}

func (c *ContextLogger) Infof(format string, args ...interface{}) {
	current().With(c.fields...).Infof(format, args...)
}

func (c *ContextLogger) Warnf(format string, args ...interface{}) {
	current().With(c.fields...).Warnf(format, args...)
}

func (c *ContextLogger) Errorf(format string, args ...interface{}) {
	current().With(c.fields...).Errorf(format, args...)
}
