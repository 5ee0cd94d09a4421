package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLogger adapts a zap logger to the Logger interface. It is used when
// JSON log output is requested.
type ZapLogger struct {
	sugar *zap.SugaredLogger
	atom  zap.AtomicLevel
	level LogLevel
}

func zapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

// NewZapLogger builds a zap production (JSON, stderr) logger.
func NewZapLogger(level LogLevel) (*ZapLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	atom := zap.NewAtomicLevelAt(zapLevel(level))
	cfg.Level = atom

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{sugar: logger.Sugar(), atom: atom, level: level}, nil
}

// WrapZap wraps an existing core, e.g. an observer in tests.
func WrapZap(core zapcore.Core, level LogLevel) *ZapLogger {
	atom := zap.NewAtomicLevelAt(zapLevel(level))
	leveled := zap.New(core, zap.IncreaseLevel(atom))
	return &ZapLogger{sugar: leveled.Sugar(), atom: atom, level: level}
}

func (l *ZapLogger) SetLevel(level LogLevel) {
	l.level = level
	l.atom.SetLevel(zapLevel(level))
}

func (l *ZapLogger) Debug(msg string, keysAndValues ...any) {
	if l.level >= LogLevelDebug {
		l.sugar.Debugw(msg, keysAndValues...)
	}
}

func (l *ZapLogger) Info(msg string, keysAndValues ...any) {
	if l.level >= LogLevelInfo {
		l.sugar.Infow(msg, keysAndValues...)
	}
}

func (l *ZapLogger) Warn(msg string, keysAndValues ...any) {
	if l.level >= LogLevelWarn {
		l.sugar.Warnw(msg, keysAndValues...)
	}
}

func (l *ZapLogger) Error(msg string, keysAndValues ...any) {
	if l.level >= LogLevelError {
		l.sugar.Errorw(msg, keysAndValues...)
	}
}

// Sync flushes buffered entries.
func (l *ZapLogger) Sync() error {
	return l.sugar.Sync()
}
