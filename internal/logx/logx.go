// Package logx provides the leveled logger every package in this
// repository logs through. The interface shape matches the
// Debug/Info/Warning/Error/Fatal plus Log/SetLevel surface used
// throughout the teacher packages' logging.Logger dependency, backed
// here by zap and rotated with lumberjack instead of a vendored
// AusOcean-internal logger.
package logx

import (
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors logging.Logger's int8 level values: higher is more
// severe, in the order Debug < Info < Warning < Error < Fatal, which
// maps onto zap's levels in the same order.
type Level int8

const (
	Debug Level = iota
	Info
	Warning
	Error
	Fatal
)

// Logger is the interface every package in this repository logs
// through. It matches the shape observed at every logging.Logger usage
// site in the teacher repo (config.Config.Logger, device.AVDevice
// implementations' l logging.Logger fields).
type Logger interface {
	Log(level Level, message string, args ...interface{})
	SetLevel(level Level)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warning(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Rotation policy shared by every CLI entry point, hoisted from the
// logMaxSize/logMaxBackup/logMaxAge constants each of the teacher's
// cmd/*/main.go files redeclared locally.
const (
	MaxSizeMB  = 500
	MaxBackups = 10
	MaxAgeDays = 28
)

// zapLogger adapts a *zap.SugaredLogger to Logger.
type zapLogger struct {
	sugar *zap.SugaredLogger
	level zap.AtomicLevel
}

// New builds a Logger writing to logFile (rotated via lumberjack) at or
// above the given level. An empty logFile logs to stderr only.
func New(logFile string, level Level) Logger {
	atom := zap.NewAtomicLevelAt(toZapLevel(level))

	var ws zapcore.WriteSyncer
	if logFile != "" {
		lj := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    MaxSizeMB,
			MaxBackups: MaxBackups,
			MaxAge:     MaxAgeDays,
		}
		ws = zapcore.AddSync(lj)
	} else {
		ws = zapcore.Lock(zapcore.AddSync(os.Stderr))
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(encoder, ws, atom)
	return &zapLogger{sugar: zap.New(core).Sugar(), level: atom}
}

func (l *zapLogger) Log(level Level, message string, args ...interface{}) {
	switch level {
	case Debug:
		l.sugar.Debugw(message, args...)
	case Info:
		l.sugar.Infow(message, args...)
	case Warning:
		l.sugar.Warnw(message, args...)
	case Error:
		l.sugar.Errorw(message, args...)
	case Fatal:
		l.sugar.Fatalw(message, args...)
	}
}

func (l *zapLogger) SetLevel(level Level) { l.level.SetLevel(toZapLevel(level)) }
func (l *zapLogger) Debug(msg string, args ...interface{})   { l.Log(Debug, msg, args...) }
func (l *zapLogger) Info(msg string, args ...interface{})    { l.Log(Info, msg, args...) }
func (l *zapLogger) Warning(msg string, args ...interface{}) { l.Log(Warning, msg, args...) }
func (l *zapLogger) Error(msg string, args ...interface{})   { l.Log(Error, msg, args...) }
func (l *zapLogger) Fatal(msg string, args ...interface{})   { l.Log(Fatal, msg, args...) }

func toZapLevel(l Level) zapcore.Level {
	switch l {
	case Debug:
		return zapcore.DebugLevel
	case Info:
		return zapcore.InfoLevel
	case Warning:
		return zapcore.WarnLevel
	case Error:
		return zapcore.ErrorLevel
	case Fatal:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// LevelFromString parses a config log_level string ("debug", "info",
// "warning", "error", "fatal"), defaulting to Info on anything else.
func LevelFromString(s string) Level {
	switch s {
	case "debug":
		return Debug
	case "warning", "warn":
		return Warning
	case "error":
		return Error
	case "fatal":
		return Fatal
	default:
		return Info
	}
}
