package logger

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level string

const (
	INFO  Level = "INFO"
	WARN  Level = "WARN"
	ERROR Level = "ERROR"
	DEBUG Level = "DEBUG"
)

// Logger writes one JSON object per line: timestamp, level, message and an
// optional data payload.
type Logger struct {
	z *zap.Logger
}

var defaultLogger *Logger

func init() {
	defaultLogger = NewLogger()
}

func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout)
}

// NewLoggerTo writes entries to w, for callers that own stdout.
func NewLoggerTo(w io.Writer) *Logger {
	level := zapcore.InfoLevel
	if os.Getenv("DEBUG") == "true" {
		level = zapcore.DebugLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.MessageKey = "message"
	encCfg.LevelKey = "level"
	encCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.Lock(zapcore.AddSync(w)), level)
	return &Logger{z: zap.New(core)}
}

// NewNop returns a logger that discards everything. Tests use it to keep
// output quiet.
func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// With returns a child logger that stamps every entry with the given fields.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	return &Logger{z: l.z.With(zf...)}
}

func (l *Logger) log(level Level, msg string, data interface{}) {
	var fields []zap.Field
	if data != nil {
		fields = append(fields, zap.Any("data", data))
	}

	switch level {
	case DEBUG:
		l.z.Debug(msg, fields...)
	case WARN:
		l.z.Warn(msg, fields...)
	case ERROR:
		l.z.Error(msg, fields...)
	default:
		l.z.Info(msg, fields...)
	}
}

func first(data []interface{}) interface{} {
	if len(data) > 0 {
		return data[0]
	}
	return nil
}

func (l *Logger) Info(msg string, data ...interface{}) {
	l.log(INFO, msg, first(data))
}

func (l *Logger) Warn(msg string, data ...interface{}) {
	l.log(WARN, msg, first(data))
}

func (l *Logger) Error(msg string, data ...interface{}) {
	l.log(ERROR, msg, first(data))
}

func (l *Logger) Debug(msg string, data ...interface{}) {
	l.log(DEBUG, msg, first(data))
}

// Sync flushes buffered entries. Call it before the process exits.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

// Default returns the process-wide logger used by the package functions.
func Default() *Logger {
	return defaultLogger
}

// Global logger functions
func Info(msg string, data ...interface{}) {
	defaultLogger.Info(msg, data...)
}

func Warn(msg string, data ...interface{}) {
	defaultLogger.Warn(msg, data...)
}

func Error(msg string, data ...interface{}) {
	defaultLogger.Error(msg, data...)
}

func Debug(msg string, data ...interface{}) {
	defaultLogger.Debug(msg, data...)
}
