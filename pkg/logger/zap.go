package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const CorrelationIDKey = "correlation-id"

func NewLogger(debug bool) *zap.SugaredLogger {
	logger, err := newLogger(debug)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	cfg := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(zapcore.WarnLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:   "message",
			LevelKey:     "level",
			EncodeLevel:  zapcore.CapitalLevelEncoder,
			TimeKey:      "time",
			EncodeTime:   zapcore.ISO8601TimeEncoder,
			CallerKey:    "caller",
			EncodeCaller: zapcore.ShortCallerEncoder,
		},
	}
	return cfg.Build()
}

// WithCorrelationID returns a child logger which adds the correlation ID to every entry.
func WithCorrelationID(logger *zap.SugaredLogger, correlationID string) *zap.SugaredLogger {
	return logger.With(CorrelationIDKey, correlationID)
}

// NewLoggerWithFile creates a JSON logger writing into a file which is rotated by size.
func NewLoggerWithFile(logFile string) (*zap.Logger, error) {
	cfg := zap.Config{
		Encoding:         "json",
		Level:            zap.NewAtomicLevelAt(zapcore.DebugLevel),
		OutputPaths:      []string{logFile},
		ErrorOutputPaths: []string{logFile},
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	ws := zapcore.AddSync(&lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     1, // days
		Compress:   false,
	})
	// replace the core so that lumberjack takes care of the rotation
	return logger.WithOptions(
		zap.WrapCore(func(zapcore.Core) zapcore.Core {
			return zapcore.NewCore(
				zapcore.NewJSONEncoder(zapcore.EncoderConfig{
					MessageKey:   "message",
					LevelKey:     "level",
					EncodeLevel:  zapcore.CapitalLevelEncoder,
					TimeKey:      "time",
					EncodeTime:   zapcore.ISO8601TimeEncoder,
					EncodeCaller: zapcore.ShortCallerEncoder,
				}),
				ws,
				zap.InfoLevel,
			)
		}),
	), nil
}
