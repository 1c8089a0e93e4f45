package logging

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapConfig selects how diagnostics are rendered.
// Writer defaults to stderr: stdout belongs to the banners and the child tools.
type ZapConfig struct {
	Level  string    // "debug", "info", "warn", "error"
	Format string    // "console", "json"
	Writer io.Writer
}

func DefaultZapConfig() ZapConfig {
	return ZapConfig{
		Level:  "info",
		Format: "console",
	}
}

// ZapLogger is a Logger backed by a zap SugaredLogger.
type ZapLogger struct {
	Logger
	base *zap.Logger
}

// Sync flushes any buffered log entries
func (z *ZapLogger) Sync() error {
	return z.base.Sync()
}

func NewZapLogger(config ZapConfig, prefix string) (*ZapLogger, error) {
	level, err := ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}
	if err := ValidateFormat(config.Format); err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	encoderConfig.LevelKey = "level"
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	switch config.Format {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}
	writeSyncer := zapcore.Lock(zapcore.AddSync(writer))

	core := zapcore.NewCore(encoder, writeSyncer, toZapLevel(level))
	base := zap.New(core)
	sugar := base.Sugar()

	return &ZapLogger{
		Logger: NewLogger(prefix, LogFuncs{
			Debugf: sugar.Debugf,
			Infof:  sugar.Infof,
			Warnf:  sugar.Warnf,
			Errorf: sugar.Errorf,
		}),
		base: base,
	}, nil
}

func toZapLevel(level int) zapcore.Level {
	switch level {
	case LogLevelDebug:
		return zap.DebugLevel
	case LogLevelWarn:
		return zap.WarnLevel
	case LogLevelError:
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
