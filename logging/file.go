package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// maxLogFileMB is the size at which a log file is rotated.
const maxLogFileMB = 64

// NewFileLogger returns a logger that writes to stdout and appends JSON lines to filename.
// The file is rotated once it grows past a fixed size and the two most recent backups are
// kept compressed. Close the returned io.Closer once logging is done.
func NewFileLogger(name, filename string, level Level) (Logger, io.Closer) {
	rotator := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    maxLogFileMB,
		MaxBackups: 2,
		Compress:   true,
	}
	cfg := NewLoggerConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(cfg.EncoderConfig),
		zapcore.AddSync(rotator),
		zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled),
	)
	return newImpl(name, level, newStdoutCore(), fileCore), rotator
}
