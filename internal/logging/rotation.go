package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 3
	defaultMaxAgeDays = 28
)

// NewFileSink returns a size-rotated log file. Zero sizes select the
// defaults. Old files are kept as timestamped copies next to path.
func NewFileSink(path string, maxSizeMB, maxBackups int) *lumberjack.Logger {
	if maxSizeMB <= 0 {
		maxSizeMB = defaultMaxSizeMB
	}
	if maxBackups <= 0 {
		maxBackups = defaultMaxBackups
	}
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     defaultMaxAgeDays,
	}
}

// InitWithFile is Init plus a log file. The file always receives JSON lines
// at the same level as the terminal output.
func InitWithFile(format, level string, output io.Writer, file io.Writer) {
	if file == nil {
		Init(format, level, output)
		return
	}
	lvl := parseLevel(level)
	if output == nil {
		output = defaultOutput()
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
		zapcore.AddSync(file),
		lvl,
	)
	rootCore.set(zapcore.NewTee(newCore(format, lvl, output), fileCore))
}
