package common

import (
	"os"

	"github.com/mattn/go-colorable"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConfigureZap logs to the console, and additionally as json to logFile when one is given.
// The returned func closes the log file.
func ConfigureZap(level zapcore.Level, logFile string) (*zap.Logger, func(), error) {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.RFC3339TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(pe)

	consoleCore := zapcore.NewCore(consoleEncoder, zapcore.AddSync(colorable.NewColorableStdout()), level)
	if logFile == "" {
		return zap.New(consoleCore), func() {}, nil
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed opening log file %s", logFile)
	}
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewJSONEncoder(pe), zapcore.AddSync(f), level),
		consoleCore,
	)
	return zap.New(core), func() { f.Close() }, nil
}

// ParseLevel falls back to info for anything zap doesn't understand
func ParseLevel(level string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}
