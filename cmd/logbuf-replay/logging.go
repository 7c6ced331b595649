package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/logbuf/logbuf-go/logger"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// zapLogger forwards the logbuf logger facade to zap.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (p zapLogger) Debugf(format string, args ...interface{}) {
	p.s.Debugf(strings.TrimSuffix(format, "\n"), args...)
}

func (p zapLogger) Infof(format string, args ...interface{}) {
	p.s.Infof(strings.TrimSuffix(format, "\n"), args...)
}

func (p zapLogger) Warnf(format string, args ...interface{}) {
	p.s.Warnf(strings.TrimSuffix(format, "\n"), args...)
}

func (p zapLogger) Errorf(format string, args ...interface{}) {
	p.s.Errorf(strings.TrimSuffix(format, "\n"), args...)
}

func parseLevel(s string) (zapcore.Level, logger.Level) {
	switch strings.ToLower(s) {
	case "debug":
		return zap.DebugLevel, logger.LevelDebug
	case "warn", "warning":
		return zap.WarnLevel, logger.LevelWarn
	case "error":
		return zap.ErrorLevel, logger.LevelError
	default:
		return zap.InfoLevel, logger.LevelInfo
	}
}

// setupLogger builds a zap.Logger from c and installs it behind the logbuf logger facade.
// The caller should defer Sync on the returned logger.
func setupLogger(c LogConfig) (*zap.Logger, error) {
	zapLevel, level := parseLevel(c.Level)
	atomicLevel := zap.NewAtomicLevelAt(zapLevel)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var encoder zapcore.Encoder
	if strings.ToLower(c.Format) == "json" {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	outputs := c.Outputs
	if len(outputs) == 0 {
		outputs = []string{"stderr"}
	}
	var cores []zapcore.Core
	for _, out := range outputs {
		var ws zapcore.WriteSyncer
		switch strings.ToLower(out) {
		case "stdout":
			ws = zapcore.AddSync(os.Stdout)
		case "stderr":
			ws = zapcore.AddSync(os.Stderr)
		default:
			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, errors.Wrapf(err, "create log directory %s failed", dir)
				}
			}
			if c.Rotation.Enable {
				ws = zapcore.AddSync(&lumberjack.Logger{
					Filename:   out,
					MaxSize:    c.Rotation.MaxSizeMB,
					MaxBackups: c.Rotation.MaxBackups,
					MaxAge:     c.Rotation.MaxAgeDays,
					Compress:   c.Rotation.Compress,
				})
			} else {
				f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
				if err != nil {
					return nil, errors.Wrapf(err, "open log file %s failed", out)
				}
				ws = zapcore.AddSync(f)
			}
		}
		cores = append(cores, zapcore.NewCore(encoder, ws, atomicLevel))
	}

	l := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
	logger.SetLevel(level)
	logger.SetLogger(zapLogger{s: l.Named("logbuf").WithOptions(zap.AddCallerSkip(2)).Sugar()})
	return l, nil
}
