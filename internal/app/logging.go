package app

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lart-bangor/research-assistant-sub000/internal/config"
)

// NewLogger builds the process logger: console output on stderr plus a fresh
// log file under the configured log directory, pruned to the configured
// number of files. An unusable log directory degrades to console-only
// logging.
func NewLogger(cfg *config.Config, level string) (*zap.Logger, error) {
	if level == "" {
		level = cfg.Logging.DefaultLevel
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(encoderFor(cfg.Logging.StreamFormat, encCfg), zapcore.Lock(os.Stderr), lvl),
	}
	if file, err := newLogFile(cfg.Paths.Logs, cfg.Logging.MaxFiles); err == nil {
		cores = append(cores,
			zapcore.NewCore(encoderFor(cfg.Logging.FileFormat, encCfg), zapcore.AddSync(file), lvl))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

// ParseLevel maps a debug-level name to a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warning", "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "critical":
		return zapcore.FatalLevel, nil
	}
	return zapcore.InvalidLevel, fmt.Errorf("unknown log level %q", name)
}

func encoderFor(format string, cfg zapcore.EncoderConfig) zapcore.Encoder {
	if format == "console" {
		return zapcore.NewConsoleEncoder(cfg)
	}
	return zapcore.NewJSONEncoder(cfg)
}

// newLogFile creates a timestamped log file and prunes older files so that at
// most maxFiles remain, the new file included.
func newLogFile(dir string, maxFiles int) (*os.File, error) {
	if dir == "" {
		return nil, fmt.Errorf("no log directory configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if maxFiles > 0 {
		pruneLogs(dir, maxFiles-1)
	}
	name := time.Now().Format("20060102T150405") + ".log"
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// pruneLogs removes the oldest .log files until at most keep remain. The
// timestamped names sort chronologically.
func pruneLogs(dir string, keep int) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil || len(matches) <= keep {
		return
	}
	sort.Strings(matches)
	for _, path := range matches[:len(matches)-keep] {
		_ = os.Remove(path)
	}
}
