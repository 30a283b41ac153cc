package logx

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

var (
	mu       sync.Mutex
	level    = Info
	buf      = make([]string, 0, 500)
	maxLines = 500
	// sink mirrors lines outside the ring; nil keeps the TUI screen clean.
	sink *zap.SugaredLogger
)

func SetLevel(l Level) { mu.Lock(); level = l; mu.Unlock() }

func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, true
	case "info":
		return Info, true
	case "warn", "warning":
		return Warn, true
	case "error":
		return Error, true
	}
	return Info, false
}

// SetLevelFromEnv reads SSOT_LOG_LEVEL, and mirrors to stderr when
// SSOT_LOG_STDERR is truthy or to SSOT_LOG_FILE when set.
func SetLevelFromEnv() {
	if lv, ok := ParseLevel(os.Getenv("SSOT_LOG_LEVEL")); ok {
		SetLevel(lv)
	}
	var paths []string
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("SSOT_LOG_STDERR"))); v != "" && v != "0" && v != "false" && v != "no" {
		paths = append(paths, "stderr")
	}
	if p := strings.TrimSpace(os.Getenv("SSOT_LOG_FILE")); p != "" {
		paths = append(paths, p)
	}
	if len(paths) > 0 {
		if err := Mirror(paths...); err != nil {
			Warnf("logx: mirror %v: %v", paths, err)
		}
	}
}

// Mirror sends every retained line to the given zap output paths as well.
func Mirror(paths ...string) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.OutputPaths = paths
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	mu.Lock()
	sink = l.Sugar()
	mu.Unlock()
	return nil
}

// Sync flushes the mirror, if any.
func Sync() {
	mu.Lock()
	s := sink
	mu.Unlock()
	if s != nil {
		_ = s.Sync()
	}
}

func Debugf(format string, a ...any) { logf(Debug, "DEBUG", format, a...) }
func Infof(format string, a ...any)  { logf(Info, "INFO", format, a...) }
func Warnf(format string, a ...any)  { logf(Warn, "WARN", format, a...) }
func Errorf(format string, a ...any) { logf(Error, "ERROR", format, a...) }

func logf(l Level, tag, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	if l < level {
		return
	}
	msg := fmt.Sprintf(format, a...)
	ts := time.Now().Format("2006-01-02T15:04:05.000Z07:00")
	line := fmt.Sprintf("%s %-5s %s", ts, tag, msg)
	if len(buf) >= maxLines {
		// drop oldest
		copy(buf[0:], buf[1:])
		buf = buf[:len(buf)-1]
	}
	buf = append(buf, line)
	if sink == nil {
		return
	}
	switch l {
	case Debug:
		sink.Debug(msg)
	case Info:
		sink.Info(msg)
	case Warn:
		sink.Warn(msg)
	default:
		sink.Error(msg)
	}
}

func Dump() string {
	mu.Lock()
	defer mu.Unlock()
	return strings.Join(buf, "\n")
}

func Lines() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(buf))
	copy(out, buf)
	return out
}

// Reset empties the ring. Used by tests.
func Reset() {
	mu.Lock()
	buf = buf[:0]
	mu.Unlock()
}
