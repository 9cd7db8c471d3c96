package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	charmLog "github.com/charmbracelet/log"

	"github.com/hylla/rota/internal/config"
)

// runtimeLogger writes styled lines to the terminal and, in dev mode, logfmt
// lines to a per-day file. The editor session logs from request goroutines,
// so muting is atomic.
type runtimeLogger struct {
	console *charmLog.Logger
	muted   atomic.Bool

	file     *charmLog.Logger
	fileSink io.Closer
	filePath string
}

// newRuntimeLogger builds the logger for one invocation.
func newRuntimeLogger(stderr io.Writer, appName string, devMode bool, cfg config.LoggingConfig, now func() time.Time) (*runtimeLogger, error) {
	level, err := charmLog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse logging level %q: %w", cfg.Level, err)
	}
	if stderr == nil {
		stderr = io.Discard
	}
	if now == nil {
		now = time.Now
	}

	l := &runtimeLogger{
		console: charmLog.NewWithOptions(stderr, charmLog.Options{
			Level:           level,
			Prefix:          appName,
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Formatter:       charmLog.TextFormatter,
		}),
	}
	if !devMode || !cfg.DevFile.Enabled {
		return l, nil
	}

	path, err := devLogFilePath(cfg.DevFile.Dir, appName, now().UTC())
	if err != nil {
		return nil, fmt.Errorf("resolve dev log file path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create dev log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open dev log file: %w", err)
	}
	l.file = charmLog.NewWithOptions(f, charmLog.Options{
		Level:           level,
		Prefix:          appName,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Formatter:       charmLog.LogfmtFormatter,
	})
	l.fileSink = f
	l.filePath = path
	return l, nil
}

// DevLogPath returns the dev log file, or "" when file logging is off.
func (l *runtimeLogger) DevLogPath() string {
	return l.filePath
}

// Close closes the dev log file.
func (l *runtimeLogger) Close() error {
	if l.fileSink == nil {
		return nil
	}
	return l.fileSink.Close()
}

// SetConsoleEnabled mutes or unmutes the terminal sink. The file sink is unaffected.
func (l *runtimeLogger) SetConsoleEnabled(enabled bool) {
	l.muted.Store(!enabled)
}

func (l *runtimeLogger) log(level charmLog.Level, msg string, keyvals []any) {
	if !l.muted.Load() {
		l.console.Log(level, msg, keyvals...)
	}
	if l.file != nil {
		l.file.Log(level, msg, keyvals...)
	}
}

func (l *runtimeLogger) Debug(msg string, keyvals ...any) { l.log(charmLog.DebugLevel, msg, keyvals) }
func (l *runtimeLogger) Info(msg string, keyvals ...any)  { l.log(charmLog.InfoLevel, msg, keyvals) }
func (l *runtimeLogger) Warn(msg string, keyvals ...any)  { l.log(charmLog.WarnLevel, msg, keyvals) }
func (l *runtimeLogger) Error(msg string, keyvals ...any) { l.log(charmLog.ErrorLevel, msg, keyvals) }

// devLogFilePath returns <dir>/<app>-YYYYMMDD.log. A relative dir is taken
// from the enclosing workspace root so runs from subdirectories share one log.
func devLogFilePath(dir, appName string, day time.Time) (string, error) {
	base := strings.TrimSpace(dir)
	if base == "" {
		base = ".rota/log"
	}
	if !filepath.IsAbs(base) {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working dir: %w", err)
		}
		base = filepath.Join(workspaceRootFrom(cwd), base)
	}
	name := sanitizeLogFileStem(appName) + "-" + day.Format("20060102") + ".log"
	return filepath.Join(filepath.Clean(base), name), nil
}

// workspaceRootFrom walks up from start to the nearest go.mod or .git.
func workspaceRootFrom(start string) string {
	start = filepath.Clean(strings.TrimSpace(start))
	for dir := start; ; dir = filepath.Dir(dir) {
		if hasWorkspaceMarker(dir) {
			return dir
		}
		if filepath.Dir(dir) == dir {
			return start
		}
	}
}

func hasWorkspaceMarker(dir string) bool {
	for _, marker := range []string{"go.mod", ".git"} {
		if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
			return true
		}
	}
	return false
}

// sanitizeLogFileStem turns an app name into a file-name segment.
func sanitizeLogFileStem(appName string) string {
	stem := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', ' ':
			return '-'
		}
		return r
	}, strings.TrimSpace(appName))
	if stem = strings.Trim(stem, "-"); stem == "" {
		return "rota"
	}
	return stem
}
