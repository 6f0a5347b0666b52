// Package log is lcdterm's category logger. Lines go to a file and to a
// pubsub broker that the preview UI can follow. Nothing is logged until Init
// or InitWriter is called, which the CLI does for --debug, LCDTERM_DEBUG or a
// configured log file.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/zjrosen/lcdterm/internal/pubsub"
)

// Level represents log severity.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts debug, info, warn or error in any case. The empty
// string means debug.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelDebug, fmt.Errorf("unknown log level %q", s)
}

// Category groups related log messages.
type Category string

const (
	CatSerial     Category = "serial"     // port open, handshake, shutdown
	CatScreen     Category = "screen"     // chunking and frame flushes
	CatScrollback Category = "scrollback" // terminal redraws
	CatClock      Category = "clock"
	CatWeather    Category = "weather"
	CatConfig     Category = "config"
	CatCache      Category = "cache"
	CatWatcher    Category = "watcher"
	CatTrace      Category = "trace"
	CatCLI        Category = "cli"
)

// Logger writes formatted lines and publishes them.
type Logger struct {
	mu       sync.Mutex
	writer   io.Writer
	closer   io.Closer
	enabled  bool
	minLevel Level
	broker   *pubsub.Broker[string]
}

var (
	globalMu      sync.RWMutex
	defaultLogger *Logger
)

// Init starts logging to the file at path, appending. The returned func
// closes the file and stops logging.
func Init(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644) //nolint:gosec // G304: path is the user's log file
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return install(f, f), nil
}

// InitWriter starts logging to w. The returned func stops logging.
func InitWriter(w io.Writer) func() {
	return install(w, nil)
}

func install(w io.Writer, c io.Closer) func() {
	l := &Logger{
		writer:   w,
		closer:   c,
		enabled:  true,
		minLevel: LevelDebug,
		broker:   pubsub.NewBroker[string](),
	}

	globalMu.Lock()
	defaultLogger = l
	globalMu.Unlock()

	return func() {
		globalMu.Lock()
		if defaultLogger == l {
			defaultLogger = nil
		}
		globalMu.Unlock()

		l.mu.Lock()
		defer l.mu.Unlock()
		l.enabled = false
		l.broker.Close()
		if l.closer != nil {
			_ = l.closer.Close()
		}
	}
}

func current() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return defaultLogger
}

// SetEnabled toggles logging on/off.
func SetEnabled(enabled bool) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.enabled = enabled
		l.mu.Unlock()
	}
}

// SetMinLevel sets the minimum log level.
func SetMinLevel(level Level) {
	if l := current(); l != nil {
		l.mu.Lock()
		l.minLevel = level
		l.mu.Unlock()
	}
}

// Debug logs at debug level.
func Debug(cat Category, msg string, fields ...any) {
	write(LevelDebug, cat, msg, fields...)
}

// Info logs at info level.
func Info(cat Category, msg string, fields ...any) {
	write(LevelInfo, cat, msg, fields...)
}

// Warn logs at warning level.
func Warn(cat Category, msg string, fields ...any) {
	write(LevelWarn, cat, msg, fields...)
}

// Error logs at error level.
func Error(cat Category, msg string, fields ...any) {
	write(LevelError, cat, msg, fields...)
}

// ErrorErr logs an error with the error value.
func ErrorErr(cat Category, msg string, err error, fields ...any) {
	if err != nil {
		fields = append(fields, "error", err.Error())
	} else {
		fields = append(fields, "error", "<nil>")
	}
	write(LevelError, cat, msg, fields...)
}

func write(level Level, cat Category, msg string, fields ...any) {
	l := current()
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled || level < l.minLevel {
		return
	}

	entry := format(time.Now(), level, cat, msg, fields)
	if l.writer != nil {
		_, _ = io.WriteString(l.writer, entry)
	}
	l.broker.Publish(pubsub.LoggedEvent, entry)
}

// format renders one line:
// 2026-01-02T15:04:05 [DEBUG] [serial] handshake line=ready
func format(ts time.Time, level Level, cat Category, msg string, fields []any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s] [%s] %s", ts.Format("2006-01-02T15:04:05"), level, cat, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", fields[i], fields[i+1])
	}
	if len(fields)%2 != 0 {
		fmt.Fprintf(&b, " %v=<missing>", fields[len(fields)-1])
	}
	b.WriteByte('\n')
	return b.String()
}

// Listener follows log lines as Bubble Tea messages.
type Listener = pubsub.Listener[string]

// NewListener follows the current logger until ctx is done. It returns nil
// when logging is off.
func NewListener(ctx context.Context) *Listener {
	l := current()
	if l == nil {
		return nil
	}
	return pubsub.NewListener[string](ctx, l.broker)
}
