package vantage

import (
	"fmt"
	"log"
	"os"
	"sync"
)

// Logger is the engine-wide logging interface. The bridge package accepts
// any value with the same format methods, so one logger serves both.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// DefaultLogger writes info/debug to stdout and warnings/errors to
// stderr, each line tagged with the engine side it came from.
type DefaultLogger struct {
	mu    sync.Mutex
	debug bool
	tag   string
	out   *log.Logger
	err   *log.Logger
}

func NewDefaultLogger(tag string, debug bool) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug: debug,
		tag:   tag,
		out:   log.New(os.Stdout, "", flags),
		err:   log.New(os.Stderr, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) line(level, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if l.tag == "" {
		return fmt.Sprintf("%s: %s", level, msg)
	}
	return fmt.Sprintf("[%s] %s: %s", l.tag, level, msg)
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.line("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.line("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.line("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.line("ERROR", format, args...))
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }

func (*nopLogger) DebugEnabled() bool    { return false }
func (*nopLogger) SetDebug(bool)         {}
func (*nopLogger) Debugf(string, ...any) {}
func (*nopLogger) Infof(string, ...any)  {}
func (*nopLogger) Warnf(string, ...any)  {}
func (*nopLogger) Errorf(string, ...any) {}

// Logger returns the app's logger resource, or a no-op logger when none
// was installed. Never returns nil.
func (app *App) Logger() Logger {
	if app != nil {
		for _, r := range app.resources {
			if l, ok := r.(Logger); ok {
				return l
			}
		}
	}
	return NewNopLogger()
}
