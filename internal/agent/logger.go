package agent

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ANSI color codes used when color output is enabled.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Logger provides formatted logging with optional color output, verbose
// gating and JSON-RPC message tracing.
type Logger struct {
	mu          sync.Mutex
	verbose     bool
	useColor    bool
	jsonRPCMode bool
	writer      io.Writer
}

// NewLogger creates a logger writing to stdout.
func NewLogger(verbose, useColor, jsonRPCMode bool) *Logger {
	return NewLoggerWithWriter(verbose, useColor, jsonRPCMode, os.Stdout)
}

// NewLoggerWithWriter creates a logger writing to the given writer. Used by
// tests to capture output.
func NewLoggerWithWriter(verbose, useColor, jsonRPCMode bool, w io.Writer) *Logger {
	return &Logger{
		verbose:     verbose,
		useColor:    useColor,
		jsonRPCMode: jsonRPCMode,
		writer:      w,
	}
}

// SetVerbose toggles verbose output at runtime.
func (l *Logger) SetVerbose(verbose bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.verbose = verbose
}

// SetWriter redirects logger output.
func (l *Logger) SetWriter(w io.Writer) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
}

// log writes one line with the given prefix and color.
func (l *Logger) log(color, prefix, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	if l.useColor && color != "" {
		_, _ = fmt.Fprintf(l.writer, "%s%s%s%s\n", color, prefix, msg, colorReset)
	} else {
		_, _ = fmt.Fprintf(l.writer, "%s%s\n", prefix, msg)
	}
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.log("", "", format, args...)
}

// InfoVerbose logs an informational message only in verbose mode.
func (l *Logger) InfoVerbose(format string, args ...interface{}) {
	if l == nil || !l.isVerbose() {
		return
	}
	l.log("", "", format, args...)
}

// Success logs a success message.
func (l *Logger) Success(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.log(colorGreen, "", format, args...)
}

// Warning logs a warning message.
func (l *Logger) Warning(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.log(colorYellow, "Warning: ", format, args...)
}

// WarningVerbose logs a warning only in verbose mode.
func (l *Logger) WarningVerbose(format string, args ...interface{}) {
	if l == nil || !l.isVerbose() {
		return
	}
	l.log(colorYellow, "Warning: ", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	if l == nil {
		return
	}
	l.log(colorRed, "", format, args...)
}

// Debug logs a message only in verbose mode.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l == nil || !l.isVerbose() {
		return
	}
	l.log(colorGray, "", format, args...)
}

// Request traces an outgoing JSON-RPC request when JSON-RPC logging is on.
func (l *Logger) Request(method string, params interface{}) {
	if l == nil || !l.isJSONRPCMode() {
		return
	}
	l.log(colorCyan, "--> ", "%s %s", method, PrettyJSON(params))
}

// Response traces an incoming JSON-RPC response when JSON-RPC logging is on.
func (l *Logger) Response(method string, result interface{}) {
	if l == nil || !l.isJSONRPCMode() {
		return
	}
	l.log(colorCyan, "<-- ", "%s %s", method, PrettyJSON(result))
}

// Notification traces an incoming notification. Shown in verbose mode or
// when JSON-RPC logging is on.
func (l *Logger) Notification(method string, params interface{}) {
	if l == nil {
		return
	}
	if l.isJSONRPCMode() {
		l.log(colorCyan, "<-- ", "%s %s", method, PrettyJSON(params))
		return
	}
	if l.isVerbose() {
		l.log(colorGray, "", "Notification: %s", method)
	}
}

func (l *Logger) isVerbose() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.verbose
}

func (l *Logger) isJSONRPCMode() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.jsonRPCMode
}
