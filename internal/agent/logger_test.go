package agent

import (
	"bytes"
	"strings"
	"testing"
)

func TestVerboseGating(t *testing.T) {
	tests := []struct {
		name         string
		verbose      bool
		log          func(l *Logger)
		expectOutput bool
		wantSubstr   string
	}{
		{
			name:         "InfoVerbose shown when verbose",
			verbose:      true,
			log:          func(l *Logger) { l.InfoVerbose("token cached for %s", "mc-test") },
			expectOutput: true,
			wantSubstr:   "token cached for mc-test",
		},
		{
			name:    "InfoVerbose hidden when quiet",
			verbose: false,
			log:     func(l *Logger) { l.InfoVerbose("token cached for %s", "mc-test") },
		},
		{
			name:         "WarningVerbose shown when verbose",
			verbose:      true,
			log:          func(l *Logger) { l.WarningVerbose("page size clamped to %d", 50) },
			expectOutput: true,
			wantSubstr:   "page size clamped to 50",
		},
		{
			name:    "WarningVerbose hidden when quiet",
			verbose: false,
			log:     func(l *Logger) { l.WarningVerbose("page size clamped to %d", 50) },
		},
		{
			name:         "Debug shown when verbose",
			verbose:      true,
			log:          func(l *Logger) { l.Debug("debug detail") },
			expectOutput: true,
			wantSubstr:   "debug detail",
		},
		{
			name:    "Debug hidden when quiet",
			verbose: false,
			log:     func(l *Logger) { l.Debug("debug detail") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewLoggerWithWriter(tt.verbose, false, false, buf)

			tt.log(logger)

			output := buf.String()
			if tt.expectOutput {
				if !strings.Contains(output, tt.wantSubstr) {
					t.Errorf("expected output to contain %q, got %q", tt.wantSubstr, output)
				}
			} else if output != "" {
				t.Errorf("expected no output, got %q", output)
			}
		})
	}
}

func TestLoggerBasicFunctions(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLoggerWithWriter(false, false, false, buf)

	t.Run("Info", func(t *testing.T) {
		buf.Reset()
		logger.Info("info message")
		if !strings.Contains(buf.String(), "info message") {
			t.Errorf("expected Info to log message, got %q", buf.String())
		}
	})

	t.Run("Error", func(t *testing.T) {
		buf.Reset()
		logger.Error("error message")
		if !strings.Contains(buf.String(), "error message") {
			t.Errorf("expected Error to log message, got %q", buf.String())
		}
	})

	t.Run("Success", func(t *testing.T) {
		buf.Reset()
		logger.Success("success message")
		if !strings.Contains(buf.String(), "success message") {
			t.Errorf("expected Success to log message, got %q", buf.String())
		}
	})

	t.Run("Warning", func(t *testing.T) {
		buf.Reset()
		logger.Warning("warning message")
		if !strings.Contains(buf.String(), "warning message") {
			t.Errorf("expected Warning to log message, got %q", buf.String())
		}
	})

	t.Run("SetVerbose toggles Debug", func(t *testing.T) {
		buf.Reset()
		logger.SetVerbose(true)
		logger.Debug("debug message")
		if !strings.Contains(buf.String(), "debug message") {
			t.Errorf("expected Debug output in verbose mode, got %q", buf.String())
		}

		buf.Reset()
		logger.SetVerbose(false)
		logger.Debug("debug message")
		if buf.String() != "" {
			t.Errorf("expected no Debug output when quiet, got %q", buf.String())
		}
	})
}

func TestJSONRPCTracing(t *testing.T) {
	t.Run("enabled", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLoggerWithWriter(false, false, true, buf)

		logger.Request("tools/call", map[string]string{"name": "search_sfmc_assets"})
		logger.Response("tools/call", map[string]int{"count": 3})

		output := buf.String()
		if !strings.Contains(output, "tools/call") || !strings.Contains(output, "search_sfmc_assets") {
			t.Errorf("expected request trace, got %q", output)
		}
		if !strings.Contains(output, `"count": 3`) {
			t.Errorf("expected response trace, got %q", output)
		}
	})

	t.Run("disabled", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLoggerWithWriter(false, false, false, buf)

		logger.Request("tools/call", nil)
		logger.Response("tools/call", nil)

		if buf.String() != "" {
			t.Errorf("expected no trace output, got %q", buf.String())
		}
	})
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Info("message")
	logger.InfoVerbose("message")
	logger.Warning("message")
	logger.WarningVerbose("message")
	logger.Error("message")
	logger.Success("message")
	logger.Debug("message")
	logger.Request("m", nil)
	logger.Response("m", nil)
	logger.Notification("m", nil)
	logger.SetVerbose(true)
	// Reaching here without a panic is the assertion.
}

func TestLoggerConstructors(t *testing.T) {
	t.Run("NewLogger", func(t *testing.T) {
		logger := NewLogger(true, true, true)
		if logger == nil {
			t.Fatal("expected NewLogger to return non-nil logger")
		}
		if !logger.verbose || !logger.useColor || !logger.jsonRPCMode {
			t.Error("expected all flags to be set")
		}
	})

	t.Run("NewLoggerWithWriter", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewLoggerWithWriter(false, false, false, buf)
		if logger == nil {
			t.Fatal("expected NewLoggerWithWriter to return non-nil logger")
		}
		if logger.writer != buf {
			t.Error("expected writer to be set to provided buffer")
		}
	})
}

func TestSetWriter(t *testing.T) {
	buf1 := &bytes.Buffer{}
	buf2 := &bytes.Buffer{}

	logger := NewLoggerWithWriter(false, false, false, buf1)
	logger.Info("message1")

	if !strings.Contains(buf1.String(), "message1") {
		t.Error("expected message to be written to buf1")
	}

	buf1.Reset()
	logger.SetWriter(buf2)
	logger.Info("message2")

	if buf1.String() != "" {
		t.Error("expected buf1 to be empty after changing writer")
	}
	if !strings.Contains(buf2.String(), "message2") {
		t.Error("expected message to be written to buf2")
	}
}
