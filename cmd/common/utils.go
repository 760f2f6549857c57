package common

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// Logger provides console output for the CLI tools
type Logger struct {
	Level      LogLevel
	ShowEmojis bool
	ShowColors bool
	SilentMode bool

	out io.Writer
}

// NewLogger creates a new logger with default settings
func NewLogger() *Logger {
	return &Logger{
		Level:      LogLevelInfo,
		ShowEmojis: true,
		ShowColors: true,
		out:        os.Stdout,
	}
}

// SetOutput redirects the logger
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

// Writer returns the logger destination
func (l *Logger) Writer() io.Writer {
	return l.out
}

// SetSilentMode enables or disables silent mode
func (l *Logger) SetSilentMode(silent bool) {
	l.SilentMode = silent
}

// Apply configures the logger from the global flags
func (l *Logger) Apply(f *GlobalFlags) {
	l.SilentMode = f.Silent
	l.ShowEmojis = !f.NoEmojis
	l.ShowColors = !f.NoColors
	if f.Verbose {
		l.Level = LogLevelDebug
	}
}

func (l *Logger) prefix(emoji, plain string) string {
	if l.ShowEmojis {
		return emoji
	}
	return plain
}

func (l *Logger) paint(attr color.Attribute, s string) string {
	if !l.ShowColors {
		return s
	}
	return color.New(attr).Sprint(s)
}

// Header prints a formatted header
func (l *Logger) Header(title string) {
	if l.SilentMode {
		return
	}
	fmt.Fprintf(l.out, "\n%s %s\n", l.prefix("🎯", "***"), l.paint(color.Bold, strings.ToUpper(title)))
	fmt.Fprintf(l.out, "%s\n", strings.Repeat("=", len(title)+5))
}

// Section prints a formatted section header
func (l *Logger) Section(title string) {
	if l.SilentMode {
		return
	}
	fmt.Fprintf(l.out, "\n%s %s\n", l.prefix("📋", "---"), title)
	fmt.Fprintf(l.out, "%s\n", strings.Repeat("-", len(title)+5))
}

// Info prints an info message
func (l *Logger) Info(format string, args ...interface{}) {
	if l.SilentMode || l.Level < LogLevelInfo {
		return
	}
	fmt.Fprintf(l.out, "%s  %s\n", l.prefix("ℹ️", "[INFO]"), fmt.Sprintf(format, args...))
}

// Error prints an error message. Errors ignore silent mode.
func (l *Logger) Error(format string, args ...interface{}) {
	fmt.Fprintf(l.out, "%s %s\n", l.prefix("❌", "[ERROR]"), l.paint(color.FgRed, fmt.Sprintf(format, args...)))
}

// Success prints a success message
func (l *Logger) Success(format string, args ...interface{}) {
	if l.SilentMode {
		return
	}
	fmt.Fprintf(l.out, "%s %s\n", l.prefix("✅", "[SUCCESS]"), l.paint(color.FgGreen, fmt.Sprintf(format, args...)))
}

// Warn prints a warning message
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.Level < LogLevelWarn {
		return
	}
	fmt.Fprintf(l.out, "%s  %s\n", l.prefix("⚠️", "[WARN]"), l.paint(color.FgYellow, fmt.Sprintf(format, args...)))
}

// Debug prints a debug message
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.Level < LogLevelDebug {
		return
	}
	fmt.Fprintf(l.out, "%s %s\n", l.prefix("🔍", "[DEBUG]"), l.paint(color.FgHiBlack, fmt.Sprintf(format, args...)))
}

// Progress prints a progress message
func (l *Logger) Progress(format string, args ...interface{}) {
	if l.SilentMode {
		return
	}
	fmt.Fprintf(l.out, "%s %s\n", l.prefix("🔄", "[PROGRESS]"), fmt.Sprintf(format, args...))
}

// Quiet prints an indented detail line
func (l *Logger) Quiet(format string, args ...interface{}) {
	if !l.SilentMode {
		fmt.Fprintf(l.out, "   %s\n", fmt.Sprintf(format, args...))
	}
}

// FormatUtils provides formatting utilities
type FormatUtils struct{}

// NewFormatUtils creates a new format utilities instance
func NewFormatUtils() *FormatUtils {
	return &FormatUtils{}
}

// FormatCount formats an integer with thousands separators
func (f *FormatUtils) FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatPercent formats a decimal as a percentage
func (f *FormatUtils) FormatPercent(value float64, precision int) string {
	return fmt.Sprintf("%.*f%%", precision, value*100)
}

// FormatFileSize formats a file size in bytes to human-readable format
func (f *FormatUtils) FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}

// FormatDuration formats a duration in a human-readable way
func (f *FormatUtils) FormatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// Global instances for convenience
var (
	DefaultLogger    = NewLogger()
	DefaultFormatter = NewFormatUtils()
)

// Convenience functions using global instances
func Header(title string)                         { DefaultLogger.Header(title) }
func Section(title string)                        { DefaultLogger.Section(title) }
func Info(format string, args ...interface{})     { DefaultLogger.Info(format, args...) }
func Error(format string, args ...interface{})    { DefaultLogger.Error(format, args...) }
func Success(format string, args ...interface{})  { DefaultLogger.Success(format, args...) }
func Warn(format string, args ...interface{})     { DefaultLogger.Warn(format, args...) }
func Debug(format string, args ...interface{})    { DefaultLogger.Debug(format, args...) }
func Progress(format string, args ...interface{}) { DefaultLogger.Progress(format, args...) }
func Quiet(format string, args ...interface{})    { DefaultLogger.Quiet(format, args...) }

func FormatCount(n int) string                   { return DefaultFormatter.FormatCount(n) }
func FormatPercent(val float64, prec int) string { return DefaultFormatter.FormatPercent(val, prec) }
func FormatFileSize(n int64) string              { return DefaultFormatter.FormatFileSize(n) }
func FormatDuration(d time.Duration) string      { return DefaultFormatter.FormatDuration(d) }
