package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger writes the run log of one analysis to logs/<analysis>_<date>.log
type Logger struct {
	analysis string
	logFile  *os.File
	log      *logrus.Logger
	mu       sync.Mutex
	logDir   string
	started  time.Time
}

// NewLogger creates a run log under ./logs
func NewLogger(analysis string) (*Logger, error) {
	return NewLoggerInDir("logs", analysis)
}

// NewLoggerInDir creates a run log under dir
func NewLoggerInDir(dir, analysis string) (*Logger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	started := time.Now()
	logPath := filepath.Join(dir, fileName(analysis, started))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	log := logrus.New()
	log.SetOutput(file)
	log.SetLevel(logrus.DebugLevel)
	log.SetFormatter(&logrus.TextFormatter{
		DisableColors:   true,
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	l := &Logger{
		analysis: analysis,
		logFile:  file,
		log:      log,
		logDir:   dir,
		started:  started,
	}

	l.writeSessionHeader()
	return l, nil
}

func fileName(analysis string, t time.Time) string {
	return fmt.Sprintf("%s_%s.log", analysis, t.Format("2006-01-02"))
}

// writeSessionHeader writes a session start header to the log
func (l *Logger) writeSessionHeader() {
	l.mu.Lock()
	defer l.mu.Unlock()

	fmt.Fprintf(l.logFile, `
================================================================================
🚀 ANALYSIS SESSION STARTED
================================================================================
Analysis: %s
Started: %s
Log File: %s
================================================================================
`, l.analysis, l.started.Format("2006-01-02 15:04:05"), fileName(l.analysis, l.started))
}

// Info logs an info message
func (l *Logger) Info(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Infof(format, args...)
}

// Warning logs a warning message
func (l *Logger) Warning(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Warnf(format, args...)
}

// Error logs an error message
func (l *Logger) Error(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Errorf(format, args...)
}

// LogError logs error with context
func (l *Logger) LogError(context string, err error) {
	l.Error("%s: %v", context, err)
}

// LogParameters records the inputs of the run as structured fields
func (l *Logger) LogParameters(params map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.WithFields(logrus.Fields(params)).Info("parameters")
}

// LogResult records a named scalar result block
func (l *Logger) LogResult(name string, values map[string]float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fields := make(logrus.Fields, len(values)+1)
	fields["result"] = name
	for k, v := range values {
		fields[k] = v
	}
	l.log.WithFields(fields).Info("result")
}

// LogOutputs lists the files a run produced
func (l *Logger) LogOutputs(paths []string) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)
	l.Info("outputs: %s", strings.Join(sorted, ", "))
}

// Close writes the session footer and closes the log file
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logFile == nil {
		return nil
	}

	fmt.Fprintf(l.logFile, `
================================================================================
🛑 ANALYSIS SESSION ENDED
================================================================================
Ended: %s (elapsed %s)
================================================================================

`, time.Now().Format("2006-01-02 15:04:05"), time.Since(l.started).Round(time.Millisecond))

	err := l.logFile.Close()
	l.logFile = nil
	return err
}

// GetLogPath returns the current log file path
func (l *Logger) GetLogPath() string {
	return filepath.Join(l.logDir, fileName(l.analysis, l.started))
}
