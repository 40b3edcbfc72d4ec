package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Level represents log severity
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a string to a Level, case-insensitively
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return DEBUG
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// Format selects the line encoding
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat converts "text" or "json" to a Format
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Field represents a key-value pair for structured logging
type Field struct {
	Key   string
	Value interface{}
}

// F is a shorthand for creating a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err is a shorthand for an "error" field
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Config holds logger configuration
type Config struct {
	Level      Level     // Minimum log level
	Format     Format    // Text or JSON lines
	FilePath   string    // Path to log file, empty for none
	MaxSize    int64     // Max size in bytes before rotation (default: 10MB)
	MaxBackups int       // Max number of backup files (default: 5)
	Console    bool      // Enable stderr output
	Output     io.Writer // Extra destination, mostly for tests
}

// DefaultConfig returns default logger configuration
func DefaultConfig() Config {
	return Config{
		Level:      INFO,
		Format:     FormatText,
		MaxSize:    10 * 1024 * 1024, // 10MB
		MaxBackups: 5,
		Console:    true,
	}
}

// sink is the shared output state of a logger and all its WithFields children
type sink struct {
	mu      sync.Mutex
	config  Config
	file    *os.File
	size    int64
	writers []io.Writer
}

// Logger writes levelled entries with structured fields
type Logger struct {
	sink   *sink
	fields []Field
}

var (
	globalLogger *Logger
	once         sync.Once
)

// Init initializes the global logger. Later calls are no-ops.
func Init(config Config) error {
	var err error
	once.Do(func() {
		globalLogger, err = New(config)
	})
	return err
}

// New creates a new logger instance
func New(config Config) (*Logger, error) {
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultConfig().MaxSize
	}
	s := &sink{config: config}

	if config.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(config.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := s.openFile(); err != nil {
			return nil, err
		}
	}
	s.resetWriters()

	return &Logger{sink: s}, nil
}

func (s *sink) openFile() error {
	file, err := os.OpenFile(s.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return err
	}
	s.file = file
	s.size = info.Size()
	return nil
}

func (s *sink) resetWriters() {
	s.writers = s.writers[:0]
	if s.file != nil {
		s.writers = append(s.writers, s.file)
	}
	if s.config.Console {
		s.writers = append(s.writers, os.Stderr)
	}
	if s.config.Output != nil {
		s.writers = append(s.writers, s.config.Output)
	}
}

// rotate shifts log -> log.1 -> log.2 ... and reopens. Caller holds mu.
func (s *sink) rotate() error {
	if s.file != nil {
		s.file.Close()
		s.file = nil
	}

	for i := s.config.MaxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", s.config.FilePath, i), fmt.Sprintf("%s.%d", s.config.FilePath, i+1))
	}
	if s.config.MaxBackups > 0 {
		if err := os.Rename(s.config.FilePath, s.config.FilePath+".1"); err != nil && !os.IsNotExist(err) {
			return err
		}
	} else {
		os.Remove(s.config.FilePath)
	}

	err := s.openFile()
	s.resetWriters()
	return err
}

func (s *sink) write(entry []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file != nil && s.size+int64(len(entry)) > s.config.MaxSize {
		if err := s.rotate(); err != nil {
			fmt.Fprintf(os.Stderr, "logger: rotate failed: %v\n", err)
		}
	}
	for _, w := range s.writers {
		w.Write(entry)
	}
	if s.file != nil {
		s.size += int64(len(entry))
	}
}

// log writes a log entry
func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.sink.config.Level {
		return
	}

	_, file, line, ok := runtime.Caller(2)
	caller := "???"
	if ok {
		caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	all := make([]Field, 0, len(l.fields)+len(fields))
	all = append(all, l.fields...)
	all = append(all, fields...)

	now := time.Now()
	var entry []byte
	if l.sink.config.Format == FormatJSON {
		entry = encodeJSON(now, level, caller, msg, all)
	} else {
		entry = encodeText(now, level, caller, msg, all)
	}
	l.sink.write(entry)
}

func encodeText(now time.Time, level Level, caller, msg string, fields []Field) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s: %s", now.Format("2006-01-02 15:04:05.000"), level, caller, msg)
	if len(fields) > 0 {
		b.WriteString(" |")
		for _, f := range fields {
			fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
		}
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func encodeJSON(now time.Time, level Level, caller, msg string, fields []Field) []byte {
	obj := make(map[string]interface{}, len(fields)+4)
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			obj[f.Key] = err.Error()
			continue
		}
		obj[f.Key] = f.Value
	}
	obj["time"] = now.UTC().Format(time.RFC3339Nano)
	obj["level"] = level.String()
	obj["caller"] = caller
	obj["msg"] = msg

	data, err := json.Marshal(obj)
	if err != nil {
		return encodeText(now, level, caller, msg, append(fields, F("marshal_error", err)))
	}
	return append(data, '\n')
}

// WithFields creates a new logger with preset fields
func (l *Logger) WithFields(fields ...Field) *Logger {
	preset := make([]Field, 0, len(l.fields)+len(fields))
	preset = append(preset, l.fields...)
	preset = append(preset, fields...)
	return &Logger{sink: l.sink, fields: preset}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(DEBUG, msg, fields)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(INFO, msg, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(WARN, msg, fields)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields ...Field) {
	l.log(ERROR, msg, fields)
}

// Close closes the log file if any
func (l *Logger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()

	if l.sink.file != nil {
		err := l.sink.file.Close()
		l.sink.file = nil
		l.sink.resetWriters()
		return err
	}
	return nil
}

// Global logger functions

// Debug logs a debug message using the global logger
func Debug(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(DEBUG, msg, fields)
	}
}

// Info logs an info message using the global logger
func Info(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(INFO, msg, fields)
	}
}

// Warn logs a warning message using the global logger
func Warn(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(WARN, msg, fields)
	}
}

// Error logs an error message using the global logger
func Error(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.log(ERROR, msg, fields)
	}
}

// WithFields creates a new logger with preset fields using the global
// logger. Before Init it returns a logger that discards everything.
func WithFields(fields ...Field) *Logger {
	if globalLogger != nil {
		return globalLogger.WithFields(fields...)
	}
	return &Logger{sink: &sink{config: Config{Level: ERROR + 1}}, fields: fields}
}

// Close closes the global logger
func Close() error {
	if globalLogger != nil {
		return globalLogger.Close()
	}
	return nil
}

// GetConfig returns the current logger configuration
func GetConfig() Config {
	if globalLogger != nil {
		return globalLogger.sink.config
	}
	return DefaultConfig()
}
