// Package logger is the structured JSON logger used by the HTTP layer.
// Infrastructure components that predate it take a *slog.Logger instead.
package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log message.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
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

// ParseLevel parses a string into a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Field is a key-value pair attached to a log line.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field  { return Field{Key: key, Value: value} }
func Int(key string, value int) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Err creates an error field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Duration renders a duration as its string form ("1.5s").
func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

// Latency is the field every request log carries.
func Latency(d time.Duration) Field { return Duration("latency", d) }

// Logger writes one JSON object per line. Safe for concurrent use.
type Logger struct {
	mu     sync.Mutex
	output io.Writer
	level  Level
	fields []Field
}

// Options configures the logger.
type Options struct {
	Output io.Writer
	Level  Level
}

// New creates a Logger. A nil Output falls back to stdout.
func New(opts Options) *Logger {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Logger{output: opts.Output, level: opts.Level}
}

// Default creates an info-level logger writing to stdout.
func Default() *Logger {
	return New(Options{Level: LevelInfo})
}

// With returns a child logger that carries the given fields on every line.
func (l *Logger) With(fields ...Field) *Logger {
	child := &Logger{output: l.output, level: l.level}
	child.fields = append(append(child.fields, l.fields...), fields...)
	return child
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields) }

func (l *Logger) log(level Level, msg string, fields []Field) {
	if level < l.level {
		return
	}

	line := make(map[string]any, len(l.fields)+len(fields)+3)
	for _, f := range l.fields {
		line[f.Key] = f.Value
	}
	for _, f := range fields {
		line[f.Key] = f.Value
	}
	// Reserved keys win over field keys of the same name.
	line["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	line["level"] = level.String()
	line["message"] = msg

	data, err := json.Marshal(line)
	if err != nil {
		data = []byte(fmt.Sprintf(`{"level":%q,"message":%q}`, level.String(), msg))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.output.Write(data)
	l.output.Write([]byte("\n"))
}
