package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

type Fields map[string]any

type Logger struct {
	service string
	base    Fields
	out     io.Writer
	mu      *sync.Mutex
}

func NewLogger(service string) *Logger {
	return NewLoggerTo(service, os.Stdout)
}

// NewLoggerTo writes JSON lines to out instead of stdout.
func NewLoggerTo(service string, out io.Writer) *Logger {
	if out == nil {
		out = io.Discard
	}
	return &Logger{
		service: strings.TrimSpace(service),
		out:     out,
		mu:      &sync.Mutex{},
	}
}

// With returns a logger that adds fields to every entry. The child shares the
// parent's writer and lock.
func (l *Logger) With(fields Fields) *Logger {
	if l == nil {
		return nil
	}
	merged := Fields{}
	for key, value := range l.base {
		merged[key] = value
	}
	for key, value := range fields {
		merged[key] = value
	}
	return &Logger{
		service: l.service,
		base:    merged,
		out:     l.out,
		mu:      l.mu,
	}
}

func (l *Logger) Info(msg string, fields Fields) {
	l.log("info", msg, fields)
}

func (l *Logger) Warn(msg string, fields Fields) {
	l.log("warn", msg, fields)
}

func (l *Logger) Error(msg string, fields Fields) {
	l.log("error", msg, fields)
}

func (l *Logger) log(level, msg string, fields Fields) {
	if l == nil {
		return
	}

	entry := map[string]any{
		"ts":      time.Now().UTC().Format(time.RFC3339Nano),
		"level":   strings.TrimSpace(level),
		"msg":     strings.TrimSpace(msg),
		"service": strings.TrimSpace(l.service),
	}
	addFields(entry, l.base)
	addFields(entry, fields)

	payload, err := json.Marshal(entry)
	if err != nil {
		payload = []byte(fmt.Sprintf(`{"ts":"%s","level":"error","msg":"logger_marshal_failed","service":"%s"}`,
			time.Now().UTC().Format(time.RFC3339Nano),
			strings.TrimSpace(l.service),
		))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.out, string(payload))
}

func addFields(entry map[string]any, fields Fields) {
	for key, value := range fields {
		if strings.TrimSpace(key) == "" || value == nil {
			continue
		}
		if stringValue, ok := value.(string); ok && strings.TrimSpace(stringValue) == "" {
			continue
		}
		if errValue, ok := value.(error); ok {
			value = errValue.Error()
		}
		entry[strings.TrimSpace(key)] = value
	}
}
