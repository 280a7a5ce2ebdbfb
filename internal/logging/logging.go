package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TimestampField is the key carrying the event time on every log line.
const TimestampField = "ts"

var (
	mu      sync.RWMutex
	current = New(os.Stdout, time.UTC)
)

// New returns a JSON-lines logger writing to w. Each line carries a "ts" field
// formatted as RFC3339Nano in loc.
func New(w io.Writer, loc *time.Location) zerolog.Logger {
	if loc == nil {
		loc = time.UTC
	}
	return zerolog.New(w).Hook(zerolog.HookFunc(func(e *zerolog.Event, _ zerolog.Level, _ string) {
		e.Str(TimestampField, time.Now().In(loc).Format(time.RFC3339Nano))
	}))
}

// SetDefault replaces the process-wide logger returned by L.
func SetDefault(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	current = l
}

// L returns the process-wide logger.
func L() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := current
	return &l
}

// Component returns the process-wide logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return L().With().Str("component", name).Logger()
}
