// Package telemetry wires the runtime's fault and rewrite-rate events into
// a structured zerolog logger, and keeps a small ring buffer of recent
// events for anything that wants to inspect runtime health after the fact
// (a CLI's final report, a test assertion) without re-parsing log lines.
package telemetry

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Event is one recorded fault or rate sample, kept in Logger's ring buffer.
type Event struct {
	Time time.Time
	Kind string
	Err  error
	Rate float64
}

// Logger pairs a zerolog.Logger with a bounded ring buffer of recent
// Events. A zero-capacity buffer disables buffering and
// keeps only the live log output.
type Logger struct {
	log zerolog.Logger

	cap   int
	ring  []Event
	head  int
	count int
}

// New builds a Logger writing human-readable console output to w (os.Stderr
// is typical outside of tests), buffering up to capacity recent events.
func New(w io.Writer, capacity int) *Logger {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return &Logger{
		log: zerolog.New(console).With().Timestamp().Logger(),
		cap: capacity,
	}
}

// Fault records a run-time fault (heap exhaustion, an unknown redex) at
// error level.
func (l *Logger) Fault(err error) {
	l.log.Error().Err(err).Msg("hvmnet fault")
	l.record(Event{Time: time.Now(), Kind: "fault", Err: err})
}

// RewriteRate records a periodic throughput sample (rewrites per second)
// at info level, e.g. emitted by a driver progress ticker.
func (l *Logger) RewriteRate(rewrites uint64, elapsed time.Duration) {
	rate := float64(rewrites) / elapsed.Seconds()
	l.log.Info().
		Uint64("rewrites", rewrites).
		Dur("elapsed", elapsed).
		Float64("rewrites_per_sec", rate).
		Msg("rewrite rate")
	l.record(Event{Time: time.Now(), Kind: "rate", Rate: rate})
}

func (l *Logger) record(e Event) {
	if l.cap <= 0 {
		return
	}
	if len(l.ring) < l.cap {
		l.ring = append(l.ring, e)
	} else {
		l.ring[l.head] = e
		l.head = (l.head + 1) % l.cap
	}
	l.count++
}

// Recent returns up to the buffer's capacity of the most recently recorded
// events, oldest first.
func (l *Logger) Recent() []Event {
	if l.count <= len(l.ring) {
		out := make([]Event, len(l.ring))
		copy(out, l.ring)
		return out
	}
	out := make([]Event, 0, len(l.ring))
	out = append(out, l.ring[l.head:]...)
	out = append(out, l.ring[:l.head]...)
	return out
}
