// Package dlog is diskplan's logging layer: a thin level-filtering wrapper
// around the standard log package.
//
// The teacher never reaches for a structured-logging library anywhere in
// its own sizeable ambient surface (internal/graph, internal/control,
// internal/ingest/git.go all call log.Printf directly, including around
// FUSE mount lifecycle and NFS serving, places a production repo would
// typically reach for one if it were going to), so diskplan follows that
// precedent rather than introducing zap/zerolog/logrus: one *log.Logger
// per level, with levels below the configured threshold writing to
// io.Discard.
package dlog

import (
	"io"
	"log"
	"os"
)

// Level is a verbosity threshold, selected by repeating --verbose.
type Level int

const (
	LevelWarn Level = iota
	LevelInfo
	LevelDebug
	LevelTrace
)

// LevelFromCount maps a --verbose repeat count to a Level, per SPEC_FULL.md
// §6.4 (warn/info/debug/trace). Counts beyond trace stay at trace.
func LevelFromCount(count int) Level {
	switch {
	case count <= 0:
		return LevelWarn
	case count == 1:
		return LevelInfo
	case count == 2:
		return LevelDebug
	default:
		return LevelTrace
	}
}

// Logger holds one *log.Logger per level; loggers below the configured
// threshold write to io.Discard so call sites never need their own
// level checks.
type Logger struct {
	warn  *log.Logger
	info  *log.Logger
	debug *log.Logger
	trace *log.Logger
}

// New builds a Logger writing to w at the given threshold. A nil w
// defaults to os.Stderr, matching the teacher's logging destination.
func New(w io.Writer, threshold Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	const flags = log.Ltime
	l := &Logger{
		warn: log.New(w, "WARN  ", flags),
	}
	l.info = leveled(w, "INFO  ", flags, threshold, LevelInfo)
	l.debug = leveled(w, "DEBUG ", flags, threshold, LevelDebug)
	l.trace = leveled(w, "TRACE ", flags, threshold, LevelTrace)
	return l
}

func leveled(w io.Writer, prefix string, flags int, threshold, at Level) *log.Logger {
	if threshold < at {
		return log.New(io.Discard, prefix, flags)
	}
	return log.New(w, prefix, flags)
}

func (l *Logger) Warnf(format string, args ...interface{})  { l.warn.Printf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.info.Printf(format, args...) }
func (l *Logger) Debugf(format string, args ...interface{}) { l.debug.Printf(format, args...) }
func (l *Logger) Tracef(format string, args ...interface{}) { l.trace.Printf(format, args...) }
