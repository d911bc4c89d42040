package logging

import (
	"bytes"
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
)

// writer is an io.Writer that splits its input stream into lines and writes
// those lines to an underlying logging callback.
type writer struct {
	// callback is the logging callback.
	callback func(string)
	// buffer is any incomplete line fragment left over from a previous write.
	buffer []byte
}

// trimCarriageReturn trims any single trailing carriage return from the end of
// a byte slice.
func trimCarriageReturn(buffer []byte) []byte {
	if len(buffer) > 0 && buffer[len(buffer)-1] == '\r' {
		return buffer[:len(buffer)-1]
	}
	return buffer
}

// Write implements io.Writer.Write.
func (w *writer) Write(buffer []byte) (int, error) {
	w.buffer = append(w.buffer, buffer...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(buffer), nil
}

// Logger is the main logger type. It has the novel property that it still
// functions if nil, in which case every method is a no-op regardless of
// level. It wraps the standard logger from the log package, so it respects
// any flags set on that logger, and it is safe for concurrent use.
type Logger struct {
	// prefix is any prefix specified for the logger.
	prefix string
	// level is the minimum level at which this logger is enabled.
	level Level
}

// RootLogger is the root logger from which all other loggers derive. It logs
// at LevelInfo by default.
var RootLogger = &Logger{level: LevelInfo}

// NewLogger creates a new root logger at the specified level.
func NewLogger(level Level) *Logger {
	return &Logger{level: level}
}

// Sublogger creates a new sublogger with the specified name, inheriting the
// parent's level.
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}

	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	return &Logger{
		prefix: prefix,
		level:  l.level,
	}
}

// Level returns the logger's configured level. A nil logger reports
// LevelDisabled.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

// enabled reports whether a message at the given level would be logged.
func (l *Logger) enabled(level Level) bool {
	return l != nil && l.level >= level
}

// output is the internal logging method.
func (l *Logger) output(calldepth int, line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(calldepth, line)
}

// Error logs error information with an error prefix and red coloring. It is
// emitted whenever the logger is enabled at LevelError or above.
func (l *Logger) Error(v ...any) {
	if l.enabled(LevelError) {
		l.output(3, color.RedString("error: %s", fmt.Sprint(v...)))
	}
}

// Errorf is the formatted equivalent of Error.
func (l *Logger) Errorf(format string, v ...any) {
	if l.enabled(LevelError) {
		l.output(3, color.RedString("error: %s", fmt.Sprintf(format, v...)))
	}
}

// Warn logs warning information with a warning prefix and yellow coloring.
func (l *Logger) Warn(v ...any) {
	if l.enabled(LevelWarn) {
		l.output(3, color.YellowString("warning: %s", fmt.Sprint(v...)))
	}
}

// Warnf is the formatted equivalent of Warn.
func (l *Logger) Warnf(format string, v ...any) {
	if l.enabled(LevelWarn) {
		l.output(3, color.YellowString("warning: %s", fmt.Sprintf(format, v...)))
	}
}

// Info logs information with semantics equivalent to fmt.Print, gated on
// LevelInfo.
func (l *Logger) Info(v ...any) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Infof is the formatted equivalent of Info.
func (l *Logger) Infof(format string, v ...any) {
	if l.enabled(LevelInfo) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Debug logs information gated on LevelDebug.
func (l *Logger) Debug(v ...any) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Debugf is the formatted equivalent of Debug.
func (l *Logger) Debugf(format string, v ...any) {
	if l.enabled(LevelDebug) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Trace logs low-level probe decisions (the structured replacement for the
// original engine's debug prints; see the probe functions in package
// monitor). Gated on
// LevelTrace.
func (l *Logger) Trace(v ...any) {
	if l.enabled(LevelTrace) {
		l.output(3, fmt.Sprint(v...))
	}
}

// Tracef is the formatted equivalent of Trace.
func (l *Logger) Tracef(format string, v ...any) {
	if l.enabled(LevelTrace) {
		l.output(3, fmt.Sprintf(format, v...))
	}
}

// Writer returns an io.Writer that writes lines at LevelInfo.
func (l *Logger) Writer() io.Writer {
	if !l.enabled(LevelInfo) {
		return io.Discard
	}
	return &writer{callback: func(s string) { l.Info(s) }}
}
