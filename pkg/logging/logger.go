package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"

	"github.com/folderlock/folderlock/pkg/folderlock"
)

// Logger is the main logger type. It has the novel property that it still
// functions if nil, but it doesn't log anything. It is safe for concurrent
// usage.
type Logger struct {
	// level is the maximum level at which lines are emitted.
	level Level
	// prefix is any prefix specified for the logger.
	prefix string
	// output is the underlying line logger.
	output *log.Logger
}

// NewLogger creates a new logger that writes lines at or below the specified
// level to the specified writer.
func NewLogger(level Level, writer io.Writer) *Logger {
	return &Logger{
		level:  level,
		output: log.New(writer, "", log.LstdFlags),
	}
}

// RootLogger is the root logger from which all other loggers derive. It writes
// to standard error at warning level, or at debug level if debugging is
// enabled.
var RootLogger *Logger

func init() {
	level := LevelWarn
	if folderlock.DebugEnabled {
		level = LevelDebug
	}
	RootLogger = NewLogger(level, os.Stderr)
}

// Level returns the logger's level. A nil logger reports LevelDisabled.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelDisabled
	}
	return l.level
}

// Sublogger creates a new sublogger with the specified name.
func (l *Logger) Sublogger(name string) *Logger {
	// If the logger is nil, then the sublogger will be as well.
	if l == nil {
		return nil
	}

	// Compute the new prefix.
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}

	// Create the new logger.
	return &Logger{
		level:  l.level,
		prefix: prefix,
		output: l.output,
	}
}

// enabled returns whether or not lines at the specified level are emitted.
func (l *Logger) enabled(level Level) bool {
	return l != nil && level <= l.level
}

// write is the internal logging method.
func (l *Logger) write(line string) {
	// Add a prefix if necessary.
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}

	// Log.
	l.output.Output(3, line)
}

// Error logs error information with an error prefix and red color.
func (l *Logger) Error(err error) {
	if l.enabled(LevelError) {
		l.write(color.RedString("Error: %v", err))
	}
}

// Errorf logs error information with semantics equivalent to fmt.Printf, with
// an error prefix and red color.
func (l *Logger) Errorf(format string, v ...interface{}) {
	if l.enabled(LevelError) {
		l.write(color.RedString("Error: %s", fmt.Sprintf(format, v...)))
	}
}

// Warn logs error information with a warning prefix and yellow color.
func (l *Logger) Warn(err error) {
	if l.enabled(LevelWarn) {
		l.write(color.YellowString("Warning: %v", err))
	}
}

// Warnf logs information with semantics equivalent to fmt.Printf, with a
// warning prefix and yellow color.
func (l *Logger) Warnf(format string, v ...interface{}) {
	if l.enabled(LevelWarn) {
		l.write(color.YellowString("Warning: %s", fmt.Sprintf(format, v...)))
	}
}

// Info logs basic execution information with semantics equivalent to
// fmt.Print.
func (l *Logger) Info(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.write(fmt.Sprint(v...))
	}
}

// Infof logs basic execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.write(fmt.Sprintf(format, v...))
	}
}

// Debug logs advanced execution information with semantics equivalent to
// fmt.Print.
func (l *Logger) Debug(v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.write(fmt.Sprint(v...))
	}
}

// Debugf logs advanced execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.write(fmt.Sprintf(format, v...))
	}
}

// Tracef logs low-level execution information with semantics equivalent to
// fmt.Printf.
func (l *Logger) Tracef(format string, v ...interface{}) {
	if l.enabled(LevelTrace) {
		l.write(fmt.Sprintf(format, v...))
	}
}
