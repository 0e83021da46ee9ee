package internal

// Leveled logging shared by the sario packages.

import (
	"fmt"
	"log"
	"os"
)

type Logger struct {
	logLevel LogLevel
	logger   *log.Logger
}

type LogLevel int

const (
	// error level that should almost always be printed
	LevelError LogLevel = iota // decode or parse failure about to be thrown

	// debugging levels, okay to disable
	LevelWarn // something may be wrong, but not necessarily an error
	LevelInfo // nothing wrong, informational only

	// Production code by default only shows warnings and above.
	LogLevelDefault = LevelWarn

	// min, max levels for setting print level
	LevelMin = LevelError
	LevelMax = LevelInfo
)

var levelToPrefix = []string{
	"ERROR ",
	"WARN ",
	"INFO ",
}

func NewLogger() *Logger {
	logger := log.New(os.Stderr, "", log.LstdFlags)
	return &Logger{logLevel: LogLevelDefault, logger: logger}
}

func (l *Logger) LogLevel() LogLevel {
	return l.logLevel
}

// SetLogLevel returns the old level
func (l *Logger) SetLogLevel(level LogLevel) LogLevel {
	if level < LevelMin || level > LevelMax {
		panic("trying to set invalid log level")
	}
	old := l.logLevel
	l.logLevel = level
	return old
}

func (l *Logger) output(level LogLevel, s string) {
	if level > l.logLevel {
		return
	}
	l.logger.Output(2, levelToPrefix[level]+s)
}

func (l *Logger) Info(v ...any)                 { l.output(LevelInfo, fmt.Sprintln(v...)) }
func (l *Logger) Infof(format string, v ...any) { l.output(LevelInfo, fmt.Sprintf(format, v...)) }

func (l *Logger) Warn(v ...any)                 { l.output(LevelWarn, fmt.Sprintln(v...)) }
func (l *Logger) Warnf(format string, v ...any) { l.output(LevelWarn, fmt.Sprintf(format, v...)) }

func (l *Logger) Error(v ...any)                 { l.output(LevelError, fmt.Sprintln(v...)) }
func (l *Logger) Errorf(format string, v ...any) { l.output(LevelError, fmt.Sprintf(format, v...)) }
