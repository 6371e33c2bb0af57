package logger

import (
	"bytes"
	"fmt"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"
)

// Logger writes the entries of a single subsystem to a Backend.
type Logger struct {
	level     uint32
	tag       string
	backend   *Backend
	writeChan chan<- logEntry
}

// Trace writes args at LevelTrace.
func (l *Logger) Trace(args ...interface{}) { l.write(LevelTrace, args...) }

// Tracef formats and writes at LevelTrace.
func (l *Logger) Tracef(format string, args ...interface{}) { l.writef(LevelTrace, format, args...) }

// Debug writes args at LevelDebug.
func (l *Logger) Debug(args ...interface{}) { l.write(LevelDebug, args...) }

// Debugf formats and writes at LevelDebug.
func (l *Logger) Debugf(format string, args ...interface{}) { l.writef(LevelDebug, format, args...) }

// Info writes args at LevelInfo.
func (l *Logger) Info(args ...interface{}) { l.write(LevelInfo, args...) }

// Infof formats and writes at LevelInfo.
func (l *Logger) Infof(format string, args ...interface{}) { l.writef(LevelInfo, format, args...) }

// Warn writes args at LevelWarn.
func (l *Logger) Warn(args ...interface{}) { l.write(LevelWarn, args...) }

// Warnf formats and writes at LevelWarn.
func (l *Logger) Warnf(format string, args ...interface{}) { l.writef(LevelWarn, format, args...) }

// Error writes args at LevelError.
func (l *Logger) Error(args ...interface{}) { l.write(LevelError, args...) }

// Errorf formats and writes at LevelError.
func (l *Logger) Errorf(format string, args ...interface{}) { l.writef(LevelError, format, args...) }

// Critical writes args at LevelCritical.
func (l *Logger) Critical(args ...interface{}) { l.write(LevelCritical, args...) }

// Criticalf formats and writes at LevelCritical.
func (l *Logger) Criticalf(format string, args ...interface{}) { l.writef(LevelCritical, format, args...) }

// Level returns the current level of the logger.
func (l *Logger) Level() Level {
	return Level(atomic.LoadUint32(&l.level))
}

// SetLevel changes the level of the logger.
func (l *Logger) SetLevel(level Level) {
	atomic.StoreUint32(&l.level, uint32(level))
}

// Backend returns the backend this logger writes to.
func (l *Logger) Backend() *Backend {
	return l.backend
}

func (l *Logger) write(level Level, args ...interface{}) {
	if l.Level() > level {
		return
	}
	l.emit(level, fmt.Sprint(args...))
}

func (l *Logger) writef(level Level, format string, args ...interface{}) {
	if l.Level() > level {
		return
	}
	l.emit(level, fmt.Sprintf(format, args...))
}

func (l *Logger) emit(level Level, message string) {
	now := time.Now()
	var file string
	var line int
	if l.backend.flag&(LogFlagShortFile|LogFlagLongFile) != 0 {
		file, line = callsite(l.backend.flag)
	}

	buf := bytes.NewBuffer(make([]byte, 0, normalLogSize))
	writeHeader(buf, now, level.String(), l.tag, file, line)
	buf.WriteString(message)
	buf.WriteByte('\n')

	if !l.backend.IsRunning() {
		// The backend was never started (tests, early startup): fall back to
		// stderr rather than blocking on a channel nobody drains.
		_, _ = os.Stderr.Write(buf.Bytes())
		return
	}
	l.writeChan <- logEntry{log: buf.Bytes(), level: level}
}

func writeHeader(buf *bytes.Buffer, t time.Time, level, tag, file string, line int) {
	buf.WriteString(t.Format("2006-01-02 15:04:05.000"))
	buf.WriteString(" [")
	buf.WriteString(level)
	buf.WriteString("] ")
	buf.WriteString(tag)
	if file != "" {
		buf.WriteByte(' ')
		buf.WriteString(file)
		buf.WriteByte(':')
		buf.WriteString(fmt.Sprint(line))
	}
	buf.WriteString(": ")
}

// callsite returns the file and line of the caller of the exported logging
// method.
func callsite(flag uint32) (string, int) {
	_, file, line, ok := runtime.Caller(4)
	if !ok {
		return "???", 0
	}
	if flag&LogFlagShortFile != 0 {
		if index := strings.LastIndexByte(file, '/'); index >= 0 {
			file = file[index+1:]
		}
	}
	return file, line
}
