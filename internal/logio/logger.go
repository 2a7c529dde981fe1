// Package logio provides the leveled logger used by the command line runner,
// and an io.Writer that forwards lines into any printf-style log function.
package logio

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// Logger writes leveled log lines like "level: message\n" to an output
// stream, and remembers whether any error was logged.
type Logger struct {
	sync.Mutex
	output   io.Writer
	buf      bytes.Buffer
	exitCode int
}

// SetOutput sets the logger's output stream.
func (log *Logger) SetOutput(out io.Writer) {
	log.Lock()
	defer log.Unlock()
	log.output = out
}

// ExitCode returns a code to pass to os.Exit: non-zero if any error has been
// logged, 2 if writing a log line itself failed.
func (log *Logger) ExitCode() int {
	log.Lock()
	defer log.Unlock()
	return log.exitCode
}

// Leveledf returns a printf-style function that logs at the given level.
func (log *Logger) Leveledf(level string) func(mess string, args ...interface{}) {
	return func(mess string, args ...interface{}) { log.Printf(level, mess, args...) }
}

// ErrorIf logs any non-nil error through Errorf.
func (log *Logger) ErrorIf(err error) {
	if err != nil {
		log.Errorf("%+v", err)
	}
}

// Errorf is like Printf("ERROR", ...) but additionally makes ExitCode return
// non-zero.
func (log *Logger) Errorf(mess string, args ...interface{}) {
	log.Lock()
	defer log.Unlock()
	if log.exitCode == 0 {
		log.exitCode = 1
	}
	log.printf("ERROR", mess, args...)
}

// Printf prints a line to the output stream like "level: message...\n".
func (log *Logger) Printf(level, mess string, args ...interface{}) {
	log.Lock()
	defer log.Unlock()
	log.printf(level, mess, args...)
}

func (log *Logger) printf(level, mess string, args ...interface{}) {
	if level != "" {
		log.buf.WriteString(level)
		log.buf.WriteString(": ")
	}
	if len(args) > 0 {
		fmt.Fprintf(&log.buf, mess, args...)
	} else {
		log.buf.WriteString(mess)
	}
	if b := log.buf.Bytes(); len(b) > 0 && b[len(b)-1] != '\n' {
		log.buf.WriteByte('\n')
	}
	if log.output == nil {
		log.buf.Reset()
		return
	}
	if _, err := log.buf.WriteTo(log.output); err != nil {
		log.buf.Reset()
		log.exitCode = 2
	}
}
