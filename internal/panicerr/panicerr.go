// Package panicerr converts panics and runtime.Goexit calls into errors.
package panicerr

import (
	"errors"
	"fmt"
	"runtime/debug"
)

// Recover runs f in a new goroutine, returning any error it returns, or an
// error describing any panic or runtime.Goexit that ended it abnormally.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer func() {
			select {
			case errch <- exitError(name):
			default:
				// the happy path or a recovered panic already sent
			}
		}()
		defer func() {
			if e := recover(); e != nil {
				errch <- Recovered(name, e)
			}
		}()
		errch <- f()
	}()
	return <-errch
}

// Recovered converts a value returned by recover into an error, capturing
// the current stack; it must be called from the recovering deferred function.
func Recovered(name string, e interface{}) error {
	return panicError{name, e, debug.Stack()}
}

type exitError string

func (name exitError) Error() string {
	if name == "" {
		return "runtime.Goexit called"
	}
	return fmt.Sprintf("%v called runtime.Goexit", string(name))
}

type panicError struct {
	name  string
	e     interface{}
	stack []byte
}

func (pe panicError) Error() string { return fmt.Sprint(pe) }

func (pe panicError) Format(f fmt.State, c rune) {
	if pe.name == "" {
		fmt.Fprintf(f, "paniced: %v", pe.e)
	} else {
		fmt.Fprintf(f, "%v paniced: %v", pe.name, pe.e)
	}
	if c == 'v' && f.Flag('+') {
		fmt.Fprintf(f, "\nPanic stack: %s", pe.stack)
	}
}

func (pe panicError) Unwrap() error {
	err, _ := pe.e.(error)
	return err
}

// IsPanic returns true if err indicates a recovered goroutine panic.
func IsPanic(err error) bool {
	var pe panicError
	return errors.As(err, &pe)
}

// PanicStack returns the stack trace captured with a recovered panic, or "".
func PanicStack(err error) string {
	var pe panicError
	if errors.As(err, &pe) {
		return string(pe.stack)
	}
	return ""
}
