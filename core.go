package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/jcorbin/cellforth/internal/fileinput"
	"github.com/jcorbin/cellforth/internal/flushio"
	"github.com/jcorbin/cellforth/internal/runeio"
	"github.com/jcorbin/cellforth/internal/scan"
)

// core holds the VM's input and output plumbing.
type core struct {
	logging
	in  fileinput.Input
	sc  scan.Scanner
	out flushio.WriteFlusher

	reportf func(mess string, args ...interface{})
}

// Close flushes output and closes any input not yet read.
func (c *core) Close() (err error) {
	if c.out != nil {
		err = c.out.Flush()
	}
	for _, r := range c.in.Queue {
		if cl, ok := r.(io.Closer); ok {
			if cerr := cl.Close(); err == nil {
				err = cerr
			}
		}
	}
	c.in.Queue = nil
	return err
}

// abort ends evaluation of the current token with err, which the outer loop
// recovers and reports.
func (c *core) abort(err error) {
	// ignore any panics while trying to flush output
	func() {
		defer func() { recover() }()
		if c.out != nil {
			if ferr := c.out.Flush(); err == nil {
				err = ferr
			}
		}
	}()

	// ignore any panics while logging
	func() {
		defer func() { recover() }()
		c.logf("!", "abort: %v", err)
	}()

	panic(abortError{err})
}

func (c *core) abortif(err error) {
	if err != nil {
		c.abort(err)
	}
}

type abortError struct{ error }

func (err abortError) Unwrap() error { return err.error }

func (c *core) report(mess string, args ...interface{}) {
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	where := c.in.Where()
	c.logf("?", "%v: %v", where, mess)
	if c.reportf != nil {
		c.reportf("%v: %v", where, mess)
		return
	}
	io.WriteString(c.out, where.String())
	io.WriteString(c.out, ": ")
	io.WriteString(c.out, mess)
	io.WriteString(c.out, "\n")
}

func (c *core) token() string {
	if err := c.out.Flush(); err != nil {
		c.abort(err)
	}
	token, err := c.sc.Next()
	c.abortif(err)
	c.logf(">", "scan %q @%v", token, c.in.Where())
	return token
}

func (c *core) readRune() rune {
	if err := c.out.Flush(); err != nil {
		c.abort(err)
	}
	r, err := c.sc.Key()
	c.abortif(err)
	return r
}

func (c *core) writeRune(r rune) {
	_, err := runeio.WriteANSIRune(c.out, r)
	c.abortif(err)
}

func (c *core) writeString(s string) {
	_, err := runeio.WriteANSIString(c.out, s)
	c.abortif(err)
}

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 && mark != "" {
		mark = strings.Repeat(mark[:1], n) + mark
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
