// Package flushio provides flushable writers for VM output.
package flushio

import (
	"bufio"
	"io"
)

// WriteFlusher is a flush-able io.Writer.
type WriteFlusher interface {
	io.Writer
	Flush() error
}

// NewWriteFlusher returns w if it is already a WriteFlusher; in memory
// buffers and io.Discard get a no-op Flush; anything else is wrapped in a
// bufio.Writer.
func NewWriteFlusher(w io.Writer) WriteFlusher {
	if w == io.Discard {
		return nopFlusher{w}
	}
	if wf, is := w.(WriteFlusher); is {
		return wf
	}

	// as implemented by bytes.Buffer and strings.Builder
	type buffer interface {
		io.Writer
		Cap() int
		Len() int
		Grow(n int)
		Reset()
	}
	if _, isBuffer := w.(buffer); isBuffer {
		return nopFlusher{w}
	}

	return bufio.NewWriter(w)
}

type nopFlusher struct{ io.Writer }

func (nf nopFlusher) Flush() error { return nil }

// Tee combines WriteFlushers into one that writes into, and flushes, all of
// them in order. Nil arguments are skipped.
func Tee(wfs ...WriteFlusher) WriteFlusher {
	switch all := appendTee(nil, wfs...); len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	default:
		return all
	}
}

type tee []WriteFlusher

func (all tee) Write(p []byte) (n int, err error) {
	for _, wf := range all {
		n, err = wf.Write(p)
		if err != nil {
			return n, err
		}
		if n != len(p) {
			return n, io.ErrShortWrite
		}
	}
	return len(p), nil
}

func (all tee) Flush() (err error) {
	for _, wf := range all {
		if ferr := wf.Flush(); err == nil {
			err = ferr
		}
	}
	return err
}

func appendTee(all tee, some ...WriteFlusher) tee {
	for _, one := range some {
		if many, ok := one.(tee); ok {
			all = append(all, many...)
		} else if one != nil {
			all = append(all, one)
		}
	}
	return all
}
