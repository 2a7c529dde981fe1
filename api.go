package main

import (
	"context"
	"errors"
	"io"

	"github.com/jcorbin/cellforth/internal/panicerr"
)

// New creates a VM; it is initialized on its first Run.
func New(opts ...VMOption) *VM {
	var vm VM
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	return &vm
}

// Run reads and evaluates all input, returning nil once it is exhausted.
// Errors evaluating any one token are reported, and do not end the run;
// Run only fails if ctx is done, if output fails, or on an internal panic.
func (vm *VM) Run(ctx context.Context) error {
	err := panicerr.Recover("VM", func() error {
		return vm.run(ctx)
	})
	if errors.Is(err, io.EOF) {
		err = nil
	}
	if ferr := vm.out.Flush(); err == nil {
		err = ferr
	}
	return err
}

// WithInput adds an input stream to be read after any prior ones.
func WithInput(r io.Reader) VMOption { return withInput(r) }

// WithInputs adds input streams to be read in order, after any prior ones.
func WithInputs(rs ...io.Reader) VMOption { return withInput(rs...) }

// WithOutput sets the output stream, replacing any prior one.
func WithOutput(w io.Writer) VMOption { return withOutput(w) }

// WithTee copies output to w, in addition to any prior output stream.
func WithTee(w io.Writer) VMOption { return withTee(w) }

// WithMemLimit limits memory addresses to less than limit.
func WithMemLimit(limit uint) VMOption { return withMemLimit(limit) }

// WithPageSize sets how many cells memory grows by at a time.
func WithPageSize(size uint) VMOption { return withPageSize(size) }

// WithBase sets the initial numeric base.
func WithBase(base int) VMOption { return withBase(base) }

// WithBridge sets the foreign call bridge used by CALL.
func WithBridge(b Bridge) VMOption { return withBridge(b) }

// WithoutPrelude skips defining the control flow words.
func WithoutPrelude() VMOption { return noPreludeOption{} }

// WithLogf sets a function to receive trace logging.
func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }

// WithReportf sets a function to receive diagnostics, like errors evaluating
// a token, instead of writing them to the output stream.
func WithReportf(reportf func(mess string, args ...interface{})) VMOption {
	return reportfOption(reportf)
}
