package main

import (
	"io"

	"github.com/jcorbin/cellforth/internal/flushio"
)

// VMOption configures a VM under New.
type VMOption interface{ apply(vm *VM) }

// VMOptions combines options into one, applied in order; nils are skipped.
func VMOptions(opts ...VMOption) VMOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, impl)
		}
	}
	if len(res) == 1 {
		return res[0]
	}
	return res
}

type options []VMOption

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

var defaultOptions = VMOptions(
	withOutput(io.Discard),
)

type inputOption []io.Reader
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type memLimitOption uint
type pageSizeOption uint
type baseOption int
type bridgeOption struct{ Bridge }
type noPreludeOption struct{}
type logfnOption func(mess string, args ...interface{})
type reportfOption func(mess string, args ...interface{})

func withInput(rs ...io.Reader) inputOption { return inputOption(rs) }
func withOutput(w io.Writer) outputOption { return outputOption{w} }
func withTee(w io.Writer) teeOption { return teeOption{w} }
func withMemLimit(limit uint) memLimitOption { return memLimitOption(limit) }
func withPageSize(size uint) pageSizeOption { return pageSizeOption(size) }
func withBase(base int) baseOption { return baseOption(base) }
func withBridge(b Bridge) bridgeOption { return bridgeOption{b} }
func withLogfn(logfn func(string, ...interface{})) logfnOption { return logfnOption(logfn) }

func (rs inputOption) apply(vm *VM) { vm.in.Queue = append(vm.in.Queue, rs...) }

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.Tee(vm.out, flushio.NewWriteFlusher(o.Writer))
}

func (lim memLimitOption) apply(vm *VM) { vm.mem.Limit = uint(lim) }
func (size pageSizeOption) apply(vm *VM) { vm.mem.PageSize = uint(size) }
func (b baseOption) apply(vm *VM) { vm.base = int(b) }
func (b bridgeOption) apply(vm *VM) { vm.bridge = b.Bridge }
func (noPreludeOption) apply(vm *VM) { vm.noPrelude = true }
func (logfn logfnOption) apply(vm *VM) { vm.logfn = logfn }
func (fn reportfOption) apply(vm *VM) { vm.reportf = fn }
