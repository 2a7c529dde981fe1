package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jcorbin/cellforth/internal/cell"
	"github.com/jcorbin/cellforth/internal/logio"
	"github.com/jcorbin/cellforth/internal/panicerr"
)

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	{
		var exclusive []vmTestCase
		for _, vmt := range vmts {
			if vmt.exclusive {
				exclusive = append(exclusive, vmt)
			}
		}
		if len(exclusive) > 0 {
			vmts = exclusive
		}
	}
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type optFunc func(vm *VM)

func (f optFunc) apply(vm *VM) { f(vm) }

type vmTestCase struct {
	name    string
	opts    []interface{}
	ops     []func(vm *VM)
	expect  []func(t *testing.T, vm *VM)
	timeout time.Duration
	wantErr error

	exclusive   bool
	nextInputID int
}

func (vmt vmTestCase) apply(wraps ...func(vmTestCase) vmTestCase) vmTestCase {
	for _, wrap := range wraps {
		vmt = wrap(vmt)
	}
	return vmt
}

func (vmt vmTestCase) exclusiveTest() vmTestCase {
	vmt.exclusive = true
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	for _, opt := range opts {
		vmt.opts = append(vmt.opts, opt)
	}
	return vmt
}

func (vmt vmTestCase) withStack(values ...cell.Cell) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		for _, value := range values {
			vm.stack.Push(value)
		}
	}))
	return vmt
}

func (vmt vmTestCase) withoutPrelude() vmTestCase {
	vmt.opts = append(vmt.opts, WithoutPrelude())
	return vmt
}

func (vmt vmTestCase) withMemLimit(limit uint) vmTestCase {
	vmt.opts = append(vmt.opts, WithMemLimit(limit))
	return vmt
}

func (vmt vmTestCase) withInput(input string) vmTestCase {
	name := "input"
	if id := vmt.nextInputID; id > 0 {
		name += "_" + strconv.Itoa(id+1)
	}
	vmt.nextInputID++
	vmt.opts = append(vmt.opts, WithInput(NamedReader(name, strings.NewReader(input))))
	return vmt
}

func (vmt vmTestCase) withNamedInput(name string, input string) vmTestCase {
	vmt.opts = append(vmt.opts, WithInput(NamedReader(name, strings.NewReader(input))))
	return vmt
}

func (vmt vmTestCase) do(ops ...func(vm *VM)) vmTestCase {
	vmt.ops = append(vmt.ops, ops...)
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectStack(values ...cell.Cell) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if values == nil {
			values = []cell.Cell{}
		}
		assert.Equal(t, values, vm.stack.Values(), "expected stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectStackFormat(texts ...string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if texts == nil {
			texts = []string{}
		}
		values := vm.stack.Values()
		got := make([]string, len(values))
		for i, c := range values {
			got[i] = fmt.Sprintf("%v %v", c.Kind(), cell.Format(c, 10))
		}
		assert.Equal(t, texts, got, "expected formatted stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectRStack(values ...cell.Cell) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		if values == nil {
			values = []cell.Cell{}
		}
		assert.Equal(t, values, vm.rstack.Values(), "expected return stack values")
	})
	return vmt
}

func (vmt vmTestCase) expectMemAt(addr uint, values ...cell.Cell) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		buf := make([]cell.Cell, len(values))
		vm.mem.LoadInto(addr, buf)
		assert.Equal(t, values, buf, "expected memory values @%v", addr)
	})
	return vmt
}

func (vmt vmTestCase) expectWord(name string, body ...string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		item, ok := vm.dict.Lookup(name)
		if !assert.True(t, ok, "expected word %q to be defined", name) {
			return
		}
		var buf strings.Builder
		vmDumper{vm: vm}.formatWord(&buf, item)
		assert.Equal(t, strings.Join(body, " "), buf.String(), "expected %q definition", name)
	})
	return vmt
}

func (vmt vmTestCase) expectUndefined(name string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		_, ok := vm.dict.Lookup(name)
		assert.False(t, ok, "expected word %q to be undefined", name)
	})
	return vmt
}

func (vmt vmTestCase) expectHere(value int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, cell.Int(value), vm.load(addrHere), "expected HERE value")
	})
	return vmt
}

func (vmt vmTestCase) expectState(value int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, cell.Int(value), vm.load(addrState), "expected STATE value")
	})
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectReports(reports ...string) vmTestCase {
	var got []string
	vmt.opts = append(vmt.opts, WithReportf(func(mess string, args ...interface{}) {
		got = append(got, fmt.Sprintf(mess, args...))
	}))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, reports, got, "expected reports")
	})
	return vmt
}

func (vmt vmTestCase) expectDump(dump string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		var out strings.Builder
		vmDumper{
			vm:  vm,
			out: &out,
		}.dump()
		assert.Equal(t, dump, out.String(), "expected dump")
	})
	return vmt
}

func (vmt vmTestCase) withTestDump() vmTestCase {
	vmt.expect = append(vmt.expect, vmt.dumpToTest)
	return vmt
}

func (vmt vmTestCase) withTestOutput() vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		return WithTee(&logio.Writer{Logf: t.Logf, Prefix: "out: "})
	})
	return vmt
}

func (vmt vmTestCase) withTestHexOutput() vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		lw := &logio.Writer{Logf: t.Logf, Prefix: "hex: "}
		enc := hex.Dumper(lw)
		w := writeCloser{enc, closerChain{enc, lw}}
		return WithTee(w)
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	defer func(then time.Time) {
		label := "PASS"
		if t.Failed() {
			label = "FAIL"
		}
		t.Logf("%v\t%v\t%v", label, t.Name(), time.Since(then))
	}(time.Now())

	if testFails(func(t *testing.T) {
		vmt.runVMTest(context.Background(), t, vmt.buildVM(t))
	}) {
		vm := vmt.buildVM(t)
		WithLogf(t.Logf).apply(vm)
		vmt.runVMTest(context.Background(), t, vm)
	}
}

func (vmt vmTestCase) runVMTest(ctx context.Context, t *testing.T, vm *VM) {
	const defaultTimeout = time.Second
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	defer func() {
		if t.Failed() {
			vmt.dumpToTest(t, vm)
		}
	}()

	if err := vmt.runVM(ctx, vm); vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
	} else {
		assert.NoError(t, err, "unexpected VM run error")
	}

	if !t.Failed() {
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	}
}

func (vmt vmTestCase) runVM(ctx context.Context, vm *VM) (rerr error) {
	defer func() {
		if err := vm.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("vm.Close failed: %w", err)
		}
	}()

	if len(vmt.ops) == 0 {
		return vm.Run(ctx)
	}

	names := make([]string, len(vmt.ops))
	for i, op := range vmt.ops {
		names[i] = runtime.FuncForPC(reflect.ValueOf(op).Pointer()).Name()
	}
	return panicerr.Recover("vmTestCase.ops", func() error {
		vm.init()
		for i, op := range vmt.ops {
			vm.logf(">", "do[%v] %v", i, names[i])
			op(vm)
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		return nil
	})
}

func (vmt vmTestCase) buildVM(t *testing.T) *VM {
	const defaultMemLimit = 16 * 1024

	var opts []VMOption
	opts = append(opts, WithMemLimit(defaultMemLimit))
	for _, o := range vmt.opts {
		switch impl := o.(type) {
		case func(vmt *vmTestCase, t *testing.T) VMOption:
			opts = append(opts, impl(&vmt, t))
		case VMOption:
			opts = append(opts, impl)
		default:
			t.Logf("unsupported vmTestCase opt type %T", o)
			t.FailNow()
		}
	}
	return New(opts...)
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logio.Writer{Logf: t.Logf}
	defer lw.Close()
	vmDumper{vm: vm, out: &lw}.dump()
}

//// utilities

func testFails(fn func(t *testing.T)) bool {
	var fakeT testing.T
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(&fakeT)
	}()
	<-done
	return fakeT.Failed()
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type writeCloser struct {
	io.Writer
	io.Closer
}

type closerChain []io.Closer

func (cc closerChain) Close() (rerr error) {
	for _, cl := range cc {
		if cerr := cl.Close(); rerr == nil {
			rerr = cerr
		}
	}
	return rerr
}
