package main

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jcorbin/cellforth/internal/cell"
	"github.com/jcorbin/cellforth/internal/ffi"
)

// Bridge calls foreign members named by a descriptor; see CALL.
type Bridge interface {
	Call(target cell.Cell, desc ffi.Descriptor, args []cell.Cell) (cell.Cell, error)
}

var errNoBridge = errors.New("no foreign bridge configured")

// call implements CALL ( args... target descriptor -- result ), where the
// descriptor is a string like "strings/Repeat/2", and its arity says how many
// arguments to pop from beneath the target.
func (vm *VM) call() {
	text := vm.popStr()
	desc, err := ffi.ParseDescriptor(text)
	vm.abortif(err)

	target := vm.pop()
	vm.abortif(vm.stack.Need(desc.Arity))
	args := make([]cell.Cell, desc.Arity)
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = vm.pop()
	}

	if vm.bridge == nil {
		vm.abort(&ffi.CallError{Desc: desc, Err: errNoBridge})
	}
	vm.logf("&", "call %v %v %v", desc, target, args)
	result, err := vm.bridge.Call(target, desc, args)
	vm.abortif(err)
	vm.push(result)
}

// StdBridge returns a registry of common standard library functions and
// types, as provided to the command line runner.
func StdBridge() *ffi.Registry {
	var reg ffi.Registry

	reg.Func("strings", "ToUpper", strings.ToUpper)
	reg.Func("strings", "ToLower", strings.ToLower)
	reg.Func("strings", "Repeat", strings.Repeat)
	reg.Func("strings", "Split", strings.Split)
	reg.Func("strings", "Join", strings.Join)
	reg.Func("strings", "Contains", strings.Contains)
	reg.Func("strings", "TrimSpace", strings.TrimSpace)
	reg.Type("strings.Builder", (*strings.Builder)(nil))

	reg.Func("strconv", "Itoa", strconv.Itoa)
	reg.Func("strconv", "Atoi", strconv.Atoi)
	reg.Func("strconv", "Quote", strconv.Quote)

	reg.Func("fmt", "Sprint", fmt.Sprint)
	reg.Func("fmt", "Sprintf", fmt.Sprintf)

	reg.Func("math", "Sqrt", math.Sqrt)
	reg.Func("math", "Pow", math.Pow)
	reg.Func("math", "Abs", math.Abs)

	reg.Func("time", "Now", time.Now)
	reg.Func("time", "Since", time.Since)

	return &reg
}
