package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jcorbin/cellforth/internal/cell"
	"github.com/jcorbin/cellforth/internal/dict"
	"github.com/jcorbin/cellforth/internal/mem"
	"github.com/jcorbin/cellforth/internal/stack"
)

// Fixed addresses of the VM variables, and of the region where the
// dictionary starts. Each variable holds an Int cell.
const (
	addrHere   = 0 // free memory pointer
	addrLatest = 1 // entry address of the newest word, 0 if none
	addrState  = 2 // 0 interpreting, 1 compiling
	addrBase   = 3 // numeric base for parsing and printing

	// addrTrampoline holds an Addr to the internal halt word at addrHalt;
	// every outer execution returns through it.
	addrTrampoline = 8
	addrHalt       = 9

	memBase = 16
)

const defaultBase = 10

// VM is an indirect threaded interpreter over a single cell memory that
// holds both code and data.
//
// The cell at a word's entry address is always a primitive code: DOCOL for
// colon definitions, whose body follows as a sequence of word addresses,
// literal pairs, and branch offsets ending with the address of EXIT.
type VM struct {
	core

	// ip is the entry address of the word running now; nip is the address
	// of the next cell to fetch from the running definition.
	ip, nip uint
	halted  bool

	mem    mem.Cells
	stack  stack.Stack
	rstack stack.Stack
	dict   dict.Dictionary

	// entry addresses of every primitive word, indexed by code
	codeAddr [vmCodeMax]uint

	bridge    Bridge
	base      int
	noPrelude bool
	booted    bool
}

// Words returns the names of all visible dictionary words, newest first.
func (vm *VM) Words() []string { return vm.dict.Names() }

// init lays out the VM variables and primitive words; calling it again has
// no effect.
func (vm *VM) init() {
	if vm.booted {
		return
	}
	vm.booted = true

	if vm.sc.In == nil {
		vm.sc.In = &vm.in
	}
	vm.rstack.Name = "return stack"
	if vm.mem.PageSize == 0 {
		vm.mem.PageSize = mem.DefaultPageSize
	}
	if vm.base == 0 {
		vm.base = defaultBase
	}

	vm.stor(addrHere, cell.Int(memBase))
	vm.stor(addrLatest, cell.Int(0))
	vm.stor(addrState, cell.Int(0))
	vm.stor(addrBase, cell.Int(vm.base))
	vm.stor(addrHalt, cell.Prim(vmCodeHalt))
	vm.stor(addrTrampoline, cell.Addr(addrHalt))
	vm.codeAddr[vmCodeHalt] = addrHalt

	for code := vmCode(0); code < vmCodeMax; code++ {
		def := &vmCodeTable[code]
		if def.internal {
			continue
		}
		addr := vm.allot(cell.Prim(code))
		item := vm.dict.Define(def.name, addr, false, def.immediate)
		item.Length = 1
		vm.codeAddr[code] = addr
	}
	vm.setLatest(vm.dict.Latest())

	if !vm.noPrelude {
		vm.in.Queue = append([]io.Reader{preludeSource.reader()}, vm.in.Queue...)
	}
}

//// memory

func (vm *VM) load(addr uint) cell.Cell {
	c, err := vm.mem.Load(addr)
	vm.abortif(err)
	return c
}

func (vm *VM) stor(addr uint, values ...cell.Cell) {
	vm.abortif(vm.mem.Stor(addr, values...))
}

func (vm *VM) loadAddr(addr uint) uint {
	a, err := cell.ToAddr(vm.load(addr))
	vm.abortif(err)
	return a
}

func (vm *VM) loadInt(addr uint) int {
	n, err := cell.ToInt(vm.load(addr))
	vm.abortif(err)
	return n
}

func (vm *VM) here() uint      { return vm.loadAddr(addrHere) }
func (vm *VM) compiling() bool { return vm.loadInt(addrState) != 0 }

func (vm *VM) numBase() int {
	if b := vm.loadInt(addrBase); b >= 2 && b <= 36 {
		return b
	}
	return defaultBase
}

func (vm *VM) setState(compiling bool) {
	if compiling {
		vm.stor(addrState, cell.Int(1))
	} else {
		vm.stor(addrState, cell.Int(0))
	}
}

func (vm *VM) setLatest(item *dict.Item) {
	if item == nil {
		vm.stor(addrLatest, cell.Int(0))
	} else {
		vm.stor(addrLatest, cell.Int(item.Addr))
	}
}

// allot stores values at HERE, advancing it past them, and returns the
// address of the first one.
func (vm *VM) allot(values ...cell.Cell) uint {
	h := vm.here()
	vm.stor(h, values...)
	vm.stor(addrHere, cell.Int(h+uint(len(values))))
	return h
}

// compile appends values to the definition under construction, extending
// the latest word's length when it ends at HERE.
func (vm *VM) compile(values ...cell.Cell) {
	h := vm.allot(values...)
	if latest := vm.dict.Latest(); latest != nil && latest.Addr+latest.Length == h {
		latest.Length += uint(len(values))
	}
	vm.logf("+", "compile @%v %v", h, values)
}

// compileCall appends a reference to the word with the given primitive code.
func (vm *VM) compileCall(code vmCode) { vm.compile(cell.Addr(vm.codeAddr[code])) }

//// stacks

func (vm *VM) push(c cell.Cell) { vm.stack.Push(c) }

func (vm *VM) pop() cell.Cell {
	c, err := vm.stack.Pop()
	vm.abortif(err)
	return c
}

func (vm *VM) popInt() int {
	n, err := cell.ToInt(vm.pop())
	vm.abortif(err)
	return n
}

func (vm *VM) popAddr() uint {
	a, err := cell.ToAddr(vm.pop())
	vm.abortif(err)
	return a
}

func (vm *VM) popStr() string {
	c := vm.pop()
	s, ok := c.(cell.Str)
	if !ok {
		vm.abort(cell.TypeError{Op: "string", Kinds: []cell.Kind{c.Kind()}})
	}
	return string(s)
}

func (vm *VM) pushr(c cell.Cell) { vm.rstack.Push(c) }

func (vm *VM) popr() cell.Cell {
	c, err := vm.rstack.Pop()
	vm.abortif(err)
	return c
}

//// execution

// exec runs the word at addr until it returns through the trampoline.
func (vm *VM) exec(ctx context.Context, addr uint) {
	if vm.logfn != nil {
		defer vm.withLogPrefix("	")()
	}

	vm.ip, vm.nip = addr, addrTrampoline
	vm.halted = false
	for !vm.halted {
		vm.step()
		vm.abortif(ctx.Err())
	}
}

func (vm *VM) step() {
	at := vm.ip
	c := vm.load(at)
	code, ok := c.(cell.Prim)
	if !ok || uint(code) >= uint(vmCodeMax) {
		vm.abort(codeError{at, c})
	}
	def := &vmCodeTable[code]
	if vm.logfn != nil {
		vm.logf("@", "exec @%v %v -- r:%v s:%v", at, def.name, vm.rstack.Values(), vm.stack.Values())
	}
	def.run(vm)
	if !def.ownDispatch {
		vm.next()
	}
}

// next dispatches to the word referenced by the cell at nip.
func (vm *VM) next() {
	c := vm.load(vm.nip)
	a, ok := c.(cell.Addr)
	if !ok {
		vm.abort(codeError{vm.nip, c})
	}
	vm.ip = uint(a)
	vm.nip++
}

// codeError reports a cell that cannot be executed: the code field of a word
// that is not a primitive, or a body cell that is not a word address.
type codeError struct {
	addr uint
	c    cell.Cell
}

func (ce codeError) Error() string {
	return fmt.Sprintf("cannot execute %v %v @%v", ce.c.Kind(), cell.Format(ce.c, 10), ce.addr)
}

func (ce codeError) Unwrap() error { return mem.AddressError{Addr: ce.addr} }
