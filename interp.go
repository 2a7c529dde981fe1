package main

import (
	"context"
	"errors"
	"io"

	"github.com/jcorbin/cellforth/internal/cell"
	"github.com/jcorbin/cellforth/internal/panicerr"
	"github.com/jcorbin/cellforth/internal/scan"
)

// run reads and evaluates tokens until input is exhausted, or ctx is done.
// Errors evaluating a token are reported, and do not stop the loop.
func (vm *VM) run(ctx context.Context) error {
	vm.init()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := vm.out.Flush(); err != nil {
			return err
		}

		token, err := vm.sc.Next()
		if err != nil {
			return err
		}

		if err := vm.interpret(ctx, token); err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if panicerr.IsPanic(err) {
				vm.logf("!", "%s", panicerr.PanicStack(err))
			}
			vm.report("%v", err)
		}
	}
}

// interpret evaluates one token: a word executes when interpreting or when
// immediate, and is otherwise compiled; anything else is a literal, pushed or
// compiled. Tokens that do not parse as numbers are taken as strings.
func (vm *VM) interpret(ctx context.Context, token string) (rerr error) {
	rsp := vm.rstack.Pointer()
	defer func() {
		if e := recover(); e != nil {
			ae, ok := e.(abortError)
			if !ok {
				ae = abortError{panicerr.Recovered(token, e)}
			}
			if err := vm.rstack.SetPointer(rsp); err != nil {
				vm.logf("!", "return stack restore failed: %v", err)
			}
			vm.ip, vm.nip = 0, 0
			rerr = ae.error
		}
	}()

	if item, ok := vm.dict.Lookup(token); ok {
		if item.Immediate || !vm.compiling() {
			vm.logf(">", "exec %q @%v", token, item.Addr)
			vm.exec(ctx, item.Addr)
		} else {
			vm.compile(cell.Addr(item.Addr))
		}
		return nil
	}

	value, err := scan.ParseNumber(token, vm.numBase())
	if err != nil {
		vm.report("warning: %v, taking it as a string", err)
		value = cell.Str(token)
	}
	if vm.compiling() {
		vm.compileCall(vmCodeLit)
		vm.compile(value)
	} else {
		vm.push(value)
	}
	return nil
}
