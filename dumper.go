package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jcorbin/cellforth/internal/cell"
	"github.com/jcorbin/cellforth/internal/dict"
)

type fmtBuf interface {
	Len() int
	Write(p []byte) (n int, err error)
	WriteByte(c byte) error
	WriteRune(r rune) (n int, err error)
	WriteString(s string) (n int, err error)
}

// vmDumper formats VM memory, decompiling words along the way.
type vmDumper struct {
	vm  *VM
	out io.Writer

	addrWidth int

	// raw additionally prints every cell of each word
	raw bool
}

func (dump vmDumper) dump() {
	vm := dump.vm
	fmt.Fprintf(dump.out, "# VM Dump\n")
	fmt.Fprintf(dump.out, "  ip: %v nip: %v\n", vm.ip, vm.nip)
	fmt.Fprintf(dump.out, "  stack: %v\n", formatCells(vm.stack.Values(), vm.base))
	fmt.Fprintf(dump.out, "  rstack: %v\n", formatCells(vm.rstack.Values(), vm.base))
	fmt.Fprintf(dump.out, "  words: %v\n", len(vm.dict.Items()))
	dump.dumpMem()
}

func (dump vmDumper) dumpMem() {
	size := dump.vm.mem.Size()
	if dump.addrWidth == 0 {
		dump.addrWidth = len(strconv.Itoa(int(size)))
	}
	var buf strings.Builder
	for addr := uint(0); addr < size; {
		if addr == memBase {
			io.WriteString(dump.out, "# Dictionary\n")
		}
		fmt.Fprintf(&buf, "  @%*v ", dump.addrWidth, addr)
		n := buf.Len()
		addr = dump.formatMem(&buf, addr)
		if buf.Len() > n {
			buf.WriteByte('\n')
			io.WriteString(dump.out, buf.String())
		}
		buf.Reset()
	}
}

var varNames = map[uint]string{
	addrHere:       "HERE",
	addrLatest:     "LATEST",
	addrState:      "STATE",
	addrBase:       "BASE",
	addrTrampoline: "trampoline",
	addrHalt:       "halt",
}

// formatMem formats the cell, or word, at addr, returning the next address
// to format.
func (dump vmDumper) formatMem(buf fmtBuf, addr uint) uint {
	vm := dump.vm
	if !vm.mem.Allocated(addr) {
		return addr + 1
	}
	c, _ := vm.mem.Load(addr)

	if addr < memBase {
		buf.WriteString(dump.formatCell(c))
		if name, ok := varNames[addr]; ok {
			buf.WriteByte(' ')
			buf.WriteString(name)
		}
		return addr + 1
	}

	if item, ok := vm.dict.ByAddr(addr); ok {
		end := dump.formatWord(buf, item)
		if dump.raw {
			cells := make([]cell.Cell, end-addr)
			vm.mem.LoadInto(addr, cells)
			fmt.Fprintf(buf, "\n  %*v %v", dump.addrWidth, "", formatCells(cells, 10))
		}
		return end
	}

	buf.WriteString(dump.formatCell(c))
	return addr + 1
}

// formatWord decompiles item, returning the address after its last cell.
func (dump vmDumper) formatWord(buf fmtBuf, item *dict.Item) uint {
	vm := dump.vm
	c, _ := vm.mem.Load(item.Addr)
	code, isPrim := c.(cell.Prim)
	end := item.Addr + 1
	if item.Length > 1 {
		end = item.Addr + item.Length
	}

	switch {
	case !isPrim || uint(code) >= uint(vmCodeMax):
		fmt.Fprintf(buf, "%v <invalid code %v>", item.Name, c)
		return end

	case vmCode(code) == vmCodeDovar:
		fmt.Fprintf(buf, "CREATE %v", item.Name)
		for addr := item.Addr + 1; addr < end; addr++ {
			buf.WriteByte(' ')
			buf.WriteString(dump.formatCell(dump.load(addr)))
			buf.WriteString(" ,")
		}

	case vmCode(code) == vmCodeDocon:
		fmt.Fprintf(buf, "%v CONSTANT %v", dump.formatCell(dump.load(item.Addr+1)), item.Name)

	case vmCode(code) != vmCodeDocol:
		fmt.Fprintf(buf, "%v <primitive %v>", item.Name, vmCodeTable[code].name)

	default:
		buf.WriteString(": ")
		buf.WriteString(item.Name)
		for addr := item.Addr + 1; addr < end; {
			buf.WriteByte(' ')
			addr = dump.formatCode(buf, addr)
		}
	}

	if item.Immediate {
		buf.WriteString(" IMMEDIATE")
	}
	if item.Hidden {
		buf.WriteString(" HIDDEN")
	}
	return end
}

// formatCode formats one element of a colon definition body, returning the
// address of the next one.
func (dump vmDumper) formatCode(buf fmtBuf, addr uint) uint {
	vm := dump.vm
	c := dump.load(addr)
	addr++

	a, ok := c.(cell.Addr)
	if !ok {
		buf.WriteString(dump.formatCell(c))
		return addr
	}

	switch uint(a) {
	case vm.codeAddr[vmCodeExit]:
		buf.WriteByte(';')
		return addr
	case vm.codeAddr[vmCodeLit]:
		buf.WriteString(dump.formatLiteral(dump.load(addr)))
		return addr + 1
	case vm.codeAddr[vmCodeBranch], vm.codeAddr[vmCodeZBranch]:
		off := dump.load(addr)
		fmt.Fprintf(buf, "%v(%v)", dump.formatName(uint(a)), dump.formatCell(off))
		return addr + 1
	}

	buf.WriteString(dump.formatName(uint(a)))
	return addr
}

func (dump vmDumper) formatLiteral(c cell.Cell) string {
	switch v := c.(type) {
	case cell.Addr:
		return "['] " + dump.formatName(uint(v))
	case cell.Str:
		return strconv.Quote(string(v))
	}
	return dump.formatCell(c)
}

// formatName names the word at addr, or the word containing it like NAME+2,
// or else just the address.
func (dump vmDumper) formatName(addr uint) string {
	if item, ok := dump.vm.dict.ByAddr(addr); ok {
		return item.Name
	}
	if item, ok := dump.vm.dict.Owner(addr); ok {
		return item.Name + "+" + strconv.Itoa(int(addr-item.Addr))
	}
	if addr == addrHalt {
		return "<halt>"
	}
	return "@" + strconv.Itoa(int(addr))
}

func (dump vmDumper) formatCell(c cell.Cell) string {
	switch v := c.(type) {
	case cell.Prim:
		if uint(v) < uint(vmCodeMax) {
			return "<" + vmCodeTable[v].name + ">"
		}
	case cell.Addr:
		if name := dump.formatName(uint(v)); !strings.HasPrefix(name, "@") {
			return "@" + name
		}
		return cell.Format(v, 10)
	case cell.Str:
		return strconv.Quote(string(v))
	}
	return cell.Format(c, 10)
}

func (dump vmDumper) load(addr uint) cell.Cell {
	c, _ := dump.vm.mem.Load(addr)
	return c
}

func formatCells(cells []cell.Cell, base int) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, c := range cells {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(cell.Format(c, base))
	}
	sb.WriteByte(']')
	return sb.String()
}

//// introspection words

// words implements WORDS, listing visible names newest first.
func (vm *VM) words() {
	vm.writeString(strings.Join(vm.dict.Names(), " "))
	vm.writeRune('\n')
}

// see implements SEE name, printing the decompiled word.
func (vm *VM) see() {
	item := vm.lookup(vm.token())
	var buf strings.Builder
	vmDumper{vm: vm}.formatWord(&buf, item)
	buf.WriteByte('\n')
	vm.writeString(buf.String())
}

// dumpCells implements DUMP ( addr n -- ), printing n cells from addr.
func (vm *VM) dumpCells() {
	n := vm.popInt()
	addr := vm.popAddr()
	if n < 0 {
		n = 0
	}
	dump := vmDumper{vm: vm, addrWidth: len(strconv.Itoa(int(addr) + n))}
	var buf strings.Builder
	for end := addr + uint(n); addr < end; addr++ {
		fmt.Fprintf(&buf, "@%*v ", dump.addrWidth, addr)
		if vm.mem.Allocated(addr) {
			buf.WriteString(dump.formatCell(dump.load(addr)))
		} else {
			buf.WriteString("<unallocated>")
		}
		buf.WriteByte('\n')
	}
	vm.writeString(buf.String())
}
