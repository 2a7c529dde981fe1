package main

import (
	"fmt"
	"unicode/utf8"

	"github.com/jcorbin/cellforth/internal/cell"
	"github.com/jcorbin/cellforth/internal/dict"
	"github.com/jcorbin/cellforth/internal/runeio"
)

type vmCode uint

const (
	// engine
	vmCodeDocol   vmCode = iota // DOCOL     enter a colon definition
	vmCodeExit                  // EXIT      return from a colon definition
	vmCodeLit                   // LIT       push the next body cell
	vmCodeBranch                // BRANCH    jump by the offset in the next body cell
	vmCodeZBranch               // 0BRANCH   jump if zero, else skip the offset
	vmCodeExecute               // EXECUTE   run the word whose address is on the stack
	vmCodeHalt                  // <INTERNAL> end an outer execution
	vmCodeDovar                 // <INTERNAL> push the address of a CREATEd word's data
	vmCodeDocon                 // <INTERNAL> push a CONSTANT's value

	// definitions
	vmCodeColon     // :          start a definition
	vmCodeSemicolon // ;          end a definition
	vmCodeImmediate // IMMEDIATE  mark the latest word immediate
	vmCodeHidden    // HIDDEN     toggle whether the word at an address is hidden
	vmCodeHide      // HIDE       hide the named word
	vmCodeLBrac     // [          interpret
	vmCodeRBrac     // ]          compile
	vmCodeTick      // '          push the address of the named word
	vmCodeBrTick    // [']        compile the address of the named word as a literal
	vmCodeComma     // ,          compile a cell
	vmCodeCreate    // CREATE     define a word that pushes its data address
	vmCodeConstant  // CONSTANT   define a word that pushes a value
	vmCodeRecurse   // RECURSE    compile a call to the word being defined
	vmCodeForget    // FORGET     remove every word of the given name
	vmCodeLiteral   // LITERAL    compile a cell from the stack as a literal
	vmCodePostpone  // POSTPONE   compile a call to the named word, even if immediate

	// variables and memory
	vmCodeHere    // HERE
	vmCodeLatest  // LATEST
	vmCodeState   // STATE
	vmCodeBase    // BASE
	vmCodeFetch   // @
	vmCodeStore   // !
	vmCodeAddStor // +!

	// stack
	vmCodeDup    // DUP
	vmCodeDrop   // DROP
	vmCodeSwap   // SWAP
	vmCodeOver   // OVER
	vmCodeRot    // ROT
	vmCodeNRot   // -ROT
	vmCodeNip    // NIP
	vmCodeTuck   // TUCK
	vmCodePick   // PICK
	vmCodeDepth  // DEPTH
	vmCodeClear  // CLEAR
	vmCodeToR    // >R
	vmCodeFromR  // R>
	vmCodeRFetch // R@
	vmCodeDSPGet // DSP@
	vmCodeDSPSet // DSP!
	vmCodeRSPGet // RSP@
	vmCodeRSPSet // RSP!

	// numeric
	vmCodeAdd    // +
	vmCodeSub    // -
	vmCodeMul    // *
	vmCodeDiv    // /
	vmCodeMod    // MOD
	vmCodeNegate // NEGATE
	vmCodeEq     // =
	vmCodeNe     // <>
	vmCodeLt     // <
	vmCodeGt     // >
	vmCodeLe     // <=
	vmCodeGe     // >=
	vmCodeZeroEq // 0=

	// input and output
	vmCodeDot   // .
	vmCodeDotS  // .S
	vmCodeEmit  // EMIT
	vmCodeKey   // KEY
	vmCodeCR    // CR
	vmCodeType  // TYPE
	vmCodeSpace // SPACE
	vmCodeChar  // CHAR
	vmCodeWord  // WORD

	// introspection
	vmCodeWords // WORDS
	vmCodeSee   // SEE
	vmCodeDump  // DUMP
	vmCodeFind  // FIND

	// foreign calls
	vmCodeCall // CALL

	vmCodeMax
)

type vmCodeDef struct {
	name string
	run  func(vm *VM)

	immediate bool

	// ownDispatch primitives set ip themselves, rather than running NEXT
	ownDispatch bool

	// internal primitives get no dictionary entry
	internal bool
}

var vmCodeTable [vmCodeMax]vmCodeDef

func init() {
	vmCodeTable = [vmCodeMax]vmCodeDef{
		vmCodeDocol:   {name: "DOCOL", run: (*VM).docol},
		vmCodeExit:    {name: "EXIT", run: (*VM).exit},
		vmCodeLit:     {name: "LIT", run: (*VM).lit},
		vmCodeBranch:  {name: "BRANCH", run: (*VM).branch, ownDispatch: true},
		vmCodeZBranch: {name: "0BRANCH", run: (*VM).zbranch, ownDispatch: true},
		vmCodeExecute: {name: "EXECUTE", run: (*VM).execute, ownDispatch: true},
		vmCodeHalt:    {name: "HALT", run: (*VM).halt, ownDispatch: true, internal: true},
		vmCodeDovar:   {name: "DOVAR", run: (*VM).dovar, internal: true},
		vmCodeDocon:   {name: "DOCON", run: (*VM).docon, internal: true},

		vmCodeColon:     {name: ":", run: (*VM).colon},
		vmCodeSemicolon: {name: ";", run: (*VM).semicolon, immediate: true},
		vmCodeImmediate: {name: "IMMEDIATE", run: (*VM).immediate, immediate: true},
		vmCodeHidden:    {name: "HIDDEN", run: (*VM).hidden},
		vmCodeHide:      {name: "HIDE", run: (*VM).hide},
		vmCodeLBrac:     {name: "[", run: func(vm *VM) { vm.setState(false) }, immediate: true},
		vmCodeRBrac:     {name: "]", run: func(vm *VM) { vm.setState(true) }},
		vmCodeTick:      {name: "'", run: (*VM).tick},
		vmCodeBrTick:    {name: "[']", run: (*VM).brtick, immediate: true},
		vmCodeComma:     {name: ",", run: func(vm *VM) { vm.compile(vm.pop()) }},
		vmCodeCreate:    {name: "CREATE", run: (*VM).create},
		vmCodeConstant:  {name: "CONSTANT", run: (*VM).constant},
		vmCodeRecurse:   {name: "RECURSE", run: (*VM).recurse, immediate: true},
		vmCodeForget:    {name: "FORGET", run: (*VM).forget},
		vmCodeLiteral:   {name: "LITERAL", run: (*VM).literal, immediate: true},
		vmCodePostpone:  {name: "POSTPONE", run: (*VM).postpone, immediate: true},

		vmCodeHere:    {name: "HERE", run: func(vm *VM) { vm.push(cell.Int(addrHere)) }},
		vmCodeLatest:  {name: "LATEST", run: func(vm *VM) { vm.push(cell.Int(addrLatest)) }},
		vmCodeState:   {name: "STATE", run: func(vm *VM) { vm.push(cell.Int(addrState)) }},
		vmCodeBase:    {name: "BASE", run: func(vm *VM) { vm.push(cell.Int(addrBase)) }},
		vmCodeFetch:   {name: "@", run: (*VM).fetch},
		vmCodeStore:   {name: "!", run: (*VM).store},
		vmCodeAddStor: {name: "+!", run: (*VM).addStore},

		vmCodeDup:    {name: "DUP", run: (*VM).dup},
		vmCodeDrop:   {name: "DROP", run: func(vm *VM) { vm.pop() }},
		vmCodeSwap:   {name: "SWAP", run: (*VM).swap},
		vmCodeOver:   {name: "OVER", run: (*VM).over},
		vmCodeRot:    {name: "ROT", run: (*VM).rot},
		vmCodeNRot:   {name: "-ROT", run: (*VM).nrot},
		vmCodeNip:    {name: "NIP", run: (*VM).dropSecond},
		vmCodeTuck:   {name: "TUCK", run: (*VM).tuck},
		vmCodePick:   {name: "PICK", run: (*VM).pick},
		vmCodeDepth:  {name: "DEPTH", run: func(vm *VM) { vm.push(cell.Int(vm.stack.Depth())) }},
		vmCodeClear:  {name: "CLEAR", run: func(vm *VM) { vm.stack.Clear() }},
		vmCodeToR:    {name: ">R", run: func(vm *VM) { vm.pushr(vm.pop()) }},
		vmCodeFromR:  {name: "R>", run: func(vm *VM) { vm.push(vm.popr()) }},
		vmCodeRFetch: {name: "R@", run: (*VM).rfetch},
		vmCodeDSPGet: {name: "DSP@", run: func(vm *VM) { vm.push(cell.Int(vm.stack.Pointer())) }},
		vmCodeDSPSet: {name: "DSP!", run: func(vm *VM) { vm.abortif(vm.stack.SetPointer(vm.popInt())) }},
		vmCodeRSPGet: {name: "RSP@", run: func(vm *VM) { vm.push(cell.Int(vm.rstack.Pointer())) }},
		vmCodeRSPSet: {name: "RSP!", run: func(vm *VM) { vm.abortif(vm.rstack.SetPointer(vm.popInt())) }},

		vmCodeAdd:    {name: "+", run: func(vm *VM) { vm.arith(cell.Add) }},
		vmCodeSub:    {name: "-", run: func(vm *VM) { vm.arith(cell.Sub) }},
		vmCodeMul:    {name: "*", run: func(vm *VM) { vm.arith(cell.Mul) }},
		vmCodeDiv:    {name: "/", run: func(vm *VM) { vm.arith(cell.Div) }},
		vmCodeMod:    {name: "MOD", run: func(vm *VM) { vm.arith(cell.Mod) }},
		vmCodeNegate: {name: "NEGATE", run: (*VM).negate},
		vmCodeEq:     {name: "=", run: func(vm *VM) { b, a := vm.pop(), vm.pop(); vm.push(cell.Bool(cell.Equal(a, b))) }},
		vmCodeNe:     {name: "<>", run: func(vm *VM) { b, a := vm.pop(), vm.pop(); vm.push(cell.Bool(!cell.Equal(a, b))) }},
		vmCodeLt:     {name: "<", run: func(vm *VM) { vm.compare(func(n int) bool { return n < 0 }) }},
		vmCodeGt:     {name: ">", run: func(vm *VM) { vm.compare(func(n int) bool { return n > 0 }) }},
		vmCodeLe:     {name: "<=", run: func(vm *VM) { vm.compare(func(n int) bool { return n <= 0 }) }},
		vmCodeGe:     {name: ">=", run: func(vm *VM) { vm.compare(func(n int) bool { return n >= 0 }) }},
		vmCodeZeroEq: {name: "0=", run: func(vm *VM) { vm.push(cell.Bool(cell.IsZero(vm.pop()))) }},

		vmCodeDot:   {name: ".", run: (*VM).dot},
		vmCodeDotS:  {name: ".S", run: (*VM).dotS},
		vmCodeEmit:  {name: "EMIT", run: (*VM).emit},
		vmCodeKey:   {name: "KEY", run: func(vm *VM) { vm.push(cell.Int(vm.readRune())) }},
		vmCodeCR:    {name: "CR", run: func(vm *VM) { vm.writeRune('\n') }},
		vmCodeType:  {name: "TYPE", run: (*VM).typ},
		vmCodeSpace: {name: "SPACE", run: func(vm *VM) { vm.writeRune(' ') }},
		vmCodeChar:  {name: "CHAR", run: (*VM).char},
		vmCodeWord:  {name: "WORD", run: func(vm *VM) { vm.push(cell.Str(vm.token())) }},

		vmCodeWords: {name: "WORDS", run: (*VM).words},
		vmCodeSee:   {name: "SEE", run: (*VM).see},
		vmCodeDump:  {name: "DUMP", run: (*VM).dumpCells},
		vmCodeFind:  {name: "FIND", run: func(vm *VM) { vm.push(cell.Addr(vm.lookup(vm.popStr()).Addr)) }},

		vmCodeCall: {name: "CALL", run: (*VM).call},
	}
}

// lookupError reports a name that the dictionary cannot resolve.
type lookupError string

func (name lookupError) Error() string { return fmt.Sprintf("undefined word %q", string(name)) }

func (vm *VM) lookup(name string) *dict.Item {
	item, ok := vm.dict.Lookup(name)
	if !ok {
		vm.abort(lookupError(name))
	}
	return item
}

//// engine

func (vm *VM) docol() {
	vm.pushr(cell.Addr(vm.nip))
	vm.nip = vm.ip + 1
}

func (vm *VM) exit() {
	c := vm.popr()
	a, ok := c.(cell.Addr)
	if !ok {
		vm.abort(fmt.Errorf("invalid return address %v %v", c.Kind(), c))
	}
	vm.nip = uint(a)
}

func (vm *VM) lit() {
	vm.push(vm.load(vm.nip))
	vm.nip++
}

// branch offsets are relative to the offset cell itself.
func (vm *VM) branch() {
	off := vm.loadInt(vm.nip)
	vm.nip = uint(int(vm.nip) + off)
	vm.next()
}

func (vm *VM) zbranch() {
	if cell.IsZero(vm.pop()) {
		vm.branch()
		return
	}
	vm.nip++
	vm.next()
}

func (vm *VM) execute() {
	c := vm.pop()
	a, ok := c.(cell.Addr)
	if !ok {
		vm.abort(cell.TypeError{Op: "execute", Kinds: []cell.Kind{c.Kind()}})
	}
	vm.ip = uint(a)
}

func (vm *VM) halt() { vm.halted = true }
func (vm *VM) dovar() { vm.push(cell.Int(vm.ip + 1)) }
func (vm *VM) docon() { vm.push(vm.load(vm.ip + 1)) }

//// definitions

// define creates a visible word at HERE whose code field is code.
func (vm *VM) define(name string, code vmCode) *dict.Item {
	addr := vm.allot(cell.Prim(code))
	item := vm.dict.Define(name, addr, false, false)
	item.Length = 1
	vm.setLatest(item)
	vm.logf("+", "define %q @%v %v", name, addr, vmCodeTable[code].name)
	return item
}

func (vm *VM) colon() {
	item := vm.define(vm.token(), vmCodeDocol)
	item.Hidden = true
	vm.setState(true)
}

func (vm *VM) semicolon() {
	item := vm.dict.Latest()
	if item == nil {
		vm.abort(lookupError(";"))
	}
	vm.compileCall(vmCodeExit)
	item.Hidden = false
	item.Length = vm.here() - item.Addr
	vm.setState(false)
}

func (vm *VM) immediate() {
	item := vm.dict.Latest()
	if item == nil {
		vm.abort(lookupError("IMMEDIATE"))
	}
	item.Immediate = true
}

func (vm *VM) hidden() {
	addr := vm.popAddr()
	item, ok := vm.dict.ByAddr(addr)
	if !ok {
		vm.abort(codeError{addr, vm.load(addr)})
	}
	item.Hidden = !item.Hidden
}

func (vm *VM) hide() { vm.lookup(vm.token()).Hidden = true }
func (vm *VM) tick() { vm.push(cell.Addr(vm.lookup(vm.token()).Addr)) }
func (vm *VM) postpone() { vm.compile(cell.Addr(vm.lookup(vm.token()).Addr)) }
func (vm *VM) create() { vm.define(vm.token(), vmCodeDovar) }
func (vm *VM) literal() { vm.compileCall(vmCodeLit); vm.compile(vm.pop()) }
func (vm *VM) constant() { name := vm.token(); value := vm.pop(); vm.define(name, vmCodeDocon); vm.compile(value) }
func (vm *VM) brtick() { vm.compileCall(vmCodeLit); vm.compile(cell.Addr(vm.lookup(vm.token()).Addr)) }
func (vm *VM) fetch() { vm.push(vm.load(vm.popAddr())) }
func (vm *VM) rfetch() { c := vm.popr(); vm.pushr(c); vm.push(c) }
func (vm *VM) dup() { c := vm.pop(); vm.push(c); vm.push(c) }
func (vm *VM) swap() { b, a := vm.pop(), vm.pop(); vm.push(b); vm.push(a) }
func (vm *VM) over() { b, a := vm.pop(), vm.pop(); vm.push(a); vm.push(b); vm.push(a) }
func (vm *VM) rot() { c, b, a := vm.pop(), vm.pop(), vm.pop(); vm.push(b); vm.push(c); vm.push(a) }
func (vm *VM) nrot() { c, b, a := vm.pop(), vm.pop(), vm.pop(); vm.push(c); vm.push(a); vm.push(b) }
func (vm *VM) dropSecond() { b := vm.pop(); vm.pop(); vm.push(b) }
func (vm *VM) tuck() { b, a := vm.pop(), vm.pop(); vm.push(b); vm.push(a); vm.push(b) }
func (vm *VM) store() { addr := vm.popAddr(); vm.stor(addr, vm.pop()) }
func (vm *VM) typ() { vm.writeString(cell.Format(vm.pop(), vm.numBase())) }
func (vm *VM) recurse() { vm.compile(cell.Addr(vm.latest().Addr)) }
func (vm *VM) negate() { r, err := cell.Negate(vm.pop()); vm.abortif(err); vm.push(r) }

func (vm *VM) arith(op cell.Op) {
	b, a := vm.pop(), vm.pop()
	r, err := cell.Arith(op, a, b)
	vm.abortif(err)
	vm.push(r)
}

func (vm *VM) latest() *dict.Item {
	item := vm.dict.Latest()
	if item == nil {
		vm.abort(lookupError("LATEST"))
	}
	return item
}

func (vm *VM) forget() {
	name := vm.token()
	removed := vm.dict.Remove(name)
	if len(removed) == 0 {
		vm.abort(lookupError(name))
	}
	vm.setLatest(vm.dict.Latest())
	vm.logf("-", "forget %q %v word(s)", name, len(removed))
}

//// memory and stack

func (vm *VM) addStore() {
	addr := vm.popAddr()
	n := vm.pop()
	r, err := cell.Arith(cell.Add, vm.load(addr), n)
	vm.abortif(err)
	vm.stor(addr, r)
}

func (vm *VM) pick() {
	n := vm.popInt()
	c, err := vm.stack.At(vm.stack.Depth() - 1 - n)
	vm.abortif(err)
	vm.push(c)
}

func (vm *VM) compare(test func(n int) bool) {
	b, a := vm.pop(), vm.pop()
	n, err := cell.Compare(a, b)
	vm.abortif(err)
	vm.push(cell.Bool(test(n)))
}

//// input and output

func (vm *VM) dot() {
	vm.writeString(cell.Format(vm.pop(), vm.numBase()))
	vm.writeRune(' ')
}

func (vm *VM) dotS() {
	values := vm.stack.Values()
	vm.writeString(fmt.Sprintf("<%v>", len(values)))
	for _, c := range values {
		vm.writeRune(' ')
		vm.writeString(cell.Format(c, vm.numBase()))
	}
	vm.writeRune('\n')
}

func (vm *VM) emit() {
	switch c := vm.pop().(type) {
	case cell.Str:
		vm.writeString(string(c))
	default:
		n, err := cell.ToInt(c)
		vm.abortif(err)
		vm.writeRune(rune(n))
	}
}

// char pushes the code point of a character literal token, like 'x' <ESC>
// or ^[, or else of the first rune of the token.
func (vm *VM) char() {
	token := vm.token()
	r, err := runeio.UnquoteRune(token)
	if err != nil {
		r, _ = utf8.DecodeRuneInString(token)
	}
	vm.push(cell.Int(r))
}
