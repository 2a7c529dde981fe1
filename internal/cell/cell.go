// Package cell defines the single tagged value type that every address of VM
// memory, and every slot of its stacks, holds.
package cell

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Cell is one tagged value. The set of implementations is closed: Nil, Int,
// Long, BigInt, Decimal, Float, Str, Prim, Addr, and Object.
type Cell interface {
	Kind() Kind
	sealed()
}

// Kind names the tag of a Cell.
type Kind uint8

// Cell kinds.
const (
	KindNil Kind = iota
	KindInt
	KindLong
	KindBigInt
	KindDecimal
	KindFloat
	KindStr
	KindPrim
	KindAddr
	KindObject
)

var kindNames = [...]string{
	KindNil:     "nil",
	KindInt:     "int",
	KindLong:    "long",
	KindBigInt:  "bigint",
	KindDecimal: "decimal",
	KindFloat:   "float",
	KindStr:     "str",
	KindPrim:    "prim",
	KindAddr:    "addr",
	KindObject:  "object",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

type (
	// Nil is the empty value.
	Nil struct{}

	// Int is a native width signed integer.
	Int int32

	// Long is the wider native signed integer.
	Long int64

	// BigInt is an arbitrary precision integer; it must not be mutated once
	// stored in a cell.
	BigInt struct{ *big.Int }

	// Decimal is an arbitrary precision decimal.
	Decimal struct{ decimal.Decimal }

	// Float is a native floating point value.
	Float float64

	// Str is a character or string.
	Str string

	// Prim references a primitive operation by its code.
	Prim uint

	// Addr is a memory address, usually the entry point of a word.
	Addr uint

	// Object wraps an opaque host value, as returned by a foreign call.
	Object struct{ Value interface{} }
)

func (Nil) Kind() Kind     { return KindNil }
func (Int) Kind() Kind     { return KindInt }
func (Long) Kind() Kind    { return KindLong }
func (BigInt) Kind() Kind  { return KindBigInt }
func (Decimal) Kind() Kind { return KindDecimal }
func (Float) Kind() Kind   { return KindFloat }
func (Str) Kind() Kind     { return KindStr }
func (Prim) Kind() Kind    { return KindPrim }
func (Addr) Kind() Kind    { return KindAddr }
func (Object) Kind() Kind  { return KindObject }

func (Nil) sealed()     {}
func (Int) sealed()     {}
func (Long) sealed()    {}
func (BigInt) sealed()  {}
func (Decimal) sealed() {}
func (Float) sealed()   {}
func (Str) sealed()     {}
func (Prim) sealed()    {}
func (Addr) sealed()    {}
func (Object) sealed()  {}

func (Nil) String() string       { return "nil" }
func (i Int) String() string     { return strconv.FormatInt(int64(i), 10) }
func (l Long) String() string    { return strconv.FormatInt(int64(l), 10) }
func (f Float) String() string   { return strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (p Prim) String() string    { return "prim#" + strconv.FormatUint(uint64(p), 10) }
func (a Addr) String() string    { return "@" + strconv.FormatUint(uint64(a), 10) }
func (o Object) String() string  { return fmt.Sprintf("<%T %v>", o.Value, o.Value) }
func (s Str) String() string     { return string(s) }
func (b BigInt) String() string  { return b.Int.String() }
func (d Decimal) String() string { return d.Decimal.String() }

// NewBigInt wraps n; n is owned by the returned cell afterwards.
func NewBigInt(n *big.Int) BigInt { return BigInt{n} }

// NewDecimal wraps d.
func NewDecimal(d decimal.Decimal) Decimal { return Decimal{d} }

// Bool returns the canonical flag cell: -1 for true, 0 for false.
func Bool(b bool) Int {
	if b {
		return -1
	}
	return 0
}

// IsNumeric returns true for the numeric kinds.
func IsNumeric(c Cell) bool {
	switch c.(type) {
	case Int, Long, BigInt, Decimal, Float:
		return true
	}
	return false
}

// IsZero returns true only if c is a numeric zero value.
func IsZero(c Cell) bool {
	switch v := c.(type) {
	case Int:
		return v == 0
	case Long:
		return v == 0
	case BigInt:
		return v.Sign() == 0
	case Decimal:
		return v.IsZero()
	case Float:
		return v == 0
	}
	return false
}

// ToInt converts any integral cell, or an address, to a host int.
func ToInt(c Cell) (int, error) {
	switch v := c.(type) {
	case Int:
		return int(v), nil
	case Long:
		return int(v), nil
	case Addr:
		return int(v), nil
	case BigInt:
		if v.IsInt64() {
			return int(v.Int64()), nil
		}
	}
	return 0, TypeError{Op: "int", Kinds: []Kind{kindOf(c)}}
}

// ToAddr converts an address, or a non-negative integral cell, to an address.
func ToAddr(c Cell) (uint, error) {
	if a, ok := c.(Addr); ok {
		return uint(a), nil
	}
	n, err := ToInt(c)
	if err != nil || n < 0 {
		return 0, TypeError{Op: "addr", Kinds: []Kind{kindOf(c)}}
	}
	return uint(n), nil
}

// Format renders c for output, formatting integral values in base.
func Format(c Cell, base int) string {
	if base < 2 || base > 36 {
		base = 10
	}
	switch v := c.(type) {
	case nil:
		return "<unallocated>"
	case Int:
		return strings.ToUpper(strconv.FormatInt(int64(v), base))
	case Long:
		return strings.ToUpper(strconv.FormatInt(int64(v), base))
	case BigInt:
		return strings.ToUpper(v.Text(base))
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(c)
}

// TypeError reports an operation applied to cells of unsupported kinds.
type TypeError struct {
	Op    string
	Kinds []Kind
}

func (te TypeError) Error() string {
	var sb strings.Builder
	sb.WriteString("type error: ")
	sb.WriteString(te.Op)
	sb.WriteString(" not defined for ")
	for i, k := range te.Kinds {
		if i > 0 {
			sb.WriteString(" and ")
		}
		sb.WriteString(k.String())
	}
	return sb.String()
}

func kindOf(c Cell) Kind {
	if c == nil {
		return KindNil
	}
	return c.Kind()
}
