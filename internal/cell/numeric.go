package cell

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"
)

// DivisionPlaces is the number of fractional digits kept by decimal division.
const DivisionPlaces = 34

// Op is a binary arithmetic operation.
type Op uint8

// Arithmetic operations.
const (
	Add Op = iota
	Sub
	Mul
	Div
	Mod
)

var opNames = [...]string{Add: "+", Sub: "-", Mul: "*", Div: "/", Mod: "mod"}

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "?"
}

// ArithError reports an arithmetically undefined operation.
type ArithError string

func (err ArithError) Error() string { return string(err) }

// ErrDivideByZero is returned by Div and Mod of an exact kind by zero.
const ErrDivideByZero = ArithError("division by zero")

// Arith applies op to a and b after promoting them to a common kind:
//   - Decimal with Decimal, or with any other numeric, is decimal math
//   - BigInt with BigInt, Int, or Long is big integer math
//   - BigInt with Float is float math
//   - native kinds use same-type math, Int with Long widening to Long, and any
//     Float widening to Float
func Arith(op Op, a, b Cell) (Cell, error) {
	if op > Mod {
		return nil, TypeError{Op: op.String(), Kinds: []Kind{kindOf(a), kindOf(b)}}
	}
	x, y, kind, err := promote(op.String(), a, b, false)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindDecimal:
		return decimalArith(op, x.(Decimal).Decimal, y.(Decimal).Decimal)
	case KindBigInt:
		return bigArith(op, x.(BigInt).Int, y.(BigInt).Int)
	case KindFloat:
		return floatArith(op, float64(x.(Float)), float64(y.(Float)))
	case KindLong:
		return longArith(op, int64(x.(Long)), int64(y.(Long)))
	default:
		return intArith(op, int32(x.(Int)), int32(y.(Int)))
	}
}

// Compare returns -1, 0, or 1 as a is less than, equal to, or greater than b.
// Native kinds are compared as floats; see Arith for the other promotions.
func Compare(a, b Cell) (int, error) {
	x, y, kind, err := promote("compare", a, b, true)
	if err != nil {
		return 0, err
	}
	switch kind {
	case KindDecimal:
		return x.(Decimal).Cmp(y.(Decimal).Decimal), nil
	case KindBigInt:
		return x.(BigInt).Cmp(y.(BigInt).Int), nil
	default:
		f, g := float64(x.(Float)), float64(y.(Float))
		switch {
		case f < g:
			return -1, nil
		case f > g:
			return 1, nil
		}
		return 0, nil
	}
}

// Equal compares numeric cells by value, and other cells by kind and value.
func Equal(a, b Cell) bool {
	if IsNumeric(a) && IsNumeric(b) {
		n, err := Compare(a, b)
		return err == nil && n == 0
	}
	if kindOf(a) != kindOf(b) {
		return false
	}
	if oa, ok := a.(Object); ok {
		return reflect.DeepEqual(oa.Value, b.(Object).Value)
	}
	return a == b
}

// Negate returns the additive inverse of a numeric cell.
func Negate(a Cell) (Cell, error) {
	switch v := a.(type) {
	case Int:
		return -v, nil
	case Long:
		return -v, nil
	case Float:
		return -v, nil
	case BigInt:
		return BigInt{new(big.Int).Neg(v.Int)}, nil
	case Decimal:
		return Decimal{v.Neg()}, nil
	}
	return nil, TypeError{Op: "negate", Kinds: []Kind{kindOf(a)}}
}

// ErrNonFinite is returned when a NaN or infinite Float would need to become
// a Decimal.
const ErrNonFinite = ArithError("non-finite float has no decimal value")

func promote(name string, a, b Cell, compare bool) (x, y Cell, kind Kind, err error) {
	ka, kb := kindOf(a), kindOf(b)
	switch {
	case !IsNumeric(a) || !IsNumeric(b):
		return nil, nil, KindNil, TypeError{Op: name, Kinds: []Kind{ka, kb}}

	case ka == KindDecimal && kb == KindDecimal:
		return a, b, KindDecimal, nil

	case ka == KindBigInt && kb == KindBigInt:
		return a, b, KindBigInt, nil

	case ka == KindDecimal || kb == KindDecimal:
		if !isFinite(a) || !isFinite(b) {
			return nil, nil, KindNil, fmt.Errorf("%v of %v and %v: %w", name, ka, kb, ErrNonFinite)
		}
		return toDecimal(a), toDecimal(b), KindDecimal, nil

	case ka == KindBigInt && isNativeInt(kb), kb == KindBigInt && isNativeInt(ka):
		return toBigInt(a), toBigInt(b), KindBigInt, nil

	case ka == KindBigInt || kb == KindBigInt:
		return toFloat(a), toFloat(b), KindFloat, nil

	case compare:
		return toFloat(a), toFloat(b), KindFloat, nil

	case ka == kb:
		return a, b, ka, nil

	case ka == KindFloat || kb == KindFloat:
		return toFloat(a), toFloat(b), KindFloat, nil

	default:
		return toLong(a), toLong(b), KindLong, nil
	}
}

func isFinite(c Cell) bool {
	f, ok := c.(Float)
	return !ok || !(math.IsNaN(float64(f)) || math.IsInf(float64(f), 0))
}

func isNativeInt(k Kind) bool { return k == KindInt || k == KindLong }

func toDecimal(c Cell) Decimal {
	switch v := c.(type) {
	case Int:
		return Decimal{decimal.NewFromInt(int64(v))}
	case Long:
		return Decimal{decimal.NewFromInt(int64(v))}
	case BigInt:
		return Decimal{decimal.NewFromBigInt(v.Int, 0)}
	case Float:
		return Decimal{decimal.NewFromFloat(float64(v))}
	}
	return c.(Decimal)
}

func toBigInt(c Cell) BigInt {
	switch v := c.(type) {
	case Int:
		return BigInt{big.NewInt(int64(v))}
	case Long:
		return BigInt{big.NewInt(int64(v))}
	}
	return c.(BigInt)
}

func toFloat(c Cell) Float {
	switch v := c.(type) {
	case Int:
		return Float(v)
	case Long:
		return Float(v)
	case BigInt:
		f, _ := new(big.Float).SetInt(v.Int).Float64()
		return Float(f)
	}
	return c.(Float)
}

func toLong(c Cell) Long {
	if i, ok := c.(Int); ok {
		return Long(i)
	}
	return c.(Long)
}

func intArith(op Op, a, b int32) (Cell, error) {
	switch op {
	case Add:
		return Int(a + b), nil
	case Sub:
		return Int(a - b), nil
	case Mul:
		return Int(a * b), nil
	}
	if b == 0 {
		return nil, ErrDivideByZero
	}
	if op == Div {
		return Int(a / b), nil
	}
	return Int(a % b), nil
}

func longArith(op Op, a, b int64) (Cell, error) {
	switch op {
	case Add:
		return Long(a + b), nil
	case Sub:
		return Long(a - b), nil
	case Mul:
		return Long(a * b), nil
	}
	if b == 0 {
		return nil, ErrDivideByZero
	}
	if op == Div {
		return Long(a / b), nil
	}
	return Long(a % b), nil
}

func floatArith(op Op, a, b float64) (Cell, error) {
	switch op {
	case Add:
		return Float(a + b), nil
	case Sub:
		return Float(a - b), nil
	case Mul:
		return Float(a * b), nil
	case Div:
		return Float(a / b), nil
	}
	return Float(math.Mod(a, b)), nil
}

func bigArith(op Op, a, b *big.Int) (Cell, error) {
	z := new(big.Int)
	switch op {
	case Add:
		return BigInt{z.Add(a, b)}, nil
	case Sub:
		return BigInt{z.Sub(a, b)}, nil
	case Mul:
		return BigInt{z.Mul(a, b)}, nil
	}
	if b.Sign() == 0 {
		return nil, ErrDivideByZero
	}
	if op == Div {
		return BigInt{z.Quo(a, b)}, nil
	}
	return BigInt{z.Rem(a, b)}, nil
}

func decimalArith(op Op, a, b decimal.Decimal) (Cell, error) {
	switch op {
	case Add:
		return Decimal{a.Add(b)}, nil
	case Sub:
		return Decimal{a.Sub(b)}, nil
	case Mul:
		return Decimal{a.Mul(b)}, nil
	}
	if b.IsZero() {
		return nil, ErrDivideByZero
	}
	if op == Div {
		return Decimal{a.DivRound(b, DivisionPlaces)}, nil
	}
	return Decimal{a.Mod(b)}, nil
}
