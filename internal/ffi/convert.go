package ffi

import (
	"fmt"
	"math"
	"math/big"
	"reflect"

	"github.com/shopspring/decimal"

	"github.com/jcorbin/cellforth/internal/cell"
)

var (
	bigIntPtrType  = reflect.TypeOf((*big.Int)(nil))
	decimalType    = reflect.TypeOf(decimal.Decimal{})
	errorType      = reflect.TypeOf((*error)(nil)).Elem()
	cellType       = reflect.TypeOf((*cell.Cell)(nil)).Elem()
	emptyIfaceType = reflect.TypeOf((*interface{})(nil)).Elem()
)

// ArgError reports an argument cell that could not be converted to the Go
// type its parameter requires.
type ArgError struct {
	Index int
	Kind  cell.Kind
	Type  reflect.Type
}

func (ae ArgError) Error() string {
	return fmt.Sprintf("argument %v: cannot convert %v to %v", ae.Index, ae.Kind, ae.Type)
}

// Native returns the natural Go value of a cell: Int as int, Long as int64,
// BigInt as *big.Int, Decimal as decimal.Decimal, Float as float64, Str as
// string, Nil as nil, and an Object's wrapped value.
func Native(c cell.Cell) interface{} {
	switch v := c.(type) {
	case cell.Int:
		return int(v)
	case cell.Long:
		return int64(v)
	case cell.BigInt:
		return v.Int
	case cell.Decimal:
		return v.Decimal
	case cell.Float:
		return float64(v)
	case cell.Str:
		return string(v)
	case cell.Addr:
		return uint(v)
	case cell.Prim:
		return uint(v)
	case cell.Object:
		return v.Value
	}
	return nil
}

// ToValue converts a cell into a Go value of type t.
func ToValue(c cell.Cell, t reflect.Type) (reflect.Value, bool) {
	if t == cellType {
		if c == nil {
			c = cell.Nil{}
		}
		return reflect.ValueOf(&c).Elem(), true
	}

	switch v := c.(type) {
	case nil, cell.Nil:
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false

	case cell.Object:
		if v.Value == nil {
			return ToValue(cell.Nil{}, t)
		}
		rv := reflect.ValueOf(v.Value)
		if rv.Type().AssignableTo(t) {
			return rv, true
		}
		if rv.Type().ConvertibleTo(t) && rv.Kind() == t.Kind() {
			return rv.Convert(t), true
		}
		return reflect.Value{}, false
	}

	if t.Kind() == reflect.Interface {
		native := Native(c)
		if rv := reflect.ValueOf(native); rv.Type().AssignableTo(t) {
			return rv, true
		}
		return reflect.Value{}, false
	}

	switch t {
	case bigIntPtrType:
		switch v := c.(type) {
		case cell.BigInt:
			return reflect.ValueOf(new(big.Int).Set(v.Int)), true
		case cell.Int, cell.Long:
			n, _ := cell.ToInt(v)
			return reflect.ValueOf(big.NewInt(int64(n))), true
		}
		return reflect.Value{}, false

	case decimalType:
		switch v := c.(type) {
		case cell.Decimal:
			return reflect.ValueOf(v.Decimal), true
		case cell.Int:
			return reflect.ValueOf(decimal.NewFromInt(int64(v))), true
		case cell.Long:
			return reflect.ValueOf(decimal.NewFromInt(int64(v))), true
		case cell.BigInt:
			return reflect.ValueOf(decimal.NewFromBigInt(v.Int, 0)), true
		case cell.Float:
			return reflect.ValueOf(decimal.NewFromFloat(float64(v))), true
		}
		return reflect.Value{}, false
	}

	rv := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := toInt64(c)
		if !ok || rv.OverflowInt(n) {
			return reflect.Value{}, false
		}
		rv.SetInt(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := toUint64(c)
		if !ok || rv.OverflowUint(n) {
			return reflect.Value{}, false
		}
		rv.SetUint(n)

	case reflect.Float32, reflect.Float64:
		f, ok := toFloat64(c)
		if !ok {
			return reflect.Value{}, false
		}
		rv.SetFloat(f)

	case reflect.Bool:
		if !cell.IsNumeric(c) {
			return reflect.Value{}, false
		}
		rv.SetBool(!cell.IsZero(c))

	case reflect.String:
		s, ok := c.(cell.Str)
		if !ok {
			return reflect.Value{}, false
		}
		rv.SetString(string(s))

	case reflect.Slice:
		s, ok := c.(cell.Str)
		if !ok || t.Elem().Kind() != reflect.Uint8 {
			return reflect.Value{}, false
		}
		rv.SetBytes([]byte(s))

	default:
		return reflect.Value{}, false
	}
	return rv, true
}

func toInt64(c cell.Cell) (int64, bool) {
	switch v := c.(type) {
	case cell.Int:
		return int64(v), true
	case cell.Long:
		return int64(v), true
	case cell.BigInt:
		if v.IsInt64() {
			return v.Int64(), true
		}
	case cell.Decimal:
		if v.IsInteger() {
			return v.IntPart(), true
		}
	case cell.Float:
		if f := float64(v); f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
			return int64(f), true
		}
	}
	return 0, false
}

func toUint64(c cell.Cell) (uint64, bool) {
	switch v := c.(type) {
	case cell.Addr:
		return uint64(v), true
	case cell.Prim:
		return uint64(v), true
	case cell.BigInt:
		if v.IsUint64() {
			return v.Uint64(), true
		}
		return 0, false
	}
	if n, ok := toInt64(c); ok && n >= 0 {
		return uint64(n), true
	}
	return 0, false
}

func toFloat64(c cell.Cell) (float64, bool) {
	switch v := c.(type) {
	case cell.Int:
		return float64(v), true
	case cell.Long:
		return float64(v), true
	case cell.Float:
		return float64(v), true
	case cell.BigInt:
		f, _ := new(big.Float).SetInt(v.Int).Float64()
		return f, true
	case cell.Decimal:
		f, _ := v.Float64()
		return f, true
	}
	return 0, false
}

// FromValue converts a Go value into a cell. Integers narrow to the smallest
// cell kind that holds them; values without a cell representation are
// wrapped in an Object.
func FromValue(rv reflect.Value) cell.Cell {
	if !rv.IsValid() {
		return cell.Nil{}
	}
	switch rv.Type() {
	case cellType:
		if rv.IsNil() {
			return cell.Nil{}
		}
		return rv.Interface().(cell.Cell)
	case bigIntPtrType:
		if rv.IsNil() {
			return cell.Nil{}
		}
		return cell.NewBigInt(new(big.Int).Set(rv.Interface().(*big.Int)))
	case decimalType:
		return cell.NewDecimal(rv.Interface().(decimal.Decimal))
	}

	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return cell.Nil{}
		}
		return FromValue(rv.Elem())

	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return cell.Nil{}
		}

	case reflect.Bool:
		return cell.Bool(rv.Bool())

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n := rv.Int()
		if n >= math.MinInt32 && n <= math.MaxInt32 {
			return cell.Int(n)
		}
		return cell.Long(n)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n := rv.Uint()
		switch {
		case n <= math.MaxInt32:
			return cell.Int(n)
		case n <= math.MaxInt64:
			return cell.Long(n)
		}
		return cell.NewBigInt(new(big.Int).SetUint64(n))

	case reflect.Float32, reflect.Float64:
		return cell.Float(rv.Float())

	case reflect.String:
		return cell.Str(rv.String())
	}

	return cell.Object{Value: rv.Interface()}
}
