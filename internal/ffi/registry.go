package ffi

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/jcorbin/cellforth/internal/cell"
	"github.com/jcorbin/cellforth/internal/panicerr"
)

// ConstructorMember names the member that constructs a registered type.
const ConstructorMember = "new"

// Errors wrapped by CallError.
var (
	ErrNoMember = errors.New("no such member")
	ErrArity    = errors.New("arity mismatch")
	ErrTarget   = errors.New("target type mismatch")
)

// CallError reports a failed foreign call.
type CallError struct {
	Desc Descriptor
	Err  error
}

func (ce *CallError) Error() string { return fmt.Sprintf("call %v: %v", ce.Desc, ce.Err) }
func (ce *CallError) Unwrap() error { return ce.Err }

// Registry resolves descriptors against registered Go functions and types.
//
// A descriptor whose target is an Object resolves its member as a method of
// the object's value, falling back to an exported struct field: arity 0 reads
// the field, arity 1 writes it. Any other target makes the call static: the
// member resolves to a function registered under "type/member", or for the
// "new" member of a registered type with no such function, to a pointer to a
// new zero value.
type Registry struct {
	funcs map[string]reflect.Value
	types map[string]reflect.Type
}

// Func registers fn, which must be a function, as typeName/member.
func (reg *Registry) Func(typeName, member string, fn interface{}) {
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		panic(fmt.Sprintf("ffi: %v/%v registered with non-function %T", typeName, member, fn))
	}
	if reg.funcs == nil {
		reg.funcs = make(map[string]reflect.Value)
	}
	reg.funcs[typeName+"/"+member] = rv
}

// Type registers the type of the given sample value under name; pointer
// samples register their element type.
func (reg *Registry) Type(name string, sample interface{}) {
	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if reg.types == nil {
		reg.types = make(map[string]reflect.Type)
	}
	reg.types[name] = t
}

// Names returns all registered "type/member" function keys, sorted.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.funcs))
	for name := range reg.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call resolves desc against target and invokes it with args, which must
// number exactly desc.Arity. Any failure, including a panic or non-nil error
// returned by the callee, is a *CallError.
func (reg *Registry) Call(target cell.Cell, desc Descriptor, args []cell.Cell) (result cell.Cell, err error) {
	if len(args) != desc.Arity {
		return nil, &CallError{desc, fmt.Errorf("%w: given %v arguments", ErrArity, len(args))}
	}
	err = panicerr.Recover(desc.String(), func() (ferr error) {
		result, ferr = reg.call(target, desc, args)
		return ferr
	})
	if err != nil {
		var ce *CallError
		if !errors.As(err, &ce) {
			err = &CallError{desc, err}
		}
		return nil, err
	}
	return result, nil
}

func (reg *Registry) call(target cell.Cell, desc Descriptor, args []cell.Cell) (cell.Cell, error) {
	if obj, isObj := target.(cell.Object); isObj && obj.Value != nil {
		return reg.callObject(reflect.ValueOf(obj.Value), desc, args)
	}

	if fn, ok := reg.funcs[desc.key()]; ok {
		return invoke(fn, desc, args)
	}

	if t, ok := reg.types[desc.Type]; ok && desc.Member == ConstructorMember {
		if desc.Arity != 0 {
			return nil, &CallError{desc, fmt.Errorf("%w: %v has no constructor function", ErrArity, desc.Type)}
		}
		return cell.Object{Value: reflect.New(t).Interface()}, nil
	}

	return nil, &CallError{desc, ErrNoMember}
}

func (reg *Registry) callObject(rv reflect.Value, desc Descriptor, args []cell.Cell) (cell.Cell, error) {
	if t, ok := reg.types[desc.Type]; ok {
		if vt := rv.Type(); vt != t && !(vt.Kind() == reflect.Ptr && vt.Elem() == t) {
			return nil, &CallError{desc, fmt.Errorf("%w: have %v, want %v", ErrTarget, vt, desc.Type)}
		}
	}

	if method := rv.MethodByName(desc.Member); method.IsValid() {
		return invoke(method, desc, args)
	}

	sv := rv
	if sv.Kind() == reflect.Ptr && !sv.IsNil() {
		sv = sv.Elem()
	}
	if sv.Kind() == reflect.Struct {
		if sf, ok := sv.Type().FieldByName(desc.Member); ok && sf.IsExported() {
			field := sv.FieldByIndex(sf.Index)
			switch desc.Arity {
			case 0:
				return FromValue(field), nil
			case 1:
				if !field.CanSet() {
					return nil, &CallError{desc, fmt.Errorf("field %v is not settable", desc.Member)}
				}
				val, ok := ToValue(args[0], field.Type())
				if !ok {
					return nil, &CallError{desc, ArgError{0, kindOf(args[0]), field.Type()}}
				}
				field.Set(val)
				return cell.Nil{}, nil
			}
			return nil, &CallError{desc, fmt.Errorf("%w: field access takes 0 or 1 arguments", ErrArity)}
		}
	}

	return nil, &CallError{desc, ErrNoMember}
}

func invoke(fn reflect.Value, desc Descriptor, args []cell.Cell) (cell.Cell, error) {
	ft := fn.Type()
	if ft.IsVariadic() != desc.Variadic || ft.NumIn() != desc.Arity {
		return nil, &CallError{desc, fmt.Errorf("%w: have %v", ErrArity, ft)}
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		pt := ft.In(i)
		if desc.Variadic && i == len(args)-1 {
			if val, ok := ToValue(arg, pt); ok {
				in[i] = val
				continue
			}
			val, ok := ToValue(arg, pt.Elem())
			if !ok {
				return nil, &CallError{desc, ArgError{i, kindOf(arg), pt.Elem()}}
			}
			in[i] = reflect.Append(reflect.MakeSlice(pt, 0, 1), val)
			continue
		}
		val, ok := ToValue(arg, pt)
		if !ok {
			return nil, &CallError{desc, ArgError{i, kindOf(arg), pt}}
		}
		in[i] = val
	}

	var out []reflect.Value
	if desc.Variadic {
		out = fn.CallSlice(in)
	} else {
		out = fn.Call(in)
	}

	if n := len(out); n > 0 && ft.Out(n-1) == errorType {
		if err, _ := out[n-1].Interface().(error); err != nil {
			return nil, &CallError{desc, err}
		}
		out = out[:n-1]
	}

	switch len(out) {
	case 0:
		return cell.Nil{}, nil
	case 1:
		return FromValue(out[0]), nil
	}
	values := make([]interface{}, len(out))
	for i, o := range out {
		values[i] = o.Interface()
	}
	return cell.Object{Value: values}, nil
}

func kindOf(c cell.Cell) cell.Kind {
	if c == nil {
		return cell.KindNil
	}
	return c.Kind()
}
