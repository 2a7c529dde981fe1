// Package ffi implements a reflection based bridge from VM cells to Go
// functions, types, and the methods and fields of Go values.
package ffi

import (
	"fmt"
	"strconv"
	"strings"
)

// VariadicMarker suffixes a descriptor arity to mark its last parameter as
// variadic.
const VariadicMarker = "..."

// Descriptor names a foreign member, and how many arguments it is called
// with, in the form "type/member/arity". The type part may itself contain
// slashes, as in "math/big.Int/new/0".
type Descriptor struct {
	Type     string
	Member   string
	Arity    int
	Variadic bool
}

// ParseDescriptor parses a descriptor string like "strings/Repeat/2" or
// "fmt/Sprint/2...".
func ParseDescriptor(s string) (Descriptor, error) {
	var desc Descriptor

	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return desc, fmt.Errorf("invalid descriptor %q: missing arity", s)
	}
	arity := s[i+1:]
	s = s[:i]

	if trimmed := strings.TrimSuffix(arity, VariadicMarker); trimmed != arity {
		desc.Variadic = true
		arity = trimmed
	}
	n, err := strconv.Atoi(arity)
	if err != nil || n < 0 {
		return desc, fmt.Errorf("invalid descriptor arity %q", arity)
	}
	if desc.Variadic && n == 0 {
		return desc, fmt.Errorf("invalid descriptor arity %q: variadic needs a parameter", arity)
	}
	desc.Arity = n

	i = strings.LastIndexByte(s, '/')
	if i < 0 {
		return desc, fmt.Errorf("invalid descriptor %q: missing member", s)
	}
	desc.Type, desc.Member = s[:i], s[i+1:]
	if desc.Member == "" {
		return desc, fmt.Errorf("invalid descriptor %q: empty member", s)
	}
	return desc, nil
}

func (desc Descriptor) String() string {
	var sb strings.Builder
	sb.WriteString(desc.Type)
	sb.WriteByte('/')
	sb.WriteString(desc.Member)
	sb.WriteByte('/')
	sb.WriteString(strconv.Itoa(desc.Arity))
	if desc.Variadic {
		sb.WriteString(VariadicMarker)
	}
	return sb.String()
}

func (desc Descriptor) key() string { return desc.Type + "/" + desc.Member }
