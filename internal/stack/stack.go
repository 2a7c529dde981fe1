// Package stack implements the pointer addressable cell stacks used for the
// VM's parameter and return stacks.
package stack

import (
	"errors"
	"fmt"

	"github.com/jcorbin/cellforth/internal/cell"
)

// ErrUnderflow is returned when popping or peeking an empty stack.
var ErrUnderflow = errors.New("stack underflow")

// PointerError is returned when accessing or moving a stack pointer out of
// range.
type PointerError struct {
	Name  string
	Index int
}

func (pe PointerError) Error() string {
	return fmt.Sprintf("%v pointer out of range: %v", pe.Name, pe.Index)
}

// Stack is a LIFO sequence of cells, additionally addressable by position.
// The zero value is an empty stack.
//
// The pointer is the depth of the stack: the index one past its top cell.
// Moving the pointer down retains the cells above it, so that moving it back
// up exposes them again.
type Stack struct {
	Name  string
	cells []cell.Cell
	sp    int
}

// Depth returns the number of cells on the stack.
func (s *Stack) Depth() int { return s.sp }

// Need returns ErrUnderflow unless the stack holds at least n cells.
func (s *Stack) Need(n int) error {
	if n > s.sp {
		return s.underflow()
	}
	return nil
}

// Push a cell onto the top of the stack.
func (s *Stack) Push(c cell.Cell) {
	if s.sp < len(s.cells) {
		s.cells[s.sp] = c
	} else {
		s.cells = append(s.cells, c)
	}
	s.sp++
}

// Pop removes and returns the top cell, or returns ErrUnderflow.
func (s *Stack) Pop() (cell.Cell, error) {
	if s.sp == 0 {
		return nil, s.underflow()
	}
	s.sp--
	return s.cells[s.sp], nil
}

// Peek returns the top cell without removing it, or returns ErrUnderflow.
func (s *Stack) Peek() (cell.Cell, error) {
	if s.sp == 0 {
		return nil, s.underflow()
	}
	return s.cells[s.sp-1], nil
}

// Pointer returns the current stack pointer.
func (s *Stack) Pointer() int { return s.sp }

// SetPointer moves the stack pointer, anywhere from empty up to the highest
// cell ever retained.
func (s *Stack) SetPointer(sp int) error {
	if sp < 0 || sp > len(s.cells) {
		return PointerError{s.name(), sp}
	}
	s.sp = sp
	return nil
}

// At returns the cell at index i, counted from the bottom of the stack.
func (s *Stack) At(i int) (cell.Cell, error) {
	if i < 0 || i >= s.sp {
		return nil, PointerError{s.name(), i}
	}
	return s.cells[i], nil
}

// Values returns a copy of the live cells, bottom first.
func (s *Stack) Values() []cell.Cell {
	values := make([]cell.Cell, s.sp)
	copy(values, s.cells)
	return values
}

// Clear empties the stack, dropping any retained cells.
func (s *Stack) Clear() {
	s.cells = s.cells[:0]
	s.sp = 0
}

func (s *Stack) name() string {
	if s.Name == "" {
		return "stack"
	}
	return s.Name
}

func (s *Stack) underflow() error {
	if s.Name == "" {
		return ErrUnderflow
	}
	return fmt.Errorf("%v: %w", s.Name, ErrUnderflow)
}
