// Package mem implements the VM's cell store: a sparse, paged, growable array
// of cells addressed from zero.
package mem

import (
	"fmt"
	"sort"

	"github.com/jcorbin/cellforth/internal/cell"
)

// DefaultPageSize provides a default for Cells.PageSize.
const DefaultPageSize = 256

// Cells is a paged cell memory. Every address either holds exactly one cell or
// is unallocated; pages are allocated on first store, and never freed.
type Cells struct {
	// PageSize specifies the length for newly allocated pages.
	PageSize uint

	// Limit specifies an address at or past which any store or load fails.
	Limit uint

	pages []page
	size  uint
}

type page struct {
	base  uint
	cells []cell.Cell
}

func (p page) end() uint { return p.base + uint(len(p.cells)) }

// LimitError indicates that a load or store exceeded the memory limit.
type LimitError struct {
	Addr uint
	Op   string
}

func (lim LimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded by %v @%v", lim.Op, lim.Addr)
}

// AddressError indicates a load of an address that was never stored to.
type AddressError struct {
	Addr uint
}

func (ae AddressError) Error() string {
	return fmt.Sprintf("unallocated address @%v", ae.Addr)
}

// Size returns one past the highest address ever stored to.
func (m *Cells) Size() uint { return m.size }

// Load returns the cell stored at addr.
// Returns an AddressError if addr was never stored, or a LimitError if addr
// exceeds any Limit.
func (m *Cells) Load(addr uint) (cell.Cell, error) {
	if err := m.checkLimit(addr, "load"); err != nil {
		return nil, err
	}
	if i := m.findPage(addr); i < len(m.pages) && m.pages[i].base <= addr {
		p := m.pages[i]
		if c := p.cells[addr-p.base]; c != nil {
			return c, nil
		}
	}
	return nil, AddressError{addr}
}

// Allocated returns true if addr has been stored to.
func (m *Cells) Allocated(addr uint) bool {
	c, err := m.Load(addr)
	return err == nil && c != nil
}

// LoadInto reads len(buf) cells from memory starting at addr, leaving nil
// entries in buf for any unallocated addresses.
// Returns an error if Limit would be exceeded; no partial load is done.
func (m *Cells) LoadInto(addr uint, buf []cell.Cell) error {
	if len(buf) == 0 {
		return nil
	}
	end := addr + uint(len(buf))
	if err := m.checkLimit(end-1, "load"); err != nil {
		return err
	}
	for i := range buf {
		buf[i] = nil
	}
	for i := m.findPage(addr); i < len(m.pages) && m.pages[i].base < end; i++ {
		p := m.pages[i]
		from, to := p.base, p.end()
		if from < addr {
			from = addr
		}
		if to > end {
			to = end
		}
		copy(buf[from-addr:to-addr], p.cells[from-p.base:to-p.base])
	}
	return nil
}

// Stor stores values at consecutive addresses starting at addr, allocating
// pages as needed. A nil value is stored as cell.Nil.
// Returns an error if Limit would be exceeded; no partial store is done.
func (m *Cells) Stor(addr uint, values ...cell.Cell) error {
	if len(values) == 0 {
		return nil
	}
	end := addr + uint(len(values))
	if err := m.checkLimit(end-1, "stor"); err != nil {
		return err
	}
	if m.PageSize == 0 {
		m.PageSize = DefaultPageSize
	}
	for addr < end {
		p := m.pageAt(addr)
		for off := addr - p.base; off < uint(len(p.cells)) && len(values) > 0; off++ {
			v := values[0]
			if v == nil {
				v = cell.Nil{}
			}
			p.cells[off] = v
			values = values[1:]
			addr++
		}
	}
	if end > m.size {
		m.size = end
	}
	return nil
}

// findPage returns the index of the first page that ends after addr.
func (m *Cells) findPage(addr uint) int {
	return sort.Search(len(m.pages), func(i int) bool {
		return m.pages[i].end() > addr
	})
}

// pageAt returns the page containing addr, allocating one if necessary.
// Newly allocated pages are aligned to PageSize, clipped so as not to overlap
// their neighbors.
func (m *Cells) pageAt(addr uint) *page {
	i := m.findPage(addr)
	if i < len(m.pages) && m.pages[i].base <= addr {
		return &m.pages[i]
	}

	base := addr / m.PageSize * m.PageSize
	end := base + m.PageSize
	if i > 0 {
		if prevEnd := m.pages[i-1].end(); base < prevEnd {
			base = prevEnd
		}
	}
	if i < len(m.pages) {
		if nextBase := m.pages[i].base; end > nextBase {
			end = nextBase
		}
	}

	m.pages = append(m.pages, page{})
	copy(m.pages[i+1:], m.pages[i:])
	m.pages[i] = page{base: base, cells: make([]cell.Cell, end-base)}
	return &m.pages[i]
}

func (m *Cells) checkLimit(addr uint, op string) error {
	if maxSize := m.Limit; maxSize != 0 && addr >= maxSize {
		return LimitError{addr, op}
	}
	return nil
}
