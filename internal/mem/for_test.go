package mem

// CellsLayout describes page placement for testing.
type CellsLayout struct {
	Bases []uint
	Sizes []uint
}

// Layout returns the current page placement, for testing.
func (m *Cells) Layout() (l CellsLayout) {
	for _, p := range m.pages {
		l.Bases = append(l.Bases, p.base)
		l.Sizes = append(l.Sizes, uint(len(p.cells)))
	}
	return l
}
