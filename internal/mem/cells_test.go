package mem_test

import (
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/cellforth/internal/cell"
	"github.com/jcorbin/cellforth/internal/logio"
	"github.com/jcorbin/cellforth/internal/mem"
	"github.com/jcorbin/cellforth/internal/panicerr"
)

func Test_Cells(t *testing.T) {
	for _, tc := range []cellsTestCase{
		cellsTest("basic",
			"init", func(t *testing.T, m *mem.Cells) {
				m.PageSize = 4
				_, err := m.Load(0)
				require.ErrorIs(t, err, mem.AddressError{Addr: 0}, "expected unallocated @0")
				require.Equal(t, uint(0), m.Size(), "expected 0 initial size")
			},

			"9 -> 0", func(t *testing.T, m *mem.Cells) {
				require.NoError(t, m.Stor(0, cell.Int(9)), "must stor @0")
				expectCellAt(t, m, 0, cell.Int(9))
				expectUnallocated(t, m, 1)
				expectUnallocated(t, m, 4)
				require.Equal(t, uint(1), m.Size())
			},

			"{1, 2, 3, 4, 5, 6} -> 0x9", func(t *testing.T, m *mem.Cells) {
				require.NoError(t, m.Stor(0x9,
					cell.Int(1), cell.Int(2), cell.Int(3),
					cell.Int(4), cell.Int(5), cell.Int(6)), "must stor @0x9")
				require.Equal(t, mem.CellsLayout{
					Bases: []uint{0x0, 0x8, 0xc},
					Sizes: []uint{4, 4, 4},
				}, m.Layout(), "expected a page hole")
				expectCellsAt(t, m, 0x8,
					nil, cell.Int(1), cell.Int(2), cell.Int(3),
					cell.Int(4), cell.Int(5), cell.Int(6), nil)
				expectUnallocated(t, m, 0x8)
				require.Equal(t, uint(0xf), m.Size())
			},

			"nil is stored as Nil", func(t *testing.T, m *mem.Cells) {
				require.NoError(t, m.Stor(0xf, nil))
				expectCellAt(t, m, 0xf, cell.Nil{})
			},

			"fill the hole", func(t *testing.T, m *mem.Cells) {
				require.NoError(t, m.Stor(0x3, cell.Str("a"), cell.Str("b"), cell.Str("c")))
				require.Equal(t, mem.CellsLayout{
					Bases: []uint{0x0, 0x4, 0x8, 0xc},
					Sizes: []uint{4, 4, 4, 4},
				}, m.Layout())
				expectCellsAt(t, m, 0x2, nil, cell.Str("a"), cell.Str("b"), cell.Str("c"), nil)
			},
		),

		cellsTest("missing lower section",
			"initial value in 2nd page", func(t *testing.T, m *mem.Cells) {
				m.PageSize = 0x10
				expectUnallocated(t, m, 0x18)
				require.NoError(t, m.Stor(0x18, cell.Int(42)), "unexpected stor error")
				expectCellAt(t, m, 0x18, cell.Int(42))
			},

			"load low", func(t *testing.T, m *mem.Cells) { expectUnallocated(t, m, 0x8) },

			"create 3rd page", func(t *testing.T, m *mem.Cells) {
				require.NoError(t, m.Stor(0x28, cell.Int(99)), "unexpected stor error")
				expectCellAt(t, m, 0x28, cell.Int(99))
			},

			"finally create the 1st page", func(t *testing.T, m *mem.Cells) {
				require.NoError(t, m.Stor(0x8, cell.Int(3)), "unexpected stor error")
				expectCellAt(t, m, 0x8, cell.Int(3))
				require.Equal(t, []uint{0x0, 0x10, 0x20}, m.Layout().Bases)
			},
		),

		cellsTest("limit",
			"stor within", func(t *testing.T, m *mem.Cells) {
				m.Limit = 8
				require.NoError(t, m.Stor(6, cell.Int(1), cell.Int(2)))
			},

			"stor across", func(t *testing.T, m *mem.Cells) {
				err := m.Stor(7, cell.Int(1), cell.Int(2))
				require.ErrorIs(t, err, mem.LimitError{Addr: 8, Op: "stor"})
				expectCellAt(t, m, 7, cell.Int(2))
			},

			"load past", func(t *testing.T, m *mem.Cells) {
				_, err := m.Load(9)
				require.EqualError(t, err, "memory limit exceeded by load @9")
			},
		),
	} {
		t.Run(tc.name, func(t *testing.T) {
			tcLogOut := &logio.Writer{Logf: t.Logf}
			log.SetOutput(tcLogOut)
			defer log.SetOutput(os.Stderr)

			var m mem.Cells
			defer func() {
				if t.Failed() {
					t.Logf("layout: %+v", m.Layout())
				}
			}()

			for _, step := range tc.steps {
				if !t.Run(step.name, func(t *testing.T) {
					isolateTest(t, step.bind(&m))
				}) {
					break
				}
			}
		})
	}
}

func isolateTest(t *testing.T, f func(t *testing.T)) {
	if err := panicerr.Recover(t.Name(), func() error {
		f(t)
		return nil
	}); err != nil {
		t.Logf("%+v", err)
		t.Fail()
	}
}

func expectCellAt(t *testing.T, m *mem.Cells, addr uint, value cell.Cell) {
	val, err := m.Load(addr)
	require.NoError(t, err, "unexpected load @0x%x error", addr)
	assert.Equal(t, value, val, "expected value @0x%x", addr)
}

func expectUnallocated(t *testing.T, m *mem.Cells, addr uint) {
	_, err := m.Load(addr)
	var ae mem.AddressError
	require.ErrorAs(t, err, &ae, "expected unallocated @0x%x", addr)
	assert.Equal(t, addr, ae.Addr)
	assert.False(t, m.Allocated(addr))
}

func expectCellsAt(t *testing.T, m *mem.Cells, addr uint, values ...cell.Cell) {
	buf := make([]cell.Cell, len(values))
	require.NoError(t, m.LoadInto(addr, buf),
		"must load %v values from @0x%x", len(values), addr)
	require.Equal(t, values, buf, "expected values @0x%x", addr)
}

func cellsTest(name string, args ...interface{}) (tc cellsTestCase) {
	tc.name = name
	for i := 0; i < len(args); i++ {
		var step cellsTestStep

		step.name = args[i].(string)

		if i++; i >= len(args) {
			panic("cellsTest: missing function argument after name")
		}
		step.f = args[i].(func(t *testing.T, m *mem.Cells))

		tc.steps = append(tc.steps, step)
	}
	return tc
}

type cellsTestCase struct {
	name  string
	steps []cellsTestStep
}

type cellsTestStep struct {
	name string
	f    func(t *testing.T, m *mem.Cells)

	m *mem.Cells
}

func (step cellsTestStep) bind(m *mem.Cells) func(t *testing.T) {
	step.m = m
	return step.boundTest
}

func (step cellsTestStep) boundTest(t *testing.T) {
	step.f(t, step.m)
}
