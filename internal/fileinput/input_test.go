package fileinput_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/cellforth/internal/fileinput"
)

type namedReader struct {
	io.Reader
	name   string
	closed bool
}

func (nr *namedReader) Name() string { return nr.name }
func (nr *namedReader) Close() error { nr.closed = true; return nil }

func readAll(t *testing.T, in *fileinput.Input) string {
	var sb strings.Builder
	for {
		r, _, err := in.ReadRune()
		if err == io.EOF {
			return sb.String()
		}
		require.NoError(t, err)
		sb.WriteRune(r)
	}
}

func Test_Input(t *testing.T) {
	a := &namedReader{Reader: strings.NewReader("1 2\n3"), name: "a.fs"}
	b := &namedReader{Reader: strings.NewReader("\n4\n"), name: "b.fs"}

	var in fileinput.Input
	in.Push(a, b)
	assert.Equal(t, "1 2\n3\n\n4\n", readAll(t, &in), "expected unterminated line to end")

	assert.True(t, a.closed, "expected first reader closed")
	assert.True(t, b.closed, "expected second reader closed")
	assert.Equal(t, fileinput.Location{Name: "b.fs", Line: 2}, in.Last.Location)
	assert.Equal(t, "4", in.Last.Text.String())
}

func Test_Input_location(t *testing.T) {
	var in fileinput.Input
	in.Push(&namedReader{Reader: strings.NewReader("ab\ncd"), name: "x"})
	for i := 0; i < 4; i++ {
		_, _, err := in.ReadRune()
		require.NoError(t, err)
	}
	assert.Equal(t, "x:2", in.Where().String())
	assert.Equal(t, `x:2 "c"`, in.Scan.String())
	assert.Equal(t, "ab", in.Last.Text.String())
}

func Test_Input_lineFeed(t *testing.T) {
	var in fileinput.Input
	in.Push(&namedReader{Reader: strings.NewReader("ab\ncd"), name: "x"})
	for i := 0; i < 3; i++ {
		_, _, err := in.ReadRune()
		require.NoError(t, err)
	}
	assert.Equal(t, "x:1", in.Where().String(), "line feed belongs to the line it ends")
}

func Test_Input_empty(t *testing.T) {
	var in fileinput.Input
	_, _, err := in.ReadRune()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, "line 0", in.Where().String())
}
