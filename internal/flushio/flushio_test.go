package flushio_test

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/cellforth/internal/flushio"
)

type plainWriter struct{ bytes.Buffer }

func (pw *plainWriter) Write(p []byte) (int, error) { return pw.Buffer.Write(p) }

func Test_NewWriteFlusher(t *testing.T) {
	var sb strings.Builder
	wf := flushio.NewWriteFlusher(&sb)
	_, err := io.WriteString(wf, "hi")
	require.NoError(t, err)
	assert.Equal(t, "hi", sb.String(), "buffers are written through")

	bw := bufio.NewWriter(&sb)
	assert.Same(t, bw, flushio.NewWriteFlusher(bw), "write flushers are returned as is")

	var pw plainWriter
	wf = flushio.NewWriteFlusher(struct{ io.Writer }{&pw})
	_, err = io.WriteString(wf, "buffered")
	require.NoError(t, err)
	assert.Equal(t, "", pw.String(), "other writers are buffered")
	require.NoError(t, wf.Flush())
	assert.Equal(t, "buffered", pw.String())
}

func Test_Tee(t *testing.T) {
	var a, b strings.Builder
	wf := flushio.Tee(flushio.NewWriteFlusher(&a), nil, flushio.NewWriteFlusher(&b))
	_, err := io.WriteString(wf, "both")
	require.NoError(t, err)
	require.NoError(t, wf.Flush())
	assert.Equal(t, "both", a.String())
	assert.Equal(t, "both", b.String())

	assert.Nil(t, flushio.Tee())
	one := flushio.NewWriteFlusher(&a)
	assert.Equal(t, one, flushio.Tee(nil, one))
}
